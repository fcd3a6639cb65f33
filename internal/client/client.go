// Package client habla con el servicio de randomness por HTTP y arma el lado
// cliente del protocolo (blind -> evaluación remota -> unblind -> finalize).
package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	dto "github.com/dropDatabas3/starrand/internal/http/dto/randomness"
	"github.com/dropDatabas3/starrand/internal/ppoprf"
)

// APIError es una respuesta no-2xx del servicio.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("status=%d: %s", e.Status, e.Message)
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New crea un cliente con timeout por defecto.
func New(baseURL string) *Client {
	return &Client{BaseURL: baseURL, HTTP: &http.Client{Timeout: 30 * time.Second}}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	url := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)

	if resp.StatusCode/100 != 2 {
		var e struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(b, &e) != nil || e.Message == "" {
			e.Message = strings.TrimSpace(string(b))
		}
		return &APIError{Status: resp.StatusCode, Message: e.Message}
	}
	return json.Unmarshal(b, out)
}

// Info consulta GET /info.
func (c *Client) Info(ctx context.Context) (*dto.InfoResponse, error) {
	var out dto.InfoResponse
	if err := c.do(ctx, http.MethodGet, "/info", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Randomness envía puntos ya codificados a POST /randomness.
func (c *Client) Randomness(ctx context.Context, points []string, epoch *uint8) (*dto.RandomnessResponse, error) {
	var out dto.RandomnessResponse
	req := dto.RandomnessRequest{Points: points, Epoch: epoch}
	if err := c.do(ctx, http.MethodPost, "/randomness", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Result es la salida final de Evaluate para un input.
type Result struct {
	Input      []byte
	Randomness []byte
}

// Evaluate ciega cada input, lo evalúa en el servidor y devuelve la randomness
// final. El servidor nunca ve los inputs.
func (c *Client) Evaluate(ctx context.Context, inputs [][]byte, epoch *uint8) ([]Result, uint8, error) {
	blinded := make([]*ppoprf.Blinded, len(inputs))
	points := make([]string, len(inputs))
	for i, in := range inputs {
		blinded[i] = ppoprf.Blind(in)
		points[i] = base64.StdEncoding.EncodeToString(blinded[i].Point.Bytes())
	}

	resp, err := c.Randomness(ctx, points, epoch)
	if err != nil {
		return nil, 0, err
	}
	if len(resp.Points) != len(inputs) {
		return nil, 0, fmt.Errorf("server returned %d points for %d inputs", len(resp.Points), len(inputs))
	}

	out := make([]Result, len(inputs))
	for i, enc := range resp.Points {
		raw, err := base64.StdEncoding.DecodeString(enc)
		if err != nil {
			return nil, 0, fmt.Errorf("point %d: %w", i, err)
		}
		p, err := ppoprf.PointFromBytes(raw)
		if err != nil {
			return nil, 0, fmt.Errorf("point %d: %w", i, err)
		}
		out[i] = Result{Input: inputs[i], Randomness: blinded[i].Finalize(p)}
	}
	return out, resp.Epoch, nil
}
