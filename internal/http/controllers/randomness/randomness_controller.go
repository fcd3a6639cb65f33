// Package randomness contiene los controllers HTTP del servicio de randomness.
package randomness

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	dto "github.com/dropDatabas3/starrand/internal/http/dto/randomness"
	httperrors "github.com/dropDatabas3/starrand/internal/http/errors"
	svc "github.com/dropDatabas3/starrand/internal/http/services/randomness"
	"github.com/dropDatabas3/starrand/internal/metrics"
	"github.com/dropDatabas3/starrand/internal/observability/logger"
)

// MaxBodyBytes limita el body de POST /randomness.
const MaxBodyBytes = 1 << 20

const rootBanner = "STAR randomness server\n"

// Controller maneja las rutas /, /randomness, /info y /healthz.
type Controller struct {
	service svc.Service
}

// NewController crea un nuevo controller.
func NewController(service svc.Service) *Controller {
	return &Controller{service: service}
}

// Root maneja GET /
func (c *Controller) Root(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, rootBanner)
}

// Randomness maneja POST /randomness
func (c *Controller) Randomness(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("Controller.Randomness"))

	var req dto.RandomnessRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		log.Debug("invalid body", logger.Err(err))
		metrics.RandomnessRequests.WithLabelValues("invalid_json").Inc()

		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httperrors.WriteError(w, httperrors.ErrBadRequest.WithMessage("request body too large").WithCause(err))
			return
		}
		httperrors.WriteError(w, httperrors.ErrInvalidJSON.WithMessage("invalid JSON body: "+err.Error()).WithCause(err))
		return
	}

	resp, err := c.service.Evaluate(ctx, req)
	if err != nil {
		httperrors.WriteError(w, httperrors.FromRequestError(err))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Info maneja GET /info
func (c *Controller) Info(w http.ResponseWriter, r *http.Request) {
	resp, err := c.service.Info(r.Context())
	if err != nil {
		httperrors.WriteError(w, httperrors.FromRequestError(err))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Health maneja GET /healthz
func (c *Controller) Health(w http.ResponseWriter, r *http.Request) {
	resp := c.service.Health(r.Context())

	status := http.StatusOK
	if resp.Status != "ready" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
