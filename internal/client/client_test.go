package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/starrand/internal/http/server"
	"github.com/dropDatabas3/starrand/internal/oprf"
)

func newTestService(t *testing.T) (*Client, *oprf.Rotator) {
	t.Helper()
	st, err := oprf.NewState(oprf.Range{First: 0, Last: 3}, nil)
	require.NoError(t, err)
	h, err := server.BuildHandler(server.Deps{State: st})
	require.NoError(t, err)
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return New(ts.URL), oprf.NewRotator(st, 0, nil)
}

func TestEvaluate_DeterministicWithinEpoch(t *testing.T) {
	c, _ := newTestService(t)
	ctx := context.Background()

	inputs := [][]byte{[]byte("a"), []byte("b"), []byte("a")}
	res, epoch, err := c.Evaluate(ctx, inputs, nil)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), epoch)
	require.Len(t, res, 3)
	assert.Len(t, res[0].Randomness, 64)

	// blinding distinto, misma salida final
	assert.Equal(t, res[0].Randomness, res[2].Randomness)
	assert.NotEqual(t, res[0].Randomness, res[1].Randomness)
}

func TestEvaluate_ChangesAcrossEpochs(t *testing.T) {
	c, rot := newTestService(t)
	ctx := context.Background()

	before, _, err := c.Evaluate(ctx, [][]byte{[]byte("x")}, nil)
	require.NoError(t, err)
	require.NoError(t, rot.RotateOnce())
	after, epoch, err := c.Evaluate(ctx, [][]byte{[]byte("x")}, nil)
	require.NoError(t, err)

	assert.Equal(t, uint8(1), epoch)
	assert.NotEqual(t, before[0].Randomness, after[0].Randomness)
}

func TestRandomness_APIError(t *testing.T) {
	c, _ := newTestService(t)
	e := uint8(2)
	_, err := c.Randomness(context.Background(), nil, &e)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "invalid epoch 2", apiErr.Message)
}

func TestInfo(t *testing.T) {
	c, _ := newTestService(t)
	info, err := c.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint8(0), info.CurrentEpoch)
	assert.Equal(t, 1024, info.MaxPoints)
	assert.NotEmpty(t, info.PublicKey)
}
