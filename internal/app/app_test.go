package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/starrand/internal/config"
	"github.com/dropDatabas3/starrand/internal/oprf"
)

func testConfig(first, last uint8) *config.Config {
	c := config.Default()
	c.Server.Addr = "127.0.0.1:0"
	c.Epoch.First, c.Epoch.Last = first, last
	c.Epoch.Seconds = 1
	c.Server.ShutdownTimeout = "2s"
	return c
}

func TestRun_FatalRotationStopsService(t *testing.T) {
	var calls atomic.Int32
	factory := func(epochs []uint8) (oprf.Primitive, error) {
		if calls.Add(1) > 1 {
			return nil, errors.New("entropy source gone")
		}
		return oprf.DefaultFactory(epochs)
	}
	// sin espera: el único epoch se agota en la primera rotación
	noWait := func(context.Context, time.Duration) error { return nil }

	done := make(chan error, 1)
	go func() {
		done <- Run(context.Background(), testConfig(0, 0), WithFactory(factory), WithWait(noWait))
	}()

	select {
	case err := <-done:
		require.Error(t, err)
		var fe *oprf.FatalError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, "regenerate", fe.Op)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after fatal rotation failure")
	}
}

func TestRun_ServesAndShutsDownOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addrCh := make(chan string, 1)
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, testConfig(0, 255), WithReady(func(addr string) { addrCh <- addr }))
	}()

	var addr string
	select {
	case addr = <-addrCh:
	case <-time.After(5 * time.Second):
		t.Fatal("server never became ready")
	}

	var resp *http.Response
	var err error
	require.Eventually(t, func() bool {
		resp, err = http.Get("http://" + addr + "/")
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "STAR randomness server\n", string(body))

	resp, err = http.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_InvalidRange(t *testing.T) {
	err := Run(context.Background(), testConfig(5, 4))
	assert.Error(t, err)
}
