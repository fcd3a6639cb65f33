// Package app levanta el servicio: estado compartido, rotator y servidor HTTP
// bajo un mismo errgroup. Un fallo fatal del rotator apaga el servidor.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	rdb "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/starrand/internal/config"
	"github.com/dropDatabas3/starrand/internal/http/server"
	"github.com/dropDatabas3/starrand/internal/observability/logger"
	"github.com/dropDatabas3/starrand/internal/oprf"
	"github.com/dropDatabas3/starrand/internal/rate"
)

type options struct {
	factory  oprf.Factory
	wait     func(ctx context.Context, d time.Duration) error
	clock    func() time.Time
	listener net.Listener
	ready    func(addr string)
}

// Option ajusta Run (principalmente para tests).
type Option func(*options)

// WithFactory reemplaza el constructor del primitive.
func WithFactory(f oprf.Factory) Option { return func(o *options) { o.factory = f } }

// WithWait reemplaza la espera entre rotaciones.
func WithWait(w func(ctx context.Context, d time.Duration) error) Option {
	return func(o *options) { o.wait = w }
}

// WithClock reemplaza el reloj del rotator.
func WithClock(now func() time.Time) Option { return func(o *options) { o.clock = now } }

// WithListener sirve sobre un listener ya abierto en lugar de server.addr.
func WithListener(ln net.Listener) Option { return func(o *options) { o.listener = ln } }

// WithReady se invoca con la dirección efectiva antes de empezar a servir.
func WithReady(fn func(addr string)) Option { return func(o *options) { o.ready = fn } }

// Run bloquea hasta que ctx se cancela (devuelve nil) o el rotator falla de forma
// fatal (devuelve el *oprf.FatalError). En ambos casos el servidor HTTP se apaga
// ordenadamente antes de retornar.
func Run(ctx context.Context, cfg *config.Config, opts ...Option) error {
	o := options{factory: oprf.DefaultFactory}
	for _, fn := range opts {
		fn(&o)
	}
	log := logger.Named("app")

	rng := oprf.Range{First: cfg.Epoch.First, Last: cfg.Epoch.Last}
	log.Info("config parsed",
		logger.Uint8("first_epoch", rng.First),
		logger.Uint8("last_epoch", rng.Last),
		logger.Int("epochs_per_generation", rng.Len()),
		logger.Interval(cfg.EpochDuration()),
	)

	state, err := oprf.NewState(rng, o.factory)
	if err != nil {
		return fmt.Errorf("init state: %w", err)
	}
	log.Info("initial epoch", logger.Epoch(rng.First))

	deps := server.Deps{State: state, TrustProxy: cfg.Server.TrustProxy}
	if cfg.Metrics.Enabled {
		deps.Registry = prometheus.NewRegistry()
	}
	if cfg.Rate.Enabled {
		lim, closeFn := buildLimiter(ctx, cfg, log)
		defer closeFn()
		deps.Limiter = lim
	}

	handler, err := server.BuildHandler(deps)
	if err != nil {
		return fmt.Errorf("build handler: %w", err)
	}

	ln := o.listener
	if ln == nil {
		ln, err = net.Listen("tcp", cfg.Server.Addr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", cfg.Server.Addr, err)
		}
	}
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	rotOpts := []oprf.RotatorOption{}
	if o.wait != nil {
		rotOpts = append(rotOpts, oprf.WithWait(o.wait))
	}
	if o.clock != nil {
		rotOpts = append(rotOpts, oprf.WithClock(o.clock))
	}
	rotator := oprf.NewRotator(state, cfg.EpochDuration(), o.factory, rotOpts...)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("listening", logger.Addr(ln.Addr().String()))
		if o.ready != nil {
			o.ready(ln.Addr().String())
		}
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return rotator.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("http shutdown", logger.Err(err))
		}
		return nil
	})

	err = g.Wait()
	switch {
	case err == nil:
		log.Info("shutdown complete")
	case oprf.IsFatal(err):
		log.Error("fatal rotation failure, service stopped", logger.Err(err))
	default:
		log.Error("service stopped", logger.Err(err))
	}
	return err
}

// buildLimiter arma el limiter según rate.backend. Redis caído no impide
// arrancar: el middleware deja pasar los requests si el limiter falla.
func buildLimiter(ctx context.Context, cfg *config.Config, log *zap.Logger) (rate.Limiter, func()) {
	if cfg.Rate.Backend != "redis" {
		log.Info("rate limit enabled", logger.String("backend", "memory"))
		return rate.NewMemoryLimiter(cfg.Rate.MaxRequests, cfg.RateWindow()), func() {}
	}

	client := rdb.NewClient(&rdb.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis unavailable, rate limiting degraded", logger.Addr(cfg.Redis.Addr), logger.Err(err))
	} else {
		log.Info("rate limit enabled", logger.String("backend", "redis"), logger.Addr(cfg.Redis.Addr))
	}
	return rate.NewRedisLimiter(client, cfg.Redis.Prefix, cfg.Rate.MaxRequests, cfg.RateWindow()),
		func() { _ = client.Close() }
}
