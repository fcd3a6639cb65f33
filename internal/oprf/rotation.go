package oprf

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/starrand/internal/metrics"
	"github.com/dropDatabas3/starrand/internal/observability/logger"
)

// Rotator es el único escritor de State. Anuncia el próximo deadline, espera
// sin tomar el guard, perfora el epoch actual y avanza; al agotar el rango
// regenera la clave.
type Rotator struct {
	state    *State
	interval time.Duration
	factory  Factory
	now      func() time.Time
	wait     func(ctx context.Context, d time.Duration) error
	log      *zap.Logger
}

// RotatorOption ajusta un Rotator.
type RotatorOption func(*Rotator)

// WithClock reemplaza time.Now.
func WithClock(now func() time.Time) RotatorOption {
	return func(r *Rotator) { r.now = now }
}

// WithWait reemplaza la espera entre anuncio y rotación.
func WithWait(wait func(ctx context.Context, d time.Duration) error) RotatorOption {
	return func(r *Rotator) { r.wait = wait }
}

// WithRotatorLogger define el logger de eventos del ciclo de vida.
func WithRotatorLogger(l *zap.Logger) RotatorOption {
	return func(r *Rotator) { r.log = l }
}

// NewRotator crea un Rotator. factory construye las claves de reemplazo (nil = DefaultFactory).
func NewRotator(state *State, interval time.Duration, factory Factory, opts ...RotatorOption) *Rotator {
	if factory == nil {
		factory = DefaultFactory
	}
	r := &Rotator{
		state:    state,
		interval: interval,
		factory:  factory,
		now:      time.Now,
		wait:     sleepCtx,
		log:      logger.Named("rotator"),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Run itera hasta que ctx termina (devuelve nil) o hay un fallo fatal (devuelve *FatalError).
func (r *Rotator) Run(ctx context.Context) error {
	r.log.Info("rotating epoch", logger.Interval(r.interval))
	r.publish()
	for {
		if err := r.Announce(); err != nil {
			return err
		}
		if err := r.wait(ctx, r.interval); err != nil {
			r.log.Info("rotation loop stopped", logger.Err(err))
			return nil
		}
		if err := r.RotateOnce(); err != nil {
			return err
		}
	}
}

// Announce publica now+interval, truncado a segundos, como próximo deadline.
func (r *Rotator) Announce() error {
	next := r.now().Add(r.interval).UTC().Truncate(time.Second)
	err := r.state.Write(func(rec *Record) error {
		rec.NextRotation = &next
		return nil
	})
	if err != nil {
		return &FatalError{Op: "announce", Err: err}
	}
	return nil
}

// RotateOnce perfora el epoch actual y avanza al siguiente en un único paso
// exclusivo. Pasado el final del rango genera una clave nueva y destruye la vieja.
func (r *Rotator) RotateOnce() error {
	var (
		old, epoch  uint8
		generation  uint64
		regenerated bool
	)
	rng := r.state.Range()
	err := r.state.Write(func(rec *Record) error {
		old = rec.Epoch
		if err := rec.Primitive.Puncture(old); err != nil {
			return &FatalError{Op: "puncture", Err: fmt.Errorf("epoch %d: %w", old, err)}
		}

		if candidate := int(old) + 1; rng.Contains(candidate) {
			rec.Epoch = uint8(candidate)
		} else {
			p, err := r.factory(rng.Epochs())
			if err != nil {
				return &FatalError{Op: "regenerate", Err: err}
			}
			if d, ok := rec.Primitive.(interface{ Destroy() }); ok {
				d.Destroy()
			}
			*rec = Record{Primitive: p, Epoch: rng.First, Generation: rec.Generation + 1}
			regenerated = true
		}
		epoch, generation = rec.Epoch, rec.Generation
		return nil
	})
	if err != nil {
		if !IsFatal(err) {
			err = &FatalError{Op: "lock", Err: err}
		}
		return err
	}

	metrics.EpochRotations.Inc()
	if regenerated {
		metrics.KeyGenerations.Inc()
		r.log.Info("epochs exhausted, rotated OPRF key", logger.Generation(generation))
	}
	metrics.CurrentEpoch.Set(float64(epoch))
	metrics.Generation.Set(float64(generation))
	r.log.Info("epoch now", logger.Epoch(epoch), logger.Uint8("punctured", old))
	return nil
}

func (r *Rotator) publish() {
	err := r.state.Read(func(v Snapshot) error {
		metrics.CurrentEpoch.Set(float64(v.Epoch()))
		metrics.Generation.Set(float64(v.Generation()))
		return nil
	})
	if err != nil {
		r.log.Warn("couldn't publish epoch metrics", logger.Err(err))
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
