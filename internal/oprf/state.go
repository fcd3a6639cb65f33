package oprf

import (
	"fmt"
	"sync"
	"time"

	"github.com/dropDatabas3/starrand/internal/ppoprf"
)

// Record es el estado mutable del servidor. Solo el Rotator lo escribe.
type Record struct {
	Primitive Primitive
	// Epoch siempre está dentro del Range y nunca está perforado.
	Epoch uint8
	// NextRotation es nil hasta que el Rotator anuncia el primer deadline.
	NextRotation *time.Time
	// Generation cuenta las regeneraciones de clave desde el arranque.
	Generation uint64
}

// State protege el Record con un lock de múltiples lectores / un escritor.
type State struct {
	rng Range

	mu       sync.RWMutex
	rec      Record
	poisoned bool
}

// NewState construye el primitive sobre todo el rango y arranca en rng.First.
func NewState(rng Range, factory Factory) (*State, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}
	if factory == nil {
		factory = DefaultFactory
	}
	p, err := factory(rng.Epochs())
	if err != nil {
		return nil, fmt.Errorf("init primitive: %w", err)
	}
	return &State{
		rng: rng,
		rec: Record{Primitive: p, Epoch: rng.First},
	}, nil
}

// Range devuelve el rango de epochs configurado.
func (s *State) Range() Range { return s.rng }

// Read ejecuta fn con acceso compartido. fn no debe retener el Snapshot.
func (s *State) Read(fn func(Snapshot) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.poisoned {
		return ErrLockPoisoned
	}
	return fn(Snapshot{rec: &s.rec})
}

// Write ejecuta fn con acceso exclusivo. El guard queda envenenado si fn entra
// en panic o devuelve un *FatalError: el record puede estar a medio actualizar,
// así que todo Read o Write posterior falla.
func (s *State) Write(fn func(*Record) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.poisoned {
		return ErrLockPoisoned
	}
	defer func() {
		if rec := recover(); rec != nil {
			s.poisoned = true
			err = fmt.Errorf("%w: writer panicked: %v", ErrLockPoisoned, rec)
		}
	}()
	err = fn(&s.rec)
	if IsFatal(err) {
		s.poisoned = true
	}
	return err
}

// Poisoned indica si un escritor murió a mitad de una actualización.
func (s *State) Poisoned() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.poisoned
}

// Snapshot es una vista de solo lectura consistente, válida solo dentro de Read.
type Snapshot struct {
	rec *Record
}

func (v Snapshot) Epoch() uint8 { return v.rec.Epoch }

func (v Snapshot) Generation() uint64 { return v.rec.Generation }

// NextRotation devuelve una copia del deadline anunciado, o nil.
func (v Snapshot) NextRotation() *time.Time {
	if v.rec.NextRotation == nil {
		return nil
	}
	t := *v.rec.NextRotation
	return &t
}

func (v Snapshot) PublicKey() *ppoprf.ServerPublicKey {
	return v.rec.Primitive.PublicKey()
}

// Eval evalúa p en el epoch del snapshot.
func (v Snapshot) Eval(p *ppoprf.Point, prove bool) (*ppoprf.Evaluation, error) {
	return v.rec.Primitive.Eval(p, v.rec.Epoch, prove)
}
