package rate

import (
	"context"
	"time"
)

// Result es el veredicto de un Allow para una clave en la ventana actual.
type Result struct {
	Allowed     bool
	Remaining   int64
	RetryAfter  time.Duration
	CurrentHits int64
}

// Limiter: fixed window por clave (IP del cliente en /randomness).
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// verdict arma el Result a partir de los hits de la ventana y el tiempo que le queda.
func verdict(hits, max int64, left time.Duration) Result {
	remaining := max - hits
	if remaining < 0 {
		remaining = 0
	}
	res := Result{
		Allowed:     hits <= max,
		Remaining:   remaining,
		CurrentHits: hits,
	}
	if !res.Allowed {
		res.RetryAfter = left
	}
	return res
}

// windowStart devuelve el inicio de la ventana que contiene now y cuánto falta para cerrarla.
func windowStart(now time.Time, window time.Duration) (time.Time, time.Duration) {
	start := now.Truncate(window)
	left := start.Add(window).Sub(now)
	if left <= 0 {
		left = window
	}
	return start, left
}
