package rate

import (
	"context"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryLimiter: fixed window en proceso sobre go-cache. Sirve para una sola réplica.
type MemoryLimiter struct {
	Max    int64
	Window time.Duration

	c   *gocache.Cache
	now func() time.Time
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		Max:    int64(max),
		Window: window,
		c:      gocache.New(window, 2*window),
		now:    time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	start, left := windowStart(l.now(), l.Window)
	k := key + ":" + strconv.FormatInt(start.Unix(), 10)

	// Add falla si la clave ya existe: en ese caso incrementamos.
	if err := l.c.Add(k, int64(1), left); err == nil {
		return verdict(1, l.Max, left), nil
	}
	hits, err := l.c.IncrementInt64(k, 1)
	if err != nil {
		// expiró entre Add e Increment: arranca ventana nueva
		l.c.Set(k, int64(1), left)
		hits = 1
	}
	return verdict(hits, l.Max, left), nil
}
