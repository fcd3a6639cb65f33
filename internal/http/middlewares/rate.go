package middlewares

import (
	"math"
	"net/http"
	"strconv"

	"github.com/dropDatabas3/starrand/internal/http/errors"
	"github.com/dropDatabas3/starrand/internal/observability/logger"
	"github.com/dropDatabas3/starrand/internal/rate"
)

// RateKeyFunc define cómo generar la clave de rate limiting.
type RateKeyFunc func(r *http.Request) string

// IPOnlyRateKey usa la IP de la conexión (RemoteAddr). No lee headers ni body.
func IPOnlyRateKey(r *http.Request) string {
	return remoteIP(r)
}

// ForwardedIPRateKey usa el primer salto de X-Forwarded-For. Solo sirve detrás
// de un proxy propio que pise el header; expuesto directo, el cliente elige su clave.
func ForwardedIPRateKey(r *http.Request) string {
	return forwardedIP(r)
}

// RateLimitConfig configura el middleware de rate limiting.
type RateLimitConfig struct {
	Limiter rate.Limiter
	KeyFunc RateKeyFunc
}

// WithRateLimit crea un middleware de rate limiting. Con Limiter nil es un no-op.
func WithRateLimit(cfg RateLimitConfig) Middleware {
	if cfg.Limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = IPOnlyRateKey
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := cfg.Limiter.Allow(r.Context(), cfg.KeyFunc(r))
			if err != nil {
				// En caso de error del limiter, permitimos el request
				logger.From(r.Context()).Warn("rate_limit_error", logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			if !res.Allowed {
				if res.RetryAfter > 0 {
					secs := int(math.Ceil(res.RetryAfter.Seconds()))
					w.Header().Set("Retry-After", strconv.Itoa(secs))
				}
				errors.WriteError(w, errors.ErrRateLimitExceeded)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
