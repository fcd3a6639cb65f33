package middlewares

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dropDatabas3/starrand/internal/metrics"
)

// WithMetrics instrumenta requests HTTP (contadores, latencia, inflight).
// route es la etiqueta fija de la ruta: evita cardinalidad por paths arbitrarios.
func WithMetrics(route string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			method := strings.ToUpper(r.Method)

			metrics.HTTPInflight.WithLabelValues(method, route).Inc()
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			defer func() {
				metrics.HTTPInflight.WithLabelValues(method, route).Dec()
				metrics.HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())

				status := rec.status
				if status == 0 {
					status = http.StatusOK
				}
				metrics.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			}()

			next.ServeHTTP(rec, r)
		})
	}
}
