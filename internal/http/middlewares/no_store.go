package middlewares

import "net/http"

// WithNoStore agrega Cache-Control: no-store a la respuesta.
// /randomness e /info cambian con cada epoch: nunca se cachean.
func WithNoStore() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "no-store")
			next.ServeHTTP(w, r)
		})
	}
}
