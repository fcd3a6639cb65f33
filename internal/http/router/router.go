// Package router arma el árbol de rutas chi del servicio.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	ctrl "github.com/dropDatabas3/starrand/internal/http/controllers/randomness"
	httperrors "github.com/dropDatabas3/starrand/internal/http/errors"
	mw "github.com/dropDatabas3/starrand/internal/http/middlewares"
)

// Deps contiene las dependencias del router.
type Deps struct {
	Controller *ctrl.Controller

	// RateLimit aplica solo a /randomness; nil = sin límite.
	RateLimit mw.Middleware
	// Metrics sirve /metrics; nil = deshabilitado.
	Metrics http.Handler
}

// New registra las rutas:
//
//	GET  /            banner
//	POST /randomness  evaluación de puntos
//	GET  /info        public key + epoch
//	GET  /healthz     estado del guard
//	GET  /metrics     prometheus (opcional)
func New(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithSecurityHeaders(),
	)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	c := deps.Controller
	rateLimit := deps.RateLimit
	if rateLimit == nil {
		rateLimit = mw.WithRateLimit(mw.RateLimitConfig{})
	}

	r.Method(http.MethodGet, "/", mw.Chain(http.HandlerFunc(c.Root),
		mw.WithLogging(), mw.WithMetrics("/"),
	))
	r.Method(http.MethodPost, "/randomness", mw.Chain(http.HandlerFunc(c.Randomness),
		mw.WithLogging(), mw.WithMetrics("/randomness"), mw.WithNoStore(), rateLimit,
	))
	r.Method(http.MethodGet, "/info", mw.Chain(http.HandlerFunc(c.Info),
		mw.WithLogging(), mw.WithMetrics("/info"), mw.WithNoStore(),
	))
	// Sin logging para health checks (muy frecuentes)
	r.Method(http.MethodGet, "/healthz", mw.Chain(http.HandlerFunc(c.Health), mw.WithNoStore()))

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}
	return r
}
