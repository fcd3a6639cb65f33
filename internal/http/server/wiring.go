// Package server arma el handler HTTP con todas sus dependencias.
package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	ctrl "github.com/dropDatabas3/starrand/internal/http/controllers/randomness"
	mw "github.com/dropDatabas3/starrand/internal/http/middlewares"
	"github.com/dropDatabas3/starrand/internal/http/router"
	svc "github.com/dropDatabas3/starrand/internal/http/services/randomness"
	"github.com/dropDatabas3/starrand/internal/metrics"
	"github.com/dropDatabas3/starrand/internal/oprf"
	"github.com/dropDatabas3/starrand/internal/rate"
)

// Deps son las dependencias del handler. State es obligatorio.
type Deps struct {
	State *oprf.State
	// Limiter opcional para /randomness.
	Limiter rate.Limiter
	// Registry opcional; si es nil no se expone /metrics.
	Registry *prometheus.Registry
	// TrustProxy hace que el rate limit use X-Forwarded-For en vez de RemoteAddr.
	TrustProxy bool
}

// BuildHandler instancia service -> controller -> router.
func BuildHandler(deps Deps) (http.Handler, error) {
	rd := router.Deps{
		Controller: ctrl.NewController(svc.NewService(deps.State)),
	}
	if deps.Limiter != nil {
		key := mw.IPOnlyRateKey
		if deps.TrustProxy {
			key = mw.ForwardedIPRateKey
		}
		rd.RateLimit = mw.WithRateLimit(mw.RateLimitConfig{
			Limiter: deps.Limiter,
			KeyFunc: key,
		})
	}
	if deps.Registry != nil {
		h, err := metrics.Register(deps.Registry)
		if err != nil {
			return nil, err
		}
		rd.Metrics = h
	}
	return router.New(rd), nil
}
