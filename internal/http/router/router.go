// Package router arma el árbol de rutas del servicio.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	httpapi "github.com/dropDatabas3/socialgate/internal/http"
	"github.com/dropDatabas3/socialgate/internal/http/controllers/health"
	"github.com/dropDatabas3/socialgate/internal/http/controllers/social"
	mw "github.com/dropDatabas3/socialgate/internal/http/middlewares"
	"github.com/dropDatabas3/socialgate/internal/rate"
)

// Deps contiene las dependencias del router.
type Deps struct {
	Social  *social.Controllers
	Health  *health.Controller
	Metrics http.Handler // handler de /metrics, opcional
	Limiter rate.Limiter // rate limiter para el endpoint de start, opcional

	// FailureLocation es el destino del redirect cuando un handler de
	// navegador (start/callback) panickea. Vacío: envelope JSON 500.
	FailureLocation string
}

// New construye el router con todas las rutas y middlewares.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	// /healthz y /readyz quedan fuera de la cadena completa: livecheck
	// barato, sin rate limit ni no-store
	r.Get("/healthz", deps.Health.Healthz)
	r.Get("/readyz", deps.Health.Readyz)

	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics)
	}

	r.Route("/auth/social", func(r chi.Router) {
		// /providers es un endpoint JSON: ante un panic responde envelope
		r.Method(http.MethodGet, "/providers",
			loginHandler(nil, "", http.HandlerFunc(deps.Social.Providers.List)))
		r.Method(http.MethodGet, "/{provider}/start",
			loginHandler(deps.Limiter, deps.FailureLocation, http.HandlerFunc(deps.Social.Start.Start)))
		// el callback limita por IP adentro del flujo, no acá:
		// cada intento debe contar aunque el state sea inválido
		r.Method(http.MethodGet, "/{provider}/callback",
			loginHandler(nil, deps.FailureLocation, http.HandlerFunc(deps.Social.Callback.Callback)))
	})

	return httpapi.WithMetrics(r)
}

// loginHandler crea la cadena de middlewares de los endpoints de login.
func loginHandler(limiter rate.Limiter, failure string, handler http.Handler) http.Handler {
	rec := mw.WithRecover()
	if failure != "" {
		rec = mw.WithRecoverRedirect(failure)
	}
	chain := []mw.Middleware{
		rec,
		mw.WithRequestID(),
		mw.WithSecurityHeaders(),
		mw.WithNoStore(),
	}

	if limiter != nil {
		chain = append(chain, mw.WithRateLimit(mw.RateLimitConfig{
			Limiter: limiter,
			KeyFunc: mw.IPOnlyRateKey,
		}))
	}

	chain = append(chain, mw.WithLogging())

	return mw.Chain(handler, chain...)
}
