package middlewares

import (
	"net/http"

	"github.com/dropDatabas3/socialgate/internal/http/errors"
	"github.com/dropDatabas3/socialgate/internal/observability/logger"
)

// WithRecoverRedirect captura panics en rutas de navegador y redirige al
// destino de fallo del login en lugar de responder JSON.
func WithRecoverRedirect(location string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log := logger.From(r.Context())
					log.Error("panic recovered",
						logger.Op("recover"),
						logger.Path(r.URL.Path),
						logger.Any("panic", rec),
					)
					http.Redirect(w, r, location, http.StatusFound)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// WithRecover captura panics y devuelve un error 500 en lugar de crashear.
func WithRecover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log := logger.From(r.Context())
					log.Error("panic recovered",
						logger.Op("recover"),
						logger.Any("panic", rec),
					)
					errors.WriteError(w, http.StatusInternalServerError, "internal_error", "panic recovered")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
