// Package health expone los endpoints de liveness y readiness.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/dropDatabas3/socialgate/internal/cache"
	"github.com/dropDatabas3/socialgate/internal/http/errors"
	"github.com/dropDatabas3/socialgate/internal/observability/logger"
)

// Controller responde /healthz y /readyz.
type Controller struct {
	Cache cache.Client
	Ready func(ctx context.Context) error // chequeos extra (DB), opcional
}

func NewController(c cache.Client) *Controller {
	return &Controller{Cache: c}
}

// Healthz: liveness. Siempre 200 si el proceso responde.
func (c *Controller) Healthz(w http.ResponseWriter, r *http.Request) {
	errors.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz: readiness. Verifica cache y los chequeos extra.
func (c *Controller) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if c.Cache != nil {
		if err := c.Cache.Ping(ctx); err != nil {
			logger.From(ctx).Warn("cache not ready", logger.Err(err))
			errors.WriteError(w, http.StatusServiceUnavailable, "not_ready", "cache unavailable")
			return
		}
	}
	if c.Ready != nil {
		if err := c.Ready(ctx); err != nil {
			logger.From(ctx).Warn("dependency not ready", logger.Err(err))
			errors.WriteError(w, http.StatusServiceUnavailable, "not_ready", "dependency unavailable")
			return
		}
	}
	errors.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
