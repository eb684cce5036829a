package social

import (
	"net/http"
	"strings"

	"github.com/dropDatabas3/socialgate/internal/auth"
	httpmetrics "github.com/dropDatabas3/socialgate/internal/http"
	"github.com/dropDatabas3/socialgate/internal/observability/logger"
)

// StartController handles the social login start endpoint.
type StartController struct {
	manager *auth.Manager
}

// NewStartController creates a new StartController.
func NewStartController(m *auth.Manager) *StartController {
	return &StartController{manager: m}
}

// Start handles GET /auth/social/{provider}/start.
// Issues a state token and sends the browser to the provider.
func (c *StartController) Start(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("StartController.Start"))

	provider := r.PathValue("provider")
	if provider == "" {
		log.Warn("missing provider in path")
		http.Redirect(w, r, c.manager.FailureRedirect(nil), http.StatusFound)
		return
	}

	res, err := c.manager.Start(ctx, provider)
	if err != nil {
		log.Warn("start failed", logger.Provider(provider), logger.Err(err))
		httpmetrics.RecordSocialLogin(provider, auth.ReasonOf(err))
		http.Redirect(w, r, c.manager.FailureRedirect(err), http.StatusFound)
		return
	}
	httpmetrics.RecordStateIssued()

	// destino post-login: validado acá y revalidado en el callback
	if dest := c.manager.SanitizeRedirect(strings.TrimSpace(r.URL.Query().Get("redirect_to"))); dest != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     returnCookie,
			Value:    dest,
			Path:     "/",
			MaxAge:   300,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	http.Redirect(w, r, res.AuthURL, http.StatusFound)
}
