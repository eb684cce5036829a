package social

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/dropDatabas3/socialgate/internal/auth"
	httpmetrics "github.com/dropDatabas3/socialgate/internal/http"
	"github.com/dropDatabas3/socialgate/internal/http/middlewares"
	"github.com/dropDatabas3/socialgate/internal/observability/logger"
	"github.com/dropDatabas3/socialgate/internal/session"
)

// CallbackController handles the social login callback endpoint.
type CallbackController struct {
	manager  *auth.Manager
	sessions *session.Manager
}

// NewCallbackController creates a new CallbackController.
func NewCallbackController(m *auth.Manager, s *session.Manager) *CallbackController {
	return &CallbackController{manager: m, sessions: s}
}

// Callback handles GET /auth/social/{provider}/callback.
// Every failure ends in a redirect carrying only a reason code; the
// technical detail stays in the logs.
func (c *CallbackController) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("CallbackController.Callback"))

	provider := r.PathValue("provider")
	if provider == "" {
		log.Warn("missing provider in path")
		http.Redirect(w, r, c.manager.FailureRedirect(nil), http.StatusFound)
		return
	}

	q := r.URL.Query()
	in := auth.CallbackInput{
		Provider:   provider,
		State:      strings.TrimSpace(q.Get("state")),
		Code:       strings.TrimSpace(q.Get("code")),
		ErrorCode:  strings.TrimSpace(q.Get("error")),
		ClientIP:   middlewares.ClientIP(r),
		RedirectTo: c.returnTarget(r),
	}

	res, err := c.manager.HandleCallback(ctx, in)
	if err != nil {
		reason := auth.ReasonOf(err)
		httpmetrics.RecordSocialLogin(provider, reason)

		var rle *auth.RateLimitError
		if errors.As(err, &rle) && rle.RetryAfter > 0 {
			w.Header().Set("Retry-After", retryAfterSeconds(rle))
		}

		c.clearReturnCookie(w)
		http.Redirect(w, r, c.manager.FailureRedirect(err), http.StatusFound)
		return
	}

	if err := c.sessions.Establish(w, res.Account.ID, res.Account.Email, res.Provider); err != nil {
		log.Error("session establishment failed", logger.Err(err))
		httpmetrics.RecordSocialLogin(provider, auth.ReasonAuthError)
		http.Redirect(w, r, c.manager.FailureRedirect(err), http.StatusFound)
		return
	}

	httpmetrics.RecordSocialLogin(provider, "success")
	c.clearReturnCookie(w)
	http.Redirect(w, r, res.RedirectTo, http.StatusFound)
}

// returnTarget lee el destino post-login que dejó el start.
func (c *CallbackController) returnTarget(r *http.Request) string {
	ck, err := r.Cookie(returnCookie)
	if err != nil {
		return ""
	}
	return ck.Value
}

func (c *CallbackController) clearReturnCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     returnCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func retryAfterSeconds(rle *auth.RateLimitError) string {
	secs := int(rle.RetryAfter.Seconds())
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
