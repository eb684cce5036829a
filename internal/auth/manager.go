// Package auth orchestrates the social login flow: start, state
// verification, rate limiting, code exchange, account provisioning
// and the final redirect.
package auth

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/dropDatabas3/socialgate/internal/email"
	"github.com/dropDatabas3/socialgate/internal/oauth"
	"github.com/dropDatabas3/socialgate/internal/observability/logger"
	"github.com/dropDatabas3/socialgate/internal/rate"
	"github.com/dropDatabas3/socialgate/internal/settings"
	"github.com/dropDatabas3/socialgate/internal/user"
)

// Manager wires the login flow together. All fields are required
// except Mailer, which may be nil when welcome emails are off.
type Manager struct {
	Settings *settings.Settings
	Registry *oauth.Registry
	States   *oauth.StateStore
	Limiter  rate.Limiter
	Users    user.Manager
	Mailer   email.Sender
}

// ProviderInfo describes an enabled provider for the listing endpoint.
type ProviderInfo struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// StartResult is what the start endpoint needs to redirect the
// browser to the provider.
type StartResult struct {
	AuthURL string
	State   string
}

// CallbackInput carries everything the callback request brought.
type CallbackInput struct {
	Provider   string
	State      string
	Code       string
	ErrorCode  string // el parámetro error= del provider, si vino
	ClientIP   string
	RedirectTo string
}

// CallbackResult is a completed login.
type CallbackResult struct {
	Account    *user.Account
	Created    bool
	Provider   string
	RedirectTo string
}

// Providers lists the providers that are both enabled in settings and
// fully configured.
func (m *Manager) Providers(ctx context.Context) []ProviderInfo {
	configs := make(map[string]map[string]any)
	for _, id := range m.Settings.EnabledProviders() {
		cfg, err := m.Settings.ProviderConfig(id)
		if err != nil {
			continue
		}
		configs[id] = cfg
	}

	var out []ProviderInfo
	for _, p := range m.Registry.Configured(configs) {
		out = append(out, ProviderInfo{ID: p.Identifier(), Label: label(p.Identifier())})
	}
	return out
}

// Start issues a state token and builds the provider's authorization
// URL for a redirect.
func (m *Manager) Start(ctx context.Context, providerID string) (*StartResult, error) {
	p, err := m.resolve(providerID)
	if err != nil {
		return nil, err
	}

	state, err := m.States.Issue(ctx)
	if err != nil {
		return nil, newAuthError(ReasonAuthError, "issuing state", err)
	}

	authURL, err := p.AuthURL(ctx, state)
	if err != nil {
		return nil, err
	}

	logger.From(ctx).Info("social login started", logger.Provider(providerID))
	return &StartResult{AuthURL: authURL, State: state}, nil
}

// HandleCallback runs the whole callback flow. Any error it returns
// maps to a reason code via ReasonOf; nothing technical reaches the
// browser.
func (m *Manager) HandleCallback(ctx context.Context, in CallbackInput) (*CallbackResult, error) {
	log := logger.From(ctx).With(logger.Provider(in.Provider), logger.Component("auth"))

	// 1) rate limit por IP hasheada, antes de tocar nada caro
	if m.Limiter != nil {
		res, err := m.Limiter.Allow(ctx, rate.ClientKey(in.ClientIP))
		if err != nil {
			// backend caído: dejamos pasar con warning, un Redis roto
			// no debe tirar el login
			log.Warn("rate limiter unavailable", logger.Err(err))
		} else if !res.Allowed {
			log.Warn("login attempt rate limited",
				logger.Count(int(res.CurrentHits)),
			)
			return nil, &RateLimitError{
				AuthError:  AuthError{Reason: ReasonRateLimited, Technical: fmt.Sprintf("%d hits in window", res.CurrentHits)},
				RetryAfter: res.RetryAfter,
			}
		}
	}

	// 2) el provider nos mandó un error en vez de un code
	if in.ErrorCode != "" {
		if in.ErrorCode == "access_denied" {
			log.Info("user cancelled at provider")
			return nil, newAuthError(ReasonAccessDenied, "user denied access at provider", nil)
		}
		return nil, newAuthError(ReasonProviderErr,
			fmt.Sprintf("provider returned error %q", in.ErrorCode), nil)
	}

	// 3) state: inválido, vencido o reusado, todo termina acá
	if err := m.States.Verify(ctx, in.State); err != nil {
		log.Warn("state verification failed", logger.Err(err))
		return nil, newAuthError(ReasonAuthError, "state verification failed", err)
	}

	// 4) sin code no hay intercambio
	if in.Code == "" {
		return nil, newAuthError(ReasonAuthError, "callback without code", nil)
	}

	// 5) resolver el provider recién ahora: un state válido con un
	// provider deshabilitado igual cuenta como intento
	p, err := m.resolve(in.Provider)
	if err != nil {
		return nil, err
	}

	// 6) intercambio + perfil normalizado
	data, err := p.UserData(ctx, in.Code)
	if err != nil {
		log.Error("provider exchange failed", logger.Err(err))
		return nil, err
	}

	// 7) upsert local
	account, created, err := m.Users.CreateOrUpdate(ctx, data)
	if err != nil {
		log.Error("account provisioning failed", logger.Err(err))
		return nil, newAuthError(ReasonAuthError, "account provisioning failed", err)
	}

	if created {
		m.sendWelcome(account, in.Provider)
	}

	log.Info("social login completed",
		logger.AccountID(account.ID.String()),
		zap.Bool("created", created),
	)

	return &CallbackResult{
		Account:    account,
		Created:    created,
		Provider:   in.Provider,
		RedirectTo: m.SanitizeRedirect(in.RedirectTo),
	}, nil
}

// resolve instantiates the provider from settings, mapping every
// failure mode to config_error.
func (m *Manager) resolve(providerID string) (oauth.Provider, error) {
	raw, err := m.Settings.ProviderConfig(providerID)
	if err != nil {
		return nil, err // ConfigError
	}
	cfg := make(map[string]any, len(raw)+1)
	for k, v := range raw {
		cfg[k] = v
	}
	// si no hay redirect_url explícito se deriva de app.base_url
	if s, _ := cfg["redirect_url"].(string); s == "" {
		base := strings.TrimRight(m.Settings.GetString("app.base_url", ""), "/")
		cfg["redirect_url"] = base + "/auth/social/" + providerID + "/callback"
	}
	p, err := m.Registry.Create(providerID, cfg)
	if err != nil {
		return nil, newAuthError(ReasonConfigError, "instantiating provider", err)
	}
	if err := p.ValidateConfig(); err != nil {
		return nil, newAuthError(ReasonConfigError, "provider misconfigured", err)
	}
	return p, nil
}

func (m *Manager) sendWelcome(account *user.Account, provider string) {
	if m.Mailer == nil {
		return
	}
	site := m.Settings.GetString("app.base_url", "")
	if u, err := url.Parse(site); err == nil && u.Host != "" {
		site = u.Host
	}
	// best effort: un SMTP caído no puede romper el login
	go func() {
		if err := email.SendWelcome(m.Mailer, account.Email, account.FirstName, site, provider); err != nil {
			logger.L().Warn("welcome email failed",
				logger.AccountID(account.ID.String()),
				logger.Err(err),
			)
		}
	}()
}

// FailureRedirect builds the URL the browser lands on after a failed
// attempt. Only the reason code travels, never the technical detail.
func (m *Manager) FailureRedirect(err error) string {
	base := m.Settings.GetString("login.failure_url", "/login")
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "login=failed&reason=" + url.QueryEscape(ReasonOf(err))
}

// SanitizeRedirect validates a requested post-login destination.
// Relative paths pass; absolute URLs must match app.base_url's host.
// Anything else falls back to login.default_redirect.
func (m *Manager) SanitizeRedirect(raw string) string {
	fallback := m.Settings.GetString("login.default_redirect", "/")
	if raw == "" {
		return fallback
	}
	// path relativo sin esquema: ok ("//evil.com" no pasa)
	if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return fallback
	}
	base, err := url.Parse(m.Settings.GetString("app.base_url", ""))
	if err != nil || base.Host == "" {
		return fallback
	}
	if !strings.EqualFold(u.Host, base.Host) {
		return fallback
	}
	return raw
}

func label(id string) string {
	switch id {
	case "google":
		return "Google"
	case "facebook":
		return "Facebook"
	default:
		return id
	}
}
