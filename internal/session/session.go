// Package session issues the signed login cookie after a successful
// social authentication.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims are the session token claims.
type Claims struct {
	AccountID string `json:"sub"`
	Email     string `json:"email"`
	Provider  string `json:"provider"`
	jwtv5.RegisteredClaims
}

var (
	ErrTokenInvalid = errors.New("session: invalid token")
	ErrTokenExpired = errors.New("session: token expired")
)

const issuer = "socialgate"

// Manager signs and verifies session cookies. HS256 with a shared
// secret; the cookie is HttpOnly and scoped to the configured domain.
type Manager struct {
	Secret     []byte
	TTL        time.Duration
	CookieName string
	Domain     string
	Secure     bool
}

type Config struct {
	Secret     string
	TTL        time.Duration
	CookieName string
	Domain     string
	Secure     bool
}

func NewManager(cfg Config) (*Manager, error) {
	if cfg.Secret == "" {
		return nil, errors.New("session: secret is required")
	}
	if len(cfg.Secret) < 32 {
		return nil, errors.New("session: secret must be at least 32 bytes")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	name := cfg.CookieName
	if name == "" {
		name = "sg_session"
	}
	return &Manager{
		Secret:     []byte(cfg.Secret),
		TTL:        ttl,
		CookieName: name,
		Domain:     cfg.Domain,
		Secure:     cfg.Secure,
	}, nil
}

// Issue signs a session token for the account.
func (m *Manager) Issue(accountID uuid.UUID, email, provider string) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		AccountID: accountID.String(),
		Email:     email,
		Provider:  provider,
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwtv5.NewNumericDate(now),
			NotBefore: jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(m.TTL)),
			ID:        uuid.NewString(),
		},
	}
	tok := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	signed, err := tok.SignedString(m.Secret)
	if err != nil {
		return "", fmt.Errorf("session: signing token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a session token.
func (m *Manager) Verify(token string) (*Claims, error) {
	var claims Claims
	tk, err := jwtv5.ParseWithClaims(token, &claims, func(t *jwtv5.Token) (any, error) {
		return m.Secret, nil
	}, jwtv5.WithValidMethods([]string{"HS256"}), jwtv5.WithIssuer(issuer))
	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !tk.Valid {
		return nil, ErrTokenInvalid
	}
	return &claims, nil
}

// Establish writes the session cookie on the response. Calling it for
// an already-logged-in browser just replaces the cookie: logging in
// twice is harmless.
func (m *Manager) Establish(w http.ResponseWriter, accountID uuid.UUID, email, provider string) error {
	token, err := m.Issue(accountID, email, provider)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.CookieName,
		Value:    token,
		Path:     "/",
		Domain:   m.Domain,
		MaxAge:   int(m.TTL.Seconds()),
		HttpOnly: true,
		Secure:   m.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear expires the session cookie.
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.CookieName,
		Value:    "",
		Path:     "/",
		Domain:   m.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// FromRequest extracts and verifies the session from the request
// cookie. Returns ErrTokenInvalid when the cookie is absent.
func (m *Manager) FromRequest(r *http.Request) (*Claims, error) {
	c, err := r.Cookie(m.CookieName)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	return m.Verify(c.Value)
}
