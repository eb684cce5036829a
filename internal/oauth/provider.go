// Package oauth defines the provider abstraction for social login.
//
// Each concrete provider (google, facebook) implements Provider; the
// Registry resolves identifiers to constructors so the HTTP layer
// never imports a provider package directly.
package oauth

import (
	"context"
	"fmt"
	"time"
)

// UserData is the normalized profile a provider returns after a
// successful code exchange. Email is always non-empty; whether it is
// verified depends on the provider (Google enforces verified_email,
// Facebook exposes no such flag).
type UserData struct {
	Email        string
	FirstName    string
	LastName     string
	DisplayName  string
	Provider     string
	ProviderID   string
	AvatarURL    string
	Locale       string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Provider is a social identity provider.
type Provider interface {
	// Identifier returns the provider slug ("google", "facebook").
	Identifier() string

	// IsConfigured reports whether the provider has the credentials
	// it needs. Unconfigured providers are skipped, not errored.
	IsConfigured() bool

	// ValidateConfig checks the configuration and returns a
	// ProviderError describing the first missing piece.
	ValidateConfig() error

	// AuthURL builds the authorization URL embedding the given state.
	AuthURL(ctx context.Context, state string) (string, error)

	// UserData exchanges the authorization code and fetches the
	// normalized profile. The state has already been verified.
	UserData(ctx context.Context, code string) (*UserData, error)
}

// ProviderError carries two messages: Technical goes to the logs,
// Safe is the only thing a browser may see.
type ProviderError struct {
	Provider  string
	Technical string
	Safe      string
	Err       error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("oauth/%s: %s: %v", e.Provider, e.Technical, e.Err)
	}
	return fmt.Sprintf("oauth/%s: %s", e.Provider, e.Technical)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// SafeMessage returns the user-facing message, with a generic
// fallback so a raw technical detail never leaks.
func (e *ProviderError) SafeMessage() string {
	if e.Safe != "" {
		return e.Safe
	}
	return "Authentication failed. Please try again."
}

// NewProviderError builds a ProviderError.
func NewProviderError(provider, technical, safe string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Technical: technical, Safe: safe, Err: err}
}
