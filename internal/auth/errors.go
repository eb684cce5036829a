package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/socialgate/internal/oauth"
	"github.com/dropDatabas3/socialgate/internal/settings"
)

// Reason codes. This is the ONLY vocabulary a browser ever sees:
// everything else stays in the logs.
const (
	ReasonAuthError    = "auth_error"     // state/code problems, internal failures
	ReasonRateLimited  = "rate_limited"   // too many callback attempts
	ReasonProviderErr  = "provider_error" // the provider rejected us
	ReasonConfigError  = "config_error"   // provider missing or misconfigured
	ReasonAccessDenied = "access_denied"  // the user cancelled at the provider
)

// AuthError is the outcome of a failed login attempt. Technical goes
// to the logs; Safe (optional) may be shown to the user.
type AuthError struct {
	Reason    string
	Technical string
	Safe      string
	Err       error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth: %s: %s: %v", e.Reason, e.Technical, e.Err)
	}
	return fmt.Sprintf("auth: %s: %s", e.Reason, e.Technical)
}

func (e *AuthError) Unwrap() error { return e.Err }

// RateLimitError is an AuthError carrying the wait hint.
type RateLimitError struct {
	AuthError
	RetryAfter time.Duration
}

// Unwrap expone el AuthError embebido: la promoción de métodos solo
// devolvería el Err interno y errors.As nunca vería el Reason.
func (e *RateLimitError) Unwrap() error { return &e.AuthError }

func newAuthError(reason, technical string, err error) *AuthError {
	return &AuthError{Reason: reason, Technical: technical, Err: err}
}

// ReasonOf maps any error from the login flow to a reason code.
func ReasonOf(err error) string {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Reason
	}
	var pe *oauth.ProviderError
	if errors.As(err, &pe) {
		return ReasonProviderErr
	}
	var ce *settings.ConfigError
	if errors.As(err, &ce) {
		return ReasonConfigError
	}
	return ReasonAuthError
}

// SafeMessageOf returns the user-facing message for an error, with a
// generic fallback.
func SafeMessageOf(err error) string {
	var ae *AuthError
	if errors.As(err, &ae) && ae.Safe != "" {
		return ae.Safe
	}
	var pe *oauth.ProviderError
	if errors.As(err, &pe) {
		return pe.SafeMessage()
	}
	return "Authentication failed. Please try again."
}
