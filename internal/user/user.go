// Package user manages local accounts provisioned from social logins.
package user

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/socialgate/internal/oauth"
)

// Account is a local account. Accounts created through social login
// get a random password hash so the record is never passwordless.
type Account struct {
	ID          uuid.UUID
	Email       string
	FirstName   string
	LastName    string
	DisplayName string
	AvatarURL   string
	Locale      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Identity links an account to a provider profile. LinkedAt moves on
// every successful login through that provider.
type Identity struct {
	AccountID  uuid.UUID
	Provider   string
	ProviderID string
	LinkedAt   time.Time
}

var ErrNotFound = errors.New("user: account not found")

// Manager provisions and looks up accounts.
type Manager interface {
	// CreateOrUpdate upserts the account matching data.Email and
	// refreshes the provider identity link. It reports whether the
	// account was created on this call.
	CreateOrUpdate(ctx context.Context, data *oauth.UserData) (*Account, bool, error)

	// FindByEmail returns the account or ErrNotFound.
	FindByEmail(ctx context.Context, email string) (*Account, error)

	// Identities lists the provider links of an account, newest first.
	Identities(ctx context.Context, accountID uuid.UUID) ([]Identity, error)
}

// maskEmail oculta el email para los logs (2 chars + dominio)
func maskEmail(email string) string {
	if len(email) < 3 {
		return "***"
	}
	at := -1
	for i, c := range email {
		if c == '@' {
			at = i
			break
		}
	}
	if at < 0 || at < 2 {
		return email[:2] + "***"
	}
	return email[:2] + "***" + email[at:]
}
