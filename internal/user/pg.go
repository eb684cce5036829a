package user

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/dropDatabas3/socialgate/internal/oauth"
	"github.com/dropDatabas3/socialgate/internal/observability/logger"
)

// PGManager implements Manager on Postgres.
//
// Schema:
//
//	CREATE TABLE account (
//	    id            UUID PRIMARY KEY,
//	    email         TEXT NOT NULL UNIQUE,
//	    password_hash TEXT NOT NULL,
//	    first_name    TEXT NOT NULL DEFAULT '',
//	    last_name     TEXT NOT NULL DEFAULT '',
//	    display_name  TEXT NOT NULL DEFAULT '',
//	    avatar_url    TEXT NOT NULL DEFAULT '',
//	    locale        TEXT NOT NULL DEFAULT '',
//	    created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
//	    updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
//
//	CREATE TABLE social_identity (
//	    account_id  UUID NOT NULL REFERENCES account(id) ON DELETE CASCADE,
//	    provider    TEXT NOT NULL,
//	    provider_id TEXT NOT NULL,
//	    linked_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
//	    PRIMARY KEY (provider, provider_id)
//	);
type PGManager struct {
	Pool *pgxpool.Pool
}

func NewPGManager(pool *pgxpool.Pool) *PGManager {
	return &PGManager{Pool: pool}
}

func (m *PGManager) CreateOrUpdate(ctx context.Context, data *oauth.UserData) (*Account, bool, error) {
	log := logger.From(ctx).With(logger.Component("user.pg"))

	tx, err := m.Pool.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("user: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var acc Account
	created := false

	err = tx.QueryRow(ctx, `
		SELECT id, email, first_name, last_name, display_name, avatar_url, locale, created_at, updated_at
		  FROM account WHERE email = $1`, data.Email).
		Scan(&acc.ID, &acc.Email, &acc.FirstName, &acc.LastName, &acc.DisplayName,
			&acc.AvatarURL, &acc.Locale, &acc.CreatedAt, &acc.UpdatedAt)

	switch {
	case err == pgx.ErrNoRows:
		hash, err := randomPasswordHash()
		if err != nil {
			return nil, false, err
		}
		err = tx.QueryRow(ctx, `
			INSERT INTO account (id, email, password_hash, first_name, last_name, display_name, avatar_url, locale)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			RETURNING id, email, first_name, last_name, display_name, avatar_url, locale, created_at, updated_at`,
			uuid.New(), data.Email, hash, data.FirstName, data.LastName,
			displayName(data), data.AvatarURL, data.Locale).
			Scan(&acc.ID, &acc.Email, &acc.FirstName, &acc.LastName, &acc.DisplayName,
				&acc.AvatarURL, &acc.Locale, &acc.CreatedAt, &acc.UpdatedAt)
		if err != nil {
			return nil, false, fmt.Errorf("user: insert account: %w", err)
		}
		created = true
		log.Debug("account created",
			logger.AccountID(acc.ID.String()),
			logger.String("email_masked", maskEmail(acc.Email)),
		)

	case err != nil:
		return nil, false, fmt.Errorf("user: select account: %w", err)

	default:
		// cuenta existente: refrescar el perfil con lo último del provider
		_, err = tx.Exec(ctx, `
			UPDATE account
			   SET first_name = $2, last_name = $3, avatar_url = $4, locale = $5, updated_at = now()
			 WHERE id = $1`,
			acc.ID, data.FirstName, data.LastName, data.AvatarURL, data.Locale)
		if err != nil {
			return nil, false, fmt.Errorf("user: update account: %w", err)
		}
	}

	// upsert de la identidad: linked_at se mueve en cada login
	_, err = tx.Exec(ctx, `
		INSERT INTO social_identity (account_id, provider, provider_id, linked_at)
		VALUES ($1,$2,$3, now())
		ON CONFLICT (provider, provider_id)
		DO UPDATE SET account_id = EXCLUDED.account_id, linked_at = now()`,
		acc.ID, data.Provider, data.ProviderID)
	if err != nil {
		return nil, false, fmt.Errorf("user: upsert identity: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("user: commit: %w", err)
	}
	return &acc, created, nil
}

func (m *PGManager) FindByEmail(ctx context.Context, email string) (*Account, error) {
	var acc Account
	err := m.Pool.QueryRow(ctx, `
		SELECT id, email, first_name, last_name, display_name, avatar_url, locale, created_at, updated_at
		  FROM account WHERE email = $1`, email).
		Scan(&acc.ID, &acc.Email, &acc.FirstName, &acc.LastName, &acc.DisplayName,
			&acc.AvatarURL, &acc.Locale, &acc.CreatedAt, &acc.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user: select account: %w", err)
	}
	return &acc, nil
}

func (m *PGManager) Identities(ctx context.Context, accountID uuid.UUID) ([]Identity, error) {
	rows, err := m.Pool.Query(ctx, `
		SELECT account_id, provider, provider_id, linked_at
		  FROM social_identity WHERE account_id = $1
		 ORDER BY linked_at DESC`, accountID)
	if err != nil {
		return nil, fmt.Errorf("user: select identities: %w", err)
	}
	defer rows.Close()

	var out []Identity
	for rows.Next() {
		var id Identity
		if err := rows.Scan(&id.AccountID, &id.Provider, &id.ProviderID, &id.LinkedAt); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// randomPasswordHash genera un hash bcrypt de 32 bytes aleatorios.
// Nadie conoce esta contraseña; la cuenta solo entra por social login
// hasta que el usuario haga un reset.
func randomPasswordHash() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("user: generating password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(base64.RawStdEncoding.EncodeToString(buf)), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("user: hashing password: %w", err)
	}
	return string(hash), nil
}

func displayName(data *oauth.UserData) string {
	if data.DisplayName != "" {
		return data.DisplayName
	}
	if data.FirstName != "" && data.LastName != "" {
		return data.FirstName + " " + data.LastName
	}
	if data.FirstName != "" {
		return data.FirstName
	}
	return data.Email
}
