package oauth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dropDatabas3/socialgate/internal/cache"
)

// Errors for state operations.
var (
	ErrStateInvalid = errors.New("invalid state token")
	ErrStateExpired = errors.New("state token expired")
)

// DefaultStateTTL is how long a state token stays valid.
const DefaultStateTTL = 5 * time.Minute

const stateKeyPrefix = "social:state:"

// StateStore issues and verifies single-use CSRF state tokens for the
// authorization-code flow. The raw token travels in the redirect; the
// cache only ever sees its SHA-256, so a cache dump cannot be replayed.
type StateStore struct {
	Cache cache.Client
	TTL   time.Duration
}

func NewStateStore(c cache.Client, ttl time.Duration) *StateStore {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &StateStore{Cache: c, TTL: ttl}
}

// Issue generates a fresh state token and records it.
func (s *StateStore) Issue(ctx context.Context) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("oauth: generating state: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf)

	issued := strconv.FormatInt(time.Now().UTC().Unix(), 10)
	if err := s.Cache.Set(ctx, stateKey(token), issued, s.TTL); err != nil {
		return "", fmt.Errorf("oauth: storing state: %w", err)
	}
	return token, nil
}

// Verify consumes a state token. It succeeds at most once per token:
// the entry is deleted before the age check so a replayed token fails
// even within the TTL.
func (s *StateStore) Verify(ctx context.Context, token string) error {
	if token == "" {
		return ErrStateInvalid
	}

	key := stateKey(token)
	issued, err := s.Cache.Get(ctx, key)
	if err != nil {
		if cache.IsNotFound(err) {
			return ErrStateInvalid
		}
		return fmt.Errorf("oauth: reading state: %w", err)
	}

	// single use
	if err := s.Cache.Delete(ctx, key); err != nil {
		return fmt.Errorf("oauth: consuming state: %w", err)
	}

	// El TTL del cache ya debería haber vencido la entrada, pero el
	// backend de memoria purga en intervalos: chequeo explícito.
	ts, err := strconv.ParseInt(issued, 10, 64)
	if err != nil {
		return ErrStateInvalid
	}
	if time.Since(time.Unix(ts, 0)) > s.TTL {
		return ErrStateExpired
	}
	return nil
}

func stateKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return stateKeyPrefix + hex.EncodeToString(sum[:])
}
