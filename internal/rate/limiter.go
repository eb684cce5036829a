// Package rate implementa rate limiting de ventana fija para los
// callbacks de login social. El contador vive en cache (memoria o
// Redis) y el incremento es atómico: dos requests simultáneos nunca
// leen el mismo valor.
package rate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/dropDatabas3/socialgate/internal/cache"
)

type Result struct {
	Allowed     bool
	Remaining   int64
	RetryAfter  time.Duration
	WindowTTL   time.Duration
	CurrentHits int64
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// FixedWindow: INCR + EXPIRE sobre cache.Client.
// La ventana arranca con el primer hit y no se renueva.
type FixedWindow struct {
	Cache  cache.Client
	Prefix string
	Max    int64
	Window time.Duration
}

func NewFixedWindow(c cache.Client, prefix string, max int, window time.Duration) *FixedWindow {
	if prefix == "" {
		prefix = "rl"
	}
	return &FixedWindow{
		Cache:  c,
		Prefix: prefix,
		Max:    int64(max),
		Window: window,
	}
}

func (l *FixedWindow) Allow(ctx context.Context, key string) (Result, error) {
	k := l.Prefix + ":" + key

	hits, err := l.Cache.Incr(ctx, k, l.Window)
	if err != nil {
		return Result{}, err
	}

	ttl, err := l.Cache.TTL(ctx, k)
	if err != nil {
		return Result{}, err
	}

	allowed := hits <= l.Max
	remaining := l.Max - hits
	if remaining < 0 {
		remaining = 0
	}

	res := Result{
		Allowed:     allowed,
		Remaining:   remaining,
		CurrentHits: hits,
		WindowTTL:   ttl,
	}
	if !allowed {
		// Retry after: resto de la ventana
		res.RetryAfter = ttl
		if res.RetryAfter <= 0 {
			res.RetryAfter = l.Window
		}
	}
	return res, nil
}

// noopLimiter deja pasar todo. Se usa cuando el limiter está apagado
// por configuración.
type noopLimiter struct{}

func (noopLimiter) Allow(ctx context.Context, key string) (Result, error) {
	return Result{Allowed: true, Remaining: -1}, nil
}

// Noop retorna un Limiter que siempre permite.
func Noop() Limiter { return noopLimiter{} }

// ClientKey deriva la key de rate limit a partir de la IP del cliente.
// Se guarda el hash, nunca la IP en claro.
func ClientKey(ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:])
}
