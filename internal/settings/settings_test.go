package settings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDotPath_RoundTrip(t *testing.T) {
	s := NewFromMap(nil)

	s.Set("a.b.c", 5)
	assert.Equal(t, 5, s.Get("a.b.c", nil))
	assert.True(t, s.Has("a.b.c"))

	s.Remove("a.b")
	assert.False(t, s.Has("a.b.c"))
	assert.False(t, s.Has("a.b"))
	// el padre sigue existiendo como mapa vacío
	assert.True(t, s.Has("a"))
}

func TestGet_DefaultWhenMissing(t *testing.T) {
	s := NewFromMap(nil)
	assert.Equal(t, "fallback", s.Get("no.such.key", "fallback"))
	assert.Equal(t, 42, s.GetInt("no.such.key", 42))
}

func TestSet_CreatesIntermediateLevels(t *testing.T) {
	s := NewFromMap(map[string]any{"x": "leaf"})
	// pisa una hoja con un mapa intermedio
	s.Set("x.y", 1)
	assert.Equal(t, 1, s.Get("x.y", nil))
}

func TestTypedGetters_NilIsZero(t *testing.T) {
	s := NewFromMap(map[string]any{
		"n": nil,
	})
	assert.Equal(t, "", s.GetString("n", "def"))
	assert.False(t, s.GetBool("n", true))
	assert.Equal(t, 0, s.GetInt("n", 9))
	assert.Equal(t, 0.0, s.GetFloat("n", 9.9))
}

func TestTypedGetters_Casts(t *testing.T) {
	s := NewFromMap(map[string]any{
		"b": "true",
		"i": "17",
		"f": 3,
		"d": "5m",
		"w": 300,
	})
	assert.True(t, s.GetBool("b", false))
	assert.Equal(t, 17, s.GetInt("i", 0))
	assert.Equal(t, 3.0, s.GetFloat("f", 0))
	assert.Equal(t, 5*time.Minute, s.GetDuration("d", 0))
	assert.Equal(t, 300*time.Second, s.GetDuration("w", 0))
}

func TestProviderConfig(t *testing.T) {
	s := NewFromMap(map[string]any{
		"providers": map[string]any{
			"google": map[string]any{
				"enabled":   true,
				"client_id": "cid",
			},
			"facebook": map[string]any{
				"enabled": false,
				"app_id":  "aid",
			},
		},
	})

	cfg, err := s.ProviderConfig("google")
	require.NoError(t, err)
	assert.Equal(t, "cid", cfg["client_id"])

	_, err = s.ProviderConfig("facebook")
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)

	_, err = s.ProviderConfig("twitter")
	require.ErrorAs(t, err, &cerr)
}

func TestEnabledProviders_OnlyEnabled(t *testing.T) {
	s := NewFromMap(map[string]any{
		"providers": map[string]any{
			"facebook": map[string]any{"enabled": true},
			"google":   map[string]any{"enabled": false},
			"github":   map[string]any{"enabled": true},
		},
	})
	assert.Equal(t, []string{"facebook", "github"}, s.EnabledProviders())
}

func TestLoad_LayerPrecedence(t *testing.T) {
	store := &memStore{entries: map[string]string{
		"server_addr":      ":9090",
		"google_client_id": "from-store",
	}}

	s, err := Load(context.Background(), Options{
		Store: store,
		Environ: []string{
			"SOCIALGATE_GOOGLE_CLIENT_ID=from-env",
			"SOCIALGATE_GOOGLE_ENABLED=true",
			"SOCIALGATE_RATELIMIT_MAX_ATTEMPTS=3",
			"PATH=/usr/bin", // ignorada: sin prefijo
		},
		Override: map[string]any{
			"ratelimit.window": 60,
		},
	})
	require.NoError(t, err)

	// store pisa default
	assert.Equal(t, ":9090", s.GetString("server.addr", ""))
	// env pisa store
	assert.Equal(t, "from-env", s.GetString("providers.google.client_id", ""))
	// cast automático de env
	assert.Equal(t, true, s.Get("providers.google.enabled", nil))
	assert.Equal(t, 3, s.GetInt("ratelimit.max_attempts", 0))
	// override pisa todo
	assert.Equal(t, 60, s.GetInt("ratelimit.window", 0))
	// defaults sobreviven donde nadie pisó
	assert.Equal(t, "memory", s.GetString("cache.driver", ""))
}

func TestLoad_DefaultsToProcessEnv(t *testing.T) {
	t.Setenv("SOCIALGATE_SERVER_ADDR", ":9999")
	t.Setenv("SOCIALGATE_FACEBOOK_ENABLED", "true")

	// Environ nil: Load tiene que leer os.Environ()
	s, err := Load(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, ":9999", s.GetString("server.addr", ""))
	assert.Equal(t, true, s.Get("providers.facebook.enabled", nil))
}

func TestEnvToDotPath_ProviderCollapsing(t *testing.T) {
	assert.Equal(t, "providers.google.client_id", envToDotPath("SOCIALGATE_GOOGLE_CLIENT_ID"))
	assert.Equal(t, "providers.google.enabled", envToDotPath("SOCIALGATE_GOOGLE_ENABLED"))
	assert.Equal(t, "providers.facebook.app_secret", envToDotPath("SOCIALGATE_FACEBOOK_APP_SECRET"))
	assert.Equal(t, "providers.facebook.enabled", envToDotPath("SOCIALGATE_FACEBOOK_ENABLED"))
	assert.Equal(t, "session.cookie_name", envToDotPath("SOCIALGATE_SESSION_COOKIE_NAME"))
	assert.Equal(t, "ratelimit.max_attempts", envToDotPath("SOCIALGATE_RATELIMIT_MAX_ATTEMPTS"))
}

func TestCastValue(t *testing.T) {
	assert.Equal(t, true, CastValue("true"))
	assert.Equal(t, false, CastValue("FALSE"))
	assert.Equal(t, 10, CastValue("10"))
	assert.Equal(t, 1.5, CastValue("1.5"))
	assert.Equal(t, "hola", CastValue("hola"))
}

func TestFlatten_RoundTrip(t *testing.T) {
	s := NewFromMap(map[string]any{
		"providers": map[string]any{
			"google": map[string]any{"client_id": "cid", "enabled": true},
		},
		"session": map[string]any{"cookie_name": "sg"},
	})
	flat := s.Flatten()
	assert.Equal(t, "cid", flat["google_client_id"])
	assert.Equal(t, "true", flat["google_enabled"])
	assert.Equal(t, "sg", flat["session_cookie_name"])

	// vuelta: el store plano re-hidrata el mismo árbol
	s2, err := Load(context.Background(), Options{
		Store:   &memStore{entries: flat},
		Environ: []string{},
	})
	require.NoError(t, err)
	assert.Equal(t, "cid", s2.GetString("providers.google.client_id", ""))
	assert.Equal(t, true, s2.Get("providers.google.enabled", nil))
	assert.Equal(t, "sg", s2.GetString("session.cookie_name", ""))
}

type memStore struct {
	entries map[string]string
	saved   map[string]string
}

func (m *memStore) Load(_ context.Context) (map[string]string, error) { return m.entries, nil }
func (m *memStore) Save(_ context.Context, e map[string]string) error {
	m.saved = e
	return nil
}
