package settings

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// EnvPrefix es el prefijo de las variables de entorno que este servicio lee.
const EnvPrefix = "SOCIALGATE_"

// providerNames son los providers con colapso especial de claves de entorno:
// SOCIALGATE_GOOGLE_CLIENT_ID -> providers.google.client_id
var providerNames = []string{"google", "facebook"}

// Options controla las fuentes de la carga.
type Options struct {
	// Store persistido (opcional). Sus claves planas pisan los defaults.
	Store Store

	// Environ en formato "K=V". Si es nil se usa os.Environ() (ver Load).
	Environ []string

	// Override explícito, aplicado al final. Claves dot-path.
	Override map[string]any
}

// Load construye el snapshot: defaults -> store -> env -> override.
// Cada capa pisa solo las hojas que trae.
func Load(ctx context.Context, opts Options) (*Settings, error) {
	s := NewFromMap(defaults())

	if opts.Store != nil {
		flat, err := opts.Store.Load(ctx)
		if err != nil {
			return nil, err
		}
		for k, v := range flat {
			s.Set(flatToDotPath(k), CastValue(v))
		}
	}

	environ := opts.Environ
	if environ == nil {
		environ = os.Environ()
	}
	for _, kv := range environ {
		eq := strings.IndexByte(kv, '=')
		if eq <= 0 {
			continue
		}
		name, value := kv[:eq], kv[eq+1:]
		if !strings.HasPrefix(name, EnvPrefix) {
			continue
		}
		s.Set(envToDotPath(name), CastValue(value))
	}

	for k, v := range opts.Override {
		s.Set(k, v)
	}

	return s, nil
}

// defaults son los valores incorporados. Las capas siguientes los pisan.
func defaults() map[string]any {
	return map[string]any{
		"app": map[string]any{
			"env":      "dev",
			"base_url": "http://localhost:8080",
		},
		"server": map[string]any{
			"addr": ":8080",
		},
		"log": map[string]any{
			"level": "info",
		},
		"cache": map[string]any{
			"driver": "memory",
			"prefix": "socialgate",
		},
		"storage": map[string]any{
			"driver": "memory",
			"dsn":    "",
		},
		"oauth": map[string]any{
			"state_ttl": 300, // segundos
		},
		"ratelimit": map[string]any{
			"enabled":      true,
			"window":       300, // segundos
			"max_attempts": 5,
		},
		"session": map[string]any{
			"cookie_name": "sg_session",
			"secret":      "",
			"ttl":         "12h",
			"secure":      false,
			"domain":      "",
		},
		"login": map[string]any{
			"default_redirect": "/",
			"failure_url":      "/login",
		},
		"smtp": map[string]any{
			"enabled":  false,
			"host":     "",
			"port":     587,
			"username": "",
			"password": "",
			"from":     "",
		},
		"providers": map[string]any{
			"google": map[string]any{
				"enabled":       false,
				"client_id":     "",
				"client_secret": "",
				"hosted_domain": "",
			},
			"facebook": map[string]any{
				"enabled":    false,
				"app_id":     "",
				"app_secret": "",
			},
		},
	}
}

// envToDotPath convierte SOCIALGATE_FOO_BAR_BAZ en su dot-path.
// Caso general: primer segmento = sección, el resto es la hoja con "_".
// Caso provider: SOCIALGATE_GOOGLE_CLIENT_ID -> providers.google.client_id,
// SOCIALGATE_GOOGLE_ENABLED -> providers.google.enabled.
func envToDotPath(name string) string {
	key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	parts := strings.Split(key, "_")
	if len(parts) >= 2 {
		for _, p := range providerNames {
			if parts[0] == p {
				return "providers." + p + "." + strings.Join(parts[1:], "_")
			}
		}
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return parts[0] + "." + strings.Join(parts[1:], "_")
}

// flatToDotPath convierte una clave plana del store en su dot-path.
// Misma regla que el entorno, sin prefijo: "google_client_id" ->
// providers.google.client_id; "session_cookie_name" -> session.cookie_name.
func flatToDotPath(key string) string {
	return envToDotPath(EnvPrefix + strings.ToUpper(key))
}

// dotPathToFlat es la inversa: providers.google.client_id -> google_client_id.
func dotPathToFlat(path string) string {
	parts := strings.Split(path, ".")
	if len(parts) >= 3 && parts[0] == "providers" {
		parts = parts[1:]
	}
	return strings.Join(parts, "_")
}

// CastValue castea un string de entorno/store al tipo natural:
// "true"/"false" -> bool, numérico -> int o float64, resto string.
func CastValue(value string) any {
	switch strings.ToLower(value) {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	return value
}

// Flatten aplana el árbol a claves planas de store, con los sub-paths de
// providers colapsados a <provider>_<resto>.
func (s *Settings) Flatten() map[string]string {
	out := map[string]string{}
	flatten("", s.data, out)
	return out
}

func flatten(prefix string, m map[string]any, out map[string]string) {
	for k, v := range m {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			flatten(path, nested, out)
			continue
		}
		out[dotPathToFlat(path)] = stringify(v)
	}
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// Persist escribe el snapshot aplanado al store.
func (s *Settings) Persist(ctx context.Context, store Store) error {
	if store == nil {
		return &ConfigError{Msg: "no store configured"}
	}
	return store.Save(ctx, s.Flatten())
}
