// Package settings provee la configuración del servicio como un snapshot
// inmutable por carga: defaults -> store persistido -> variables de entorno ->
// override explícito. El acceso es por dot-path ("providers.google.client_id").
package settings

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ConfigError indica configuración faltante, inválida o deshabilitada.
// Es fatal solo para el provider afectado, nunca para el resto.
type ConfigError struct {
	Key string
	Msg string
}

func (e *ConfigError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("settings: %s: %s", e.Key, e.Msg)
	}
	return "settings: " + e.Msg
}

// Settings es el snapshot de configuración. Se carga una vez al inicio del
// proceso (ver Load); Set/Remove existen para ajustes puntuales y tests,
// no para re-leer fuentes vivas en runtime.
type Settings struct {
	data map[string]any
}

// NewFromMap crea un Settings a partir de un mapa anidado ya construido.
// Útil en tests. Para el flujo normal usar Load.
func NewFromMap(m map[string]any) *Settings {
	if m == nil {
		m = map[string]any{}
	}
	return &Settings{data: m}
}

// Get retorna el valor en el dot-path o def si no existe.
func (s *Settings) Get(key string, def any) any {
	v, ok := s.lookup(key)
	if !ok {
		return def
	}
	return v
}

// Has retorna true si existe un valor no-nil en el dot-path.
func (s *Settings) Has(key string) bool {
	v, ok := s.lookup(key)
	return ok && v != nil
}

// Set escribe el valor en el dot-path, creando los niveles intermedios
// que falten como mapas vacíos.
func (s *Settings) Set(key string, value any) {
	parts := strings.Split(key, ".")
	cur := s.data
	for i, p := range parts {
		if i == len(parts)-1 {
			cur[p] = value
			return
		}
		next, ok := cur[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[p] = next
		}
		cur = next
	}
}

// Remove elimina la clave (y todo su subárbol si es un mapa).
func (s *Settings) Remove(key string) {
	parts := strings.Split(key, ".")
	cur := s.data
	for i, p := range parts {
		if i == len(parts)-1 {
			delete(cur, p)
			return
		}
		next, ok := cur[p].(map[string]any)
		if !ok {
			return
		}
		cur = next
	}
}

func (s *Settings) lookup(key string) (any, bool) {
	parts := strings.Split(key, ".")
	var cur any = s.data
	for _, p := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// ───────── Getters tipados ─────────
// nil se trata como valor cero del tipo pedido.

// GetString retorna el valor como string.
func (s *Settings) GetString(key, def string) string {
	v, ok := s.lookup(key)
	if !ok {
		return def
	}
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

// GetBool retorna el valor como bool. Strings "true"/"1" son true.
func (s *Settings) GetBool(key string, def bool) bool {
	v, ok := s.lookup(key)
	if !ok {
		return def
	}
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case int:
		return t != 0
	case float64:
		return t != 0
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		return err == nil && b
	default:
		return def
	}
}

// GetInt retorna el valor como int.
func (s *Settings) GetInt(key string, def int) int {
	v, ok := s.lookup(key)
	if !ok {
		return def
	}
	switch t := v.(type) {
	case nil:
		return 0
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return n
		}
		return def
	default:
		return def
	}
}

// GetFloat retorna el valor como float64.
func (s *Settings) GetFloat(key string, def float64) float64 {
	v, ok := s.lookup(key)
	if !ok {
		return def
	}
	switch t := v.(type) {
	case nil:
		return 0
	case float64:
		return t
	case int:
		return float64(t)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return f
		}
		return def
	default:
		return def
	}
}

// GetDuration acepta un time.Duration, un string parseable ("5m") o un
// número de segundos.
func (s *Settings) GetDuration(key string, def time.Duration) time.Duration {
	v, ok := s.lookup(key)
	if !ok {
		return def
	}
	switch t := v.(type) {
	case nil:
		return 0
	case time.Duration:
		return t
	case int:
		return time.Duration(t) * time.Second
	case float64:
		return time.Duration(t) * time.Second
	case string:
		if d, err := time.ParseDuration(strings.TrimSpace(t)); err == nil {
			return d
		}
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return time.Duration(n) * time.Second
		}
		return def
	default:
		return def
	}
}

// GetMap retorna el sub-mapa en el dot-path, o un mapa vacío.
func (s *Settings) GetMap(key string) map[string]any {
	v, ok := s.lookup(key)
	if !ok {
		return map[string]any{}
	}
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// GetStrings retorna el valor como slice de strings. Un string CSV
// ("a,b,c") se separa por comas.
func (s *Settings) GetStrings(key string) []string {
	v, ok := s.lookup(key)
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, it := range t {
			if str, ok := it.(string); ok {
				out = append(out, str)
			}
		}
		return out
	case string:
		parts := strings.Split(t, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	default:
		return nil
	}
}

// ───────── Providers ─────────

// ProviderConfig retorna la configuración del provider, o ConfigError si no
// existe o está deshabilitado. enabled=true exige credenciales no vacías,
// pero esa validación es del provider (ValidateConfig), no de acá.
func (s *Settings) ProviderConfig(id string) (map[string]any, error) {
	key := "providers." + id
	v, ok := s.lookup(key)
	if !ok {
		return nil, &ConfigError{Key: key, Msg: "provider not configured"}
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, &ConfigError{Key: key, Msg: "provider config is not a map"}
	}
	if !s.GetBool(key+".enabled", false) {
		return nil, &ConfigError{Key: key, Msg: "provider disabled"}
	}
	return m, nil
}

// EnabledProviders retorna los ids con enabled=true, ordenados.
func (s *Settings) EnabledProviders() []string {
	providers := s.GetMap("providers")
	var out []string
	for id := range providers {
		if s.GetBool("providers."+id+".enabled", false) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// ToMap retorna el árbol completo (referencia, no copia).
func (s *Settings) ToMap() map[string]any {
	return s.data
}
