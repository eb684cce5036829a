package logger

import (
	"strings"

	"go.uber.org/zap"
)

// RedactedValue reemplaza el valor de las claves sensibles.
const RedactedValue = "[REDACTED]"

// sensitiveTerms: si el nombre de una clave contiene alguno de estos términos
// (case-insensitive), su valor se redacta. La comparación es por substring:
// "api_key", "client_secret" y "Authorization" matchean.
var sensitiveTerms = []string{
	"password",
	"secret",
	"token",
	"key",
	"auth",
	"credential",
	"nonce",
}

// Context crea un campo con un mapa de contexto, redactando valores sensibles
// de forma recursiva. Es la forma segura de loggear mapas arbitrarios.
func Context(m map[string]any) zap.Field {
	return zap.Any("context", Redact(m))
}

// Redact retorna una copia del mapa con los valores de claves sensibles
// reemplazados por RedactedValue, descendiendo en mapas anidados.
// El mapa original no se modifica.
func Redact(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if isSensitiveKey(k) {
			out[k] = RedactedValue
			continue
		}
		switch nested := v.(type) {
		case map[string]any:
			out[k] = Redact(nested)
		case map[string]string:
			sub := make(map[string]any, len(nested))
			for nk, nv := range nested {
				sub[nk] = nv
			}
			out[k] = Redact(sub)
		default:
			out[k] = v
		}
	}
	return out
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, term := range sensitiveTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}
