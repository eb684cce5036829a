package oauth

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/dropDatabas3/socialgate/internal/observability/logger"
)

// Factory builds a Provider from its configuration block
// (providers.<id> in settings).
type Factory func(cfg map[string]any) (Provider, error)

// Registry maps provider identifiers to factories. The zero value is
// not usable; call NewRegistry.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under an identifier. Registering the same
// identifier twice replaces the previous factory.
func (r *Registry) Register(id string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[id] = f
}

// Known returns the registered identifiers, sorted.
func (r *Registry) Known() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Create instantiates a single provider from its config block.
// Unknown identifiers are an error; a known identifier with broken
// config returns the factory's error untouched.
func (r *Registry) Create(id string, cfg map[string]any) (Provider, error) {
	r.mu.RLock()
	f, ok := r.factories[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("oauth: unknown provider %q", id)
	}
	return f(cfg)
}

// Configured instantiates every registered provider whose config block
// is present and complete. Providers that are missing or incomplete
// are skipped with a debug log, never an error: one broken provider
// must not take down the rest.
func (r *Registry) Configured(configs map[string]map[string]any) []Provider {
	var out []Provider
	for _, id := range r.Known() {
		cfg, ok := configs[id]
		if !ok {
			logger.L().Debug("provider sin configuración, omitido", logger.Provider(id))
			continue
		}
		p, err := r.Create(id, cfg)
		if err != nil {
			logger.L().Debug("provider no instanciable, omitido", logger.Provider(id), zap.Error(err))
			continue
		}
		if !p.IsConfigured() {
			logger.L().Debug("provider sin credenciales, omitido", logger.Provider(id))
			continue
		}
		out = append(out, p)
	}
	return out
}
