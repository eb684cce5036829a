package settings

import (
	"context"
	"os"

	"gopkg.in/yaml.v3"
)

// Store es la fuente persistida de configuración: entradas planas
// clave -> valor (claves dot-path unidas con "_", providers colapsados).
type Store interface {
	Load(ctx context.Context) (map[string]string, error)
	Save(ctx context.Context, entries map[string]string) error
}

// FileStore persiste las entradas en un archivo YAML plano.
// Pensado para desarrollo y despliegues sin base de datos.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (f *FileStore) Load(ctx context.Context) (map[string]string, error) {
	b, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			// archivo ausente = sin overrides
			return map[string]string{}, nil
		}
		return nil, err
	}
	var raw map[string]any
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		out[k] = stringify(v)
	}
	return out, nil
}

func (f *FileStore) Save(ctx context.Context, entries map[string]string) error {
	b, err := yaml.Marshal(entries)
	if err != nil {
		return err
	}
	return os.WriteFile(f.Path, b, 0o600)
}
