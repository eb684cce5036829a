package cache

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// memoryClient implementa Client sobre go-cache.
// Útil para desarrollo y testing; no comparte estado entre procesos.
type memoryClient struct {
	prefix string
	c      *gocache.Cache

	// counters guarda el momento de creación de cada contador
	// para poder responder TTL; el valor vive dentro de c.
	mu      sync.Mutex
	created map[string]time.Time
	ttls    map[string]time.Duration
}

// NewMemory crea un cliente de cache en memoria.
func NewMemory(prefix string) *memoryClient {
	return &memoryClient{
		prefix:  prefix,
		c:       gocache.New(gocache.NoExpiration, time.Minute),
		created: make(map[string]time.Time),
		ttls:    make(map[string]time.Duration),
	}
}

func (c *memoryClient) key(k string) string {
	if c.prefix == "" {
		return k
	}
	return c.prefix + ":" + k
}

func (c *memoryClient) Get(ctx context.Context, key string) (string, error) {
	v, ok := c.c.Get(c.key(key))
	if !ok {
		return "", ErrNotFound
	}
	s, _ := v.(string)
	return s, nil
}

func (c *memoryClient) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl == 0 {
		ttl = gocache.NoExpiration
	}
	k := c.key(key)
	c.c.Set(k, value, ttl)
	c.rememberTTL(k, ttl)
	return nil
}

func (c *memoryClient) Delete(ctx context.Context, key string) error {
	k := c.key(key)
	c.c.Delete(k)
	c.forgetTTL(k)
	return nil
}

func (c *memoryClient) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := c.c.Get(c.key(key))
	return ok, nil
}

func (c *memoryClient) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	k := c.key(key)

	// go-cache no tiene upsert atómico de contadores; el mutex
	// serializa el par Get/Set para que dos goroutines no pisen
	// el mismo incremento.
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.c.Get(k); !ok {
		exp := ttl
		if exp == 0 {
			exp = gocache.NoExpiration
		}
		c.c.Set(k, int64(1), exp)
		c.rememberTTLLocked(k, ttl)
		return 1, nil
	}

	n, err := c.c.IncrementInt64(k, 1)
	if err != nil {
		// la key expiró entre el Get y el Increment
		exp := ttl
		if exp == 0 {
			exp = gocache.NoExpiration
		}
		c.c.Set(k, int64(1), exp)
		c.rememberTTLLocked(k, ttl)
		return 1, nil
	}
	return n, nil
}

func (c *memoryClient) TTL(ctx context.Context, key string) (time.Duration, error) {
	k := c.key(key)
	if _, ok := c.c.Get(k); !ok {
		return 0, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	created, ok := c.created[k]
	if !ok {
		return 0, nil
	}
	ttl := c.ttls[k]
	if ttl == 0 {
		return 0, nil
	}
	remaining := ttl - time.Since(created)
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

func (c *memoryClient) Ping(ctx context.Context) error { return nil }

func (c *memoryClient) Close() error {
	c.c.Flush()
	return nil
}

func (c *memoryClient) rememberTTL(k string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rememberTTLLocked(k, ttl)
}

func (c *memoryClient) rememberTTLLocked(k string, ttl time.Duration) {
	c.created[k] = time.Now()
	c.ttls[k] = ttl
}

func (c *memoryClient) forgetTTL(k string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.created, k)
	delete(c.ttls, k)
}
