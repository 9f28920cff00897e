package credential

import (
	"strings"
	"sync"

	"github.com/spiffcs/firstissue/internal/log"
)

// Cache is a single-slot in-memory cache in front of a Store. It is safe for
// concurrent use and is read on every outgoing request.
type Cache struct {
	store Store

	mu          sync.RWMutex
	value       string
	loaded      bool
	fallback    func() string
	invalidated bool
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithFallback supplies a token source, such as an environment variable,
// consulted when the store is empty. It is ignored once the cache has been
// invalidated so a rejected token is not picked up again.
func WithFallback(fn func() string) CacheOption {
	return func(c *Cache) {
		c.fallback = fn
	}
}

// NewCache wraps store.
func NewCache(store Store, opts ...CacheOption) *Cache {
	c := &Cache{store: store}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the cached token, loading it on first use. An empty string
// means no credential is available.
func (c *Cache) Token() string {
	c.mu.RLock()
	if c.loaded {
		v := c.value
		c.mu.RUnlock()
		return v
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return c.value
	}

	v, err := c.store.Get()
	if err != nil {
		log.Warn("failed to read stored credential", "error", err)
	}
	if v == "" && c.fallback != nil && !c.invalidated {
		v = c.fallback()
	}
	c.value = v
	c.loaded = true
	return v
}

// Set stores a new token and makes it visible to the next request.
func (c *Cache) Set(token string) error {
	token = strings.TrimSpace(token)
	if err := c.store.Set(token); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = token
	c.loaded = true
	c.invalidated = false
	return nil
}

// Invalidate clears both the in-memory value and the store immediately.
func (c *Cache) Invalidate() error {
	c.mu.Lock()
	c.value = ""
	c.loaded = true
	c.invalidated = true
	c.mu.Unlock()

	return c.store.Clear()
}

// HasToken reports whether a token is currently available.
func (c *Cache) HasToken() bool {
	return c.Token() != ""
}
