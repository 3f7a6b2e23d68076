package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"
)

type entry struct {
	value     string
	expiresAt time.Time
}

// Cache is a small in-memory TTL map. It lives for one run only; expired
// entries are dropped lazily on read.
type Cache struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[string]entry
	hits  int
}

func New(ttl time.Duration) *Cache {
	return &Cache{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]entry),
	}
}

func (c *Cache) Set(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = entry{value: value, expiresAt: c.now().Add(c.ttl)}
}

func (c *Cache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		return "", false
	}
	if c.now().After(e.expiresAt) {
		delete(c.items, key)
		return "", false
	}
	c.hits++
	return e.value, true
}

// Hits reports how many lookups were served from memory.
func (c *Cache) Hits() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits
}

// Key hashes its parts into a stable lookup key.
func Key(parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(h[:])
}
