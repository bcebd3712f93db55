package cache

import (
	"context"
	"sync"
	"time"

	"codeberg.org/snonux/nori/internal/booru"
)

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// MemoryCache is a process-local PageCache. Entries are stored serialized so
// callers can never mutate a cached page.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache creates an empty cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(ctx context.Context, key string) (*booru.SearchResult, error) {
	c.mu.Lock()
	entry, ok := c.entries[key]
	if ok && !entry.expires.IsZero() && !c.now().Before(entry.expires) {
		delete(c.entries, key)
		ok = false
	}
	c.mu.Unlock()

	if !ok {
		return nil, ErrCacheMiss
	}
	return decode(entry.data)
}

// Set stores result. A zero ttl keeps the entry until it is deleted.
func (c *MemoryCache) Set(ctx context.Context, key string, result *booru.SearchResult, ttl time.Duration) error {
	data, err := encode(result)
	if err != nil {
		return err
	}

	entry := memoryEntry{data: data}
	if ttl > 0 {
		entry.expires = c.now().Add(ttl)
	}

	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired ones included
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *MemoryCache) Close() error {
	return nil
}
