package filicious

import (
	"context"
	"io/fs"
	"path"
	"strings"
	"sync"
	"time"
)

// Cache is the backend for the Cached decorator. Implementations must be
// safe for concurrent use; entries are adapter query results keyed by
// operation and path.
type Cache interface {
	// Get retrieves a value; the second result reports a hit.
	Get(key string) (any, bool)

	// Set stores a value. A TTL of 0 means no expiration.
	Set(key string, value any, ttl time.Duration)

	// Delete removes a single key.
	Delete(key string)

	// Clear removes everything.
	Clear()
}

// CacheStatistics holds hit/miss counters for a cache backend.
type CacheStatistics struct {
	Hits    int64
	Misses  int64
	Size    int64
	HitRate float64
}

type cacheEntry struct {
	value      any
	expiration time.Time
	hasExpiry  bool
}

// MemoryCache is a TTL-expiring in-memory Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	hits    int64
	misses  int64
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]*cacheEntry)}
}

func (c *MemoryCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	if entry.hasExpiry && time.Now().After(entry.expiration) {
		delete(c.entries, key)
		c.misses++
		return nil, false
	}
	c.hits++
	return entry.value, true
}

func (c *MemoryCache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := &cacheEntry{value: value}
	if ttl > 0 {
		entry.expiration = time.Now().Add(ttl)
		entry.hasExpiry = true
	}
	c.entries[key] = entry
}

func (c *MemoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
}

// Stats returns hit/miss counters.
func (c *MemoryCache) Stats() CacheStatistics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := c.hits + c.misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}
	return CacheStatistics{
		Hits:    c.hits,
		Misses:  c.misses,
		Size:    int64(len(c.entries)),
		HitRate: hitRate,
	}
}

// Cleanup drops expired entries. Call periodically on long-lived caches.
func (c *MemoryCache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, entry := range c.entries {
		if entry.hasExpiry && now.After(entry.expiration) {
			delete(c.entries, key)
		}
	}
}

// Cached wraps an Adapter with a metadata and content cache. Queries are
// served from the cache within the TTL; every mutation through the
// wrapper invalidates the affected paths. Mutations that bypass the
// wrapper are invisible until the TTL expires.
type Cached struct {
	Adapter
	cache Cache
	ttl   time.Duration
}

// NewCached wraps an adapter with a cache. A nil cache gets a fresh
// MemoryCache; a zero TTL caches until invalidation.
func NewCached(a Adapter, cache Cache, ttl time.Duration) *Cached {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Cached{Adapter: a, cache: cache, ttl: ttl}
}

// Unwrap returns the underlying adapter.
func (c *Cached) Unwrap() Adapter { return c.Adapter }

// cacheKey canonicalizes a path so "dir", "/dir" and "dir/" share one
// cache slot.
func cacheKey(op, p string) string {
	return op + ":" + strings.TrimPrefix(path.Clean("/"+p), "/")
}

// Invalidate drops all cached state for a path and its parent listing.
func (c *Cached) Invalidate(p string) {
	for _, op := range []string{"exists", "stat", "list", "read"} {
		c.cache.Delete(cacheKey(op, p))
	}
	parent := path.Dir(path.Clean("/" + p))
	c.cache.Delete(cacheKey("list", parent))
}

func (c *Cached) Exists(ctx context.Context, p string) (bool, error) {
	if v, ok := c.cache.Get(cacheKey("exists", p)); ok {
		return v.(bool), nil
	}
	exists, err := c.Adapter.Exists(ctx, p)
	if err != nil {
		return false, err
	}
	c.cache.Set(cacheKey("exists", p), exists, c.ttl)
	return exists, nil
}

func (c *Cached) Stat(ctx context.Context, p string) (*Stat, error) {
	if v, ok := c.cache.Get(cacheKey("stat", p)); ok {
		return v.(*Stat), nil
	}
	st, err := c.Adapter.Stat(ctx, p)
	if err != nil {
		return nil, err
	}
	c.cache.Set(cacheKey("stat", p), st, c.ttl)
	return st, nil
}

func (c *Cached) List(ctx context.Context, p string) ([]string, error) {
	if v, ok := c.cache.Get(cacheKey("list", p)); ok {
		return v.([]string), nil
	}
	names, err := c.Adapter.List(ctx, p)
	if err != nil {
		return nil, err
	}
	c.cache.Set(cacheKey("list", p), names, c.ttl)
	return names, nil
}

func (c *Cached) ReadFile(ctx context.Context, p string) ([]byte, error) {
	if v, ok := c.cache.Get(cacheKey("read", p)); ok {
		return v.([]byte), nil
	}
	data, err := c.Adapter.ReadFile(ctx, p)
	if err != nil {
		return nil, err
	}
	c.cache.Set(cacheKey("read", p), data, c.ttl)
	return data, nil
}

func (c *Cached) Touch(ctx context.Context, p string, atime, mtime time.Time) error {
	c.Invalidate(p)
	return c.Adapter.Touch(ctx, p, atime, mtime)
}

func (c *Cached) Chmod(ctx context.Context, p string, mode fs.FileMode) error {
	c.Invalidate(p)
	return c.Adapter.Chmod(ctx, p, mode)
}

func (c *Cached) Chown(ctx context.Context, p string, uid, gid int) error {
	c.Invalidate(p)
	return c.Adapter.Chown(ctx, p, uid, gid)
}

func (c *Cached) WriteFile(ctx context.Context, p string, data []byte) error {
	c.Invalidate(p)
	return c.Adapter.WriteFile(ctx, p, data)
}

func (c *Cached) Append(ctx context.Context, p string, data []byte) error {
	c.Invalidate(p)
	return c.Adapter.Append(ctx, p, data)
}

func (c *Cached) Truncate(ctx context.Context, p string, size int64) error {
	c.Invalidate(p)
	return c.Adapter.Truncate(ctx, p, size)
}

// Open bypasses the cache; the handle may be written through, so the
// cached content is dropped up front.
func (c *Cached) Open(ctx context.Context, p string) (Stream, error) {
	c.Invalidate(p)
	return c.Adapter.Open(ctx, p)
}

func (c *Cached) CreateFile(ctx context.Context, p string) error {
	c.Invalidate(p)
	return c.Adapter.CreateFile(ctx, p)
}

func (c *Cached) CreateDir(ctx context.Context, p string, parents bool) error {
	c.Invalidate(p)
	return c.Adapter.CreateDir(ctx, p, parents)
}

// Delete clears the whole cache: a recursive delete can remove paths the
// per-path invalidation would miss.
func (c *Cached) Delete(ctx context.Context, p string, recursive bool) error {
	c.cache.Clear()
	return c.Adapter.Delete(ctx, p, recursive)
}

func (c *Cached) Rename(ctx context.Context, src, dst string) (bool, error) {
	c.Invalidate(src)
	c.Invalidate(dst)
	return c.Adapter.Rename(ctx, src, dst)
}

var _ Adapter = (*Cached)(nil)
