package manifest

import (
	"fmt"
	"os"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/pkgtree/pkgtree/core/logger"
)

// cacheEntry pairs a parsed manifest with the file identity it was read
// from. Size and mtime are rechecked on every hit, so an entry can never
// outlive an on-disk edit.
type cacheEntry struct {
	manifest *Manifest
	size     int64
	modTime  time.Time
}

// Cache is a read-through parse cache for manifests. A workspace is read
// manifest-by-manifest on every load; the cache turns the common reload
// (nothing changed) into a stat per file instead of a read and a parse.
type Cache struct {
	entries *lru.Cache[string, cacheEntry]

	mu     sync.Mutex
	hits   int64
	misses int64
}

// NewCache creates a manifest cache bounded to maxEntries paths.
func NewCache(maxEntries int) (*Cache, error) {
	entries, err := lru.New[string, cacheEntry](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to create manifest cache: %w", err)
	}
	return &Cache{entries: entries}, nil
}

var (
	shared     *Cache
	sharedOnce sync.Once
)

// Shared returns the process-wide manifest cache. Workspaces top out in the
// hundreds of packages, so 1024 entries covers several roots at once.
func Shared() *Cache {
	sharedOnce.Do(func() {
		c, err := NewCache(1024)
		if err != nil {
			// lru.New only fails on a non-positive size.
			panic(err)
		}
		shared = c
	})
	return shared
}

// Read returns the parsed manifest at path, from cache when the file is
// byte-for-byte the one previously parsed (same size and mtime), from disk
// otherwise. Read and parse failures propagate; a failed path is dropped
// from the cache.
func (c *Cache) Read(path string) (*Manifest, error) {
	stat, err := os.Stat(path)
	if err != nil {
		c.entries.Remove(path)
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if entry, ok := c.entries.Get(path); ok {
		if entry.size == stat.Size() && entry.modTime.Equal(stat.ModTime()) {
			c.count(true)
			return entry.manifest, nil
		}
		logger.Debug("Manifest changed on disk, reparsing: %s", path)
	}

	c.count(false)
	m, err := Read(path)
	if err != nil {
		c.entries.Remove(path)
		return nil, err
	}

	c.entries.Add(path, cacheEntry{
		manifest: m,
		size:     stat.Size(),
		modTime:  stat.ModTime(),
	})
	return m, nil
}

// Invalidate drops one path from the cache.
func (c *Cache) Invalidate(path string) {
	c.entries.Remove(path)
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.entries.Purge()
}

// Len returns the number of cached manifests.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Stats returns hit/miss counters since process start.
func (c *Cache) Stats() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func (c *Cache) count(hit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if hit {
		c.hits++
	} else {
		c.misses++
	}
}
