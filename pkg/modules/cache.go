package modules

import (
	"context"
	"sync"
	"time"

	"github.com/knightfall-dh/bannerman/pkg/observability"
)

// cacheEntry wraps a parsed descriptor with the file identity it was read from.
type cacheEntry struct {
	desc    *ModuleDescriptor
	modTime time.Time
	size    int64
}

// descriptorCache caches parsed descriptors keyed by file path. An entry is
// only served while the file's modification time and size are unchanged; a
// changed or deleted file invalidates it. Safe for concurrent use by the
// parallel scan workers.
type descriptorCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

func newDescriptorCache() *descriptorCache {
	return &descriptorCache{entries: make(map[string]cacheEntry)}
}

// get returns the cached descriptor for path if the file identity still
// matches. A stale entry is dropped and reported as a miss.
func (c *descriptorCache) get(ctx context.Context, path string, modTime time.Time, size int64) (*ModuleDescriptor, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[path]
	if !ok {
		observability.Cache().OnCacheMiss(ctx, path)
		return nil, false
	}
	if !e.modTime.Equal(modTime) || e.size != size {
		delete(c.entries, path)
		observability.Cache().OnCacheInvalidate(ctx, path)
		return nil, false
	}

	observability.Cache().OnCacheHit(ctx, path)
	return e.desc, true
}

func (c *descriptorCache) set(path string, modTime time.Time, size int64, desc *ModuleDescriptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[path] = cacheEntry{desc: desc, modTime: modTime, size: size}
}

func (c *descriptorCache) invalidate(ctx context.Context, path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[path]; ok {
		delete(c.entries, path)
		observability.Cache().OnCacheInvalidate(ctx, path)
	}
}

func (c *descriptorCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
