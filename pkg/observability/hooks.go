// Package observability provides hooks for metrics and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about descriptor scans, order resolution, configuration
// sync passes and descriptor-cache operations.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends to be attached later
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetResolveHooks(&myResolveHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Resolve().OnScanStart(ctx, roots)
//	// ... scan descriptors ...
//	observability.Resolve().OnScanComplete(ctx, candidates, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Resolve Hooks
// =============================================================================

// ResolveHooks receives events from descriptor scanning and order resolution.
type ResolveHooks interface {
	// Scan events
	OnScanStart(ctx context.Context, roots int)
	OnScanComplete(ctx context.Context, candidates int, duration time.Duration, err error)

	// Sort events
	OnSortStart(ctx context.Context, moduleCount int)
	OnSortComplete(ctx context.Context, ordered int, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from descriptor-cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, path string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, path string)

	// OnCacheInvalidate records an entry dropped due to file change or removal.
	OnCacheInvalidate(ctx context.Context, path string)
}

// =============================================================================
// Sync Hooks
// =============================================================================

// SyncHooks receives events from config synchronization passes.
type SyncHooks interface {
	// OnCopy records a single file copy with its direction ("to-live" or "to-profile").
	OnCopy(ctx context.Context, direction, path string)

	// OnSyncComplete records a completed sync pass.
	OnSyncComplete(ctx context.Context, direction string, copied int, duration time.Duration, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopResolveHooks is a no-op implementation of ResolveHooks.
type NoopResolveHooks struct{}

func (NoopResolveHooks) OnScanStart(context.Context, int)                            {}
func (NoopResolveHooks) OnScanComplete(context.Context, int, time.Duration, error)   {}
func (NoopResolveHooks) OnSortStart(context.Context, int)                            {}
func (NoopResolveHooks) OnSortComplete(context.Context, int, time.Duration, error)   {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)        {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)       {}
func (NoopCacheHooks) OnCacheInvalidate(context.Context, string) {}

// NoopSyncHooks is a no-op implementation of SyncHooks.
type NoopSyncHooks struct{}

func (NoopSyncHooks) OnCopy(context.Context, string, string)                            {}
func (NoopSyncHooks) OnSyncComplete(context.Context, string, int, time.Duration, error) {}

// =============================================================================
// Global Registration
// =============================================================================

var (
	mu           sync.RWMutex
	resolveHooks ResolveHooks = NoopResolveHooks{}
	cacheHooks   CacheHooks   = NoopCacheHooks{}
	syncHooks    SyncHooks    = NoopSyncHooks{}
)

// SetResolveHooks registers resolve hooks. Pass nil to restore the no-op default.
func SetResolveHooks(h ResolveHooks) {
	mu.Lock()
	defer mu.Unlock()
	if h == nil {
		h = NoopResolveHooks{}
	}
	resolveHooks = h
}

// SetCacheHooks registers cache hooks. Pass nil to restore the no-op default.
func SetCacheHooks(h CacheHooks) {
	mu.Lock()
	defer mu.Unlock()
	if h == nil {
		h = NoopCacheHooks{}
	}
	cacheHooks = h
}

// SetSyncHooks registers sync hooks. Pass nil to restore the no-op default.
func SetSyncHooks(h SyncHooks) {
	mu.Lock()
	defer mu.Unlock()
	if h == nil {
		h = NoopSyncHooks{}
	}
	syncHooks = h
}

// Resolve returns the registered resolve hooks.
func Resolve() ResolveHooks {
	mu.RLock()
	defer mu.RUnlock()
	return resolveHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	mu.RLock()
	defer mu.RUnlock()
	return cacheHooks
}

// Sync returns the registered sync hooks.
func Sync() SyncHooks {
	mu.RLock()
	defer mu.RUnlock()
	return syncHooks
}
