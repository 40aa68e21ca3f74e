// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about routing, cache operations, and upstream API calls.
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
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetRouteHooks(&myRouteHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Route().OnRouteStart(ctx, category, action)
//	// ... try providers ...
//	observability.Route().OnRouteComplete(ctx, category, action, source, cached, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Route Hooks
// =============================================================================

// RouteHooks receives events from the request router.
type RouteHooks interface {
	// Route lifecycle
	OnRouteStart(ctx context.Context, category, action string)
	OnRouteComplete(ctx context.Context, category, action, source string, cached bool, duration time.Duration, err error)

	// Per-provider attempts inside the fallback chain
	OnProviderAttempt(ctx context.Context, source, category, action string)
	OnProviderFailure(ctx context.Context, source, category, action string, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from the result cache.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, category string)

	// OnCacheMiss records a cache miss (absent or expired).
	OnCacheMiss(ctx context.Context, category string)

	// OnCacheSet records a cache write and the resulting store size.
	OnCacheSet(ctx context.Context, category string, size int)

	// OnCacheEvict records entries removed to stay within the size bound.
	OnCacheEvict(ctx context.Context, evicted int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopRouteHooks is a no-op implementation of RouteHooks.
type NoopRouteHooks struct{}

func (NoopRouteHooks) OnRouteStart(context.Context, string, string) {}
func (NoopRouteHooks) OnRouteComplete(context.Context, string, string, string, bool, time.Duration, error) {
}
func (NoopRouteHooks) OnProviderAttempt(context.Context, string, string, string) {}
func (NoopRouteHooks) OnProviderFailure(context.Context, string, string, string, time.Duration, error) {
}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}
func (NoopCacheHooks) OnCacheEvict(context.Context, int)       {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	routeHooks RouteHooks = NoopRouteHooks{}
	cacheHooks CacheHooks = NoopCacheHooks{}
	httpHooks  HTTPHooks  = NoopHTTPHooks{}
	hooksMu    sync.RWMutex
)

// SetRouteHooks registers custom route hooks.
// This should be called once at application startup before any routing.
func SetRouteHooks(h RouteHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		routeHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before any HTTP operations.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Route returns the registered route hooks.
func Route() RouteHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return routeHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	routeHooks = NoopRouteHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
