// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers register hooks
// at startup to receive events about API calls, the stale-while-revalidate
// store and tracking beacons.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, not by libraries, which avoids import
// cycles. [LogHooks] is the implementation the CLI installs in verbose mode.
//
// # Usage
//
//	func main() {
//	    observability.SetHTTPHooks(observability.NewLogHooks(logger))
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.HTTP().OnRequest(ctx, "GET", host, "/pwa/stats")
//	observability.Cache().OnRevalidate(ctx, key, time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from the stale-while-revalidate store.
type CacheHooks interface {
	// OnCacheHit records a mount that found data for key.
	OnCacheHit(ctx context.Context, key string)

	// OnCacheMiss records a mount that found no data for key.
	OnCacheMiss(ctx context.Context, key string)

	// OnCacheSet records a write to the persistent backend.
	OnCacheSet(ctx context.Context, key string, size int)

	// OnRevalidate records a completed network revalidation.
	OnRevalidate(ctx context.Context, key string, duration time.Duration, err error)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from API client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// Beacon Hooks
// =============================================================================

// BeaconHooks receives events from tracking beacons.
type BeaconHooks interface {
	// OnBeaconSent records a delivered tracking event.
	OnBeaconSent(ctx context.Context, category string, duration time.Duration)

	// OnBeaconError records a tracking event that could not be delivered.
	OnBeaconError(ctx context.Context, category string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)                         {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)                        {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int)                    {}
func (NoopCacheHooks) OnRevalidate(context.Context, string, time.Duration, error) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// NoopBeaconHooks is a no-op implementation of BeaconHooks.
type NoopBeaconHooks struct{}

func (NoopBeaconHooks) OnBeaconSent(context.Context, string, time.Duration) {}
func (NoopBeaconHooks) OnBeaconError(context.Context, string, error)        {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	cacheHooks  CacheHooks  = NoopCacheHooks{}
	httpHooks   HTTPHooks   = NoopHTTPHooks{}
	beaconHooks BeaconHooks = NoopBeaconHooks{}
	hooksMu     sync.RWMutex
)

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

// SetBeaconHooks registers custom beacon hooks.
func SetBeaconHooks(h BeaconHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		beaconHooks = h
	}
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

// Beacon returns the registered beacon hooks.
func Beacon() BeaconHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return beaconHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
	beaconHooks = NoopBeaconHooks{}
}
