// Package observability lets an application observe resolution, hoisting,
// registry caching and registry HTTP traffic.
//
// Libraries call the registered hooks; applications register implementations
// once at startup. Nothing is registered by default, so every call goes to
// a no-op.
//
//	observability.Register(observability.Hooks{
//	    Resolve: myMetrics,
//	    HTTP:    myTracer,
//	})
//
//	// in library code
//	observability.Resolve().OnResolveStart(ctx, runID, len(seeds))
package observability

import (
	"context"
	"sync"
	"time"
)

// ResolveHooks receives events from dependency resolution and hoisting.
type ResolveHooks interface {
	OnResolveStart(ctx context.Context, runID string, seeds int)
	OnResolveComplete(ctx context.Context, runID string, references int, duration time.Duration, err error)

	// OnPatternResolved fires once per pattern that reached a manifest.
	// fresh is false when the manifest came from the lockfile.
	OnPatternResolved(ctx context.Context, pattern string, fresh bool, duration time.Duration)

	OnHoistComplete(ctx context.Context, entries int, duration time.Duration, err error)
}

// CacheHooks receives registry cache events. kind names the cached value,
// e.g. "http" for raw responses or "resolution" for resolved manifests.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, kind string)
	OnCacheMiss(ctx context.Context, kind string)
	OnCacheSet(ctx context.Context, kind string, size int)
}

// HTTPHooks receives registry HTTP client events.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, host, path string)
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError fires for transport failures; HTTP error statuses go to
	// OnResponse.
	OnError(ctx context.Context, method, host, path string, err error)
}

// NoopResolveHooks ignores all events. Embed it to implement a subset.
type NoopResolveHooks struct{}

func (NoopResolveHooks) OnResolveStart(context.Context, string, int)                          {}
func (NoopResolveHooks) OnResolveComplete(context.Context, string, int, time.Duration, error) {}
func (NoopResolveHooks) OnPatternResolved(context.Context, string, bool, time.Duration)       {}
func (NoopResolveHooks) OnHoistComplete(context.Context, int, time.Duration, error)           {}

// NoopCacheHooks ignores all events.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks ignores all events.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// Hooks groups one implementation per event family. Nil fields are left
// unchanged by [Register].
type Hooks struct {
	Resolve ResolveHooks
	Cache   CacheHooks
	HTTP    HTTPHooks
}

var (
	mu      sync.RWMutex
	current = defaults()
)

func defaults() Hooks {
	return Hooks{Resolve: NoopResolveHooks{}, Cache: NoopCacheHooks{}, HTTP: NoopHTTPHooks{}}
}

// Register installs the non-nil hooks in h.
func Register(h Hooks) {
	mu.Lock()
	defer mu.Unlock()
	if h.Resolve != nil {
		current.Resolve = h.Resolve
	}
	if h.Cache != nil {
		current.Cache = h.Cache
	}
	if h.HTTP != nil {
		current.HTTP = h.HTTP
	}
}

// SetResolveHooks installs h; nil is ignored.
func SetResolveHooks(h ResolveHooks) { Register(Hooks{Resolve: h}) }

// SetCacheHooks installs h; nil is ignored.
func SetCacheHooks(h CacheHooks) { Register(Hooks{Cache: h}) }

// SetHTTPHooks installs h; nil is ignored.
func SetHTTPHooks(h HTTPHooks) { Register(Hooks{HTTP: h}) }

func snapshot() Hooks {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Resolve returns the registered resolution hooks.
func Resolve() ResolveHooks { return snapshot().Resolve }

// Cache returns the registered cache hooks.
func Cache() CacheHooks { return snapshot().Cache }

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks { return snapshot().HTTP }

// Reset restores the no-op hooks.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	current = defaults()
}
