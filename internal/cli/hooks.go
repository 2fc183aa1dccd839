package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// logHooks reports observability events as debug log lines.
type logHooks struct {
	logger *log.Logger
}

func (h *logHooks) OnResolveStart(ctx context.Context, runID string, seeds int) {
	h.logger.Debug("resolve started", "run", runID, "seeds", seeds)
}

func (h *logHooks) OnResolveComplete(ctx context.Context, runID string, references int, d time.Duration, err error) {
	h.logger.Debug("resolve finished", "run", runID, "packages", references, "took", d, "err", err)
}

func (h *logHooks) OnPatternResolved(ctx context.Context, pattern string, fresh bool, d time.Duration) {
	h.logger.Debug("resolved", "pattern", pattern, "fresh", fresh, "took", d)
}

func (h *logHooks) OnHoistComplete(ctx context.Context, entries int, d time.Duration, err error) {
	h.logger.Debug("hoist finished", "entries", entries, "took", d, "err", err)
}

func (h *logHooks) OnCacheHit(ctx context.Context, kind string) {
	h.logger.Debug("cache hit", "kind", kind)
}

func (h *logHooks) OnCacheMiss(ctx context.Context, kind string) {
	h.logger.Debug("cache miss", "kind", kind)
}

func (h *logHooks) OnCacheSet(ctx context.Context, kind string, size int) {
	h.logger.Debug("cache set", "kind", kind, "bytes", size)
}

func (h *logHooks) OnRequest(ctx context.Context, method, host, path string) {
	h.logger.Debug("http request", "method", method, "host", host, "path", path)
}

func (h *logHooks) OnResponse(ctx context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("http response", "method", method, "host", host, "path", path, "status", status, "took", d)
}

func (h *logHooks) OnError(ctx context.Context, method, host, path string, err error) {
	h.logger.Debug("http error", "method", method, "host", host, "path", path, "err", err)
}
