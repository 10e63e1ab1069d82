package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks implements every hook interface by writing debug lines to a
// charmbracelet logger. Failures are logged at warn level.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks creates hooks writing to logger. A nil logger uses log.Default().
func NewLogHooks(logger *log.Logger) *LogHooks {
	if logger == nil {
		logger = log.Default()
	}
	return &LogHooks{logger: logger.WithPrefix("obs")}
}

// Install registers h for all hook categories.
func (h *LogHooks) Install() {
	SetCacheHooks(h)
	SetHTTPHooks(h)
	SetBeaconHooks(h)
}

func (h *LogHooks) OnCacheHit(_ context.Context, key string) {
	h.logger.Debug("cache hit", "key", key)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, key string) {
	h.logger.Debug("cache miss", "key", key)
}

func (h *LogHooks) OnCacheSet(_ context.Context, key string, size int) {
	h.logger.Debug("cache set", "key", key, "bytes", size)
}

func (h *LogHooks) OnRevalidate(_ context.Context, key string, d time.Duration, err error) {
	if err != nil {
		h.logger.Warn("revalidation failed", "key", key, "duration", d.Round(time.Millisecond), "err", err)
		return
	}
	h.logger.Debug("revalidated", "key", key, "duration", d.Round(time.Millisecond))
}

func (h *LogHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("request", "method", method, "host", host, "path", path)
}

func (h *LogHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("response", "method", method, "path", path, "status", status, "duration", d.Round(time.Millisecond))
}

func (h *LogHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Warn("request failed", "method", method, "host", host, "path", path, "err", err)
}

func (h *LogHooks) OnBeaconSent(_ context.Context, category string, d time.Duration) {
	h.logger.Debug("beacon sent", "category", category, "duration", d.Round(time.Millisecond))
}

func (h *LogHooks) OnBeaconError(_ context.Context, category string, err error) {
	h.logger.Warn("beacon failed", "category", category, "err", err)
}

var (
	_ CacheHooks  = (*LogHooks)(nil)
	_ HTTPHooks   = (*LogHooks)(nil)
	_ BeaconHooks = (*LogHooks)(nil)
)
