package cli

import (
	"context"
	"fmt"

	"wealthwise/internal/amqp"
	"wealthwise/internal/backend"
	"wealthwise/internal/cache"
	"wealthwise/internal/config"
	"wealthwise/internal/insight"
	"wealthwise/internal/insight/gemini"
	"wealthwise/internal/ledger"
	"wealthwise/internal/log"
	"wealthwise/internal/services"
	"wealthwise/internal/storage"
)

const insightCacheSize = 64

// Runtime is an opened ledger: the tracker over the configured backend and
// the resources to release when done.
type Runtime struct {
	Tracker *services.Tracker
	Store   *storage.Adapter
	Events  *amqp.Client

	closers []func() error
	logger  *log.Logger
}

// OpenRuntime opens the configured backend and builds a tracker on it. When
// publish is set and AMQP is configured, mutations are announced on the
// exchange. The tracker holds the ledger in memory and persists whole
// collections, so only one process may write a backend at a time.
func OpenRuntime(ctx context.Context, cfg *config.Config, logger *log.Logger, publish bool) (*Runtime, error) {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	opened, err := backend.NewFactory(logger).Open(ctx, backendCfg)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{Store: opened.Store, logger: logger}
	rt.closers = append(rt.closers, opened.Cleanup)

	var publisher services.Publisher
	if publish && cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			_ = rt.Close()
			return nil, fmt.Errorf("connect to AMQP: %w", err)
		}
		rt.Events = client
		rt.closers = append(rt.closers, client.Close)
		publisher = client
	}

	store := ledger.New(ctx, opened.Store, ledger.WithLogger(logger))
	rt.Tracker = services.NewTracker(ctx, store, opened.Store, publisher, logger)
	return rt, nil
}

// Close releases resources in reverse order of acquisition.
func (rt *Runtime) Close() error {
	var first error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if rt.closers[i] == nil {
			continue
		}
		if err := rt.closers[i](); err != nil {
			rt.logger.Warn("Failed to release resource", log.FieldError, err.Error())
			if first == nil {
				first = err
			}
		}
	}
	rt.closers = nil
	return first
}

// NewAdvisor builds the insight advisor: Gemini when a key is configured,
// the canned fallback otherwise. The returned cache is nil when caching is
// disabled.
func NewAdvisor(ctx context.Context, cfg *config.Config, logger *log.Logger) (*insight.Advisor, *cache.LRUCache[string], func() error) {
	var (
		svc     insight.Service = insight.Unavailable{}
		closeFn                 = func() error { return nil }
	)
	if cfg.InsightsEnabled() {
		client, err := gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Warn("Insight generator unavailable, using fallback text", log.FieldError, err.Error())
		} else {
			svc = client
			closeFn = client.Close
		}
	}

	opts := []insight.Option{insight.WithTimeout(cfg.InsightTimeout), insight.WithLogger(logger)}
	var lru *cache.LRUCache[string]
	if cfg.InsightCacheTTL > 0 {
		lru = cache.NewLRUCache[string](insightCacheSize, cfg.InsightCacheTTL)
		opts = append(opts, insight.WithCache(lru))
	}
	return insight.NewAdvisor(svc, opts...), lru, closeFn
}
