package main

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/marco/cinepick/internal/catalog"
	"github.com/marco/cinepick/internal/catalog/cache"
	"github.com/marco/cinepick/internal/config"
)

// Global state for overlap prevention
var warmInProgress atomic.Bool

// startBackground launches the warm-up work configured by cfg. The returned
// group finishes once ctx is cancelled and any running warm-up returns.
func startBackground(ctx context.Context, cfg config.SchedulerConfig, api *catalog.API, c cache.Cache) *conc.WaitGroup {
	var wg conc.WaitGroup
	if interval := cfg.WarmInterval(); interval > 0 {
		wg.Go(func() { startScheduler(ctx, interval, cfg.WarmOnStartup, api, c) })
	} else if cfg.WarmOnStartup {
		wg.Go(func() { runWarmup(ctx, api, c) })
	}
	return &wg
}

// startScheduler periodically warms the catalog cache and purges expired
// entries, optionally running once immediately.
func startScheduler(ctx context.Context, interval time.Duration, onStartup bool, api *catalog.API, c cache.Cache) {
	slog.Info("cache warm-up scheduler started",
		"interval_minutes", interval.Minutes(),
		"run_on_startup", onStartup,
	)

	if onStartup {
		slog.Info("running initial cache warm-up on startup")
		runWarmup(ctx, api, c)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			runWarmup(ctx, api, c)

		case <-ctx.Done():
			slog.Info("cache warm-up scheduler stopped")
			return
		}
	}
}

// runWarmup performs a single warm-up with overlap prevention.
func runWarmup(ctx context.Context, api *catalog.API, c cache.Cache) {
	if !warmInProgress.CompareAndSwap(false, true) {
		slog.Warn("cache warm-up skipped: previous run still in progress",
			"suggestion", "consider increasing warm_interval_minutes")
		return
	}
	defer warmInProgress.Store(false)

	startTime := time.Now()

	if c != nil {
		purged, err := c.PurgeExpired()
		if err != nil {
			slog.Error("failed to purge expired cache entries", "error", err)
		} else if purged > 0 {
			slog.Info("purged expired cache entries", "count", purged)
		}
	}

	warmed, failed := 0, 0
	if _, err := api.Genres(ctx); err != nil {
		slog.Warn("cache warm-up failed", "action", catalog.ActionGenres, "error", err)
		failed++
	} else {
		warmed++
	}

	for _, category := range catalog.Categories {
		if ctx.Err() != nil {
			return
		}
		if _, err := api.List(ctx, category, 1); err != nil {
			slog.Warn("cache warm-up failed", "action", category, "error", err)
			failed++
			continue
		}
		warmed++
	}

	slog.Info("cache warm-up completed",
		"warmed", warmed,
		"failed", failed,
		"duration_sec", time.Since(startTime).Seconds(),
	)
}
