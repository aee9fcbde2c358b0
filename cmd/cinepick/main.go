package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/marco/cinepick/internal/battle"
	"github.com/marco/cinepick/internal/catalog"
	"github.com/marco/cinepick/internal/catalog/cache"
	"github.com/marco/cinepick/internal/config"
	"github.com/marco/cinepick/internal/export"
	"github.com/marco/cinepick/internal/library"
	"github.com/marco/cinepick/internal/logging"
	"github.com/marco/cinepick/internal/movies"
	"github.com/marco/cinepick/internal/server"
)

var (
	configPath = flag.String("config", "./config/config.yaml", "Path to configuration file")
	verbose    = flag.Bool("verbose", false, "Show detailed logging")
	listen     = flag.String("listen", "", "Override the server listen address")
	battleIDs  = flag.String("battle", "", "Compare two movies by TMDB id (\"ID1,ID2\") and exit")
	exportFlag = flag.Bool("export", false, "With -battle, also write the battle report")
)

// app holds the wired components.
type app struct {
	cfg     *config.Config
	log     *logging.Logger
	store   *library.Store
	cache   *cache.SQLiteCache
	direct  *catalog.Client
	gateway *catalog.Gateway
	api     *catalog.API
	runner  *battle.Runner
	movies  *movies.Service
	reports *export.Writer
}

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *listen != "" {
		cfg.Server.Listen = *listen
	}

	a, err := newApp(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer a.close()

	slog.Debug("configuration loaded", "path", *configPath, "db_path", cfg.Storage.DBPath, "proxy", a.gateway.ProxyState())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *battleIDs != "" {
		if err := a.runBattle(ctx, *battleIDs, *exportFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			a.close()
			os.Exit(1)
		}
		return
	}

	if err := a.serve(ctx); err != nil {
		slog.Error("server failed", "error", err)
		a.close()
		os.Exit(1)
	}
}

func newApp(cfg *config.Config) (*app, error) {
	logger, err := logging.New(logging.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	slog.SetDefault(logger.Logger)

	store, err := library.Open(cfg.Storage.DBPath)
	if err != nil {
		logger.Close()
		return nil, err
	}

	// The catalog cache lives in the same database file.
	catalogCache, err := cache.NewSQLiteCacheFromDB(store.DB())
	if err != nil {
		store.Close()
		logger.Close()
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}

	direct := catalog.NewClientWithConfig(catalog.ClientConfig{
		APIKey:             cfg.TMDB.APIKey,
		Language:           cfg.TMDB.Language,
		BaseURL:            cfg.TMDB.BaseURL,
		RateLimitPerSecond: cfg.Options.RateLimitPerSecond,
		MaxAttempts:        cfg.Options.MaxAttempts,
		InitialBackoffMs:   cfg.Options.InitialBackoffMs,
		RequestTimeout:     cfg.Options.RequestTimeout(),
		Cache:              catalogCache,
		CacheTTL:           cfg.Storage.CacheTTL(),
		RetryLogFunc: func(attempt, maxAttempts int, backoff time.Duration, err error) {
			slog.Warn("retrying catalog request",
				"attempt", attempt,
				"max_attempts", maxAttempts,
				"backoff_ms", backoff.Milliseconds(),
				"error", err,
			)
		},
		CacheLogFunc: func(operation, key string, hit bool) {
			slog.Debug("catalog cache", "operation", operation, "key", key, "hit", hit)
		},
	})

	var primary catalog.Caller
	if cfg.Proxy.UseProxy() {
		primary = catalog.NewProxyClient(cfg.Proxy.URL, cfg.Options.RequestTimeout())
	}
	gateway := catalog.NewGateway(primary, direct, catalog.BreakerConfig{
		FailureThreshold: cfg.Proxy.FailureThreshold,
		OpenTimeout:      cfg.Proxy.OpenTimeout(),
		OnStateChange: func(from, to string) {
			slog.Warn("catalog proxy breaker changed state", "from", from, "to", to)
		},
	}, func(action catalog.Action, reason error) {
		slog.Info("catalog proxy unavailable, calling TMDB directly", "action", action, "reason", reason)
	})

	api := catalog.NewAPI(gateway)

	return &app{
		cfg:     cfg,
		log:     logger,
		store:   store,
		cache:   catalogCache,
		direct:  direct,
		gateway: gateway,
		api:     api,
		runner:  battle.NewRunner(api, battle.NewFetcher(api, battle.DefaultCastLimit, logger.Logger), cfg.Server.ShareBaseURL),
		movies:  movies.NewService(api, cfg.Options.DiscoverWorkers, logger.Logger),
		reports: export.NewWriter(cfg.Export.Dir),
	}, nil
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			slog.Warn("failed to close library database", "error", err)
		}
		a.store = nil
	}
	if a.log != nil {
		a.log.Close()
		a.log = nil
	}
}

// runBattle compares two movies and prints the outcome.
func (a *app) runBattle(ctx context.Context, ids string, writeReport bool) error {
	idA, idB, err := parseBattleIDs(ids)
	if err != nil {
		return err
	}

	res, err := a.runner.Run(ctx, idA, idB)
	if err != nil {
		return err
	}

	m := res.Metrics
	fmt.Printf("%s vs %s\n\n", res.MovieA.Title, res.MovieB.Title)
	fmt.Printf("  Rating:      %+.2f  (normalized %+.3f)\n", m.RatingScore, m.Normalized.Rating)
	fmt.Printf("  Popularity:  %+.2f  (normalized %+.3f)\n", m.PopularityScore, m.Normalized.Popularity)
	fmt.Printf("  Votes:       %+d  (normalized %+.3f)\n", m.VoteCountScore, m.Normalized.Votes)
	fmt.Printf("  Revenue:     %+d  (normalized %+.3f)\n", m.RevenueScore, m.Normalized.Revenue)
	fmt.Printf("  Budget:      %+d  (normalized %+.3f)\n", m.BudgetScore, m.Normalized.Budget)
	fmt.Printf("  Cast size:   %+d  (normalized %+.3f)\n", m.CastSizeScore, m.Normalized.Cast)
	fmt.Printf("  Runtime:     %+d min\n\n", m.RuntimeScore)
	if res.Tie {
		fmt.Printf("Tie! %s wins the tiebreak (total score %.2f)\n", res.Winner.Title, m.TotalScore)
	} else {
		fmt.Printf("Winner: %s (total score %+.2f)\n", res.Winner.Title, m.TotalScore)
	}
	fmt.Printf("Share: %s\n", res.ShareURL)

	if writeReport {
		path, err := a.reports.Write(res)
		if err != nil {
			return err
		}
		fmt.Printf("Report written to %s\n", path)
	}
	return nil
}

func parseBattleIDs(s string) (int, int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("-battle expects two ids separated by a comma, got %q", s)
	}
	idA, errA := strconv.Atoi(strings.TrimSpace(parts[0]))
	idB, errB := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errA != nil || errB != nil {
		return 0, 0, fmt.Errorf("-battle ids must be numbers, got %q", s)
	}
	return idA, idB, nil
}

// serve runs the HTTP server, the config watcher and the scheduler until ctx
// is cancelled.
func (a *app) serve(ctx context.Context) error {
	srv := server.New(server.Deps{
		Movies:    a.movies,
		Battles:   a.runner,
		Reports:   a.reports,
		Favorites: a.store.Favorites(),
		Watchlist: a.store.Watchlist(),
		History:   a.store.SearchHistory(),
		Shown:     a.store.ShownMovies(),
		Catalog:   a.direct,
		Logger:    a.log.Logger,
	})

	httpServer := &http.Server{
		Addr:              a.cfg.Server.Listen,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	watcher, err := config.NewWatcher(*configPath, 500*time.Millisecond, func(cfg *config.Config) {
		level := cfg.Log.Level
		if *verbose {
			level = "debug"
		}
		if err := a.log.SetLevel(level); err != nil {
			slog.Warn("ignoring invalid log level from reloaded config", "level", level, "error", err)
			return
		}
		slog.Info("log level applied", "level", level)
	})
	if err != nil {
		slog.Warn("config watching disabled", "error", err)
	} else if err := watcher.Start(); err != nil {
		slog.Warn("config watching disabled", "error", err)
	} else {
		defer watcher.Stop()
	}

	bgCtx, cancelBackground := context.WithCancel(ctx)
	background := startBackground(bgCtx, a.cfg.Scheduler, a.api, a.cache)
	defer func() {
		cancelBackground()
		background.Wait()
	}()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", httpServer.Addr, "proxy", a.gateway.ProxyState())
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
