package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/p-n-ai/pai-academy/internal/activity"
	"github.com/p-n-ai/pai-academy/internal/curriculum"
	"github.com/p-n-ai/pai-academy/internal/notify"
	"github.com/p-n-ai/pai-academy/internal/platform/cache"
	"github.com/p-n-ai/pai-academy/internal/platform/config"
	"github.com/p-n-ai/pai-academy/internal/platform/database"
	"github.com/p-n-ai/pai-academy/internal/progress"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg.Log))

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	loader, err := curriculum.NewLoader(cfg.CurriculumPath)
	if err != nil {
		slog.Error("failed to load curriculum", "path", cfg.CurriculumPath, "error", err)
		os.Exit(1)
	}
	slog.Info("curriculum loaded", "path", cfg.CurriculumPath, "disciplines", len(loader.Disciplines()))

	checks := map[string]func(context.Context) error{}

	var store activity.Store
	var events progress.EventLogger = progress.NopEventLogger{}
	switch cfg.Store {
	case config.StorePostgres:
		opts := database.Options{
			URL:      cfg.Database.URL,
			MaxConns: cfg.Database.MaxConns,
			MinConns: cfg.Database.MinConns,
		}
		if cfg.Database.MigrateOnStart {
			opts.Migrate = activity.Migrate
		}
		db, err := database.Open(ctx, opts)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		pg, err := activity.NewPostgresStore(db.Pool)
		if err != nil {
			slog.Error("failed to create progress store", "error", err)
			os.Exit(1)
		}
		store = pg
		events = progress.NewPostgresEventLogger(db.Pool)
		checks["database"] = db.HealthCheck
	default:
		slog.Warn("using in-memory progress store; data is lost on restart")
		store = activity.NewMemoryStore()
	}

	var c *cache.Cache
	if cfg.Cache.Enabled() {
		c, err = cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			slog.Warn("cache unavailable, continuing without it", "error", err)
			c = nil
		} else {
			defer c.Close()
			checks["cache"] = c.HealthCheck
		}
	}

	hub := notify.NewHub()
	svc := progress.NewService(progress.ServiceConfig{
		Content:     loader,
		Store:       store,
		Events:      events,
		Notifier:    hub,
		Leaderboard: cache.NewLeaderboardCache(c, cfg.Cache.LeaderboardTTL),
		Summaries:   cache.NewSummaryCache(c, cfg.Cache.SummaryTTL),
	})

	go reloadOnHangup(ctx, loader)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      newMux(&server{svc: svc, hub: hub, checks: checks}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "store", cfg.Store, "cache", c != nil)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

// reloadOnHangup re-reads the curriculum on SIGHUP. A failed reload keeps
// the content already loaded.
func reloadOnHangup(ctx context.Context, loader *curriculum.Loader) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := loader.Reload(); err != nil {
				slog.Error("curriculum reload failed", "error", err)
				continue
			}
			slog.Info("curriculum reloaded", "disciplines", len(loader.Disciplines()))
		}
	}
}
