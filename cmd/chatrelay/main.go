// Package main is the entry point for the chatrelay gateway server.
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
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"chatrelay/config"
	"chatrelay/internal/adapter"
	"chatrelay/internal/cache"
	"chatrelay/internal/httpclient"
	"chatrelay/internal/observability"
	"chatrelay/internal/providers"
	"chatrelay/internal/server"
	"chatrelay/internal/usage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	versionFlag := flag.Bool("version", false, "Print version information")
	flag.Parse()

	if *versionFlag {
		fmt.Println("chatrelay " + Version)
		os.Exit(0)
	}

	// Optional .env; real environments set variables directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)
	slog.Info("starting chatrelay", "version", Version)

	store, err := newCache(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize model snapshot cache", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = store.Close()
	}()

	var usageLogger *usage.Logger
	if cfg.Usage.Enabled {
		db, err := usage.OpenSQLite(cfg.Usage.DBPath)
		if err != nil {
			slog.Error("failed to open usage database", "error", err)
			os.Exit(1)
		}
		sqliteStore, err := usage.NewSQLiteStore(db, cfg.Usage.RetentionDays)
		if err != nil {
			slog.Error("failed to initialize usage store", "error", err)
			os.Exit(1)
		}
		usageLogger = usage.NewLogger(sqliteStore, usage.Config{
			Enabled:       true,
			RetentionDays: cfg.Usage.RetentionDays,
		})
		defer func() {
			_ = usageLogger.Close()
		}()
		slog.Info("usage accounting enabled",
			"db_path", cfg.Usage.DBPath,
			"retention_days", cfg.Usage.RetentionDays,
		)
	}

	registry, err := buildRegistry(cfg, store, logger)
	if err != nil {
		slog.Error("failed to build provider registry", "error", err)
		os.Exit(1)
	}

	if cfg.Server.MasterKey == "" {
		slog.Warn("MASTER_KEY not set, server accepts unauthenticated requests")
	} else {
		slog.Info("authentication enabled", "mode", "master_key")
	}

	srv := server.New(registry, usageLogger, &server.Config{
		MasterKey:      cfg.Server.MasterKey,
		MetricsEnabled: cfg.Server.MetricsEnabled,
		BodySizeLimit:  cfg.Server.BodySizeLimit,
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		slog.Info("shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	addr := ":" + cfg.Server.Port
	slog.Info("starting server", "address", addr)

	if err := srv.Start(addr); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			slog.Info("server stopped gracefully")
		} else {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	level := parseLevel(cfg.Level)
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newCache(cfg config.CacheConfig) (cache.Cache, error) {
	if cfg.Backend == config.CacheBackendRedis {
		return cache.NewRedisCache(cache.RedisConfig{URL: cfg.RedisURL})
	}
	return cache.NewLocalCache(cfg.FilePath), nil
}

// buildRegistry assembles adapters from the built-in catalog plus any custom
// providers, then primes the model snapshot: cache first for instant startup,
// upstream refresh in the background.
func buildRegistry(cfg *config.Config, store cache.Cache, logger *slog.Logger) (*providers.Registry, error) {
	configs := providers.BuiltIn()
	if cfg.ProvidersFile != "" {
		custom, err := providers.LoadCustom(cfg.ProvidersFile)
		if err != nil {
			return nil, err
		}
		configs = append(configs, custom...)
	}

	configs = providers.Available(configs)
	if len(configs) == 0 {
		return nil, errors.New("no provider has a credential configured")
	}

	client := httpclient.NewDefault()
	hooks := adapter.Hooks{}
	if cfg.Server.MetricsEnabled {
		hooks = observability.NewPrometheusHooks()
	}

	registry := providers.NewRegistry(store, logger)
	for _, pc := range configs {
		pc.HTTPClient = client
		pc.Hooks = hooks
		pc.Logger = logger

		a, err := adapter.New(pc)
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", pc.Name, err)
		}
		registry.Register(a)
		slog.Info("provider registered", "provider", pc.Name, "models", len(a.Aliases()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if restored, err := registry.LoadFromCache(ctx); err != nil {
		slog.Warn("model snapshot cache unavailable", "error", err)
	} else if !restored {
		slog.Info("no cached model snapshot, serving static catalog until refresh")
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		if err := registry.Refresh(ctx); err != nil {
			slog.Warn("model snapshot refresh failed", "error", err)
		}
	}()

	return registry, nil
}
