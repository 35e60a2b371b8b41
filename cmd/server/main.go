// Command server runs the review insights HTTP API.
//
// Startup order: load .env, parse and validate config, configure logging,
// open the cache store (degraded mode when unavailable), wire OpenTelemetry,
// then serve until SIGINT/SIGTERM triggers a graceful drain.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-review-insights/docs"
	"github.com/tbourn/go-review-insights/internal/analysis"
	"github.com/tbourn/go-review-insights/internal/cache"
	"github.com/tbourn/go-review-insights/internal/config"
	httpapi "github.com/tbourn/go-review-insights/internal/http"
	"github.com/tbourn/go-review-insights/internal/observability"
	"github.com/tbourn/go-review-insights/internal/repo"
	"github.com/tbourn/go-review-insights/internal/scraper"
)

const version = "1.0.0"

// @title        Review Insights API
// @version      1.0
// @description  App store review scraping and analysis service with cached results and progress tracking.
// @BasePath     /api/v1
func main() {
	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Cache store. A failed open degrades to an always-miss cache rather
	// than refusing to start; analysis still works without persistence.
	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.DBPath).Msg("cache store unavailable, running degraded")
		db = nil
	} else {
		if err := repo.AutoMigrate(db); err != nil {
			log.Warn().Err(err).Msg("cache migration failed, running degraded")
			db = nil
		}
	}

	// Tracing (no-op when disabled).
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown failed")
		}
	}()
	if db != nil && cfg.OTEL.Enabled {
		if err := repo.EnableTracing(db); err != nil {
			log.Warn().Err(err).Msg("db tracing setup failed")
		}
	}

	// Service wiring.
	store := cache.New(db, cache.Config{
		MaxSize:         cfg.Cache.MaxSize,
		TTL:             cfg.Cache.TTL,
		PersistProgress: cfg.Cache.PersistProgress,
	}, log.Logger)

	client := scraper.New(scraper.Config{
		BaseURL:    cfg.Scraper.BaseURL,
		BatchSize:  cfg.Scraper.BatchSize,
		MaxRetries: cfg.Scraper.MaxRetries,
		Backoff:    cfg.Scraper.Backoff,
		Timeout:    cfg.Scraper.Timeout,
		RPS:        cfg.Scraper.RPS,
		Burst:      cfg.Scraper.Burst,
	}, log.Logger)

	svc := analysis.NewService(store, analysis.Config{
		Version:   cfg.Analysis.Version,
		BatchSize: cfg.Analysis.BatchSize,
		MaxTopics: cfg.Analysis.MaxTopics,
	}, log.Logger)

	docs.SwaggerInfo.BasePath = cfg.APIBasePath
	docs.SwaggerInfo.Version = version

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{
		Analysis:   svc,
		Source:     client,
		Cache:      store,
		CacheReady: store.Ready,
	}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("base_path", cfg.APIBasePath).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server stopped")
}

// setupLogging configures the global zerolog logger from config.
func setupLogging(cfg config.Config) {
	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Logger = log.With().Str("service", "review-insights").Logger()
}
