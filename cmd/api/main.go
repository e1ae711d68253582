package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/user/domain-crawler/internal/adapter/chromedp_crawler"
	"github.com/user/domain-crawler/internal/adapter/extractor"
	"github.com/user/domain-crawler/internal/adapter/httpfetch"
	"github.com/user/domain-crawler/internal/adapter/memory"
	"github.com/user/domain-crawler/internal/adapter/postgres"
	redis_adapter "github.com/user/domain-crawler/internal/adapter/redis"
	"github.com/user/domain-crawler/internal/delivery/http/handler"
	"github.com/user/domain-crawler/internal/delivery/http/router"
	"github.com/user/domain-crawler/internal/repository"
	"github.com/user/domain-crawler/internal/usecase"
	"github.com/user/domain-crawler/pkg/config"
	"github.com/user/domain-crawler/pkg/logger"
	"github.com/user/domain-crawler/pkg/metrics"
	"github.com/user/domain-crawler/pkg/proxy"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}

	// --- Logger ---
	logLevel := logger.ParseLevel(cfg.LogLevel)
	logger.Init(os.Stdout, logLevel)
	slog.Info("Logger initialized", "level", logLevel.String())

	// --- Metrics ---
	metrics.Init()
	slog.Info("Metrics initialized")

	ctx := context.Background()

	// --- Result Store ---
	resultRepo, closeStore, err := newResultRepo(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	// --- Page Fetcher ---
	ex := extractor.Extractor{ResolveRelative: cfg.ResolveRelativeLinks}
	proxies := proxy.NewManager(cfg.ProxyList(), cfg.UserAgentList())

	var fetcher repository.PageFetcher
	switch cfg.Fetcher {
	case "browser":
		browser := chromedp_crawler.NewChromedpCrawler(cfg.FetchTimeout(), proxies.UserAgent(), ex)
		defer browser.Close()
		fetcher = browser
	case "http", "":
		fetcher = httpfetch.NewFetcher(cfg.FetchTimeout(), proxies, ex)
	default:
		return fmt.Errorf("unknown FETCHER %q", cfg.Fetcher)
	}
	slog.Info("Page fetcher configured", "fetcher", cfg.Fetcher, "timeout", cfg.FetchTimeout())

	// --- Use Cases ---
	throttler := usecase.NewThrottler(cfg.MaxConcurrency)
	crawler := usecase.NewCrawlerUseCase(fetcher, resultRepo, throttler, cfg.SeedScheme)
	results := usecase.NewResultQuery(resultRepo)

	// --- HTTP Server ---
	apiHandler := handler.NewHandler(crawler, results)
	httpRouter := router.New(apiHandler)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      httpRouter,
		ReadTimeout:  cfg.ReadTimeout(),
		WriteTimeout: cfg.WriteTimeout(),
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "addr", cfg.Addr(), "concurrency", throttler.Limit())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("could not listen on %s: %w", cfg.Addr(), err)
		}
		return nil
	case <-quit:
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	slog.Info("Server exiting")
	return nil
}

func newResultRepo(ctx context.Context, cfg *config.Config) (repository.ResultRepository, func(), error) {
	switch cfg.ResultStore {
	case "memory", "":
		slog.Info("Using in-memory result store")
		return memory.NewResultRepo(), func() {}, nil

	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("unable to connect to Redis: %w", err)
		}
		slog.Info("Redis connection established", "addr", cfg.RedisAddr)
		return redis_adapter.NewResultRepo(rdb), func() { _ = rdb.Close() }, nil

	case "postgres":
		dbpool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to connect to database: %w", err)
		}
		repo := postgres.NewResultRepo(dbpool)
		if err := repo.EnsureSchema(ctx); err != nil {
			dbpool.Close()
			return nil, nil, err
		}
		slog.Info("PostgreSQL connection pool established")
		return repo, dbpool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown RESULT_STORE %q", cfg.ResultStore)
	}
}
