package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jcmexdev/jpashop-orders/internal/pkg/cache"
	"github.com/jcmexdev/jpashop-orders/internal/pkg/config"
	"github.com/jcmexdev/jpashop-orders/internal/pkg/telemetry"
	"github.com/jcmexdev/jpashop-orders/internal/shop/adapters/httpx"
	"github.com/jcmexdev/jpashop-orders/internal/shop/adapters/sqlite"
	"github.com/jcmexdev/jpashop-orders/internal/shop/app"
)

func main() {
	if err := run(); err != nil {
		slog.Error("shop-api stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := telemetry.InitLogger(telemetry.LoggerConfig{
		Service: cfg.ServiceName,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.SetupTracer(ctx, telemetry.TracerConfig{
		ServiceName: cfg.ServiceName,
		Env:         cfg.Env,
		Endpoint:    cfg.OTLPEndpoint,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			log.Error("tracer shutdown error", "error", err)
		}
	}()

	if cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return err
		}
	}
	store, err := sqlite.Open(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	idempotency, closeCache, err := newCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	services := httpx.Services{
		Members: app.NewMemberService(store),
		Items:   app.NewItemService(store),
		Orders:  app.NewOrderService(store),
		Queries: app.NewOrderQueryService(store, cfg.BatchFetchSize),
	}
	if cfg.SeedData {
		if err := app.Seed(ctx, store); err != nil {
			return err
		}
	}

	handler := httpx.NewHandler(services, idempotency, cfg.IdempotencyTTL, store)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpx.NewRouter(handler),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http server running", "addr", cfg.HTTPAddr, "db", cfg.DBPath, "batch_fetch_size", cfg.BatchFetchSize)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown requested")

		stopCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(stopCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("bye")
	return nil
}

// newCache picks Redis when REDIS_ADDR is set and an in-process cache
// otherwise.
func newCache(ctx context.Context, cfg config.Config) (cache.Cache, func() error, error) {
	if cfg.RedisAddr == "" {
		return cache.NewMemoryCache(cfg.ServiceName), func() error { return nil }, nil
	}
	return cache.NewRedisCache(ctx, cfg.RedisAddr, cfg.ServiceName)
}
