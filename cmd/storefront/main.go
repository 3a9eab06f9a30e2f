// Command storefront serves the skateboard shop API.
//
// @title                       Skateboard Shop API
// @version                     1.0
// @description                 Catalog, accounts and carts for the skateboard shop.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/skateshop/storefront/internal/api"
	"github.com/skateshop/storefront/internal/api/handler"
	"github.com/skateshop/storefront/internal/core/ports"
	"github.com/skateshop/storefront/internal/core/service"
	"github.com/skateshop/storefront/internal/infrastructure/cache"
	"github.com/skateshop/storefront/internal/infrastructure/config"
	"github.com/skateshop/storefront/internal/infrastructure/db/redis"
	"github.com/skateshop/storefront/internal/infrastructure/db/sqlite"
	"github.com/skateshop/storefront/internal/infrastructure/queue"
	"github.com/skateshop/storefront/internal/infrastructure/storage"
	"github.com/skateshop/storefront/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: "storefront",
	})

	db, err := sqlite.Open(ctx, sqlite.Config{Path: cfg.DB.Path})
	if err != nil {
		return err
	}

	checkpointer := sqlite.NewCheckpointer(db, cfg.DB.CheckpointInterval, log)
	checkpointer.Start(context.Background())

	// The WAL is flushed on every exit path, including a panic unwinding run.
	defer func() {
		r := recover()
		if r != nil {
			log.Error().Interface("panic", r).Msg("fatal panic, shutting down")
		}
		closeStore(db, checkpointer, log)
		if r != nil {
			panic(r)
		}
	}()

	readiness := map[string]handler.ReadinessCheck{
		"sqlite": db.PingContext,
	}

	productCache, closeCache, err := newProductCache(ctx, cfg, readiness)
	if err != nil {
		return err
	}
	defer closeCache()

	images, err := storage.NewDiskImageStore(cfg.Upload.Dir, cfg.Upload.MaxBytes)
	if err != nil {
		return err
	}

	imageCleaner := queue.NewDispatcher(cfg.Upload.CleanupWorkers, images, log)
	imageCleaner.Start(context.Background())
	defer imageCleaner.Stop()

	tokens := service.NewJWTIssuer(cfg.JWTSecret, cfg.TokenTTL)
	authService := service.NewAuthService(sqlite.NewUserRepository(db), tokens, log)
	productService := service.NewProductService(
		sqlite.NewProductRepository(db),
		productCache,
		log,
		service.WithCacheTTL(cfg.Cache.TTL),
		service.WithLimits(cfg.ProductLimits()),
		service.WithImageRemover(imageCleaner),
	)
	cartService := service.NewCartService(sqlite.NewCartRepository(db), log)

	if err := authService.SeedAdmin(ctx, cfg.Admin.Username, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		return err
	}

	e := api.NewRouter(api.Dependencies{
		Log:            log,
		Tokens:         tokens,
		Auth:           authService,
		Products:       productService,
		Cart:           cartService,
		Images:         images,
		UploadDir:      images.Dir(),
		UploadMaxBytes: images.MaxBytes(),
		Readiness:      readiness,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Str("cache", cfg.Cache.Backend).Msg("server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	return nil
}

// newProductCache builds the configured catalog cache. The redis backend is
// also registered as a readiness dependency.
func newProductCache(ctx context.Context, cfg *config.Config, readiness map[string]handler.ReadinessCheck) (ports.ProductCache, func(), error) {
	if cfg.Cache.Backend != config.CacheBackendRedis {
		return cache.NewMemoryProductCache(), func() {}, nil
	}

	client, err := redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
		Timeout:  cfg.Redis.Timeout,
	})
	if err != nil {
		return nil, nil, err
	}
	readiness["redis"] = func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
	return redis.NewProductCache(client, cfg.Redis.SlotTTL), func() { _ = client.Close() }, nil
}

func closeStore(db *sql.DB, checkpointer *sqlite.Checkpointer, log zerolog.Logger) {
	checkpointer.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := sqlite.Shutdown(ctx, db, log); err != nil {
		log.Error().Err(err).Msg("database shutdown failed")
	}
}
