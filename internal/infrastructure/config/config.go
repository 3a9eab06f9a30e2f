package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/shopspring/decimal"

	"github.com/skateshop/storefront/internal/core/domain"
)

const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"

	envDevelopment = "development"
	devJWTSecret   = "skateboard-dev-secret"
)

type Config struct {
	Port            string        `env:"PORT,             default=3000"`
	Env             string        `env:"ENV,              default=development"`
	JWTSecret       string        `env:"JWT_SECRET"`
	LogLevel        string        `env:"LOG_LEVEL,        default=info"`
	LogPretty       bool          `env:"LOG_PRETTY,       default=false"`
	TokenTTL        time.Duration `env:"TOKEN_TTL,        default=24h"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT, default=10s"`

	DB      DBConfig
	Cache   CacheConfig
	Redis   RedisConfig
	Catalog CatalogConfig
	Upload  UploadConfig
	Admin   AdminConfig
}

type DBConfig struct {
	Path               string        `env:"DB_PATH,                default=skateboard.db"`
	CheckpointInterval time.Duration `env:"DB_CHECKPOINT_INTERVAL, default=30s"`
}

type CacheConfig struct {
	Backend string        `env:"CACHE_BACKEND,     default=memory"`
	TTL     time.Duration `env:"CATALOG_CACHE_TTL, default=30s"`
}

type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR,      default=localhost:6379"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB,        default=0"`
	PoolSize int           `env:"REDIS_POOL_SIZE, default=10"`
	Timeout  time.Duration `env:"REDIS_TIMEOUT,   default=3s"`
	// SlotTTL bounds how long a catalog slot survives in Redis if an
	// invalidation is lost.
	SlotTTL time.Duration `env:"REDIS_SLOT_TTL, default=5m"`
}

type CatalogConfig struct {
	MaxStock int             `env:"MAX_STOCK, default=10000"`
	MaxPrice decimal.Decimal `env:"MAX_PRICE, default=99999.99"`
}

type UploadConfig struct {
	Dir      string `env:"UPLOAD_DIR,       default=uploads"`
	MaxBytes int64  `env:"UPLOAD_MAX_BYTES, default=5242880"`
	// CleanupWorkers is the number of goroutines removing superseded images.
	CleanupWorkers int `env:"UPLOAD_CLEANUP_WORKERS, default=2"`
}

type AdminConfig struct {
	Username string `env:"ADMIN_USERNAME, default=admin"`
	Email    string `env:"ADMIN_EMAIL,    default=admin@skateboard.com"`
	Password string `env:"ADMIN_PASSWORD, default=admin123"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration from l and validates it.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if cfg.JWTSecret == "" {
		if !cfg.IsDevelopment() {
			return nil, errors.New("config: JWT_SECRET is required outside development")
		}
		cfg.JWTSecret = devJWTSecret
	}

	cfg.Cache.Backend = strings.ToLower(strings.TrimSpace(cfg.Cache.Backend))
	switch cfg.Cache.Backend {
	case CacheBackendMemory, CacheBackendRedis:
	default:
		return nil, fmt.Errorf("config: unknown CACHE_BACKEND %q", cfg.Cache.Backend)
	}

	if cfg.Catalog.MaxStock < 0 || cfg.Catalog.MaxPrice.IsNegative() {
		return nil, errors.New("config: MAX_STOCK and MAX_PRICE must not be negative")
	}

	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, envDevelopment)
}

// ProductLimits converts the catalog settings for the product service.
func (c *Config) ProductLimits() domain.ProductLimits {
	return domain.ProductLimits{MaxStock: c.Catalog.MaxStock, MaxPrice: c.Catalog.MaxPrice}
}
