package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	StorageMemory   = "memory"
	StorageFile     = "file"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

type Config struct {
	StoreAPIURL    string        `envconfig:"STORE_API_URL"   default:"https://fakestoreapi.com"`
	HTTPPort       string        `envconfig:"STOREFRONT_PORT" default:":8080"`
	GrpcPort       string        `envconfig:"GRPC_PORT"       default:":50051"` // gRPC health port
	LogLevel       string        `envconfig:"LOG_LEVEL"       default:"info"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"10s"`

	StorageDriver string `envconfig:"STORAGE_DRIVER" default:"file"`
	StoragePath   string `envconfig:"STORAGE_PATH"   default:"storefront-state.json"`
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	DatabaseURL   string `envconfig:"DATABASE_URL"`

	ProfileUserID int    `envconfig:"PROFILE_USER_ID" default:"1"`
	ShippingFee   string `envconfig:"SHIPPING_FEE"    default:"10.00"`
	PageSize      int    `envconfig:"PAGE_SIZE"       default:"12"`

	TracingExporter string `envconfig:"TRACING_EXPORTER"            default:"none"`
	OtelEndpoint    string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"localhost:4317"`
}

var (
	config Config
	once   sync.Once
)

// Load reads the environment into a Config and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process configuration from environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func LoadConfig(logger *logrus.Logger) *Config {
	once.Do(func() {
		err := godotenv.Load()
		if err != nil && !os.IsNotExist(err) {
			logger.Warnf("Error loading .env file (but continuing): %v", err)
		} else if err == nil {
			logger.Info("Loaded configuration from .env file")
		}

		cfg, err := Load()
		if err != nil {
			logger.Fatalf("Configuration error: %v", err)
		}
		config = *cfg

		logger.Infof("Configuration loaded: Store API=%s, HTTP Port=%s, GRPC Port=%s, Storage=%s, LogLevel=%s",
			config.StoreAPIURL, config.HTTPPort, config.GrpcPort, config.StorageDriver, config.LogLevel)
	})
	return &config
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.StoreAPIURL) == "" {
		return errors.New("STORE_API_URL cannot be empty")
	}

	switch c.StorageDriver {
	case StorageMemory:
	case StorageFile:
		if c.StoragePath == "" {
			return errors.New("STORAGE_PATH is required for the file storage driver")
		}
	case StorageRedis:
		if c.RedisAddr == "" {
			return errors.New("REDIS_ADDR is required for the redis storage driver")
		}
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres storage driver")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	fee, err := decimal.NewFromString(c.ShippingFee)
	if err != nil {
		return fmt.Errorf("invalid SHIPPING_FEE %q: %w", c.ShippingFee, err)
	}
	if !fee.IsPositive() {
		return fmt.Errorf("SHIPPING_FEE must be positive, got %s", c.ShippingFee)
	}
	if c.PageSize < 1 {
		return fmt.Errorf("PAGE_SIZE must be at least 1, got %d", c.PageSize)
	}
	switch c.TracingExporter {
	case "none", "stdout":
	case "otlp":
		if c.OtelEndpoint == "" {
			return errors.New("OTEL_EXPORTER_OTLP_ENDPOINT is required for the otlp tracing exporter")
		}
	default:
		return fmt.Errorf("unknown TRACING_EXPORTER %q", c.TracingExporter)
	}
	if c.ProfileUserID <= 0 {
		return fmt.Errorf("PROFILE_USER_ID must be positive, got %d", c.ProfileUserID)
	}
	return nil
}

// Shipping returns the flat shipping fee. Validate has already checked it parses.
func (c *Config) Shipping() decimal.Decimal {
	return decimal.RequireFromString(c.ShippingFee)
}
