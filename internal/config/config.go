package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

// Config is the process configuration read from the environment.
type Config struct {
	ServiceName         string        `env:"SERVICE_NAME" envDefault:"inventory-bridge"`
	Env                 string        `env:"ENV" envDefault:"dev"`
	HTTPAddr            string        `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel            string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFile             string        `env:"LOG_FILE"`
	MetricsNamespace    string        `env:"METRICS_NAMESPACE"`
	ShutdownTimeout     time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	PurchaseWaitTimeout time.Duration `env:"PURCHASE_WAIT_TIMEOUT" envDefault:"5s"`

	Outbox OutboxConfig `envPrefix:"OUTBOX_"`
	Memory MemoryConfig `envPrefix:"MEMORY_"`
	OTel   OTelConfig   `envPrefix:"OTEL_"`
}

type OutboxConfig struct {
	QueueSize      int           `env:"QUEUE_SIZE" envDefault:"1024"`
	Concurrency    int           `env:"CONCURRENCY" envDefault:"8"`
	HandlerTimeout time.Duration `env:"HANDLER_TIMEOUT" envDefault:"30s"`
}

// MemoryConfig drives the in-memory inventory client.
type MemoryConfig struct {
	PurchaseDelay time.Duration `env:"PURCHASE_DELAY" envDefault:"50ms"`
	// Catalog lists purchasable definition ids; empty allows all.
	Catalog []int32 `env:"CATALOG" envSeparator:","`
}

type OTelConfig struct {
	Enabled       bool    `env:"ENABLED" envDefault:"false"`
	Endpoint      string  `env:"ENDPOINT" envDefault:"localhost:4317"`
	SamplingRatio float64 `env:"SAMPLING_RATIO" envDefault:"1"`
}

// Load reads an optional .env file (existing variables win) and parses the
// environment into a validated Config.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && len(files) > 0 {
		return Config{}, fmt.Errorf("config: load env file: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.ServiceName == "" {
		errs = append(errs, errors.New("SERVICE_NAME must not be empty"))
	}
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("HTTP_ADDR must not be empty"))
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be positive"))
	}
	if c.PurchaseWaitTimeout <= 0 {
		errs = append(errs, errors.New("PURCHASE_WAIT_TIMEOUT must be positive"))
	}
	if c.Outbox.QueueSize <= 0 {
		errs = append(errs, errors.New("OUTBOX_QUEUE_SIZE must be positive"))
	}
	if c.Outbox.Concurrency <= 0 {
		errs = append(errs, errors.New("OUTBOX_CONCURRENCY must be positive"))
	}
	if c.Outbox.HandlerTimeout <= 0 {
		errs = append(errs, errors.New("OUTBOX_HANDLER_TIMEOUT must be positive"))
	}
	if c.Memory.PurchaseDelay < 0 {
		errs = append(errs, errors.New("MEMORY_PURCHASE_DELAY must not be negative"))
	}
	if c.OTel.SamplingRatio < 0 || c.OTel.SamplingRatio > 1 {
		errs = append(errs, errors.New("OTEL_SAMPLING_RATIO must be within [0, 1]"))
	}
	if c.OTel.Enabled && c.OTel.Endpoint == "" {
		errs = append(errs, errors.New("OTEL_ENDPOINT is required when OTEL_ENABLED is set"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
