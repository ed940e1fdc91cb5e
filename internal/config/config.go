// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/wslny/wslny/internal/auth"
	"github.com/wslny/wslny/internal/database"
	"github.com/wslny/wslny/internal/fare"
)

// History backends and publishers.
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"

	PublisherDirect = "direct"
	PublisherPubSub = "pubsub"
)

// Config is the assembled process configuration.
type Config struct {
	Port       string `validate:"required,numeric"`
	Env        string `validate:"required"`
	RequireTLS bool

	Telemetry  TelemetryConfig
	Extraction UpstreamConfig
	Routing    UpstreamConfig
	Suggestion SuggestionConfig
	History    HistoryConfig

	// FareTablePath is the optional YAML fare table.
	FareTablePath string
	Fares         fare.Table `validate:"-"`

	Auth     auth.Config `validate:"-"`
	Database database.Config
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string  `validate:"required_if=Enabled true"`
	SampleRatio  float64 `validate:"gte=0,lte=1"`
}

// UpstreamConfig configures one upstream HTTP service.
type UpstreamConfig struct {
	BaseURL string        `validate:"required,url"`
	Timeout time.Duration `validate:"gt=0"`
}

// SuggestionConfig configures fuzzy destination suggestions.
type SuggestionConfig struct {
	HistoryLimit int     `validate:"gt=0,lte=10000"`
	MinScore     float64 `validate:"gt=0"`
}

// HistoryConfig configures history persistence.
type HistoryConfig struct {
	Backend      string `validate:"oneof=postgres memory"`
	Publisher    string `validate:"oneof=direct pubsub"`
	QueueSize    int    `validate:"gt=0"`
	ProjectID    string `validate:"required_if=Publisher pubsub"`
	Topic        string `validate:"required_if=Publisher pubsub"`
	Subscription string
}

// Load reads a .env file if present, then the environment, loads the fare
// table and validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds the configuration from the environment alone.
func FromEnv() (*Config, error) {
	var errs []error
	duration := func(key, def string) time.Duration {
		d, err := time.ParseDuration(getEnvOrDefault(key, def))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return d
	}
	integer := func(key, def string) int {
		n, err := strconv.Atoi(getEnvOrDefault(key, def))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return n
	}
	float := func(key, def string) float64 {
		f, err := strconv.ParseFloat(getEnvOrDefault(key, def), 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return f
	}

	cfg := &Config{
		Port:       getEnvOrDefault("APP_PORT", "8080"),
		Env:        getEnvOrDefault("APP_ENV", "development"),
		RequireTLS: os.Getenv("REQUIRE_TLS") == "true",
		Telemetry: TelemetryConfig{
			Enabled:      os.Getenv("OTEL_ENABLED") == "true",
			OTLPEndpoint: getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			SampleRatio:  float("OTEL_SAMPLE_RATIO", "1"),
		},
		Extraction: UpstreamConfig{
			BaseURL: getEnvOrDefault("EXTRACTION_BASE_URL", "http://localhost:50051"),
			Timeout: duration("EXTRACTION_TIMEOUT", "5s"),
		},
		Routing: UpstreamConfig{
			BaseURL: getEnvOrDefault("ROUTING_BASE_URL", "http://localhost:50052"),
			Timeout: duration("ROUTING_TIMEOUT", "10s"),
		},
		Suggestion: SuggestionConfig{
			HistoryLimit: integer("SUGGESTION_HISTORY_LIMIT", "300"),
			MinScore:     float("SUGGESTION_MIN_SCORE", "0.35"),
		},
		History: HistoryConfig{
			Backend:      getEnvOrDefault("HISTORY_BACKEND", BackendPostgres),
			Publisher:    getEnvOrDefault("HISTORY_PUBLISHER", PublisherDirect),
			QueueSize:    integer("HISTORY_QUEUE_SIZE", "256"),
			ProjectID:    os.Getenv("PUBSUB_PROJECT_ID"),
			Topic:        getEnvOrDefault("HISTORY_TOPIC", "route-history"),
			Subscription: getEnvOrDefault("HISTORY_SUBSCRIPTION", "route-history-ingest"),
		},
		FareTablePath: os.Getenv("FARE_TABLE_PATH"),
		Auth: auth.Config{
			SigningKey: os.Getenv("JWT_SIGNING_KEY"),
			Issuer:     os.Getenv("JWT_ISSUER"),
			Audience:   os.Getenv("JWT_AUDIENCE"),
		},
		Database: database.Config{
			Host:            getEnvOrDefault("DB_HOST", "localhost"),
			Port:            integer("DB_PORT", "5432"),
			User:            getEnvOrDefault("DB_USER", "wslny"),
			Password:        getEnvOrDefault("DB_PASSWORD", "localdev"),
			Database:        getEnvOrDefault("DB_NAME", "wslny"),
			SSLMode:         getEnvOrDefault("DB_SSL_MODE", "disable"),
			MaxOpenConns:    integer("DB_MAX_OPEN_CONNS", "10"),
			MaxIdleConns:    integer("DB_MAX_IDLE_CONNS", "5"),
			ConnMaxLifetime: duration("DB_CONN_MAX_LIFETIME", "5m"),
			ApplicationName: getEnvOrDefault("DB_APPLICATION_NAME", "wslny"),
		},
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.FareTablePath != "" {
		table, err := fare.LoadTable(cfg.FareTablePath)
		if err != nil {
			return nil, err
		}
		cfg.Fares = table
	} else {
		cfg.Fares = fare.DefaultTable()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.History.Publisher == PublisherPubSub && c.History.Backend == BackendMemory {
		return errors.New("invalid config: the pubsub publisher requires the postgres backend")
	}
	return nil
}

// UsesPostgres reports whether the API process needs a database connection.
func (c *Config) UsesPostgres() bool {
	return c.History.Backend == BackendPostgres
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
