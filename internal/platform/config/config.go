// Package config loads service configuration from BEACON_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// DevSigningKey is the default JWT key. Validate refuses it in production.
const DevSigningKey = "dev-secret-key-change-in-production"

type Config struct {
	Addr        string        `env:"BEACON_ADDR" envDefault:":8080"`
	Environment string        `env:"BEACON_ENV" envDefault:"local"`
	DatabaseURL string        `env:"BEACON_DATABASE_URL"`
	TxTimeout   time.Duration `env:"BEACON_TX_TIMEOUT" envDefault:"5s"`

	// SeedFile preloads the in-memory directory, catalogue and positions.
	SeedFile string `env:"BEACON_SEED_FILE"`

	Redis   RedisConfig     `envPrefix:"BEACON_REDIS_"`
	Kafka   KafkaConfig     `envPrefix:"BEACON_KAFKA_"`
	Auth    AuthConfig      `envPrefix:"BEACON_JWT_"`
	Share   ShareConfig     `envPrefix:"BEACON_SHARE_"`
	OptIn   OptInConfig     `envPrefix:"BEACON_OPT_IN_"`
	Expiry  ExpiryConfig    `envPrefix:"BEACON_EXPIRY_"`
	Tracing TracingConfig   `envPrefix:"BEACON_OTEL_"`
	Limits  RateLimitConfig `envPrefix:"BEACON_RATE_LIMIT_"`
}

// RedisConfig configures the display-name cache. An empty URL disables it.
type RedisConfig struct {
	URL            string        `env:"URL"`
	PoolSize       int           `env:"POOL_SIZE" envDefault:"10"`
	MinIdleConns   int           `env:"MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout    time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout    time.Duration `env:"READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout   time.Duration `env:"WRITE_TIMEOUT" envDefault:"3s"`
	DisplayNameTTL time.Duration `env:"DISPLAY_NAME_TTL" envDefault:"10m"`
}

// KafkaConfig configures the audit outbox relay. No brokers disables it.
type KafkaConfig struct {
	Brokers       []string      `env:"BROKERS" envSeparator:","`
	AuditTopic    string        `env:"AUDIT_TOPIC" envDefault:"beacon.audit"`
	RelayInterval time.Duration `env:"RELAY_INTERVAL" envDefault:"1s"`
	RelayBatch    int           `env:"RELAY_BATCH" envDefault:"100"`
}

type AuthConfig struct {
	SigningKey string `env:"SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	Issuer     string `env:"ISSUER" envDefault:"beacon"`
	Audience   string `env:"AUDIENCE" envDefault:"beacon-api"`
}

type ShareConfig struct {
	MinDurationMinutes int `env:"MIN_DURATION_MINUTES" envDefault:"1"`
	MaxDurationMinutes int `env:"MAX_DURATION_MINUTES" envDefault:"1440"`
}

type OptInConfig struct {
	MaxDurationMinutes int `env:"MAX_DURATION_MINUTES" envDefault:"1440"`
	LookupParallelism  int `env:"LOOKUP_PARALLELISM" envDefault:"8"`
}

type ExpiryConfig struct {
	Interval  time.Duration `env:"INTERVAL" envDefault:"60s"`
	BatchSize int           `env:"BATCH_SIZE" envDefault:"500"`
	Budget    time.Duration `env:"BUDGET" envDefault:"10s"`
}

// RateLimitConfig sets per-user sliding-window budgets. Buckets live in Redis
// when it is configured, in process memory otherwise.
type RateLimitConfig struct {
	Disabled        bool          `env:"DISABLED"`
	Window          time.Duration `env:"WINDOW" envDefault:"1m"`
	DefaultRequests int           `env:"DEFAULT_REQUESTS" envDefault:"120"`
	NearbyRequests  int           `env:"NEARBY_REQUESTS" envDefault:"30"`
}

// TracingConfig enables OTLP export when Endpoint is set.
type TracingConfig struct {
	Endpoint    string `env:"ENDPOINT"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"beacon"`
}

// Load parses the process environment and validates the result.
func Load() (Config, error) {
	return parse(env.Options{})
}

// LoadFrom parses vars instead of the process environment.
func LoadFrom(vars map[string]string) (Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c Config) Validate() error {
	var errs []error
	if c.Share.MinDurationMinutes < 1 {
		errs = append(errs, errors.New("share min duration must be at least one minute"))
	}
	if c.Share.MaxDurationMinutes < c.Share.MinDurationMinutes {
		errs = append(errs, errors.New("share max duration is below the minimum"))
	}
	if c.OptIn.MaxDurationMinutes < 1 {
		errs = append(errs, errors.New("opt-in max duration must be at least one minute"))
	}
	if c.OptIn.LookupParallelism < 1 {
		errs = append(errs, errors.New("opt-in lookup parallelism must be positive"))
	}
	if c.Expiry.Interval <= 0 || c.Expiry.Budget <= 0 || c.Expiry.BatchSize <= 0 {
		errs = append(errs, errors.New("expiry interval, budget and batch size must be positive"))
	}
	if !c.Limits.Disabled && (c.Limits.Window <= 0 || c.Limits.DefaultRequests < 1 || c.Limits.NearbyRequests < 1) {
		errs = append(errs, errors.New("rate limit window and budgets must be positive"))
	}
	if c.TxTimeout <= 0 {
		errs = append(errs, errors.New("tx timeout must be positive"))
	}
	if c.Auth.SigningKey == "" {
		errs = append(errs, errors.New("jwt signing key is required"))
	}
	if c.IsProduction() && c.Auth.SigningKey == DevSigningKey {
		errs = append(errs, errors.New("jwt signing key must be set in production"))
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.AuditTopic == "" {
		errs = append(errs, errors.New("kafka audit topic is required when brokers are set"))
	}
	return errors.Join(errs...)
}
