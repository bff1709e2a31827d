// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// DatabaseURL is the Postgres DSN of the shared document store.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// RingTimeout is how long a session may stay in ringing before the sweep
	// marks it missed (e.g. "45s").
	RingTimeout string `mapstructure:"RING_TIMEOUT"`
	// SweepInterval is how often the sweeper scans for stale ringing sessions (e.g. "10s").
	SweepInterval string `mapstructure:"SWEEP_INTERVAL"`
	// HistoryLimit is the most-recent-N cap on call history entries per account.
	HistoryLimit int `mapstructure:"HISTORY_LIMIT"`
	// JWTPublicKey is the identity provider's PEM-encoded public key or a path to it.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	// JWTIssuer is the expected iss claim on provider tokens.
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the expected aud claim on provider tokens.
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`

	// Call events (optional). When Kafka brokers are set, terminal and
	// lifecycle transitions are emitted to Kafka.
	// KafkaBrokers is a comma-separated list of broker addresses (e.g. "localhost:9092").
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// CallEventsKafkaTopic is the Kafka topic for call lifecycle events.
	CallEventsKafkaTopic string `mapstructure:"CALL_EVENTS_KAFKA_TOPIC"`
	// KafkaGroupID is the consumer group ID for the call-events worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`
	// LokiURL is the Loki base URL the worker pushes events to (e.g. http://localhost:3100).
	LokiURL string `mapstructure:"LOKI_URL"`

	// OTLPEndpoint enables OpenTelemetry export when set (e.g. http://localhost:4317).
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTLP_INSECURE"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("RING_TIMEOUT", "45s")
	v.SetDefault("SWEEP_INTERVAL", "10s")
	v.SetDefault("HISTORY_LIMIT", 50)
	v.SetDefault("JWT_PUBLIC_KEY", "")
	v.SetDefault("JWT_ISSUER", "wavewords-id")
	v.SetDefault("JWT_AUDIENCE", "wavewords-core")
	v.SetDefault("APP_ENV", "")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("CALL_EVENTS_KAFKA_TOPIC", "wavewords-call-events")
	v.SetDefault("KAFKA_GROUP_ID", "wavewords-call-events-worker")
	v.SetDefault("LOKI_URL", "")
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("OTLP_INSECURE", false)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("config: DATABASE_URL must be set")
	}
	if cfg.HistoryLimit <= 0 {
		return nil, errors.New("config: HISTORY_LIMIT must be positive")
	}

	return &cfg, nil
}

// RingTimeoutDuration parses RingTimeout as a time.Duration. Returns 45s if unset or invalid.
func (c *Config) RingTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.RingTimeout)
	if err != nil || d <= 0 {
		return 45 * time.Second
	}
	return d
}

// SweepIntervalDuration parses SweepInterval as a time.Duration. Returns 10s if unset or invalid.
func (c *Config) SweepIntervalDuration() time.Duration {
	d, err := time.ParseDuration(c.SweepInterval)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// KafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if call events are enabled (non-empty list) and to create the producer.
func (c *Config) KafkaBrokersList() []string {
	if c == nil || c.KafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
