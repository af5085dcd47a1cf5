// Package config builds runtime configuration from environment variables so
// main stays lean. Defaults favor local development; production overrides
// everything via env.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures all service-level configuration.
type Config struct {
	Addr     string
	LogLevel string

	// PostgresDSN enables the Postgres stores. Empty runs on in-memory
	// stores (dev and tests only).
	PostgresDSN string

	Redis RedisConfig
	Kafka KafkaConfig

	// JWTSigningKey verifies caller bearer tokens. Empty disables auth.
	JWTSigningKey string
	// APIKeyHash is a bcrypt hash of the static service API key.
	APIKeyHash string

	// ModelRegistryURL points at the external model registry. Empty runs
	// with the static in-memory registry (dev only).
	ModelRegistryURL string
	// IncidentSinkURL points at the external incident management service.
	IncidentSinkURL string

	// AppealSLAWindow is the default resolution window for appeals whose
	// category carries no specific policy.
	AppealSLAWindow time.Duration

	// RequestTimeout bounds each request's persistence work.
	RequestTimeout time.Duration

	// RateLimitPerMinute caps requests per caller per minute on the API
	// routes. Zero disables the limiter.
	RateLimitPerMinute int
}

// RedisConfig configures the model registry lookup cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// RegistryTTL bounds how long a model registry answer may be served
	// from cache.
	RegistryTTL time.Duration
}

// KafkaConfig configures the ledger event publisher.
type KafkaConfig struct {
	// Brokers is a comma-separated seed broker list. Empty disables
	// event publishing.
	Brokers string
	Topic   string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Addr:        getEnv("VERITAS_ADDR", ":8080"),
		LogLevel:    getEnv("VERITAS_LOG_LEVEL", "info"),
		PostgresDSN: os.Getenv("VERITAS_POSTGRES_DSN"),
		Redis: RedisConfig{
			URL:          os.Getenv("VERITAS_REDIS_URL"),
			PoolSize:     getEnvInt("VERITAS_REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("VERITAS_REDIS_MIN_IDLE", 2),
			DialTimeout:  getEnvDuration("VERITAS_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("VERITAS_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("VERITAS_REDIS_WRITE_TIMEOUT", 3*time.Second),
			RegistryTTL:  getEnvDuration("VERITAS_REGISTRY_CACHE_TTL", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers: os.Getenv("VERITAS_KAFKA_BROKERS"),
			Topic:   getEnv("VERITAS_KAFKA_TOPIC", "veritas.ledger.events"),
		},
		JWTSigningKey:    os.Getenv("VERITAS_JWT_SIGNING_KEY"),
		APIKeyHash:       os.Getenv("VERITAS_API_KEY_HASH"),
		ModelRegistryURL: os.Getenv("VERITAS_MODEL_REGISTRY_URL"),
		IncidentSinkURL:  os.Getenv("VERITAS_INCIDENT_SINK_URL"),
		AppealSLAWindow:  getEnvDuration("VERITAS_APPEAL_SLA_WINDOW", 72*time.Hour),
		RequestTimeout:   getEnvDuration("VERITAS_REQUEST_TIMEOUT", 5*time.Second),

		RateLimitPerMinute: getEnvInt("VERITAS_RATE_LIMIT_PER_MINUTE", 300),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
