package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	platformstrings "clubgate/pkg/platform/strings"
)

// Config aggregates all runtime configuration so main stays lean.
type Config struct {
	Server   Server
	JWT      JWT
	Redis    Redis
	Postgres Postgres
	Upstream Upstream
	Kafka    Kafka
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr       string
	SessionTTL time.Duration
}

// JWT configures the gateway session token.
type JWT struct {
	SigningKey string
	Issuer     string
	TTL        time.Duration
}

// Redis configures the optional Redis-backed identity store.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Postgres configures the optional Postgres-backed identity store.
type Postgres struct {
	URL string
}

// Upstream points at the club-management API the gateway fronts.
type Upstream struct {
	BaseURL string
	Timeout time.Duration
}

// Kafka configures the optional audit event sink.
type Kafka struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:       envOr("CLUBGATE_ADDR", ":8080"),
			SessionTTL: envDuration("CLUBGATE_SESSION_TTL", 7*24*time.Hour),
		},
		JWT: JWT{
			// Default is for development only and must be overridden in production.
			SigningKey: envOr("CLUBGATE_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			Issuer:     envOr("CLUBGATE_JWT_ISSUER", "clubgate"),
			TTL:        envDuration("CLUBGATE_JWT_TTL", 24*time.Hour),
		},
		Redis: Redis{
			URL:          os.Getenv("CLUBGATE_REDIS_URL"),
			PoolSize:     envInt("CLUBGATE_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("CLUBGATE_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("CLUBGATE_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("CLUBGATE_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("CLUBGATE_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: Postgres{
			URL: os.Getenv("CLUBGATE_POSTGRES_URL"),
		},
		Upstream: Upstream{
			BaseURL: envOr("CLUBGATE_UPSTREAM_URL", "http://localhost:8081/api/dev"),
			Timeout: envDuration("CLUBGATE_UPSTREAM_TIMEOUT", 10*time.Second),
		},
		Kafka: Kafka{
			Brokers: envList("CLUBGATE_KAFKA_BROKERS"),
			Topic:   envOr("CLUBGATE_KAFKA_AUDIT_TOPIC", "clubgate.audit"),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	return platformstrings.DedupeAndTrim(strings.Split(v, ","))
}
