// Package config builds runtime configuration from environment variables so
// main stays lean. One struct per concern; defaults suit local development and
// must be overridden in production.
package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	LogLevel        string
	Version         string
	JWTSigningKey   string
	AdminKey        string
	ShutdownTimeout time.Duration
}

// Postgres captures database connection settings. Empty URL means the service
// runs on in-memory stores (development and tests).
type Postgres struct {
	URL             string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// Redis captures the optional active-policy-version cache settings. Empty URL
// disables the cache.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CacheTTL     time.Duration
}

// Ledger captures governance ledger settings. The HMAC key is read here once;
// services receive it through the SecretProvider port.
type Ledger struct {
	Path    string
	HMACKey string
}

// Config aggregates all concerns for the composition root.
type Config struct {
	Server   Server
	Postgres Postgres
	Redis    Redis
	Ledger   Ledger
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:            envOr("GOVGATE_ADDR", ":8080"),
			LogLevel:        envOr("GOVGATE_LOG_LEVEL", "info"),
			Version:         envOr("GOVGATE_VERSION", "0.1.0"),
			JWTSigningKey:   envOr("GOVGATE_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			AdminKey:        os.Getenv("GOVGATE_ADMIN_KEY"),
			ShutdownTimeout: envDurationOr("GOVGATE_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Postgres: Postgres{
			URL:             os.Getenv("GOVGATE_POSTGRES_URL"),
			MaxOpenConns:    envIntOr("GOVGATE_POSTGRES_MAX_OPEN_CONNS", 20),
			ConnMaxLifetime: envDurationOr("GOVGATE_POSTGRES_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: Redis{
			URL:          os.Getenv("GOVGATE_REDIS_URL"),
			PoolSize:     envIntOr("GOVGATE_REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("GOVGATE_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDurationOr("GOVGATE_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDurationOr("GOVGATE_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDurationOr("GOVGATE_REDIS_WRITE_TIMEOUT", 3*time.Second),
			CacheTTL:     envDurationOr("GOVGATE_POLICY_CACHE_TTL", time.Minute),
		},
		Ledger: Ledger{
			Path:    envOr("GOVGATE_LEDGER_PATH", "governance_ledger.jsonl"),
			HMACKey: os.Getenv("GOVGATE_LEDGER_HMAC_KEY"),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
