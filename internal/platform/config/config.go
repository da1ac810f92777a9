// Package config builds process configuration from the environment so
// main stays lean. Every knob has a development default; production
// deployments override via VERIS_* variables.
package config

import (
	"os"
	"strings"
	"time"
)

// Server captures the full process configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	JWTIssuer     string

	// PostgresDSN empty means the in-memory stores serve all state.
	PostgresDSN string

	Redis RedisConfig

	// KafkaBrokers empty means audit events stay in-process.
	KafkaBrokers []string
	KafkaTopic   string

	// CascadeRevoke makes revoking an identity also discard the
	// owner's pending transfer and history.
	CascadeRevoke bool

	ShutdownTimeout time.Duration
}

// RedisConfig carries connection tuning for the ledger height source.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	addr := os.Getenv("VERIS_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("VERIS_JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default, override in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}
	jwtIssuer := os.Getenv("VERIS_JWT_ISSUER")
	if jwtIssuer == "" {
		jwtIssuer = "veris"
	}

	var brokers []string
	if raw := os.Getenv("VERIS_KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}
	topic := os.Getenv("VERIS_KAFKA_TOPIC")
	if topic == "" {
		topic = "veris.audit.events"
	}

	return Server{
		Addr:          addr,
		JWTSigningKey: jwtSigningKey,
		JWTIssuer:     jwtIssuer,
		PostgresDSN:   os.Getenv("VERIS_POSTGRES_DSN"),
		Redis: RedisConfig{
			URL:          os.Getenv("VERIS_REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		KafkaBrokers:    brokers,
		KafkaTopic:      topic,
		CascadeRevoke:   os.Getenv("VERIS_CASCADE_REVOKE") == "true",
		ShutdownTimeout: 10 * time.Second,
	}
}
