package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures process-level configuration so main stays lean.
type Config struct {
	Addr         string
	DatabaseURL  string
	Redis        RedisConfig
	Kafka        KafkaConfig
	Verification VerificationConfig

	// ConsentValidity is the default expiry attached to freshly granted
	// consent records. Zero means consents do not expire.
	ConsentValidity time.Duration

	// RetentionDefault is the retention period applied at registration.
	RetentionDefault time.Duration
}

// RedisConfig controls the optional Redis connection used for single-use
// verification code tracking.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig controls the optional audit outbox relay.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// VerificationConfig controls email verification codes.
type VerificationConfig struct {
	SigningKey string
	TTL        time.Duration
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	addr := os.Getenv("MEMBERGATE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	signingKey := os.Getenv("VERIFICATION_SIGNING_KEY")
	if signingKey == "" {
		// Development default - must be overridden in production.
		signingKey = "dev-secret-key-change-in-production"
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}
	topic := os.Getenv("KAFKA_AUDIT_TOPIC")
	if topic == "" {
		topic = "membergate.audit"
	}

	return Config{
		Addr:        addr,
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{Brokers: brokers, Topic: topic},
		Verification: VerificationConfig{
			SigningKey: signingKey,
			TTL:        envDuration("VERIFICATION_TTL", 24*time.Hour),
		},
		ConsentValidity:  envDuration("CONSENT_VALIDITY", 0),
		RetentionDefault: envDuration("RETENTION_DEFAULT", 5*365*24*time.Hour),
	}
}

func envInt(key string, def int) int {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if raw := os.Getenv(key); raw != "" {
		if v, err := time.ParseDuration(raw); err == nil {
			return v
		}
	}
	return def
}
