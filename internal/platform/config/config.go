// Package config reads process configuration from the environment.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full process configuration.
type Config struct {
	Server    Server
	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	LogLevel  string
	LogFormat string
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr           string
	RequestTimeout time.Duration
	ShutdownGrace  time.Duration
	// TimeZone is the IANA zone whose calendar year ticket codes carry.
	TimeZone string
}

// DatabaseConfig selects the case store. An empty URL keeps everything in memory.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

// RedisConfig configures the rate-limit bucket backend. An empty URL disables redis.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the case event relay. No brokers disables the relay.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	PollInterval time.Duration
	BatchSize    int
}

// DevJWTSigningKey is the signing key used when JWT_SIGNING_KEY is unset. It is
// only acceptable with in-memory storage, where no principals exist.
const DevJWTSigningKey = "dev-secret-key-change-in-production"

// ErrInsecureSigningKey is returned by Validate when a database is configured
// without a real token signing key.
var ErrInsecureSigningKey = errors.New("JWT_SIGNING_KEY must be set to a non-default value when DATABASE_URL is set")

// AuthConfig holds the shared secret used to verify access tokens issued by
// the authentication service.
type AuthConfig struct {
	JWTSigningKey string
	JWTIssuer     string
}

// RateLimitConfig bounds anonymous traffic per client IP.
type RateLimitConfig struct {
	Disabled bool
	// TrustedProxies lists CIDRs or addresses whose forwarding headers are
	// honoured. Empty means the socket peer is the client.
	TrustedProxies  []string
	TrackPerWindow  int
	ReportPerWindow int
	Window          time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
// A .env file in the working directory is loaded first when present.
func FromEnv() Config {
	_ = godotenv.Load()

	return Config{
		Server: Server{
			Addr:           getString("SIAPPA_ADDR", ":8080"),
			RequestTimeout: getDuration("SIAPPA_REQUEST_TIMEOUT", 15*time.Second),
			ShutdownGrace:  getDuration("SIAPPA_SHUTDOWN_GRACE", 10*time.Second),
			TimeZone:       getString("SIAPPA_TIMEZONE", "Asia/Makassar"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getInt("DATABASE_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    getInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
			AutoMigrate:     getBool("DATABASE_AUTO_MIGRATE", false),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 2*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 500*time.Millisecond),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 500*time.Millisecond),
		},
		Kafka: KafkaConfig{
			Brokers:      getList("KAFKA_BROKERS"),
			Topic:        getString("KAFKA_CASE_EVENTS_TOPIC", "case-events"),
			PollInterval: getDuration("OUTBOX_POLL_INTERVAL", 2*time.Second),
			BatchSize:    getInt("OUTBOX_BATCH_SIZE", 100),
		},
		Auth: AuthConfig{
			JWTSigningKey: getString("JWT_SIGNING_KEY", DevJWTSigningKey),
			JWTIssuer:     os.Getenv("JWT_ISSUER"),
		},
		RateLimit: RateLimitConfig{
			Disabled:        getBool("RATE_LIMIT_DISABLED", false),
			TrustedProxies:  getList("TRUSTED_PROXIES"),
			TrackPerWindow:  getInt("RATE_LIMIT_TRACK_PER_WINDOW", 30),
			ReportPerWindow: getInt("RATE_LIMIT_REPORT_PER_WINDOW", 5),
			Window:          getDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		LogLevel:  getString("LOG_LEVEL", "info"),
		LogFormat: getString("LOG_FORMAT", "json"),
	}
}

// Validate rejects configurations that would let anyone mint admin tokens.
func (c Config) Validate() error {
	if c.Database.URL == "" {
		return nil
	}
	key := strings.TrimSpace(c.Auth.JWTSigningKey)
	if key == "" || key == DevJWTSigningKey {
		return ErrInsecureSigningKey
	}
	return nil
}

func getString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil {
		return n
	}
	return def
}

func getBool(key string, def bool) bool {
	if b, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key))); err == nil {
		return b
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key))); err == nil {
		return d
	}
	return def
}

func getList(key string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
