package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"SIAPPA_ADDR", "SIAPPA_TIMEZONE", "DATABASE_URL", "REDIS_URL", "KAFKA_BROKERS", "RATE_LIMIT_WINDOW", "TRUSTED_PROXIES"} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "Asia/Makassar", cfg.Server.TimeZone)
	assert.Empty(t, cfg.Database.URL)
	assert.Nil(t, cfg.Kafka.Brokers)
	assert.Equal(t, "case-events", cfg.Kafka.Topic)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Nil(t, cfg.RateLimit.TrustedProxies)
	assert.NoError(t, cfg.Validate())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("SIAPPA_ADDR", ":9090")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("RATE_LIMIT_TRACK_PER_WINDOW", "3")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("DATABASE_AUTO_MIGRATE", "true")

	cfg := FromEnv()

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 3, cfg.RateLimit.TrackPerWindow)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	assert.True(t, cfg.Database.AutoMigrate)
}

func TestFromEnv_IgnoresMalformedValues(t *testing.T) {
	t.Setenv("RATE_LIMIT_WINDOW", "soon")
	t.Setenv("DATABASE_MAX_OPEN_CONNS", "many")

	cfg := FromEnv()

	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
}

func TestValidate_SigningKey(t *testing.T) {
	tests := []struct {
		name    string
		dbURL   string
		key     string
		wantErr bool
	}{
		{"memory mode with dev key", "", DevJWTSigningKey, false},
		{"database with dev key", "postgres://siappa@db/siappa", DevJWTSigningKey, true},
		{"database with blank key", "postgres://siappa@db/siappa", "  ", true},
		{"database with real key", "postgres://siappa@db/siappa", "0f3c9b7e2d4a", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{
				Database: DatabaseConfig{URL: tt.dbURL},
				Auth:     AuthConfig{JWTSigningKey: tt.key},
			}
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInsecureSigningKey)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestFromEnv_UnsetSigningKeyFailsValidationWithDatabase(t *testing.T) {
	t.Setenv("JWT_SIGNING_KEY", "")
	t.Setenv("DATABASE_URL", "postgres://siappa@db/siappa")

	cfg := FromEnv()

	assert.Equal(t, DevJWTSigningKey, cfg.Auth.JWTSigningKey)
	assert.ErrorIs(t, cfg.Validate(), ErrInsecureSigningKey)
}

func TestFromEnv_TrustedProxies(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 127.0.0.1")

	cfg := FromEnv()

	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, cfg.RateLimit.TrustedProxies)
}
