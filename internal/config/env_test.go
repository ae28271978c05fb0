package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/docscope")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DATA_ENCRYPTION_KEY", strings.Repeat("k", DataEncryptionKeyLength))
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 1440, cfg.SessionExpiresMinutes)
	assert.Equal(t, 1000, cfg.ChunkSize)
	assert.Equal(t, 100, cfg.ChunkOverlap)
	assert.Equal(t, 43200, cfg.EmbeddingCacheDocTTLSecs)
	assert.Equal(t, 5, cfg.UploadMaxFiles)
	assert.Equal(t, int64(10*1024*1024), cfg.UploadMaxFileSizeBytes)
	assert.Equal(t, RateLimit{PerMinute: 60, Burst: 10}, cfg.RateLimitAsk)
	assert.Equal(t, time.Hour, cfg.SessionCleanupInterval)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.False(t, cfg.ObjectStorageEnabled())
}

func TestLoadConfig_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CHUNK_SIZE", "500")
	t.Setenv("CHUNK_OVERLAP", "50")
	t.Setenv("EMBED_TIMEOUT", "5s")
	t.Setenv("RATE_LIMIT_UPLOAD", "3/minute,burst=2")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("EMBED_DIM", "not-a-number")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.ChunkSize)
	assert.Equal(t, 50, cfg.ChunkOverlap)
	assert.Equal(t, 5*time.Second, cfg.EmbedTimeout)
	assert.Equal(t, RateLimit{PerMinute: 3, Burst: 2}, cfg.RateLimitUpload)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 768, cfg.EmbedDim, "invalid int falls back to default")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}

func TestLoadConfig_RedisPassword(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("REDIS_PASSWORD", "s3cret")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "redis://:s3cret@localhost:6379/1", cfg.EmbeddingCacheRedisURL)
}

func TestLoadConfig_Validation(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{name: "missing database url", key: "DATABASE_URL", value: "", wantErr: "DATABASE_URL"},
		{name: "missing jwt secret", key: "JWT_SECRET", value: "", wantErr: "JWT_SECRET"},
		{name: "short encryption key", key: "DATA_ENCRYPTION_KEY", value: "short", wantErr: "DATA_ENCRYPTION_KEY"},
		{name: "overlap not below size", key: "CHUNK_OVERLAP", value: "1000", wantErr: "CHUNK_OVERLAP"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := LoadConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseRateLimit(t *testing.T) {
	tests := []struct {
		in      string
		want    RateLimit
		wantErr bool
	}{
		{in: "120/minute", want: RateLimit{PerMinute: 120}},
		{in: "10/minute,burst=4", want: RateLimit{PerMinute: 10, Burst: 4}},
		{in: "10/second", wantErr: true},
		{in: "zero/minute", wantErr: true},
		{in: "5/minute,burst=x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRateLimit(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
