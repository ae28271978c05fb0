package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultEmbeddingCacheRedisURL = "redis://localhost:6379/1"

	// DataEncryptionKeyLength is the required DATA_ENCRYPTION_KEY size in bytes (AES-256).
	DataEncryptionKeyLength = 32
)

type Config struct {
	DatabaseURL string
	SslCertPath string
	DBTimeout   time.Duration

	JWTSecret             string
	JWTExpiresMinutes     int
	SessionExpiresMinutes int
	DataEncryptionKey     string

	AIAPIKey       string
	EmbedModel     string
	EmbedDim       int
	EmbedBatchSize int
	EmbedTimeout   time.Duration
	GenModel       string
	GenTimeout     time.Duration

	EmbeddingCacheRedisURL     string
	EmbeddingCacheDocTTLSecs   int
	EmbeddingCacheQueryTTLSecs int
	EmbeddingCacheTimeout      time.Duration

	ChunkSize    int
	ChunkOverlap int

	UploadMaxFiles         int
	UploadMaxFileSizeBytes int64

	RateLimitDefault RateLimit
	RateLimitAuth    RateLimit
	RateLimitUpload  RateLimit
	RateLimitAsk     RateLimit

	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string
	BucketName   string

	SessionCleanupInterval time.Duration

	Port               string
	RequestTimeout     time.Duration
	CORSAllowedOrigins []string
	LogLevel           slog.Level
	LogFormat          string
}

// RateLimit is a request budget per minute with a burst allowance.
type RateLimit struct {
	PerMinute int
	Burst     int
}

// LoadConfig loads the environment (and an optional .env file) and returns the config.
func LoadConfig() (*Config, error) {

	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		SslCertPath: getEnv("SSL_CERT_PATH", ""),
		DBTimeout:   getEnvDuration("DB_TIMEOUT", 10*time.Second),

		JWTSecret:             getEnv("JWT_SECRET", ""),
		JWTExpiresMinutes:     getEnvInt("JWT_EXPIRES_MINUTES", 1440),
		SessionExpiresMinutes: getEnvInt("SESSION_EXPIRES_MINUTES", 1440),
		DataEncryptionKey:     getEnv("DATA_ENCRYPTION_KEY", ""),

		AIAPIKey:       getEnv("GEMINI_API_KEY", ""),
		EmbedModel:     getEnv("EMBED_MODEL", "text-embedding-004"),
		EmbedDim:       getEnvInt("EMBED_DIM", 768),
		EmbedBatchSize: getEnvInt("EMBED_BATCH_SIZE", 100),
		EmbedTimeout:   getEnvDuration("EMBED_TIMEOUT", 30*time.Second),
		GenModel:       getEnv("GEN_MODEL", "gemini-1.5-flash"),
		GenTimeout:     getEnvDuration("GEN_TIMEOUT", 60*time.Second),

		EmbeddingCacheRedisURL:     getEnv("EMBEDDING_CACHE_REDIS_URL", defaultEmbeddingCacheRedisURL),
		EmbeddingCacheDocTTLSecs:   getEnvInt("EMBEDDING_CACHE_DOC_TTL_SECONDS", 43200),
		EmbeddingCacheQueryTTLSecs: getEnvInt("EMBEDDING_CACHE_QUERY_TTL_SECONDS", 3600),
		EmbeddingCacheTimeout:      getEnvDuration("EMBEDDING_CACHE_TIMEOUT", 500*time.Millisecond),

		ChunkSize:    getEnvInt("CHUNK_SIZE", 1000),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 100),

		UploadMaxFiles:         getEnvInt("UPLOAD_MAX_FILES", 5),
		UploadMaxFileSizeBytes: int64(getEnvInt("UPLOAD_MAX_FILE_SIZE_BYTES", 10*1024*1024)),

		RateLimitDefault: getEnvRateLimit("RATE_LIMIT_DEFAULT", RateLimit{PerMinute: 120, Burst: 20}),
		RateLimitAuth:    getEnvRateLimit("RATE_LIMIT_AUTH", RateLimit{PerMinute: 5, Burst: 3}),
		RateLimitUpload:  getEnvRateLimit("RATE_LIMIT_UPLOAD", RateLimit{PerMinute: 10, Burst: 5}),
		RateLimitAsk:     getEnvRateLimit("RATE_LIMIT_ASK", RateLimit{PerMinute: 60, Burst: 10}),

		AwsAccessKey: getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey: getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:    getEnv("AWS_REGION", "us-east-2"),
		BucketName:   getEnv("BUCKET_NAME", ""),

		SessionCleanupInterval: time.Duration(getEnvInt("SESSION_CLEANUP_INTERVAL_MINUTES", 60)) * time.Minute,

		Port:               getEnv("PORT", "8080"),
		RequestTimeout:     getEnvDuration("REQUEST_TIMEOUT", 2*time.Minute),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		LogLevel:           getEnvLogLevel("LOG_LEVEL", slog.LevelInfo),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
	}

	if pw := getEnv("REDIS_PASSWORD", ""); pw != "" && cfg.EmbeddingCacheRedisURL == defaultEmbeddingCacheRedisURL {
		u, _ := url.Parse(defaultEmbeddingCacheRedisURL)
		u.User = url.UserPassword("", pw)
		cfg.EmbeddingCacheRedisURL = u.String()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required values and cross-field constraints.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL not set")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET not set")
	}
	if len(c.DataEncryptionKey) != DataEncryptionKeyLength {
		return fmt.Errorf("DATA_ENCRYPTION_KEY must be %d bytes", DataEncryptionKeyLength)
	}
	if c.EmbedDim <= 0 {
		return fmt.Errorf("EMBED_DIM must be greater than 0")
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be greater than 0")
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE)")
	}
	if c.SessionExpiresMinutes <= 0 {
		return fmt.Errorf("SESSION_EXPIRES_MINUTES must be greater than 0")
	}
	return nil
}

// ObjectStorageEnabled reports whether originals should be archived to S3.
func (c *Config) ObjectStorageEnabled() bool {
	return c.BucketName != "" && c.AwsAccessKey != "" && c.AwsSecretKey != ""
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config value is not an int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

// getEnvList splits a comma-separated value, dropping empty items.
func getEnvList(key string, def []string) []string {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config value is not a duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

// getEnvRateLimit parses "<n>/minute" with an optional ",burst=<b>" suffix.
func getEnvRateLimit(key string, def RateLimit) RateLimit {
	v := strings.TrimSpace(getEnv(key, ""))
	if v == "" {
		return def
	}
	rl, err := ParseRateLimit(v)
	if err != nil {
		slog.Warn("config value is not a rate limit, using default", "key", key, "value", v, "error", err)
		return def
	}
	if rl.Burst == 0 {
		rl.Burst = def.Burst
	}
	return rl
}

// ParseRateLimit parses values such as "60/minute" or "10/minute,burst=5".
func ParseRateLimit(v string) (RateLimit, error) {
	var rl RateLimit
	rate, burst, hasBurst := strings.Cut(v, ",")
	count, unit, ok := strings.Cut(strings.TrimSpace(rate), "/")
	if !ok || strings.TrimSpace(unit) != "minute" {
		return rl, fmt.Errorf("expected <n>/minute, got %q", v)
	}
	n, err := strconv.Atoi(strings.TrimSpace(count))
	if err != nil || n <= 0 {
		return rl, fmt.Errorf("invalid request count in %q", v)
	}
	rl.PerMinute = n
	if hasBurst {
		b, ok := strings.CutPrefix(strings.TrimSpace(burst), "burst=")
		if !ok {
			return rl, fmt.Errorf("invalid burst in %q", v)
		}
		if rl.Burst, err = strconv.Atoi(b); err != nil || rl.Burst <= 0 {
			return rl, fmt.Errorf("invalid burst in %q", v)
		}
	}
	return rl, nil
}

func getEnvLogLevel(key string, def slog.Level) slog.Level {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(v)); err != nil {
		return def
	}
	return lvl
}
