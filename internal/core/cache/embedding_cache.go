// Package cache is a content-addressed embedding cache in front of the embedding provider.
//
// The cache is an optimization, never a source of truth: every backend failure
// degrades to a miss on Lookup and to a no-op on Store.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/text/unicode/norm"

	"github.com/markdave123-py/docscope/internal/contextutil"
)

const (
	docKeyPrefix   = "embeddings:doc:"
	queryKeyPrefix = "embeddings:query:"
)

// EmbeddingCache maps content hashes to embedding vectors.
// A nil client disables the cache.
type EmbeddingCache struct {
	client  redis.UniversalClient
	timeout time.Duration
	dim     int
}

// NewEmbeddingCache returns a cache whose entries must have dim components;
// entries of any other width are misses. A dim <= 0 accepts any width.
func NewEmbeddingCache(client redis.UniversalClient, timeout time.Duration, dim int) *EmbeddingCache {
	return &EmbeddingCache{client: client, timeout: timeout, dim: dim}
}

// Disabled returns a cache that always misses.
func Disabled() *EmbeddingCache {
	return &EmbeddingCache{}
}

var shared struct {
	once   sync.Once
	client *redis.Client
}

// Shared returns the process-wide Redis client, creating it on first use.
// Later calls reuse the first client regardless of url. An empty or invalid
// url yields nil, which callers treat as a disabled cache.
func Shared(url string) *redis.Client {
	shared.once.Do(func() {
		if url == "" {
			return
		}
		opts, err := redis.ParseURL(url)
		if err != nil {
			slog.Warn("embedding cache disabled: invalid redis url", "error", err)
			return
		}
		shared.client = redis.NewClient(opts)
	})
	return shared.client
}

// DocChunkKey is the cache key for a document chunk's embedding.
func DocChunkKey(text string) string {
	return docKeyPrefix + contentHash(text)
}

// QueryKey is the cache key for a query embedding.
func QueryKey(text string) string {
	return queryKeyPrefix + contentHash(text)
}

func contentHash(text string) string {
	sum := sha256.Sum256([]byte(norm.NFC.String(strings.TrimSpace(text))))
	return hex.EncodeToString(sum[:])
}

// Lookup returns one entry per key, in key order; absent or unreadable entries are nil.
func (c *EmbeddingCache) Lookup(ctx context.Context, keys []string) [][]float32 {
	out := make([][]float32, len(keys))
	if len(keys) == 0 || c.client == nil {
		return out
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil || len(values) != len(keys) {
		contextutil.LoggerFromContext(ctx).DebugContext(ctx, "embedding cache lookup failed; treating as miss", "keys", len(keys), "error", err)
		return out
	}

	for i, v := range values {
		raw, ok := v.(string)
		if !ok || raw == "" {
			continue
		}
		var vec []float32
		if err := json.Unmarshal([]byte(raw), &vec); err != nil || len(vec) == 0 {
			contextutil.LoggerFromContext(ctx).DebugContext(ctx, "embedding cache entry malformed; treating as miss", "key", keys[i])
			continue
		}
		if c.dim > 0 && len(vec) != c.dim {
			contextutil.LoggerFromContext(ctx).DebugContext(ctx, "embedding cache entry has wrong width; treating as miss", "key", keys[i], "width", len(vec), "dim", c.dim)
			continue
		}
		out[i] = vec
	}
	return out
}

// Store writes vec under key. A ttl <= 0 stores without expiry.
func (c *EmbeddingCache) Store(ctx context.Context, key string, vec []float32, ttl time.Duration) {
	if c.client == nil || len(vec) == 0 || (c.dim > 0 && len(vec) != c.dim) {
		return
	}
	payload, err := json.Marshal(vec)
	if err != nil {
		return
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if ttl < 0 {
		ttl = 0
	}
	if err := c.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		contextutil.LoggerFromContext(ctx).DebugContext(ctx, "embedding cache store failed", "key", key, "error", err)
	}
}

func (c *EmbeddingCache) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}
