package engine

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

// Cache provides 2-tier caching: L1 in-memory + L2 Redis.
// L1 is fast but lost on restart. L2 survives restarts.
var store atomic.Pointer[tieredCache]

// Cache hit/miss counters.
var (
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
)

// tieredCache implements L1 (expirable LRU) + L2 (Redis) caching.
type tieredCache struct {
	l1  *expirable.LRU[string, []byte]
	rdb *redis.Client // nil if Redis unavailable
	ttl time.Duration
}

// InitCache sets up the 2-tier cache. Call after Init().
// redisURL can be empty to disable L2. Calling it again replaces the cache.
func InitCache(redisURL string, ttl time.Duration, maxEntries int) {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	c := &tieredCache{
		l1:  expirable.NewLRU[string, []byte](maxEntries, nil, ttl),
		ttl: ttl,
	}

	if redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			slog.Warn("cache: invalid redis URL, L2 disabled", slog.Any("error", err))
		} else {
			rdb := redis.NewClient(opts)
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := rdb.Ping(ctx).Err(); err != nil {
				slog.Warn("cache: redis unreachable, L2 disabled", slog.Any("error", err))
				_ = rdb.Close()
			} else {
				c.rdb = rdb
				slog.Info("cache: L2 redis connected", slog.String("addr", opts.Addr))
			}
		}
	}

	store.Store(c)
	slog.Info("cache: initialized", slog.Duration("ttl", ttl), slog.Bool("redis", c.rdb != nil), slog.Int("max_entries", maxEntries))
}

// CacheKey builds a deterministic cache key from parts.
func CacheKey(parts ...string) string {
	joined := strings.Join(parts, "|")
	hash := sha256.Sum256([]byte(joined))
	return fmt.Sprintf("gv:%x", hash[:12]) // 24-char hex prefix
}

// CacheGet tries L1, then L2. On L2 hit, populates L1.
func CacheGet(ctx context.Context, key string) ([]byte, bool) {
	c := store.Load()
	if c == nil {
		cacheMisses.Add(1)
		return nil, false
	}

	if data, ok := c.l1.Get(key); ok {
		slog.Debug("cache: L1 hit", slog.String("key", key))
		cacheHits.Add(1)
		return data, true
	}

	if c.rdb != nil {
		data, err := c.rdb.Get(ctx, key).Bytes()
		if err == nil {
			slog.Debug("cache: L2 hit", slog.String("key", key))
			cacheHits.Add(1)
			c.l1.Add(key, data)
			return data, true
		}
	}

	cacheMisses.Add(1)
	return nil, false
}

// CacheSet stores value in both L1 and L2.
func CacheSet(ctx context.Context, key string, data []byte) {
	c := store.Load()
	if c == nil {
		return
	}
	c.l1.Add(key, data)
	if c.rdb != nil {
		if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			slog.Debug("cache: L2 set failed", slog.Any("error", err))
		}
	}
}

// Verdict kinds.
const (
	VerdictEmbed = "embed" // URL Verifier
	VerdictLink  = "link"  // Generic Link Validator
)

// CacheGetVerdict returns a cached predicate verdict for url.
// The second result reports whether a verdict was cached at all.
func CacheGetVerdict(ctx context.Context, kind, url string) (valid, ok bool) {
	data, ok := CacheGet(ctx, CacheKey("verdict", kind, url))
	if !ok || len(data) != 1 {
		return false, false
	}
	return data[0] == '1', true
}

// CacheSetVerdict stores a positive or negative verdict for url.
func CacheSetVerdict(ctx context.Context, kind, url string, valid bool) {
	v := []byte{'0'}
	if valid {
		v[0] = '1'
	}
	CacheSet(ctx, CacheKey("verdict", kind, url), v)
}

// CacheStats returns current cache hit/miss counters.
func CacheStats() (hits, misses int64) {
	return cacheHits.Load(), cacheMisses.Load()
}
