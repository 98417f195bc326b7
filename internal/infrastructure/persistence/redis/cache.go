// Package redis implements the Redis cache layer of Synk Hub.
//
// Key components:
//   - Cache: general-purpose JSON caching with TTL management
//   - MatchCache: short-lived ranked match lists
//   - RecommendationCache: the current recommendation batch per user
package redis

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/quickksynkk/synk-hub/config"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrCacheMiss is returned when the requested key is not found in cache.
	ErrCacheMiss = errors.New("cache: key not found")

	// ErrCacheConnection is returned when Redis connection fails.
	ErrCacheConnection = errors.New("cache: connection failed")

	// ErrCacheSerialization is returned when serialization/deserialization fails.
	ErrCacheSerialization = errors.New("cache: serialization failed")

	// ErrCacheInvalidTTL is returned when an invalid TTL is provided.
	ErrCacheInvalidTTL = errors.New("cache: invalid TTL")

	// ErrCacheKeyEmpty is returned when an empty key is provided.
	ErrCacheKeyEmpty = errors.New("cache: key cannot be empty")

	// ErrCacheNilValue is returned when attempting to cache a nil value.
	ErrCacheNilValue = errors.New("cache: value cannot be nil")
)

// ══════════════════════════════════════════════════════════════════════════════
// KEY PREFIXES & TTLs
// ══════════════════════════════════════════════════════════════════════════════

// Key prefixes for namespacing Redis keys.
const (
	// PrefixMatches is the prefix for ranked match lists.
	PrefixMatches = "matches:"

	// PrefixRecommendations is the prefix for recommendation batches.
	PrefixRecommendations = "recommendations:"
)

// Default TTL values for cached data.
const (
	// TTLMatches is the default TTL of a ranked match list.
	TTLMatches = 5 * time.Minute

	// TTLRecommendations is the default TTL of a cached recommendation batch.
	TTLRecommendations = time.Hour
)

// ══════════════════════════════════════════════════════════════════════════════
// CACHE CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Cache provides general-purpose caching functionality with Redis.
// Values are stored as JSON.
type Cache struct {
	client *redis.Client
}

// NewCache connects to Redis and verifies the connection with a ping.
func NewCache(ctx context.Context, cfg config.RedisConfig) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	pingCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", ErrCacheConnection, err)
	}

	return &Cache{client: client}, nil
}

// NewCacheFromClient wraps an existing client. Used by tests against miniredis.
func NewCacheFromClient(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Client returns the underlying Redis client.
func (c *Cache) Client() *redis.Client {
	return c.client
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Ping checks if Redis is reachable.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// ══════════════════════════════════════════════════════════════════════════════
// BASIC OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// Set stores a value with the given key and TTL.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if key == "" {
		return ErrCacheKeyEmpty
	}
	if value == nil {
		return ErrCacheNilValue
	}
	if ttl < 0 {
		return ErrCacheInvalidTTL
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}

	return c.client.Set(ctx, key, data, ttl).Err()
}

// Get retrieves and deserializes a value by key.
// Returns ErrCacheMiss if the key doesn't exist.
func (c *Cache) Get(ctx context.Context, key string, dest any) error {
	if key == "" {
		return ErrCacheKeyEmpty
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}
	return nil
}

// Delete removes keys from the cache.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// DeleteByPattern deletes all keys matching a glob pattern using SCAN.
// Returns the number of deleted keys.
func (c *Cache) DeleteByPattern(ctx context.Context, pattern string) (int, error) {
	if pattern == "" {
		return 0, ErrCacheKeyEmpty
	}

	const batchSize = 100

	iter := c.client.Scan(ctx, 0, pattern, batchSize).Iterator()
	keys := make([]string, 0, batchSize)
	deleted := 0

	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) >= batchSize {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return deleted, err
			}
			deleted += len(keys)
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, err
	}

	if len(keys) > 0 {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			return deleted, err
		}
		deleted += len(keys)
	}
	return deleted, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// KEY HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// RecommendationsKey generates the cache key of a user's recommendation batch.
func RecommendationsKey(userID string) string {
	return PrefixRecommendations + userID
}

// MatchesKey generates the cache key of a ranked match query. minScore is
// written in its shortest exact form so distinct thresholds never share a key.
func MatchesKey(userID string, limit int, minScore float64, narrow bool) string {
	return fmt.Sprintf("%s%s:%d:%s:%t",
		PrefixMatches, keySegment(userID), limit, strconv.FormatFloat(minScore, 'g', -1, 64), narrow)
}

// MatchesPattern matches every cached query of a user and nobody else's.
func MatchesPattern(userID string) string {
	return PrefixMatches + keySegment(userID) + ":*"
}

// keySegment escapes a user ID for use inside a key and a SCAN pattern. The
// result holds no ':' and no glob metacharacters.
func keySegment(id string) string {
	return url.QueryEscape(id)
}
