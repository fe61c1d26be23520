// catalog.go provides a Valkey-backed cache for encoded catalog
// responses. Public listing and detail endpoints serve identical JSON to
// every anonymous visitor, so the encoded payload is stored in Valkey
// and subsequent requests skip the store query entirely. Admin writes
// invalidate the affected keys.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// catalogKeyPrefix is the Valkey key prefix for cached catalog payloads.
	catalogKeyPrefix = "catalog:"

	// DefaultCatalogTTL is how long a catalog payload stays cached.
	DefaultCatalogTTL = 5 * time.Minute
)

// CatalogCache manages encoded catalog responses in Valkey.
type CatalogCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCatalogCache creates a catalog cache backed by the given Valkey client.
func NewCatalogCache(client *redis.Client, ttl time.Duration) *CatalogCache {
	if ttl == 0 {
		ttl = DefaultCatalogTTL
	}
	return &CatalogCache{client: client, ttl: ttl}
}

// Get retrieves a cached payload. The second return reports a hit.
func (cc *CatalogCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := cc.client.Get(ctx, catalogKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("catalog cache get error", "key", key, "error", err)
		return nil, false
	}
	slog.Debug("catalog cache hit", "key", key)
	return val, true
}

// Set stores an encoded payload with the configured TTL.
func (cc *CatalogCache) Set(ctx context.Context, key string, payload []byte) {
	if err := cc.client.Set(ctx, catalogKeyPrefix+key, payload, cc.ttl).Err(); err != nil {
		slog.Warn("catalog cache set error", "key", key, "error", err)
	}
}

// Invalidate removes a single payload from the cache.
func (cc *CatalogCache) Invalidate(ctx context.Context, key string) {
	if err := cc.client.Del(ctx, catalogKeyPrefix+key).Err(); err != nil {
		slog.Warn("catalog cache invalidate error", "key", key, "error", err)
	}
	slog.Debug("catalog cache invalidated", "key", key)
}

// InvalidateProducts drops the product listing and every product detail
// payload. Called after any admin write to the products collection.
func (cc *CatalogCache) InvalidateProducts(ctx context.Context) {
	cc.invalidatePrefix(ctx, "products")
}

// InvalidateBundles drops the bundle listing and every bundle detail
// payload. Called after any admin write to the bundles collection.
func (cc *CatalogCache) InvalidateBundles(ctx context.Context) {
	cc.invalidatePrefix(ctx, "bundles")
}

// invalidatePrefix removes all payloads under a collection prefix by
// scanning for the pattern.
func (cc *CatalogCache) invalidatePrefix(ctx context.Context, prefix string) {
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := cc.client.Scan(ctx, cursor, catalogKeyPrefix+prefix+"*", 100).Result()
		if err != nil {
			slog.Warn("catalog cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := cc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("catalog cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Info("catalog cache cleared", "prefix", prefix, "deleted", deleted)
	}
}

// ProductListKey returns the cache key for the public product listing.
func ProductListKey() string {
	return "products"
}

// ProductKey returns the cache key for a product detail payload.
func ProductKey(slug string) string {
	return "products:" + slug
}

// BundleListKey returns the cache key for the public bundle listing.
func BundleListKey() string {
	return "bundles"
}

// BundleKey returns the cache key for a bundle detail payload.
func BundleKey(slug string) string {
	return "bundles:" + slug
}
