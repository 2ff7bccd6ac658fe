// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// response.go provides a Valkey-backed JSON response cache for the public
// v1 endpoints. Keys encode the entity and its location or region code so
// mutating handlers can revalidate exactly the pages a write affects.
// Cache failures degrade to a database read, never to an error.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// responseKeyPrefix namespaces v1 response keys in Valkey.
	responseKeyPrefix = "v1:"

	// DefaultResponseTTL is how long a public response stays cached.
	DefaultResponseTTL = 15 * time.Minute
)

// ResponseCache manages cached public API responses in Valkey.
type ResponseCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResponseCache creates a response cache backed by the given client.
func NewResponseCache(client *redis.Client, ttl time.Duration) *ResponseCache {
	if ttl == 0 {
		ttl = DefaultResponseTTL
	}
	return &ResponseCache{client: client, ttl: ttl}
}

// HotspotKey is the cache key for one hotspot's public response.
func HotspotKey(locationID string) string {
	return "hotspot:" + locationID
}

// RegionKey is the cache key for one region's public response.
func RegionKey(code string) string {
	return "region:" + code
}

// Get retrieves a cached response body. Returns false on miss.
func (rc *ResponseCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := rc.client.Get(ctx, responseKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("response cache get error", "key", key, "error", err)
		return nil, false
	}
	return val, true
}

// Set stores a response body with the configured TTL.
func (rc *ResponseCache) Set(ctx context.Context, key string, body []byte) {
	if err := rc.client.Set(ctx, responseKeyPrefix+key, body, rc.ttl).Err(); err != nil {
		slog.Warn("response cache set error", "key", key, "error", err)
	}
}

// InvalidateLocation revalidates one hotspot's cached response together
// with the region listings that embed it.
func (rc *ResponseCache) InvalidateLocation(ctx context.Context, locationID string, regionCodes []string) {
	keys := []string{responseKeyPrefix + HotspotKey(locationID)}
	for _, code := range regionCodes {
		if code != "" {
			keys = append(keys, responseKeyPrefix+RegionKey(code))
		}
	}
	if err := rc.client.Del(ctx, keys...).Err(); err != nil {
		slog.Warn("response cache invalidate error", "locationId", locationID, "error", err)
	}
	slog.Debug("response cache invalidated", "locationId", locationID, "keys", len(keys))
}

// InvalidateRegions revalidates the cached listings for the given region
// codes. Used after group, drive, and article mutations where no single
// hotspot page is affected.
func (rc *ResponseCache) InvalidateRegions(ctx context.Context, regionCodes []string) {
	var keys []string
	for _, code := range regionCodes {
		if code != "" {
			keys = append(keys, responseKeyPrefix+RegionKey(code))
		}
	}
	if len(keys) == 0 {
		return
	}
	if err := rc.client.Del(ctx, keys...).Err(); err != nil {
		slog.Warn("response cache invalidate error", "regions", regionCodes, "error", err)
	}
}

// InvalidateAll removes every cached public response by scanning for the
// prefix. Used after bulk operations like the cleanup cron.
func (rc *ResponseCache) InvalidateAll(ctx context.Context) {
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := rc.client.Scan(ctx, cursor, responseKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("response cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := rc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("response cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Info("response cache fully cleared", "deleted", deleted)
	}
}
