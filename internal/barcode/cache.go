package barcode

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// LookupCache keeps recent tier-1 scan hits in Redis. All fields of a
// code live under one hash key so a single DEL invalidates every scope
// variant after a mutation. Strictly best effort: cache failures degrade
// to a database lookup.
type LookupCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewLookupCache builds LookupCache.
func NewLookupCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *LookupCache {
	return &LookupCache{client: client, ttl: ttl, logger: logger}
}

func lookupKey(code string) string {
	return "scan:" + code
}

func lookupField(businessID int64, global bool) string {
	return fmt.Sprintf("%d:%t", businessID, global)
}

// Get returns a cached match for the code under the given scope.
func (c *LookupCache) Get(ctx context.Context, code string, businessID int64, global bool) (Match, bool) {
	if c == nil || c.client == nil {
		return Match{}, false
	}
	raw, err := c.client.HGet(ctx, lookupKey(code), lookupField(businessID, global)).Result()
	if err != nil {
		if err != redis.Nil && c.logger != nil {
			c.logger.Warn("lookup cache get", slog.Any("error", err))
		}
		return Match{}, false
	}
	var m Match
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return Match{}, false
	}
	return m, true
}

// Set stores a match for the code under the given scope.
func (c *LookupCache) Set(ctx context.Context, code string, businessID int64, global bool, m Match) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return
	}
	key := lookupKey(code)
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, lookupField(businessID, global), raw)
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil && c.logger != nil {
		c.logger.Warn("lookup cache set", slog.Any("error", err))
	}
}

// Invalidate drops every cached scope variant of a code.
func (c *LookupCache) Invalidate(ctx context.Context, code string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, lookupKey(code)).Err(); err != nil && c.logger != nil {
		c.logger.Warn("lookup cache invalidate", slog.Any("error", err))
	}
}
