package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"go-gluten-scan/pkg/logger"
)

// cachedClient is a read-through cache in front of a catalog client. Only
// successful lookups are cached; not-found and upstream failures always go
// back to the source. Cache trouble degrades to a plain lookup.
type cachedClient struct {
	inner Client
	rdb   *redis.Client
	ttl   time.Duration
}

// NewCached wraps a catalog client with a redis barcode cache.
func NewCached(inner Client, rdb *redis.Client, ttl time.Duration) Client {
	return &cachedClient{inner: inner, rdb: rdb, ttl: ttl}
}

func cacheKey(barcode string) string {
	return "catalog:barcode:" + barcode
}

func (c *cachedClient) Lookup(ctx context.Context, barcode string) (*Candidate, error) {
	if raw, err := c.rdb.Get(ctx, cacheKey(barcode)).Bytes(); err == nil {
		var cand Candidate
		if json.Unmarshal(raw, &cand) == nil {
			return &cand, nil
		}
	} else if err != redis.Nil {
		logger.L.Warn("catalog cache read failed", "barcode", barcode, "error", err)
	}

	cand, err := c.inner.Lookup(ctx, barcode)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(cand); err == nil {
		if err := c.rdb.Set(ctx, cacheKey(barcode), raw, c.ttl).Err(); err != nil {
			logger.L.Warn("catalog cache write failed", "barcode", barcode, "error", err)
		}
	}
	return cand, nil
}
