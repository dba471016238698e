package store

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// RateFinder resolves a currency code to its rate against the base currency.
type RateFinder interface {
	FindRateByCode(ctx context.Context, code string) (decimal.Decimal, error)
}

// RateCache is a read-through Redis cache in front of a RateFinder. Only
// successful lookups are cached; a missing currency always reaches the
// underlying store so it can never be served from a stale cache entry.
type RateCache struct {
	source RateFinder
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRateCache creates a cache around source. A nil client degrades to
// direct store lookups.
func NewRateCache(source RateFinder, client redis.UniversalClient, prefix string, ttl time.Duration) *RateCache {
	trimmedPrefix := strings.TrimSpace(prefix)
	if trimmedPrefix == "" {
		trimmedPrefix = "finflow:rates"
	}
	trimmedPrefix = strings.TrimSuffix(trimmedPrefix, ":")

	return &RateCache{
		source: source,
		client: client,
		prefix: trimmedPrefix,
		ttl:    ttl,
	}
}

// FindRateByCode returns the cached rate for code, falling back to the
// underlying store on a miss or any Redis failure.
func (c *RateCache) FindRateByCode(ctx context.Context, code string) (decimal.Decimal, error) {
	if c.client == nil {
		return c.source.FindRateByCode(ctx, code)
	}

	key := c.key(code)
	if raw, err := c.client.Get(ctx, key).Result(); err == nil {
		if rate, parseErr := decimal.NewFromString(raw); parseErr == nil {
			return rate, nil
		}
	}

	rate, err := c.source.FindRateByCode(ctx, code)
	if err != nil {
		return decimal.Decimal{}, err
	}
	// Best effort: a failed cache write only costs the next lookup a store hit.
	c.client.Set(ctx, key, rate.String(), c.ttl)
	return rate, nil
}

// Invalidate drops the cached entries for the given codes. Called after a
// rate refresh so the next lookup sees the new table.
func (c *RateCache) Invalidate(ctx context.Context, codes []string) error {
	if c.client == nil || len(codes) == 0 {
		return nil
	}
	keys := make([]string, 0, len(codes))
	for _, code := range codes {
		keys = append(keys, c.key(code))
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *RateCache) key(code string) string {
	return c.prefix + ":" + code
}
