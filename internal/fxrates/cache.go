package fxrates

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/altiplano-fin/altiplano/internal/money"
)

// Source resolves a single exchange rate.
type Source interface {
	Rate(ctx context.Context, rt RateType, from, to money.Currency, on time.Time) (decimal.Decimal, error)
}

// CachedSource is a read-through Redis cache in front of a rate source.
// Only resolved rates are cached; a missing rate is always re-checked so a
// late-arriving quote becomes visible without invalidation.
type CachedSource struct {
	source Source
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedSource wraps a source with a Redis cache.
func NewCachedSource(source Source, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedSource {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedSource{source: source, client: client, ttl: ttl, logger: logger}
}

func cacheKey(rt RateType, from, to money.Currency, on time.Time) string {
	return fmt.Sprintf("fx:%s:%s:%s:%s", rt, from, to, on.Format("2006-01-02"))
}

// Rate resolves through the cache, falling back to the source on miss or on
// any Redis failure.
func (c *CachedSource) Rate(ctx context.Context, rt RateType, from, to money.Currency, on time.Time) (decimal.Decimal, error) {
	if c == nil || c.source == nil {
		return decimal.Zero, fmt.Errorf("fxrates cache not initialised")
	}
	key := cacheKey(rt, from, to, on)
	if c.client != nil {
		raw, err := c.client.Get(ctx, key).Result()
		switch {
		case err == nil:
			rate, perr := decimal.NewFromString(raw)
			if perr == nil {
				return rate, nil
			}
			c.logger.Warn("discarding corrupt cached rate", slog.String("key", key), slog.Any("error", perr))
		case !errors.Is(err, redis.Nil):
			c.logger.Warn("rate cache read failed", slog.String("key", key), slog.Any("error", err))
		}
	}
	rate, err := c.source.Rate(ctx, rt, from, to, on)
	if err != nil {
		return decimal.Zero, err
	}
	if c.client != nil {
		if err := c.client.Set(ctx, key, rate.String(), c.ttl).Err(); err != nil {
			c.logger.Warn("rate cache write failed", slog.String("key", key), slog.Any("error", err))
		}
	}
	return rate, nil
}
