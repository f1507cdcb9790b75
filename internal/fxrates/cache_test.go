package fxrates

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altiplano-fin/altiplano/internal/money"
)

type stubSource struct {
	rate  decimal.Decimal
	err   error
	calls int
}

func (s *stubSource) Rate(_ context.Context, rt RateType, from, to money.Currency, on time.Time) (decimal.Decimal, error) {
	s.calls++
	if s.err != nil {
		return decimal.Zero, s.err
	}
	return s.rate, nil
}

func testClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestCachedSourceReadThrough(t *testing.T) {
	source := &stubSource{rate: decimal.RequireFromString("18.50")}
	cached := NewCachedSource(source, testClient(t), time.Minute, nil)
	on := time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)

	first, err := cached.Rate(context.Background(), RateTypeDaily, money.MXN, money.USD, on)
	require.NoError(t, err)
	assert.True(t, first.Equal(decimal.RequireFromString("18.50")))

	second, err := cached.Rate(context.Background(), RateTypeDaily, money.MXN, money.USD, on)
	require.NoError(t, err)
	assert.True(t, second.Equal(first))
	assert.Equal(t, 1, source.calls, "second lookup must hit the cache")
}

func TestCachedSourceDistinctKeysPerTypeAndDate(t *testing.T) {
	source := &stubSource{rate: decimal.RequireFromString("18.50")}
	cached := NewCachedSource(source, testClient(t), time.Minute, nil)
	on := time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)

	_, err := cached.Rate(context.Background(), RateTypeDaily, money.MXN, money.USD, on)
	require.NoError(t, err)
	_, err = cached.Rate(context.Background(), RateTypeClosing, money.MXN, money.USD, on)
	require.NoError(t, err)
	_, err = cached.Rate(context.Background(), RateTypeDaily, money.MXN, money.USD, on.AddDate(0, 0, 1))
	require.NoError(t, err)

	assert.Equal(t, 3, source.calls)
}

func TestCachedSourceDoesNotCacheMisses(t *testing.T) {
	on := time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)
	missing := &MissingRateError{Type: RateTypeDaily, From: money.MXN, To: money.UDI, On: on}
	source := &stubSource{err: missing}
	cached := NewCachedSource(source, testClient(t), time.Minute, nil)

	_, err := cached.Rate(context.Background(), RateTypeDaily, money.MXN, money.UDI, on)
	require.ErrorAs(t, err, new(*MissingRateError))

	_, err = cached.Rate(context.Background(), RateTypeDaily, money.MXN, money.UDI, on)
	require.Error(t, err)
	assert.Equal(t, 2, source.calls, "a miss must be re-checked, never cached")
}

func TestCachedSourceFallsBackWhenRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mr.Close()

	source := &stubSource{rate: decimal.RequireFromString("18.50")}
	cached := NewCachedSource(source, client, time.Minute, nil)
	on := time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)

	rate, err := cached.Rate(context.Background(), RateTypeDaily, money.MXN, money.USD, on)
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.RequireFromString("18.50")))
}

func TestMissingRateErrorMessageNamesCurrencyAndDate(t *testing.T) {
	err := &MissingRateError{
		Type: RateTypeClosing,
		From: money.MXN,
		To:   money.USD,
		On:   time.Date(2026, time.January, 30, 0, 0, 0, 0, time.UTC),
	}
	assert.Contains(t, err.Error(), "USD")
	assert.Contains(t, err.Error(), "2026-01-30")
	assert.Contains(t, err.Error(), "CLOSING")
}
