package fxrates

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/altiplano-fin/altiplano/internal/money"
	"github.com/altiplano-fin/altiplano/internal/platform/db"
)

// Repository reads and writes exchange rates in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the exchange rate repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Rate resolves the quote for (rate type, pair, date). A missing tuple
// returns a MissingRateError naming the currency and date.
func (r *Repository) Rate(ctx context.Context, rt RateType, from, to money.Currency, on time.Time) (decimal.Decimal, error) {
	if r == nil || r.pool == nil {
		return decimal.Zero, fmt.Errorf("fxrates repo not initialised")
	}
	const query = `
SELECT rate::text
FROM fx_rates
WHERE rate_type = $1 AND base = $2 AND quote = $3 AND rate_date = $4
LIMIT 1`
	var raw string
	err := r.pool.QueryRow(ctx, query, string(rt), string(from), string(to), on).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, &MissingRateError{Type: rt, From: from, To: to, On: on}
		}
		return decimal.Zero, err
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse rate %s->%s on %s: %w", from, to, on.Format("2006-01-02"), err)
	}
	return rate, nil
}

// QuoteInput is one exchange rate to be stored by ImportRates.
type QuoteInput struct {
	Type RateType
	From money.Currency
	To   money.Currency
	On   time.Time
	Rate decimal.Decimal
}

// ImportRates upserts exchange rate quotes in one transaction, replacing
// existing rows for the same tuple.
func (r *Repository) ImportRates(ctx context.Context, quotes []QuoteInput) error {
	if r == nil || r.pool == nil {
		return fmt.Errorf("fxrates repo not initialised")
	}
	if len(quotes) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	const query = `
INSERT INTO fx_rates (rate_type, base, quote, rate_date, rate)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (rate_type, base, quote, rate_date)
DO UPDATE SET rate = EXCLUDED.rate`
	for _, quote := range quotes {
		rt := RateType(strings.ToUpper(strings.TrimSpace(string(quote.Type))))
		if rt != RateTypeDaily && rt != RateTypeClosing {
			return fmt.Errorf("unknown rate type %q", quote.Type)
		}
		if !money.Valid(quote.From) || !money.Valid(quote.To) {
			return fmt.Errorf("unknown currency pair %s->%s", quote.From, quote.To)
		}
		if quote.On.IsZero() {
			return fmt.Errorf("rate date required for %s->%s", quote.From, quote.To)
		}
		if !quote.Rate.IsPositive() {
			return fmt.Errorf("rate must be positive for %s->%s %s", quote.From, quote.To, quote.On.Format("2006-01-02"))
		}
		batch.Queue(query, string(rt), string(quote.From), string(quote.To), quote.On, quote.Rate.String())
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		results := tx.SendBatch(ctx, batch)
		for range quotes {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				var pgErr *pgconn.PgError
				if errors.As(err, &pgErr) {
					return fmt.Errorf("import rates: %s (%s)", pgErr.Message, pgErr.Code)
				}
				return err
			}
		}
		return results.Close()
	})
}
