// Package classification looks up regulatory labels for accounts.
package classification

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/altiplano-fin/altiplano/internal/balance"
)

// Repository reads the regulatory classification list from Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the classification repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Tags returns the classification tags for the given account numbers.
// Accounts with no classification are simply absent from the result.
func (r *Repository) Tags(ctx context.Context, accounts []string) (map[string]balance.ClassificationTags, error) {
	if r == nil || r.pool == nil {
		return nil, fmt.Errorf("classification repo not initialised")
	}
	if len(accounts) == 0 {
		return map[string]balance.ClassificationTags{}, nil
	}
	const query = `
SELECT account, eri, short_desc, long_desc, category
FROM regulatory_classifications
WHERE account = ANY($1)`
	rows, err := r.pool.Query(ctx, query, accounts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]balance.ClassificationTags, len(accounts))
	for rows.Next() {
		var (
			account string
			tags    balance.ClassificationTags
		)
		if err := rows.Scan(&account, &tags.ERI, &tags.ShortDesc, &tags.LongDesc, &tags.Category); err != nil {
			return nil, err
		}
		out[account] = tags
	}
	return out, rows.Err()
}
