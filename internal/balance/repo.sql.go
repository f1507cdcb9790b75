package balance

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/altiplano-fin/altiplano/internal/money"
)

// Repository reads raw posting rows from Postgres. It is read-only; derived
// rows are never persisted.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the posting repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FetchPostings returns the ordered posting rows matching the query window
// and account filter. An empty result is valid.
func (r *Repository) FetchPostings(ctx context.Context, q Query) ([]PostingRow, error) {
	if r == nil || r.pool == nil {
		return nil, fmt.Errorf("balance repo not initialised")
	}
	var sb strings.Builder
	sb.WriteString(`
SELECT ledger_id, account, account_level, sector, currency, subledger_id,
       initial_balance::text, debit::text, credit::text, current_balance::text,
       nature, row_kind, last_changed
FROM gl_balances
WHERE ledger_id = $1 AND balance_date BETWEEN $2 AND $3`)
	args := []any{q.LedgerID, q.From, q.To}
	if q.Account != "" {
		args = append(args, q.Account+"%")
		sb.WriteString(" AND account LIKE $" + strconv.Itoa(len(args)))
	}
	if q.Sector != "" {
		args = append(args, q.Sector)
		sb.WriteString(" AND sector = $" + strconv.Itoa(len(args)))
	}
	if q.Currency != "" {
		args = append(args, string(q.Currency))
		sb.WriteString(" AND currency = $" + strconv.Itoa(len(args)))
	}
	sb.WriteString(" ORDER BY account, sector, currency")

	rows, err := r.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []PostingRow
	for rows.Next() {
		var (
			p        PostingRow
			currency string
			initial  string
			debit    string
			credit   string
			current  string
			nature   int16
			kind     int16
		)
		if err := rows.Scan(&p.LedgerID, &p.Account, &p.Level, &p.Sector, &currency,
			&p.SubledgerID, &initial, &debit, &credit, &current,
			&nature, &kind, &p.LastChanged); err != nil {
			return nil, err
		}
		p.Currency = money.Currency(currency)
		if p.Initial, err = decimal.NewFromString(initial); err != nil {
			return nil, fmt.Errorf("parse initial balance for %s: %w", p.Account, err)
		}
		if p.Debit, err = decimal.NewFromString(debit); err != nil {
			return nil, fmt.Errorf("parse debit for %s: %w", p.Account, err)
		}
		if p.Credit, err = decimal.NewFromString(credit); err != nil {
			return nil, fmt.Errorf("parse credit for %s: %w", p.Account, err)
		}
		if p.Current, err = decimal.NewFromString(current); err != nil {
			return nil, fmt.Errorf("parse current balance for %s: %w", p.Account, err)
		}
		p.Nature = Nature(nature)
		p.Kind = RowKind(kind)
		result = append(result, p)
	}
	return result, rows.Err()
}
