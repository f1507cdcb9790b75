package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/altiplano-fin/altiplano/internal/balance"
	balancehttp "github.com/altiplano-fin/altiplano/internal/balance/http"
	jobmetrics "github.com/altiplano-fin/altiplano/internal/jobs"
	"github.com/altiplano-fin/altiplano/internal/observability"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// ReportBuilder produces the daily difference report for one query.
type ReportBuilder interface {
	BuildDailyDifference(ctx context.Context, q balance.Query) ([]balance.DailyDifferenceRow, error)
}

// DailyWarmupJob pre-builds the current month's daily difference report per
// ledger and stores the serialized rows as warm snapshots in Redis.
type DailyWarmupJob struct {
	Reports    ReportBuilder
	Snapshots  *redis.Client
	Pool       *pgxpool.Pool
	Logger     *slog.Logger
	Metrics    *jobmetrics.Metrics
	AppMetrics *observability.Metrics
	TTL        time.Duration
	clock      func() time.Time
}

// NewDailyWarmupJob wires dependencies for the warmup handler.
func NewDailyWarmupJob(reports ReportBuilder, snapshots *redis.Client, logger *slog.Logger, metrics *jobmetrics.Metrics) *DailyWarmupJob {
	return &DailyWarmupJob{
		Reports:   reports,
		Snapshots: snapshots,
		Logger:    logger,
		Metrics:   metrics,
		TTL:       26 * time.Hour,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes snapshot warmup tasks.
func (j *DailyWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Reports == nil || j.Snapshots == nil {
		return errors.New("daily warmup: handler not configured")
	}
	var payload DailyWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskDailyWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	if len(payload.LedgerIDs) == 0 {
		ledgers, err := j.fetchLedgers(ctx)
		if err != nil {
			resultErr = err
			j.logger().Error("discover ledgers", slog.Any("error", err))
			return resultErr
		}
		payload.LedgerIDs = ledgers
	}
	if len(payload.LedgerIDs) == 0 {
		j.logger().Info("no ledgers discovered for warmup")
		return resultErr
	}

	now := j.now()
	to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	logger := j.logger().With(
		slog.Time("from", from),
		slog.Time("to", to),
	)
	logger.Info("starting daily snapshot warmup", slog.Int("ledgers", len(payload.LedgerIDs)))

	warmed := 0
	for _, ledgerID := range payload.LedgerIDs {
		if err := j.warmLedger(ctx, ledgerID, from, to); err != nil {
			resultErr = err
			logger.Error("warm ledger", slog.Int64("ledger_id", ledgerID), slog.Any("error", err))
			return resultErr
		}
		warmed++
	}

	j.AppMetrics.MarkSnapshotWarmup(j.now())
	logger.Info("completed daily snapshot warmup", slog.Int("ledgers", warmed), slog.Duration("duration", j.now().Sub(now)))
	return resultErr
}

func (j *DailyWarmupJob) warmLedger(ctx context.Context, ledgerID int64, from, to time.Time) error {
	// Bound each ledger build so one slow ledger cannot stall the run.
	ledgerCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	rows, err := j.Reports.BuildDailyDifference(ledgerCtx, balance.Query{
		LedgerID: ledgerID,
		From:     from,
		To:       to,
		Valuate:  true,
	})
	if err != nil {
		return err
	}
	data, err := json.Marshal(balancehttp.FromDaily(rows))
	if err != nil {
		return err
	}
	key := balancehttp.DailySnapshotKey(ledgerID, from, to)
	return j.Snapshots.Set(ledgerCtx, key, data, j.ttl()).Err()
}

func (j *DailyWarmupJob) fetchLedgers(ctx context.Context) ([]int64, error) {
	if j.Pool == nil {
		return nil, errors.New("daily warmup: pool not configured")
	}
	rows, err := j.Pool.Query(ctx, `SELECT DISTINCT ledger_id FROM gl_balances ORDER BY ledger_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ledgers := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ledgers = append(ledgers, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ledgers, nil
}

func (j *DailyWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskDailyWarmup))
	}
	return slog.Default().With(slog.String("job", TaskDailyWarmup))
}

func (j *DailyWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *DailyWarmupJob) ttl() time.Duration {
	if j.TTL > 0 {
		return j.TTL
	}
	return 26 * time.Hour
}

func (j *DailyWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
