package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDailyWarmup pre-builds the daily difference report for the
	// current month and stores it as a warm snapshot.
	TaskDailyWarmup = "reports:daily_warmup"
)

// DailyWarmupPayload names the ledgers whose snapshots should be refreshed.
type DailyWarmupPayload struct {
	LedgerIDs []int64 `json:"ledger_ids"`
}

// NewDailyWarmupTask constructs an Asynq task for the snapshot warmup.
func NewDailyWarmupTask(payload DailyWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDailyWarmup, data), nil
}
