package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskBalanceWarm precomputes and caches ledgers for every fiscal year.
	TaskBalanceWarm = "balance:warm"
	// TaskImportPrune trims old entries from the import history log.
	TaskImportPrune = "import:prune"
)

// BalanceWarmPayload carries scheduling metadata for a warm run.
type BalanceWarmPayload struct {
	RequestedAt time.Time `json:"requested_at"`
}

// NewBalanceWarmTask constructs an Asynq task that warms the ledger cache.
func NewBalanceWarmTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(BalanceWarmPayload{RequestedAt: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBalanceWarm, body, asynq.Queue(QueueDefault)), nil
}

// ImportPrunePayload bounds how much history a prune run keeps.
type ImportPrunePayload struct {
	KeepDays int `json:"keep_days"`
}

// NewImportPruneTask constructs an Asynq task that prunes import history.
func NewImportPruneTask(keepDays int) (*asynq.Task, error) {
	body, err := json.Marshal(ImportPrunePayload{KeepDays: keepDays})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskImportPrune, body, asynq.Queue(QueueDefault)), nil
}
