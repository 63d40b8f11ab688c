package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskOverdueRefresh recomputes overdue state on open receivables and payables.
	TaskOverdueRefresh = "ledger:overdue_refresh"
	// TaskGLIntegrity verifies that approved entries stay balanced per period.
	TaskGLIntegrity = "ledger:gl_integrity"
)

// OverdueRefreshPayload scopes the refresh to one or both ledgers.
type OverdueRefreshPayload struct {
	Ledgers []string `json:"ledgers"`
}

// NewOverdueRefreshTask constructs the overdue refresh task. An empty ledger
// list means both receivables and payables.
func NewOverdueRefreshTask(ledgers ...string) (*asynq.Task, error) {
	data, err := json.Marshal(OverdueRefreshPayload{Ledgers: ledgers})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOverdueRefresh, data), nil
}

// GLIntegrityPayload scopes the check to one period, or all when zero.
type GLIntegrityPayload struct {
	PeriodID int64 `json:"period_id"`
}

// NewGLIntegrityTask constructs the GL integrity task.
func NewGLIntegrityTask(periodID int64) (*asynq.Task, error) {
	data, err := json.Marshal(GLIntegrityPayload{PeriodID: periodID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGLIntegrity, data), nil
}
