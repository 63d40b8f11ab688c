package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"
)

// OverdueRefresher is implemented by the receivable and payable services.
type OverdueRefresher interface {
	RefreshOverdue(ctx context.Context) (int, error)
}

// OverdueRefreshJob sweeps open receivables and payables, recomputing days
// overdue and flipping past-due records to OVERDUE.
type OverdueRefreshJob struct {
	Receivables OverdueRefresher
	Payables    OverdueRefresher
	Logger      *slog.Logger
}

func NewOverdueRefreshJob(receivables, payables OverdueRefresher, logger *slog.Logger) *OverdueRefreshJob {
	return &OverdueRefreshJob{Receivables: receivables, Payables: payables, Logger: logger}
}

// Handle executes the refresh. The sweep is idempotent so retries are safe.
func (j *OverdueRefreshJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("overdue refresh: handler not configured")
	}
	var payload OverdueRefreshPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	ledgers := payload.Ledgers
	if len(ledgers) == 0 {
		ledgers = []string{"receivables", "payables"}
	}

	logger := j.logger()
	logger.Info("starting overdue refresh", slog.Any("ledgers", ledgers))
	var firstErr error
	for _, name := range ledgers {
		var refresher OverdueRefresher
		switch name {
		case "receivables":
			refresher = j.Receivables
		case "payables":
			refresher = j.Payables
		default:
			logger.Warn("unknown ledger in refresh payload", slog.String("ledger", name))
			continue
		}
		if refresher == nil {
			continue
		}
		updated, err := refresher.RefreshOverdue(ctx)
		if err != nil {
			logger.Error("overdue refresh failed", slog.String("ledger", name), slog.Any("error", err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		logger.Info("overdue refresh done", slog.String("ledger", name), slog.Int("updated", updated))
	}
	return firstErr
}

func (j *OverdueRefreshJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
