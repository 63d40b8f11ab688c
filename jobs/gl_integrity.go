package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

const balanceTolerance = 0.01

// GLIntegrityJob verifies two properties over approved entries: each
// period's total debits equal its total credits, and each entry's stored
// totals match the sum of its lines. Violations are logged, not repaired.
type GLIntegrityJob struct {
	Pool   *pgxpool.Pool
	Logger *slog.Logger
}

func NewGLIntegrityJob(pool *pgxpool.Pool, logger *slog.Logger) *GLIntegrityJob {
	return &GLIntegrityJob{Pool: pool, Logger: logger}
}

// Handle executes the integrity check.
func (j *GLIntegrityJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("gl integrity: handler not configured")
	}
	var payload GLIntegrityPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	logger := j.logger()
	logger.Info("starting GL integrity check", slog.Int64("period_id", payload.PeriodID))

	violations, err := j.checkPeriodBalances(ctx, payload.PeriodID)
	if err != nil {
		return err
	}
	entryViolations, err := j.checkEntryTotals(ctx, payload.PeriodID)
	if err != nil {
		return err
	}
	violations += entryViolations

	if violations > 0 {
		logger.Warn("GL integrity check found violations", slog.Int("violations", violations))
		return fmt.Errorf("gl integrity: %d violations", violations)
	}
	logger.Info("GL integrity check passed")
	return nil
}

func (j *GLIntegrityJob) checkPeriodBalances(ctx context.Context, periodID int64) (int, error) {
	query := `SELECT period_id, COALESCE(SUM(total_debit),0), COALESCE(SUM(total_credit),0)
FROM journal_entries WHERE state='APPROVED'`
	args := []any{}
	if periodID > 0 {
		args = append(args, periodID)
		query += ` AND period_id=$1`
	}
	query += ` GROUP BY period_id`

	rows, err := j.Pool.Query(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	violations := 0
	for rows.Next() {
		var id int64
		var debit, credit float64
		if err := rows.Scan(&id, &debit, &credit); err != nil {
			return violations, err
		}
		if math.Abs(debit-credit) > balanceTolerance {
			violations++
			j.logger().Warn("period out of balance",
				slog.Int64("period_id", id),
				slog.Float64("total_debit", debit),
				slog.Float64("total_credit", credit))
		}
	}
	return violations, rows.Err()
}

func (j *GLIntegrityJob) checkEntryTotals(ctx context.Context, periodID int64) (int, error) {
	query := `SELECT e.id, e.number, e.total_debit, e.total_credit, COALESCE(SUM(l.debit),0), COALESCE(SUM(l.credit),0)
FROM journal_entries e JOIN journal_lines l ON l.entry_id = e.id
WHERE e.state='APPROVED'`
	args := []any{}
	if periodID > 0 {
		args = append(args, periodID)
		query += ` AND e.period_id=$1`
	}
	query += ` GROUP BY e.id, e.number, e.total_debit, e.total_credit`

	rows, err := j.Pool.Query(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	violations := 0
	for rows.Next() {
		var id int64
		var number string
		var storedDebit, storedCredit, lineDebit, lineCredit float64
		if err := rows.Scan(&id, &number, &storedDebit, &storedCredit, &lineDebit, &lineCredit); err != nil {
			return violations, err
		}
		if math.Abs(storedDebit-lineDebit) > balanceTolerance || math.Abs(storedCredit-lineCredit) > balanceTolerance {
			violations++
			j.logger().Warn("entry totals disagree with lines",
				slog.Int64("entry_id", id),
				slog.String("number", number))
		}
	}
	return violations, rows.Err()
}

func (j *GLIntegrityJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
