package journals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/ledger/accounts"
	"github.com/meridian-erp/meridian-erp/internal/ledger/periods"
	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
)

const entryColumns = `id, period_id, sequence, number, entry_date, description, category, invoice_ref, posted_by, state, total_debit, total_credit, created_at, updated_at`

// Repository encapsulates DB operations for journal entries.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]JournalEntry, error)
	GetByID(ctx context.Context, id int64) (JournalEntry, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a posting transaction. It
// carries the period and account queries it needs so the whole operation
// shares one transaction context.
type TxRepository interface {
	GetPeriodForUpdate(ctx context.Context, periodID int64) (periods.Period, error)
	FindPeriodForDateForUpdate(ctx context.Context, date time.Time) (periods.Period, error)
	NextSequence(ctx context.Context, periodID int64) (int, error)
	GetAccounts(ctx context.Context, ids []int64) (map[int64]accounts.Account, error)
	InsertEntry(ctx context.Context, e JournalEntry) (JournalEntry, error)
	InsertLines(ctx context.Context, entryID int64, lines []LineInput) error
	GetEntryForUpdate(ctx context.Context, id int64) (JournalEntry, error)
	UpdateState(ctx context.Context, id int64, state EntryState, description string) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func scanEntry(row pgx.Row) (JournalEntry, error) {
	var e JournalEntry
	err := row.Scan(&e.ID, &e.PeriodID, &e.Sequence, &e.Number, &e.Date, &e.Description, &e.Category, &e.InvoiceRef, &e.PostedBy, &e.State, &e.TotalDebit, &e.TotalCredit, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE 1=1`
	args := []any{}
	if filter.PeriodID != nil {
		args = append(args, *filter.PeriodID)
		query += fmt.Sprintf(" AND period_id=$%d", len(args))
	}
	if filter.State != nil {
		args = append(args, *filter.State)
		query += fmt.Sprintf(" AND state=$%d", len(args))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		query += fmt.Sprintf(" AND category=$%d", len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += fmt.Sprintf(" AND entry_date >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += fmt.Sprintf(" AND entry_date <= $%d", len(args))
	}
	query += ` ORDER BY entry_date DESC, sequence DESC`
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []JournalEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *repository) GetByID(ctx context.Context, id int64) (JournalEntry, error) {
	entry, err := scanEntry(r.db.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, shared.ErrNotFound
		}
		return JournalEntry{}, err
	}

	period, err := scanPeriod(r.db.QueryRow(ctx, `SELECT `+periodColumns+` FROM periods WHERE id=$1`, entry.PeriodID))
	if err == nil {
		entry.Period = &period
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return JournalEntry{}, err
	}

	rows, err := r.db.Query(ctx, `SELECT l.id, l.entry_id, l.account_id, l.debit, l.credit,
a.id, a.code, a.name, a.kind, a.parent_id, a.level, a.allows_postings, a.active, a.created_at, a.updated_at
FROM journal_lines l JOIN accounts a ON a.id = l.account_id WHERE l.entry_id=$1 ORDER BY l.id`, id)
	if err != nil {
		return JournalEntry{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var line JournalLine
		var acc accounts.Account
		if err := rows.Scan(&line.ID, &line.EntryID, &line.AccountID, &line.Debit, &line.Credit,
			&acc.ID, &acc.Code, &acc.Name, &acc.Kind, &acc.ParentID, &acc.Level, &acc.AllowsPostings, &acc.Active, &acc.CreatedAt, &acc.UpdatedAt); err != nil {
			return JournalEntry{}, err
		}
		line.Account = &acc
		entry.Lines = append(entry.Lines, line)
	}
	return entry, rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

const periodColumns = `id, year, month, name, start_date, end_date, state, closed_at, closed_by, created_at, updated_at`

func scanPeriod(row pgx.Row) (periods.Period, error) {
	var p periods.Period
	err := row.Scan(&p.ID, &p.Year, &p.Month, &p.Name, &p.StartDate, &p.EndDate, &p.State, &p.ClosedAt, &p.ClosedBy, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// GetPeriodForUpdate locks the period row; the lock serialises sequence
// assignment for concurrent postings against the same period.
func (r *txRepository) GetPeriodForUpdate(ctx context.Context, periodID int64) (periods.Period, error) {
	p, err := scanPeriod(r.tx.QueryRow(ctx, `SELECT `+periodColumns+` FROM periods WHERE id=$1 FOR UPDATE`, periodID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return periods.Period{}, shared.ErrNotFound
		}
		return periods.Period{}, err
	}
	return p, nil
}

func (r *txRepository) FindPeriodForDateForUpdate(ctx context.Context, date time.Time) (periods.Period, error) {
	p, err := scanPeriod(r.tx.QueryRow(ctx, `SELECT `+periodColumns+` FROM periods WHERE year=$1 AND month=$2 FOR UPDATE`, date.Year(), int(date.Month())))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return periods.Period{}, shared.ErrNoPeriodForDate
		}
		return periods.Period{}, err
	}
	return p, nil
}

func (r *txRepository) NextSequence(ctx context.Context, periodID int64) (int, error) {
	var next int
	err := r.tx.QueryRow(ctx, `SELECT COALESCE(MAX(sequence), 0) + 1 FROM journal_entries WHERE period_id=$1`, periodID).Scan(&next)
	return next, err
}

func (r *txRepository) GetAccounts(ctx context.Context, ids []int64) (map[int64]accounts.Account, error) {
	out := make(map[int64]accounts.Account, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.tx.Query(ctx, `SELECT id, code, name, kind, parent_id, level, allows_postings, active, created_at, updated_at FROM accounts WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var a accounts.Account
		if err := rows.Scan(&a.ID, &a.Code, &a.Name, &a.Kind, &a.ParentID, &a.Level, &a.AllowsPostings, &a.Active, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out[a.ID] = a
	}
	return out, rows.Err()
}

func (r *txRepository) InsertEntry(ctx context.Context, e JournalEntry) (JournalEntry, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO journal_entries (period_id, sequence, number, entry_date, description, category, invoice_ref, posted_by, state, total_debit, total_credit)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11) RETURNING id, created_at, updated_at`,
		e.PeriodID, e.Sequence, e.Number, e.Date, e.Description, e.Category, e.InvoiceRef, e.PostedBy, e.State, toNumeric(e.TotalDebit), toNumeric(e.TotalCredit))
	if err := row.Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return JournalEntry{}, err
	}
	return e, nil
}

func (r *txRepository) InsertLines(ctx context.Context, entryID int64, lines []LineInput) error {
	for _, line := range lines {
		if _, err := r.tx.Exec(ctx, `INSERT INTO journal_lines (entry_id, account_id, debit, credit) VALUES ($1,$2,$3,$4)`,
			entryID, line.AccountID, toNumeric(line.Debit), toNumeric(line.Credit)); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) GetEntryForUpdate(ctx context.Context, id int64) (JournalEntry, error) {
	entry, err := scanEntry(r.tx.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, shared.ErrNotFound
		}
		return JournalEntry{}, err
	}
	return entry, nil
}

func (r *txRepository) UpdateState(ctx context.Context, id int64, state EntryState, description string) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET state=$2, description=$3, updated_at=NOW() WHERE id=$1`, id, state, description)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func toNumeric(v float64) any {
	return fmt.Sprintf("%.2f", v)
}
