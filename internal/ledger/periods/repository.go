package periods

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
)

const periodColumns = `id, year, month, name, start_date, end_date, state, closed_at, closed_by, created_at, updated_at`

// Repository encapsulates DB operations for periods.
type Repository interface {
	Create(ctx context.Context, p Period) (Period, error)
	GetByID(ctx context.Context, id int64) (Period, error)
	GetByYearMonth(ctx context.Context, year, month int) (Period, error)
	List(ctx context.Context, filter ListFilter) ([]Period, error)
	GetActive(ctx context.Context, date time.Time) (Period, error)
	// WithTx runs fn inside a transaction; used by the close workflow.
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a transaction.
type TxRepository interface {
	GetForUpdate(ctx context.Context, id int64) (Period, error)
	CountEntriesNotApproved(ctx context.Context, periodID int64) (int, error)
	MarkClosed(ctx context.Context, id int64, closedBy int64, closedAt time.Time) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns a pgx-backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func scanPeriod(row pgx.Row) (Period, error) {
	var p Period
	err := row.Scan(&p.ID, &p.Year, &p.Month, &p.Name, &p.StartDate, &p.EndDate, &p.State, &p.ClosedAt, &p.ClosedBy, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *repository) Create(ctx context.Context, p Period) (Period, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO periods (year, month, name, start_date, end_date, state)
VALUES ($1,$2,$3,$4,$5,$6) RETURNING `+periodColumns, p.Year, p.Month, p.Name, p.StartDate, p.EndDate, p.State)
	created, err := scanPeriod(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Period{}, shared.ErrDuplicate
		}
		return Period{}, err
	}
	return created, nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (Period, error) {
	p, err := scanPeriod(r.db.QueryRow(ctx, `SELECT `+periodColumns+` FROM periods WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, shared.ErrNotFound
		}
		return Period{}, err
	}
	return p, nil
}

func (r *repository) GetByYearMonth(ctx context.Context, year, month int) (Period, error) {
	p, err := scanPeriod(r.db.QueryRow(ctx, `SELECT `+periodColumns+` FROM periods WHERE year=$1 AND month=$2`, year, month))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, shared.ErrNotFound
		}
		return Period{}, err
	}
	return p, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Period, error) {
	query := `SELECT ` + periodColumns + ` FROM periods WHERE 1=1`
	args := []any{}
	if filter.Year != nil {
		args = append(args, *filter.Year)
		query += ` AND year=$1`
	}
	if filter.State != nil {
		args = append(args, *filter.State)
		if len(args) == 1 {
			query += ` AND state=$1`
		} else {
			query += ` AND state=$2`
		}
	}
	query += ` ORDER BY year DESC, month DESC`
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) GetActive(ctx context.Context, date time.Time) (Period, error) {
	p, err := scanPeriod(r.db.QueryRow(ctx, `SELECT `+periodColumns+` FROM periods
WHERE state='OPEN' AND $1::date BETWEEN start_date AND end_date ORDER BY start_date LIMIT 1`, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, shared.ErrNotFound
		}
		return Period{}, err
	}
	return p, nil
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) GetForUpdate(ctx context.Context, id int64) (Period, error) {
	p, err := scanPeriod(r.tx.QueryRow(ctx, `SELECT `+periodColumns+` FROM periods WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, shared.ErrNotFound
		}
		return Period{}, err
	}
	return p, nil
}

func (r *txRepository) CountEntriesNotApproved(ctx context.Context, periodID int64) (int, error) {
	var count int
	err := r.tx.QueryRow(ctx, `SELECT COUNT(*) FROM journal_entries WHERE period_id=$1 AND state='DRAFT'`, periodID).Scan(&count)
	return count, err
}

func (r *txRepository) MarkClosed(ctx context.Context, id int64, closedBy int64, closedAt time.Time) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE periods SET state='CLOSED', closed_at=$2, closed_by=$3, updated_at=NOW() WHERE id=$1`, id, closedAt, closedBy)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
