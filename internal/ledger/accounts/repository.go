package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
)

const accountColumns = `id, code, name, kind, parent_id, level, allows_postings, active, created_at, updated_at`

// ListFilter narrows account listings.
type ListFilter struct {
	Active   *bool
	Kind     *AccountKind
	Level    *int
	Postable *bool
}

// Repository provides read access to the chart of accounts. The CoA is
// reference data maintained by an external admin workflow; the ledger only
// reads it to validate postings.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Account, error)
	GetByID(ctx context.Context, id int64) (Account, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]Account, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Code, &a.Name, &a.Kind, &a.ParentID, &a.Level, &a.AllowsPostings, &a.Active, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE 1=1`
	args := []any{}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		query += fmt.Sprintf(" AND active=$%d", len(args))
	}
	if filter.Kind != nil {
		args = append(args, *filter.Kind)
		query += fmt.Sprintf(" AND kind=$%d", len(args))
	}
	if filter.Level != nil {
		args = append(args, *filter.Level)
		query += fmt.Sprintf(" AND level=$%d", len(args))
	}
	if filter.Postable != nil {
		args = append(args, *filter.Postable)
		query += fmt.Sprintf(" AND allows_postings=$%d", len(args))
	}
	query += ` ORDER BY code`
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *repository) GetByID(ctx context.Context, id int64) (Account, error) {
	account, err := scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrNotFound
		}
		return Account{}, err
	}
	if account.ParentID != nil {
		parent, err := scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id=$1`, *account.ParentID))
		if err == nil {
			account.Parent = &parent
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return Account{}, err
		}
	}
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE parent_id=$1 ORDER BY code`, id)
	if err != nil {
		return Account{}, err
	}
	defer rows.Close()
	for rows.Next() {
		child, err := scanAccount(rows)
		if err != nil {
			return Account{}, err
		}
		account.Children = append(account.Children, child)
	}
	return account, rows.Err()
}

func (r *repository) GetByIDs(ctx context.Context, ids []int64) (map[int64]Account, error) {
	out := make(map[int64]Account, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out[a.ID] = a
	}
	return out, rows.Err()
}
