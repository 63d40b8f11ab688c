package treasury

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
)

const accountColumns = `id, type_id, linked_account_id, name, bank_name, number, opening_balance, current_balance, is_petty_cash, ceiling, active, created_at, updated_at`

const movementColumns = `id, bank_account_id, kind, description, amount, balance_before, balance_after, movement_date, journal_entry_id, receivable_payment_id, payable_payment_id, counter_account_id, posted_by, reference, created_at`

// Repository encapsulates DB operations for cash and bank accounts.
type Repository interface {
	CreateAccount(ctx context.Context, a BankAccount) (BankAccount, error)
	UpdateAccount(ctx context.Context, id int64, patch map[string]any) (BankAccount, error)
	GetAccount(ctx context.Context, id int64) (BankAccount, error)
	ListAccounts(ctx context.Context, activeOnly bool) ([]BankAccount, error)
	ListTypes(ctx context.Context) ([]AccountType, error)
	ListMovements(ctx context.Context, filter MovementFilter) ([]CashMovement, error)
	Summary(ctx context.Context) (Summary, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the operations of a balance-changing transaction.
// Account rows are locked before their balance is read so concurrent
// movements serialise per account.
type TxRepository interface {
	GetAccountForUpdate(ctx context.Context, id int64) (BankAccount, error)
	UpdateBalance(ctx context.Context, id int64, balance float64) error
	InsertMovement(ctx context.Context, m CashMovement) (CashMovement, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func scanAccount(row pgx.Row) (BankAccount, error) {
	var a BankAccount
	err := row.Scan(&a.ID, &a.TypeID, &a.LinkedAccountID, &a.Name, &a.BankName, &a.Number, &a.OpeningBalance, &a.CurrentBalance, &a.IsPettyCash, &a.Ceiling, &a.Active, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func scanMovement(row pgx.Row) (CashMovement, error) {
	var m CashMovement
	err := row.Scan(&m.ID, &m.BankAccountID, &m.Kind, &m.Description, &m.Amount, &m.BalanceBefore, &m.BalanceAfter, &m.MovementDate, &m.JournalEntryID, &m.ReceivablePaymentID, &m.PayablePaymentID, &m.CounterAccountID, &m.PostedBy, &m.Reference, &m.CreatedAt)
	return m, err
}

func (r *repository) CreateAccount(ctx context.Context, a BankAccount) (BankAccount, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO bank_accounts (type_id, linked_account_id, name, bank_name, number, opening_balance, current_balance, is_petty_cash, ceiling, active)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,TRUE) RETURNING `+accountColumns,
		a.TypeID, a.LinkedAccountID, a.Name, a.BankName, a.Number, toNumeric(a.OpeningBalance), toNumeric(a.CurrentBalance), a.IsPettyCash, a.Ceiling)
	created, err := scanAccount(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return BankAccount{}, shared.ErrDuplicate
		}
		return BankAccount{}, err
	}
	return created, nil
}

func (r *repository) UpdateAccount(ctx context.Context, id int64, patch map[string]any) (BankAccount, error) {
	query := `UPDATE bank_accounts SET updated_at=NOW()`
	args := []any{id}
	for column, value := range patch {
		args = append(args, value)
		query += fmt.Sprintf(", %s=$%d", column, len(args))
	}
	query += ` WHERE id=$1 RETURNING ` + accountColumns
	updated, err := scanAccount(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return BankAccount{}, shared.ErrNotFound
		}
		return BankAccount{}, err
	}
	return updated, nil
}

func (r *repository) GetAccount(ctx context.Context, id int64) (BankAccount, error) {
	a, err := scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM bank_accounts WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return BankAccount{}, shared.ErrNotFound
		}
		return BankAccount{}, err
	}
	return a, nil
}

func (r *repository) ListAccounts(ctx context.Context, activeOnly bool) ([]BankAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM bank_accounts`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY name`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BankAccount
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repository) ListTypes(ctx context.Context) ([]AccountType, error) {
	rows, err := r.db.Query(ctx, `SELECT id, code, name, cash_like FROM bank_account_types ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AccountType
	for rows.Next() {
		var t AccountType
		if err := rows.Scan(&t.ID, &t.Code, &t.Name, &t.CashLike); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *repository) ListMovements(ctx context.Context, filter MovementFilter) ([]CashMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM cash_movements WHERE 1=1`
	args := []any{}
	if filter.BankAccountID != nil {
		args = append(args, *filter.BankAccountID)
		query += fmt.Sprintf(" AND bank_account_id=$%d", len(args))
	}
	if filter.Kind != nil {
		args = append(args, *filter.Kind)
		query += fmt.Sprintf(" AND kind=$%d", len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += fmt.Sprintf(" AND movement_date >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += fmt.Sprintf(" AND movement_date <= $%d", len(args))
	}
	query += ` ORDER BY movement_date DESC, id DESC`
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
	var out []CashMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *repository) Summary(ctx context.Context) (Summary, error) {
	rows, err := r.db.Query(ctx, `SELECT b.id, b.name, t.code, t.cash_like, b.current_balance
FROM bank_accounts b JOIN bank_account_types t ON t.id = b.type_id
WHERE b.active ORDER BY b.name`)
	if err != nil {
		return Summary{}, err
	}
	defer rows.Close()
	var summary Summary
	for rows.Next() {
		var line SummaryLine
		if err := rows.Scan(&line.AccountID, &line.Name, &line.TypeCode, &line.CashLike, &line.Balance); err != nil {
			return Summary{}, err
		}
		if line.CashLike {
			summary.CashTotal += line.Balance
		} else {
			summary.BankTotal += line.Balance
		}
		summary.GrandTotal += line.Balance
		summary.Accounts = append(summary.Accounts, line)
	}
	return summary, rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) GetAccountForUpdate(ctx context.Context, id int64) (BankAccount, error) {
	a, err := scanAccount(r.tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM bank_accounts WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return BankAccount{}, shared.ErrNotFound
		}
		return BankAccount{}, err
	}
	return a, nil
}

func (r *txRepository) UpdateBalance(ctx context.Context, id int64, balance float64) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE bank_accounts SET current_balance=$2, updated_at=NOW() WHERE id=$1`, id, toNumeric(balance))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) InsertMovement(ctx context.Context, m CashMovement) (CashMovement, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO cash_movements (bank_account_id, kind, description, amount, balance_before, balance_after, movement_date, journal_entry_id, receivable_payment_id, payable_payment_id, counter_account_id, posted_by, reference)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13) RETURNING id, created_at`,
		m.BankAccountID, m.Kind, m.Description, toNumeric(m.Amount), toNumeric(m.BalanceBefore), toNumeric(m.BalanceAfter), m.MovementDate, m.JournalEntryID, m.ReceivablePaymentID, m.PayablePaymentID, m.CounterAccountID, m.PostedBy, m.Reference)
	if err := row.Scan(&m.ID, &m.CreatedAt); err != nil {
		return CashMovement{}, err
	}
	return m, nil
}

func toNumeric(v float64) any {
	return fmt.Sprintf("%.2f", v)
}
