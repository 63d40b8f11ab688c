package payables

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
	"github.com/meridian-erp/meridian-erp/internal/ledger/treasury"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
)

const payableColumns = `id, supplier_name, supplier_invoice_no, concept, issue_date, due_date, total, paid, outstanding, state, days_overdue, created_at, updated_at`

// Repository encapsulates DB operations for payables.
type Repository interface {
	Create(ctx context.Context, p Payable) (Payable, error)
	GetByID(ctx context.Context, id int64) (Payable, error)
	List(ctx context.Context, filter ListFilter) ([]Payable, error)
	ListPayments(ctx context.Context, payableID int64) ([]Payment, error)
	ListOpen(ctx context.Context) ([]Payable, error)
	Summary(ctx context.Context) (Summary, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the operations of a payment transaction. It carries
// the treasury account queries it needs so a disbursement and its debit
// share one transaction context.
type TxRepository interface {
	GetForUpdate(ctx context.Context, id int64) (Payable, error)
	InsertPayment(ctx context.Context, p Payment) (Payment, error)
	SetMovementID(ctx context.Context, paymentID, movementID int64) error
	UpdateProgress(ctx context.Context, id int64, paid, outstanding float64, state PayableState, daysOverdue int) error
	GetBankAccountForUpdate(ctx context.Context, id int64) (treasury.BankAccount, error)
	UpdateBankBalance(ctx context.Context, id int64, balance float64) error
	InsertMovement(ctx context.Context, m treasury.CashMovement) (treasury.CashMovement, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func scanPayable(row pgx.Row) (Payable, error) {
	var p Payable
	err := row.Scan(&p.ID, &p.SupplierName, &p.SupplierInvoiceNo, &p.Concept, &p.IssueDate, &p.DueDate, &p.Total, &p.Paid, &p.Outstanding, &p.State, &p.DaysOverdue, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *repository) Create(ctx context.Context, p Payable) (Payable, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO payables (supplier_name, supplier_invoice_no, concept, issue_date, due_date, total, paid, outstanding, state, days_overdue)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10) RETURNING `+payableColumns,
		p.SupplierName, p.SupplierInvoiceNo, p.Concept, p.IssueDate, p.DueDate, toNumeric(p.Total), toNumeric(p.Paid), toNumeric(p.Outstanding), p.State, p.DaysOverdue)
	created, err := scanPayable(row)
	if err != nil {
		return Payable{}, err
	}
	return created, nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (Payable, error) {
	p, err := scanPayable(r.db.QueryRow(ctx, `SELECT `+payableColumns+` FROM payables WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Payable{}, shared.ErrNotFound
		}
		return Payable{}, err
	}
	return p, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Payable, error) {
	query := `SELECT ` + payableColumns + ` FROM payables WHERE 1=1`
	args := []any{}
	if filter.State != nil {
		args = append(args, *filter.State)
		query += fmt.Sprintf(" AND state=$%d", len(args))
	}
	if filter.Supplier != nil {
		args = append(args, "%"+*filter.Supplier+"%")
		query += fmt.Sprintf(" AND supplier_name ILIKE $%d", len(args))
	}
	if filter.DueFrom != nil {
		args = append(args, *filter.DueFrom)
		query += fmt.Sprintf(" AND due_date >= $%d", len(args))
	}
	if filter.DueTo != nil {
		args = append(args, *filter.DueTo)
		query += fmt.Sprintf(" AND due_date <= $%d", len(args))
	}
	query += ` ORDER BY due_date, id`
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
	var out []Payable
	for rows.Next() {
		p, err := scanPayable(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) ListPayments(ctx context.Context, payableID int64) ([]Payment, error) {
	rows, err := r.db.Query(ctx, `SELECT id, payable_id, amount, payment_date, method, bank_account_id, movement_id, reference, posted_by, created_at
FROM payable_payments WHERE payable_id=$1 ORDER BY payment_date, id`, payableID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.PayableID, &p.Amount, &p.PaymentDate, &p.Method, &p.BankAccountID, &p.MovementID, &p.Reference, &p.PostedBy, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) ListOpen(ctx context.Context) ([]Payable, error) {
	rows, err := r.db.Query(ctx, `SELECT `+payableColumns+` FROM payables WHERE state <> 'PAID' ORDER BY due_date, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Payable
	for rows.Next() {
		p, err := scanPayable(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) Summary(ctx context.Context) (Summary, error) {
	open, err := r.ListOpen(ctx)
	if err != nil {
		return Summary{}, err
	}
	summary := BuildSummary(open)
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM payables WHERE state='PAID'`).Scan(&summary.PaidCount); err != nil {
		return Summary{}, err
	}
	return summary, nil
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) GetForUpdate(ctx context.Context, id int64) (Payable, error) {
	p, err := scanPayable(r.tx.QueryRow(ctx, `SELECT `+payableColumns+` FROM payables WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Payable{}, shared.ErrNotFound
		}
		return Payable{}, err
	}
	return p, nil
}

func (r *txRepository) InsertPayment(ctx context.Context, p Payment) (Payment, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO payable_payments (payable_id, amount, payment_date, method, bank_account_id, reference, posted_by)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id, created_at`,
		p.PayableID, toNumeric(p.Amount), p.PaymentDate, p.Method, p.BankAccountID, p.Reference, p.PostedBy)
	if err := row.Scan(&p.ID, &p.CreatedAt); err != nil {
		return Payment{}, err
	}
	return p, nil
}

func (r *txRepository) SetMovementID(ctx context.Context, paymentID, movementID int64) error {
	_, err := r.tx.Exec(ctx, `UPDATE payable_payments SET movement_id=$2 WHERE id=$1`, paymentID, movementID)
	return err
}

func (r *txRepository) UpdateProgress(ctx context.Context, id int64, paid, outstanding float64, state PayableState, daysOverdue int) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE payables SET paid=$2, outstanding=$3, state=$4, days_overdue=$5, updated_at=NOW() WHERE id=$1`,
		id, toNumeric(paid), toNumeric(outstanding), state, daysOverdue)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) GetBankAccountForUpdate(ctx context.Context, id int64) (treasury.BankAccount, error) {
	var a treasury.BankAccount
	err := r.tx.QueryRow(ctx, `SELECT id, name, current_balance, active FROM bank_accounts WHERE id=$1 FOR UPDATE`, id).
		Scan(&a.ID, &a.Name, &a.CurrentBalance, &a.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return treasury.BankAccount{}, shared.ErrNotFound
		}
		return treasury.BankAccount{}, err
	}
	return a, nil
}

func (r *txRepository) UpdateBankBalance(ctx context.Context, id int64, balance float64) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE bank_accounts SET current_balance=$2, updated_at=NOW() WHERE id=$1`, id, toNumeric(balance))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) InsertMovement(ctx context.Context, m treasury.CashMovement) (treasury.CashMovement, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO cash_movements (bank_account_id, kind, description, amount, balance_before, balance_after, movement_date, payable_payment_id, posted_by, reference)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10) RETURNING id, created_at`,
		m.BankAccountID, m.Kind, m.Description, toNumeric(m.Amount), toNumeric(m.BalanceBefore), toNumeric(m.BalanceAfter), m.MovementDate, m.PayablePaymentID, m.PostedBy, m.Reference)
	if err := row.Scan(&m.ID, &m.CreatedAt); err != nil {
		return treasury.CashMovement{}, err
	}
	return m, nil
}

func toNumeric(v float64) any {
	return fmt.Sprintf("%.2f", v)
}
