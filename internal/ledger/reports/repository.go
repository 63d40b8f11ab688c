package reports

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/ledger/accounts"
	"github.com/meridian-erp/meridian-erp/internal/ledger/journals"
	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
)

// Repository reads committed, approved rows only. Nothing here writes.
type Repository interface {
	JournalEntries(ctx context.Context, periodID int64) ([]journals.JournalEntry, error)
	AccountLines(ctx context.Context, accountID int64, periodID *int64) ([]LedgerLine, error)
	GetAccount(ctx context.Context, id int64) (accounts.Account, error)
	AccountBalances(ctx context.Context, periodID *int64) ([]AccountBalance, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) JournalEntries(ctx context.Context, periodID int64) ([]journals.JournalEntry, error) {
	rows, err := r.db.Query(ctx, `SELECT id, period_id, sequence, number, entry_date, description, category, invoice_ref, posted_by, state, total_debit, total_credit, created_at, updated_at
FROM journal_entries WHERE period_id=$1 AND state='APPROVED' ORDER BY entry_date, sequence`, periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []journals.JournalEntry
	index := map[int64]int{}
	var ids []int64
	for rows.Next() {
		var e journals.JournalEntry
		if err := rows.Scan(&e.ID, &e.PeriodID, &e.Sequence, &e.Number, &e.Date, &e.Description, &e.Category, &e.InvoiceRef, &e.PostedBy, &e.State, &e.TotalDebit, &e.TotalCredit, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		index[e.ID] = len(entries)
		ids = append(ids, e.ID)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return entries, nil
	}

	lineRows, err := r.db.Query(ctx, `SELECT id, entry_id, account_id, debit, credit FROM journal_lines WHERE entry_id = ANY($1) ORDER BY entry_id, id`, ids)
	if err != nil {
		return nil, err
	}
	defer lineRows.Close()
	for lineRows.Next() {
		var line journals.JournalLine
		if err := lineRows.Scan(&line.ID, &line.EntryID, &line.AccountID, &line.Debit, &line.Credit); err != nil {
			return nil, err
		}
		i := index[line.EntryID]
		entries[i].Lines = append(entries[i].Lines, line)
	}
	return entries, lineRows.Err()
}

func (r *repository) AccountLines(ctx context.Context, accountID int64, periodID *int64) ([]LedgerLine, error) {
	query := `SELECT e.id, e.number, e.entry_date, e.description, l.debit, l.credit
FROM journal_lines l JOIN journal_entries e ON e.id = l.entry_id
WHERE l.account_id=$1 AND e.state='APPROVED'`
	args := []any{accountID}
	if periodID != nil {
		args = append(args, *periodID)
		query += fmt.Sprintf(" AND e.period_id=$%d", len(args))
	}
	query += ` ORDER BY e.entry_date, e.sequence, l.id`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []LedgerLine
	for rows.Next() {
		var line LedgerLine
		if err := rows.Scan(&line.EntryID, &line.EntryNumber, &line.EntryDate, &line.Description, &line.Debit, &line.Credit); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (r *repository) GetAccount(ctx context.Context, id int64) (accounts.Account, error) {
	var a accounts.Account
	err := r.db.QueryRow(ctx, `SELECT id, code, name, kind, parent_id, level, allows_postings, active, created_at, updated_at FROM accounts WHERE id=$1`, id).
		Scan(&a.ID, &a.Code, &a.Name, &a.Kind, &a.ParentID, &a.Level, &a.AllowsPostings, &a.Active, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return accounts.Account{}, shared.ErrNotFound
		}
		return accounts.Account{}, err
	}
	return a, nil
}

func (r *repository) AccountBalances(ctx context.Context, periodID *int64) ([]AccountBalance, error) {
	query := `SELECT a.id, a.code, a.name, a.kind, COALESCE(SUM(l.debit),0), COALESCE(SUM(l.credit),0)
FROM accounts a
JOIN journal_lines l ON l.account_id = a.id
JOIN journal_entries e ON e.id = l.entry_id
WHERE a.allows_postings AND a.active AND e.state='APPROVED'`
	args := []any{}
	if periodID != nil {
		args = append(args, *periodID)
		query += fmt.Sprintf(" AND e.period_id=$%d", len(args))
	}
	query += ` GROUP BY a.id, a.code, a.name, a.kind ORDER BY a.code`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var balances []AccountBalance
	for rows.Next() {
		var b AccountBalance
		if err := rows.Scan(&b.AccountID, &b.Code, &b.Name, &b.Kind, &b.TotalDebit, &b.TotalCredit); err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}
