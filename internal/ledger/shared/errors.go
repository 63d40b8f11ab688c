package shared

import "errors"

var (
	// ErrNotFound indicates a referenced record does not exist.
	ErrNotFound = errors.New("ledger: record not found")
	// ErrDuplicate indicates a uniqueness violation (period, account code).
	ErrDuplicate = errors.New("ledger: duplicate record")
	// ErrUnbalanced indicates debit != credit beyond tolerance.
	ErrUnbalanced = errors.New("ledger: journal lines must balance")
	// ErrTooFewLines indicates less than two lines.
	ErrTooFewLines = errors.New("ledger: journal requires at least two lines")
	// ErrInvalidLine indicates a line with both or neither of debit/credit set.
	ErrInvalidLine = errors.New("ledger: line must carry exactly one of debit or credit")
	// ErrInvalidAmount indicates a non-positive amount.
	ErrInvalidAmount = errors.New("ledger: amount must be positive")
	// ErrPeriodClosed indicates postings against a closed period.
	ErrPeriodClosed = errors.New("ledger: period is closed")
	// ErrNoPeriodForDate indicates no period covers the posting date.
	ErrNoPeriodForDate = errors.New("ledger: no period for date")
	// ErrAlreadyClosed indicates a repeated period close.
	ErrAlreadyClosed = errors.New("ledger: period already closed")
	// ErrPendingEntries indicates draft entries block a period close.
	ErrPendingEntries = errors.New("ledger: period has pending entries")
	// ErrUnknownAccount indicates a line references a missing account.
	ErrUnknownAccount = errors.New("ledger: unknown account")
	// ErrAccountNotPostable indicates the account does not accept postings.
	ErrAccountNotPostable = errors.New("ledger: account does not allow postings")
	// ErrAccountInactive indicates the account is disabled.
	ErrAccountInactive = errors.New("ledger: account inactive")
	// ErrAlreadyApproved indicates a repeated approval.
	ErrAlreadyApproved = errors.New("ledger: entry already approved")
	// ErrCannotApproveVoided indicates approval of a void entry.
	ErrCannotApproveVoided = errors.New("ledger: cannot approve voided entry")
	// ErrAlreadyVoided indicates a repeated void.
	ErrAlreadyVoided = errors.New("ledger: entry already voided")
	// ErrInsufficientFunds indicates a debit exceeding the current balance.
	ErrInsufficientFunds = errors.New("ledger: insufficient funds")
	// ErrSameAccount indicates a transfer between an account and itself.
	ErrSameAccount = errors.New("ledger: transfer requires distinct accounts")
	// ErrAlreadySettled indicates a payment against a fully paid record.
	ErrAlreadySettled = errors.New("ledger: already settled")
	// ErrAmountExceedsBalance indicates a payment above the outstanding balance.
	ErrAmountExceedsBalance = errors.New("ledger: amount exceeds outstanding balance")
)
