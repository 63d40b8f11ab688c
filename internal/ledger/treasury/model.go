package treasury

import "time"

// MovementKind enumerates balance-affecting movement types.
type MovementKind string

const (
	MovementIn          MovementKind = "IN"
	MovementOut         MovementKind = "OUT"
	MovementTransferIn  MovementKind = "TRANSFER_IN"
	MovementTransferOut MovementKind = "TRANSFER_OUT"
)

// Increases reports whether the kind adds to the account balance.
func (k MovementKind) Increases() bool {
	return k == MovementIn || k == MovementTransferIn
}

// AccountType is a data-driven reference row classifying accounts as
// cash-like (drawers, petty cash) or bank-like.
type AccountType struct {
	ID       int64  `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	CashLike bool   `json:"cash_like"`
}

// BankAccount models a cash drawer or bank account with a running balance.
// The opening balance is immutable once set; the current balance only moves
// through movement operations.
type BankAccount struct {
	ID              int64     `json:"id"`
	TypeID          int64     `json:"type_id"`
	LinkedAccountID *int64    `json:"linked_account_id,omitempty"`
	Name            string    `json:"name"`
	BankName        *string   `json:"bank_name,omitempty"`
	Number          *string   `json:"number,omitempty"`
	OpeningBalance  float64   `json:"opening_balance"`
	CurrentBalance  float64   `json:"current_balance"`
	IsPettyCash     bool      `json:"is_petty_cash"`
	Ceiling         *float64  `json:"ceiling,omitempty"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CashMovement is a single balance change. BalanceAfter always equals
// BalanceBefore plus or minus Amount according to Kind.
type CashMovement struct {
	ID                  int64        `json:"id"`
	BankAccountID       int64        `json:"bank_account_id"`
	Kind                MovementKind `json:"kind"`
	Description         string       `json:"description"`
	Amount              float64      `json:"amount"`
	BalanceBefore       float64      `json:"balance_before"`
	BalanceAfter        float64      `json:"balance_after"`
	MovementDate        time.Time    `json:"movement_date"`
	JournalEntryID      *int64       `json:"journal_entry_id,omitempty"`
	ReceivablePaymentID *int64       `json:"receivable_payment_id,omitempty"`
	PayablePaymentID    *int64       `json:"payable_payment_id,omitempty"`
	CounterAccountID    *int64       `json:"counter_account_id,omitempty"`
	PostedBy            int64        `json:"posted_by"`
	Reference           *string      `json:"reference,omitempty"`
	CreatedAt           time.Time    `json:"created_at"`

	// CeilingExceeded is computed per response, not stored. It flags petty
	// cash accounts whose balance passed their configured ceiling.
	CeilingExceeded bool `json:"ceiling_exceeded,omitempty"`
}

// Summary aggregates current balances across active accounts.
type Summary struct {
	CashTotal  float64       `json:"cash_total"`
	BankTotal  float64       `json:"bank_total"`
	GrandTotal float64       `json:"grand_total"`
	Accounts   []SummaryLine `json:"accounts"`
}

// SummaryLine is one account's contribution to the summary.
type SummaryLine struct {
	AccountID int64   `json:"account_id"`
	Name      string  `json:"name"`
	TypeCode  string  `json:"type_code"`
	CashLike  bool    `json:"cash_like"`
	Balance   float64 `json:"balance"`
}
