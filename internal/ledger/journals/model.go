package journals

import (
	"time"

	"github.com/google/uuid"

	"github.com/meridian-erp/meridian-erp/internal/ledger/accounts"
	"github.com/meridian-erp/meridian-erp/internal/ledger/periods"
)

// EntryState enumerates the journal entry lifecycle.
// DRAFT -> {APPROVED, VOID}; APPROVED -> {VOID}; VOID is terminal.
type EntryState string

const (
	EntryStateDraft    EntryState = "DRAFT"
	EntryStateApproved EntryState = "APPROVED"
	EntryStateVoid     EntryState = "VOID"
)

// EntryCategory tags the business origin of an entry.
type EntryCategory string

const (
	CategorySale       EntryCategory = "SALE"
	CategoryPurchase   EntryCategory = "PURCHASE"
	CategoryCollection EntryCategory = "COLLECTION"
	CategoryPayment    EntryCategory = "PAYMENT"
	CategoryAdjustment EntryCategory = "ADJUSTMENT"
	CategoryOpening    EntryCategory = "OPENING"
	CategoryClosing    EntryCategory = "CLOSING"
)

// JournalEntry captures one balanced double-entry record.
type JournalEntry struct {
	ID          int64         `json:"id"`
	PeriodID    int64         `json:"period_id"`
	Sequence    int           `json:"sequence"`
	Number      string        `json:"number"`
	Date        time.Time     `json:"date"`
	Description string        `json:"description"`
	Category    EntryCategory `json:"category"`
	InvoiceRef  *uuid.UUID    `json:"invoice_ref,omitempty"`
	PostedBy    int64         `json:"posted_by"`
	State       EntryState    `json:"state"`
	TotalDebit  float64       `json:"total_debit"`
	TotalCredit float64       `json:"total_credit"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	Period *periods.Period `json:"period,omitempty"`
	Lines  []JournalLine   `json:"lines,omitempty"`
}

// JournalLine stores a debit or credit amount for an account. Exactly one of
// Debit/Credit is positive.
type JournalLine struct {
	ID        int64   `json:"id"`
	EntryID   int64   `json:"entry_id"`
	AccountID int64   `json:"account_id"`
	Debit     float64 `json:"debit"`
	Credit    float64 `json:"credit"`

	Account *accounts.Account `json:"account,omitempty"`
}
