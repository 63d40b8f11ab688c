package payables

import (
	"time"

	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
)

// CreateInput registers a new supplier obligation.
type CreateInput struct {
	SupplierName      string
	SupplierInvoiceNo *string
	Concept           string
	IssueDate         time.Time
	DueDate           time.Time
	Total             float64
}

func (in CreateInput) Validate() error {
	if in.SupplierName == "" || in.Concept == "" {
		return shared.ErrInvalidLine
	}
	if in.Total <= 0 {
		return shared.ErrInvalidAmount
	}
	if in.DueDate.Before(in.IssueDate) {
		return shared.ErrInvalidLine
	}
	return nil
}

// PaymentInput registers a disbursement. BankAccountID, when set, debits
// that treasury account within the same transaction.
type PaymentInput struct {
	PayableID     int64
	Amount        float64
	PaymentDate   time.Time
	Method        string
	BankAccountID *int64
	Reference     *string
	PostedBy      int64
}

func (in PaymentInput) Validate() error {
	if in.Amount <= 0 {
		return shared.ErrInvalidAmount
	}
	return nil
}

// ListFilter narrows payable listings.
type ListFilter struct {
	State    *PayableState
	Supplier *string
	DueFrom  *time.Time
	DueTo    *time.Time
	Limit    int
	Offset   int
}
