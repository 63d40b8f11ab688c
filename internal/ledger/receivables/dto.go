package receivables

import (
	"time"

	"github.com/google/uuid"

	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
)

// CreateInput registers a new receivable from an issued invoice.
type CreateInput struct {
	InvoiceID    uuid.UUID
	CustomerName string
	IssueDate    time.Time
	DueDate      time.Time
	Total        float64
}

func (in CreateInput) Validate() error {
	if in.InvoiceID == uuid.Nil || in.CustomerName == "" {
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

// PaymentInput registers a collection. BankAccountID, when set, deposits
// the amount into that treasury account within the same transaction.
type PaymentInput struct {
	ReceivableID  int64
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

// ListFilter narrows receivable listings.
type ListFilter struct {
	State    *ReceivableState
	Customer *string
	DueFrom  *time.Time
	DueTo    *time.Time
	Limit    int
	Offset   int
}
