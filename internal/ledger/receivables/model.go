package receivables

import (
	"time"

	"github.com/google/uuid"
)

// ReceivableState tracks collection progress on a customer invoice.
type ReceivableState string

const (
	StatePending ReceivableState = "PENDING"
	StatePartial ReceivableState = "PARTIAL"
	StatePaid    ReceivableState = "PAID"
	StateOverdue ReceivableState = "OVERDUE"
)

// Receivable is money owed by a customer. Outstanding always equals
// Total minus Paid; a receivable with outstanding at or below the
// rounding tolerance is PAID.
type Receivable struct {
	ID           int64           `json:"id"`
	InvoiceID    uuid.UUID       `json:"invoice_id"`
	CustomerName string          `json:"customer_name"`
	IssueDate    time.Time       `json:"issue_date"`
	DueDate      time.Time       `json:"due_date"`
	Total        float64         `json:"total"`
	Paid         float64         `json:"paid"`
	Outstanding  float64         `json:"outstanding"`
	State        ReceivableState `json:"state"`
	DaysOverdue  int             `json:"days_overdue"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Settled reports whether nothing collectible remains.
func (r Receivable) Settled() bool {
	return r.Outstanding <= 0.005
}

// Payment is one collection against a receivable. When BankAccountID is
// set the collected amount was deposited and MovementID links the
// treasury movement created in the same transaction.
type Payment struct {
	ID            int64     `json:"id"`
	ReceivableID  int64     `json:"receivable_id"`
	Amount        float64   `json:"amount"`
	PaymentDate   time.Time `json:"payment_date"`
	Method        string    `json:"method"`
	BankAccountID *int64    `json:"bank_account_id,omitempty"`
	MovementID    *int64    `json:"movement_id,omitempty"`
	Reference     *string   `json:"reference,omitempty"`
	PostedBy      int64     `json:"posted_by"`
	CreatedAt     time.Time `json:"created_at"`
}

// AgingBucket groups outstanding balances by how far past due they are.
type AgingBucket struct {
	Label       string  `json:"label"`
	Count       int     `json:"count"`
	Outstanding float64 `json:"outstanding"`
}

// Summary aggregates open receivables for dashboards. PaidCount comes from
// the repository since settled records drop out of the open listing.
type Summary struct {
	OpenCount        int           `json:"open_count"`
	PendingCount     int           `json:"pending_count"`
	PartialCount     int           `json:"partial_count"`
	PaidCount        int           `json:"paid_count"`
	TotalOutstanding float64       `json:"total_outstanding"`
	OverdueCount     int           `json:"overdue_count"`
	OverdueAmount    float64       `json:"overdue_amount"`
	Aging            []AgingBucket `json:"aging"`
}
