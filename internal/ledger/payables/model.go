package payables

import "time"

// PayableState tracks settlement progress on a supplier obligation.
type PayableState string

const (
	StatePending PayableState = "PENDING"
	StatePartial PayableState = "PARTIAL"
	StatePaid    PayableState = "PAID"
	StateOverdue PayableState = "OVERDUE"
)

// Payable is money owed to a supplier. Outstanding always equals Total
// minus Paid.
type Payable struct {
	ID                int64        `json:"id"`
	SupplierName      string       `json:"supplier_name"`
	SupplierInvoiceNo *string      `json:"supplier_invoice_no,omitempty"`
	Concept           string       `json:"concept"`
	IssueDate         time.Time    `json:"issue_date"`
	DueDate           time.Time    `json:"due_date"`
	Total             float64      `json:"total"`
	Paid              float64      `json:"paid"`
	Outstanding       float64      `json:"outstanding"`
	State             PayableState `json:"state"`
	DaysOverdue       int          `json:"days_overdue"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

// Settled reports whether nothing payable remains.
func (p Payable) Settled() bool {
	return p.Outstanding <= 0.005
}

// Payment is one disbursement against a payable. When BankAccountID is set
// the amount was debited from that treasury account and MovementID links
// the movement created in the same transaction.
type Payment struct {
	ID            int64     `json:"id"`
	PayableID     int64     `json:"payable_id"`
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

// Summary aggregates open payables for dashboards. PaidCount comes from
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
