package journals

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
)

// LineInput describes a journal line for a posting request.
type LineInput struct {
	AccountID int64
	Debit     float64
	Credit    float64
}

// CreateEntryInput groups fields required to create a journal entry. The
// period is resolved either by explicit PeriodID or by deriving year/month
// from Date.
type CreateEntryInput struct {
	PeriodID    *int64
	Date        time.Time
	Description string
	Category    EntryCategory
	InvoiceRef  *uuid.UUID
	PostedBy    int64
	Lines       []LineInput
}

// Validate ensures posting input meets minimum criteria. Totals are
// recomputed server-side; caller-supplied totals are never trusted.
func (in CreateEntryInput) Validate() error {
	if in.Date.IsZero() {
		return fmt.Errorf("journals: entry date required")
	}
	if len(in.Lines) < 2 {
		return shared.ErrTooFewLines
	}
	var debit, credit float64
	for idx, line := range in.Lines {
		if line.AccountID == 0 {
			return fmt.Errorf("journals: line %d missing account: %w", idx, shared.ErrUnknownAccount)
		}
		if line.Debit < 0 || line.Credit < 0 {
			return fmt.Errorf("journals: line %d negative amount: %w", idx, shared.ErrInvalidAmount)
		}
		if (line.Debit > 0) == (line.Credit > 0) {
			return fmt.Errorf("journals: line %d: %w", idx, shared.ErrInvalidLine)
		}
		debit += line.Debit
		credit += line.Credit
	}
	if math.Round(math.Abs(debit-credit)*100) > 1 {
		return shared.ErrUnbalanced
	}
	return nil
}

// Totals returns the server-computed debit and credit sums.
func (in CreateEntryInput) Totals() (debit, credit float64) {
	for _, line := range in.Lines {
		debit += line.Debit
		credit += line.Credit
	}
	return debit, credit
}

// VoidInput wraps parameters for voiding an entry.
type VoidInput struct {
	EntryID int64
	Reason  string
	ActorID int64
}

// ListFilter narrows entry listings.
type ListFilter struct {
	PeriodID *int64
	State    *EntryState
	Category *EntryCategory
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}
