package treasury

import (
	"time"

	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
)

// CreateAccountInput carries the fields for opening a new cash or bank
// account. The opening balance becomes the initial current balance.
type CreateAccountInput struct {
	TypeID          int64
	LinkedAccountID *int64
	Name            string
	BankName        *string
	Number          *string
	OpeningBalance  float64
	IsPettyCash     bool
	Ceiling         *float64
}

func (in CreateAccountInput) Validate() error {
	if in.TypeID <= 0 || in.Name == "" {
		return shared.ErrInvalidLine
	}
	if in.OpeningBalance < 0 {
		return shared.ErrInvalidAmount
	}
	return nil
}

// UpdateAccountInput patches mutable account fields. Nil means unchanged.
// The opening balance is deliberately absent; it cannot be edited.
type UpdateAccountInput struct {
	Name     *string
	BankName *string
	Number   *string
	Ceiling  *float64
	Active   *bool
}

// MovementInput records a manual IN or OUT movement against one account.
type MovementInput struct {
	BankAccountID int64
	Kind          MovementKind
	Amount        float64
	Description   string
	MovementDate  time.Time
	Reference     *string
	PostedBy      int64
}

func (in MovementInput) Validate() error {
	if in.Kind != MovementIn && in.Kind != MovementOut {
		return shared.ErrInvalidLine
	}
	if in.Amount <= 0 {
		return shared.ErrInvalidAmount
	}
	return nil
}

// TransferInput moves funds between two accounts atomically.
type TransferInput struct {
	FromAccountID int64
	ToAccountID   int64
	Amount        float64
	Description   string
	MovementDate  time.Time
	Reference     *string
	PostedBy      int64
}

func (in TransferInput) Validate() error {
	if in.FromAccountID == in.ToAccountID {
		return shared.ErrSameAccount
	}
	if in.Amount <= 0 {
		return shared.ErrInvalidAmount
	}
	return nil
}

// MovementFilter narrows movement listings.
type MovementFilter struct {
	BankAccountID *int64
	Kind          *MovementKind
	From          *time.Time
	To            *time.Time
	Limit         int
	Offset        int
}
