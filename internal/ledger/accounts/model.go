package accounts

import "time"

// AccountKind enumerates chart-of-accounts categories.
type AccountKind string

const (
	AccountKindAsset     AccountKind = "ASSET"
	AccountKindLiability AccountKind = "LIABILITY"
	AccountKindEquity    AccountKind = "EQUITY"
	AccountKindIncome    AccountKind = "INCOME"
	AccountKindExpense   AccountKind = "EXPENSE"
)

// Account models a chart of accounts node. Only active leaf nodes with
// AllowsPostings accept journal lines.
type Account struct {
	ID             int64       `json:"id" db:"id"`
	Code           string      `json:"code" db:"code"`
	Name           string      `json:"name" db:"name"`
	Kind           AccountKind `json:"kind" db:"kind"`
	ParentID       *int64      `json:"parent_id,omitempty" db:"parent_id"`
	Level          int         `json:"level" db:"level"`
	AllowsPostings bool        `json:"allows_postings" db:"allows_postings"`
	Active         bool        `json:"active" db:"active"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at" db:"updated_at"`

	Parent   *Account  `json:"parent,omitempty"`
	Children []Account `json:"children,omitempty"`
}

// Postable reports whether the account may receive journal lines.
func (a Account) Postable() bool {
	return a.AllowsPostings && a.Active
}
