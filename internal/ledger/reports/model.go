package reports

import (
	"time"

	"github.com/meridian-erp/meridian-erp/internal/ledger/accounts"
	"github.com/meridian-erp/meridian-erp/internal/ledger/journals"
)

// BalanceNature classifies a net balance as debtor or creditor.
type BalanceNature string

const (
	NatureDebtor   BalanceNature = "DEBTOR"
	NatureCreditor BalanceNature = "CREDITOR"
)

// Journal is the ordered listing of approved entries in one period.
type Journal struct {
	PeriodID    int64                   `json:"period_id"`
	Entries     []journals.JournalEntry `json:"entries"`
	TotalDebit  float64                 `json:"total_debit"`
	TotalCredit float64                 `json:"total_credit"`
}

// LedgerLine is one approved posting against an account, with the entry
// context needed to read the ledger chronologically.
type LedgerLine struct {
	EntryID     int64     `json:"entry_id"`
	EntryNumber string    `json:"entry_number"`
	EntryDate   time.Time `json:"entry_date"`
	Description string    `json:"description"`
	Debit       float64   `json:"debit"`
	Credit      float64   `json:"credit"`
}

// GeneralLedger is the per-account view of approved postings.
type GeneralLedger struct {
	Account     accounts.Account `json:"account"`
	PeriodID    *int64           `json:"period_id,omitempty"`
	Lines       []LedgerLine     `json:"lines"`
	TotalDebit  float64          `json:"total_debit"`
	TotalCredit float64          `json:"total_credit"`
	Net         float64          `json:"net"`
	Nature      BalanceNature    `json:"nature"`
}

// AccountBalance is one account's aggregated approved postings, the raw
// material of the balance sheet.
type AccountBalance struct {
	AccountID   int64
	Code        string
	Name        string
	Kind        accounts.AccountKind
	TotalDebit  float64
	TotalCredit float64
}

// BalanceSheetLine is one nonzero account inside a balance sheet section.
type BalanceSheetLine struct {
	AccountID      int64   `json:"account_id"`
	Code           string  `json:"code"`
	Name           string  `json:"name"`
	Balance        float64 `json:"balance"`
	BalanceDisplay string  `json:"balance_display"`
}

// BalanceSheetSection groups accounts of one kind with their sum.
type BalanceSheetSection struct {
	Lines        []BalanceSheetLine `json:"lines"`
	Total        float64            `json:"total"`
	TotalDisplay string             `json:"total_display"`
}

// BalanceSheet buckets postable active accounts by kind. Income and
// expense accounts are excluded; they belong to the income statement.
type BalanceSheet struct {
	PeriodID    *int64              `json:"period_id,omitempty"`
	Assets      BalanceSheetSection `json:"assets"`
	Liabilities BalanceSheetSection `json:"liabilities"`
	Equity      BalanceSheetSection `json:"equity"`
}
