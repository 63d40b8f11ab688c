package reports

import (
	"github.com/meridian-erp/meridian-erp/internal/ledger/accounts"
	"github.com/meridian-erp/meridian-erp/internal/ledger/journals"
)

// BuildJournal totals an ordered set of approved entries.
func BuildJournal(periodID int64, entries []journals.JournalEntry) Journal {
	journal := Journal{PeriodID: periodID, Entries: entries}
	for _, e := range entries {
		journal.TotalDebit += e.TotalDebit
		journal.TotalCredit += e.TotalCredit
	}
	return journal
}

// BuildGeneralLedger computes totals, net balance and nature for one
// account's postings. Net is debit minus credit; a positive net reads as a
// debtor balance.
func BuildGeneralLedger(account accounts.Account, periodID *int64, lines []LedgerLine) GeneralLedger {
	ledger := GeneralLedger{Account: account, PeriodID: periodID, Lines: lines}
	for _, line := range lines {
		ledger.TotalDebit += line.Debit
		ledger.TotalCredit += line.Credit
	}
	ledger.Net = ledger.TotalDebit - ledger.TotalCredit
	ledger.Nature = NatureCreditor
	if ledger.TotalDebit > ledger.TotalCredit {
		ledger.Nature = NatureDebtor
	}
	return ledger
}

// BuildBalanceSheet buckets aggregated balances by account kind. Asset
// balances read debit minus credit; liability and equity balances read
// credit minus debit. Accounts whose balance rounds to zero are dropped,
// as are income and expense accounts.
func BuildBalanceSheet(periodID *int64, balances []AccountBalance) BalanceSheet {
	sheet := BalanceSheet{PeriodID: periodID}
	for _, b := range balances {
		var balance float64
		var section *BalanceSheetSection
		switch b.Kind {
		case accounts.AccountKindAsset:
			balance = b.TotalDebit - b.TotalCredit
			section = &sheet.Assets
		case accounts.AccountKindLiability:
			balance = b.TotalCredit - b.TotalDebit
			section = &sheet.Liabilities
		case accounts.AccountKindEquity:
			balance = b.TotalCredit - b.TotalDebit
			section = &sheet.Equity
		default:
			continue
		}
		if balance < 0.005 && balance > -0.005 {
			continue
		}
		section.Lines = append(section.Lines, BalanceSheetLine{
			AccountID: b.AccountID,
			Code:      b.Code,
			Name:      b.Name,
			Balance:   balance,
		})
		section.Total += balance
	}
	return sheet
}
