package reports

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var amountPrinter = message.NewPrinter(language.English)

// FormatAmount renders a money amount with thousands separators for the
// report display fields.
func FormatAmount(v float64) string {
	return amountPrinter.Sprintf("%.2f", v)
}

// Decorate fills the display fields on a built balance sheet.
func Decorate(sheet BalanceSheet) BalanceSheet {
	for _, section := range []*BalanceSheetSection{&sheet.Assets, &sheet.Liabilities, &sheet.Equity} {
		for i := range section.Lines {
			section.Lines[i].BalanceDisplay = FormatAmount(section.Lines[i].Balance)
		}
		section.TotalDisplay = FormatAmount(section.Total)
	}
	return sheet
}
