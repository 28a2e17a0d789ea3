package pricing

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Prices are GBP throughout; storefronts covered by the catalog all trade in
// the UK.
var gbpPrinter = message.NewPrinter(language.BritishEnglish)

// FormatPrice renders a decimal amount as an en-GB currency string, e.g. "£1.45".
func FormatPrice(amount decimal.Decimal) string {
	return gbpPrinter.Sprint(currency.Symbol(currency.GBP.Amount(amount.InexactFloat64())))
}
