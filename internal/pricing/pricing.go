// Package pricing provides pure price comparison helpers shared by strategies
// and presentation layers.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/trolleyhq/trolley/errs"
	"github.com/trolleyhq/trolley/internal/quote"
)

var oneHundred = decimal.NewFromInt(100)

// FindBestPrice returns the lowest-priced available quote. The boolean is
// false when no quote is available. Ties keep the first occurrence in input
// order, which callers rely on for deterministic results.
func FindBestPrice(quotes []quote.Quote) (quote.Quote, bool) {
	var best quote.Quote
	found := false
	for _, q := range quotes {
		if !q.Available {
			continue
		}
		if !found || q.Price.LessThan(best.Price) {
			best = q
			found = true
		}
	}
	return best, found
}

// Savings describes the spread between the cheapest and dearest priced quotes.
type Savings struct {
	Amount     decimal.Decimal `json:"amount"`
	Percentage string          `json:"percentage"`
}

// ZeroSavings is the result when fewer than two priced quotes exist.
func ZeroSavings() Savings {
	return Savings{Amount: decimal.Zero, Percentage: "0.0"}
}

// CalculateSavings computes max-min over every priced quote, availability
// aside: an out-of-stock price still anchors the spread.
func CalculateSavings(quotes []quote.Quote) Savings {
	if len(quotes) < 2 {
		return ZeroSavings()
	}
	min := quotes[0].Price
	max := quotes[0].Price
	for _, q := range quotes[1:] {
		if q.Price.LessThan(min) {
			min = q.Price
		}
		if q.Price.GreaterThan(max) {
			max = q.Price
		}
	}
	if max.IsZero() {
		return ZeroSavings()
	}
	amount := max.Sub(min)
	percentage := amount.Div(max).Mul(oneHundred).StringFixed(1)
	return Savings{Amount: amount, Percentage: percentage}
}

// PricePerUnit pairs a computed unit price with a display string.
type PricePerUnit struct {
	Value   decimal.Decimal `json:"value"`
	Display string          `json:"display"`
}

// CalculatePricePerUnit divides price by quantity and renders a "per unit"
// label. Quantity must be positive.
func CalculatePricePerUnit(price decimal.Decimal, quantity int, unit string) (PricePerUnit, error) {
	if quantity <= 0 {
		return PricePerUnit{}, errs.New("", errs.CodeInvalid, errs.WithMessage("quantity must be positive"))
	}
	value := price.Div(decimal.NewFromInt(int64(quantity)))
	return PricePerUnit{
		Value:   value,
		Display: FormatPrice(value) + " per " + unit,
	}, nil
}
