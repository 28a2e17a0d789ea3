package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/trolleyhq/trolley/internal/catalog"
	"github.com/trolleyhq/trolley/internal/quote"
)

// TagMultiStore labels plans that split the list across retailers.
const TagMultiStore = "multi_store"

// MultiStore evaluates buying each item wherever it is cheapest, paying each
// involved store's delivery fee unless that store's group clears its
// minimum-order threshold.
type MultiStore struct{}

// Name implements Strategy.
func (MultiStore) Name() string { return TagMultiStore }

// Evaluate implements Strategy. Per-item price ties go to the store earliest
// in catalog iteration order.
func (MultiStore) Evaluate(items []Item, cat *catalog.Catalog) (*Plan, bool) {
	itemCost := decimal.Zero
	subtotals := make(map[string]decimal.Decimal)
	assignments := make([]ItemAssignment, 0, len(items))

	for _, item := range items {
		chosen, ok := cheapestAvailable(item.Quotes, cat)
		if !ok {
			continue
		}
		line := chosen.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		itemCost = itemCost.Add(line)
		subtotals[chosen.StoreKey] = subtotals[chosen.StoreKey].Add(line)
		assignments = append(assignments, ItemAssignment{
			ItemID:    item.ID,
			StoreKey:  chosen.StoreKey,
			UnitPrice: chosen.Price,
			Quantity:  item.Quantity,
		})
	}
	if len(assignments) == 0 {
		return nil, false
	}

	return &Plan{
		Strategy:       TagMultiStore,
		Assignments:    assignments,
		ItemCost:       itemCost,
		DeliveryCost:   groupDelivery(subtotals, cat),
		ItemsPriced:    len(assignments),
		ItemsRequested: len(items),
	}, true
}

// cheapestAvailable picks the lowest available quote, breaking price ties by
// catalog position so the result does not depend on quote input order.
func cheapestAvailable(quotes []quote.Quote, cat *catalog.Catalog) (quote.Quote, bool) {
	var best quote.Quote
	bestPos := -1
	found := false
	for _, q := range quotes {
		if !q.Available {
			continue
		}
		pos, ok := cat.Position(q.StoreKey)
		if !ok {
			continue
		}
		switch {
		case !found,
			q.Price.LessThan(best.Price),
			q.Price.Equal(best.Price) && pos < bestPos:
			best = q
			bestPos = pos
			found = true
		}
	}
	return best, found
}
