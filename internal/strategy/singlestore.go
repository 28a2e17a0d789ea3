package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/trolleyhq/trolley/internal/catalog"
)

// TagSingleStore labels plans that buy the whole list from one retailer.
const TagSingleStore = "single_store"

// SingleStore evaluates buying everything from the one store with the lowest
// combined subtotal and delivery. Items a store does not stock are excluded
// from that store's subtotal, not zero-priced.
type SingleStore struct{}

// Name implements Strategy.
func (SingleStore) Name() string { return TagSingleStore }

// Evaluate implements Strategy. Equal totals keep the earlier catalog store.
func (SingleStore) Evaluate(items []Item, cat *catalog.Catalog) (*Plan, bool) {
	var best *Plan
	for _, store := range cat.Stores() {
		subtotal := decimal.Zero
		assignments := make([]ItemAssignment, 0, len(items))
		for _, item := range items {
			q, ok := item.QuoteFor(store.Key)
			if !ok || !q.Available {
				continue
			}
			subtotal = subtotal.Add(q.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
			assignments = append(assignments, ItemAssignment{
				ItemID:    item.ID,
				StoreKey:  store.Key,
				UnitPrice: q.Price,
				Quantity:  item.Quantity,
			})
		}
		if len(assignments) == 0 {
			continue
		}
		candidate := Plan{
			Strategy:       TagSingleStore,
			Assignments:    assignments,
			ItemCost:       subtotal,
			DeliveryCost:   store.DeliveryCost(subtotal),
			ItemsPriced:    len(assignments),
			ItemsRequested: len(items),
		}
		if best == nil || candidate.Total().LessThan(best.Total()) {
			c := candidate
			best = &c
		}
	}
	if best == nil {
		return nil, false
	}
	return best, true
}
