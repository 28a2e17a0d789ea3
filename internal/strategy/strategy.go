// Package strategy turns a shopping list plus aggregated quotes into candidate
// purchasing plans.
package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/trolleyhq/trolley/internal/catalog"
	"github.com/trolleyhq/trolley/internal/quote"
)

// Item is one shopping-list line with the quotes gathered for it, in catalog
// iteration order.
type Item struct {
	ID       string
	Name     string
	Quantity int
	Quotes   []quote.Quote
}

// QuoteFor returns the item's quote at the given store.
func (i Item) QuoteFor(storeKey string) (quote.Quote, bool) {
	for _, q := range i.Quotes {
		if q.StoreKey == storeKey {
			return q, true
		}
	}
	return quote.Quote{}, false
}

// ItemAssignment records the store chosen for one item within a plan.
type ItemAssignment struct {
	ItemID    string          `json:"item"`
	StoreKey  string          `json:"store"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// Plan is a complete proposed purchase distribution across one or more stores.
type Plan struct {
	Strategy       string           `json:"strategy"`
	Assignments    []ItemAssignment `json:"assignments"`
	ItemCost       decimal.Decimal  `json:"item_cost"`
	DeliveryCost   decimal.Decimal  `json:"delivery_cost"`
	ItemsPriced    int              `json:"items_priced"`
	ItemsRequested int              `json:"items_requested"`
}

// Total is the ranking key: item cost plus delivery.
func (p Plan) Total() decimal.Decimal {
	return p.ItemCost.Add(p.DeliveryCost)
}

// Strategy produces one plan variant from a shopping list. Evaluate returns
// (nil, false) when the strategy is inapplicable, e.g. when no store stocks
// any item.
type Strategy interface {
	Name() string
	Evaluate(items []Item, cat *catalog.Catalog) (*Plan, bool)
}

// groupDelivery sums per-store delivery fees for the given subtotals using
// each store's minimum-order rule.
func groupDelivery(subtotals map[string]decimal.Decimal, cat *catalog.Catalog) decimal.Decimal {
	delivery := decimal.Zero
	for key, subtotal := range subtotals {
		store, ok := cat.Lookup(key)
		if !ok {
			continue
		}
		delivery = delivery.Add(store.DeliveryCost(subtotal))
	}
	return delivery
}
