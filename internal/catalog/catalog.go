// Package catalog holds the immutable retailer catalog shared by an optimization run.
package catalog

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/trolleyhq/trolley/errs"
)

// Store describes a single retailer: identity, price endpoint, and delivery terms.
type Store struct {
	Key         string          `yaml:"key"`
	Name        string          `yaml:"name"`
	Endpoint    string          `yaml:"api_endpoint"`
	MinOrder    decimal.Decimal `yaml:"min_order"`
	DeliveryFee decimal.Decimal `yaml:"delivery_fee"`
}

// DeliveryCost returns the fee charged for an order of the given subtotal.
// Orders meeting the minimum-order threshold ship free.
func (s Store) DeliveryCost(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(s.MinOrder) {
		return decimal.Zero
	}
	return s.DeliveryFee
}

// Catalog is an ordered, read-only collection of stores. Iteration order is
// the declaration order of the source file and is load-bearing: strategies
// break price ties by it.
type Catalog struct {
	stores []Store
	index  map[string]int
}

// New validates the store list and builds a catalog preserving input order.
func New(stores []Store) (*Catalog, error) {
	index := make(map[string]int, len(stores))
	owned := make([]Store, 0, len(stores))
	for i, store := range stores {
		key := strings.TrimSpace(store.Key)
		if key == "" {
			return nil, errs.New("", errs.CodeInvalid, errs.WithMessage("store key required"))
		}
		if _, dup := index[key]; dup {
			return nil, errs.New(key, errs.CodeInvalid, errs.WithMessage("duplicate store key"))
		}
		if store.MinOrder.IsNegative() {
			return nil, errs.New(key, errs.CodeInvalid, errs.WithMessage("min_order must not be negative"))
		}
		if store.DeliveryFee.IsNegative() {
			return nil, errs.New(key, errs.CodeInvalid, errs.WithMessage("delivery_fee must not be negative"))
		}
		store.Key = key
		if strings.TrimSpace(store.Name) == "" {
			store.Name = key
		}
		index[key] = i
		owned = append(owned, store)
	}
	return &Catalog{stores: owned, index: index}, nil
}

// Len returns the number of stores in the catalog.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.stores)
}

// Stores returns the stores in catalog iteration order. The returned slice is
// a copy; the catalog itself never mutates after construction.
func (c *Catalog) Stores() []Store {
	if c == nil {
		return nil
	}
	out := make([]Store, len(c.stores))
	copy(out, c.stores)
	return out
}

// Lookup returns the store registered under key.
func (c *Catalog) Lookup(key string) (Store, bool) {
	if c == nil {
		return Store{}, false
	}
	i, ok := c.index[strings.TrimSpace(key)]
	if !ok {
		return Store{}, false
	}
	return c.stores[i], true
}

// Position returns the catalog iteration index for key, used for tie-breaking.
func (c *Catalog) Position(key string) (int, bool) {
	if c == nil {
		return 0, false
	}
	i, ok := c.index[strings.TrimSpace(key)]
	return i, ok
}
