// Package quote defines the per-store price quote model and the price-fetch boundary.
package quote

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/trolleyhq/trolley/internal/catalog"
)

// Quote is a single store's price and availability for one product at a point in time.
type Quote struct {
	StoreKey  string          `json:"store"`
	Price     decimal.Decimal `json:"price"`
	Available bool            `json:"availability"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// Fetcher retrieves a live quote from a store's price endpoint. Implementations
// must return an error for any transport failure or malformed response; callers
// translate every failure into an absent quote.
type Fetcher interface {
	Fetch(ctx context.Context, store catalog.Store, productID string) (Quote, error)
}

// FetcherFunc adapts a plain function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, store catalog.Store, productID string) (Quote, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, store catalog.Store, productID string) (Quote, error) {
	return f(ctx, store, productID)
}
