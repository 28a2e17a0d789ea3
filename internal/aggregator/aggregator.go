// Package aggregator fans per-product price lookups out across the store catalog.
package aggregator

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc/pool"

	"github.com/trolleyhq/trolley/internal/catalog"
	"github.com/trolleyhq/trolley/internal/observability"
	"github.com/trolleyhq/trolley/internal/quote"
	"github.com/trolleyhq/trolley/internal/quotecache"
)

// StoreQuote is one catalog store's answer for a product. Price is nil when
// the store could not be priced; such entries always carry Available=false.
type StoreQuote struct {
	StoreKey  string           `json:"store"`
	StoreName string           `json:"store_name"`
	Price     *decimal.Decimal `json:"price"`
	Available bool             `json:"availability"`
}

// Priced reports whether the store produced a usable price.
func (s StoreQuote) Priced() bool {
	return s.Price != nil
}

// Quote converts the entry back into the quote model. Only valid when Priced.
func (s StoreQuote) Quote() quote.Quote {
	var price decimal.Decimal
	if s.Price != nil {
		price = *s.Price
	}
	return quote.Quote{StoreKey: s.StoreKey, Price: price, Available: s.Available}
}

// Aggregator resolves quotes for every store in the catalog through the quote cache.
type Aggregator struct {
	catalog    *catalog.Catalog
	cache      *quotecache.Cache
	maxWorkers int
}

// New constructs an aggregator over the catalog and cache. maxWorkers bounds
// concurrent lookups; <= 0 defaults to GOMAXPROCS.
func New(cat *catalog.Catalog, cache *quotecache.Cache, maxWorkers int) *Aggregator {
	if maxWorkers <= 0 {
		maxWorkers = runtime.GOMAXPROCS(0)
	}
	return &Aggregator{
		catalog:    cat,
		cache:      cache,
		maxWorkers: maxWorkers,
	}
}

// CompareStores fetches the product's quote from every catalog store
// concurrently and waits for all lookups to settle. One store failing or
// stalling never blocks or cancels the others; its row simply carries no
// price. Results are in catalog iteration order.
func (a *Aggregator) CompareStores(ctx context.Context, productID string) []StoreQuote {
	stores := a.catalog.Stores()
	results := make([]StoreQuote, len(stores))
	if len(stores) == 0 {
		return results
	}

	workerLimit := a.maxWorkers
	if workerLimit > len(stores) {
		workerLimit = len(stores)
	}
	p := pool.New().WithMaxGoroutines(workerLimit)
	for idx, store := range stores {
		i := idx
		s := store
		p.Go(func() {
			defer func() {
				if r := recover(); r != nil {
					observability.Log().Error("store lookup panic",
						observability.Field{Key: "store", Value: s.Key},
						observability.Field{Key: "product", Value: productID},
						observability.Field{Key: "panic", Value: fmt.Sprint(r)},
					)
					results[i] = StoreQuote{StoreKey: s.Key, StoreName: s.Name, Price: nil, Available: false}
				}
			}()
			results[i] = a.lookup(ctx, s, productID)
		})
	}
	p.Wait()
	return results
}

// QuotesFor returns only the priced quotes for a product, catalog order
// preserved. Strategies consume this compact form.
func (a *Aggregator) QuotesFor(ctx context.Context, productID string) []quote.Quote {
	rows := a.CompareStores(ctx, productID)
	quotes := make([]quote.Quote, 0, len(rows))
	for _, row := range rows {
		if !row.Priced() {
			continue
		}
		quotes = append(quotes, row.Quote())
	}
	return quotes
}

func (a *Aggregator) lookup(ctx context.Context, store catalog.Store, productID string) StoreQuote {
	q, ok := a.cache.Get(ctx, store, productID)
	if !ok {
		return StoreQuote{StoreKey: store.Key, StoreName: store.Name, Price: nil, Available: false}
	}
	price := q.Price
	return StoreQuote{
		StoreKey:  store.Key,
		StoreName: store.Name,
		Price:     &price,
		Available: q.Available,
	}
}
