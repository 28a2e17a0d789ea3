package aggregator

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/trolleyhq/trolley/errs"
	"github.com/trolleyhq/trolley/internal/catalog"
	"github.com/trolleyhq/trolley/internal/quote"
	"github.com/trolleyhq/trolley/internal/quotecache"
)

// mapFetcher serves canned quotes keyed by store; stores without an entry fail.
type mapFetcher struct {
	quotes map[string]quote.Quote
	delay  map[string]time.Duration
}

func (f *mapFetcher) Fetch(ctx context.Context, store catalog.Store, _ string) (quote.Quote, error) {
	if d, ok := f.delay[store.Key]; ok {
		select {
		case <-ctx.Done():
			return quote.Quote{}, ctx.Err()
		case <-time.After(d):
		}
	}
	q, ok := f.quotes[store.Key]
	if !ok {
		return quote.Quote{}, errs.New(store.Key, errs.CodeNetwork, errs.WithMessage("endpoint unreachable"))
	}
	q.StoreKey = store.Key
	return q, nil
}

func threeStoreCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New([]catalog.Store{
		{Key: "tesco", Name: "Tesco"},
		{Key: "asda", Name: "Asda"},
		{Key: "morrisons", Name: "Morrisons"},
	})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return cat
}

func newAggregator(t *testing.T, fetcher quote.Fetcher) (*Aggregator, *quotecache.MemoryBackend) {
	t.Helper()
	backend := quotecache.NewMemoryBackend(time.Hour, time.Minute)
	cache := quotecache.NewCache(backend, fetcher, time.Hour)
	return New(threeStoreCatalog(t), cache, 4), backend
}

func TestCompareStoresCoversCatalogInOrder(t *testing.T) {
	fetcher := &mapFetcher{quotes: map[string]quote.Quote{
		"tesco": {Price: decimal.RequireFromString("1.45"), Available: true},
		"asda":  {Price: decimal.RequireFromString("1.30"), Available: false},
	}}
	agg, backend := newAggregator(t, fetcher)
	defer backend.Close()

	rows := agg.CompareStores(context.Background(), "milk-2l")
	if len(rows) != 3 {
		t.Fatalf("expected one row per catalog store, got %d", len(rows))
	}
	wantOrder := []string{"tesco", "asda", "morrisons"}
	for i, key := range wantOrder {
		if rows[i].StoreKey != key {
			t.Fatalf("row %d: expected %s, got %s", i, key, rows[i].StoreKey)
		}
	}
	if !rows[0].Priced() || !rows[0].Available {
		t.Fatal("tesco row should be priced and available")
	}
	if !rows[1].Priced() || rows[1].Available {
		t.Fatal("asda row should be priced but unavailable")
	}
	if rows[2].Priced() || rows[2].Available {
		t.Fatal("failing store row should carry no price and be unavailable")
	}
	if rows[1].StoreName != "Asda" {
		t.Fatalf("expected display name, got %q", rows[1].StoreName)
	}
}

func TestCompareStoresFailureDoesNotBlockSiblings(t *testing.T) {
	fetcher := &mapFetcher{
		quotes: map[string]quote.Quote{
			"tesco":     {Price: decimal.RequireFromString("1.45"), Available: true},
			"morrisons": {Price: decimal.RequireFromString("1.55"), Available: true},
		},
		delay: map[string]time.Duration{"asda": 50 * time.Millisecond},
	}
	agg, backend := newAggregator(t, fetcher)
	defer backend.Close()

	start := time.Now()
	rows := agg.CompareStores(context.Background(), "milk-2l")
	elapsed := time.Since(start)

	if rows[1].Priced() {
		t.Fatal("slow failing store should have no price")
	}
	if !rows[0].Priced() || !rows[2].Priced() {
		t.Fatal("siblings of a failing store must still resolve")
	}
	// All three fetches overlap; total should track one slow store, not the sum.
	if elapsed > 500*time.Millisecond {
		t.Fatalf("fan-out took too long: %s", elapsed)
	}
}

func TestQuotesForReturnsOnlyPriced(t *testing.T) {
	fetcher := &mapFetcher{quotes: map[string]quote.Quote{
		"asda": {Price: decimal.RequireFromString("0.89"), Available: true},
	}}
	agg, backend := newAggregator(t, fetcher)
	defer backend.Close()

	quotes := agg.QuotesFor(context.Background(), "beans-400g")
	if len(quotes) != 1 {
		t.Fatalf("expected 1 priced quote, got %d", len(quotes))
	}
	if quotes[0].StoreKey != "asda" {
		t.Fatalf("expected asda, got %s", quotes[0].StoreKey)
	}
}

func TestCompareStoresUsesCache(t *testing.T) {
	var calls atomic.Int32
	fetcher := quote.FetcherFunc(func(_ context.Context, store catalog.Store, _ string) (quote.Quote, error) {
		calls.Add(1)
		return quote.Quote{StoreKey: store.Key, Price: decimal.NewFromInt(1), Available: true}, nil
	})
	agg, backend := newAggregator(t, fetcher)
	defer backend.Close()

	ctx := context.Background()
	agg.CompareStores(ctx, "milk-2l")
	first := calls.Load()
	agg.CompareStores(ctx, "milk-2l")
	if calls.Load() != first {
		t.Fatalf("second comparison should be served from cache, fetches went %d -> %d", first, calls.Load())
	}
}
