package quotecache

import (
	"context"
	"time"

	"github.com/trolleyhq/trolley/internal/catalog"
	"github.com/trolleyhq/trolley/internal/observability"
	"github.com/trolleyhq/trolley/internal/quote"
)

// DefaultTTL bounds how long a fetched quote may be served without a refetch.
const DefaultTTL = time.Hour

// Cache serves store quotes from a Backend, fetching through the external
// collaborator on a miss or expiry. A fetch failure yields an absent quote and
// stores nothing, so the next lookup retries. A failing backend degrades the
// cache to always-miss-always-fetch rather than failing the lookup.
//
// Concurrent lookups for the same uncached key are not deduplicated; each may
// trigger its own fetch. Fetches are idempotent, so the duplication costs one
// extra request, never correctness.
type Cache struct {
	backend Backend
	fetcher quote.Fetcher
	ttl     time.Duration
	clock   func() time.Time
}

// NewCache wires a cache over the backend and fetch collaborator. A ttl <= 0
// falls back to DefaultTTL.
func NewCache(backend Backend, fetcher quote.Fetcher, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		backend: backend,
		fetcher: fetcher,
		ttl:     ttl,
		clock:   time.Now,
	}
}

// WithClock overrides the internal clock, primarily for testing.
func (c *Cache) WithClock(clock func() time.Time) *Cache {
	if clock == nil {
		clock = time.Now
	}
	c.clock = clock
	return c
}

// TTL returns the configured time-to-live.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get returns the quote for (store, productID), consulting the backend first.
// The boolean reports whether a quote is present; false means the store could
// not be priced for this product right now.
func (c *Cache) Get(ctx context.Context, store catalog.Store, productID string) (quote.Quote, bool) {
	key := Key{StoreKey: store.Key, ProductID: productID}
	if err := key.Validate(); err != nil {
		observability.Log().Error("quote cache key rejected",
			observability.Field{Key: "store", Value: store.Key},
			observability.Field{Key: "error", Value: err.Error()},
		)
		return quote.Quote{}, false
	}

	now := c.clock()
	entry, err := c.backend.Get(ctx, key)
	switch {
	case err == nil:
		if now.Sub(entry.FetchedAt) < c.ttl {
			observability.RecordCacheLookup(ctx, store.Key, "hit")
			return entry.Quote, true
		}
		observability.RecordCacheLookup(ctx, store.Key, "expired")
	case ErrNotFound(err):
		observability.RecordCacheLookup(ctx, store.Key, "miss")
	default:
		// Degraded backend: behave as a permanent miss, never fail the lookup.
		observability.RecordCacheLookup(ctx, store.Key, "backend_error")
		observability.Log().Error("quote cache backend degraded",
			observability.Field{Key: "store", Value: store.Key},
			observability.Field{Key: "product", Value: productID},
			observability.Field{Key: "error", Value: err.Error()},
		)
	}

	fetched, err := c.fetcher.Fetch(ctx, store, productID)
	if err != nil {
		observability.Log().Debug("price fetch failed",
			observability.Field{Key: "store", Value: store.Key},
			observability.Field{Key: "product", Value: productID},
			observability.Field{Key: "error", Value: err.Error()},
		)
		return quote.Quote{}, false
	}

	stored := Entry{Key: key, Quote: fetched, FetchedAt: now}
	if err := c.backend.Put(ctx, stored); err != nil {
		observability.Log().Error("quote cache write failed",
			observability.Field{Key: "store", Value: store.Key},
			observability.Field{Key: "product", Value: productID},
			observability.Field{Key: "error", Value: err.Error()},
		)
	}
	return fetched, true
}
