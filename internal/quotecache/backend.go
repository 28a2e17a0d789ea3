// Package quotecache provides TTL-bounded storage for per-store product quotes.
package quotecache

import (
	"context"
	"strings"
	"time"

	"github.com/trolleyhq/trolley/errs"
	"github.com/trolleyhq/trolley/internal/quote"
)

// Key identifies a cached quote by store and product.
type Key struct {
	StoreKey  string
	ProductID string
}

// Validate checks that both key components are present.
func (k Key) Validate() error {
	if strings.TrimSpace(k.StoreKey) == "" {
		return errs.New("", errs.CodeInvalid, errs.WithMessage("cache key store required"))
	}
	if strings.TrimSpace(k.ProductID) == "" {
		return errs.New(k.StoreKey, errs.CodeInvalid, errs.WithMessage("cache key product required"))
	}
	return nil
}

// Entry is one cached quote together with its fetch timestamp.
type Entry struct {
	Key       Key
	Quote     quote.Quote
	FetchedAt time.Time
}

// Backend is the storage layer behind the cache. Implementations return an
// errs.CodeNotFound envelope for missing keys; any other error is treated by
// the cache as a degraded backend and downgraded to a miss.
type Backend interface {
	Get(ctx context.Context, key Key) (Entry, error)
	Put(ctx context.Context, entry Entry) error
	Delete(ctx context.Context, key Key) error
	Close()
}

// ErrNotFound reports whether err marks a missing cache entry.
func ErrNotFound(err error) bool {
	return errs.CodeOf(err) == errs.CodeNotFound
}
