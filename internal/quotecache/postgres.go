package quotecache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/trolleyhq/trolley/errs"
	"github.com/trolleyhq/trolley/internal/quote"
)

// PostgresBackend persists cached quotes in PostgreSQL so multiple optimizer
// processes can share one quote pool.
type PostgresBackend struct {
	pool *pgxpool.Pool
}

// NewPostgresBackend constructs a backend over the provided pgx pool.
func NewPostgresBackend(pool *pgxpool.Pool) *PostgresBackend {
	return &PostgresBackend{pool: pool}
}

const (
	quoteUpsertSQL = `
INSERT INTO quote_cache (
    store_key,
    product_id,
    price,
    available,
    fetched_at
)
VALUES ($1, $2, $3::numeric, $4, $5)
ON CONFLICT (store_key, product_id) DO UPDATE SET
    price = EXCLUDED.price,
    available = EXCLUDED.available,
    fetched_at = EXCLUDED.fetched_at;
`
	quoteSelectSQL = `
SELECT price::text, available, fetched_at
FROM quote_cache
WHERE store_key = $1 AND product_id = $2;
`
	quoteDeleteSQL = `DELETE FROM quote_cache WHERE store_key = $1 AND product_id = $2;`
)

// Get loads the cached quote for key.
func (p *PostgresBackend) Get(ctx context.Context, key Key) (Entry, error) {
	if err := key.Validate(); err != nil {
		return Entry{}, err
	}
	if p.pool == nil {
		return Entry{}, errs.New(key.StoreKey, errs.CodeUnavailable, errs.WithMessage("quote cache pool not configured"))
	}

	var (
		priceText string
		available bool
		fetchedAt time.Time
	)
	row := p.pool.QueryRow(ctx, quoteSelectSQL, key.StoreKey, key.ProductID)
	if err := row.Scan(&priceText, &available, &fetchedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, errs.New(key.StoreKey, errs.CodeNotFound, errs.WithMessage("quote not cached"))
		}
		return Entry{}, fmt.Errorf("select cached quote: %w", err)
	}

	price, err := decimal.NewFromString(priceText)
	if err != nil {
		return Entry{}, fmt.Errorf("decode cached price %q: %w", priceText, err)
	}

	return Entry{
		Key: key,
		Quote: quote.Quote{
			StoreKey:  key.StoreKey,
			Price:     price,
			Available: available,
			FetchedAt: fetchedAt.UTC(),
		},
		FetchedAt: fetchedAt.UTC(),
	}, nil
}

// Put upserts the cached quote.
func (p *PostgresBackend) Put(ctx context.Context, entry Entry) error {
	if err := entry.Key.Validate(); err != nil {
		return err
	}
	if p.pool == nil {
		return errs.New(entry.Key.StoreKey, errs.CodeUnavailable, errs.WithMessage("quote cache pool not configured"))
	}
	if entry.FetchedAt.IsZero() {
		entry.FetchedAt = time.Now().UTC()
	}
	_, err := p.pool.Exec(ctx, quoteUpsertSQL,
		entry.Key.StoreKey,
		entry.Key.ProductID,
		entry.Quote.Price.String(),
		entry.Quote.Available,
		entry.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert cached quote: %w", err)
	}
	return nil
}

// Delete removes the cached quote for key.
func (p *PostgresBackend) Delete(ctx context.Context, key Key) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if p.pool == nil {
		return errs.New(key.StoreKey, errs.CodeUnavailable, errs.WithMessage("quote cache pool not configured"))
	}
	if _, err := p.pool.Exec(ctx, quoteDeleteSQL, key.StoreKey, key.ProductID); err != nil {
		return fmt.Errorf("delete cached quote: %w", err)
	}
	return nil
}

// Close releases the underlying pool.
func (p *PostgresBackend) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}
