package quote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/trolleyhq/trolley/errs"
	"github.com/trolleyhq/trolley/internal/catalog"
	"github.com/trolleyhq/trolley/internal/observability"
)

const userAgent = "trolley-optimizer/1.0"

// HTTPFetcher retrieves store quotes over HTTP with retry and client-side rate limiting.
type HTTPFetcher struct {
	client     *http.Client
	limiter    *rate.Limiter
	maxRetries int
}

// HTTPFetcherConfig tunes the HTTP fetch client.
type HTTPFetcherConfig struct {
	Timeout        time.Duration
	RequestsPerSec float64
	MaxRetries     int
}

// NewHTTPFetcher creates a fetcher with the provided timeout, rate limit, and retry budget.
func NewHTTPFetcher(cfg HTTPFetcherConfig) *HTTPFetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RequestsPerSec <= 0 {
		cfg.RequestsPerSec = 8
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	client := new(http.Client)
	client.Timeout = cfg.Timeout
	return &HTTPFetcher{
		client:     client,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1),
		maxRetries: cfg.MaxRetries,
	}
}

type priceResponse struct {
	Price        json.Number `json:"price"`
	Availability bool        `json:"availability"`
}

// Fetch requests `{endpoint}/{productID}` and decodes the `{price, availability}` payload.
// Transient transport failures are retried with exponential backoff up to the
// configured budget; 4xx responses and malformed bodies are not retried.
func (f *HTTPFetcher) Fetch(ctx context.Context, store catalog.Store, productID string) (Quote, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return Quote{}, errs.New(store.Key, errs.CodeInvalid, errs.WithMessage("product id required"))
	}
	if err := f.limiter.Wait(ctx); err != nil {
		return Quote{}, fmt.Errorf("fetch rate limit: %w", err)
	}

	endpoint := strings.TrimRight(store.Endpoint, "/") + "/" + url.PathEscape(productID)
	backoffCfg := backoff.NewExponentialBackOff()

	var lastErr error
	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return Quote{}, fmt.Errorf("fetch %s: %w", store.Key, ctx.Err())
			case <-time.After(backoffCfg.NextBackOff()):
			}
		}
		q, retryable, err := f.fetchOnce(ctx, store, endpoint)
		if err == nil {
			return q, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	observability.RecordFetchFailure(ctx, store.Key)
	return Quote{}, lastErr
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, store catalog.Store, endpoint string) (Quote, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Quote{}, false, errs.New(store.Key, errs.CodeInvalid, errs.WithMessage("build price request"), errs.WithCause(err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return Quote{}, true, errs.New(store.Key, errs.CodeNetwork, errs.WithMessage("price fetch"), errs.WithCause(err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
	case resp.StatusCode >= 500:
		return Quote{}, true, errs.New(store.Key, errs.CodeStore, errs.WithHTTP(resp.StatusCode), errs.WithMessage("price endpoint failure"))
	default:
		return Quote{}, false, errs.New(store.Key, errs.CodeStore, errs.WithHTTP(resp.StatusCode), errs.WithMessage("price endpoint rejected request"))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Quote{}, true, errs.New(store.Key, errs.CodeNetwork, errs.WithMessage("read price body"), errs.WithCause(err))
	}

	var payload priceResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return Quote{}, false, errs.New(store.Key, errs.CodeDecode, errs.WithMessage("malformed price payload"), errs.WithCause(err))
	}
	price, err := parsePrice(payload.Price)
	if err != nil {
		return Quote{}, false, errs.New(store.Key, errs.CodeDecode, errs.WithMessage("malformed price value"), errs.WithCause(err))
	}

	return Quote{
		StoreKey:  store.Key,
		Price:     price,
		Available: payload.Availability,
		FetchedAt: time.Now().UTC(),
	}, false, nil
}

func parsePrice(raw json.Number) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw.String())
	if s == "" {
		return decimal.Zero, fmt.Errorf("price missing")
	}
	price, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if price.IsNegative() {
		return decimal.Zero, fmt.Errorf("price %s is negative", price)
	}
	return price, nil
}
