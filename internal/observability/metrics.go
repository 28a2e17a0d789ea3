package observability

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Semantic convention attribute keys for trolley telemetry.
const (
	// AttrStore identifies which retailer a signal relates to.
	AttrStore = attribute.Key("store")
	// AttrProduct captures the product identifier being priced.
	AttrProduct = attribute.Key("product")
	// AttrStrategy labels plan telemetry with the producing strategy tag.
	AttrStrategy = attribute.Key("strategy")
	// AttrResult records the outcome of an operation (hit, miss, error class, ...).
	AttrResult = attribute.Key("result")
)

const meterName = "github.com/trolleyhq/trolley"

var (
	instrumentsOnce sync.Once

	cacheLookups     metric.Int64Counter
	fetchFailures    metric.Int64Counter
	optimizeDuration metric.Float64Histogram
)

func instruments() {
	instrumentsOnce.Do(func() {
		meter := otel.Meter(meterName)
		var err error
		cacheLookups, err = meter.Int64Counter("trolley.quotecache.lookups",
			metric.WithDescription("Quote cache lookups partitioned by result."))
		if err != nil {
			cacheLookups = nil
		}
		fetchFailures, err = meter.Int64Counter("trolley.fetch.failures",
			metric.WithDescription("Price fetches that ended in an error or malformed response."))
		if err != nil {
			fetchFailures = nil
		}
		optimizeDuration, err = meter.Float64Histogram("trolley.optimize.duration",
			metric.WithDescription("End-to-end optimization latency."),
			metric.WithUnit("s"))
		if err != nil {
			optimizeDuration = nil
		}
	})
}

// RecordCacheLookup counts one cache lookup with its result label (hit, miss, expired, backend_error).
func RecordCacheLookup(ctx context.Context, store, result string) {
	instruments()
	if cacheLookups == nil {
		return
	}
	cacheLookups.Add(ctx, 1, metric.WithAttributes(
		AttrStore.String(store),
		AttrResult.String(result),
	))
}

// RecordFetchFailure counts one failed price fetch for the store.
func RecordFetchFailure(ctx context.Context, store string) {
	instruments()
	if fetchFailures == nil {
		return
	}
	fetchFailures.Add(ctx, 1, metric.WithAttributes(AttrStore.String(store)))
}

// RecordOptimizeDuration observes the wall-clock latency of one optimization run.
func RecordOptimizeDuration(ctx context.Context, elapsed time.Duration, strategies int) {
	instruments()
	if optimizeDuration == nil {
		return
	}
	optimizeDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.Int("strategies", strategies),
	))
}
