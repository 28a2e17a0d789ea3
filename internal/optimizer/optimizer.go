// Package optimizer runs every registered strategy over a shopping list and
// ranks the resulting plans by total cost.
package optimizer

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/trolleyhq/trolley/errs"
	"github.com/trolleyhq/trolley/internal/aggregator"
	"github.com/trolleyhq/trolley/internal/catalog"
	"github.com/trolleyhq/trolley/internal/observability"
	"github.com/trolleyhq/trolley/internal/quote"
	"github.com/trolleyhq/trolley/internal/strategy"
)

// ItemRequest is one shopping-list line as submitted by the caller. Quotes may
// be pre-supplied; otherwise the orchestrator resolves them through the
// aggregator using the item identifier.
type ItemRequest struct {
	ID       string        `json:"itemId"`
	Name     string        `json:"name"`
	Quantity int           `json:"quantity"`
	Quotes   []quote.Quote `json:"quotes,omitempty"`
}

// Recommendation is the ranked outcome of one optimization run. Recommended is
// nil when every strategy was inapplicable; callers must present that as a
// "no options" state, it is not an error.
type Recommendation struct {
	RequestID    string          `json:"request_id"`
	Recommended  *strategy.Plan  `json:"recommended"`
	Alternatives []strategy.Plan `json:"alternatives"`
	GeneratedAt  time.Time       `json:"generated_at"`
}

// Orchestrator owns the strategy registry and the quote resolution pipeline.
type Orchestrator struct {
	catalog    *catalog.Catalog
	aggregator *aggregator.Aggregator
	strategies []strategy.Strategy
}

// New builds an orchestrator. Strategy registration order is the ranking
// tiebreak for plans with equal totals.
func New(cat *catalog.Catalog, agg *aggregator.Aggregator, strategies ...strategy.Strategy) *Orchestrator {
	return &Orchestrator{
		catalog:    cat,
		aggregator: agg,
		strategies: strategies,
	}
}

// Register appends further strategies after construction.
func (o *Orchestrator) Register(strategies ...strategy.Strategy) {
	o.strategies = append(o.strategies, strategies...)
}

// Optimize validates the list, resolves quotes, evaluates every strategy, and
// returns plans ranked ascending by total cost.
func (o *Orchestrator) Optimize(ctx context.Context, requests []ItemRequest) (Recommendation, error) {
	if err := validate(requests); err != nil {
		return Recommendation{}, err
	}
	start := time.Now()

	items := make([]strategy.Item, 0, len(requests))
	for _, req := range requests {
		quotes := req.Quotes
		if len(quotes) == 0 {
			quotes = o.aggregator.QuotesFor(ctx, req.ID)
		}
		items = append(items, strategy.Item{
			ID:       req.ID,
			Name:     req.Name,
			Quantity: req.Quantity,
			Quotes:   quotes,
		})
	}

	plans := make([]strategy.Plan, 0, len(o.strategies))
	for _, s := range o.strategies {
		plan, ok := s.Evaluate(items, o.catalog)
		if !ok || plan == nil {
			continue
		}
		plans = append(plans, *plan)
	}
	// Stable sort: equal totals keep strategy registration order.
	sort.SliceStable(plans, func(i, j int) bool {
		return plans[i].Total().LessThan(plans[j].Total())
	})

	rec := Recommendation{
		RequestID:    uuid.NewString(),
		Recommended:  nil,
		Alternatives: plans,
		GeneratedAt:  time.Now().UTC(),
	}
	if len(plans) > 0 {
		best := plans[0]
		rec.Recommended = &best
	}

	observability.RecordOptimizeDuration(ctx, time.Since(start), len(o.strategies))
	observability.Log().Info("optimization complete",
		observability.Field{Key: "request_id", Value: rec.RequestID},
		observability.Field{Key: "items", Value: len(requests)},
		observability.Field{Key: "plans", Value: len(plans)},
	)
	return rec, nil
}

func validate(requests []ItemRequest) error {
	if len(requests) == 0 {
		return errs.New("", errs.CodeInvalid, errs.WithMessage("shopping list must not be empty"))
	}
	for _, req := range requests {
		if strings.TrimSpace(req.ID) == "" {
			return errs.New("", errs.CodeInvalid, errs.WithMessage("item id required"))
		}
		if req.Quantity <= 0 {
			return errs.New("", errs.CodeInvalid, errs.WithMessage("quantity must be positive for item "+req.ID))
		}
	}
	return nil
}
