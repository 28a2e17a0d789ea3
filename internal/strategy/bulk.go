package strategy

import "github.com/trolleyhq/trolley/internal/catalog"

// TagBulk labels the quantity-break extension point.
const TagBulk = "bulk_buying"

// Bulk is the placeholder for quantity-break pricing. It never produces a
// plan, so the orchestrator never weighs it; it exists to reserve the
// registration slot until retailers expose bulk price tiers.
type Bulk struct{}

// Name implements Strategy.
func (Bulk) Name() string { return TagBulk }

// Evaluate implements Strategy and always reports the strategy as inapplicable.
func (Bulk) Evaluate([]Item, *catalog.Catalog) (*Plan, bool) {
	return nil, false
}
