package strategy

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dop251/goja"
	"github.com/shopspring/decimal"

	"github.com/trolleyhq/trolley/internal/catalog"
	"github.com/trolleyhq/trolley/internal/observability"
)

// Scripted hosts a JavaScript evaluator so new purchasing heuristics can ship
// without a rebuild. A script defines a global function:
//
//	function evaluate(input) { return {assignments: {"item-id": "store-key"}}; }
//
// input carries the shopping list and catalog as plain objects. Returning
// null (or an empty assignment set) marks the strategy inapplicable for the
// request. The Go side re-derives every price from the item's own quotes and
// drops assignments to stores where the item is unavailable, so a script can
// propose a split but never corrupt plan totals or availability rules.
type Scripted struct {
	name string
	prog *goja.Program
}

// LoadScript compiles a strategy script from disk.
func LoadScript(path string) (*Scripted, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read strategy script %s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	prog, err := goja.Compile(name, string(src), true)
	if err != nil {
		return nil, fmt.Errorf("compile strategy script %s: %w", path, err)
	}
	return &Scripted{name: name, prog: prog}, nil
}

// LoadDir compiles every *.js strategy in dir, sorted by filename so
// registration order is stable.
func LoadDir(dir string) ([]Strategy, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read strategy dir %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".js") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	strategies := make([]Strategy, 0, len(names))
	loadErrs := make([]error, 0, len(names))
	for _, name := range names {
		s, err := LoadScript(filepath.Join(dir, name))
		if err != nil {
			loadErrs = append(loadErrs, err)
			continue
		}
		strategies = append(strategies, s)
	}
	if err := observability.AggregateErrors("load strategy scripts", loadErrs,
		observability.Field{Key: "dir", Value: dir},
	); err != nil {
		return nil, err
	}
	return strategies, nil
}

// Name implements Strategy.
func (s *Scripted) Name() string { return s.name }

// Evaluate implements Strategy. Script failures make the strategy
// inapplicable; they never abort the optimization.
func (s *Scripted) Evaluate(items []Item, cat *catalog.Catalog) (*Plan, bool) {
	assignments, err := s.run(items, cat)
	if err != nil {
		observability.Log().Error("strategy script failed",
			observability.Field{Key: "strategy", Value: s.name},
			observability.Field{Key: "error", Value: err.Error()},
		)
		return nil, false
	}
	if len(assignments) == 0 {
		return nil, false
	}
	return s.buildPlan(items, cat, assignments)
}

func (s *Scripted) run(items []Item, cat *catalog.Catalog) (map[string]string, error) {
	rt := goja.New()
	if _, err := rt.RunProgram(s.prog); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}
	evaluate, ok := goja.AssertFunction(rt.Get("evaluate"))
	if !ok {
		return nil, fmt.Errorf("script does not define evaluate()")
	}

	result, err := evaluate(goja.Undefined(), rt.ToValue(scriptInput(items, cat)))
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	if result == nil || goja.IsNull(result) || goja.IsUndefined(result) {
		return nil, nil
	}

	exported, ok := result.Export().(map[string]any)
	if !ok {
		return nil, fmt.Errorf("evaluate() must return an object or null")
	}
	raw, ok := exported["assignments"].(map[string]any)
	if !ok {
		return nil, nil
	}
	assignments := make(map[string]string, len(raw))
	for itemID, storeKey := range raw {
		key, ok := storeKey.(string)
		if !ok {
			return nil, fmt.Errorf("assignment for %q must be a store key string", itemID)
		}
		assignments[itemID] = key
	}
	return assignments, nil
}

func scriptInput(items []Item, cat *catalog.Catalog) map[string]any {
	list := make([]map[string]any, 0, len(items))
	for _, item := range items {
		quotes := make([]map[string]any, 0, len(item.Quotes))
		for _, q := range item.Quotes {
			quotes = append(quotes, map[string]any{
				"store":        q.StoreKey,
				"price":        q.Price.InexactFloat64(),
				"availability": q.Available,
			})
		}
		list = append(list, map[string]any{
			"id":       item.ID,
			"name":     item.Name,
			"quantity": item.Quantity,
			"quotes":   quotes,
		})
	}
	stores := make([]map[string]any, 0, cat.Len())
	for _, store := range cat.Stores() {
		stores = append(stores, map[string]any{
			"key":          store.Key,
			"name":         store.Name,
			"min_order":    store.MinOrder.InexactFloat64(),
			"delivery_fee": store.DeliveryFee.InexactFloat64(),
		})
	}
	return map[string]any{"items": list, "stores": stores}
}

func (s *Scripted) buildPlan(items []Item, cat *catalog.Catalog, assignments map[string]string) (*Plan, bool) {
	itemCost := decimal.Zero
	subtotals := make(map[string]decimal.Decimal)
	planAssignments := make([]ItemAssignment, 0, len(items))

	for _, item := range items {
		storeKey, ok := assignments[item.ID]
		if !ok {
			continue
		}
		if _, known := cat.Lookup(storeKey); !known {
			continue
		}
		q, ok := item.QuoteFor(storeKey)
		if !ok || !q.Available {
			continue
		}
		line := q.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		itemCost = itemCost.Add(line)
		subtotals[storeKey] = subtotals[storeKey].Add(line)
		planAssignments = append(planAssignments, ItemAssignment{
			ItemID:    item.ID,
			StoreKey:  storeKey,
			UnitPrice: q.Price,
			Quantity:  item.Quantity,
		})
	}
	if len(planAssignments) == 0 {
		return nil, false
	}

	return &Plan{
		Strategy:       s.name,
		Assignments:    planAssignments,
		ItemCost:       itemCost,
		DeliveryCost:   groupDelivery(subtotals, cat),
		ItemsPriced:    len(planAssignments),
		ItemsRequested: len(items),
	}, true
}
