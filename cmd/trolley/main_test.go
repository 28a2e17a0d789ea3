package main

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/trolleyhq/trolley/internal/observability"
	"github.com/trolleyhq/trolley/internal/optimizer"
	"github.com/trolleyhq/trolley/internal/strategy"
)

func TestResolveConfigPathDefaults(t *testing.T) {
	require.Equal(t, filepath.Clean(defaultConfigPath), resolveConfigPath(""))
	require.Equal(t, "custom/trolley.yaml", resolveConfigPath("custom/trolley.yaml"))
}

func TestReadShoppingListFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.json")
	payload := []byte(`[{"itemId":"milk-2pt","name":"Milk 2pt","quantity":2},{"itemId":"bread-800g","quantity":1}]`)
	require.NoError(t, os.WriteFile(path, payload, 0o600))

	requests, err := readShoppingList(path)
	require.NoError(t, err)
	require.Len(t, requests, 2)
	require.Equal(t, "milk-2pt", requests[0].ID)
	require.Equal(t, 2, requests[0].Quantity)
	require.Equal(t, "bread-800g", requests[1].ID)
}

func TestReadShoppingListRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not":"a list"`), 0o600))

	_, err := readShoppingList(path)
	require.Error(t, err)
}

func TestPrintRecommendationEncodesPlans(t *testing.T) {
	plan := strategy.Plan{
		Strategy: strategy.TagSingleStore,
		Assignments: []strategy.ItemAssignment{
			{ItemID: "milk-2pt", StoreKey: "tesco", UnitPrice: decimal.RequireFromString("1.45"), Quantity: 2},
		},
		ItemCost:       decimal.RequireFromString("2.90"),
		DeliveryCost:   decimal.RequireFromString("3.95"),
		ItemsPriced:    1,
		ItemsRequested: 1,
	}
	rec := optimizer.Recommendation{
		RequestID:    "req-1",
		Recommended:  &plan,
		Alternatives: []strategy.Plan{plan},
		GeneratedAt:  time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}

	buf := new(bytes.Buffer)
	require.NoError(t, printRecommendation(buf, rec))
	require.Contains(t, buf.String(), `"request_id": "req-1"`)
	require.Contains(t, buf.String(), strategy.TagSingleStore)
}

func TestStdLoggerFormatsFields(t *testing.T) {
	buf := new(bytes.Buffer)
	logger := stdLogger{logger: log.New(buf, "", 0)}

	logger.Info("quote fetched", observability.Field{Key: "store", Value: "tesco"})
	require.Contains(t, buf.String(), "INFO quote fetched store=tesco")

	buf.Reset()
	logger.Error("fetch failed")
	require.Contains(t, buf.String(), "ERROR fetch failed")
}
