package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/trolleyhq/trolley/errs"
)

func testStores() []Store {
	return []Store{
		{Key: "tesco", Name: "Tesco", Endpoint: "https://api.tesco.example", MinOrder: decimal.NewFromInt(40), DeliveryFee: decimal.RequireFromString("3.95")},
		{Key: "asda", Name: "Asda", Endpoint: "https://api.asda.example", MinOrder: decimal.NewFromInt(25), DeliveryFee: decimal.RequireFromString("2.95")},
	}
}

func TestNewPreservesOrder(t *testing.T) {
	cat, err := New(testStores())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	stores := cat.Stores()
	if len(stores) != 2 {
		t.Fatalf("expected 2 stores, got %d", len(stores))
	}
	if stores[0].Key != "tesco" || stores[1].Key != "asda" {
		t.Fatalf("iteration order not preserved: %s, %s", stores[0].Key, stores[1].Key)
	}
	if pos, ok := cat.Position("asda"); !ok || pos != 1 {
		t.Fatalf("expected asda at position 1, got %d (%v)", pos, ok)
	}
}

func TestNewRejectsDuplicateKeys(t *testing.T) {
	stores := testStores()
	stores[1].Key = "tesco"
	_, err := New(stores)
	if err == nil {
		t.Fatal("expected duplicate key error")
	}
	if errs.CodeOf(err) != errs.CodeInvalid {
		t.Fatalf("expected invalid code, got %q", errs.CodeOf(err))
	}
}

func TestNewRejectsNegativeAmounts(t *testing.T) {
	stores := testStores()
	stores[0].DeliveryFee = decimal.NewFromInt(-1)
	if _, err := New(stores); err == nil {
		t.Fatal("expected negative delivery fee to be rejected")
	}
}

func TestNewDefaultsNameToKey(t *testing.T) {
	cat, err := New([]Store{{Key: "ocado"}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	store, ok := cat.Lookup("ocado")
	if !ok {
		t.Fatal("expected lookup hit")
	}
	if store.Name != "ocado" {
		t.Fatalf("expected name fallback to key, got %q", store.Name)
	}
}

func TestDeliveryCostThreshold(t *testing.T) {
	store := testStores()[0]
	if got := store.DeliveryCost(decimal.NewFromInt(40)); !got.IsZero() {
		t.Fatalf("subtotal at threshold should ship free, got %s", got)
	}
	if got := store.DeliveryCost(decimal.RequireFromString("39.99")); !got.Equal(decimal.RequireFromString("3.95")) {
		t.Fatalf("subtotal under threshold should pay fee, got %s", got)
	}
}

func TestLoadFile(t *testing.T) {
	body := `stores:
  - key: tesco
    name: Tesco
    api_endpoint: https://api.tesco.example/prices
    min_order: "40.00"
    delivery_fee: "3.95"
  - key: sainsburys
    name: Sainsbury's
    api_endpoint: https://api.sainsburys.example/prices
    min_order: "25.00"
    delivery_fee: "0.50"
`
	path := filepath.Join(t.TempDir(), "stores.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	cat, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cat.Len() != 2 {
		t.Fatalf("expected 2 stores, got %d", cat.Len())
	}
	store, ok := cat.Lookup("sainsburys")
	if !ok {
		t.Fatal("expected sainsburys in catalog")
	}
	if !store.MinOrder.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("expected min order 25, got %s", store.MinOrder)
	}
	if !store.DeliveryFee.Equal(decimal.RequireFromString("0.5")) {
		t.Fatalf("expected delivery fee 0.5, got %s", store.DeliveryFee)
	}
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	if _, err := Parse([]byte("stores: {broken")); err == nil {
		t.Fatal("expected parse error")
	}
}
