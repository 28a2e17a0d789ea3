package pricing

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/trolleyhq/trolley/errs"
	"github.com/trolleyhq/trolley/internal/quote"
)

func q(store, price string, available bool) quote.Quote {
	return quote.Quote{
		StoreKey:  store,
		Price:     decimal.RequireFromString(price),
		Available: available,
	}
}

func TestFindBestPricePicksLowestAvailable(t *testing.T) {
	best, ok := FindBestPrice([]quote.Quote{
		q("tesco", "2", true),
		q("asda", "1", true),
	})
	if !ok {
		t.Fatal("expected a best price")
	}
	if best.StoreKey != "asda" || !best.Price.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("expected asda at 1, got %s at %s", best.StoreKey, best.Price)
	}
}

func TestFindBestPriceSkipsUnavailable(t *testing.T) {
	best, ok := FindBestPrice([]quote.Quote{
		q("tesco", "0.50", false),
		q("asda", "1.20", true),
	})
	if !ok || best.StoreKey != "asda" {
		t.Fatalf("unavailable quote must never win, got %v (%v)", best.StoreKey, ok)
	}
}

func TestFindBestPriceAllUnavailable(t *testing.T) {
	if _, ok := FindBestPrice([]quote.Quote{
		q("tesco", "1", false),
		q("asda", "2", false),
	}); ok {
		t.Fatal("expected absent result for all-unavailable quotes")
	}
}

func TestFindBestPriceTieKeepsFirstOccurrence(t *testing.T) {
	best, ok := FindBestPrice([]quote.Quote{
		q("tesco", "1.00", true),
		q("asda", "1.00", true),
	})
	if !ok || best.StoreKey != "tesco" {
		t.Fatalf("tie must keep first occurrence, got %s", best.StoreKey)
	}
}

func TestCalculateSavings(t *testing.T) {
	savings := CalculateSavings([]quote.Quote{
		q("tesco", "3.00", true),
		q("asda", "1.50", false),
	})
	if !savings.Amount.Equal(decimal.RequireFromString("1.50")) {
		t.Fatalf("expected amount 1.50, got %s", savings.Amount)
	}
	if savings.Percentage != "50.0" {
		t.Fatalf("expected percentage 50.0, got %s", savings.Percentage)
	}
}

func TestCalculateSavingsBelowTwoQuotes(t *testing.T) {
	if s := CalculateSavings(nil); !s.Amount.IsZero() || s.Percentage != "0.0" {
		t.Fatalf("expected zero savings for empty input, got %+v", s)
	}
	if s := CalculateSavings([]quote.Quote{q("tesco", "3.00", true)}); !s.Amount.IsZero() {
		t.Fatalf("expected zero savings for single quote, got %+v", s)
	}
}

func TestCalculateSavingsAllZeroPrices(t *testing.T) {
	s := CalculateSavings([]quote.Quote{q("tesco", "0", true), q("asda", "0", true)})
	if !s.Amount.IsZero() || s.Percentage != "0.0" {
		t.Fatalf("expected zero savings when the dearest quote is zero, got %+v", s)
	}
}

func TestFormatPrice(t *testing.T) {
	got := FormatPrice(decimal.RequireFromString("1.45"))
	if !strings.Contains(got, "1.45") {
		t.Fatalf("expected formatted amount to contain 1.45, got %q", got)
	}
	if !strings.Contains(got, "£") {
		t.Fatalf("expected pound symbol in %q", got)
	}
}

func TestCalculatePricePerUnit(t *testing.T) {
	ppu, err := CalculatePricePerUnit(decimal.RequireFromString("3.00"), 2, "kg")
	if err != nil {
		t.Fatalf("CalculatePricePerUnit() error = %v", err)
	}
	if !ppu.Value.Equal(decimal.RequireFromString("1.5")) {
		t.Fatalf("expected 1.5 per unit, got %s", ppu.Value)
	}
	if !strings.HasSuffix(ppu.Display, " per kg") {
		t.Fatalf("expected display to end with unit, got %q", ppu.Display)
	}
}

func TestCalculatePricePerUnitRejectsNonPositiveQuantity(t *testing.T) {
	for _, qty := range []int{0, -1} {
		if _, err := CalculatePricePerUnit(decimal.NewFromInt(1), qty, "each"); !errs.IsInvalid(err) {
			t.Fatalf("quantity %d: expected invalid input error, got %v", qty, err)
		}
	}
}
