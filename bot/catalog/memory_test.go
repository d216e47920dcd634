package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	contractx "github.com/railtoner/tonerbot/bot/contract"
)

func testStore() *MemoryStore {
	return NewMemoryStore(
		contractx.Product{Code: "TN2355", Name: "Brother TN-2355", UnitPrice: decimal.NewFromInt(390), StockCount: 4},
		contractx.Product{Code: "HP85A", Name: "HP 85A", UnitPrice: decimal.NewFromInt(450), StockCount: 12},
		contractx.Product{Code: "HP83X", Name: "HP 83X", UnitPrice: decimal.NewFromInt(520), StockCount: 0},
	)
}

func TestFindByCodeCaseInsensitive(t *testing.T) {
	t.Parallel()

	p, err := testStore().FindByCode(context.Background(), "tn2355")
	if err != nil {
		t.Fatalf("FindByCode() error = %v", err)
	}
	if p.Code != "TN2355" {
		t.Fatalf("FindByCode() = %q, want TN2355", p.Code)
	}
}

func TestFindByCodeMissing(t *testing.T) {
	t.Parallel()

	_, err := testStore().FindByCode(context.Background(), "NOPE")
	if !errors.Is(err, contractx.ErrProductNotFound) {
		t.Fatalf("FindByCode() error = %v, want ErrProductNotFound", err)
	}
}

func TestFindByCodePrefix(t *testing.T) {
	t.Parallel()

	store := testStore()

	// Exact match wins over prefix candidates.
	p, err := store.FindByCodePrefix(context.Background(), "hp85a")
	if err != nil {
		t.Fatalf("FindByCodePrefix() error = %v", err)
	}
	if p.Code != "HP85A" {
		t.Fatalf("FindByCodePrefix() = %q, want HP85A", p.Code)
	}

	// Prefix match returns the first hit in name order.
	p, err = store.FindByCodePrefix(context.Background(), "hp")
	if err != nil {
		t.Fatalf("FindByCodePrefix() error = %v", err)
	}
	if p.Code != "HP83X" {
		t.Fatalf("FindByCodePrefix(\"hp\") = %q, want HP83X (first in name order)", p.Code)
	}

	if _, err := store.FindByCodePrefix(context.Background(), "   "); !errors.Is(err, contractx.ErrProductNotFound) {
		t.Fatalf("blank query error = %v, want ErrProductNotFound", err)
	}
}

func TestListAllOrderedByName(t *testing.T) {
	t.Parallel()

	products, err := testStore().ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(products) != 3 {
		t.Fatalf("ListAll() length = %d, want 3", len(products))
	}
	want := []string{"Brother TN-2355", "HP 83X", "HP 85A"}
	for i, name := range want {
		if products[i].Name != name {
			t.Fatalf("ListAll()[%d] = %q, want %q", i, products[i].Name, name)
		}
	}
}
