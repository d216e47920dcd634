// Package catalog provides the read-only product lookup adapters: an
// in-memory store seeded from a fixed price table and a Postgres store
// on bun for deployments with a managed catalog.
package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	contractx "github.com/railtoner/tonerbot/bot/contract"
)

// MemoryStore serves products from process memory, ordered by name.
// Reads are fully concurrent.
type MemoryStore struct {
	mu       sync.RWMutex
	products []contractx.Product
}

func NewMemoryStore(products ...contractx.Product) *MemoryStore {
	s := &MemoryStore{}
	s.Replace(products)
	return s
}

// Replace swaps the full product list, keeping name ordering.
func (s *MemoryStore) Replace(products []contractx.Product) {
	sorted := make([]contractx.Product, len(products))
	copy(sorted, products)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	s.mu.Lock()
	s.products = sorted
	s.mu.Unlock()
}

func (s *MemoryStore) FindByCode(_ context.Context, code string) (contractx.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if strings.EqualFold(p.Code, strings.TrimSpace(code)) {
			return p, nil
		}
	}
	return contractx.Product{}, contractx.ErrProductNotFound
}

// FindByCodePrefix matches case-insensitively, exact code first, then
// the first prefix match in name order.
func (s *MemoryStore) FindByCodePrefix(ctx context.Context, query string) (contractx.Product, error) {
	if p, err := s.FindByCode(ctx, query); err == nil {
		return p, nil
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return contractx.Product{}, contractx.ErrProductNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if strings.HasPrefix(strings.ToLower(p.Code), q) {
			return p, nil
		}
	}
	return contractx.Product{}, contractx.ErrProductNotFound
}

func (s *MemoryStore) ListAll(_ context.Context) ([]contractx.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]contractx.Product, len(s.products))
	copy(out, s.products)
	return out, nil
}

// DefaultProducts is the fallback toner table used when no external
// catalog is configured.
func DefaultProducts() []contractx.Product {
	return []contractx.Product{
		{Code: "HP85A", Name: "HP 85A", UnitPrice: decimal.NewFromInt(450), StockCount: 12, Status: "available"},
		{Code: "HP83X", Name: "HP 83X", UnitPrice: decimal.NewFromInt(520), StockCount: 8, Status: "available"},
		{Code: "CN728", Name: "Canon 728", UnitPrice: decimal.NewFromInt(400), StockCount: 5, Status: "available"},
		{Code: "SM105S", Name: "Samsung MLT-D105S", UnitPrice: decimal.NewFromInt(480), StockCount: 0, Status: "backorder"},
	}
}
