package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	contractx "github.com/railtoner/tonerbot/bot/contract"
)

type productRow struct {
	bun.BaseModel `bun:"table:products,alias:p"`

	Code       string          `bun:"code,pk"`
	Name       string          `bun:"name,notnull"`
	UnitPrice  decimal.Decimal `bun:"unit_price,notnull"`
	StockCount int             `bun:"stock_count,notnull,default:0"`
	Status     string          `bun:"status"`
}

func (r productRow) toProduct() contractx.Product {
	return contractx.Product{
		Code:       r.Code,
		Name:       r.Name,
		UnitPrice:  r.UnitPrice,
		StockCount: r.StockCount,
		Status:     r.Status,
	}
}

// OpenDB opens a bun handle over the Postgres wire driver.
func OpenDB(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

// BunStore reads the catalog from a Postgres products table.
type BunStore struct {
	db *bun.DB
}

func NewBunStore(db *bun.DB) (*BunStore, error) {
	if db == nil {
		return nil, errors.New("bun db is required")
	}
	return &BunStore{db: db}, nil
}

func (s *BunStore) FindByCode(ctx context.Context, code string) (contractx.Product, error) {
	var row productRow
	err := s.db.NewSelect().
		Model(&row).
		Where("lower(code) = lower(?)", strings.TrimSpace(code)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return contractx.Product{}, contractx.ErrProductNotFound
		}
		return contractx.Product{}, fmt.Errorf("%w: find by code: %v", contractx.ErrCatalogUnavailable, err)
	}
	return row.toProduct(), nil
}

func (s *BunStore) FindByCodePrefix(ctx context.Context, query string) (contractx.Product, error) {
	p, err := s.FindByCode(ctx, query)
	if err == nil || !errors.Is(err, contractx.ErrProductNotFound) {
		return p, err
	}

	q := strings.TrimSpace(query)
	if q == "" {
		return contractx.Product{}, contractx.ErrProductNotFound
	}

	var row productRow
	err = s.db.NewSelect().
		Model(&row).
		Where("lower(code) LIKE lower(?)", q+"%").
		Order("name ASC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return contractx.Product{}, contractx.ErrProductNotFound
		}
		return contractx.Product{}, fmt.Errorf("%w: find by prefix: %v", contractx.ErrCatalogUnavailable, err)
	}
	return row.toProduct(), nil
}

func (s *BunStore) ListAll(ctx context.Context) ([]contractx.Product, error) {
	var rows []productRow
	err := s.db.NewSelect().
		Model(&rows).
		Order("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list: %v", contractx.ErrCatalogUnavailable, err)
	}

	products := make([]contractx.Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, row.toProduct())
	}
	return products, nil
}
