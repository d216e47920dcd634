package contract

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Intent is the classified meaning of one inbound message given the
// sender's current session state.
type Intent string

const (
	IntentGreeting       Intent = "greeting"
	IntentBrowseCatalog  Intent = "browse_catalog"
	IntentViewCart       Intent = "view_cart"
	IntentPlaceOrder     Intent = "place_order"
	IntentRequestHuman   Intent = "request_human"
	IntentStartQuote     Intent = "start_quote"
	IntentQuoteSelection Intent = "quote_selection"
	IntentProductCode    Intent = "product_code"
	IntentUnknown        Intent = "unknown"
)

// Product is a read-only catalog entry. The backing store owns and
// mutates it; the bot only looks it up.
type Product struct {
	Code       string          `json:"code"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	StockCount int             `json:"stock_count"`
	Status     string          `json:"status,omitempty"`
}

// InStock reports whether the product can currently be fulfilled.
func (p Product) InStock() bool {
	return p.StockCount > 0
}

// QuoteLine is one priced row of a quote. UnitPrice is snapshotted when
// the line is compiled and never re-queried afterwards.
type QuoteLine struct {
	ProductCode string          `json:"product_code"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// QuoteArtifact is a completed quote. Immutable once issued; ownership
// passes to the document renderer and the retrieval store.
type QuoteArtifact struct {
	Number     string          `json:"number"`
	CustomerID string          `json:"customer_id"`
	Lines      []QuoteLine     `json:"lines"`
	GrandTotal decimal.Decimal `json:"grand_total"`
	IssuedAt   time.Time       `json:"issued_at"`
}

// DocumentRef points at a rendered quote document retrievable by number.
type DocumentRef struct {
	QuoteNumber string
	Caption     string
}

// OutboundAction is what the engine decided to send back: reply text,
// optionally accompanied by a document.
type OutboundAction struct {
	Text     string
	Document *DocumentRef
}

// CatalogStore is the read-only product lookup contract.
// ListAll must return products ordered by name ascending; code matching
// is case-insensitive.
type CatalogStore interface {
	FindByCode(ctx context.Context, code string) (Product, error)
	FindByCodePrefix(ctx context.Context, query string) (Product, error)
	ListAll(ctx context.Context) ([]Product, error)
}

// Transport delivers outbound content to a sender. Failures are logged
// by callers, never allowed to crash message handling for other senders.
type Transport interface {
	SendText(ctx context.Context, senderID, text string) error
	SendDocument(ctx context.Context, senderID, documentURL, caption string) error
}

// DocumentRenderer turns a quote artifact into document bytes.
// Deterministic given identical input, no side effects.
type DocumentRenderer interface {
	Render(artifact QuoteArtifact) ([]byte, error)
}

// ArtifactStore keeps rendered quotes retrievable by quote number.
type ArtifactStore interface {
	Put(artifact QuoteArtifact, document []byte) error
	Get(quoteNumber string) (QuoteArtifact, error)
	GetBytes(quoteNumber string) ([]byte, error)
}
