package state

import (
	"time"

	contractx "github.com/railtoner/tonerbot/bot/contract"
)

// QuoteState tracks where a sender is in the quote sub-dialog.
type QuoteState string

const (
	QuoteIdle              QuoteState = "idle"
	QuoteAwaitingSelection QuoteState = "awaiting_selection"
)

// Session is the per-sender conversation state. Exactly one session
// exists per sender identity at any time; the store enforces that.
//
// Cart is an ordered sequence of product-code references. Repeated adds
// of the same code accumulate quantity implicitly via repetition.
type Session struct {
	SenderID     string                `json:"sender_id"`
	Cart         []string              `json:"cart,omitempty"`
	QuoteState   QuoteState            `json:"quote_state"`
	QuoteItems   []contractx.QuoteLine `json:"quote_items,omitempty"`
	QuoteCatalog []contractx.Product   `json:"quote_catalog,omitempty"`
	LastActivity time.Time             `json:"last_activity"`
}

func NewSession(senderID string, now time.Time) *Session {
	return &Session{
		SenderID:     senderID,
		QuoteState:   QuoteIdle,
		LastActivity: now.UTC(),
	}
}

func (s *Session) Touch(now time.Time) {
	s.LastActivity = now.UTC()
}

// ExpiredAt reports whether the session has been idle longer than the
// given threshold.
func (s *Session) ExpiredAt(now time.Time, idleThreshold time.Duration) bool {
	return now.Sub(s.LastActivity) > idleThreshold
}

func (s *Session) AddToCart(productCode string) {
	s.Cart = append(s.Cart, productCode)
}

func (s *Session) ClearCart() {
	s.Cart = nil
}

func (s *Session) CartEmpty() bool {
	return len(s.Cart) == 0
}

// BeginQuote enters the quote sub-dialog. The catalog snapshot taken at
// this moment is the index basis for selection parsing; any previous
// quote items are discarded.
func (s *Session) BeginQuote(snapshot []contractx.Product) {
	s.QuoteState = QuoteAwaitingSelection
	s.QuoteItems = nil
	s.QuoteCatalog = snapshot
}

// CompleteQuote leaves the quote sub-dialog and clears quote state.
func (s *Session) CompleteQuote() {
	s.QuoteState = QuoteIdle
	s.QuoteItems = nil
	s.QuoteCatalog = nil
}
