// Package classify maps inbound free text to an intent given the
// sender's current quote-dialog state.
package classify

import (
	"strings"

	contractx "github.com/railtoner/tonerbot/bot/contract"
	statex "github.com/railtoner/tonerbot/bot/state"
)

// Classify normalizes rawText (trim + lowercase) for keyword comparison
// only; callers keep the original text for non-keyword branches such as
// product-code lookup.
//
// Keywords win regardless of quote state: typing "1" mid-quote is
// BrowseCatalog, never quote input. Only non-keyword text is routed to
// the quote sub-dialog while a selection is pending.
func Classify(quoteState statex.QuoteState, rawText string) contractx.Intent {
	switch strings.ToLower(strings.TrimSpace(rawText)) {
	case "hello", "hi", "start":
		return contractx.IntentGreeting
	case "1":
		return contractx.IntentBrowseCatalog
	case "2":
		return contractx.IntentViewCart
	case "3":
		return contractx.IntentPlaceOrder
	case "4":
		return contractx.IntentRequestHuman
	case "quote":
		return contractx.IntentStartQuote
	}

	if quoteState == statex.QuoteAwaitingSelection {
		return contractx.IntentQuoteSelection
	}
	return contractx.IntentProductCode
}
