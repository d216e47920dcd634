package engine

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	contractx "github.com/railtoner/tonerbot/bot/contract"
)

const (
	menuMessage = "Hello! Welcome to RailToner. 🖨️\nWhat would you like to do?\n" +
		"*1* - Browse available toners\n" +
		"*2* - Check my cart\n" +
		"*3* - Place order\n" +
		"*4* - Speak to a human\n" +
		"*quote* - Generate a PDF quote"

	emptyCartMessage  = "Your cart is empty. Reply *1* to browse toners."
	emptyOrderMessage = "Your cart is empty. Can't place an order."
	handoffMessage    = "A customer service representative will contact you shortly. Thank you for your patience."
	fallbackMessage   = "I didn't understand that. Please reply with *1*, *2*, *3*, *4*, or *quote*."

	// ApologyMessage is the degraded reply for any unrecoverable failure,
	// shared with the webhook's panic recovery.
	ApologyMessage = "Sorry, an error occurred. Please try again later."

	quoteRepromptMessage = "I couldn't read that selection. Use the format *NxQ*, e.g. '1x2, 3x1'."

	quoteRenderFailedMessage = "Sorry, I couldn't generate your quote document right now. " +
		"Your selection is saved — please try again in a moment."

	paymentInstruction = "Please send *%s BWP* via Orange Money or Masisi to +267 XXX-XXXX. " +
		"Include your name as a reference. We will deliver to your office at the railway. Thank you!"
)

func catalogMessage(products []contractx.Product) string {
	var b strings.Builder
	b.WriteString("Here are our available toners and prices (BWP):\n")
	for _, p := range products {
		fmt.Fprintf(&b, "\n- %s (%s): %s", p.Name, p.Code, formatMoney(p.UnitPrice))
	}
	b.WriteString("\n\nReply with a product code (e.g. 'HP85A') to add it to your cart.")
	return b.String()
}

func productAddedMessage(p contractx.Product) string {
	return fmt.Sprintf("Added *%s* to your cart. 🛒\n\nReply *2* to view cart or *1* to browse more.", p.Name)
}

func cartMessage(products []contractx.Product, total decimal.Decimal) string {
	var b strings.Builder
	b.WriteString("Your Cart 🛒:\n")
	for _, p := range products {
		fmt.Fprintf(&b, "\n- %s: %s (%s)", p.Name, formatMoney(p.UnitPrice), stockIndicator(p))
	}
	fmt.Fprintf(&b, "\n\nTotal: %s\n\nReply *3* to place your order.", formatMoney(total))
	return b.String()
}

func orderMessage(products []contractx.Product, total decimal.Decimal) string {
	names := make([]string, 0, len(products))
	for _, p := range products {
		names = append(names, p.Name)
	}
	var b strings.Builder
	b.WriteString("ORDER CONFIRMED! ✅\n\n")
	fmt.Fprintf(&b, "Items: %s\n", strings.Join(names, ", "))
	fmt.Fprintf(&b, "Total Amount Due: %s\n\n", formatMoney(total))
	fmt.Fprintf(&b, paymentInstruction, total.String())
	return b.String()
}

func quoteStartMessage(snapshot []contractx.Product) string {
	var b strings.Builder
	b.WriteString("Request a quote 🧾:\n")
	for i, p := range snapshot {
		fmt.Fprintf(&b, "\n%d. %s - %s", i+1, p.Name, formatMoney(p.UnitPrice))
	}
	b.WriteString("\n\nReply with lines like *1x2* (item 1, quantity 2). You can list several, e.g. '1x2, 3x1'.")
	return b.String()
}

func quoteReadyMessage(artifact contractx.QuoteArtifact) string {
	return fmt.Sprintf("Quote *%s* is ready. 📄\nTotal: %s\nUse this number to retrieve it any time.",
		artifact.Number, formatMoney(artifact.GrandTotal))
}

func stockIndicator(p contractx.Product) string {
	if p.InStock() {
		return "in stock"
	}
	return "out of stock"
}

// formatMoney renders "P450" for whole amounts and "P450.50" otherwise,
// matching the price display of the catalog sheet.
func formatMoney(amount decimal.Decimal) string {
	if amount.IsInteger() {
		return "P" + amount.StringFixed(0)
	}
	return "P" + amount.StringFixed(2)
}
