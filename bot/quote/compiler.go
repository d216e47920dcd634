// Package quote compiles free-text "NxQ" selections into priced quote
// lines and keeps completed quote artifacts retrievable by number.
package quote

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	contractx "github.com/railtoner/tonerbot/bot/contract"
)

// selectionPattern matches "index x quantity" pairs, e.g. "1x2" or
// "3 × 1". Invalid pairs are skipped, never turned into an error: the
// parse is deliberately lenient.
var selectionPattern = regexp.MustCompile(`(?i)(\d+)\s*[x×]\s*(\d+)`)

// Compile scans rawText for selection pairs against the catalog
// snapshot shown to the user at quote start. The first number is a
// 1-based index into the snapshot, the second a quantity. Out-of-range
// indices and non-positive quantities are dropped; surviving matches
// keep their order of appearance and duplicates are not merged. Unit
// prices are snapshotted here and never re-queried.
func Compile(rawText string, snapshot []contractx.Product) []contractx.QuoteLine {
	matches := selectionPattern.FindAllStringSubmatch(rawText, -1)
	var lines []contractx.QuoteLine
	for _, m := range matches {
		index, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		quantity, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		if index < 1 || index > len(snapshot) || quantity <= 0 {
			continue
		}
		p := snapshot[index-1]
		lines = append(lines, contractx.QuoteLine{
			ProductCode: p.Code,
			ProductName: p.Name,
			Quantity:    quantity,
			UnitPrice:   p.UnitPrice,
			LineTotal:   p.UnitPrice.Mul(decimal.NewFromInt(int64(quantity))),
		})
	}
	return lines
}

// BuildArtifact assembles an immutable quote from compiled lines.
func BuildArtifact(customerID string, lines []contractx.QuoteLine, now time.Time) contractx.QuoteArtifact {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.LineTotal)
	}
	return contractx.QuoteArtifact{
		Number:     NewNumber(now),
		CustomerID: customerID,
		Lines:      lines,
		GrandTotal: total,
		IssuedAt:   now.UTC(),
	}
}

// NewNumber builds a quote number from a millisecond timestamp and a
// short random suffix. Numbers generated in the same millisecond stay
// distinct with overwhelming probability.
func NewNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("Q%d-%s", now.UnixMilli(), suffix)
}
