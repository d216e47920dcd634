// Package pdf renders quote artifacts into PDF documents.
package pdf

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"

	contractx "github.com/railtoner/tonerbot/bot/contract"
)

type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render produces the quote document. Output is deterministic for
// identical artifacts: the PDF creation date is pinned to IssuedAt.
func (r *Renderer) Render(artifact contractx.QuoteArtifact) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetCreationDate(artifact.IssuedAt)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 18)
	doc.CellFormat(0, 12, "RailToner Quote", "", 1, "C", false, 0, "")
	doc.Ln(2)

	doc.SetFont("Helvetica", "", 11)
	doc.CellFormat(0, 6, "Quote number: "+artifact.Number, "", 1, "L", false, 0, "")
	doc.CellFormat(0, 6, "Customer: "+artifact.CustomerID, "", 1, "L", false, 0, "")
	doc.CellFormat(0, 6, "Date: "+artifact.IssuedAt.Format("2 January 2006"), "", 1, "L", false, 0, "")
	doc.Ln(4)

	doc.SetFont("Helvetica", "B", 11)
	doc.CellFormat(70, 7, "Item", "B", 0, "L", false, 0, "")
	doc.CellFormat(30, 7, "Code", "B", 0, "L", false, 0, "")
	doc.CellFormat(20, 7, "Qty", "B", 0, "R", false, 0, "")
	doc.CellFormat(35, 7, "Unit (BWP)", "B", 0, "R", false, 0, "")
	doc.CellFormat(35, 7, "Total (BWP)", "B", 1, "R", false, 0, "")

	doc.SetFont("Helvetica", "", 11)
	for _, line := range artifact.Lines {
		doc.CellFormat(70, 7, line.ProductName, "", 0, "L", false, 0, "")
		doc.CellFormat(30, 7, line.ProductCode, "", 0, "L", false, 0, "")
		doc.CellFormat(20, 7, fmt.Sprintf("%d", line.Quantity), "", 0, "R", false, 0, "")
		doc.CellFormat(35, 7, line.UnitPrice.StringFixed(2), "", 0, "R", false, 0, "")
		doc.CellFormat(35, 7, line.LineTotal.StringFixed(2), "", 1, "R", false, 0, "")
	}

	doc.Ln(4)
	doc.SetFont("Helvetica", "B", 12)
	doc.CellFormat(0, 8, "Grand total: P"+artifact.GrandTotal.StringFixed(2), "", 1, "R", false, 0, "")

	doc.Ln(6)
	doc.SetFont("Helvetica", "", 10)
	doc.MultiCell(0, 5, fmt.Sprintf(
		"Payment: send %s BWP via Orange Money or Masisi to +267 XXX-XXXX. Include your name as a reference.",
		artifact.GrandTotal.StringFixed(2)), "", "L", false)

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render quote %s: %w", artifact.Number, err)
	}
	return buf.Bytes(), nil
}
