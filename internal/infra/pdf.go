package infra

// pdf.go — PDF rendering of the exchanges report using go-pdf/fpdf.
// A4 portrait: title, generation timestamp, summary block with counts by
// status, then one table row per exchange.

import (
	"bytes"
	"fmt"
	"time"

	"github.com/pedrosazl/trust-reclaim-aid/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// GenerateExchangesPDF renders the full report in memory and returns the
// bytes for download.
func GenerateExchangesPDF(exchanges []model.Exchange) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 24

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 15)
	pdf.CellFormat(contentW, 9, "Relatório de Trocas e Devoluções", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Gerado em %s", time.Now().Format("02/01/2006 15:04")), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// ── Summary ──────────────────────────────────────────────────────────────
	var pending, approved, rejected int
	for _, e := range exchanges {
		switch e.Status {
		case model.StatusPending:
			pending++
		case model.StatusApproved:
			approved++
		case model.StatusRejected:
			rejected++
		}
	}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(contentW, 6, "Resumo", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Total de solicitações: %d", len(exchanges)), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Pendentes: %d   Aprovadas: %d   Rejeitadas: %d", pending, approved, rejected), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	// ── Table ────────────────────────────────────────────────────────────────
	colCNPJ := contentW * 0.22
	colDate := contentW * 0.14
	colStatus := contentW * 0.12
	colItems := contentW * 0.38
	colLoss := contentW * 0.14

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(74, 157, 95)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(colCNPJ, 6, "CNPJ", "1", 0, "L", true, 0, "")
	pdf.CellFormat(colDate, 6, "Data", "1", 0, "L", true, 0, "")
	pdf.CellFormat(colStatus, 6, "Status", "1", 0, "L", true, 0, "")
	pdf.CellFormat(colItems, 6, "Produtos", "1", 0, "L", true, 0, "")
	pdf.CellFormat(colLoss, 6, "Perda (R$)", "1", 1, "R", true, 0, "")
	pdf.SetTextColor(0, 0, 0)

	pdf.SetFont("Helvetica", "", 8)
	for _, e := range exchanges {
		items := ""
		lineLoss := decimal.Zero
		for i, it := range e.Items {
			if i > 0 {
				items += "; "
			}
			name := it.ProductID.String()[:8]
			if it.Product != nil {
				name = it.Product.Name
			}
			items += fmt.Sprintf("%s x%s", name, it.Quantity.String())
			if it.UnitPrice != nil {
				lineLoss = lineLoss.Add(it.Quantity.Mul(*it.UnitPrice))
			}
		}
		if e.TotalLoss != nil {
			lineLoss = lineLoss.Add(*e.TotalLoss)
		}
		if len(items) > 60 {
			items = items[:57] + "..."
		}

		pdf.CellFormat(colCNPJ, 6, e.CNPJ, "1", 0, "L", false, 0, "")
		pdf.CellFormat(colDate, 6, e.CreatedAt.Format("02/01/2006"), "1", 0, "L", false, 0, "")
		pdf.CellFormat(colStatus, 6, statusLabel(e.Status), "1", 0, "L", false, 0, "")
		pdf.CellFormat(colItems, 6, items, "1", 0, "L", false, 0, "")
		pdf.CellFormat(colLoss, 6, lineLoss.StringFixed(2), "1", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func statusLabel(status string) string {
	switch status {
	case model.StatusPending:
		return "Pendente"
	case model.StatusApproved:
		return "Aprovada"
	case model.StatusRejected:
		return "Rejeitada"
	}
	return status
}
