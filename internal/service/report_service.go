package service

import (
	"bytes"
	"context"
	"html/template"
	"time"

	"github.com/pedrosazl/trust-reclaim-aid/internal/dto"
	"github.com/pedrosazl/trust-reclaim-aid/internal/infra"
	"github.com/pedrosazl/trust-reclaim-aid/internal/model"
	"github.com/pedrosazl/trust-reclaim-aid/internal/repository"

	"github.com/shopspring/decimal"
)

type ReportService interface {
	// ExchangesHTML renders the printable report as a standalone HTML page
	// with inline styles, suitable for download or browser printing.
	ExchangesHTML(ctx context.Context, actor Actor, filter dto.AnalyticsFilter) ([]byte, error)
	// ExchangesPDF renders the same report as a PDF.
	ExchangesPDF(ctx context.Context, actor Actor, filter dto.AnalyticsFilter) ([]byte, error)
}

type reportService struct {
	repo      repository.ExchangeRepository
	analytics AnalyticsService
}

func NewReportService(repo repository.ExchangeRepository, analytics AnalyticsService) ReportService {
	return &reportService{repo: repo, analytics: analytics}
}

var reportTemplate = template.Must(template.New("exchanges").Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<title>Relatório de Trocas e Devoluções</title>
<style>
  body { font-family: Arial, Helvetica, sans-serif; margin: 24px; color: #1f2937; }
  h1 { font-size: 20px; margin-bottom: 4px; }
  .meta { color: #6b7280; font-size: 12px; margin-bottom: 16px; }
  .summary { display: flex; gap: 24px; margin-bottom: 20px; font-size: 13px; }
  .summary div { background: #f3f4f6; border-radius: 6px; padding: 8px 14px; }
  .summary strong { display: block; font-size: 16px; }
  table { width: 100%; border-collapse: collapse; font-size: 12px; }
  th { background: #4a9d5f; color: #fff; text-align: left; padding: 6px 8px; }
  td { border-bottom: 1px solid #e5e7eb; padding: 6px 8px; vertical-align: top; }
  .status-pending { color: #b45309; }
  .status-approved { color: #15803d; }
  .status-rejected { color: #b91c1c; }
  .loss { text-align: right; }
</style>
</head>
<body>
<h1>Relatório de Trocas e Devoluções</h1>
<div class="meta">Gerado em {{.GeneratedAt}} · Período: {{.From}} a {{.To}}</div>
<div class="summary">
  <div><strong>{{.Summary.TotalExchanges}}</strong>Total</div>
  <div><strong>{{.Summary.Pending}}</strong>Pendentes</div>
  <div><strong>{{.Summary.Approved}}</strong>Aprovadas</div>
  <div><strong>{{.Summary.Rejected}}</strong>Rejeitadas</div>
  <div><strong>R$ {{.GrandTotalLoss}}</strong>Perda total</div>
</div>
<table>
<thead>
<tr><th>CNPJ</th><th>Data</th><th>Status</th><th>Motivo</th><th>Produtos</th><th class="loss">Perda (R$)</th></tr>
</thead>
<tbody>
{{range .Rows}}
<tr>
  <td>{{.CNPJ}}</td>
  <td>{{.Date}}</td>
  <td class="status-{{.Status}}">{{.StatusLabel}}</td>
  <td>{{.Reason}}</td>
  <td>{{range .Items}}{{.}}<br>{{end}}</td>
  <td class="loss">{{.Loss}}</td>
</tr>
{{end}}
</tbody>
</table>
</body>
</html>
`))

type reportRow struct {
	CNPJ        string
	Date        string
	Status      string
	StatusLabel string
	Reason      string
	Items       []string
	Loss        string
}

type reportData struct {
	GeneratedAt    string
	From           string
	To             string
	Summary        *dto.FinancialSummaryResponse
	GrandTotalLoss string
	Rows           []reportRow
}

func (s *reportService) ExchangesHTML(ctx context.Context, actor Actor, filter dto.AnalyticsFilter) ([]byte, error) {
	exchanges, summary, err := s.load(ctx, actor, filter)
	if err != nil {
		return nil, err
	}

	data := reportData{
		GeneratedAt:    time.Now().Format("02/01/2006 15:04"),
		From:           filter.From,
		To:             filter.To,
		Summary:        summary,
		GrandTotalLoss: summary.GrandTotalLoss.StringFixed(2),
	}
	if data.From == "" {
		data.From = "início"
	}
	if data.To == "" {
		data.To = "hoje"
	}

	for i := range exchanges {
		e := &exchanges[i]
		row := reportRow{
			CNPJ:        e.CNPJ,
			Date:        e.CreatedAt.Format("02/01/2006"),
			Status:      e.Status,
			StatusLabel: statusLabelPT(e.Status),
			Reason:      e.Reason,
		}
		loss := decimal.Zero
		if e.TotalLoss != nil {
			loss = loss.Add(*e.TotalLoss)
		}
		for j := range e.Items {
			item := &e.Items[j]
			name := item.ProductID.String()
			if item.Product != nil {
				name = item.Product.Name
			}
			row.Items = append(row.Items, name+" x"+item.Quantity.String())
			if item.UnitPrice != nil {
				loss = loss.Add(item.Quantity.Mul(*item.UnitPrice))
			}
		}
		row.Loss = loss.StringFixed(2)
		data.Rows = append(data.Rows, row)
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *reportService) ExchangesPDF(ctx context.Context, actor Actor, filter dto.AnalyticsFilter) ([]byte, error) {
	exchanges, _, err := s.load(ctx, actor, filter)
	if err != nil {
		return nil, err
	}
	return infra.GenerateExchangesPDF(exchanges)
}

func (s *reportService) load(ctx context.Context, actor Actor, filter dto.AnalyticsFilter) ([]model.Exchange, *dto.FinancialSummaryResponse, error) {
	summary, err := s.analytics.FinancialSummary(ctx, actor, filter)
	if err != nil {
		return nil, nil, err
	}

	scope, err := buildScope(actor, filter)
	if err != nil {
		return nil, nil, err
	}
	exchanges, err := s.repo.ListForAnalytics(ctx, scope)
	if err != nil {
		return nil, nil, err
	}
	return exchanges, summary, nil
}

func statusLabelPT(status string) string {
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
