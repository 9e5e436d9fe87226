package handler

import (
	"net/http"

	"github.com/pedrosazl/trust-reclaim-aid/internal/apierror"
	"github.com/pedrosazl/trust-reclaim-aid/internal/service"

	"github.com/gin-gonic/gin"
)

type ReportsHandler struct{ svc service.ReportService }

func NewReportsHandler(svc service.ReportService) *ReportsHandler {
	return &ReportsHandler{svc: svc}
}

// Exchanges godoc
// @Summary Exportar relatório de solicitações
// @Description Gera o relatório do período em HTML (padrão) ou PDF via ?format=pdf.
// @Tags reports
// @Produce html
// @Security BearerAuth
// @Param from query string false "Data inicial YYYY-MM-DD"
// @Param to query string false "Data final YYYY-MM-DD"
// @Param format query string false "html | pdf"
// @Success 200
// @Router /v1/reports/exchanges [get]
func (h *ReportsHandler) Exchanges(c *gin.Context) {
	filter, ok := bindAnalyticsFilter(c)
	if !ok {
		return
	}

	format := c.DefaultQuery("format", "html")
	switch format {
	case "html":
		data, err := h.svc.ExchangesHTML(c.Request.Context(), actorFrom(c), filter)
		if err != nil {
			c.JSON(http.StatusInternalServerError, apierror.New("Erro ao gerar o relatório"))
			return
		}
		c.Header("Content-Disposition", `attachment; filename="relatorio-trocas.html"`)
		c.Data(http.StatusOK, "text/html; charset=utf-8", data)
	case "pdf":
		data, err := h.svc.ExchangesPDF(c.Request.Context(), actorFrom(c), filter)
		if err != nil {
			c.JSON(http.StatusInternalServerError, apierror.New("Erro ao gerar o relatório"))
			return
		}
		c.Header("Content-Disposition", `attachment; filename="relatorio-trocas.pdf"`)
		c.Data(http.StatusOK, "application/pdf", data)
	default:
		c.JSON(http.StatusBadRequest, apierror.New("Formato inválido: use html ou pdf"))
	}
}
