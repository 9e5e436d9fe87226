package handler

import (
	"net/http"

	"github.com/pedrosazl/trust-reclaim-aid/internal/apierror"
	"github.com/pedrosazl/trust-reclaim-aid/internal/dto"
	"github.com/pedrosazl/trust-reclaim-aid/internal/service"

	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct{ svc service.AnalyticsService }

func NewAnalyticsHandler(svc service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc}
}

func bindAnalyticsFilter(c *gin.Context) (dto.AnalyticsFilter, bool) {
	var filter dto.AnalyticsFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return filter, false
	}
	return filter, true
}

// FinancialSummary godoc
// @Summary Resumo financeiro de perdas
// @Description Totais por status e componentes de perda: custos armazenados + valor dos produtos (quantidade × preço unitário), somados sem sobreposição.
// @Tags analytics
// @Produce json
// @Security BearerAuth
// @Param from query string false "Data inicial YYYY-MM-DD"
// @Param to query string false "Data final YYYY-MM-DD"
// @Success 200 {object} dto.FinancialSummaryResponse
// @Router /v1/analytics/summary [get]
func (h *AnalyticsHandler) FinancialSummary(c *gin.Context) {
	filter, ok := bindAnalyticsFilter(c)
	if !ok {
		return
	}
	resp, err := h.svc.FinancialSummary(c.Request.Context(), actorFrom(c), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Erro ao calcular o resumo"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AnalyticsHandler) LossByCategory(c *gin.Context) {
	filter, ok := bindAnalyticsFilter(c)
	if !ok {
		return
	}
	resp, err := h.svc.LossByCategory(c.Request.Context(), actorFrom(c), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Erro ao calcular perdas por categoria"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AnalyticsHandler) ReasonBuckets(c *gin.Context) {
	filter, ok := bindAnalyticsFilter(c)
	if !ok {
		return
	}
	resp, err := h.svc.ReasonBuckets(c.Request.Context(), actorFrom(c), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Erro ao agrupar motivos"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AnalyticsHandler) Timeline(c *gin.Context) {
	filter, ok := bindAnalyticsFilter(c)
	if !ok {
		return
	}
	resp, err := h.svc.Timeline(c.Request.Context(), actorFrom(c), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Erro ao montar a linha do tempo"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AnalyticsHandler) InventoryStats(c *gin.Context) {
	filter, ok := bindAnalyticsFilter(c)
	if !ok {
		return
	}
	resp, err := h.svc.InventoryStats(c.Request.Context(), actorFrom(c), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Erro ao calcular estatísticas de estoque"))
		return
	}
	c.JSON(http.StatusOK, resp)
}
