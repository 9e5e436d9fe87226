package handler

import (
	"net/http"

	"github.com/pedrosazl/trust-reclaim-aid/internal/apierror"
	"github.com/pedrosazl/trust-reclaim-aid/internal/dto"
	"github.com/pedrosazl/trust-reclaim-aid/internal/service"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct{ svc service.AuditService }

func NewAuditHandler(svc service.AuditService) *AuditHandler {
	return &AuditHandler{svc: svc}
}

// List godoc
// @Summary Consultar trilha de auditoria
// @Description Entradas mais recentes primeiro. Apenas administradores.
// @Tags audit
// @Produce json
// @Security BearerAuth
// @Param entity_type query string false "Filtrar por tipo de entidade"
// @Param limit query int false "Máximo de entradas (padrão 100)"
// @Success 200 {object} dto.AuditListResponse
// @Router /v1/audit [get]
func (h *AuditHandler) List(c *gin.Context) {
	var filter dto.AuditFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Erro ao consultar auditoria"))
		return
	}
	c.JSON(http.StatusOK, resp)
}
