package handler

import (
	"net/http"

	"github.com/pedrosazl/trust-reclaim-aid/internal/apierror"
	"github.com/pedrosazl/trust-reclaim-aid/internal/dto"
	"github.com/pedrosazl/trust-reclaim-aid/internal/service"

	"github.com/gin-gonic/gin"
)

type PresenceHandler struct{ svc service.PresenceService }

func NewPresenceHandler(svc service.PresenceService) *PresenceHandler {
	return &PresenceHandler{svc: svc}
}

// Heartbeat godoc
// @Summary Heartbeat de presença
// @Description Atualiza o registro singleton de presença do usuário. Coordenadas são opcionais.
// @Tags presence
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.HeartbeatRequest true "Posição e dispositivo"
// @Success 204
// @Router /v1/presence [put]
func (h *PresenceHandler) Heartbeat(c *gin.Context) {
	uid, ok := callerID(c)
	if !ok {
		return
	}
	var req dto.HeartbeatRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.Heartbeat(c.Request.Context(), uid, req); err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Erro ao registrar presença"))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PresenceHandler) GoOffline(c *gin.Context) {
	uid, ok := callerID(c)
	if !ok {
		return
	}
	if err := h.svc.GoOffline(c.Request.Context(), uid); err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Erro ao registrar saída"))
		return
	}
	c.Status(http.StatusNoContent)
}

// ListOnline godoc
// @Summary Usuários online
// @Description Usuários com last_seen dentro da janela configurada. O flag is_online armazenado é ignorado na leitura.
// @Tags presence
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.OnlineUsersResponse
// @Router /v1/presence/online [get]
func (h *PresenceHandler) ListOnline(c *gin.Context) {
	resp, err := h.svc.ListOnline(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Erro ao listar usuários online"))
		return
	}
	c.JSON(http.StatusOK, resp)
}
