package handler

import (
	"net/http"

	"github.com/pedrosazl/trust-reclaim-aid/internal/apierror"
	"github.com/pedrosazl/trust-reclaim-aid/internal/middleware"
	"github.com/pedrosazl/trust-reclaim-aid/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type NotificationsHandler struct{ svc service.NotificationService }

func NewNotificationsHandler(svc service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{svc: svc}
}

func callerID(c *gin.Context) (uuid.UUID, bool) {
	claims := middleware.GetClaims(c)
	uid, err := uuid.Parse(claims.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, apierror.New("Token malformado"))
		return uuid.Nil, false
	}
	return uid, true
}

// List godoc
// @Summary Listar notificações do usuário
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.NotificationListResponse
// @Router /v1/notifications [get]
func (h *NotificationsHandler) List(c *gin.Context) {
	uid, ok := callerID(c)
	if !ok {
		return
	}
	resp, err := h.svc.List(c.Request.Context(), uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Erro ao listar notificações"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *NotificationsHandler) MarkRead(c *gin.Context) {
	uid, ok := callerID(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	if err := h.svc.MarkRead(c.Request.Context(), uid, id); err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Erro ao marcar notificação"))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *NotificationsHandler) MarkAllRead(c *gin.Context) {
	uid, ok := callerID(c)
	if !ok {
		return
	}
	if err := h.svc.MarkAllRead(c.Request.Context(), uid); err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Erro ao marcar notificações"))
		return
	}
	c.Status(http.StatusNoContent)
}
