package handler

import (
	"errors"
	"net/http"

	"github.com/pedrosazl/trust-reclaim-aid/internal/apierror"
	"github.com/pedrosazl/trust-reclaim-aid/internal/dto"
	"github.com/pedrosazl/trust-reclaim-aid/internal/infra"
	"github.com/pedrosazl/trust-reclaim-aid/internal/service"

	"github.com/gin-gonic/gin"
)

type CNPJHandler struct{ svc service.CNPJService }

func NewCNPJHandler(svc service.CNPJService) *CNPJHandler { return &CNPJHandler{svc: svc} }

// Search godoc
// @Summary Consultar CNPJ no registro público
// @Description Proxy da consulta pública com resposta normalizada (nome e endereço em linha única). Sem cache: cada consulta vai ao registro.
// @Tags cnpj
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CNPJSearchRequest true "CNPJ com ou sem máscara"
// @Success 200 {object} dto.CNPJSearchResponse
// @Failure 404 {object} apierror.APIError
// @Failure 502 {object} apierror.APIError
// @Router /v1/cnpj/search [post]
func (h *CNPJHandler) Search(c *gin.Context) {
	var req dto.CNPJSearchRequest
	if !bindAndValidate(c, &req) {
		return
	}

	resp, err := h.svc.Lookup(c.Request.Context(), req.CNPJ)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCNPJ):
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		case errors.Is(err, infra.ErrCNPJNotFound):
			c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		case errors.Is(err, service.ErrLookupUnavailable):
			c.JSON(http.StatusBadGateway, apierror.New(err.Error()))
		default:
			c.JSON(http.StatusInternalServerError, apierror.New("Erro na consulta de CNPJ"))
		}
		return
	}
	c.JSON(http.StatusOK, resp)
}
