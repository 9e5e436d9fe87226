package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pedrosazl/trust-reclaim-aid/internal/apierror"
	"github.com/pedrosazl/trust-reclaim-aid/internal/dto"
	"github.com/pedrosazl/trust-reclaim-aid/internal/infra"
	"github.com/pedrosazl/trust-reclaim-aid/internal/middleware"
	"github.com/pedrosazl/trust-reclaim-aid/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ExchangesHandler struct {
	svc      service.ExchangeService
	evidence *infra.EvidenceStore
}

func NewExchangesHandler(svc service.ExchangeService, evidence *infra.EvidenceStore) *ExchangesHandler {
	return &ExchangesHandler{svc: svc, evidence: evidence}
}

// actorFrom builds the audit identity from the JWT claims and request.
func actorFrom(c *gin.Context) service.Actor {
	claims := middleware.GetClaims(c)
	return service.Actor{
		UserID:    claims.UserID,
		Email:     claims.Email,
		FullName:  claims.FullName,
		Role:      claims.Role,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

// Create godoc
// @Summary Registrar solicitação de troca/devolução
// @Description Recebe o formulário multipart com os dados da solicitação e os anexos de evidência (assinatura e foto). Os anexos são gravados antes da solicitação: falha de armazenamento aborta o registro.
// @Tags exchanges
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param cnpj formData string true "CNPJ do cliente"
// @Param reason formData string true "Motivo da solicitação"
// @Param items formData string true "Itens em JSON: [{product_id, quantity}]"
// @Success 201 {object} dto.ExchangeResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/exchanges [post]
func (h *ExchangesHandler) Create(c *gin.Context) {
	req, ok := h.bindIntakeForm(c)
	if !ok {
		return
	}
	actor := actorFrom(c)
	userID, err := uuid.Parse(actor.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, apierror.New("Token malformado"))
		return
	}

	// Evidence goes to durable storage first. A failure here must abort the
	// whole intake before any row is written.
	var signatureURL, imageURL *string
	if fh, err := c.FormFile("signature"); err == nil {
		url, err := h.evidence.Save(userID, "signatures", fh)
		if err != nil {
			c.JSON(http.StatusInternalServerError, apierror.New("Falha ao gravar a assinatura"))
			return
		}
		signatureURL = &url
	}
	if fh, err := c.FormFile("image"); err == nil {
		url, err := h.evidence.Save(userID, "images", fh)
		if err != nil {
			c.JSON(http.StatusInternalServerError, apierror.New("Falha ao gravar a foto"))
			return
		}
		imageURL = &url
	}

	resp, err := h.svc.Create(c.Request.Context(), actor, *req, signatureURL, imageURL)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// bindIntakeForm reads the multipart fields into a CreateExchangeRequest.
// The items field is a JSON array encoded as a form value.
func (h *ExchangesHandler) bindIntakeForm(c *gin.Context) (*dto.CreateExchangeRequest, bool) {
	req := &dto.CreateExchangeRequest{
		CNPJ:   c.PostForm("cnpj"),
		Reason: c.PostForm("reason"),
	}
	if raw := c.PostForm("items"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Items); err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("Campo items inválido: "+err.Error()))
			return nil, false
		}
	}
	for field, target := range map[string]**decimal.Decimal{
		"shipping_cost":  &req.ShippingCost,
		"processing_fee": &req.ProcessingFee,
		"total_loss":     &req.TotalLoss,
	} {
		if raw := c.PostForm(field); raw != "" {
			d, err := decimal.NewFromString(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, apierror.New("Campo "+field+" inválido"))
				return nil, false
			}
			*target = &d
		}
	}
	if raw := c.PostForm("offline_id"); raw != "" {
		req.OfflineID = &raw
	}
	if !validateStruct(c, req) {
		return nil, false
	}
	return req, true
}

// SyncBatch godoc
// @Summary Sincronizar solicitações offline
// @Description Processa um lote de solicitações criadas offline. Idempotente por offline_id: reenvios retornam a solicitação original com status "duplicate".
// @Tags exchanges
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.SyncBatchRequest true "Lote de solicitações"
// @Success 200 {array} dto.SyncBatchResult
// @Failure 400 {object} apierror.APIError
// @Router /v1/exchanges/sync-batch [post]
func (h *ExchangesHandler) SyncBatch(c *gin.Context) {
	var req dto.SyncBatchRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.SyncBatch(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List godoc
// @Summary Listar solicitações
// @Description Lista paginada. Usuários comuns veem apenas as próprias solicitações; administradores veem todas.
// @Tags exchanges
// @Produce json
// @Security BearerAuth
// @Param status query string false "pending | approved | rejected | all"
// @Param from query string false "Data inicial YYYY-MM-DD"
// @Param to query string false "Data final YYYY-MM-DD"
// @Success 200 {object} dto.ExchangeListResponse
// @Router /v1/exchanges [get]
func (h *ExchangesHandler) List(c *gin.Context) {
	var filter dto.ExchangeFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.List(c.Request.Context(), actorFrom(c), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Erro ao listar solicitações"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ExchangesHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Approve godoc
// @Summary Aprovar solicitação
// @Description Transição pending→approved. Concorrência resolvida por CAS: decisões simultâneas retornam 409 para o perdedor.
// @Tags exchanges
// @Produce json
// @Security BearerAuth
// @Param id path string true "UUID da solicitação"
// @Success 200 {object} dto.ExchangeResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/exchanges/{id}/approve [post]
func (h *ExchangesHandler) Approve(c *gin.Context) {
	h.decide(c, h.svc.Approve)
}

// Reject godoc
// @Summary Rejeitar solicitação
// @Tags exchanges
// @Produce json
// @Security BearerAuth
// @Param id path string true "UUID da solicitação"
// @Success 200 {object} dto.ExchangeResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/exchanges/{id}/reject [post]
func (h *ExchangesHandler) Reject(c *gin.Context) {
	h.decide(c, h.svc.Reject)
}

func (h *ExchangesHandler) decide(c *gin.Context, fn func(ctx context.Context, actor service.Actor, id uuid.UUID) (*dto.ExchangeResponse, error)) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	resp, err := fn(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SetDisposition godoc
// @Summary Registrar destino do item devolvido
// @Description Atualiza condição e destino do item. returned_to_stock devolve a quantidade ao estoque do produto na mesma transação.
// @Tags exchanges
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "UUID da solicitação"
// @Param itemId path string true "UUID do item"
// @Param body body dto.SetDispositionRequest true "Condição e destino"
// @Success 200 {object} dto.ExchangeItemResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/exchanges/{id}/products/{itemId} [patch]
func (h *ExchangesHandler) SetDisposition(c *gin.Context) {
	exchangeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID do item inválido"))
		return
	}
	var req dto.SetDispositionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.SetDisposition(c.Request.Context(), actorFrom(c), exchangeID, itemID, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
