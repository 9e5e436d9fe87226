package dto

import (
	"github.com/shopspring/decimal"
)

// ExchangeItemInput is one product row on an intake form. Rows missing a
// product or with non-positive quantity are dropped before persistence.
type ExchangeItemInput struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

type CreateExchangeRequest struct {
	CNPJ   string              `json:"cnpj" validate:"required"`
	Reason string              `json:"reason" validate:"required,max=1000"`
	Items  []ExchangeItemInput `json:"items" validate:"required"`
	// Optional cost components registered directly on the exchange.
	ShippingCost  *decimal.Decimal `json:"shipping_cost" validate:"omitempty,min=0"`
	ProcessingFee *decimal.Decimal `json:"processing_fee" validate:"omitempty,min=0"`
	TotalLoss     *decimal.Decimal `json:"total_loss" validate:"omitempty,min=0"`
	// OfflineID deduplicates retried submissions from the offline queue.
	OfflineID *string `json:"offline_id" validate:"omitempty,max=64"`
}

// SyncBatchRequest drains a client's local offline outbox. Every entry must
// carry an OfflineID so replays are idempotent.
type SyncBatchRequest struct {
	Exchanges []CreateExchangeRequest `json:"exchanges" validate:"required,min=1,dive"`
}

type SyncBatchResult struct {
	OfflineID string            `json:"offline_id"`
	Status    string            `json:"status"` // created | duplicate | error
	Error     string            `json:"error,omitempty"`
	Exchange  *ExchangeResponse `json:"exchange,omitempty"`
}

type ExchangeFilter struct {
	Status string `form:"status"`
	From   string `form:"from"`
	To     string `form:"to"`
	Page   int    `form:"page,default=1"`
	Limit  int    `form:"limit,default=50"`
}

type SetDispositionRequest struct {
	ProductCondition *string `json:"product_condition" validate:"omitempty,oneof=reusable damaged expired analyzing"`
	ProductStatus    *string `json:"product_status" validate:"omitempty,oneof=returned_to_stock discarded analyzing pending"`
}

type ExchangeItemResponse struct {
	ID               string           `json:"id"`
	ProductID        string           `json:"product_id"`
	ProductName      string           `json:"product_name,omitempty"`
	Quantity         decimal.Decimal  `json:"quantity"`
	UnitPrice        *decimal.Decimal `json:"unit_price"`
	ProductCondition *string          `json:"product_condition"`
	ProductStatus    *string          `json:"product_status"`
	AnalyzedBy       *string          `json:"analyzed_by"`
	AnalyzedAt       *string          `json:"analyzed_at"`
}

type ExchangeResponse struct {
	ID            string                 `json:"id"`
	UserID        string                 `json:"user_id"`
	CNPJ          string                 `json:"cnpj"`
	Reason        string                 `json:"reason"`
	Status        string                 `json:"status"`
	SignatureURL  *string                `json:"signature_url"`
	ImageURL      *string                `json:"image_url"`
	ShippingCost  *decimal.Decimal       `json:"shipping_cost"`
	ProcessingFee *decimal.Decimal       `json:"processing_fee"`
	TotalLoss     *decimal.Decimal       `json:"total_loss"`
	ApprovedBy    *string                `json:"approved_by"`
	ApprovedAt    *string                `json:"approved_at"`
	Synced        bool                   `json:"synced"`
	CreatedAt     string                 `json:"created_at"`
	Items         []ExchangeItemResponse `json:"items"`
}

type ExchangeListResponse struct {
	Items []ExchangeResponse `json:"items"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}
