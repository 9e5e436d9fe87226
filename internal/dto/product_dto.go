package dto

import "github.com/shopspring/decimal"

type CreateProductRequest struct {
	Name         string           `json:"name" validate:"required,min=2,max=200"`
	SKU          *string          `json:"sku" validate:"omitempty,max=60"`
	Category     *string          `json:"category" validate:"omitempty,max=100"`
	Description  *string          `json:"description" validate:"omitempty,max=1000"`
	Quantity     decimal.Decimal  `json:"quantity" validate:"min=0"`
	Unit         string           `json:"unit" validate:"required,oneof=kg un l cx pc"`
	CostPrice    *decimal.Decimal `json:"cost_price" validate:"omitempty,min=0"`
	SellingPrice *decimal.Decimal `json:"selling_price" validate:"omitempty,min=0"`
}

type UpdateProductRequest struct {
	Name         string           `json:"name" validate:"required,min=2,max=200"`
	SKU          *string          `json:"sku" validate:"omitempty,max=60"`
	Category     *string          `json:"category" validate:"omitempty,max=100"`
	Description  *string          `json:"description" validate:"omitempty,max=1000"`
	Quantity     decimal.Decimal  `json:"quantity" validate:"min=0"`
	Unit         string           `json:"unit" validate:"required,oneof=kg un l cx pc"`
	CostPrice    *decimal.Decimal `json:"cost_price" validate:"omitempty,min=0"`
	SellingPrice *decimal.Decimal `json:"selling_price" validate:"omitempty,min=0"`
}

type ProductFilter struct {
	Name     string `form:"name"`
	Category string `form:"category"`
	Page     int    `form:"page,default=1"`
	Limit    int    `form:"limit,default=50"`
}

type ProductResponse struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	SKU          *string          `json:"sku"`
	Category     *string          `json:"category"`
	Description  *string          `json:"description"`
	Quantity     decimal.Decimal  `json:"quantity"`
	Unit         string           `json:"unit"`
	CostPrice    *decimal.Decimal `json:"cost_price"`
	SellingPrice *decimal.Decimal `json:"selling_price"`
	CreatedAt    string           `json:"created_at"`
	UpdatedAt    string           `json:"updated_at"`
}

type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}
