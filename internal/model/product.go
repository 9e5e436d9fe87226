package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Valid measurement units for products. Dairy goods mix weight-based and
// unit-based items, so quantity is decimal everywhere.
var ProductUnits = []string{"kg", "un", "l", "cx", "pc"}

// Product is a catalog item that can appear on exchange requests.
// Created and edited by any authenticated user; deletion is admin-only.
type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string    `gorm:"index;not null"`
	SKU         *string   `gorm:"column:sku;uniqueIndex"`
	Category    *string
	Description *string
	Quantity    decimal.Decimal `gorm:"type:decimal(12,3);not null;default:0"`
	Unit        string          `gorm:"type:varchar(5);not null;default:'un'"`
	// Prices are optional — loss calculations degrade gracefully without them.
	CostPrice    *decimal.Decimal `gorm:"type:decimal(10,2)"`
	SellingPrice *decimal.Decimal `gorm:"type:decimal(10,2)"`
	CreatedBy    *uuid.UUID       `gorm:"type:uuid"`
	UpdatedBy    *uuid.UUID       `gorm:"type:uuid"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ValidUnit reports whether u is one of the closed unit set.
func ValidUnit(u string) bool {
	for _, v := range ProductUnits {
		if v == u {
			return true
		}
	}
	return false
}
