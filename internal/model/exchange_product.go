package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Post-review classification of a returned product's physical condition.
const (
	ConditionReusable  = "reusable"
	ConditionDamaged   = "damaged"
	ConditionExpired   = "expired"
	ConditionAnalyzing = "analyzing"
)

// Inventory fate of a returned product.
const (
	ProductStatusReturnedToStock = "returned_to_stock"
	ProductStatusDiscarded       = "discarded"
	ProductStatusAnalyzing       = "analyzing"
	ProductStatusPending         = "pending"
)

// ExchangeProduct is a line item: one product, quantity and disposition on a
// single exchange. Quantity is decimal — fractional amounts are normal for
// weight-based units.
type ExchangeProduct struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ExchangeID uuid.UUID       `gorm:"type:uuid;index;not null"`
	ProductID  uuid.UUID       `gorm:"type:uuid;index;not null"`
	Quantity   decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	// UnitPrice is snapshotted from the product's selling price at intake.
	// Nullable: loss calculation treats a missing price as zero.
	UnitPrice        *decimal.Decimal `gorm:"type:decimal(10,2)"`
	ProductCondition *string          `gorm:"type:varchar(20)"`
	ProductStatus    *string          `gorm:"type:varchar(20)"`
	// AnalyzedBy/AnalyzedAt are stamped when a reviewer finalizes disposition.
	AnalyzedBy *uuid.UUID `gorm:"type:uuid"`
	AnalyzedAt *time.Time
	CreatedAt  time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}

// ValidCondition reports whether c belongs to the closed condition set.
func ValidCondition(c string) bool {
	switch c {
	case ConditionReusable, ConditionDamaged, ConditionExpired, ConditionAnalyzing:
		return true
	}
	return false
}

// ValidProductStatus reports whether s belongs to the closed status set.
func ValidProductStatus(s string) bool {
	switch s {
	case ProductStatusReturnedToStock, ProductStatusDiscarded, ProductStatusAnalyzing, ProductStatusPending:
		return true
	}
	return false
}
