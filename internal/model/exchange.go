package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Exchange status values. Transitions only pending→approved or
// pending→rejected; once non-pending the status is immutable.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Exchange is a single return/exchange request tied to one CNPJ and one or
// more product line items.
type Exchange struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID uuid.UUID `gorm:"type:uuid;index;not null"`
	// CNPJ is stored in canonical display form (NN.NNN.NNN/NNNN-NN).
	CNPJ         string  `gorm:"type:varchar(18);not null;column:cnpj"`
	Reason       string  `gorm:"type:varchar(1000);not null"`
	Status       string  `gorm:"type:varchar(10);not null;default:'pending';index"`
	SignatureURL *string `gorm:"column:signature_url"`
	ImageURL     *string `gorm:"column:image_url"`
	// Cost components registered directly on the exchange. Product value loss
	// is derived from line items and is a separate additive component.
	ShippingCost  *decimal.Decimal `gorm:"type:decimal(12,2);default:0"`
	ProcessingFee *decimal.Decimal `gorm:"type:decimal(12,2);default:0"`
	TotalLoss     *decimal.Decimal `gorm:"type:decimal(12,2);default:0"`
	// ApprovedBy/ApprovedAt are set if and only if status != pending.
	ApprovedBy *uuid.UUID `gorm:"type:uuid"`
	ApprovedAt *time.Time
	Synced     bool `gorm:"not null;default:true"`
	// OfflineID is the client-generated idempotency key used by the offline
	// sync path — a resubmission with the same key returns the original row.
	OfflineID *string `gorm:"uniqueIndex"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time

	Items []ExchangeProduct `gorm:"foreignKey:ExchangeID"`
}

// Pending reports whether the exchange still awaits an admin decision.
func (e *Exchange) Pending() bool { return e.Status == StatusPending }
