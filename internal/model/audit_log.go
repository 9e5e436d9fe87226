package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Audit actions recorded by the application.
const (
	ActionCreate  = "CREATE"
	ActionUpdate  = "UPDATE"
	ActionDelete  = "DELETE"
	ActionApprove = "APPROVE"
	ActionReject  = "REJECT"
	ActionAnalyze = "ANALYZE"
)

// AuditLog is an immutable record of every relevant mutation.
// Append-only: the application never updates or deletes entries.
type AuditLog struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Action     string    `gorm:"type:varchar(20);not null"`
	EntityType string    `gorm:"type:varchar(40);not null;index"`
	EntityID   *string   `gorm:"type:varchar(40)"`
	UserID     *uuid.UUID `gorm:"type:uuid"`
	UserEmail  *string
	UserName   *string
	OldValues  datatypes.JSON `gorm:"type:jsonb"`
	NewValues  datatypes.JSON `gorm:"type:jsonb"`
	IPAddress  *string        `gorm:"type:varchar(45)"`
	UserAgent  *string
	CreatedAt  time.Time `gorm:"index"`
}
