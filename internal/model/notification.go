package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification types.
const (
	NotifAlert        = "alert"
	NotifStatusChange = "status_change"
	NotifWarning      = "warning"
	NotifInfo         = "info"
)

// Notification is a per-user message created as a side effect of status
// transitions and inventory alert checks. Read state is owned by the recipient.
type Notification struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID     uuid.UUID `gorm:"type:uuid;index;not null"`
	Type       string    `gorm:"type:varchar(20);not null"`
	Title      string    `gorm:"not null"`
	Message    string    `gorm:"not null"`
	EntityType *string   `gorm:"type:varchar(40)"`
	EntityID   *string   `gorm:"type:varchar(40)"`
	Read       bool      `gorm:"not null;default:false"`
	ExpiresAt  *time.Time
	CreatedAt  time.Time `gorm:"index"`
}
