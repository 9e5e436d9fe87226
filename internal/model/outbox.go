package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Side-effect kinds drained by the worker pool.
const (
	OutboxNotification = "notification"
	OutboxAudit        = "audit"
	OutboxEmail        = "email"
)

// Outbox row states.
const (
	OutboxPending = "pending"
	OutboxDone    = "done"
	OutboxError   = "error"
)

// SideEffectOutbox is written in the same transaction as the primary mutation
// it belongs to, then drained asynchronously. Failure to deliver a side effect
// never rolls back the primary write — entries are retried with backoff until
// MaxSideEffectRetries, after which they land in the DLQ for inspection.
type SideEffectOutbox struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Kind        string         `gorm:"type:varchar(20);not null"`
	Payload     datatypes.JSON `gorm:"type:jsonb;not null"`
	Status      string         `gorm:"type:varchar(10);not null;default:'pending';index"`
	RetryCount  int            `gorm:"not null;default:0"`
	NextRetryAt *time.Time     `gorm:"index"`
	LastError   *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (SideEffectOutbox) TableName() string { return "side_effect_outbox" }
