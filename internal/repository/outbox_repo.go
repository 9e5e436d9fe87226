package repository

import (
	"context"
	"time"

	"github.com/pedrosazl/trust-reclaim-aid/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OutboxRepository interface {
	// CreateTx writes the intent row in the same transaction as the primary
	// mutation it belongs to.
	CreateTx(tx *gorm.DB, entry *model.SideEffectOutbox) error
	Create(ctx context.Context, entry *model.SideEffectOutbox) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.SideEffectOutbox, error)
	Update(ctx context.Context, entry *model.SideEffectOutbox) error
	// ListPendingRetries returns pending entries whose next_retry_at has
	// passed, for the reconciliation cron.
	ListPendingRetries(ctx context.Context, now time.Time, limit int) ([]model.SideEffectOutbox, error)
}

type outboxRepo struct{ db *gorm.DB }

func NewOutboxRepository(db *gorm.DB) OutboxRepository { return &outboxRepo{db: db} }

func (r *outboxRepo) CreateTx(tx *gorm.DB, entry *model.SideEffectOutbox) error {
	return tx.Create(entry).Error
}

func (r *outboxRepo) Create(ctx context.Context, entry *model.SideEffectOutbox) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *outboxRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.SideEffectOutbox, error) {
	var entry model.SideEffectOutbox
	err := r.db.WithContext(ctx).First(&entry, id).Error
	return &entry, err
}

func (r *outboxRepo) Update(ctx context.Context, entry *model.SideEffectOutbox) error {
	return r.db.WithContext(ctx).Save(entry).Error
}

func (r *outboxRepo) ListPendingRetries(ctx context.Context, now time.Time, limit int) ([]model.SideEffectOutbox, error) {
	var entries []model.SideEffectOutbox
	err := r.db.WithContext(ctx).
		Where("status = ? AND next_retry_at IS NOT NULL AND next_retry_at <= ?", model.OutboxPending, now).
		Order("next_retry_at ASC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
