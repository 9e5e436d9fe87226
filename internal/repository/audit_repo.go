package repository

import (
	"context"

	"github.com/pedrosazl/trust-reclaim-aid/internal/model"

	"gorm.io/gorm"
)

// AuditRepository is append-only on purpose: there is no update or delete.
type AuditRepository interface {
	Create(ctx context.Context, entry *model.AuditLog) error
	List(ctx context.Context, entityType string, limit int) ([]model.AuditLog, error)
}

type auditRepo struct{ db *gorm.DB }

func NewAuditRepository(db *gorm.DB) AuditRepository { return &auditRepo{db: db} }

func (r *auditRepo) Create(ctx context.Context, entry *model.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *auditRepo) List(ctx context.Context, entityType string, limit int) ([]model.AuditLog, error) {
	var entries []model.AuditLog
	q := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if entityType != "" {
		q = q.Where("entity_type = ?", entityType)
	}
	err := q.Find(&entries).Error
	return entries, err
}
