package repository

import (
	"context"
	"time"

	"github.com/pedrosazl/trust-reclaim-aid/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PresenceRepository interface {
	// Upsert writes the caller's singleton row (keyed by user_id).
	Upsert(ctx context.Context, p *model.UserPresence) error
	MarkOffline(ctx context.Context, userID uuid.UUID) error
	// ListOnline returns rows with last_seen at or after cutoff. The stored
	// is_online flag is deliberately ignored: the window is the truth.
	ListOnline(ctx context.Context, cutoff time.Time) ([]model.UserPresence, error)
}

type presenceRepo struct{ db *gorm.DB }

func NewPresenceRepository(db *gorm.DB) PresenceRepository { return &presenceRepo{db: db} }

func (r *presenceRepo) Upsert(ctx context.Context, p *model.UserPresence) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"is_online", "last_seen", "latitude", "longitude",
			"location_updated_at", "device_info", "updated_at",
		}),
	}).Create(p).Error
}

func (r *presenceRepo) MarkOffline(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.UserPresence{}).
		Where("user_id = ?", userID).
		Update("is_online", false).Error
}

func (r *presenceRepo) ListOnline(ctx context.Context, cutoff time.Time) ([]model.UserPresence, error) {
	var rows []model.UserPresence
	err := r.db.WithContext(ctx).
		Where("last_seen >= ?", cutoff).
		Order("last_seen DESC").
		Find(&rows).Error
	return rows, err
}
