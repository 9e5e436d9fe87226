package repository

import (
	"context"
	"time"

	"github.com/pedrosazl/trust-reclaim-aid/internal/dto"
	"github.com/pedrosazl/trust-reclaim-aid/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AnalyticsScope bounds every reconciliation query: admins pass a nil UserID
// and see all rows, other callers only their own.
type AnalyticsScope struct {
	UserID *uuid.UUID
	From   time.Time
	To     time.Time
}

type ExchangeRepository interface {
	// Create persists the exchange and its line items inside tx.
	Create(ctx context.Context, tx *gorm.DB, e *model.Exchange) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Exchange, error)
	FindByOfflineID(ctx context.Context, offlineID string) (*model.Exchange, error)
	List(ctx context.Context, filter dto.ExchangeFilter, userID *uuid.UUID) ([]model.Exchange, int64, error)
	ListAll(ctx context.Context) ([]model.Exchange, error)

	// TransitionStatus performs the compare-and-swap on the status column:
	// the UPDATE only matches while status is still 'pending', so exactly one
	// of two concurrent decisions wins. Returns the number of rows affected.
	TransitionStatus(ctx context.Context, id uuid.UUID, status string, adminID uuid.UUID, at time.Time) (int64, error)

	FindItem(ctx context.Context, exchangeID, itemID uuid.UUID) (*model.ExchangeProduct, error)
	UpdateItemTx(tx *gorm.DB, item *model.ExchangeProduct) error

	// ListForAnalytics loads in-scope exchanges with line items and products
	// preloaded; aggregation happens in the service layer.
	ListForAnalytics(ctx context.Context, scope AnalyticsScope) ([]model.Exchange, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type exchangeRepo struct{ db *gorm.DB }

func NewExchangeRepository(db *gorm.DB) ExchangeRepository { return &exchangeRepo{db: db} }

func (r *exchangeRepo) DB() *gorm.DB { return r.db }

func (r *exchangeRepo) Create(ctx context.Context, tx *gorm.DB, e *model.Exchange) error {
	return tx.WithContext(ctx).Create(e).Error
}

func (r *exchangeRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Exchange, error) {
	var e model.Exchange
	err := r.db.WithContext(ctx).Preload("Items.Product").First(&e, id).Error
	return &e, err
}

func (r *exchangeRepo) FindByOfflineID(ctx context.Context, offlineID string) (*model.Exchange, error) {
	var e model.Exchange
	err := r.db.WithContext(ctx).Preload("Items.Product").Where("offline_id = ?", offlineID).First(&e).Error
	return &e, err
}

func (r *exchangeRepo) List(ctx context.Context, filter dto.ExchangeFilter, userID *uuid.UUID) ([]model.Exchange, int64, error) {
	var exchanges []model.Exchange
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Exchange{})
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}
	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.From != "" {
		q = q.Where("created_at >= ?", filter.From)
	}
	if filter.To != "" {
		q = q.Where("created_at <= ?", filter.To)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Items.Product").
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&exchanges).Error
	return exchanges, total, err
}

func (r *exchangeRepo) ListAll(ctx context.Context) ([]model.Exchange, error) {
	var exchanges []model.Exchange
	err := r.db.WithContext(ctx).Preload("Items.Product").
		Order("created_at DESC").Find(&exchanges).Error
	return exchanges, err
}

func (r *exchangeRepo) TransitionStatus(ctx context.Context, id uuid.UUID, status string, adminID uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Exchange{}).
		Where("id = ? AND status = ?", id, model.StatusPending).
		Updates(map[string]interface{}{
			"status":      status,
			"approved_by": adminID,
			"approved_at": at,
		})
	return res.RowsAffected, res.Error
}

func (r *exchangeRepo) FindItem(ctx context.Context, exchangeID, itemID uuid.UUID) (*model.ExchangeProduct, error) {
	var item model.ExchangeProduct
	err := r.db.WithContext(ctx).Preload("Product").
		Where("id = ? AND exchange_id = ?", itemID, exchangeID).First(&item).Error
	return &item, err
}

func (r *exchangeRepo) UpdateItemTx(tx *gorm.DB, item *model.ExchangeProduct) error {
	return tx.Save(item).Error
}

func (r *exchangeRepo) ListForAnalytics(ctx context.Context, scope AnalyticsScope) ([]model.Exchange, error) {
	var exchanges []model.Exchange
	q := r.db.WithContext(ctx).Preload("Items.Product").
		Where("created_at >= ? AND created_at <= ?", scope.From, scope.To)
	if scope.UserID != nil {
		q = q.Where("user_id = ?", *scope.UserID)
	}
	err := q.Order("created_at ASC").Find(&exchanges).Error
	return exchanges, err
}
