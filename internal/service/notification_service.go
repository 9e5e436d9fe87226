package service

import (
	"context"
	"time"

	"github.com/pedrosazl/trust-reclaim-aid/internal/dto"
	"github.com/pedrosazl/trust-reclaim-aid/internal/model"
	"github.com/pedrosazl/trust-reclaim-aid/internal/repository"

	"github.com/google/uuid"
)

const defaultNotificationLimit = 50

type NotificationService interface {
	List(ctx context.Context, userID uuid.UUID) (*dto.NotificationListResponse, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
}

type notificationService struct {
	repo repository.NotificationRepository
}

func NewNotificationService(repo repository.NotificationRepository) NotificationService {
	return &notificationService{repo: repo}
}

// List returns the caller's recent non-expired notifications plus the unread
// counter the UI badge renders.
func (s *notificationService) List(ctx context.Context, userID uuid.UUID) (*dto.NotificationListResponse, error) {
	now := time.Now()
	items, err := s.repo.ListByUser(ctx, userID, defaultNotificationLimit, now)
	if err != nil {
		return nil, err
	}
	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := &dto.NotificationListResponse{
		Items:       make([]dto.NotificationResponse, 0, len(items)),
		UnreadCount: unread,
	}
	for i := range items {
		resp.Items = append(resp.Items, notificationToResponse(&items[i]))
	}
	return resp, nil
}

// MarkRead is scoped to the owner: marking another user's notification is a
// silent no-op, not an error.
func (s *notificationService) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.MarkRead(ctx, userID, id)
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllRead(ctx, userID)
}

func notificationToResponse(n *model.Notification) dto.NotificationResponse {
	resp := dto.NotificationResponse{
		ID:         n.ID.String(),
		Type:       n.Type,
		Title:      n.Title,
		Message:    n.Message,
		EntityType: n.EntityType,
		EntityID:   n.EntityID,
		Read:       n.Read,
		CreatedAt:  n.CreatedAt.Format(time.RFC3339),
	}
	if n.ExpiresAt != nil {
		at := n.ExpiresAt.Format(time.RFC3339)
		resp.ExpiresAt = &at
	}
	return resp
}
