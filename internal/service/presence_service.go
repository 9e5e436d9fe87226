package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pedrosazl/trust-reclaim-aid/internal/config"
	"github.com/pedrosazl/trust-reclaim-aid/internal/dto"
	"github.com/pedrosazl/trust-reclaim-aid/internal/infra"
	"github.com/pedrosazl/trust-reclaim-aid/internal/model"
	"github.com/pedrosazl/trust-reclaim-aid/internal/repository"

	"github.com/google/uuid"
)

type PresenceService interface {
	Heartbeat(ctx context.Context, userID uuid.UUID, req dto.HeartbeatRequest) error
	GoOffline(ctx context.Context, userID uuid.UUID) error
	ListOnline(ctx context.Context) (*dto.OnlineUsersResponse, error)
}

type presenceService struct {
	repo     repository.PresenceRepository
	userRepo repository.UserRepository
	events   *infra.EventPublisher
	window   time.Duration
}

func NewPresenceService(repo repository.PresenceRepository, userRepo repository.UserRepository, events *infra.EventPublisher, cfg *config.Config) PresenceService {
	window := 60 * time.Second
	if cfg != nil && cfg.PresenceOnlineWindowSeconds > 0 {
		window = time.Duration(cfg.PresenceOnlineWindowSeconds) * time.Second
	}
	return &presenceService{repo: repo, userRepo: userRepo, events: events, window: window}
}

// Heartbeat upserts the caller's singleton presence row. Location only moves
// when the client sent coordinates; a heartbeat without them keeps the last
// known position and its timestamp.
func (s *presenceService) Heartbeat(ctx context.Context, userID uuid.UUID, req dto.HeartbeatRequest) error {
	now := time.Now()
	p := &model.UserPresence{
		UserID:   userID,
		IsOnline: true,
		LastSeen: now,
	}
	if req.Latitude != nil && req.Longitude != nil {
		p.Latitude = req.Latitude
		p.Longitude = req.Longitude
		p.LocationUpdatedAt = &now
	}
	if len(req.DeviceInfo) > 0 {
		if data, err := json.Marshal(req.DeviceInfo); err == nil {
			p.DeviceInfo = data
		}
	}
	if err := s.repo.Upsert(ctx, p); err != nil {
		return err
	}
	s.events.Publish(ctx, "user_presence", userID.String(), "heartbeat")
	return nil
}

// GoOffline flips the advisory flag on logout. Readers still apply the
// last_seen window, so a crashed client drops off within one window anyway.
func (s *presenceService) GoOffline(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.MarkOffline(ctx, userID); err != nil {
		return err
	}
	s.events.Publish(ctx, "user_presence", userID.String(), "offline")
	return nil
}

// ListOnline returns users whose last_seen falls inside the window. The
// stored is_online flag is ignored on read: a stale true must not keep a
// vanished client visible.
func (s *presenceService) ListOnline(ctx context.Context) (*dto.OnlineUsersResponse, error) {
	cutoff := time.Now().Add(-s.window)
	rows, err := s.repo.ListOnline(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for i := range rows {
		ids = append(ids, rows[i].UserID)
	}
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) > 0 {
		if users, err := s.userRepo.ListByIDs(ctx, ids); err == nil {
			for i := range users {
				names[users[i].ID] = users[i].FullName
			}
		}
	}

	resp := &dto.OnlineUsersResponse{
		Count: len(rows),
		Users: make([]dto.OnlineUserResponse, 0, len(rows)),
	}
	for i := range rows {
		p := &rows[i]
		u := dto.OnlineUserResponse{
			UserID:    p.UserID.String(),
			FullName:  names[p.UserID],
			LastSeen:  p.LastSeen.Format(time.RFC3339),
			Latitude:  p.Latitude,
			Longitude: p.Longitude,
		}
		if p.LocationUpdatedAt != nil {
			at := p.LocationUpdatedAt.Format(time.RFC3339)
			u.LocationUpdatedAt = &at
		}
		resp.Users = append(resp.Users, u)
	}
	return resp, nil
}
