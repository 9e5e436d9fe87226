package service

import (
	"context"
	"testing"
	"time"

	"github.com/pedrosazl/trust-reclaim-aid/internal/config"
	"github.com/pedrosazl/trust-reclaim-aid/internal/dto"
	"github.com/pedrosazl/trust-reclaim-aid/internal/model"
	"github.com/pedrosazl/trust-reclaim-aid/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubPresenceRepo is an in-memory PresenceRepository keyed by user.
type stubPresenceRepo struct {
	rows map[uuid.UUID]*model.UserPresence
}

func newStubPresenceRepo() *stubPresenceRepo {
	return &stubPresenceRepo{rows: make(map[uuid.UUID]*model.UserPresence)}
}

func (r *stubPresenceRepo) Upsert(_ context.Context, p *model.UserPresence) error {
	r.rows[p.UserID] = p
	return nil
}

func (r *stubPresenceRepo) MarkOffline(_ context.Context, userID uuid.UUID) error {
	if p, ok := r.rows[userID]; ok {
		p.IsOnline = false
	}
	return nil
}

func (r *stubPresenceRepo) ListOnline(_ context.Context, cutoff time.Time) ([]model.UserPresence, error) {
	var out []model.UserPresence
	for _, p := range r.rows {
		if !p.LastSeen.Before(cutoff) {
			out = append(out, *p)
		}
	}
	return out, nil
}

var _ repository.PresenceRepository = (*stubPresenceRepo)(nil)

func newPresenceFixture(t *testing.T) (PresenceService, *stubPresenceRepo, *stubUserRepo) {
	t.Helper()
	repo := newStubPresenceRepo()
	userRepo := newStubUserRepo()
	svc := NewPresenceService(repo, userRepo, nil, &config.Config{PresenceOnlineWindowSeconds: 60})
	return svc, repo, userRepo
}

func TestHeartbeatWithoutCoordinates(t *testing.T) {
	svc, repo, _ := newPresenceFixture(t)
	userID := uuid.New()

	require.NoError(t, svc.Heartbeat(context.Background(), userID, dto.HeartbeatRequest{}))

	row := repo.rows[userID]
	require.NotNil(t, row)
	assert.True(t, row.IsOnline)
	assert.WithinDuration(t, time.Now(), row.LastSeen, time.Second)
	assert.Nil(t, row.Latitude)
	assert.Nil(t, row.LocationUpdatedAt, "location timestamp only moves when coordinates arrive")
}

func TestHeartbeatWithCoordinates(t *testing.T) {
	svc, repo, _ := newPresenceFixture(t)
	userID := uuid.New()

	lat, lon := -23.5505, -46.6333
	require.NoError(t, svc.Heartbeat(context.Background(), userID, dto.HeartbeatRequest{
		Latitude:   &lat,
		Longitude:  &lon,
		DeviceInfo: map[string]string{"os": "android"},
	}))

	row := repo.rows[userID]
	require.NotNil(t, row)
	require.NotNil(t, row.Latitude)
	assert.Equal(t, lat, *row.Latitude)
	assert.NotNil(t, row.LocationUpdatedAt)
	assert.NotEmpty(t, row.DeviceInfo)
}

func TestListOnlineAppliesWindow(t *testing.T) {
	svc, repo, userRepo := newPresenceFixture(t)

	fresh := &model.User{Email: "fresh@trocas.com.br", FullName: "Fresca", Role: model.RoleUser, Active: true}
	stale := &model.User{Email: "stale@trocas.com.br", FullName: "Parado", Role: model.RoleUser, Active: true}
	require.NoError(t, userRepo.Create(context.Background(), fresh))
	require.NoError(t, userRepo.Create(context.Background(), stale))

	now := time.Now()
	repo.rows[fresh.ID] = &model.UserPresence{UserID: fresh.ID, IsOnline: false, LastSeen: now.Add(-59 * time.Second)}
	// Stored flag still true, but the window has passed.
	repo.rows[stale.ID] = &model.UserPresence{UserID: stale.ID, IsOnline: true, LastSeen: now.Add(-61 * time.Second)}

	resp, err := svc.ListOnline(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, resp.Count, "only last_seen decides, never the stored flag")
	assert.Equal(t, fresh.ID.String(), resp.Users[0].UserID)
	assert.Equal(t, "Fresca", resp.Users[0].FullName)
}

func TestGoOfflineDoesNotHideFreshHeartbeat(t *testing.T) {
	svc, repo, userRepo := newPresenceFixture(t)
	user := &model.User{Email: "saiu@trocas.com.br", FullName: "Saiu", Role: model.RoleUser, Active: true}
	require.NoError(t, userRepo.Create(context.Background(), user))

	require.NoError(t, svc.Heartbeat(context.Background(), user.ID, dto.HeartbeatRequest{}))
	require.NoError(t, svc.GoOffline(context.Background(), user.ID))

	assert.False(t, repo.rows[user.ID].IsOnline)

	// The read path ignores the advisory flag while last_seen is recent.
	resp, err := svc.ListOnline(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Count)
}
