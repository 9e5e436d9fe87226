package infra

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ChangeEvent is published after a successful mutation so connected clients
// can refresh near-real-time views. Channel is keyed by entity type
// ("events:exchanges", "events:notifications", ...). Delivery is best-effort
// with no ordering guarantee beyond "eventually reflects latest state".
type ChangeEvent struct {
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Action     string    `json:"action"`
	At         time.Time `json:"at"`
}

// EventPublisher fans mutations out over Redis pub/sub.
type EventPublisher struct {
	rdb *redis.Client
}

func NewEventPublisher(rdb *redis.Client) *EventPublisher {
	return &EventPublisher{rdb: rdb}
}

// Publish never fails the caller: a dropped event only delays a UI refresh.
func (p *EventPublisher) Publish(ctx context.Context, entityType, entityID, action string) {
	if p == nil || p.rdb == nil {
		return
	}
	ev := ChangeEvent{EntityType: entityType, EntityID: entityID, Action: action, At: time.Now().UTC()}
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := p.rdb.Publish(ctx, "events:"+entityType, data).Err(); err != nil {
		log.Warn().Err(err).Str("entity_type", entityType).Msg("event publish failed")
	}
}
