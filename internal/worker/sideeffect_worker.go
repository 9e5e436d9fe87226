package worker

// sideeffect_worker.go
// Drains side_effect_outbox rows enqueued by services. Each row describes one
// deferred effect (notification, audit entry or email) written in the same
// transaction as the mutation that produced it. A failed effect never touches
// the primary write: the row is rescheduled with backoff until
// MaxSideEffectRetries, then parked in the DLQ.

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pedrosazl/trust-reclaim-aid/internal/infra"
	"github.com/pedrosazl/trust-reclaim-aid/internal/model"
	"github.com/pedrosazl/trust-reclaim-aid/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const MaxSideEffectRetries = 5

// SideEffectJobPayload is the job envelope sent to QueueSideEffects.
type SideEffectJobPayload struct {
	OutboxID string `json:"outbox_id"`
}

// NotificationPayload is the outbox body for Kind=notification.
type NotificationPayload struct {
	UserID     string     `json:"user_id"`
	Type       string     `json:"type"`
	Title      string     `json:"title"`
	Message    string     `json:"message"`
	EntityType *string    `json:"entity_type,omitempty"`
	EntityID   *string    `json:"entity_id,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// AuditPayload is the outbox body for Kind=audit.
type AuditPayload struct {
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   *string         `json:"entity_id,omitempty"`
	UserID     *string         `json:"user_id,omitempty"`
	UserEmail  *string         `json:"user_email,omitempty"`
	UserName   *string         `json:"user_name,omitempty"`
	OldValues  json.RawMessage `json:"old_values,omitempty"`
	NewValues  json.RawMessage `json:"new_values,omitempty"`
	IPAddress  *string         `json:"ip_address,omitempty"`
	UserAgent  *string         `json:"user_agent,omitempty"`
}

// SideEffectWorker materializes outbox rows into their final form.
type SideEffectWorker struct {
	outboxRepo       repository.OutboxRepository
	notificationRepo repository.NotificationRepository
	auditRepo        repository.AuditRepository
	dispatcher       *Dispatcher
	events           *infra.EventPublisher
	rdb              *redis.Client
}

func NewSideEffectWorker(
	outboxRepo repository.OutboxRepository,
	notificationRepo repository.NotificationRepository,
	auditRepo repository.AuditRepository,
	dispatcher *Dispatcher,
	events *infra.EventPublisher,
	rdb *redis.Client,
) *SideEffectWorker {
	return &SideEffectWorker{
		outboxRepo:       outboxRepo,
		notificationRepo: notificationRepo,
		auditRepo:        auditRepo,
		dispatcher:       dispatcher,
		events:           events,
		rdb:              rdb,
	}
}

// Process handles a single outbox drain job.
func (w *SideEffectWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload SideEffectJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("sideeffect_worker: invalid payload")
		return
	}

	outboxID, err := uuid.Parse(payload.OutboxID)
	if err != nil {
		log.Error().Str("outbox_id", payload.OutboxID).Msg("sideeffect_worker: invalid outbox_id")
		return
	}

	entry, err := w.outboxRepo.FindByID(ctx, outboxID)
	if err != nil {
		log.Error().Err(err).Str("outbox_id", payload.OutboxID).Msg("sideeffect_worker: outbox row not found")
		return
	}
	if entry.Status != model.OutboxPending {
		// Already drained by a concurrent worker or the retry cron.
		return
	}

	w.ProcessEntry(ctx, entry)
}

// ProcessEntry applies one outbox entry and updates its status. Shared with
// the retry cron.
func (w *SideEffectWorker) ProcessEntry(ctx context.Context, entry *model.SideEffectOutbox) {
	if err := w.apply(ctx, entry); err != nil {
		w.markFailed(ctx, entry, err)
		return
	}

	entry.Status = model.OutboxDone
	entry.NextRetryAt = nil
	entry.LastError = nil
	if err := w.outboxRepo.Update(ctx, entry); err != nil {
		log.Error().Err(err).Str("outbox_id", entry.ID.String()).Msg("sideeffect_worker: failed to mark done")
	}
}

func (w *SideEffectWorker) apply(ctx context.Context, entry *model.SideEffectOutbox) error {
	switch entry.Kind {
	case model.OutboxNotification:
		var p NotificationPayload
		if err := json.Unmarshal(entry.Payload, &p); err != nil {
			return err
		}
		userID, err := uuid.Parse(p.UserID)
		if err != nil {
			return err
		}
		n := &model.Notification{
			UserID:     userID,
			Type:       p.Type,
			Title:      p.Title,
			Message:    p.Message,
			EntityType: p.EntityType,
			EntityID:   p.EntityID,
			ExpiresAt:  p.ExpiresAt,
		}
		if err := w.notificationRepo.Create(ctx, n); err != nil {
			return err
		}
		w.events.Publish(ctx, "notifications", n.ID.String(), "created")
		return nil

	case model.OutboxAudit:
		var p AuditPayload
		if err := json.Unmarshal(entry.Payload, &p); err != nil {
			return err
		}
		a := &model.AuditLog{
			Action:     p.Action,
			EntityType: p.EntityType,
			EntityID:   p.EntityID,
			UserEmail:  p.UserEmail,
			UserName:   p.UserName,
			OldValues:  []byte(p.OldValues),
			NewValues:  []byte(p.NewValues),
			IPAddress:  p.IPAddress,
			UserAgent:  p.UserAgent,
		}
		if p.UserID != nil {
			if uid, err := uuid.Parse(*p.UserID); err == nil {
				a.UserID = &uid
			}
		}
		return w.auditRepo.Create(ctx, a)

	case model.OutboxEmail:
		// Email effects hop to the dedicated queue so SMTP latency never
		// stalls the outbox drain.
		var p EmailJobPayload
		if err := json.Unmarshal(entry.Payload, &p); err != nil {
			return err
		}
		return w.dispatcher.EnqueueEmail(ctx, p)
	}

	log.Warn().Str("kind", entry.Kind).Str("outbox_id", entry.ID.String()).Msg("sideeffect_worker: unknown kind")
	return nil
}

func (w *SideEffectWorker) markFailed(ctx context.Context, entry *model.SideEffectOutbox, cause error) {
	entry.RetryCount++
	errMsg := cause.Error()
	entry.LastError = &errMsg

	if entry.RetryCount >= MaxSideEffectRetries {
		entry.Status = model.OutboxError
		entry.NextRetryAt = nil
		log.Error().
			Str("outbox_id", entry.ID.String()).
			Str("kind", entry.Kind).
			Int("retries", entry.RetryCount).
			Msg("sideeffect_worker: max retries exceeded, moving to error/DLQ")

		SendToDLQ(ctx, w.rdb, QueueSideEffects, entry.Kind, []byte(entry.Payload),
			errMsg, entry.RetryCount)
	} else {
		nextRetry := time.Now().Add(computeRetryBackoff(entry.RetryCount))
		entry.NextRetryAt = &nextRetry
		log.Warn().
			Str("outbox_id", entry.ID.String()).
			Str("kind", entry.Kind).
			Int("retry_count", entry.RetryCount).
			Time("next_retry_at", nextRetry).
			Msg("sideeffect_worker: effect failed, scheduled next attempt")
	}

	if err := w.outboxRepo.Update(ctx, entry); err != nil {
		log.Error().Err(err).Str("outbox_id", entry.ID.String()).Msg("sideeffect_worker: failed to persist retry state")
	}
}

// computeRetryBackoff returns the delay before the next attempt:
// 30s, 60s, 120s … capped at 10 minutes.
func computeRetryBackoff(retryCount int) time.Duration {
	backoff := 30 * time.Second * time.Duration(1<<uint(retryCount-1))
	if backoff > 10*time.Minute {
		return 10 * time.Minute
	}
	return backoff
}
