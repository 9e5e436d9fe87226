package service

// outbox.go
// Helpers that build side_effect_outbox rows. Services write these rows in
// the same transaction as the mutation they describe; the worker pool drains
// them afterwards. This keeps notifications, audit entries and emails out of
// the request path without losing them when Redis is down.

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pedrosazl/trust-reclaim-aid/internal/model"
	"github.com/pedrosazl/trust-reclaim-aid/internal/worker"

	"github.com/rs/zerolog/log"
)

func newNotificationOutbox(p worker.NotificationPayload) *model.SideEffectOutbox {
	data, _ := json.Marshal(p)
	return &model.SideEffectOutbox{
		Kind:    model.OutboxNotification,
		Payload: data,
		Status:  model.OutboxPending,
	}
}

func newAuditOutbox(p worker.AuditPayload) *model.SideEffectOutbox {
	data, _ := json.Marshal(p)
	return &model.SideEffectOutbox{
		Kind:    model.OutboxAudit,
		Payload: data,
		Status:  model.OutboxPending,
	}
}

func newEmailOutbox(p worker.EmailJobPayload) *model.SideEffectOutbox {
	data, _ := json.Marshal(p)
	return &model.SideEffectOutbox{
		Kind:    model.OutboxEmail,
		Payload: data,
		Status:  model.OutboxPending,
	}
}

// enqueueOutbox pushes drain jobs for freshly committed outbox rows. Failures
// are tolerated: the retry cron picks up any row whose job never arrived.
func enqueueOutbox(ctx context.Context, dispatcher *worker.Dispatcher, entries []*model.SideEffectOutbox) {
	if dispatcher == nil {
		return
	}
	for _, e := range entries {
		if err := dispatcher.EnqueueSideEffect(ctx, worker.SideEffectJobPayload{OutboxID: e.ID.String()}); err != nil {
			log.Warn().Err(err).Str("outbox_id", e.ID.String()).Msg("failed to enqueue side effect, cron will retry")
		}
	}
}

// scheduleForCron stamps NextRetryAt so the retry cron acts as a safety net
// for rows whose Redis enqueue is lost.
func scheduleForCron(entries []*model.SideEffectOutbox) {
	at := time.Now().Add(2 * time.Minute)
	for _, e := range entries {
		e.NextRetryAt = &at
	}
}

// Actor carries the audit identity through service calls.
type Actor struct {
	UserID    string
	Email     string
	FullName  string
	Role      string
	IPAddress string
	UserAgent string
}

// DisplayName prefers the full name, falling back to the email when the
// token carries no name.
func (a Actor) DisplayName() string {
	if a.FullName != "" {
		return a.FullName
	}
	return a.Email
}

func (a Actor) auditFields() (userID, email, name, ip, agent *string) {
	if a.UserID != "" {
		userID = &a.UserID
	}
	if a.Email != "" {
		email = &a.Email
	}
	if a.FullName != "" {
		name = &a.FullName
	}
	if a.IPAddress != "" {
		ip = &a.IPAddress
	}
	if a.UserAgent != "" {
		agent = &a.UserAgent
	}
	return
}
