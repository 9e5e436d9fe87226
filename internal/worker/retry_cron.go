package worker

// retry_cron.go
// Background goroutine that periodically re-attempts outbox entries stuck in
// status='pending' with a next_retry_at in the past. Covers entries whose
// first drain attempt failed as well as entries enqueued while Redis was
// unreachable (the outbox row exists even when the LPUSH was lost).

import (
	"context"
	"time"

	"github.com/pedrosazl/trust-reclaim-aid/internal/repository"

	"github.com/rs/zerolog/log"
)

const (
	retryTickInterval = 30 * time.Second
	retryBatchSize    = 20
)

// RetryCronConfig holds all dependencies for the retry goroutine.
type RetryCronConfig struct {
	OutboxRepo repository.OutboxRepository
	Worker     *SideEffectWorker
}

// StartRetryCron launches a background goroutine that ticks every 30s,
// queries due outbox entries, and re-applies them. It respects the context
// for graceful shutdown.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				processRetries(ctx, cfg)
			}
		}
	}()
}

func processRetries(ctx context.Context, cfg RetryCronConfig) {
	now := time.Now()
	entries, err := cfg.OutboxRepo.ListPendingRetries(ctx, now, retryBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("retry_cron: failed to query pending retries")
		return
	}

	if len(entries) == 0 {
		return
	}

	log.Info().Int("count", len(entries)).Msg("retry_cron: processing due outbox entries")

	for i := range entries {
		cfg.Worker.ProcessEntry(ctx, &entries[i])
	}
}
