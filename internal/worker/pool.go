package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueSideEffects = "jobs:sideeffects"
	QueueEmail       = "jobs:email"
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueSideEffect pushes an outbox drain job to Redis. The payload carries
// only the outbox row ID; the worker re-reads the row so the DB stays the
// source of truth.
func (d *Dispatcher) EnqueueSideEffect(ctx context.Context, payload interface{}) error {
	return d.enqueue(ctx, QueueSideEffects, "sideeffect", payload)
}

// EnqueueEmail pushes an email job to Redis.
func (d *Dispatcher) EnqueueEmail(ctx context.Context, payload interface{}) error {
	return d.enqueue(ctx, QueueEmail, "email", payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{Type: jobType, Payload: data}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// PoolConfig wires the concrete job handlers consumed by the pool.
type PoolConfig struct {
	RDB              *redis.Client
	NumWorkers       int
	SideEffectWorker *SideEffectWorker
	EmailWorker      *EmailWorker
}

// StartWorkerPool launches NumWorkers goroutines consuming both queues.
// Each goroutine blocks on BRPOP — zero CPU when idle.
func StartWorkerPool(ctx context.Context, cfg PoolConfig) {
	for i := 0; i < cfg.NumWorkers; i++ {
		go runWorker(ctx, cfg, i)
	}
	log.Info().Msgf("worker pool started with %d workers", cfg.NumWorkers)
}

func runWorker(ctx context.Context, cfg PoolConfig, id int) {
	queues := []string{QueueSideEffects, QueueEmail}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop — waits up to 5s then loops to check ctx
			result, err := cfg.RDB.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, cfg, result[0], result[1])
		}
	}
}

func processJob(ctx context.Context, cfg PoolConfig, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}
	switch queue {
	case QueueSideEffects:
		cfg.SideEffectWorker.Process(ctx, job.Payload)
	case QueueEmail:
		cfg.EmailWorker.Process(ctx, job.Payload)
	default:
		log.Warn().Str("queue", queue).Str("type", job.Type).Msg("no handler for queue")
	}
}
