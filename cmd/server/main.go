package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pedrosazl/trust-reclaim-aid/internal/config"
	"github.com/pedrosazl/trust-reclaim-aid/internal/infra"
	"github.com/pedrosazl/trust-reclaim-aid/internal/repository"
	"github.com/pedrosazl/trust-reclaim-aid/internal/router"
	"github.com/pedrosazl/trust-reclaim-aid/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Structured logger — dev: pretty, prod: JSON
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	if err := infra.RunMigrations(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	evidence, err := infra.NewEvidenceStore(cfg.EvidenceStoragePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init evidence storage")
	}

	// Worker pool and retry cron drain the side-effect outbox (notifications,
	// audit logs, emails). Wired here, at the composition root, so the pool
	// has full access to infrastructure dependencies.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mailer := infra.NewMailer(cfg)
	events := infra.NewEventPublisher(rdb)
	dispatcher := worker.NewDispatcher(rdb)
	outboxRepo := repository.NewOutboxRepository(db)

	sideEffects := worker.NewSideEffectWorker(
		outboxRepo,
		repository.NewNotificationRepository(db),
		repository.NewAuditRepository(db),
		dispatcher,
		events,
		rdb,
	)
	worker.StartWorkerPool(ctx, worker.PoolConfig{
		RDB:              rdb,
		NumWorkers:       cfg.WorkerPoolSize,
		SideEffectWorker: sideEffects,
		EmailWorker:      worker.NewEmailWorker(mailer),
	})
	worker.StartRetryCron(ctx, worker.RetryCronConfig{
		OutboxRepo: outboxRepo,
		Worker:     sideEffects,
	})

	lookupCB := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	r := router.New(cfg, db, rdb, lookupCB, evidence)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("trocas backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
