package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"haulcheck/internal/approval"
	approvalstore "haulcheck/internal/approval/store"
	"haulcheck/internal/audit"
	"haulcheck/internal/events"
	"haulcheck/internal/platform/config"
	"haulcheck/internal/platform/httpserver"
	"haulcheck/internal/platform/logger"
	platformredis "haulcheck/internal/platform/redis"
	"haulcheck/internal/storage"
	transport "haulcheck/internal/transport/http"
	"haulcheck/internal/verification"
	"haulcheck/internal/verification/extractor"
	"haulcheck/internal/verification/metrics"
	"haulcheck/internal/verification/verifier"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	aggregates, cleanup, err := buildApprovalStore(cfg, log)
	if err != nil {
		log.Error("approval store init failed", "error", err.Error())
		os.Exit(1)
	}
	defer cleanup()

	approvals, err := approval.NewStateMachine(aggregates, approval.WithLogger(log))
	if err != nil {
		log.Error("state machine init failed", "error", err.Error())
		os.Exit(1)
	}

	entities := storage.NewInMemoryEntityStore()
	storage.SeedDemoEntities(entities)

	auditInbox := make(chan audit.Event, 256)
	auditStore := audit.NewMemoryStore()
	auditor := audit.NewPublisher(auditInbox, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := audit.NewWorker(auditStore, auditInbox, log).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit worker stopped", "error", err.Error())
		}
	}()

	publisher := buildPublisher(cfg, log)
	defer publisher.Close()

	engineMetrics := metrics.New()

	svc, err := verification.NewService(
		extractor.NewTesseract(extractor.WithLanguages(cfg.OCRLanguages...)),
		buildVerifier(cfg),
		entities,
		approvals,
		verification.WithAudit(auditor),
		verification.WithMetrics(engineMetrics),
		verification.WithLogger(log),
		verification.WithSignalTimeout(cfg.SignalTimeout),
	)
	if err != nil {
		log.Error("verification service init failed", "error", err.Error())
		os.Exit(1)
	}

	batch, err := verification.NewCoordinator(svc,
		verification.WithWorkers(cfg.BatchWorkers),
		verification.WithBatchLogger(log),
	)
	if err != nil {
		log.Error("batch coordinator init failed", "error", err.Error())
		os.Exit(1)
	}

	handler := transport.NewHandler(svc, batch, approvals, publisher, auditor, log)
	srv := httpserver.New(cfg.Addr, transport.NewRouter(handler))

	log.Info("starting haulcheck", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err.Error())
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err.Error())
	}
}

// buildApprovalStore picks the aggregate store: Postgres when a DSN is set,
// then Redis, then in-memory.
func buildApprovalStore(cfg config.Config, log *slog.Logger) (approval.Store, func(), error) {
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, nil, err
		}
		log.Info("using postgres approval store")
		return approvalstore.NewPostgres(db), func() { db.Close() }, nil
	}

	if cfg.RedisURL != "" {
		client, err := platformredis.New(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		log.Info("using redis approval store")
		return approvalstore.NewRedis(client.Client), func() { client.Close() }, nil
	}

	log.Info("using in-memory approval store")
	return approvalstore.NewMemory(), func() {}, nil
}

func buildVerifier(cfg config.Config) verification.IdentityVerifier {
	if cfg.VerifierBaseURL != "" {
		client := verifier.NewClient(cfg.VerifierBaseURL, cfg.VerifierAPIKey)
		return verifier.NewBreaker(client)
	}
	// No provider configured: deterministic mock, useful for local runs.
	return verifier.Mock{Latency: 50 * time.Millisecond, Valid: true}
}

func buildPublisher(cfg config.Config, log *slog.Logger) events.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		return events.NoopPublisher{}
	}
	publisher, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	if err != nil {
		log.Warn("kafka publisher init failed, events disabled", "error", err.Error())
		return events.NoopPublisher{}
	}
	return publisher
}
