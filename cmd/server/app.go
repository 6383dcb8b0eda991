package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/pawzhq/pawz-api/db/migrations"
	"github.com/pawzhq/pawz-api/internal/alarm"
	"github.com/pawzhq/pawz-api/internal/api"
	"github.com/pawzhq/pawz-api/internal/config"
	"github.com/pawzhq/pawz-api/internal/domain"
	"github.com/pawzhq/pawz-api/internal/events"
	"github.com/pawzhq/pawz-api/internal/platform/gemini"
	"github.com/pawzhq/pawz-api/internal/platform/postgres"
	"github.com/pawzhq/pawz-api/internal/queue"
	"github.com/pawzhq/pawz-api/internal/store"
)

const shutdownTimeout = 15 * time.Second

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	metadata := postgres.NewKVStore(db)
	payloads := postgres.NewPayloadStore(db)

	if err := seedCollections(ctx, metadata, log); err != nil {
		return fmt.Errorf("failed to seed collections: %w", err)
	}

	scorer, err := gemini.NewScorer(ctx, log, cfg.LLM)
	if err != nil {
		return fmt.Errorf("failed to create scorer: %w", err)
	}

	q := queue.New(metadata, payloads, scorer, nil, queueConfig(cfg.Queue), log)

	alarms := alarm.NewService(metadata, q.HandleAlarm, log)
	q.SetAlarms(alarms)

	emitter := events.NewInMemoryEventEmitter(log)
	emitter.RegisterHandler(q)

	// Candidate-collection writes from any path wake the scheduler. The pass
	// is re-entrancy guarded and a no-op pass writes nothing, so this cannot
	// loop. Dispatch is asynchronous because watchers fire inside Set while
	// the writer may hold queue locks.
	metadata.OnChange(func(key string, _, _ json.RawMessage) {
		if key != store.KeyCandidates {
			return
		}
		go func() {
			if err := q.RunSchedulingPass(ctx); err != nil {
				log.Error("change-triggered scheduling pass failed", "error", err)
			}
		}()
	})

	if err := q.Start(ctx); err != nil {
		return fmt.Errorf("failed to start queue: %w", err)
	}
	defer q.Stop()

	alarms.Start()
	defer alarms.Stop()

	router := api.NewRouter(api.RouterDeps{
		Candidates: api.NewCandidateHandler(q, metadata, emitter),
		Jobs:       api.NewJobHandler(metadata, q, scorer),
		Settings:   api.NewSettingsHandler(metadata),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

// openDatabase connects to PostgreSQL and applies pending migrations.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	log.Info("database ready")
	return db, nil
}

// seedCollections writes empty collections and default settings on first
// boot so every later read-modify-write starts from a well-formed document.
func seedCollections(ctx context.Context, metadata store.MetadataStore, log *slog.Logger) error {
	keys := []string{store.KeyCandidates, store.KeyJobs, store.KeySettings}
	existing, err := metadata.Get(ctx, keys...)
	if err != nil {
		return err
	}

	seed := make(map[string]json.RawMessage)
	if _, ok := existing[store.KeyCandidates]; !ok {
		seed[store.KeyCandidates] = json.RawMessage("[]")
	}
	if _, ok := existing[store.KeyJobs]; !ok {
		seed[store.KeyJobs] = json.RawMessage("[]")
	}
	if _, ok := existing[store.KeySettings]; !ok {
		raw, merr := json.Marshal(domain.DefaultSettings())
		if merr != nil {
			return merr
		}
		seed[store.KeySettings] = raw
	}

	if len(seed) == 0 {
		return nil
	}
	log.Info("seeding initial collections", "count", len(seed))
	return metadata.Set(ctx, seed)
}

func queueConfig(cfg config.QueueConfig) queue.Config {
	return queue.Config{
		MaxConcurrent:    cfg.MaxConcurrent,
		MaxRetry:         cfg.MaxRetry,
		ScoreTimeout:     time.Duration(cfg.ScoreTimeoutSeconds) * time.Second,
		StuckThreshold:   time.Duration(cfg.StuckThresholdSeconds) * time.Second,
		RetryDelay:       time.Duration(cfg.RetryDelaySeconds) * time.Second,
		WatchdogInterval: time.Duration(cfg.WatchdogIntervalSeconds) * time.Second,
	}
}
