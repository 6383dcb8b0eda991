// Package queue implements the candidate analysis queue: a scheduler that
// admits pending candidates under a bounded concurrency budget, per-candidate
// worker pipelines calling the scoring service, a classified retry policy and
// a watchdog that reclaims work abandoned by dead pipelines. All durable
// state lives in the stores; the queue can be killed and restarted between
// any two operations without losing work.
package queue

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pawzhq/pawz-api/internal/domain"
	"github.com/pawzhq/pawz-api/internal/events"
	"github.com/pawzhq/pawz-api/internal/scoring"
	"github.com/pawzhq/pawz-api/internal/store"
)

// Alarm labels used by the queue.
const (
	// WatchdogAlarmLabel is the recurring wake-up that reclaims stuck
	// candidates and re-triggers scheduling.
	WatchdogAlarmLabel = "pawz_watchdog"

	// retryAlarmPrefix prefixes the one-off wake-up armed for a delayed retry,
	// followed by the candidate ID.
	retryAlarmPrefix = "retry_"
)

// AlarmScheduler is the slice of the alarm service the queue depends on.
type AlarmScheduler interface {
	ScheduleOnce(ctx context.Context, label string, delay time.Duration) error
	ScheduleRecurring(ctx context.Context, label string, period time.Duration) error
}

// Config holds the queue tuning knobs.
type Config struct {
	// MaxConcurrent bounds the number of candidates in processing at once.
	MaxConcurrent int

	// MaxRetry bounds retries of transient failures. A candidate whose every
	// attempt fails transiently reaches failed after MaxRetry+1 attempts.
	MaxRetry int

	// ScoreTimeout bounds one scoring call. Must stay strictly below
	// StuckThreshold so a hung call fails through the retry policy before the
	// watchdog reclaims the candidate.
	ScoreTimeout time.Duration

	// StuckThreshold is how long a candidate may sit in processing before the
	// watchdog considers its pipeline abandoned.
	StuckThreshold time.Duration

	// RetryDelay is the delay before a transiently-failed candidate is
	// rescheduled.
	RetryDelay time.Duration

	// WatchdogInterval is the period of the recurring watchdog wake-up.
	WatchdogInterval time.Duration

	// HeartbeatInterval is the period of the keep-alive progress log emitted
	// while a scoring call is in flight.
	HeartbeatInterval time.Duration
}

// DefaultConfig returns a Config with the standard production values:
// three concurrent analyses, three retries, a two minute scoring timeout
// and a three minute stuck threshold checked every minute.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent:     3,
		MaxRetry:          3,
		ScoreTimeout:      2 * time.Minute,
		StuckThreshold:    3 * time.Minute,
		RetryDelay:        time.Minute,
		WatchdogInterval:  time.Minute,
		HeartbeatInterval: 15 * time.Second,
	}
}

// Queue is the candidate analysis queue: scheduler, worker pipelines, retry
// policy and watchdog over shared persisted state.
//
// The metadata store has whole-collection write semantics and no
// transactions, so every candidate-collection read-modify-write goes through
// a single mutex; the queue is the sole writer of the candidate collection.
// Nothing else is kept in memory between operations: the concurrency budget,
// retry counters and stuck-item detection are all recomputed from persisted
// state, which is what lets the queue survive a process being discarded
// between any two operations.
type Queue struct {
	metadata store.MetadataStore
	payloads store.PayloadStore
	scorer   scoring.Scorer
	alarms   AlarmScheduler
	cfg      Config
	logger   *slog.Logger

	// passRunning guards against overlapping scheduling passes. It protects
	// only the pass itself, nothing else.
	passRunning atomic.Bool

	// mu serializes all candidate-collection read-modify-writes.
	mu sync.Mutex

	// wg tracks in-flight pipelines for clean shutdown.
	wg sync.WaitGroup

	ctx        context.Context
	cancelFunc context.CancelFunc
}

// New creates a Queue. Zero config fields fall back to defaults.
func New(
	metadata store.MetadataStore,
	payloads store.PayloadStore,
	scorer scoring.Scorer,
	alarms AlarmScheduler,
	cfg Config,
	logger *slog.Logger,
) *Queue {
	defaults := DefaultConfig()
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = defaults.MaxConcurrent
	}
	if cfg.MaxRetry < 0 {
		cfg.MaxRetry = defaults.MaxRetry
	}
	if cfg.ScoreTimeout <= 0 {
		cfg.ScoreTimeout = defaults.ScoreTimeout
	}
	if cfg.StuckThreshold <= 0 {
		cfg.StuckThreshold = defaults.StuckThreshold
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaults.RetryDelay
	}
	if cfg.WatchdogInterval <= 0 {
		cfg.WatchdogInterval = defaults.WatchdogInterval
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = defaults.HeartbeatInterval
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Queue{
		metadata:   metadata,
		payloads:   payloads,
		scorer:     scorer,
		alarms:     alarms,
		cfg:        cfg,
		logger:     logger.With("component", "analysis_queue"),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// SetAlarms wires the alarm scheduler. The queue and the alarm service
// reference each other (alarms fire into HandleAlarm), so one side is wired
// after construction. Must be called before Start.
func (q *Queue) SetAlarms(alarms AlarmScheduler) {
	q.alarms = alarms
}

// Start arms the recurring watchdog wake-up, repairs state abandoned by a
// previous process and runs an initial scheduling pass.
func (q *Queue) Start(ctx context.Context) error {
	if err := q.alarms.ScheduleRecurring(ctx, WatchdogAlarmLabel, q.cfg.WatchdogInterval); err != nil {
		return fmt.Errorf("failed to arm watchdog alarm: %w", err)
	}

	if err := q.recoverAbandoned(ctx); err != nil {
		q.logger.Error("startup recovery failed", "error", err)
	}

	if err := q.RunSchedulingPass(ctx); err != nil {
		q.logger.Error("initial scheduling pass failed", "error", err)
	}

	return nil
}

// Stop cancels in-flight pipelines' context and waits for them to drain.
func (q *Queue) Stop() {
	q.cancelFunc()
	q.wg.Wait()
}

// HandleAlarm dispatches fired alarms: the watchdog wake-up runs stuck-item
// reclamation before rescheduling; a retry wake-up just reschedules.
func (q *Queue) HandleAlarm(ctx context.Context, label string) {
	switch {
	case label == WatchdogAlarmLabel:
		if err := q.reclaimStuck(ctx); err != nil {
			q.logger.Error("stuck candidate reclamation failed", "error", err)
		}
		if err := q.RunSchedulingPass(ctx); err != nil {
			q.logger.Error("scheduling pass failed", "error", err)
		}
	case strings.HasPrefix(label, retryAlarmPrefix):
		if err := q.RunSchedulingPass(ctx); err != nil {
			q.logger.Error("scheduling pass failed", "error", err)
		}
	}
}

// HandleEvent reacts to candidate-added events with a scheduling pass. The
// pass runs asynchronously so emitters are never blocked behind in-flight
// admissions.
func (q *Queue) HandleEvent(ctx context.Context, event *events.Event) error {
	if event.Type != events.TypeCandidateAdded {
		return nil
	}

	go func() {
		if err := q.RunSchedulingPass(q.ctx); err != nil {
			q.logger.Error("scheduling pass failed", "error", err)
		}
	}()
	return nil
}

// recoverAbandoned resets every processing candidate back to pending at
// startup. A fresh process has no pipelines, so anything marked processing
// was abandoned by the previous one. Unlike watchdog reclamation this does
// not touch the retry counter: the candidate never actually failed and age
// says nothing here.
func (q *Queue) recoverAbandoned(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	candidates, err := store.LoadCandidates(ctx, q.metadata)
	if err != nil {
		return err
	}

	recovered := 0
	for i := range candidates {
		if candidates[i].Status != domain.CandidateStatusProcessing {
			continue
		}
		candidates[i].Status = domain.CandidateStatusPending
		candidates[i].TimestampProcessing = nil
		recovered++
	}

	if recovered == 0 {
		return nil
	}

	q.logger.Info("recovered abandoned candidates", "count", recovered)
	return store.SaveCandidates(ctx, q.metadata, candidates)
}

// Compile-time interface check.
var _ events.EventHandler = (*Queue)(nil)
