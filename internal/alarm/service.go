// Package alarm provides durable, labeled wake-ups backed by the metadata
// store. Because pending alarms are persisted, a retry or watchdog wake-up
// scheduled before a process restart still fires after it: the poll loop
// reloads the alarm table from storage on every tick and never trusts
// in-memory state.
package alarm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pawzhq/pawz-api/internal/store"
)

// Handler is invoked with the label of each fired alarm.
type Handler func(ctx context.Context, label string)

// record is the persisted form of one scheduled alarm.
// PeriodSeconds is zero for one-off alarms.
type record struct {
	Label         string    `json:"label"`
	FireAt        time.Time `json:"fire_at"`
	PeriodSeconds int       `json:"period_seconds,omitempty"`
}

// Service schedules and fires labeled alarms.
type Service struct {
	metadata store.MetadataStore
	handler  Handler
	logger   *slog.Logger
	poll     time.Duration

	mu         sync.Mutex // serializes alarm-table read-modify-writes
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewService creates an alarm service. The handler is called for every fired
// alarm; it must be safe to call from the service's poll goroutine.
func NewService(metadata store.MetadataStore, handler Handler, logger *slog.Logger) *Service {
	return &Service{
		metadata: metadata,
		handler:  handler,
		logger:   logger.With("component", "alarm_service"),
		poll:     5 * time.Second,
	}
}

// ScheduleOnce arms a one-off alarm. Scheduling an already-armed label
// replaces its fire time.
func (s *Service) ScheduleOnce(ctx context.Context, label string, delay time.Duration) error {
	return s.schedule(ctx, record{Label: label, FireAt: time.Now().UTC().Add(delay)})
}

// ScheduleRecurring arms a recurring alarm that fires every period.
func (s *Service) ScheduleRecurring(ctx context.Context, label string, period time.Duration) error {
	return s.schedule(ctx, record{
		Label:         label,
		FireAt:        time.Now().UTC().Add(period),
		PeriodSeconds: int(period / time.Second),
	})
}

// Cancel disarms an alarm. Canceling an unknown label is a no-op.
func (s *Service) Cancel(ctx context.Context, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	alarms, err := s.load(ctx)
	if err != nil {
		return err
	}
	if _, ok := alarms[label]; !ok {
		return nil
	}
	delete(alarms, label)
	return s.save(ctx, alarms)
}

// Start launches the poll loop.
func (s *Service) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancelFunc = cancel

	s.wg.Add(1)
	go s.loop(ctx)
}

// Stop halts the poll loop and waits for it to exit. In-flight handler
// invocations run to completion.
func (s *Service) Stop() {
	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	s.wg.Wait()
}

func (s *Service) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.FireDue(ctx); err != nil {
				s.logger.Error("alarm pass failed", "error", err)
			}
		}
	}
}

// FireDue fires every alarm whose time has come: one-off alarms are removed,
// recurring alarms are re-armed one period ahead. The state change is
// persisted before handlers run so a crash mid-dispatch cannot replay a
// one-off alarm forever (a missed handler call is repaired by the watchdog's
// recurring wake-up instead).
func (s *Service) FireDue(ctx context.Context) error {
	s.mu.Lock()

	alarms, err := s.load(ctx)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	now := time.Now().UTC()
	var due []string
	for label, rec := range alarms {
		if rec.FireAt.After(now) {
			continue
		}
		due = append(due, label)
		if rec.PeriodSeconds > 0 {
			rec.FireAt = now.Add(time.Duration(rec.PeriodSeconds) * time.Second)
			alarms[label] = rec
		} else {
			delete(alarms, label)
		}
	}

	if len(due) > 0 {
		if err := s.save(ctx, alarms); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	s.mu.Unlock()

	for _, label := range due {
		s.logger.Debug("alarm fired", "label", label)
		s.handler(ctx, label)
	}
	return nil
}

func (s *Service) schedule(ctx context.Context, rec record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	alarms, err := s.load(ctx)
	if err != nil {
		return err
	}
	alarms[rec.Label] = rec
	return s.save(ctx, alarms)
}

func (s *Service) load(ctx context.Context) (map[string]record, error) {
	docs, err := s.metadata.Get(ctx, store.KeyAlarms)
	if err != nil {
		return nil, fmt.Errorf("failed to read alarms: %w", err)
	}

	alarms := make(map[string]record)
	if raw, ok := docs[store.KeyAlarms]; ok {
		if err := json.Unmarshal(raw, &alarms); err != nil {
			return nil, fmt.Errorf("failed to decode alarms: %w", err)
		}
	}
	return alarms, nil
}

func (s *Service) save(ctx context.Context, alarms map[string]record) error {
	raw, err := json.Marshal(alarms)
	if err != nil {
		return fmt.Errorf("failed to encode alarms: %w", err)
	}
	if err := s.metadata.Set(ctx, map[string]json.RawMessage{store.KeyAlarms: raw}); err != nil {
		return fmt.Errorf("failed to write alarms: %w", err)
	}
	return nil
}
