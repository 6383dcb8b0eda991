package queue

import (
	"context"
	"sync"
	"time"

	"github.com/pawzhq/pawz-api/internal/domain"
	"github.com/pawzhq/pawz-api/internal/scoring"
	"github.com/pawzhq/pawz-api/internal/store"
)

// MockScorer is a configurable scoring.Scorer for tests.
type MockScorer struct {
	mu sync.Mutex

	// ScoreFn is called for each Score invocation when set.
	ScoreFn func(ctx context.Context, payload *store.Payload, job *domain.Job, weights *domain.Weights, model string) (*scoring.Result, error)

	// Calls records the candidate payload IDs Score was invoked with.
	Calls []store.Payload
}

// Score implements scoring.Scorer.
func (m *MockScorer) Score(
	ctx context.Context,
	payload *store.Payload,
	job *domain.Job,
	weights *domain.Weights,
	model string,
) (*scoring.Result, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, *payload)
	m.mu.Unlock()

	if m.ScoreFn != nil {
		return m.ScoreFn(ctx, payload, job, weights, model)
	}
	return &scoring.Result{
		CandidateName:  "Test Candidate",
		CandidateTitle: "Test Title",
		Score:          80,
		Verdict:        "Solid match",
		Analysis:       domain.Analysis{Summary: "ok"},
	}, nil
}

// CallCount returns the number of Score invocations so far.
func (m *MockScorer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// MockAlarmScheduler records scheduled alarms for tests.
type MockAlarmScheduler struct {
	mu sync.Mutex

	// OnceLabels records labels passed to ScheduleOnce, in order.
	OnceLabels []string

	// RecurringLabels records labels passed to ScheduleRecurring, in order.
	RecurringLabels []string

	// ScheduleErr, when set, is returned by both scheduling methods.
	ScheduleErr error
}

// ScheduleOnce implements AlarmScheduler.
func (m *MockAlarmScheduler) ScheduleOnce(_ context.Context, label string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ScheduleErr != nil {
		return m.ScheduleErr
	}
	m.OnceLabels = append(m.OnceLabels, label)
	return nil
}

// ScheduleRecurring implements AlarmScheduler.
func (m *MockAlarmScheduler) ScheduleRecurring(_ context.Context, label string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ScheduleErr != nil {
		return m.ScheduleErr
	}
	m.RecurringLabels = append(m.RecurringLabels, label)
	return nil
}

// Once returns a snapshot of the one-off labels scheduled so far.
func (m *MockAlarmScheduler) Once() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.OnceLabels...)
}

// Compile-time interface checks.
var (
	_ scoring.Scorer = (*MockScorer)(nil)
	_ AlarmScheduler = (*MockAlarmScheduler)(nil)
)
