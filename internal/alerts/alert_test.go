package alerts

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bissquit/asset-desk/internal/domain"
	"github.com/bissquit/asset-desk/internal/sla"
	"github.com/bissquit/asset-desk/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// at returns an instant in the week starting Monday 2024-01-08, UTC.
func at(day, hour, minute int) time.Time {
	return time.Date(2024, 1, 8+day, hour, minute, 0, 0, time.UTC)
}

func entry(status domain.IncidentStatus, ts time.Time) domain.StatusEntry {
	return domain.StatusEntry{Status: status, Timestamp: ts}
}

func testSnapshot() *source.Snapshot {
	assignee := "u1"
	return &source.Snapshot{
		Users: []*domain.User{{ID: "u1", Username: "jlopez", Role: domain.RoleUser}},
		Equipment: []*domain.Equipment{
			{ID: "e1", SerialNumber: "SN-1", Model: "Latitude", ResponseTime: domain.SLAFourHours, ResolutionTime: domain.SLANextDay, Group: domain.GroupHardware},
		},
		Incidents: []*domain.Incident{
			{
				// Response breached (5h > 4h), resolution pending and overdue at Tuesday 10:00.
				ID: "late", EquipmentID: "e1", Title: "No boot", Status: domain.IncidentStatusInProgress,
				AssignedTo: &assignee,
				History: []domain.StatusEntry{
					entry(domain.IncidentStatusOpen, at(0, 9, 0)),
					entry(domain.IncidentStatusInProgress, at(0, 14, 0)),
				},
			},
			{
				ID: "fine", EquipmentID: "e1", Title: "Keyboard", Status: domain.IncidentStatusResolved,
				History: []domain.StatusEntry{
					entry(domain.IncidentStatusOpen, at(1, 9, 0)),
					entry(domain.IncidentStatusInProgress, at(1, 9, 10)),
					entry(domain.IncidentStatusResolved, at(1, 9, 30)),
				},
			},
		},
	}
}

type stubEvaluator struct {
	evaluator *sla.Evaluator
	snap      *source.Snapshot
	err       error
}

func newStubEvaluator(now time.Time) *stubEvaluator {
	return &stubEvaluator{
		evaluator: sla.NewEvaluator(sla.DefaultCalendar(time.UTC), sla.WithClock(func() time.Time { return now })),
		snap:      testSnapshot(),
	}
}

func (s *stubEvaluator) Evaluate(ctx context.Context) (*source.Snapshot, *sla.Report, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	report, err := s.evaluator.EvaluateAll(ctx, s.snap.Incidents, s.snap.EquipmentByID())
	return s.snap, report, err
}

type memoryRepository struct {
	mu      sync.Mutex
	claimed map[Key]bool
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{claimed: make(map[Key]bool)}
}

func (m *memoryRepository) Claim(_ context.Context, key Key) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.claimed[key] {
		return false, nil
	}
	m.claimed[key] = true
	return true, nil
}

func (m *memoryRepository) Release(_ context.Context, key Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.claimed, key)
	return nil
}

type fakeSender struct {
	mu       sync.Mutex
	messages []Message
	err      error
}

func (f *fakeSender) Send(_ context.Context, msg Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msg)
	return nil
}

func TestDetect(t *testing.T) {
	ev := newStubEvaluator(at(1, 10, 0))
	snap, report, err := ev.Evaluate(context.Background())
	require.NoError(t, err)

	alerts := Detect(snap, report, 0)
	require.Len(t, alerts, 2)

	byKind := map[Kind]Alert{}
	for _, a := range alerts {
		assert.Equal(t, "late", a.IncidentID)
		byKind[a.Kind] = a
	}

	breach := byKind[KindBreached]
	assert.Equal(t, sla.LegResponse, breach.Leg)
	assert.Equal(t, 5*time.Hour, breach.Elapsed)
	assert.Equal(t, time.Hour, breach.Overage)
	assert.Equal(t, "jlopez", breach.Assignee)

	overdue := byKind[KindOverdue]
	assert.Equal(t, sla.LegResolution, overdue.Leg)
	assert.Equal(t, 11*time.Hour, overdue.Elapsed)
	assert.Equal(t, 10*time.Hour, overdue.Target)
}

func TestDetect_MaxAge(t *testing.T) {
	// A week later the response breach is old news; the resolution is still overdue.
	ev := newStubEvaluator(at(7, 10, 0))
	snap, report, err := ev.Evaluate(context.Background())
	require.NoError(t, err)

	alerts := Detect(snap, report, 72*time.Hour)
	require.Len(t, alerts, 1)
	assert.Equal(t, KindOverdue, alerts[0].Kind)
}
