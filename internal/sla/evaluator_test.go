package sla

import (
	"testing"
	"time"

	"github.com/bissquit/asset-desk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEquipment(response, resolution string) *domain.Equipment {
	return &domain.Equipment{
		ID:             "equip-1",
		SerialNumber:   "SN-001",
		Type:           domain.EquipmentTypeLaptop,
		ResponseTime:   response,
		ResolutionTime: resolution,
		Group:          domain.GroupHardware,
	}
}

func testIncident(entries ...domain.StatusEntry) *domain.Incident {
	return &domain.Incident{
		ID:          "inc-1",
		EquipmentID: "equip-1",
		Title:       "Pantalla rota",
		Status:      entries[len(entries)-1].Status,
		History:     entries,
	}
}

func fixedClock(t time.Time) Option {
	return WithClock(func() time.Time { return t })
}

func TestEvaluator_Evaluate(t *testing.T) {
	cal := DefaultCalendar(time.UTC)
	ms := time.Millisecond

	tests := []struct {
		name              string
		incident          *domain.Incident
		equipment         *domain.Equipment
		responseVerdict   Verdict
		responseElapsed   time.Duration
		resolutionVerdict Verdict
		resolutionElapsed time.Duration
		resolutionReached bool
	}{
		{
			name: "response breached on a single working day",
			incident: testIncident(
				entry(domain.IncidentStatusOpen, at(1, 9, 0)),
				entry(domain.IncidentStatusAssigned, at(1, 10, 0)),
				entry(domain.IncidentStatusInProgress, at(1, 14, 0)),
			),
			equipment:         testEquipment(domain.SLAFourHours, domain.SLAEightHours),
			responseVerdict:   VerdictBreached,
			responseElapsed:   5 * time.Hour,
			resolutionVerdict: VerdictPending,
		},
		{
			name: "pause over weekend",
			incident: testIncident(
				entry(domain.IncidentStatusOpen, at(5, 17, 30)),
				entry(domain.IncidentStatusPendingCustomer, at(5, 17, 45)),
				entry(domain.IncidentStatusInProgress, at(8, 8, 15)),
			),
			equipment:         testEquipment(domain.SLAOneHour, domain.SLANextDay),
			responseVerdict:   VerdictMet,
			responseElapsed:   15 * time.Minute,
			resolutionVerdict: VerdictPending,
		},
		{
			name: "next business day at the boundary",
			incident: testIncident(
				entry(domain.IncidentStatusOpen, at(1, 8, 0)),
				entry(domain.IncidentStatusResolved, at(1, 18, 0)),
			),
			equipment:         testEquipment(domain.SLANextDay, domain.SLANextDay),
			responseVerdict:   VerdictMet,
			responseElapsed:   10 * time.Hour,
			resolutionVerdict: VerdictMet,
			resolutionElapsed: 10 * time.Hour,
			resolutionReached: true,
		},
		{
			name: "next business day one millisecond late",
			incident: testIncident(
				entry(domain.IncidentStatusOpen, at(1, 8, 0)),
				entry(domain.IncidentStatusResolved, at(2, 8, 0).Add(ms)),
			),
			equipment:         testEquipment(domain.SLANextDay, domain.SLANextDay),
			responseVerdict:   VerdictBreached,
			responseElapsed:   10*time.Hour + ms,
			resolutionVerdict: VerdictBreached,
			resolutionElapsed: 10*time.Hour + ms,
			resolutionReached: true,
		},
		{
			name: "closed without resolution keeps resolution pending",
			incident: testIncident(
				entry(domain.IncidentStatusOpen, at(1, 9, 0)),
				entry(domain.IncidentStatusClosed, at(1, 10, 0)),
			),
			equipment:         testEquipment(domain.SLATwoHours, domain.SLATwoHours),
			responseVerdict:   VerdictMet,
			responseElapsed:   1 * time.Hour,
			resolutionVerdict: VerdictPending,
		},
		{
			name: "unknown category is never breached",
			incident: testIncident(
				entry(domain.IncidentStatusOpen, at(1, 8, 0)),
				entry(domain.IncidentStatusInProgress, at(3, 8, 0)),
				entry(domain.IncidentStatusResolved, at(5, 8, 0)),
			),
			equipment:         testEquipment("24horas", "72horas"),
			responseVerdict:   VerdictMet,
			responseElapsed:   20 * time.Hour,
			resolutionVerdict: VerdictMet,
			resolutionElapsed: 40 * time.Hour,
			resolutionReached: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := NewEvaluator(cal, fixedClock(at(12, 12, 0)))

			res, err := ev.Evaluate(tt.incident, tt.equipment)
			require.NoError(t, err)

			assert.Equal(t, tt.incident.ID, res.IncidentID)
			assert.Equal(t, tt.equipment.ID, res.EquipmentID)
			assert.Equal(t, tt.equipment.Group, res.Group)

			assert.Equal(t, LegResponse, res.Response.Leg)
			assert.Equal(t, tt.responseVerdict, res.Response.Verdict)
			assert.Equal(t, tt.responseElapsed, res.Response.Elapsed)

			assert.Equal(t, LegResolution, res.Resolution.Leg)
			assert.Equal(t, tt.resolutionVerdict, res.Resolution.Verdict)
			assert.Equal(t, tt.resolutionReached, res.Resolution.Reached)
			assert.Equal(t, tt.resolutionElapsed, res.Resolution.Elapsed)
		})
	}
}

func TestEvaluator_Evaluate_NoActiveResponseIsPending(t *testing.T) {
	now := at(1, 12, 0)
	ev := NewEvaluator(DefaultCalendar(time.UTC), fixedClock(now))

	incident := testIncident(
		entry(domain.IncidentStatusOpen, at(1, 9, 0)),
		entry(domain.IncidentStatusAssigned, at(1, 9, 30)),
	)

	res, err := ev.Evaluate(incident, testEquipment(domain.SLAOneHour, domain.SLAFourHours))
	require.NoError(t, err)

	assert.Equal(t, VerdictPending, res.Response.Verdict)
	assert.False(t, res.Response.Reached)
	assert.Equal(t, time.Duration(0), res.Response.Elapsed)
	assert.Equal(t, 3*time.Hour, res.Response.Running)
	assert.True(t, res.Response.Overdue())
	assert.Equal(t, 2*time.Hour, res.Response.Overage())

	assert.Equal(t, VerdictPending, res.Resolution.Verdict)
	assert.False(t, res.Resolution.Overdue())
	assert.Equal(t, now, res.EvaluatedAt)
	assert.Zero(t, res.Breaches())
}

func TestEvaluator_Evaluate_PausedIncidentStopsRunning(t *testing.T) {
	ev := NewEvaluator(DefaultCalendar(time.UTC), fixedClock(at(10, 12, 0)))

	incident := testIncident(
		entry(domain.IncidentStatusOpen, at(1, 9, 0)),
		entry(domain.IncidentStatusAwaitingParts, at(1, 9, 20)),
	)

	res, err := ev.Evaluate(incident, testEquipment(domain.SLAOneHour, domain.SLATwoHours))
	require.NoError(t, err)

	assert.Equal(t, 20*time.Minute, res.Response.Running)
	assert.False(t, res.Response.Overdue())
}

func TestEvaluator_Evaluate_ClosedWithoutResolutionStopsRunning(t *testing.T) {
	tests := []struct {
		name        string
		closedAt    time.Time
		wantRunning time.Duration
	}{
		{name: "closed within target", closedAt: at(1, 10, 0), wantRunning: 1 * time.Hour},
		{name: "closed after target", closedAt: at(2, 9, 0), wantRunning: 10 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := NewEvaluator(DefaultCalendar(time.UTC), fixedClock(at(12, 12, 0)))

			incident := testIncident(
				entry(domain.IncidentStatusOpen, at(1, 9, 0)),
				entry(domain.IncidentStatusClosed, tt.closedAt),
			)

			res, err := ev.Evaluate(incident, testEquipment(domain.SLATwoHours, domain.SLATwoHours))
			require.NoError(t, err)

			assert.Equal(t, VerdictPending, res.Resolution.Verdict)
			assert.True(t, res.Resolution.Stopped)
			assert.Equal(t, tt.wantRunning, res.Resolution.Running)
			assert.False(t, res.Resolution.Overdue())
		})
	}
}

func TestEvaluator_Evaluate_ReopenedIncidentRunsAgain(t *testing.T) {
	ev := NewEvaluator(DefaultCalendar(time.UTC), fixedClock(at(1, 15, 0)))

	incident := testIncident(
		entry(domain.IncidentStatusOpen, at(1, 9, 0)),
		entry(domain.IncidentStatusClosed, at(1, 10, 0)),
		entry(domain.IncidentStatusOpen, at(1, 11, 0)),
	)

	res, err := ev.Evaluate(incident, testEquipment(domain.SLATwoHours, domain.SLATwoHours))
	require.NoError(t, err)

	assert.False(t, res.Resolution.Stopped)
	assert.Equal(t, 6*time.Hour, res.Resolution.Running)
	assert.True(t, res.Resolution.Overdue())
}

func TestEvaluator_Evaluate_EmptyHistory(t *testing.T) {
	ev := NewEvaluator(DefaultCalendar(time.UTC))

	incident := &domain.Incident{ID: "inc-empty", EquipmentID: "equip-1"}
	_, err := ev.Evaluate(incident, testEquipment(domain.SLAOneHour, domain.SLATwoHours))
	assert.ErrorIs(t, err, ErrEmptyTimeline)
}

func TestEvaluator_Evaluate_ResolvedBeforeResponseStatusCountsAsResponse(t *testing.T) {
	ev := NewEvaluator(DefaultCalendar(time.UTC))

	incident := testIncident(
		entry(domain.IncidentStatusOpen, at(1, 9, 0)),
		entry(domain.IncidentStatusResolved, at(1, 10, 30)),
	)

	res, err := ev.Evaluate(incident, testEquipment(domain.SLAOneHour, domain.SLATwoHours))
	require.NoError(t, err)

	assert.Equal(t, VerdictBreached, res.Response.Verdict)
	assert.Equal(t, at(1, 10, 30), res.Response.ReachedAt)
	assert.Equal(t, VerdictMet, res.Resolution.Verdict)
	assert.Equal(t, 1, res.Breaches())
}
