package sla

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/bissquit/asset-desk/internal/domain"
	"golang.org/x/sync/errgroup"
)

const defaultWorkers = 8

// SkipReason explains why an incident was left out of a report.
type SkipReason string

// Skip reasons.
const (
	SkipEquipmentNotFound SkipReason = "equipment_not_found"
	SkipEmptyTimeline     SkipReason = "empty_timeline"
)

// Skipped is an incident that could not be evaluated.
type Skipped struct {
	IncidentID  string
	EquipmentID string
	Reason      SkipReason
}

// Report is the outcome of evaluating a set of incidents.
type Report struct {
	Results     []*Result
	Skipped     []Skipped
	EvaluatedAt time.Time
}

// EvaluateAll evaluates every incident independently. Incidents whose equipment
// is unknown or whose history is empty are reported as skipped; they never abort
// the evaluation of the rest. All pending legs share one evaluation instant.
func (e *Evaluator) EvaluateAll(ctx context.Context, incidents []*domain.Incident, equipment map[string]*domain.Equipment) (*Report, error) {
	start := time.Now()
	now := e.now()

	results := make([]*Result, len(incidents))
	skipped := make([]*Skipped, len(incidents))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, incident := range incidents {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			eq, ok := equipment[incident.EquipmentID]
			if !ok {
				skipped[i] = &Skipped{IncidentID: incident.ID, EquipmentID: incident.EquipmentID, Reason: SkipEquipmentNotFound}
				return nil
			}

			res, err := e.evaluateAt(incident, eq, now)
			if err != nil {
				if !errors.Is(err, ErrEmptyTimeline) {
					return err
				}
				skipped[i] = &Skipped{IncidentID: incident.ID, EquipmentID: incident.EquipmentID, Reason: SkipEmptyTimeline}
				return nil
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{
		Results:     make([]*Result, 0, len(incidents)),
		Skipped:     make([]Skipped, 0),
		EvaluatedAt: now,
	}
	for i := range incidents {
		switch {
		case results[i] != nil:
			report.Results = append(report.Results, results[i])
			recordResult(results[i])
		case skipped[i] != nil:
			report.Skipped = append(report.Skipped, *skipped[i])
			recordSkipped(skipped[i].Reason)
			slog.Warn("incident excluded from sla evaluation",
				"incident_id", skipped[i].IncidentID,
				"equipment_id", skipped[i].EquipmentID,
				"reason", skipped[i].Reason,
			)
		}
	}

	recordEvaluationDuration(time.Since(start))

	return report, nil
}

// SortByBreachSeverity orders results from worst to best: breached incidents
// (more breached legs, then larger overage), then overdue pending, then pending,
// then fully met. Ties keep incident ID order.
func SortByBreachSeverity(results []*Result) {
	slices.SortStableFunc(results, func(a, b *Result) int {
		if c := cmp.Compare(severityTier(a), severityTier(b)); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Breaches(), a.Breaches()); c != 0 {
			return c
		}
		if c := cmp.Compare(totalOverage(b), totalOverage(a)); c != 0 {
			return c
		}
		return cmp.Compare(a.IncidentID, b.IncidentID)
	})
}

func severityTier(r *Result) int {
	pending := false
	overdue := false
	for _, l := range r.Legs() {
		switch {
		case l.Verdict == VerdictBreached:
			return 0
		case l.Overdue():
			overdue = true
		case l.Verdict == VerdictPending:
			pending = true
		}
	}
	switch {
	case overdue:
		return 1
	case pending:
		return 2
	default:
		return 3
	}
}

func totalOverage(r *Result) time.Duration {
	var total time.Duration
	for _, l := range r.Legs() {
		total += l.Overage()
	}
	return total
}
