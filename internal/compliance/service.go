// Package compliance exposes SLA reports, recurrence analysis and group work
// queues computed from a snapshot source.
package compliance

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/bissquit/asset-desk/internal/domain"
	"github.com/bissquit/asset-desk/internal/source"
	"github.com/bissquit/asset-desk/internal/sla"
)

// Unassigned is shown in place of the assignee username when there is none.
const Unassigned = "Sin asignar"

// Sort orders for reports.
const (
	SortSeverity = "severity"
	SortIncident = "incident"
)

// ReportQuery narrows a compliance report. Empty fields match everything.
type ReportQuery struct {
	// Verdicts keeps incidents with at least one leg in one of these verdicts.
	Verdicts []sla.Verdict
	Group    *domain.Group
	Sort     string
}

func (q ReportQuery) validate() error {
	for _, v := range q.Verdicts {
		if !v.IsValid() {
			return fmt.Errorf("%w: %s", ErrInvalidVerdict, v)
		}
	}
	if q.Group != nil && !q.Group.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidGroup, *q.Group)
	}
	if q.Sort != "" && q.Sort != SortSeverity && q.Sort != SortIncident {
		return fmt.Errorf("%w: %s", ErrInvalidSort, q.Sort)
	}
	return nil
}

func (q ReportQuery) matches(r *sla.Result) bool {
	if q.Group != nil && r.Group != *q.Group {
		return false
	}
	if len(q.Verdicts) == 0 {
		return true
	}
	for _, l := range r.Legs() {
		if slices.Contains(q.Verdicts, l.Verdict) {
			return true
		}
	}
	return false
}

// Service computes compliance views.
type Service struct {
	reader    source.Reader
	evaluator *sla.Evaluator
}

// NewService creates a new compliance service.
func NewService(reader source.Reader, evaluator *sla.Evaluator) *Service {
	return &Service{
		reader:    reader,
		evaluator: evaluator,
	}
}

// Evaluate reads a snapshot and evaluates every incident in it.
func (s *Service) Evaluate(ctx context.Context) (*source.Snapshot, *sla.Report, error) {
	snap, err := s.reader.Snapshot(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("read snapshot: %w", err)
	}

	report, err := s.evaluator.EvaluateAll(ctx, snap.Incidents, snap.EquipmentByID())
	if err != nil {
		return nil, nil, fmt.Errorf("evaluate incidents: %w", err)
	}
	return snap, report, nil
}

// Report returns the compliance report, worst offenders first unless
// SortIncident is requested.
func (s *Service) Report(ctx context.Context, query ReportQuery) (*ReportView, error) {
	if err := query.validate(); err != nil {
		return nil, err
	}

	snap, report, err := s.Evaluate(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]*sla.Result, 0, len(report.Results))
	for _, r := range report.Results {
		if query.matches(r) {
			results = append(results, r)
		}
	}

	if query.Sort == SortIncident {
		slices.SortFunc(results, func(a, b *sla.Result) int {
			return cmp.Compare(a.IncidentID, b.IncidentID)
		})
	} else {
		sla.SortByBreachSeverity(results)
	}

	view := &ReportView{
		Results:     make([]ResultView, 0, len(results)),
		Skipped:     make([]SkippedView, 0, len(report.Skipped)),
		Summary:     newSummary(results),
		EvaluatedAt: report.EvaluatedAt,
		SourceAt:    snap.ReadAt,
	}
	for _, r := range results {
		view.Results = append(view.Results, NewResultView(r))
	}
	for _, sk := range report.Skipped {
		view.Skipped = append(view.Skipped, SkippedView{
			IncidentID:  sk.IncidentID,
			EquipmentID: sk.EquipmentID,
			Reason:      sk.Reason,
		})
	}
	return view, nil
}

// IncidentResult evaluates a single incident.
func (s *Service) IncidentResult(ctx context.Context, incidentID string) (*ResultView, error) {
	snap, err := s.reader.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	incident, ok := snap.Incident(incidentID)
	if !ok {
		return nil, ErrIncidentNotFound
	}
	equipment, ok := snap.EquipmentByID()[incident.EquipmentID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEquipmentNotFound, incident.EquipmentID)
	}

	result, err := s.evaluator.Evaluate(incident, equipment)
	if err != nil {
		return nil, err
	}
	view := NewResultView(result)
	return &view, nil
}

// Recurrence ranks equipment by number of incidents, most first.
// Equipment without incidents is included. A limit of 0 returns everything.
func (s *Service) Recurrence(ctx context.Context, limit int) ([]RecurrenceEntry, error) {
	snap, err := s.reader.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return Recurrence(snap, limit), nil
}

// Recurrence ranks the equipment of snap by incident count.
func Recurrence(snap *source.Snapshot, limit int) []RecurrenceEntry {
	counts := make(map[string]int, len(snap.Equipment))
	for _, inc := range snap.Incidents {
		counts[inc.EquipmentID]++
	}

	entries := make([]RecurrenceEntry, 0, len(snap.Equipment))
	for _, e := range snap.Equipment {
		n := counts[e.ID]
		entries = append(entries, RecurrenceEntry{
			EquipmentID:   e.ID,
			SerialNumber:  e.SerialNumber,
			Model:         e.Model,
			Manufacturer:  e.Manufacturer,
			Group:         e.Group,
			IncidentCount: n,
			Repeat:        n > 1,
		})
	}

	slices.SortStableFunc(entries, func(a, b RecurrenceEntry) int {
		if c := cmp.Compare(b.IncidentCount, a.IncidentCount); c != 0 {
			return c
		}
		return cmp.Compare(a.SerialNumber, b.SerialNumber)
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// GroupQueue lists the incidents on equipment owned by group, newest first,
// with their SLA evaluation. Incidents that cannot be evaluated are listed
// without one.
func (s *Service) GroupQueue(ctx context.Context, group domain.Group, openOnly bool) ([]QueueItem, error) {
	if !group.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidGroup, group)
	}

	snap, report, err := s.Evaluate(ctx)
	if err != nil {
		return nil, err
	}

	equipment := snap.EquipmentByID()
	people := snap.UsersByID()
	results := make(map[string]*sla.Result, len(report.Results))
	for _, r := range report.Results {
		results[r.IncidentID] = r
	}

	items := make([]QueueItem, 0)
	for _, inc := range snap.Incidents {
		eq, ok := equipment[inc.EquipmentID]
		if !ok || eq.Group != group {
			continue
		}
		if openOnly && !inc.Status.IsOpen() {
			continue
		}

		item := QueueItem{
			IncidentID:   inc.ID,
			Title:        inc.Title,
			Status:       inc.Status,
			EquipmentID:  eq.ID,
			SerialNumber: eq.SerialNumber,
			Model:        eq.Model,
			AssignedTo:   inc.AssignedTo,
			Assignee:     Unassigned,
			OpenedAt:     inc.OpenedAt(),
		}
		if inc.AssignedTo != nil {
			if u, ok := people[*inc.AssignedTo]; ok && u.Username != "" {
				item.Assignee = u.Username
			}
		}
		if r, ok := results[inc.ID]; ok {
			view := NewResultView(r)
			item.SLA = &view
		}
		items = append(items, item)
	}

	slices.SortStableFunc(items, func(a, b QueueItem) int {
		if c := b.OpenedAt.Compare(a.OpenedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.IncidentID, b.IncidentID)
	})
	return items, nil
}
