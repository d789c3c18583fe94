package sla

import (
	"fmt"
	"time"

	"github.com/bissquit/asset-desk/internal/domain"
)

// Verdict is the compliance classification of one leg.
type Verdict string

// Verdicts.
const (
	VerdictPending  Verdict = "pending"
	VerdictMet      Verdict = "met"
	VerdictBreached Verdict = "breached"
)

// IsValid checks if the verdict is valid.
func (v Verdict) IsValid() bool {
	return v == VerdictPending || v == VerdictMet || v == VerdictBreached
}

// LegResult is the evaluation of one SLA leg of one incident.
type LegResult struct {
	Leg    Leg
	Target Target
	// Reached is false while the milestone has not happened yet.
	Reached   bool
	ReachedAt time.Time
	// Elapsed is the business time accumulated up to the milestone.
	Elapsed time.Duration
	// Running is the business time accumulated so far for a pending leg.
	Running time.Duration
	// Stopped is set on a pending leg of an incident that was closed without
	// reaching the milestone. Running no longer grows.
	Stopped bool
	Verdict Verdict
}

// Overdue reports whether a pending leg is still running and has already used
// up its target.
func (l LegResult) Overdue() bool {
	return l.Verdict == VerdictPending && !l.Stopped && !l.Target.Allows(l.Running)
}

// Overage returns how far the leg is past its target.
func (l LegResult) Overage() time.Duration {
	if l.Reached {
		return l.Target.Overage(l.Elapsed)
	}
	return l.Target.Overage(l.Running)
}

// Result is the evaluation of both SLA legs of one incident.
type Result struct {
	IncidentID  string
	EquipmentID string
	Group       domain.Group
	Response    LegResult
	Resolution  LegResult
	EvaluatedAt time.Time
}

// Legs returns the response and resolution legs.
func (r *Result) Legs() []LegResult {
	return []LegResult{r.Response, r.Resolution}
}

// Breaches returns the number of breached legs.
func (r *Result) Breaches() int {
	n := 0
	for _, l := range r.Legs() {
		if l.Verdict == VerdictBreached {
			n++
		}
	}
	return n
}

// Evaluator computes SLA verdicts for incidents.
// It holds no mutable state and may be shared between goroutines.
type Evaluator struct {
	calendar *Calendar
	targets  *TargetResolver
	now      func() time.Time
	workers  int
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithClock sets the source of the evaluation instant used for pending legs.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) {
		e.now = now
	}
}

// WithWorkers limits how many incidents EvaluateAll processes concurrently.
func WithWorkers(n int) Option {
	return func(e *Evaluator) {
		if n > 0 {
			e.workers = n
		}
	}
}

// NewEvaluator creates an evaluator for the given calendar.
func NewEvaluator(cal *Calendar, opts ...Option) *Evaluator {
	e := &Evaluator{
		calendar: cal,
		targets:  NewTargetResolver(cal),
		now:      time.Now,
		workers:  defaultWorkers,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Calendar returns the business calendar.
func (e *Evaluator) Calendar() *Calendar {
	return e.calendar
}

// Targets returns the target resolver.
func (e *Evaluator) Targets() *TargetResolver {
	return e.targets
}

// Evaluate computes both legs of one incident against its equipment's targets.
func (e *Evaluator) Evaluate(incident *domain.Incident, equipment *domain.Equipment) (*Result, error) {
	return e.evaluateAt(incident, equipment, e.now())
}

func (e *Evaluator) evaluateAt(incident *domain.Incident, equipment *domain.Equipment, now time.Time) (*Result, error) {
	timeline, err := NewTimeline(incident.History)
	if err != nil {
		return nil, fmt.Errorf("evaluate incident %s: %w", incident.ID, err)
	}

	responseIdx, responded := timeline.FirstActiveResponse()
	resolutionIdx, resolved := timeline.Resolution()

	return &Result{
		IncidentID:  incident.ID,
		EquipmentID: equipment.ID,
		Group:       equipment.Group,
		Response: e.evaluateLeg(timeline, responseIdx, responded,
			e.targets.Resolve(LegResponse, equipment.ResponseTime), LegResponse, now),
		Resolution: e.evaluateLeg(timeline, resolutionIdx, resolved,
			e.targets.Resolve(LegResolution, equipment.ResolutionTime), LegResolution, now),
		EvaluatedAt: now,
	}, nil
}

func (e *Evaluator) evaluateLeg(timeline Timeline, idx int, reached bool, target Target, leg Leg, now time.Time) LegResult {
	result := LegResult{
		Leg:    leg,
		Target: target,
	}

	if !reached {
		result.Running = timeline.AccumulateUntil(e.calendar, now)
		result.Stopped = timeline.Finished()
		result.Verdict = VerdictPending
		return result
	}

	result.Reached = true
	result.ReachedAt = timeline[idx].Timestamp
	result.Elapsed = timeline.Accumulate(e.calendar, idx)
	if target.Allows(result.Elapsed) {
		result.Verdict = VerdictMet
	} else {
		result.Verdict = VerdictBreached
	}
	return result
}
