package sla

import (
	"log/slog"
	"time"

	"github.com/bissquit/asset-desk/internal/domain"
)

// Leg is one of the two tracked SLA milestones.
type Leg string

// SLA legs.
const (
	LegResponse   Leg = "response"
	LegResolution Leg = "resolution"
)

// Target is a resolved service-level target.
// An unbounded target can never be breached.
type Target struct {
	Category  string
	Duration  time.Duration
	Unbounded bool
}

// Allows reports whether elapsed business time complies with the target.
// The boundary is inclusive.
func (t Target) Allows(elapsed time.Duration) bool {
	return t.Unbounded || elapsed <= t.Duration
}

// Overage returns how far elapsed exceeds the target, or 0.
func (t Target) Overage(elapsed time.Duration) time.Duration {
	if t.Unbounded || elapsed <= t.Duration {
		return 0
	}
	return elapsed - t.Duration
}

// TargetResolver maps SLA category strings to durations.
type TargetResolver struct {
	response   map[string]time.Duration
	resolution map[string]time.Duration
}

// NewTargetResolver builds the category tables; NBD is one business day of cal.
func NewTargetResolver(cal *Calendar) *TargetResolver {
	day := cal.DayLength()
	return &TargetResolver{
		response: map[string]time.Duration{
			domain.SLAOneHour:    1 * time.Hour,
			domain.SLATwoHours:   2 * time.Hour,
			domain.SLAFourHours:  4 * time.Hour,
			domain.SLAEightHours: 8 * time.Hour,
			domain.SLANextDay:    day,
		},
		// 1hora is not offered for resolution but older records carry it.
		resolution: map[string]time.Duration{
			domain.SLAOneHour:    1 * time.Hour,
			domain.SLATwoHours:   2 * time.Hour,
			domain.SLAFourHours:  4 * time.Hour,
			domain.SLAEightHours: 8 * time.Hour,
			domain.SLANextDay:    day,
		},
	}
}

// Resolve returns the target for a category of the given leg.
// Unrecognized categories resolve to an unbounded target.
func (r *TargetResolver) Resolve(leg Leg, category string) Target {
	d, ok := r.table(leg)[category]
	if !ok {
		slog.Debug("unknown sla category, target is unbounded", "leg", leg, "category", category)
		return Target{Category: category, Unbounded: true}
	}
	return Target{Category: category, Duration: d}
}

// IsKnown reports whether category is a valid category for leg.
func (r *TargetResolver) IsKnown(leg Leg, category string) bool {
	_, ok := r.table(leg)[category]
	return ok
}

func (r *TargetResolver) table(leg Leg) map[string]time.Duration {
	if leg == LegResolution {
		return r.resolution
	}
	return r.response
}

// ResponseCategories lists the valid response categories.
func ResponseCategories() []string {
	return []string{domain.SLAOneHour, domain.SLATwoHours, domain.SLAFourHours, domain.SLAEightHours, domain.SLANextDay}
}

// ResolutionCategories lists the resolution categories accepted for new equipment.
func ResolutionCategories() []string {
	return []string{domain.SLATwoHours, domain.SLAFourHours, domain.SLAEightHours, domain.SLANextDay}
}
