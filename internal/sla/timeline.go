package sla

import (
	"errors"
	"time"

	"github.com/bissquit/asset-desk/internal/domain"
)

// ErrEmptyTimeline is returned when an incident has no history entries.
var ErrEmptyTimeline = errors.New("incident history is empty")

// Timeline is the ordered status history of one incident.
// Entries are kept in append order and never re-sorted.
type Timeline []domain.StatusEntry

// NewTimeline wraps an incident history, rejecting an empty one.
func NewTimeline(entries []domain.StatusEntry) (Timeline, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyTimeline
	}
	return Timeline(entries), nil
}

// FirstIndex returns the index of the leftmost entry whose status satisfies match.
func (t Timeline) FirstIndex(match func(domain.IncidentStatus) bool) (int, bool) {
	for i, e := range t {
		if match(e.Status) {
			return i, true
		}
	}
	return -1, false
}

// FirstActiveResponse returns the index of the first entry showing a response.
func (t Timeline) FirstActiveResponse() (int, bool) {
	return t.FirstIndex(domain.IncidentStatus.IsActiveResponse)
}

// Resolution returns the index of the first Resuelta entry.
func (t Timeline) Resolution() (int, bool) {
	return t.FirstIndex(domain.IncidentStatus.IsResolution)
}

// Accumulate sums business time from the first entry up to the entry at index upto.
// An interval counts only when the status at its start is not paused.
func (t Timeline) Accumulate(cal *Calendar, upto int) time.Duration {
	if upto >= len(t) {
		upto = len(t) - 1
	}

	var total time.Duration
	for i := 1; i <= upto; i++ {
		prev := t[i-1]
		if prev.Status.IsPaused() {
			continue
		}
		total += cal.BusinessDuration(prev.Timestamp, t[i].Timestamp)
	}
	return total
}

// AccumulateUntil sums business time over the whole timeline and then from the
// last entry up to now, following the same pause rule. The clock does not run
// past a last entry that finished the incident.
func (t Timeline) AccumulateUntil(cal *Calendar, now time.Time) time.Duration {
	if len(t) == 0 {
		return 0
	}

	total := t.Accumulate(cal, len(t)-1)
	last := t[len(t)-1]
	if !last.Status.IsPaused() && last.Status.IsOpen() {
		total += cal.BusinessDuration(last.Timestamp, now)
	}
	return total
}

// Finished reports whether the latest entry closed the incident.
func (t Timeline) Finished() bool {
	return len(t) > 0 && !t[len(t)-1].Status.IsOpen()
}
