// Package sla computes service-level compliance of incidents in business time.
package sla

import (
	"fmt"
	"time"
)

// Clock is a wall-clock time of day.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses an "HH:MM" time of day.
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return Clock{}, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

func (c Clock) offset() time.Duration {
	return time.Duration(c.Hour)*time.Hour + time.Duration(c.Minute)*time.Minute
}

// Default business window.
var (
	DefaultDayStart = Clock{Hour: 8}
	DefaultDayEnd   = Clock{Hour: 18}
)

// CalendarConfig describes a weekly working schedule.
type CalendarConfig struct {
	Location *time.Location
	DayStart Clock
	DayEnd   Clock
	Workdays []time.Weekday
}

// Calendar measures elapsed working time under a fixed weekly schedule.
// All instants are interpreted in a single location.
// A Calendar is immutable and safe for concurrent use.
type Calendar struct {
	loc      *time.Location
	dayStart Clock
	dayEnd   Clock
	workdays [7]bool
}

// NewCalendar creates a calendar from config.
// Zero values fall back to Monday-Friday 08:00-18:00 UTC.
func NewCalendar(cfg CalendarConfig) (*Calendar, error) {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.DayStart == (Clock{}) && cfg.DayEnd == (Clock{}) {
		cfg.DayStart = DefaultDayStart
		cfg.DayEnd = DefaultDayEnd
	}
	if cfg.DayEnd.offset() <= cfg.DayStart.offset() || cfg.DayEnd.offset() > 24*time.Hour {
		return nil, fmt.Errorf("invalid business window %s-%s", cfg.DayStart, cfg.DayEnd)
	}
	if len(cfg.Workdays) == 0 {
		cfg.Workdays = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}
	}

	c := &Calendar{
		loc:      cfg.Location,
		dayStart: cfg.DayStart,
		dayEnd:   cfg.DayEnd,
	}
	for _, d := range cfg.Workdays {
		c.workdays[d] = true
	}
	return c, nil
}

// DefaultCalendar returns the Monday-Friday 08:00-18:00 calendar in loc.
func DefaultCalendar(loc *time.Location) *Calendar {
	c, err := NewCalendar(CalendarConfig{Location: loc})
	if err != nil {
		panic(err)
	}
	return c
}

// Location returns the time zone all instants are interpreted in.
func (c *Calendar) Location() *time.Location {
	return c.loc
}

// DayLength returns the length of one full business day.
func (c *Calendar) DayLength() time.Duration {
	return c.dayEnd.offset() - c.dayStart.offset()
}

// IsWorkday reports whether t falls on a working day.
func (c *Calendar) IsWorkday(t time.Time) bool {
	return c.workdays[t.In(c.loc).Weekday()]
}

// BusinessDuration returns the working time elapsed between start and end.
// Returns 0 when end is not after start.
func (c *Calendar) BusinessDuration(start, end time.Time) time.Duration {
	if !end.After(start) {
		return 0
	}

	start = start.In(c.loc)
	end = end.In(c.loc)

	var total time.Duration
	y, m, d := start.Date()
	for day := time.Date(y, m, d, 0, 0, 0, 0, c.loc); day.Before(end); day = time.Date(y, m, d+1, 0, 0, 0, 0, c.loc) {
		y, m, d = day.Date()
		if !c.workdays[day.Weekday()] {
			continue
		}

		// time.Date keeps wall-clock bounds correct across DST changes.
		windowStart := time.Date(y, m, d, c.dayStart.Hour, c.dayStart.Minute, 0, 0, c.loc)
		windowEnd := time.Date(y, m, d, c.dayEnd.Hour, c.dayEnd.Minute, 0, 0, c.loc)

		lo := laterOf(start, windowStart)
		hi := earlierOf(end, windowEnd)
		if hi.After(lo) {
			total += hi.Sub(lo)
		}
	}
	return total
}

func laterOf(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earlierOf(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
