package sla

import (
	"fmt"
	"strings"
	"time"
)

// FormatDuration renders d as "1d 2h 3m 4s", omitting zero parts.
// Days are 24-hour units. Anything under a second renders as "0s".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		return "N/A"
	}
	if d < time.Second {
		return "0s"
	}

	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second

	parts := make([]string, 0, 4)
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	if seconds > 0 {
		parts = append(parts, fmt.Sprintf("%ds", seconds))
	}
	return strings.Join(parts, " ")
}

// FormatLeg renders the elapsed time of a leg, or "N/A" when it is pending.
func FormatLeg(l LegResult) string {
	if !l.Reached {
		return "N/A"
	}
	return FormatDuration(l.Elapsed)
}

// FormatTarget renders a target duration, or "∞" when unbounded.
func FormatTarget(t Target) string {
	if t.Unbounded {
		return "∞"
	}
	return FormatDuration(t.Duration)
}
