package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in       time.Duration
		expected string
	}{
		{-time.Second, "N/A"},
		{0, "0s"},
		{500 * time.Millisecond, "0s"},
		{45 * time.Second, "45s"},
		{15 * time.Minute, "15m"},
		{5*time.Hour + 30*time.Second, "5h 30s"},
		{26*time.Hour + 3*time.Minute + 4*time.Second, "1d 2h 3m 4s"},
		{48 * time.Hour, "2d"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatDuration(tt.in))
		})
	}
}

func TestFormatLegAndTarget(t *testing.T) {
	assert.Equal(t, "N/A", FormatLeg(LegResult{Verdict: VerdictPending, Running: time.Hour}))
	assert.Equal(t, "1h", FormatLeg(LegResult{Reached: true, Elapsed: time.Hour}))

	assert.Equal(t, "∞", FormatTarget(Target{Unbounded: true}))
	assert.Equal(t, "10h", FormatTarget(Target{Duration: 10 * time.Hour}))
}
