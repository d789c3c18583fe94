package compliance

import (
	"time"

	"github.com/bissquit/asset-desk/internal/domain"
	"github.com/bissquit/asset-desk/internal/sla"
)

var verdictLabels = map[sla.Verdict]string{
	sla.VerdictPending:  "Pendiente",
	sla.VerdictMet:      "Cumplido",
	sla.VerdictBreached: "Incumplido",
}

// LegView is the JSON form of one SLA leg. TargetSeconds is nil for an
// unbounded target; ReachedAt and ElapsedSeconds are nil while pending.
type LegView struct {
	Category       string      `json:"category"`
	TargetSeconds  *int64      `json:"target_seconds"`
	Target         string      `json:"target"`
	Verdict        sla.Verdict `json:"verdict"`
	Label          string      `json:"label"`
	ReachedAt      *time.Time  `json:"reached_at"`
	ElapsedSeconds *int64      `json:"elapsed_seconds"`
	Elapsed        string      `json:"elapsed"`
	RunningSeconds int64       `json:"running_seconds"`
	Overdue        bool        `json:"overdue"`
	Stopped        bool        `json:"stopped"`
	OverageSeconds int64       `json:"overage_seconds"`
}

// NewLegView converts a leg result.
func NewLegView(l sla.LegResult) LegView {
	v := LegView{
		Category:       l.Target.Category,
		Target:         sla.FormatTarget(l.Target),
		Verdict:        l.Verdict,
		Label:          verdictLabels[l.Verdict],
		Elapsed:        sla.FormatLeg(l),
		RunningSeconds: int64(l.Running / time.Second),
		Overdue:        l.Overdue(),
		Stopped:        l.Stopped,
		OverageSeconds: int64(l.Overage() / time.Second),
	}
	if !l.Target.Unbounded {
		secs := int64(l.Target.Duration / time.Second)
		v.TargetSeconds = &secs
	}
	if l.Reached {
		at := l.ReachedAt
		secs := int64(l.Elapsed / time.Second)
		v.ReachedAt = &at
		v.ElapsedSeconds = &secs
	}
	return v
}

// ResultView is the JSON form of the evaluation of one incident.
type ResultView struct {
	IncidentID  string       `json:"incident_id"`
	EquipmentID string       `json:"equipment_id"`
	Group       domain.Group `json:"group"`
	Response    LegView      `json:"response"`
	Resolution  LegView      `json:"resolution"`
	Breaches    int          `json:"breaches"`
	EvaluatedAt time.Time    `json:"evaluated_at"`
}

// NewResultView converts an incident result.
func NewResultView(r *sla.Result) ResultView {
	return ResultView{
		IncidentID:  r.IncidentID,
		EquipmentID: r.EquipmentID,
		Group:       r.Group,
		Response:    NewLegView(r.Response),
		Resolution:  NewLegView(r.Resolution),
		Breaches:    r.Breaches(),
		EvaluatedAt: r.EvaluatedAt,
	}
}

// SkippedView is the JSON form of an incident left out of a report.
type SkippedView struct {
	IncidentID  string         `json:"incident_id"`
	EquipmentID string         `json:"equipment_id"`
	Reason      sla.SkipReason `json:"reason"`
}

// Summary counts leg verdicts in a report.
type Summary struct {
	Incidents  int                 `json:"incidents"`
	Breached   int                 `json:"breached"`
	Overdue    int                 `json:"overdue"`
	Response   map[sla.Verdict]int `json:"response"`
	Resolution map[sla.Verdict]int `json:"resolution"`
}

// ReportView is the JSON form of a compliance report.
type ReportView struct {
	Results     []ResultView  `json:"results"`
	Skipped     []SkippedView `json:"skipped"`
	Summary     Summary       `json:"summary"`
	EvaluatedAt time.Time     `json:"evaluated_at"`
	SourceAt    time.Time     `json:"source_read_at"`
}

func newSummary(results []*sla.Result) Summary {
	s := Summary{
		Incidents:  len(results),
		Response:   map[sla.Verdict]int{sla.VerdictPending: 0, sla.VerdictMet: 0, sla.VerdictBreached: 0},
		Resolution: map[sla.Verdict]int{sla.VerdictPending: 0, sla.VerdictMet: 0, sla.VerdictBreached: 0},
	}
	for _, r := range results {
		s.Response[r.Response.Verdict]++
		s.Resolution[r.Resolution.Verdict]++
		if r.Breaches() > 0 {
			s.Breached++
		}
		if r.Response.Overdue() || r.Resolution.Overdue() {
			s.Overdue++
		}
	}
	return s
}

// RecurrenceEntry is one equipment in the recurrence analysis. Repeat is set
// when the equipment has had more than one incident.
type RecurrenceEntry struct {
	EquipmentID   string       `json:"equipment_id"`
	SerialNumber  string       `json:"serial_number"`
	Model         string       `json:"model"`
	Manufacturer  string       `json:"manufacturer"`
	Group         domain.Group `json:"group"`
	IncidentCount int          `json:"incident_count"`
	Repeat        bool         `json:"repeat"`
}

// QueueItem is one incident in a group work queue.
type QueueItem struct {
	IncidentID   string                `json:"incident_id"`
	Title        string                `json:"title"`
	Status       domain.IncidentStatus `json:"status"`
	EquipmentID  string                `json:"equipment_id"`
	SerialNumber string                `json:"serial_number"`
	Model        string                `json:"model"`
	AssignedTo   *string               `json:"assigned_to"`
	Assignee     string                `json:"assignee"`
	OpenedAt     time.Time             `json:"opened_at"`
	SLA          *ResultView           `json:"sla"`
}
