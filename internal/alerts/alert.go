// Package alerts notifies a chat channel when incidents breach, or are about to
// breach, their SLA targets.
package alerts

import (
	"time"

	"github.com/bissquit/asset-desk/internal/domain"
	"github.com/bissquit/asset-desk/internal/sla"
	"github.com/bissquit/asset-desk/internal/source"
)

// Kind distinguishes a confirmed breach from a pending leg that is already late.
type Kind string

// Alert kinds.
const (
	KindBreached Kind = "breached"
	KindOverdue  Kind = "overdue"
)

// Key identifies an alert. A key is alerted at most once.
type Key struct {
	IncidentID string
	Leg        sla.Leg
	Kind       Kind
}

// Alert is one leg that needs attention.
type Alert struct {
	Key
	Title        string
	Status       domain.IncidentStatus
	EquipmentID  string
	SerialNumber string
	Model        string
	Group        domain.Group
	Assignee     string
	Category     string
	Target       time.Duration
	Elapsed      time.Duration
	Overage      time.Duration
	DashboardURL string
}

// Detect lists the legs of report that are breached or overdue. Breaches whose
// milestone happened more than maxAge before the evaluation are ignored so that
// old history does not flood the channel; maxAge <= 0 disables the cut-off.
func Detect(snap *source.Snapshot, report *sla.Report, maxAge time.Duration) []Alert {
	incidents := make(map[string]*domain.Incident, len(snap.Incidents))
	for _, inc := range snap.Incidents {
		incidents[inc.ID] = inc
	}
	equipment := snap.EquipmentByID()
	people := snap.UsersByID()

	var out []Alert
	for _, r := range report.Results {
		inc := incidents[r.IncidentID]
		eq := equipment[r.EquipmentID]
		if inc == nil || eq == nil {
			continue
		}

		for _, l := range r.Legs() {
			var kind Kind
			elapsed := l.Running
			switch {
			case l.Verdict == sla.VerdictBreached:
				if maxAge > 0 && report.EvaluatedAt.Sub(l.ReachedAt) > maxAge {
					continue
				}
				kind = KindBreached
				elapsed = l.Elapsed
			case l.Overdue():
				kind = KindOverdue
			default:
				continue
			}

			a := Alert{
				Key:          Key{IncidentID: inc.ID, Leg: l.Leg, Kind: kind},
				Title:        inc.Title,
				Status:       inc.Status,
				EquipmentID:  eq.ID,
				SerialNumber: eq.SerialNumber,
				Model:        eq.Model,
				Group:        eq.Group,
				Category:     l.Target.Category,
				Target:       l.Target.Duration,
				Elapsed:      elapsed,
				Overage:      l.Overage(),
			}
			if inc.AssignedTo != nil {
				if u, ok := people[*inc.AssignedTo]; ok {
					a.Assignee = u.Username
				}
			}
			out = append(out, a)
		}
	}
	return out
}
