package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/bissquit/asset-desk/internal/compliance"
	"github.com/bissquit/asset-desk/internal/sla"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// Colours for verdict labels in tables.
var (
	BreachedColor = color.New(color.FgRed, color.Bold)
	OverdueColor  = color.New(color.FgYellow, color.Bold)
	PendingColor  = color.New(color.FgCyan)
	MetColor      = color.New(color.FgGreen)
	RepeatColor   = color.New(color.FgMagenta, color.Bold)
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// legLabel renders the verdict of a leg, flagging pending legs already past target.
func legLabel(l compliance.LegView) string {
	switch {
	case l.Verdict == sla.VerdictBreached:
		return BreachedColor.Sprint(l.Label)
	case l.Overdue:
		return OverdueColor.Sprint(l.Label + " (vencida)")
	case l.Verdict == sla.VerdictPending:
		return PendingColor.Sprint(l.Label)
	default:
		return MetColor.Sprint(l.Label)
	}
}

// legElapsed shows the elapsed time of a reached leg and the running time of a pending one.
func legElapsed(l compliance.LegView) string {
	if l.ElapsedSeconds != nil {
		return l.Elapsed
	}
	return sla.FormatDuration(time.Duration(l.RunningSeconds)*time.Second) + " *"
}

func writeReportTable(w io.Writer, report *compliance.ReportView) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{
		"Incident", "Equipment", "Group",
		"Response", "Elapsed", "Verdict",
		"Resolution", "Elapsed", "Verdict",
	})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})

	data := make([][]string, 0, len(report.Results))
	for _, r := range report.Results {
		data = append(data, []string{
			r.IncidentID,
			r.EquipmentID,
			string(r.Group),
			r.Response.Category + " (" + r.Response.Target + ")",
			legElapsed(r.Response),
			legLabel(r.Response),
			r.Resolution.Category + " (" + r.Resolution.Target + ")",
			legElapsed(r.Resolution),
			legLabel(r.Resolution),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	s := report.Summary
	if _, err := fmt.Fprintf(w, "\n%d incidents: %d with breaches, %d overdue, %d skipped (evaluated %s)\n",
		s.Incidents, s.Breached, s.Overdue, len(report.Skipped),
		report.EvaluatedAt.Format("2006-01-02 15:04:05 MST")); err != nil {
		return err
	}
	if len(report.Results) > 0 {
		if _, err := fmt.Fprintln(w, "* running time of a pending leg"); err != nil {
			return err
		}
	}
	for _, sk := range report.Skipped {
		if _, err := fmt.Fprintf(w, "skipped %s (equipment %s): %s\n", sk.IncidentID, sk.EquipmentID, sk.Reason); err != nil {
			return err
		}
	}
	return nil
}

func writeRecurrenceTable(w io.Writer, entries []compliance.RecurrenceEntry) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Rank", "Serial", "Model", "Manufacturer", "Group", "Incidents"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})

	data := make([][]string, 0, len(entries))
	for i, e := range entries {
		count := strconv.Itoa(e.IncidentCount)
		if e.Repeat {
			count = RepeatColor.Sprint(count)
		}
		data = append(data, []string{
			strconv.Itoa(i + 1),
			e.SerialNumber,
			e.Model,
			e.Manufacturer,
			string(e.Group),
			count,
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
