// Package cli implements slactl, a command-line client for SLA compliance
// reports over a file export, a Firestore project or the asset-desk database.
package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bissquit/asset-desk/internal/compliance"
	"github.com/bissquit/asset-desk/internal/config"
	"github.com/bissquit/asset-desk/internal/sla"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Output formats.
const (
	OutputTable = "table"
	OutputJSON  = "json"
)

// options holds the flags shared by every command.
type options struct {
	source    sourceOptions
	output    string
	noColor   bool
	sla       config.SLAConfig
	evaluateAt string
}

// NewRootCommand builds the slactl command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{sla: config.Default().SLA}

	root := &cobra.Command{
		Use:   "slactl",
		Short: "Inspect SLA compliance of incidents.",
		Long: `slactl evaluates incidents against the response and resolution targets
of their equipment, counting business time only.

Records are read from exactly one source:
  --file               a JSON export {"users":[], "equipment":[], "incidents":[]}
  --firestore-project  the dashboard's Firestore database
  --database-url       the asset-desk PostgreSQL database`,
		SilenceErrors:      true,
		SilenceUsage:       true,
		DisableSuggestions: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if opts.noColor {
				color.NoColor = true
			}
			if opts.output != OutputTable && opts.output != OutputJSON {
				return fmt.Errorf("unknown output format %q", opts.output)
			}
			return nil
		},
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.source.file, "file", "", "read records from a JSON export")
	flags.StringVar(&opts.source.firestoreProject, "firestore-project", "", "read records from this Google Cloud project's Firestore")
	flags.StringVar(&opts.source.firestoreDatabase, "firestore-database", "(default)", "Firestore database ID")
	flags.DurationVar(&opts.source.readyTimeout, "ready-timeout", 30*time.Second, "how long to wait for the first Firestore snapshot")
	flags.StringVar(&opts.source.databaseURL, "database-url", "", "read records from this PostgreSQL database")
	flags.StringVarP(&opts.output, "output", "o", OutputTable, "output format: table or json")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable coloured output")
	flags.StringVar(&opts.sla.Timezone, "timezone", opts.sla.Timezone, "time zone of the business calendar")
	flags.StringVar(&opts.sla.BusinessStart, "business-start", opts.sla.BusinessStart, "start of the business day (HH:MM)")
	flags.StringVar(&opts.sla.BusinessEnd, "business-end", opts.sla.BusinessEnd, "end of the business day (HH:MM)")
	flags.StringSliceVar(&opts.sla.Workdays, "workdays", opts.sla.Workdays, "working days of the week")
	flags.StringVar(&opts.evaluateAt, "at", "", "evaluate as of this RFC 3339 instant instead of now")

	root.AddCommand(
		newReportCommand(opts),
		newRecurrenceCommand(opts),
		newVersionCommand(),
	)
	return root
}

// Execute runs the command tree with ctx.
func Execute(ctx context.Context, args []string) error {
	root := NewRootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// newService opens the selected source and builds a compliance service over it.
// The returned function releases the source.
func (o *options) newService(ctx context.Context) (*compliance.Service, func(), error) {
	cal, err := o.sla.Calendar()
	if err != nil {
		return nil, nil, err
	}

	evalOpts := []sla.Option{sla.WithWorkers(o.sla.Workers)}
	if o.evaluateAt != "" {
		at, err := time.Parse(time.RFC3339, strings.TrimSpace(o.evaluateAt))
		if err != nil {
			return nil, nil, fmt.Errorf("parse --at: %w", err)
		}
		evalOpts = append(evalOpts, sla.WithClock(func() time.Time { return at }))
	}

	reader, closeFn, err := o.source.open(ctx)
	if err != nil {
		return nil, nil, err
	}

	return compliance.NewService(reader, sla.NewEvaluator(cal, evalOpts...)), closeFn, nil
}
