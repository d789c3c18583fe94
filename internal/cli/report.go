package cli

import (
	"github.com/bissquit/asset-desk/internal/compliance"
	"github.com/bissquit/asset-desk/internal/domain"
	"github.com/bissquit/asset-desk/internal/sla"
	"github.com/spf13/cobra"
)

func newReportCommand(opts *options) *cobra.Command {
	var (
		verdicts []string
		group    string
		sort     string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the SLA verdicts of every incident.",
		Long: `Evaluate every incident and show both SLA legs, worst breaches first.

Examples:
  # Everything in a dashboard export
  slactl report --file export.json

  # Only incidents with a breached leg on hardware equipment
  slactl report --firestore-project my-desk --verdict breached --group Hardware

  # Compliance as it stood at the end of last month, as JSON
  slactl report --database-url postgres://... --at 2024-01-31T18:00:00+01:00 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			query := compliance.ReportQuery{Sort: sort}
			for _, v := range verdicts {
				query.Verdicts = append(query.Verdicts, sla.Verdict(v))
			}
			if group != "" {
				g := domain.Group(group)
				query.Group = &g
			}

			svc, closeFn, err := opts.newService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			report, err := svc.Report(cmd.Context(), query)
			if err != nil {
				return err
			}

			if opts.output == OutputJSON {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			return writeReportTable(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().StringSliceVar(&verdicts, "verdict", nil, "keep incidents with a leg in these verdicts (pending, met, breached)")
	cmd.Flags().StringVar(&group, "group", "", "keep incidents on equipment of this group (Software, Hardware)")
	cmd.Flags().StringVar(&sort, "sort", compliance.SortSeverity, "order: severity or incident")
	return cmd
}
