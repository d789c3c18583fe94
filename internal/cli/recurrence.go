package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

func newRecurrenceCommand(opts *options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "recurrence",
		Short: "Rank equipment by number of incidents.",
		Long: `List equipment ordered by how many incidents it has had. Counts above one
are highlighted as repeat failures.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 0 {
				return errors.New("--limit must not be negative")
			}

			svc, closeFn, err := opts.newService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			entries, err := svc.Recurrence(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if opts.output == OutputJSON {
				return writeJSON(cmd.OutOrStdout(), entries)
			}
			return writeRecurrenceTable(cmd.OutOrStdout(), entries)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "number of equipment to show, 0 for all")
	return cmd
}
