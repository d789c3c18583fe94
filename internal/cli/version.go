package cli

import (
	"github.com/bissquit/asset-desk/internal/version"
	"github.com/spf13/cobra"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of slactl.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			info := version.Get()
			cmd.Printf("slactl\n")
			cmd.Printf("  Version: %s\n", info.Version)
			cmd.Printf("  Commit:  %s\n", info.Commit)
			cmd.Printf("  Built:   %s\n", info.BuildDate)
			cmd.Printf("  Runtime: %s\n", info.GoVersion)
		},
	}
}
