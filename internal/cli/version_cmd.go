package cli

import (
	"github.com/go-authgate/dirgate/internal/version"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// Needs no configuration
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			if plain {
				version.PrintVersion(cmd.OutOrStdout())
				return nil
			}
			return printJSON(cmd.OutOrStdout(), version.Get())
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "Print human readable text instead of JSON")
	return cmd
}
