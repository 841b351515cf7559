package cli

import (
	"github.com/go-authgate/dirgate/internal/bootstrap"

	"github.com/spf13/cobra"
)

func newServeCmd(env *runtimeEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the directory HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return bootstrap.Run(env.cfg, env.logger)
		},
	}
}
