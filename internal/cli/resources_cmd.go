package cli

import (
	"github.com/go-authgate/dirgate/internal/directory"
	"github.com/go-authgate/dirgate/internal/models"

	"github.com/spf13/cobra"
)

func newResourcesCmd(env *runtimeEnv) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "resources <username> [path]",
		Short: "List a user's resources",
		Long: "List the folder or file at path under the user's resource root.\n" +
			"For the remote backend --password lists as the user instead of the service account.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := env.directory()
			if err != nil {
				return err
			}
			path := "/"
			if len(args) == 2 {
				path = args[1]
			}

			ctx := cmd.Context()
			if cmd.Flags().Changed("password") {
				ctx = directory.WithCredentials(ctx, args[0], password)
			}
			resources, err := d.Service.ListResources(ctx, args[0], path)
			if err != nil {
				return err
			}
			if resources == nil {
				resources = []models.Resource{}
			}
			return printJSON(cmd.OutOrStdout(), map[string][]models.Resource{"resources": resources})
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "Authenticate the listing as the user")
	return cmd
}
