package cli

import (
	"github.com/spf13/cobra"
)

func newGroupCmd(env *runtimeEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Manage directory groups",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List group names",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				d, err := env.directory()
				if err != nil {
					return err
				}
				groups, err := d.Service.ListGroups(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string][]string{"groups": nonNil(groups)})
			},
		},
		&cobra.Command{
			Use:   "members <group>",
			Short: "List the members of a group",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				d, err := env.directory()
				if err != nil {
					return err
				}
				users, err := d.Service.GroupUsers(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string][]string{"users": nonNil(users)})
			},
		},
		&cobra.Command{
			Use:   "create <group>",
			Short: "Create an empty group",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				d, err := env.directory()
				if err != nil {
					return err
				}
				if err := d.Service.CreateGroup(cmd.Context(), args[0]); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]string{"created": args[0]})
			},
		},
		&cobra.Command{
			Use:   "delete <group>",
			Short: "Delete a group and remove it from every member",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				d, err := env.directory()
				if err != nil {
					return err
				}
				if err := d.Service.DeleteGroup(cmd.Context(), args[0]); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]string{"deleted": args[0]})
			},
		},
	)
	return cmd
}
