package cli

import (
	"github.com/go-authgate/dirgate/internal/models"

	"github.com/spf13/cobra"
)

func newUserCmd(env *runtimeEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage directory users",
	}
	cmd.AddCommand(
		newUserListCmd(env),
		newUserGetCmd(env),
		newUserGroupsCmd(env),
		newUserCreateCmd(env),
		newUserUpdateCmd(env),
		newUserDeleteCmd(env),
	)
	return cmd
}

func newUserListCmd(env *runtimeEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List usernames",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := env.directory()
			if err != nil {
				return err
			}
			users, err := d.Service.ListUsers(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string][]string{"users": nonNil(users)})
		},
	}
}

func newUserGetCmd(env *runtimeEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "get <username>",
		Short: "Show one user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := env.directory()
			if err != nil {
				return err
			}
			user, err := d.Service.FindUser(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), user.WithoutPassword())
		},
	}
}

func newUserGroupsCmd(env *runtimeEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "groups <username>",
		Short: "List the groups of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := env.directory()
			if err != nil {
				return err
			}
			groups, err := d.Service.UserGroups(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string][]string{"groups": nonNil(groups)})
		},
	}
}

// userFlags are the writable user fields shared by create and update.
type userFlags struct {
	password    string
	displayName string
	email       string
	disabled    bool
	groups      []string
}

func (f *userFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.password, "password", "", "Password")
	cmd.Flags().StringVar(&f.displayName, "display-name", "", "Display name")
	cmd.Flags().StringVar(&f.email, "email", "", "Email address")
	cmd.Flags().BoolVar(&f.disabled, "disabled", false, "Disable the account")
	cmd.Flags().StringSliceVar(&f.groups, "group", nil, "Group membership (repeatable, replaces existing)")
}

// request builds a modification request carrying only the flags that were set.
func (f *userFlags) request(cmd *cobra.Command, username string) *models.ModificationRequest {
	req := models.NewModificationRequest(username)
	if cmd.Flags().Changed("password") {
		req.SetPassword(f.password)
	}
	if cmd.Flags().Changed("display-name") {
		req.SetDisplayName(f.displayName)
	}
	if cmd.Flags().Changed("email") {
		req.SetEmail(f.email)
	}
	if cmd.Flags().Changed("disabled") {
		req.SetEnabled(!f.disabled)
	}
	req.SetGroups(f.groups...)
	return req
}

func newUserCreateCmd(env *runtimeEnv) *cobra.Command {
	var flags userFlags

	cmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Create a user, creating missing groups first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := env.directory()
			if err != nil {
				return err
			}
			user, err := d.Service.CreateUser(cmd.Context(), flags.request(cmd, args[0]))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), user.WithoutPassword())
		},
	}
	flags.register(cmd)
	return cmd
}

func newUserUpdateCmd(env *runtimeEnv) *cobra.Command {
	var flags userFlags

	cmd := &cobra.Command{
		Use:   "update <username>",
		Short: "Update a user; unset flags keep their stored value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := env.directory()
			if err != nil {
				return err
			}
			req := flags.request(cmd, args[0])
			if !cmd.Flags().Changed("group") {
				// Keep the current membership
				current, err := d.Service.FindUser(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				req.SetGroups(current.Groups...)
			}

			user, err := d.Service.UpdateUser(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), user.WithoutPassword())
		},
	}
	flags.register(cmd)
	return cmd
}

func newUserDeleteCmd(env *runtimeEnv) *cobra.Command {
	var pruneGroups bool

	cmd := &cobra.Command{
		Use:   "delete <username>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := env.directory()
			if err != nil {
				return err
			}
			if err := d.Service.DeleteUser(cmd.Context(), args[0], pruneGroups); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]string{"deleted": args[0]})
		},
	}
	cmd.Flags().BoolVar(&pruneGroups, "prune-groups", false, "Delete former groups left without members")
	return cmd
}
