package cli

import (
	"bufio"
	"errors"
	"strings"

	"github.com/go-authgate/dirgate/internal/auth"
	"github.com/go-authgate/dirgate/internal/handlers"

	"github.com/spf13/cobra"
)

func newAuthCmd(env *runtimeEnv) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "auth <username>",
		Short: "Authenticate a user and print the resolved principal",
		Long: "Authenticate a user against the directory and print the resolved principal.\n" +
			"Without --password the password is read from the first line of stdin.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("password") {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("no password given on stdin")
				}
				password = strings.TrimRight(line, "\r\n")
			}

			d, err := env.directory()
			if err != nil {
				return err
			}
			principal, err := d.Resolver.Authenticate(cmd.Context(), auth.UsernamePassword{
				Username: args[0],
				Password: password,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), handlers.NewPrincipalResponse(principal))
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "Password (read from stdin when omitted)")
	return cmd
}
