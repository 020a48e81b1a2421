package cli

import (
	"github.com/spf13/cobra"

	"github.com/mcoot/scorekeeper/internal/api/request"
	"github.com/mcoot/scorekeeper/internal/api/response"
)

func newIdentityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "identity",
		Short: "Show or change the signed-in account",
		Long: `The server tracks data for one identity at a time. Setting an identity
loads that account's data from remote storage, or uploads the data held on
this device when the account has none. Clearing it keeps the data locally.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the current identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Identity
			if err := client.Get("/api/v1/identity", &result); err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <user-id>",
		Short: "Sign in as a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Identity
			if err := client.Put("/api/v1/identity", request.IdentityRequest{UserID: args[0]}, &result); err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Sign out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Identity
			if err := client.Delete("/api/v1/identity", &result); err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	})

	return cmd
}
