package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flowvana/flowlight/internal/app"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage OS keychain tokens for \"keychain\" auth sources",
		Long: `Store tokens shared by every context under the "flowlight" keychain
service. A space or flow step whose auth source is
{"from": "keychain", "name": "<key>"} reads the token stored here,
unless the active context has its own token with that name.`,
	}
	cmd.AddCommand(newTokenSetCmd(), newTokenDeleteCmd())
	return cmd
}

func newTokenSetCmd() *cobra.Command {
	var value string
	cmd := &cobra.Command{
		Use:   "set <key>",
		Short: "Store a token (prompts if --value is empty)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if value == "" {
				if !isInteractive() {
					return app.UsageExit("--value is required when stdin is not a terminal")
				}
				v, err := promptSecret(fmt.Sprintf("Token %q: ", args[0]))
				if err != nil {
					return app.Fail(err)
				}
				value = v
			}
			if err := app.SetKeychainToken(args[0], value); err != nil {
				return app.Fail(err)
			}
			fmt.Fprintf(os.Stderr, "Token %q stored.\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&value, "value", "", "token value")
	return cmd
}

func newTokenDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <key>",
		Aliases: []string{"rm"},
		Short:   "Delete a stored token",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.DeleteKeychainToken(args[0]); err != nil {
				return app.Fail(err)
			}
			fmt.Fprintf(os.Stderr, "Token %q deleted.\n", args[0])
			return nil
		},
	}
}
