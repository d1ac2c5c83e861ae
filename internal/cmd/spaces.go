package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/flowvana/flowlight/internal/app"
)

func newSpacesCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "spaces",
		Aliases: []string{"space"},
		Short:   "List, sync and query search spaces",
	}
	cmd.AddCommand(
		newSpacesListCmd(opts),
		newSpacesSyncCmd(opts),
		newSpacesQueryCmd(opts),
	)
	return cmd
}

func newSpacesListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List configured search spaces",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.runtime(false)
			if err != nil {
				return err
			}
			format, outputPath := getOutputFlags(cmd)
			return app.OutputResult(app.ListSpaces(rt.Hook), format, outputPath)
		},
	}
}

func newSpacesSyncCmd(opts *rootOptions) *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Load the project's search hooks from the backend",
		Long: `Load the project's search hooks from the backend and replace the
configured spaces with them. With --save the result is written back to
the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.runtime(false)
			if err != nil {
				return err
			}
			if _, err := rt.SyncSpaces(cmd.Context()); err != nil {
				return app.Fail(err)
			}
			if save {
				path, err := app.SaveConfig(opts.configPath, rt.Config)
				if err != nil {
					return app.Fail(err)
				}
				rt.Logger.Info("config saved", zap.String("path", path))
			}
			format, outputPath := getOutputFlags(cmd)
			return app.OutputResult(app.ListSpaces(rt.Hook), format, outputPath)
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "write the synced spaces to the config file")
	return cmd
}

func newSpacesQueryCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "query <space> <text...>",
		Short: "Search one space",
		Example: `  flowlight spaces query Docs reset password
  flowlight spaces query Docs "reset password" -F json`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.runtime(false)
			if err != nil {
				return err
			}
			text := strings.Join(args[1:], " ")
			out, qerr := app.QuerySpace(cmd.Context(), rt.Hook, args[0], text)
			format, outputPath := getOutputFlags(cmd)
			if qerr != nil && out.Error != nil && out.Error.Code == app.ErrCodeNoSpace {
				return app.UsageExit(fmt.Sprintf("%s (see `flowlight spaces list`)", qerr))
			}
			if qerr != nil {
				return app.OutputResultWithCode(out, format, outputPath, 1)
			}
			return app.OutputResult(out, format, outputPath)
		},
	}
}
