package cmd

import (
	"github.com/spf13/cobra"

	"github.com/flowvana/flowlight/internal/app"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create and inspect the config file",
	}
	cmd.AddCommand(newConfigInitCmd(opts), newConfigShowCmd(opts), newConfigPathCmd(opts))
	return cmd
}

func newConfigInitCmd(opts *rootOptions) *cobra.Command {
	var (
		baseURL   string
		projectID string
		force     bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file",
		Long: `Write a starter config file.

By default the file is created at $XDG_CONFIG_HOME/flowlight/config.yaml
(~/.config/flowlight/config.yaml). Use --config to pick another path.

Examples:
  flowlight config init
  flowlight config init --base-url https://api.example.com --project-id p-123`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.InitConfig(opts.configPath, baseURL, projectID, force)
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "", "backend base URL")
	cmd.Flags().StringVar(&projectID, "project-id", "", "backend project id")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func newConfigShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the loaded config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(opts.configPath)
			if err != nil {
				return app.Fail(err)
			}
			format, outputPath := getOutputFlags(cmd)
			if format == "" {
				format = string(app.OutputFormatYAML)
			}
			return app.OutputResult(cfg, format, outputPath)
		},
	}
}

func newConfigPathCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := app.ResolveConfigPath(opts.configPath)
			if err != nil {
				return app.Fail(err)
			}
			return app.ExitResult{Code: 0, Message: path}
		},
	}
}
