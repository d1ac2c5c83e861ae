package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/flowvana/flowlight/internal/app"
	"github.com/flowvana/flowlight/internal/tui"
)

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	context    string
	verbose    bool
	logFile    string

	logger *zap.Logger
}

// NewRoot builds the top-level `flowlight` command.
//
// We keep errors/usage silent and let main() decide how to print ExitResult vs generic errors.
func NewRoot() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "flowlight",
		Short:         "flowlight: chat, flows and slash-command search from the terminal",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return cmd.Help()
			}
			return runPalette(cmd, opts)
		},
	}

	// ExitResult errors skip post-run hooks.
	cobra.OnFinalize(func() {
		if opts.logger != nil {
			_ = opts.logger.Sync()
		}
	})

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/flowlight/config.yaml)")
	root.PersistentFlags().StringVar(&opts.context, "context", "", "named context for credentials, cookies and headers")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().StringVar(&opts.logFile, "log-file", "", "write logs to this file instead of stderr")
	root.PersistentFlags().StringP("output", "o", "", "write output to file (default: stdout)")
	root.PersistentFlags().StringP("format", "F", "", "output format: json|yaml|text|quiet")

	root.AddGroup(
		&cobra.Group{ID: "start", Title: "get started"},
		&cobra.Group{ID: "explore", Title: "chat and search"},
		&cobra.Group{ID: "flows", Title: "flows"},
		&cobra.Group{ID: "settings", Title: "settings and credentials"},
	)

	configCmd := newConfigCmd(opts)
	configCmd.GroupID = "start"

	paletteCmd := newPaletteCmd(opts)
	paletteCmd.GroupID = "explore"

	chatCmd := newChatCmd(opts)
	chatCmd.GroupID = "explore"

	searchCmd := newSearchCmd(opts)
	searchCmd.GroupID = "explore"

	spacesCmd := newSpacesCmd(opts)
	spacesCmd.GroupID = "explore"

	flowsCmd := newFlowsCmd(opts)
	flowsCmd.GroupID = "flows"

	contextCmd := newContextCmd()
	contextCmd.GroupID = "settings"

	tokenCmd := newTokenCmd()
	tokenCmd.GroupID = "settings"

	root.AddCommand(
		configCmd,
		paletteCmd,
		chatCmd,
		searchCmd,
		spacesCmd,
		flowsCmd,
		contextCmd,
		tokenCmd,
	)

	return root
}

func newPaletteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "palette",
		Aliases: []string{"ui"},
		Short:   "Open the interactive palette (TUI)",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPalette(cmd, opts)
		},
	}
}

func runPalette(cmd *cobra.Command, opts *rootOptions) error {
	rt, err := opts.runtime(true)
	if err != nil {
		return err
	}
	if err := tui.RunPalette(cmd.Context(), rt, tui.Options{Logger: rt.Logger}); err != nil {
		return app.Fail(err)
	}
	return nil
}

// runtime builds the logger and loads config and context. The palette
// only logs when --log-file is set.
func (o *rootOptions) runtime(interactive bool) (*app.Runtime, error) {
	logger, err := app.NewLogger(app.LogOptions{Verbose: o.verbose, File: o.logFile, Interactive: interactive})
	if err != nil {
		return nil, app.Fail(err)
	}
	o.logger = logger
	rt, err := app.LoadRuntime(o.configPath, o.context, app.RuntimeOptions{Logger: logger})
	if err != nil {
		return nil, app.Fail(err)
	}
	return rt, nil
}
