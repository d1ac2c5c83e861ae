package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/flowvana/flowlight/internal/app"
	"github.com/flowvana/flowlight/internal/dispatch"
)

func newSearchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "search <text...>",
		Short: "Search flows, or a space with \"/<space> <query>\"",
		Long: `Search the way the palette does. Text starting with "/<space>" is
sent to that space; anything else is a free-text flow search.`,
		Example: `  flowlight search deploy
  flowlight search /Docs reset password`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.runtime(false)
			if err != nil {
				return err
			}
			text := strings.Join(args, " ")
			format, outputPath := getOutputFlags(cmd)

			var (
				out  app.SearchOutput
				serr error
			)
			st := dispatch.Classify(text, len([]rune(text)))
			switch st.Mode {
			case dispatch.ModeQuerying:
				if st.Query == "" {
					return app.UsageExit("missing query after /" + st.SpaceName)
				}
				out, serr = app.QuerySpace(cmd.Context(), rt.Hook, st.SpaceName, st.Query)
			case dispatch.ModePicking:
				return app.OutputResult(app.ListSpaces(rt.Hook), format, outputPath)
			default:
				if len([]rune(strings.TrimSpace(text))) < dispatch.MinSearchLength {
					return app.UsageExit("search text is too short")
				}
				out, serr = app.SearchFlows(cmd.Context(), rt, strings.TrimSpace(text))
			}
			if serr != nil {
				return app.OutputResultWithCode(out, format, outputPath, 1)
			}
			return app.OutputResult(out, format, outputPath)
		},
	}
}
