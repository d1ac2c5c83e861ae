package cmd

import (
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/flowvana/flowlight/internal/app"
)

func newChatCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat <message...>",
		Short: "Send one message to the assistant",
		Long: `Send one message to the assistant and print the reply.

If the assistant answers with a flow, the flow is run with the inputs it
chose and the reply reports the outcome.`,
		Example: `  flowlight chat what changed in the last release
  flowlight chat "deploy the api to staging" -F json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.runtime(false)
			if err != nil {
				return err
			}
			session := app.NewChatSession(rt)
			reply, sendErr := session.Send(cmd.Context(), strings.Join(args, " "))
			if reply.Role == "" {
				return app.UsageExit(sendErr.Error())
			}

			format, outputPath := getOutputFlags(cmd)
			code := 0
			if reply.Err != nil {
				code = 1
			}
			if format != "" && format != string(app.OutputFormatText) {
				return app.OutputResultWithCode(reply, format, outputPath, code)
			}
			text := reply.Render()
			if reply.Kind == app.ReplyCompletion {
				text = renderMarkdown(reply.Text)
			}
			if outputPath != "" {
				if err := app.AtomicWriteFile(outputPath, []byte(reply.Text), app.FilePerm); err != nil {
					return app.Fail(err)
				}
				return app.ExitResult{Code: code, Message: "Wrote " + outputPath}
			}
			return app.ExitResult{Code: code, Message: text, ToStderr: code != 0}
		},
	}
}

// renderMarkdown renders an assistant completion for the terminal, or
// returns it unchanged when rendering fails.
func renderMarkdown(md string) string {
	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = w
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}
