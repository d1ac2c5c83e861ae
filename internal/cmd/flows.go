package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flowvana/flowlight/internal/app"
)

func newFlowsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "flows",
		Aliases: []string{"flow"},
		Short:   "List, find and run flows",
	}
	cmd.AddCommand(
		newFlowsListCmd(opts),
		newFlowsFindCmd(opts),
		newFlowsRunCmd(opts),
	)
	return cmd
}

func newFlowsListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List registered flows",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.runtime(false)
			if err != nil {
				return err
			}
			format, outputPath := getOutputFlags(cmd)
			return app.OutputResult(app.ListFlows(rt.Flows.All()), format, outputPath)
		},
	}
}

func newFlowsFindCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "find <text...>",
		Short: "Find local flows by name or description",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.runtime(false)
			if err != nil {
				return err
			}
			format, outputPath := getOutputFlags(cmd)
			found := rt.Flows.Find(strings.Join(args, " "))
			return app.OutputResult(app.ListFlows(found), format, outputPath)
		},
	}
}

func newFlowsRunCmd(opts *rootOptions) *cobra.Command {
	var (
		input     string
		inputFile string
		pairs     []string
		prompt    bool
	)

	cmd := &cobra.Command{
		Use:   "run <name>",
		Short: "Run a flow with inputs",
		Long: `Run a flow's steps in order. The first failing step stops the flow.

Inputs are merged from --input-file, then --input, then -i key=value
pairs (later wins). With --prompt a form asks for each declared input,
pre-filled with what the flags supplied.`,
		Example: `  flowlight flows run deploy -i env=prod -i replicas=3
  flowlight flows run deploy --input '{"env":"prod"}'
  flowlight flows run deploy --input-file inputs.yaml
  flowlight flows run deploy --prompt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.runtime(false)
			if err != nil {
				return err
			}
			name := args[0]
			flow := rt.Flows.Get(name)
			if flow == nil {
				return app.Fail(fmt.Errorf("flow with name %q not found", name))
			}

			inputs, err := app.ParseInputs(inputFile, input, pairs)
			if err != nil {
				return app.UsageExit(err.Error())
			}
			if prompt {
				if !isInteractive() {
					return app.UsageExit("--prompt needs a terminal")
				}
				if inputs, err = promptInputs(flow, inputs); err != nil {
					return app.Fail(err)
				}
			}

			out, runErr := app.RunFlow(cmd.Context(), rt, name, inputs)
			format, outputPath := getOutputFlags(cmd)
			if runErr != nil {
				code := 1
				if out.Error != nil && out.Error.Code == app.ErrCodeInvalidInput {
					code = 2
				}
				return app.OutputResultWithCode(out, format, outputPath, code)
			}
			return app.OutputResult(out, format, outputPath)
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "inputs as a JSON object")
	cmd.Flags().StringVar(&inputFile, "input-file", "", "read inputs from a JSON or YAML file")
	cmd.Flags().StringArrayVarP(&pairs, "set", "i", nil, "set one input as key=value; JSON values are decoded (repeatable)")
	cmd.Flags().BoolVar(&prompt, "prompt", false, "ask for inputs interactively")
	return cmd
}
