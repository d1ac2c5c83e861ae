package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flowvana/flowlight/internal/app"
)

func newContextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Manage named contexts (credentials, cookies, headers, environment)",
		Long: `Manage named contexts used to authenticate search spaces, flow
steps and the backend.

A context is a named collection of credentials, cookies, headers,
environment variables, and metadata. Pass --context <name>, or set
"context" in the config file, to apply one.

Cookies answer auth sources of type "cookie"; tokens answer sources of
type "keychain". Credentials are stored in the OS keychain. Non-secret
fields are stored in config files.`,
	}

	cmd.AddCommand(
		newContextListCmd(),
		newContextShowCmd(),
		newContextSetCmd(),
		newContextRemoveCmd(),
	)

	return cmd
}

func newContextListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all named contexts",
		RunE: func(cmd *cobra.Command, args []string) error {
			summaries, err := app.ListContexts()
			if err != nil {
				return app.Fail(err)
			}
			format, outputPath := getOutputFlags(cmd)
			return app.OutputResultText(summaries, format, outputPath, func() string {
				return app.RenderContextList(summaries)
			})
		},
	}
}

func newContextShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show context details (secrets masked)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if !app.ContextExists(name) {
				return app.Fail(fmt.Errorf("context %q not found", name))
			}
			ctx, err := app.GetContext(name)
			if err != nil {
				return app.Fail(err)
			}
			format, outputPath := getOutputFlags(cmd)
			return app.OutputResultText(ctx, format, outputPath, func() string {
				return app.RenderContext(ctx)
			})
		},
	}
}

func newContextSetCmd() *cobra.Command {
	var (
		bearerToken string
		tokens      []string
		headers     []string
		cookies     []string
		envVars     []string
		metaEntries []string
	)

	cmd := &cobra.Command{
		Use:   "set <name>",
		Short: "Set context fields (credentials, cookies, headers, environment)",
		Long: `Set fields on a named context. Creates the context if it doesn't exist.

--bearer-token authenticates the flowlight backend. If no value is
provided after the flag, you'll be prompted to enter it securely.

--token stores a named token for "keychain" auth sources; the value is
prompted for when omitted ("--token name").

Non-secret flags (--header, --cookie, --env, --meta) are stored in
a config file and can be specified multiple times.

Examples:
  flowlight context set work --bearer-token
  flowlight context set work --cookie "session=abc123"
  flowlight context set work --token jira
  flowlight context set work --token "jira=xxxx"
  flowlight context set work --header "X-Team: search"
  flowlight context set work --env "DOCS_TOKEN=xxxx"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			cfg, err := app.LoadContextConfig(name)
			if err != nil {
				return app.Fail(err)
			}

			cred, err := app.LoadContextCredentials(name)
			if err != nil {
				return app.Fail(err)
			}

			credChanged := false

			if cmd.Flags().Changed("bearer-token") {
				val := bearerToken
				if val == "" {
					v, err := promptSecret("Bearer token: ")
					if err != nil {
						return app.Fail(err)
					}
					val = v
				}
				if cred == nil {
					cred = &app.Credentials{}
				}
				cred.BearerToken = val
				credChanged = true
			}

			for _, t := range tokens {
				k, v, ok := parseKV(t, "=")
				if !ok {
					k = t
					secret, err := promptSecret(fmt.Sprintf("Token %q: ", k))
					if err != nil {
						return app.Fail(err)
					}
					v = secret
				}
				if k == "" {
					return app.UsageExit(fmt.Sprintf("invalid token %q (expected \"name=value\" or \"name\")", t))
				}
				if cred == nil {
					cred = &app.Credentials{}
				}
				if cred.Tokens == nil {
					cred.Tokens = make(map[string]string)
				}
				cred.Tokens[k] = v
				credChanged = true
			}

			cfgChanged := false

			for _, h := range headers {
				k, v, ok := parseKV(h, ":")
				if !ok {
					return app.UsageExit(fmt.Sprintf("invalid header %q (expected \"Key: Value\")", h))
				}
				if cfg.Headers == nil {
					cfg.Headers = make(map[string]string)
				}
				cfg.Headers[k] = v
				cfgChanged = true
			}

			for _, c := range cookies {
				k, v, ok := parseKV(c, "=")
				if !ok {
					return app.UsageExit(fmt.Sprintf("invalid cookie %q (expected \"Key=Value\")", c))
				}
				if cfg.Cookies == nil {
					cfg.Cookies = make(map[string]string)
				}
				cfg.Cookies[k] = v
				cfgChanged = true
			}

			for _, e := range envVars {
				k, v, ok := parseKV(e, "=")
				if !ok {
					return app.UsageExit(fmt.Sprintf("invalid env %q (expected \"VAR=value\")", e))
				}
				if cfg.Environment == nil {
					cfg.Environment = make(map[string]string)
				}
				cfg.Environment[k] = v
				cfgChanged = true
			}

			for _, m := range metaEntries {
				k, v, ok := parseKV(m, "=")
				if !ok {
					return app.UsageExit(fmt.Sprintf("invalid meta %q (expected \"key=value\")", m))
				}
				if cfg.Metadata == nil {
					cfg.Metadata = make(map[string]any)
				}
				cfg.Metadata[k] = v
				cfgChanged = true
			}

			if !credChanged && !cfgChanged {
				return app.UsageExit("no fields specified; use --bearer-token, --token, --header, --cookie, --env, or --meta")
			}

			if credChanged {
				if err := app.SaveContextCredentials(name, cred); err != nil {
					return app.Fail(err)
				}
			}

			// Always write the file so the context shows up in `context list`.
			if err := app.SaveContextConfig(name, cfg); err != nil {
				return app.Fail(err)
			}

			fmt.Fprintf(os.Stderr, "Context %q updated.\n", name)
			return nil
		},
	}

	cmd.Flags().StringVar(&bearerToken, "bearer-token", "", "backend bearer token (prompts if empty)")
	cmd.Flags().StringArrayVar(&tokens, "token", nil, "add keychain-source token as \"name=value\" or \"name\" to prompt (repeatable)")
	cmd.Flags().StringArrayVar(&headers, "header", nil, "add header as \"Key: Value\" (repeatable)")
	cmd.Flags().StringArrayVar(&cookies, "cookie", nil, "add cookie as \"Key=Value\" (repeatable)")
	cmd.Flags().StringArrayVar(&envVars, "env", nil, "add env var as \"VAR=value\" (repeatable)")
	cmd.Flags().StringArrayVar(&metaEntries, "meta", nil, "add metadata as \"key=value\" (repeatable)")

	return cmd
}

func newContextRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <name>",
		Aliases: []string{"rm"},
		Short:   "Remove a named context",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if !app.ContextExists(name) {
				return app.Fail(fmt.Errorf("context %q not found", name))
			}
			if err := app.DeleteContext(name); err != nil {
				return app.Fail(err)
			}
			fmt.Fprintf(os.Stderr, "Context %q removed.\n", name)
			return nil
		},
	}
}
