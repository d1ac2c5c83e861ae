package app

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/flowvana/flowlight/internal/backend"
	"github.com/flowvana/flowlight/internal/flows"
	"github.com/flowvana/flowlight/internal/search"
)

// FlowURLScheme prefixes the URLs of local flow search results.
const FlowURLScheme = "flow:"

// Runtime is the assembled client: one search hook, one flow registry and
// an optional backend, all built from a config and a context.
type Runtime struct {
	Config  *Config
	Context Context
	Hook    *search.Hook
	Flows   *flows.Registry
	// Backend is nil when the config has no base_url.
	Backend *backend.Client
	Logger  *zap.Logger
}

// RuntimeOptions tunes NewRuntime.
type RuntimeOptions struct {
	Logger     *zap.Logger
	HTTPClient *http.Client
	// Functions extends the built-in step functions.
	Functions map[string]flows.Func
}

// LoadRuntime loads the config at configPath and the context it (or
// contextName) names, then builds the runtime. A context named only by the
// config is skipped when it does not exist yet.
func LoadRuntime(configPath, contextName string, opts RuntimeOptions) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if contextName == "" && cfg.Context != "" {
		// The config's default context is optional until someone creates it.
		if ContextExists(cfg.Context) {
			contextName = cfg.Context
		} else if opts.Logger != nil {
			opts.Logger.Debug("configured context not found", zap.String("context", cfg.Context))
		}
	}
	var ctx Context
	if contextName != "" {
		if ctx, err = GetContext(contextName); err != nil {
			return nil, err
		}
	}
	return NewRuntime(cfg, ctx, opts)
}

// NewRuntime builds the hook, registry and backend client.
func NewRuntime(cfg *Config, ctx Context, opts RuntimeOptions) (*Runtime, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tokens := ctx.Resolver()

	spaceOpts := []search.SpaceOption{search.WithLogger(logger), search.WithTokenSource(tokens)}
	if opts.HTTPClient != nil {
		spaceOpts = append(spaceOpts, search.WithHTTPClient(opts.HTTPClient))
	}
	hook := search.NewHook(cfg.SearchHook, spaceOpts...)
	if err := hook.InitializeSpaces(cfg.Spaces); err != nil {
		return nil, fmt.Errorf("search spaces: %w", err)
	}

	fns := builtinFunctions(logger)
	for name, fn := range opts.Functions {
		fns[name] = fn
	}
	built, err := flows.FromConfigs(cfg.Flows, flows.Options{
		Functions:  fns,
		Tokens:     tokens,
		HTTPClient: opts.HTTPClient,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	registry := flows.NewRegistry()
	if err := registry.RegisterAll(built); err != nil {
		return nil, err
	}

	rt := &Runtime{
		Config:  cfg,
		Context: ctx,
		Hook:    hook,
		Flows:   registry,
		Logger:  logger,
	}
	if cfg.BaseURL != "" {
		bopts := []backend.Option{
			backend.WithToken(ctx.BearerToken()),
			backend.WithHeaders(ctx.Headers),
			backend.WithLogger(logger),
		}
		if opts.HTTPClient != nil {
			bopts = append(bopts, backend.WithHTTPClient(opts.HTTPClient))
		}
		rt.Backend = backend.New(cfg.BaseURL, cfg.ProjectID, bopts...)
	}
	return rt, nil
}

// QueryFlows runs the free-text search. Without a backend it searches the
// local registry instead.
func (rt *Runtime) QueryFlows(ctx context.Context, query string) ([]search.Result, error) {
	if rt.Backend != nil {
		return rt.Backend.QueryFlows(ctx, query)
	}
	found := rt.Flows.Find(query)
	out := make([]search.Result, 0, len(found))
	for _, f := range found {
		desc := f.Description
		if desc == "" {
			desc = search.NoDescription
		}
		out = append(out, search.Result{URL: FlowURLScheme + f.Name, Title: f.Name, Description: desc})
	}
	return out, nil
}

// SyncSpaces replaces the spaces with the backend's search hooks and
// records them in the config. The caller decides whether to save it.
func (rt *Runtime) SyncSpaces(ctx context.Context) ([]search.SpaceConfig, error) {
	if rt.Backend == nil {
		return nil, backend.ErrNoBaseURL
	}
	cfgs, err := rt.Backend.ListSearchHooks(ctx)
	if err != nil {
		return nil, err
	}
	if err := rt.Hook.InitializeSpaces(cfgs); err != nil {
		return nil, err
	}
	rt.Config.Spaces = cfgs
	rt.Logger.Info("spaces synced", zap.Int("count", len(cfgs)))
	return cfgs, nil
}

// builtinFunctions are the step functions available to every config.
func builtinFunctions(logger *zap.Logger) map[string]flows.Func {
	return map[string]flows.Func{
		"echo": func(_ context.Context, inputs map[string]any) (any, error) {
			return inputs, nil
		},
		"log": func(_ context.Context, inputs map[string]any) (any, error) {
			logger.Info("flow log step", zap.Any("inputs", inputs))
			return nil, nil
		},
	}
}
