// Package flows defines named, multi-step automations that can be run
// from chat or the command line.
package flows

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"

	"github.com/flowvana/flowlight/internal/auth"
)

// ErrInvalidFlowConfig marks configuration errors found while building
// flows.
var ErrInvalidFlowConfig = errors.New("invalid flow config")

// Config is the stored form of a flow.
type Config struct {
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Inputs      map[string]any `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Steps       []StepConfig   `json:"steps,omitempty" yaml:"steps,omitempty"`
}

// StepConfig is the stored form of a step. A step with Fn or Command is a
// function step; otherwise a step with URL is an API step.
type StepConfig struct {
	Type          string                 `json:"type,omitempty" yaml:"type,omitempty"`
	Name          string                 `json:"name" yaml:"name"`
	Fn            string                 `json:"fn,omitempty" yaml:"fn,omitempty"`
	Command       string                 `json:"command,omitempty" yaml:"command,omitempty"`
	URL           string                 `json:"url,omitempty" yaml:"url,omitempty"`
	Method        string                 `json:"method,omitempty" yaml:"method,omitempty"`
	Auth          *auth.Config           `json:"auth,omitempty" yaml:"auth,omitempty"`
	PayloadSchema map[string]FieldSchema `json:"payload_schema,omitempty" yaml:"payload_schema,omitempty"`
}

// TokenSource resolves bearer tokens for API steps.
type TokenSource interface {
	Token(cfg *auth.Config) (string, error)
}

// Options controls how configs become flows.
type Options struct {
	// Functions maps the "fn" names used in configs to callbacks.
	Functions map[string]Func
	// Tokens resolves API step auth. Nil means API steps send no token.
	Tokens     TokenSource
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Flow is a named sequence of steps.
type Flow struct {
	Name        string
	Description string
	Inputs      map[string]any
	Steps       []Step

	logger *zap.Logger

	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
}

// StepResult is the output of one executed step.
type StepResult struct {
	Step   string `json:"step"`
	Kind   string `json:"kind"`
	Output any    `json:"output,omitempty"`
}

// Summary is the description of a flow sent to the chat backend.
type Summary struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Inputs      map[string]any `json:"inputs"`
}

// Summary returns f's chat summary.
func (f *Flow) Summary() Summary {
	inputs := f.Inputs
	if inputs == nil {
		inputs = map[string]any{}
	}
	return Summary{Name: f.Name, Description: f.Description, Inputs: inputs}
}

// Trigger runs the steps in order. The first failing step stops the flow;
// its error is returned wrapped with the step name.
func (f *Flow) Trigger(ctx context.Context, inputs map[string]any) error {
	_, err := f.Run(ctx, inputs)
	return err
}

// Run is Trigger that also returns the outputs of the steps that ran.
func (f *Flow) Run(ctx context.Context, inputs map[string]any) ([]StepResult, error) {
	if inputs == nil {
		inputs = map[string]any{}
	}
	log := f.logger
	if log == nil {
		log = zap.NewNop()
	}

	results := make([]StepResult, 0, len(f.Steps))
	for _, step := range f.Steps {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		out, err := step.Execute(ctx, inputs)
		if err != nil {
			log.Error("step failed", zap.String("flow", f.Name), zap.String("step", step.Name()), zap.Error(err))
			return results, fmt.Errorf("step %q: %w", step.Name(), err)
		}
		log.Debug("step done", zap.String("flow", f.Name), zap.String("step", step.Name()))
		results = append(results, StepResult{Step: step.Name(), Kind: step.Kind(), Output: out})
	}
	return results, nil
}

// InputSchema returns the JSON Schema for the flow's inputs, or nil when
// the flow declares none. Inputs may be a full schema or a map of field
// name to field schema, where a field may carry "required": true.
func (f *Flow) InputSchema() map[string]any {
	if len(f.Inputs) == 0 {
		return nil
	}
	if looksLikeSchema(f.Inputs) {
		return f.Inputs
	}

	props := make(map[string]any, len(f.Inputs))
	var required []string
	for name, raw := range f.Inputs {
		field, ok := raw.(map[string]any)
		if !ok {
			props[name] = map[string]any{}
			continue
		}
		prop := make(map[string]any, len(field))
		for k, v := range field {
			if k == "required" {
				if b, isBool := v.(bool); isBool {
					if b {
						required = append(required, name)
					}
					continue
				}
			}
			prop[k] = v
		}
		props[name] = prop
	}
	sort.Strings(required)

	schema := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func looksLikeSchema(m map[string]any) bool {
	if _, ok := m["$schema"]; ok {
		return true
	}
	if _, ok := m["properties"].(map[string]any); ok {
		return true
	}
	t, ok := m["type"].(string)
	return ok && t == "object"
}

// ValidateInputs checks inputs against InputSchema.
func (f *Flow) ValidateInputs(inputs map[string]any) error {
	if f.InputSchema() == nil {
		return nil
	}
	f.schemaOnce.Do(func() {
		f.schema, f.schemaErr = compileSchema(f.Name, f.InputSchema())
	})
	if f.schemaErr != nil {
		return f.schemaErr
	}

	doc, err := normalize(inputs)
	if err != nil {
		return fmt.Errorf("normalize inputs: %w", err)
	}
	if err := f.schema.Validate(doc); err != nil {
		return fmt.Errorf("invalid inputs for flow %q: %w", f.Name, err)
	}
	return nil
}

func compileSchema(name string, schema map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("flow %q: marshal input schema: %w", name, err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("inputs.json", strings.NewReader(string(b))); err != nil {
		return nil, fmt.Errorf("flow %q: input schema: %w", name, err)
	}
	compiled, err := compiler.Compile("inputs.json")
	if err != nil {
		return nil, fmt.Errorf("flow %q: input schema: %w", name, err)
	}
	return compiled, nil
}

func normalize(v map[string]any) (any, error) {
	if v == nil {
		return map[string]any{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FromConfigs builds flows from configs. The first invalid config fails
// the whole batch.
func FromConfigs(cfgs []Config, opts Options) ([]*Flow, error) {
	out := make([]*Flow, 0, len(cfgs))
	for _, cfg := range cfgs {
		f, err := FromConfig(cfg, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// FromConfig builds one flow.
func FromConfig(cfg Config, opts Options) (*Flow, error) {
	name := cfg.Name
	if name == "" {
		name = "unknown"
	}
	fail := func(err error) error {
		return fmt.Errorf("failed to create flow %q: %w", name, err)
	}

	if strings.TrimSpace(cfg.Name) == "" {
		return nil, fail(fmt.Errorf("%w: flow config must have name", ErrInvalidFlowConfig))
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	steps := make([]Step, 0, len(cfg.Steps))
	for i, sc := range cfg.Steps {
		step, err := newStep(sc, opts, logger)
		if err != nil {
			return nil, fail(fmt.Errorf("step %d: %w", i, err))
		}
		steps = append(steps, step)
	}

	inputs := cfg.Inputs
	if inputs == nil {
		inputs = map[string]any{}
	}
	return &Flow{
		Name:        cfg.Name,
		Description: cfg.Description,
		Inputs:      inputs,
		Steps:       steps,
		logger:      logger,
	}, nil
}

func newStep(sc StepConfig, opts Options, logger *zap.Logger) (Step, error) {
	isFunction := sc.Type == "" || sc.Type == KindFunction
	switch {
	case isFunction && sc.Fn != "":
		fn, ok := opts.Functions[sc.Fn]
		if !ok {
			return nil, fmt.Errorf("%w: unknown function %q", ErrInvalidFlowConfig, sc.Fn)
		}
		return &FunctionStep{StepName: sc.Name, Fn: fn}, nil
	case isFunction && sc.Command != "":
		fn, err := CommandFunc(sc.Command)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFlowConfig, err)
		}
		return &FunctionStep{StepName: sc.Name, Fn: fn}, nil
	case sc.URL != "":
		return &APIStep{
			StepName:      sc.Name,
			Method:        sc.Method,
			URL:           sc.URL,
			Auth:          sc.Auth,
			PayloadSchema: sc.PayloadSchema,
			client:        opts.HTTPClient,
			tokens:        opts.Tokens,
			logger:        logger,
		}, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrInvalidFlowConfig, errNoStepTarget)
}
