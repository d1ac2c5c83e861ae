package flows

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/carlmjohnson/requests"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/flowvana/flowlight/internal/auth"
	"github.com/flowvana/flowlight/internal/execref"
)

// Step kinds.
const (
	KindFunction = "function"
	KindAPI      = "api"
)

// Step is one unit of work in a flow.
type Step interface {
	Name() string
	Kind() string
	Execute(ctx context.Context, inputs map[string]any) (any, error)
}

// Func is the callback behind a FunctionStep.
type Func func(ctx context.Context, inputs map[string]any) (any, error)

// FunctionStep runs a Go callback.
type FunctionStep struct {
	StepName string
	Fn       Func
}

func (s *FunctionStep) Name() string { return s.StepName }
func (s *FunctionStep) Kind() string { return KindFunction }

// Execute calls the callback with inputs.
func (s *FunctionStep) Execute(ctx context.Context, inputs map[string]any) (any, error) {
	if s.Fn == nil {
		return nil, fmt.Errorf("function step %q has no function", s.StepName)
	}
	return s.Fn(ctx, inputs)
}

// CommandFunc builds a Func that runs a command reference with the inputs
// as JSON on stdin.
func CommandFunc(ref string) (Func, error) {
	argv, err := execref.Parse(ref)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, inputs map[string]any) (any, error) {
		return execref.Run(ctx, argv, inputs)
	}, nil
}

// FieldSchema declares one payload field of an API step.
type FieldSchema struct {
	Type        string `json:"type,omitempty" yaml:"type,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool   `json:"required,omitempty" yaml:"required,omitempty"`
	Default     any    `json:"default,omitempty" yaml:"default,omitempty"`
}

// MissingRequiredFieldError is returned when a required payload field has
// neither an input nor a default.
type MissingRequiredFieldError struct {
	Field string
}

func (e *MissingRequiredFieldError) Error() string {
	return "Missing required field: " + e.Field
}

// APIStep makes one HTTP call with a payload built from its schema.
type APIStep struct {
	StepName      string
	Method        string
	URL           string
	Auth          *auth.Config
	PayloadSchema map[string]FieldSchema

	client *http.Client
	tokens TokenSource
	logger *zap.Logger
}

func (s *APIStep) Name() string { return s.StepName }
func (s *APIStep) Kind() string { return KindAPI }

// BuildPayload selects the declared fields from inputs. A present input
// wins even when null; otherwise a required field without a default is an
// error; otherwise the default, if any, is used. Undeclared inputs are
// dropped.
func (s *APIStep) BuildPayload(inputs map[string]any) (map[string]any, error) {
	payload := make(map[string]any, len(s.PayloadSchema))
	for _, key := range sortedFieldNames(s.PayloadSchema) {
		field := s.PayloadSchema[key]
		if v, ok := inputs[key]; ok {
			payload[key] = v
			continue
		}
		if field.Required && field.Default == nil {
			return nil, &MissingRequiredFieldError{Field: key}
		}
		if field.Default != nil {
			payload[key] = field.Default
		}
	}
	return payload, nil
}

// Execute builds the payload, then calls the endpoint. The decoded JSON
// response is returned; an empty body yields nil.
func (s *APIStep) Execute(ctx context.Context, inputs map[string]any) (any, error) {
	payload, err := s.BuildPayload(inputs)
	if err != nil {
		return nil, err
	}

	method := strings.ToUpper(strings.TrimSpace(s.Method))
	if method == "" {
		method = http.MethodPost
	}

	rb := requests.URL(s.URL).Method(method).BodyJSON(payload)
	if s.client != nil {
		rb = rb.Client(s.client)
	}
	if token := s.token(); token != "" {
		rb = rb.Bearer(token)
	}

	var body string
	if err := rb.ToString(&body).Fetch(ctx); err != nil {
		return nil, fmt.Errorf("API call failed: %w", err)
	}

	raw := strings.TrimSpace(body)
	if raw == "" {
		return nil, nil
	}
	var out any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}

// token resolves the optional bearer token. A missing token is not an
// error: the call goes out unauthenticated.
func (s *APIStep) token() string {
	if s.Auth == nil || s.tokens == nil {
		return ""
	}
	token, err := s.tokens.Token(s.Auth)
	if err != nil {
		if !auth.IsMissing(err) {
			s.log().Warn("reading step token", zap.String("step", s.StepName), zap.Error(err))
		} else {
			s.log().Debug("no token for step", zap.String("step", s.StepName), zap.Error(err))
		}
		return ""
	}
	return token
}

func (s *APIStep) log() *zap.Logger {
	if s.logger == nil {
		return zap.NewNop()
	}
	return s.logger
}

func sortedFieldNames(fields map[string]FieldSchema) []string {
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

var errNoStepTarget = errors.New("invalid step configuration: must have either 'fn' or 'command' (function steps) or 'url' (API steps)")
