// Package search queries remote search spaces and groups them under the
// slash-command search hook.
package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/blues/jsonata-go"
	"github.com/carlmjohnson/requests"
	"go.uber.org/zap"

	"github.com/flowvana/flowlight/internal/auth"
	"github.com/flowvana/flowlight/internal/formula"
	"github.com/flowvana/flowlight/internal/jsonpath"
)

// QueryPlaceholder is replaced by the encoded query text in a space URL.
const QueryPlaceholder = "${query}"

// NoDescription is used when a result item has no usable description.
const NoDescription = "No description available"

var (
	ErrInvalidSpaceConfig = errors.New("invalid search space config")
	ErrAuthTokenMissing   = errors.New("no auth token found")
	ErrHTTPFailure        = errors.New("search request failed")
	ErrMalformedResponse  = errors.New("malformed search response")
)

// SpaceConfig is the stored form of a search space. Keys match the
// backend's search-hook documents.
type SpaceConfig struct {
	ID                     string       `json:"search_hook_id,omitempty" yaml:"search_hook_id,omitempty"`
	Name                   string       `json:"name" yaml:"name"`
	URL                    string       `json:"url" yaml:"url"`
	Description            string       `json:"description,omitempty" yaml:"description,omitempty"`
	Icon                   string       `json:"icon,omitempty" yaml:"icon,omitempty"`
	AuthConfig             *auth.Config `json:"auth_config,omitempty" yaml:"auth_config,omitempty"`
	DataListPath           string       `json:"data_list_path,omitempty" yaml:"data_list_path,omitempty"`
	NavigationURLFormula   string       `json:"navigation_url_formula,omitempty" yaml:"navigation_url_formula,omitempty"`
	NavigationTitleFormula string       `json:"navigation_title_formula,omitempty" yaml:"navigation_title_formula,omitempty"`
	ResultTransform        string       `json:"result_transform,omitempty" yaml:"result_transform,omitempty"`
}

// Result is one navigable search hit.
type Result struct {
	URL         string `json:"url" yaml:"url"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
}

// TokenSource resolves bearer tokens for a space's auth config.
type TokenSource interface {
	Token(cfg *auth.Config) (string, error)
}

// Space is a configured remote search source. Its configuration is
// immutable after NewSpace.
type Space struct {
	cfg       SpaceConfig
	transform *jsonata.Expr

	client *http.Client
	tokens TokenSource
	logger *zap.Logger

	mu      sync.Mutex
	lastErr error
}

// SpaceOption configures a Space.
type SpaceOption func(*Space)

// WithLogger sets the logger used for soft failures.
func WithLogger(l *zap.Logger) SpaceOption {
	return func(s *Space) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithHTTPClient sets the HTTP client used for queries.
func WithHTTPClient(c *http.Client) SpaceOption {
	return func(s *Space) { s.client = c }
}

// WithTokenSource sets the bearer token source.
func WithTokenSource(ts TokenSource) SpaceOption {
	return func(s *Space) { s.tokens = ts }
}

// NewSpace validates cfg and builds a Space.
func NewSpace(cfg SpaceConfig, opts ...SpaceOption) (*Space, error) {
	if strings.TrimSpace(cfg.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidSpaceConfig)
	}
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("%w: space %q: url is required", ErrInvalidSpaceConfig, cfg.Name)
	}

	s := &Space{
		cfg:    cfg,
		tokens: auth.NewResolver(),
		logger: zap.NewNop(),
	}
	if cfg.ResultTransform != "" {
		expr, err := jsonata.Compile(cfg.ResultTransform)
		if err != nil {
			return nil, fmt.Errorf("%w: space %q: result_transform: %v", ErrInvalidSpaceConfig, cfg.Name, err)
		}
		s.transform = expr
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("space", cfg.Name))
	return s, nil
}

// Name returns the space's display name.
func (s *Space) Name() string { return s.cfg.Name }

// ID returns the backend id, possibly empty.
func (s *Space) ID() string { return s.cfg.ID }

// Description returns the configured description.
func (s *Space) Description() string { return s.cfg.Description }

// Icon returns the configured icon.
func (s *Space) Icon() string { return s.cfg.Icon }

// Config returns a copy of the space's configuration.
func (s *Space) Config() SpaceConfig { return s.cfg }

// LastError reports why the most recent Query returned no results, or nil.
func (s *Space) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Space) setLastError(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}

// Query searches the space for text. Failures are logged and recorded in
// LastError; the result is then empty. Results keep source order.
func (s *Space) Query(ctx context.Context, text string) []Result {
	results, _ := s.QueryErr(ctx, text)
	return results
}

// QueryErr is Query that also returns this call's error, which LastError
// cannot guarantee when queries overlap. Results are never nil.
func (s *Space) QueryErr(ctx context.Context, text string) ([]Result, error) {
	results, err := s.query(ctx, text)
	s.setLastError(err)
	if err != nil {
		return []Result{}, err
	}
	return results, nil
}

func (s *Space) query(ctx context.Context, text string) ([]Result, error) {
	token, err := s.tokens.Token(s.cfg.AuthConfig)
	if err != nil {
		s.logger.Warn("no auth token found", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrAuthTokenMissing, err)
	}

	target := BuildURL(s.cfg.URL, text)

	var status int
	var body any
	rb := requests.URL(target)
	if s.client != nil {
		rb = rb.Client(s.client)
	}
	err = rb.
		Bearer(token).
		ContentType("application/json").
		AddValidator(func(res *http.Response) error {
			status = res.StatusCode
			return nil
		}).
		AddValidator(requests.DefaultValidator).
		ToJSON(&body).
		Fetch(ctx)
	if err != nil {
		fields := []zap.Field{zap.String("url", target), zap.Error(err)}
		if status != 0 {
			fields = append(fields, zap.Int("status", status))
		}
		s.logger.Error("search request failed", fields...)
		return nil, fmt.Errorf("%w: %v", ErrHTTPFailure, err)
	}

	if s.transform != nil {
		body, err = s.transform.Eval(body)
		if err != nil {
			s.logger.Error("result transform failed", zap.Error(err))
			return nil, fmt.Errorf("%w: result_transform: %v", ErrMalformedResponse, err)
		}
	}

	items, err := itemList(body, s.cfg.DataListPath)
	if err != nil {
		s.logger.Warn("unexpected response shape", zap.String("data_list_path", s.cfg.DataListPath), zap.Error(err))
		return nil, err
	}

	results := make([]Result, 0, len(items))
	for _, item := range items {
		results = append(results, s.toResult(item))
	}
	s.logger.Debug("search complete", zap.String("url", target), zap.Int("results", len(results)))
	return results, nil
}

func (s *Space) toResult(item any) Result {
	desc := NoDescription
	if m, ok := item.(map[string]any); ok && jsonpath.Truthy(m["description"]) {
		desc = jsonpath.Stringify(m["description"])
	}
	return Result{
		URL:         formula.Render(s.cfg.NavigationURLFormula, item),
		Title:       formula.Render(s.cfg.NavigationTitleFormula, item),
		Description: desc,
	}
}

// itemList extracts the result array from a response body. An empty path
// or "$" selects the whole body.
func itemList(body any, path string) ([]any, error) {
	target := body
	if p := strings.TrimSpace(path); p != "" && p != "$" {
		v, ok := jsonpath.Lookup(body, p)
		if !ok {
			return nil, fmt.Errorf("%w: nothing at %q", ErrMalformedResponse, p)
		}
		target = v
	}
	items, ok := target.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected an array, got %T", ErrMalformedResponse, target)
	}
	return items, nil
}

// BuildURL replaces the first QueryPlaceholder in template with the
// URI-component encoding of text. Later occurrences are left as they are.
func BuildURL(template, text string) string {
	return strings.Replace(template, QueryPlaceholder, EncodeURIComponent(text), 1)
}

var uriComponentUnescapes = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EncodeURIComponent escapes s the way browsers do for a URI component:
// everything except A-Z a-z 0-9 - _ . ! ~ * ' ( ) is percent-encoded.
func EncodeURIComponent(s string) string {
	return uriComponentUnescapes.Replace(url.QueryEscape(s))
}
