// Package backend talks to the flowlight backend: free-text flow search,
// chat completion and the project's configured search hooks.
package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/carlmjohnson/requests"
	"go.uber.org/zap"

	"github.com/flowvana/flowlight/internal/flows"
	"github.com/flowvana/flowlight/internal/search"
)

// Endpoint paths, relative to the base URL.
const (
	PathQuery       = "/query"
	PathChat        = "/query/chat"
	PathSearchHooks = "/search-hooks"
)

// ErrNoBaseURL is returned when the client has no backend to talk to.
var ErrNoBaseURL = errors.New("backend base URL is not configured")

// Client is a backend API client scoped to one project.
type Client struct {
	baseURL   string
	projectID string
	token     string
	headers   map[string]string
	client    *http.Client
	logger    *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithToken sends a bearer token with every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHeaders adds extra headers to every request.
func WithHeaders(h map[string]string) Option {
	return func(c *Client) { c.headers = h }
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns a client for baseURL and projectID.
func New(baseURL, projectID string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		projectID: projectID,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ProjectID returns the project the client is scoped to.
func (c *Client) ProjectID() string { return c.projectID }

func (c *Client) request(path string) (*requests.Builder, error) {
	if c.baseURL == "" {
		return nil, ErrNoBaseURL
	}
	rb := requests.URL(c.baseURL + path).Param("project_id", c.projectID)
	if c.client != nil {
		rb = rb.Client(c.client)
	}
	if c.token != "" {
		rb = rb.Bearer(c.token)
	}
	for k, v := range c.headers {
		rb = rb.Header(k, v)
	}
	return rb, nil
}

type queryRequest struct {
	Query string `json:"query"`
}

type queryResponse struct {
	Results []search.Result `json:"results"`
}

// QueryFlows runs the free-text flow search.
func (c *Client) QueryFlows(ctx context.Context, query string) ([]search.Result, error) {
	rb, err := c.request(PathQuery)
	if err != nil {
		return nil, err
	}
	var resp queryResponse
	if err := rb.Post().BodyJSON(queryRequest{Query: query}).ToJSON(&resp).Fetch(ctx); err != nil {
		c.logger.Error("flow query failed", zap.String("query", query), zap.Error(err))
		return nil, fmt.Errorf("query flows: %w", err)
	}
	return resp.Results, nil
}

// ChatRequest is the body sent to the chat endpoint.
type ChatRequest struct {
	Query string          `json:"query"`
	Flows []flows.Summary `json:"flows"`
}

// ChatResponse is either a completion or a flow to trigger.
type ChatResponse struct {
	Completion string         `json:"completion,omitempty"`
	FlowName   string         `json:"flow_name,omitempty"`
	Inputs     map[string]any `json:"inputs,omitempty"`
}

// SendChat asks the chat endpoint to answer query, offering the given
// flows as tools.
func (c *Client) SendChat(ctx context.Context, query string, available []flows.Summary) (*ChatResponse, error) {
	rb, err := c.request(PathChat)
	if err != nil {
		return nil, err
	}
	if available == nil {
		available = []flows.Summary{}
	}
	var resp ChatResponse
	if err := rb.Post().BodyJSON(ChatRequest{Query: query, Flows: available}).ToJSON(&resp).Fetch(ctx); err != nil {
		c.logger.Error("chat request failed", zap.Error(err))
		return nil, fmt.Errorf("send chat: %w", err)
	}
	return &resp, nil
}

type searchHooksResponse struct {
	Success     bool                 `json:"success"`
	Message     string               `json:"message"`
	SearchHooks []search.SpaceConfig `json:"search_hooks"`
	TotalCount  int                  `json:"total_count"`
}

// ListSearchHooks returns the project's search hooks as space configs.
func (c *Client) ListSearchHooks(ctx context.Context) ([]search.SpaceConfig, error) {
	rb, err := c.request(PathSearchHooks)
	if err != nil {
		return nil, err
	}
	var resp searchHooksResponse
	if err := rb.ToJSON(&resp).Fetch(ctx); err != nil {
		return nil, fmt.Errorf("list search hooks: %w", err)
	}
	if !resp.Success && resp.Message != "" {
		return nil, fmt.Errorf("list search hooks: %s", resp.Message)
	}
	c.logger.Debug("search hooks loaded", zap.Int("count", len(resp.SearchHooks)), zap.Int("total", resp.TotalCount))
	return resp.SearchHooks, nil
}
