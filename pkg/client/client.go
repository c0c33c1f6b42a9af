// Package client talks to the task REST backend. It implements store.Repository
// and turns every failure into an *apierr.Error.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harrisonrobin/tasksync/pkg/apierr"
	"github.com/harrisonrobin/tasksync/pkg/auth"
	"github.com/harrisonrobin/tasksync/pkg/model"
)

const RequestIDHeader = "X-Request-ID"

// Client is a REST client for the /tasks API.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	token   string
	timeout time.Duration
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken authenticates every request with a bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithTimeout bounds each request. Zero leaves requests bounded only by their context.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New creates a client for the backend at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", baseURL)
	}
	c := &Client{baseURL: u, http: http.DefaultClient}
	for _, opt := range opts {
		opt(c)
	}
	if c.token != "" {
		c.http = auth.BearerClient(context.Background(), c.token, c.http)
	}
	return c, nil
}

// List fetches every task.
func (c *Client) List(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	err := c.do(ctx, "list", http.MethodGet, "/tasks", nil, nil, &tasks)
	return tasks, err
}

// ListByStatus fetches the tasks whose status is pending or completed.
func (c *Client) ListByStatus(ctx context.Context, status string) ([]model.Task, error) {
	var tasks []model.Task
	q := url.Values{"status": {status}}
	err := c.do(ctx, "list_by_status", http.MethodGet, "/tasks", q, nil, &tasks)
	return tasks, err
}

// Upcoming fetches pending tasks due soon, as decided by the backend.
func (c *Client) Upcoming(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	err := c.do(ctx, "upcoming", http.MethodGet, "/tasks/upcoming", nil, nil, &tasks)
	return tasks, err
}

// Overdue fetches pending tasks whose due date has passed.
func (c *Client) Overdue(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	err := c.do(ctx, "overdue", http.MethodGet, "/tasks/overdue", nil, nil, &tasks)
	return tasks, err
}

func (c *Client) Get(ctx context.Context, id model.ID) (model.Task, error) {
	var task model.Task
	err := c.do(ctx, "get", http.MethodGet, taskPath(id), nil, nil, &task)
	return task, err
}

// Create sends a task without id and returns it with the id the backend assigned.
func (c *Client) Create(ctx context.Context, task model.Task) (model.Task, error) {
	task.ID = ""
	var created model.Task
	err := c.do(ctx, "create", http.MethodPost, "/tasks", nil, task, &created)
	return created, err
}

// Update replaces the task with the given id by task.
func (c *Client) Update(ctx context.Context, id model.ID, task model.Task) (model.Task, error) {
	task.ID = id
	var updated model.Task
	err := c.do(ctx, "update", http.MethodPut, taskPath(id), nil, task, &updated)
	return updated, err
}

func (c *Client) Delete(ctx context.Context, id model.ID) error {
	return c.do(ctx, "delete", http.MethodDelete, taskPath(id), nil, nil, nil)
}

// ToggleRequest tells the backend which completion state the task is leaving.
type ToggleRequest struct {
	PreviousCompleted bool `json:"previousCompleted"`
}

func (c *Client) ToggleComplete(ctx context.Context, id model.ID, previousCompleted bool) (model.Task, error) {
	var updated model.Task
	body := ToggleRequest{PreviousCompleted: previousCompleted}
	err := c.do(ctx, "toggle", http.MethodPut, taskPath(id)+"/toggle", nil, body, &updated)
	return updated, err
}

func taskPath(id model.ID) string {
	return "/tasks/" + url.PathEscape(id.String())
}

// ErrorBody is the JSON error reply of the backend.
type ErrorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, in, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	u.RawQuery = query.Encode()

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return &apierr.Error{Kind: apierr.KindValidation, Op: op, Message: "could not encode task", Err: err}
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return apierr.Network(op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apierr.Network(op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return apierr.Network(op, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb ErrorBody
		_ = json.Unmarshal(data, &eb)
		return apierr.FromStatus(op, resp.StatusCode, eb.Error, eb.Fields)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apierr.Network(op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}
