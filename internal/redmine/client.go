// Package redmine is a small client for the Redmine REST API.
package redmine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds every call. Calls are never retried.
const DefaultTimeout = 30 * time.Second

const (
	apiKeyHeader = "X-Redmine-API-Key"
	pageSize     = 100
)

// ErrTransport wraps network failures and timeouts
var ErrTransport = errors.New("redmine transport failure")

// APIError is a non-2xx response from Redmine
type APIError struct {
	StatusCode int
	Messages   []string
}

func (e *APIError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("redmine returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("redmine returned status %d: %s", e.StatusCode, strings.Join(e.Messages, "; "))
}

// API is the subset of Redmine used by the sync service
type API interface {
	CreateIssue(ctx context.Context, input IssueInput) (*Issue, error)
	GetIssue(ctx context.Context, id int) (*Issue, error)
	UpdateIssue(ctx context.Context, id int, input IssueInput) error
	ListProjects(ctx context.Context) ([]Project, error)
	TestConnection(ctx context.Context) error
}

// Factory builds an API for a base URL and key
type Factory func(baseURL, apiKey string) API

// NewFactory returns a Factory producing HTTP clients with the given timeout
func NewFactory(timeout time.Duration) Factory {
	return func(baseURL, apiKey string) API {
		return NewClient(baseURL, apiKey, timeout)
	}
}

// Ref is an id/name pair Redmine embeds in issues
type Ref struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Issue is a Redmine issue as returned by the API
type Issue struct {
	ID             int      `json:"id"`
	Project        Ref      `json:"project"`
	Tracker        Ref      `json:"tracker"`
	Status         Ref      `json:"status"`
	Priority       Ref      `json:"priority"`
	Subject        string   `json:"subject"`
	Description    string   `json:"description"`
	DueDate        string   `json:"due_date,omitempty"`
	DoneRatio      int      `json:"done_ratio"`
	EstimatedHours *float64 `json:"estimated_hours,omitempty"`
	SpentHours     *float64 `json:"spent_hours,omitempty"`
	CreatedOn      string   `json:"created_on,omitempty"`
	UpdatedOn      string   `json:"updated_on,omitempty"`
}

// IssueInput is the writable part of an issue. Empty fields are omitted.
type IssueInput struct {
	ProjectID      string   `json:"project_id,omitempty"`
	Subject        string   `json:"subject,omitempty"`
	Description    string   `json:"description,omitempty"`
	EstimatedHours *float64 `json:"estimated_hours,omitempty"`
	DueDate        string   `json:"due_date,omitempty"`
	StatusID       int      `json:"status_id,omitempty"`
	DoneRatio      *int     `json:"done_ratio,omitempty"`
	Notes          string   `json:"notes,omitempty"`
}

// Project is a Redmine project
type Project struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Identifier  string `json:"identifier"`
	Description string `json:"description,omitempty"`
}

type issueEnvelope struct {
	Issue json.RawMessage `json:"issue"`
}

type projectsPage struct {
	Projects   []Project `json:"projects"`
	TotalCount int       `json:"total_count"`
	Offset     int       `json:"offset"`
	Limit      int       `json:"limit"`
}

type errorBody struct {
	Errors []string `json:"errors"`
}

// Client talks to one Redmine instance with one API key
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a client. A non-positive timeout uses DefaultTimeout.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// CreateIssue creates an issue and returns it with its new id
func (c *Client) CreateIssue(ctx context.Context, input IssueInput) (*Issue, error) {
	body, err := json.Marshal(map[string]IssueInput{"issue": input})
	if err != nil {
		return nil, fmt.Errorf("failed to encode issue: %w", err)
	}

	var env issueEnvelope
	if err := c.do(ctx, http.MethodPost, "/issues.json", body, &env); err != nil {
		return nil, err
	}

	var issue Issue
	if err := json.Unmarshal(env.Issue, &issue); err != nil {
		return nil, fmt.Errorf("failed to decode created issue: %w", err)
	}
	return &issue, nil
}

// GetIssue fetches an issue by id
func (c *Client) GetIssue(ctx context.Context, id int) (*Issue, error) {
	var env issueEnvelope
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/issues/%d.json", id), nil, &env); err != nil {
		return nil, err
	}

	var issue Issue
	if err := json.Unmarshal(env.Issue, &issue); err != nil {
		return nil, fmt.Errorf("failed to decode issue: %w", err)
	}
	return &issue, nil
}

// UpdateIssue applies the non-empty fields of input to an issue
func (c *Client) UpdateIssue(ctx context.Context, id int, input IssueInput) error {
	body, err := json.Marshal(map[string]IssueInput{"issue": input})
	if err != nil {
		return fmt.Errorf("failed to encode issue: %w", err)
	}
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/issues/%d.json", id), body, nil)
}

// ListProjects returns every project visible to the key, following pagination
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var projects []Project
	offset := 0
	for {
		var page projectsPage
		path := fmt.Sprintf("/projects.json?limit=%d&offset=%d", pageSize, offset)
		if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
			return nil, err
		}
		projects = append(projects, page.Projects...)
		offset += len(page.Projects)
		if len(page.Projects) == 0 || offset >= page.TotalCount {
			break
		}
	}
	return projects, nil
}

// TestConnection checks that the URL and key can list projects
func (c *Client) TestConnection(ctx context.Context) error {
	var page projectsPage
	return c.do(ctx, http.MethodGet, "/projects.json?limit=1", nil, &page)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out interface{}) error {
	if _, err := url.ParseRequestURI(c.baseURL); err != nil {
		return fmt.Errorf("%w: invalid base URL %q", ErrTransport, c.baseURL)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var eb errorBody
		if err := json.NewDecoder(resp.Body).Decode(&eb); err == nil {
			apiErr.Messages = eb.Errors
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
