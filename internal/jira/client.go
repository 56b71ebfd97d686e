package jira

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ayerma/assistant/internal/adf"
	"github.com/ayerma/assistant/internal/tracker"
)

// issueFields is the set of fields requested when reading an issue.
const issueFields = "summary,description,issuetype,project,parent,subtasks,comment,issuelinks,status,resolution,labels"

// APIError is returned for any non-2xx response.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("jira API returned %d for %s %s: %s", e.StatusCode, e.Method, e.Path, strings.TrimSpace(e.Body))
}

// Is lets errors.Is(err, tracker.ErrNotFound) match a 404.
func (e *APIError) Is(target error) bool {
	return target == tracker.ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Client provides HTTP access to a Jira instance.
type Client struct {
	URL        string
	Username   string
	APIToken   string
	HTTPClient *http.Client
	// RichText renders bodies as Markdown instead of one paragraph per line.
	RichText bool
}

// NewClient creates a new Jira client.
func NewClient(url, username, apiToken string) *Client {
	return &Client{
		URL:      strings.TrimSuffix(url, "/"),
		Username: username,
		APIToken: apiToken,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetIssue fetches a single Jira issue by key (e.g., "PROJ-123").
func (c *Client) GetIssue(ctx context.Context, key string) (*Issue, error) {
	apiURL := fmt.Sprintf("%s/rest/api/3/issue/%s?fields=%s", c.URL, url.PathEscape(key), issueFields)

	body, err := c.doRequest(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("get issue %s: %w", key, err)
	}

	var issue Issue
	if err := json.Unmarshal(body, &issue); err != nil {
		return nil, fmt.Errorf("parse issue response: %w", err)
	}

	return &issue, nil
}

// FetchIssue implements tracker.Client.
func (c *Client) FetchIssue(ctx context.Context, key string) (*tracker.Ticket, error) {
	issue, err := c.GetIssue(ctx, key)
	if err != nil {
		return nil, err
	}
	return ToTicket(issue), nil
}

// CreateIssue creates a top-level issue and returns its key.
func (c *Client) CreateIssue(ctx context.Context, project, kind, summary, body string) (string, error) {
	return c.create(ctx, c.createFields(project, kind, summary, body))
}

// CreateSubIssue creates an issue whose parent is parentKey.
func (c *Client) CreateSubIssue(ctx context.Context, project, kind, parentKey, summary, body string) (string, error) {
	fields := c.createFields(project, kind, summary, body)
	fields["parent"] = map[string]string{"key": parentKey}
	key, err := c.create(ctx, fields)
	if err != nil {
		return "", fmt.Errorf("under %s: %w", parentKey, err)
	}
	return key, nil
}

func (c *Client) createFields(project, kind, summary, body string) map[string]interface{} {
	fields := map[string]interface{}{
		"project":   map[string]string{"key": project},
		"issuetype": map[string]string{"name": kind},
		"summary":   summary,
	}
	if strings.TrimSpace(body) != "" {
		fields["description"] = c.document(body)
	}
	return fields
}

func (c *Client) create(ctx context.Context, fields map[string]interface{}) (string, error) {
	data, err := json.Marshal(map[string]interface{}{"fields": fields})
	if err != nil {
		return "", fmt.Errorf("marshal create request: %w", err)
	}

	body, err := c.doRequest(ctx, http.MethodPost, c.URL+"/rest/api/3/issue", data)
	if err != nil {
		return "", fmt.Errorf("create issue: %w", err)
	}

	// Create response only returns id, key, self.
	var created struct {
		ID   string `json:"id"`
		Key  string `json:"key"`
		Self string `json:"self"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("parse create response: %w", err)
	}
	if created.Key == "" {
		return "", fmt.Errorf("create issue: response carried no key")
	}
	return created.Key, nil
}

// LinkIssues links fromKey (inward) to toKey (outward) with the named type.
func (c *Client) LinkIssues(ctx context.Context, fromKey, toKey, linkType string) error {
	payload := map[string]interface{}{
		"type":         map[string]string{"name": linkType},
		"inwardIssue":  map[string]string{"key": fromKey},
		"outwardIssue": map[string]string{"key": toKey},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal link request: %w", err)
	}
	if _, err := c.doRequest(ctx, http.MethodPost, c.URL+"/rest/api/3/issueLink", data); err != nil {
		return fmt.Errorf("link %s -> %s (%s): %w", fromKey, toKey, linkType, err)
	}
	return nil
}

// AddComment posts a comment on key.
func (c *Client) AddComment(ctx context.Context, key, body string) error {
	data, err := json.Marshal(map[string]interface{}{"body": c.document(body)})
	if err != nil {
		return fmt.Errorf("marshal comment request: %w", err)
	}
	apiURL := fmt.Sprintf("%s/rest/api/3/issue/%s/comment", c.URL, url.PathEscape(key))
	if _, err := c.doRequest(ctx, http.MethodPost, apiURL, data); err != nil {
		return fmt.Errorf("comment on %s: %w", key, err)
	}
	return nil
}

// AddLabels adds labels to key without removing existing ones.
func (c *Client) AddLabels(ctx context.Context, key string, labels ...string) error {
	if len(labels) == 0 {
		return nil
	}
	ops := make([]map[string]string, 0, len(labels))
	for _, l := range labels {
		ops = append(ops, map[string]string{"add": l})
	}
	data, err := json.Marshal(map[string]interface{}{
		"update": map[string]interface{}{"labels": ops},
	})
	if err != nil {
		return fmt.Errorf("marshal label request: %w", err)
	}
	apiURL := fmt.Sprintf("%s/rest/api/3/issue/%s", c.URL, url.PathEscape(key))
	if _, err := c.doRequest(ctx, http.MethodPut, apiURL, data); err != nil {
		return fmt.Errorf("label %s: %w", key, err)
	}
	return nil
}

func (c *Client) document(body string) *adf.Document {
	if c.RichText {
		return adf.FromMarkdown(body)
	}
	return adf.FromText(body)
}

// doRequest executes an authenticated HTTP request and returns the response body.
func (c *Client) doRequest(ctx context.Context, method, apiURL string, body []byte) ([]byte, error) {
	if c.URL == "" {
		return nil, fmt.Errorf("jira URL not configured")
	}
	if c.APIToken == "" {
		return nil, fmt.Errorf("jira API token not configured")
	}

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	c.setAuth(req)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "assistant/1.0")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	// PUT returns 204 No Content on success
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			Method:     method,
			Path:       req.URL.Path,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	return respBody, nil
}

// setAuth sets the appropriate authentication header on the request.
// An email selects basic auth (Jira Cloud); without one the token is a bearer PAT.
func (c *Client) setAuth(req *http.Request) {
	if c.Username != "" {
		auth := base64.StdEncoding.EncodeToString([]byte(c.Username + ":" + c.APIToken))
		req.Header.Set("Authorization", "Basic "+auth)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.APIToken)
	}
}

var _ tracker.Client = (*Client)(nil)
