// Package github triggers GitHub Actions workflows through repository
// dispatch events.
package github

import (
	"net/http"
	"time"
)

// API configuration constants.
const (
	// DefaultAPIEndpoint is the GitHub REST API base URL.
	DefaultAPIEndpoint = "https://api.github.com"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// MaxRetries is the number of extra attempts on rate limiting.
	MaxRetries = 3

	// RetryDelay is the base delay between rate-limit retries, doubled each time.
	RetryDelay = time.Second

	// DefaultEventType is sent when no event type is configured.
	DefaultEventType = "jira_issue_updated"
)

// Client talks to one repository.
type Client struct {
	Token      string
	Owner      string
	Repo       string
	BaseURL    string
	HTTPClient *http.Client
}

// DispatchRequest is the body of POST /repos/{owner}/{repo}/dispatches.
type DispatchRequest struct {
	EventType     string         `json:"event_type"`
	ClientPayload map[string]any `json:"client_payload,omitempty"`
}
