package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	apiVersion      = "2022-11-28"
	maxResponseSize = 1 << 20
)

// NewClient creates a new GitHub client.
func NewClient(token, owner, repo string) *Client {
	return &Client{
		Token:   token,
		Owner:   owner,
		Repo:    repo,
		BaseURL: DefaultAPIEndpoint,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// WithHTTPClient returns a new client with a custom HTTP client.
func (c *Client) WithHTTPClient(httpClient *http.Client) *Client {
	cp := *c
	cp.HTTPClient = httpClient
	return &cp
}

// WithBaseURL returns a new client with a custom base URL (for testing or GitHub Enterprise).
func (c *Client) WithBaseURL(baseURL string) *Client {
	cp := *c
	cp.BaseURL = strings.TrimSuffix(baseURL, "/")
	return &cp
}

// repoPath returns the "owner/repo" path segment.
func (c *Client) repoPath() string {
	return c.Owner + "/" + c.Repo
}

// DispatchIssue fires eventType with the issue key as client payload, so a
// workflow can pick up github.event.client_payload.issue_key.
func (c *Client) DispatchIssue(ctx context.Context, eventType, issueKey string) error {
	if eventType == "" {
		eventType = DefaultEventType
	}
	return c.Dispatch(ctx, DispatchRequest{
		EventType:     eventType,
		ClientPayload: map[string]any{"issue_key": issueKey},
	})
}

// Dispatch sends a repository_dispatch event. GitHub answers 204 on success.
func (c *Client) Dispatch(ctx context.Context, req DispatchRequest) error {
	if c.Owner == "" || c.Repo == "" {
		return fmt.Errorf("github owner and repo must be configured")
	}
	urlStr := c.BaseURL + "/repos/" + c.repoPath() + "/dispatches"
	if _, err := c.doRequest(ctx, http.MethodPost, urlStr, req); err != nil {
		return fmt.Errorf("dispatch %s to %s: %w", req.EventType, c.repoPath(), err)
	}
	return nil
}

// rateLimited is a retryable answer; wait is the server's Retry-After hint.
type rateLimited struct {
	status int
	wait   time.Duration
}

func (e *rateLimited) Error() string {
	return fmt.Sprintf("rate limited (status %d)", e.status)
}

// hintedBackOff prefers the server's Retry-After over the exponential delay.
type hintedBackOff struct {
	backoff.BackOff
	hint *time.Duration
}

func (b *hintedBackOff) NextBackOff() time.Duration {
	next := b.BackOff.NextBackOff()
	if next == backoff.Stop || *b.hint < 0 {
		return next
	}
	wait := *b.hint
	*b.hint = -1
	return wait
}

// doRequest sends one authenticated JSON request, retrying while GitHub
// reports rate limiting (429, or 403 with no quota left).
func (c *Client) doRequest(ctx context.Context, method, urlStr string, body interface{}) ([]byte, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
	}

	var respBody []byte
	attempts := 0
	hint := time.Duration(-1)
	op := func() error {
		attempts++
		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, urlStr, reqBody)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create request: %w", err))
		}
		req.Header.Set("Authorization", "Bearer "+c.Token)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/vnd.github+json")
		req.Header.Set("X-GitHub-Api-Version", apiVersion)

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("request failed: %w", err))
		}
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		_ = resp.Body.Close()
		if err != nil {
			return backoff.Permanent(fmt.Errorf("read response: %w", err))
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests,
			resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0":
			rl := &rateLimited{status: resp.StatusCode, wait: -1}
			if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs >= 0 {
				rl.wait = time.Duration(secs) * time.Second
			}
			hint = rl.wait
			return rl
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			return backoff.Permanent(&APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))})
		}
		respBody = data
		return nil
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = RetryDelay
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(&hintedBackOff{BackOff: exp, hint: &hint}, MaxRetries), ctx)

	if err := backoff.Retry(op, policy); err != nil {
		var rl *rateLimited
		if errors.As(err, &rl) {
			return nil, fmt.Errorf("gave up after %d attempts: %w", attempts, err)
		}
		return nil, err
	}
	return respBody, nil
}

// APIError is a non-2xx answer.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: %s (status %d)", e.Body, e.StatusCode)
}
