package github

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// TestNewClient verifies the constructor creates a properly configured client.
func TestNewClient(t *testing.T) {
	client := NewClient("test-token", "owner", "repo")

	if client.Token != "test-token" {
		t.Errorf("Token = %q, want %q", client.Token, "test-token")
	}
	if client.BaseURL != DefaultAPIEndpoint {
		t.Errorf("BaseURL = %q, want %q", client.BaseURL, DefaultAPIEndpoint)
	}
	if client.HTTPClient == nil {
		t.Error("HTTPClient is nil, want non-nil default client")
	}
}

// TestClientBuilders verifies the With* helpers copy the client.
func TestClientBuilders(t *testing.T) {
	base := NewClient("token", "owner", "repo")
	custom := &http.Client{Timeout: 60 * time.Second}

	c := base.WithHTTPClient(custom).WithBaseURL("https://github.example.com/api/v3/")
	if c.HTTPClient != custom {
		t.Error("HTTPClient not set to custom client")
	}
	if c.BaseURL != "https://github.example.com/api/v3" {
		t.Errorf("BaseURL = %q", c.BaseURL)
	}
	if base.BaseURL != DefaultAPIEndpoint {
		t.Error("WithBaseURL modified the original client")
	}
}

func TestDispatchIssue(t *testing.T) {
	var got DispatchRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/repos/acme/app/dispatches" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer tok" {
			t.Errorf("Authorization = %q", auth)
		}
		if accept := r.Header.Get("Accept"); accept != "application/vnd.github+json" {
			t.Errorf("Accept = %q", accept)
		}
		if v := r.Header.Get("X-GitHub-Api-Version"); v != "2022-11-28" {
			t.Errorf("X-GitHub-Api-Version = %q", v)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient("tok", "acme", "app").WithBaseURL(server.URL)
	if err := client.DispatchIssue(context.Background(), "", "APP-7"); err != nil {
		t.Fatalf("DispatchIssue: %v", err)
	}
	if got.EventType != DefaultEventType {
		t.Errorf("event_type = %q", got.EventType)
	}
	if got.ClientPayload["issue_key"] != "APP-7" {
		t.Errorf("client_payload = %v", got.ClientPayload)
	}
}

func TestDispatchErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	err := NewClient("tok", "acme", "app").WithBaseURL(server.URL).DispatchIssue(context.Background(), "custom", "APP-1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		t.Fatalf("err = %v, want APIError 404", err)
	}
}

func TestDispatchRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	if err := NewClient("tok", "acme", "app").WithBaseURL(server.URL).DispatchIssue(context.Background(), "e", "APP-1"); err != nil {
		t.Fatalf("DispatchIssue: %v", err)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("calls = %d, want 2", n)
	}
}

func TestDispatchRequiresRepo(t *testing.T) {
	if err := NewClient("tok", "", "").DispatchIssue(context.Background(), "e", "APP-1"); err == nil {
		t.Error("expected error without owner/repo")
	}
}
