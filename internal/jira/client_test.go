package jira

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ayerma/assistant/internal/tracker"
)

const issueJSON = `{
  "id": "10001",
  "key": "PROJ-42",
  "fields": {
    "summary": "Checkout flow",
    "description": {"type":"doc","version":1,"content":[{"type":"paragraph","content":[{"type":"text","text":"Pay with card"}]}]},
    "issuetype": {"name": "Story"},
    "project": {"key": "PROJ"},
    "parent": {"key": "PROJ-1", "fields": {"summary": "Payments", "issuetype": {"name": "Epic"}}},
    "subtasks": [{"key": "PROJ-43", "fields": {"summary": "[Question] Which PSP?", "issuetype": {"name": "Sub-task"}, "status": {"name": "Done"}}}],
    "comment": {"total": 1, "comments": [{"id": "c1", "author": {"displayName": "Ana"}, "body": {"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"Looks good"}]}]}, "created": "2024-01-15T10:30:00.000+0000"}]},
    "issuelinks": [
      {"id": "l1", "type": {"name": "Blocks", "inward": "is blocked by", "outward": "blocks"}, "inwardIssue": {"key": "PROJ-7", "fields": {"summary": "API ready"}}},
      {"id": "l2", "type": {"name": "Relates", "inward": "relates to", "outward": "relates to"}, "outwardIssue": {"key": "PROJ-8", "fields": {"summary": "Docs"}}}
    ],
    "status": {"name": "In Progress"},
    "labels": ["payments"]
  }
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", "me@example.com", "secret")
}

func TestNewClient(t *testing.T) {
	c := NewClient("https://company.atlassian.net/", "user", "token")
	if c.URL != "https://company.atlassian.net" {
		t.Errorf("URL = %q, want trailing slash trimmed", c.URL)
	}
	if c.HTTPClient == nil {
		t.Error("HTTPClient is nil")
	}
}

func TestFetchIssue(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/rest/api/3/issue/PROJ-42" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("fields"); !strings.Contains(got, "issuelinks") {
			t.Errorf("fields = %q, want issuelinks requested", got)
		}
		want := "Basic " + base64.StdEncoding.EncodeToString([]byte("me@example.com:secret"))
		if got := r.Header.Get("Authorization"); got != want {
			t.Errorf("Authorization = %q, want %q", got, want)
		}
		_, _ = io.WriteString(w, issueJSON)
	})

	tk, err := c.FetchIssue(context.Background(), "PROJ-42")
	if err != nil {
		t.Fatalf("FetchIssue: %v", err)
	}
	if tk.Key != "PROJ-42" || tk.Kind != "Story" || tk.Project != "PROJ" || tk.ParentKey != "PROJ-1" {
		t.Errorf("ticket = %+v", tk)
	}
	if got := tk.DescriptionText(); got != "Pay with card" {
		t.Errorf("description = %q", got)
	}
	if len(tk.Subtasks) != 1 || tk.Subtasks[0].Status != "Done" {
		t.Errorf("subtasks = %+v", tk.Subtasks)
	}
	if c := tk.LatestComment(); c == nil || c.Author != "Ana" {
		t.Errorf("latest comment = %+v", c)
	}
	if len(tk.Links) != 2 {
		t.Fatalf("links = %+v", tk.Links)
	}
	if tk.Links[0].Relation != "is blocked by" || tk.Links[0].Issue.Key != "PROJ-7" {
		t.Errorf("links[0] = %+v", tk.Links[0])
	}
	if tk.Links[1].Relation != "relates to" || tk.Links[1].Issue.Key != "PROJ-8" {
		t.Errorf("links[1] = %+v", tk.Links[1])
	}
}

func TestFetchIssueNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errorMessages":["Issue does not exist"]}`, http.StatusNotFound)
	})

	_, err := c.FetchIssue(context.Background(), "PROJ-404")
	if !errors.Is(err, tracker.ErrNotFound) {
		t.Fatalf("err = %v, want tracker.ErrNotFound", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("err = %v, want *APIError with 404", err)
	}
	if !strings.Contains(err.Error(), "PROJ-404") {
		t.Errorf("error %q should name the key", err)
	}
}

func TestCreateSubIssue(t *testing.T) {
	var got map[string]map[string]interface{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/rest/api/3/issue" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"2","key":"PROJ-44","self":"x"}`)
	})

	key, err := c.CreateSubIssue(context.Background(), "PROJ", "Sub-task", "PROJ-42", "Question 1", "What?\nWhy?")
	if err != nil {
		t.Fatalf("CreateSubIssue: %v", err)
	}
	if key != "PROJ-44" {
		t.Errorf("key = %q", key)
	}
	fields := got["fields"]
	if fields["summary"] != "Question 1" {
		t.Errorf("summary = %v", fields["summary"])
	}
	if p := fields["parent"].(map[string]interface{}); p["key"] != "PROJ-42" {
		t.Errorf("parent = %v", p)
	}
	if it := fields["issuetype"].(map[string]interface{}); it["name"] != "Sub-task" {
		t.Errorf("issuetype = %v", it)
	}
	desc := fields["description"].(map[string]interface{})
	if desc["type"] != "doc" || len(desc["content"].([]interface{})) != 2 {
		t.Errorf("description = %v", desc)
	}
}

func TestCreateIssueSkipsBlankDescription(t *testing.T) {
	var got map[string]map[string]interface{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = io.WriteString(w, `{"key":"PROJ-45"}`)
	})
	if _, err := c.CreateIssue(context.Background(), "PROJ", "Task", "t", "  "); err != nil {
		t.Fatalf("CreateIssue: %v", err)
	}
	if _, ok := got["fields"]["description"]; ok {
		t.Error("blank body should not send a description")
	}
}

func TestCreateIssueError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":{"issuetype":"invalid"}}`, http.StatusBadRequest)
	})
	_, err := c.CreateIssue(context.Background(), "PROJ", "Nope", "t", "b")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("err = %v, want 400 APIError", err)
	}
	if errors.Is(err, tracker.ErrNotFound) {
		t.Error("400 should not match ErrNotFound")
	}
}

func TestLinkIssues(t *testing.T) {
	var got map[string]map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/3/issueLink" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
	})
	if err := c.LinkIssues(context.Background(), "PROJ-1", "PROJ-2", "Blocks"); err != nil {
		t.Fatalf("LinkIssues: %v", err)
	}
	if got["type"]["name"] != "Blocks" || got["inwardIssue"]["key"] != "PROJ-1" || got["outwardIssue"]["key"] != "PROJ-2" {
		t.Errorf("payload = %v", got)
	}
}

func TestAddCommentAndLabels(t *testing.T) {
	var comment map[string]json.RawMessage
	var labels struct {
		Update struct {
			Labels []map[string]string `json:"labels"`
		} `json:"update"`
	}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/rest/api/3/issue/PROJ-1/comment":
			_ = json.NewDecoder(r.Body).Decode(&comment)
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"id":"9"}`)
		case r.Method == http.MethodPut && r.URL.Path == "/rest/api/3/issue/PROJ-1":
			_ = json.NewDecoder(r.Body).Decode(&labels)
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})
	ctx := context.Background()

	if err := c.AddComment(ctx, "PROJ-1", "hello"); err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	if !strings.Contains(string(comment["body"]), `"text":"hello"`) {
		t.Errorf("comment body = %s", comment["body"])
	}

	if err := c.AddLabels(ctx, "PROJ-1", "interview-content", "ai-generated"); err != nil {
		t.Fatalf("AddLabels: %v", err)
	}
	if len(labels.Update.Labels) != 2 || labels.Update.Labels[1]["add"] != "ai-generated" {
		t.Errorf("labels payload = %+v", labels)
	}

	if err := c.AddLabels(ctx, "PROJ-1"); err != nil {
		t.Errorf("AddLabels with none should be a no-op, got %v", err)
	}
}

func TestRichTextComment(t *testing.T) {
	var comment struct {
		Body struct {
			Content []struct {
				Type string `json:"type"`
			} `json:"content"`
		} `json:"body"`
	}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&comment)
		_, _ = io.WriteString(w, `{}`)
	})
	c.RichText = true
	if err := c.AddComment(context.Background(), "PROJ-1", "# Title\n\n- a\n- b"); err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	if len(comment.Body.Content) != 2 || comment.Body.Content[0].Type != "heading" || comment.Body.Content[1].Type != "bulletList" {
		t.Errorf("rich body = %+v", comment.Body.Content)
	}
}

func TestBearerAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer pat" {
			t.Errorf("Authorization = %q", got)
		}
		_, _ = io.WriteString(w, issueJSON)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "pat")
	if _, err := c.GetIssue(context.Background(), "PROJ-42"); err != nil {
		t.Fatalf("GetIssue: %v", err)
	}
}

func TestMissingConfig(t *testing.T) {
	c := NewClient("", "u", "t")
	if _, err := c.GetIssue(context.Background(), "X-1"); err == nil || !strings.Contains(err.Error(), "URL not configured") {
		t.Errorf("err = %v", err)
	}
	c = NewClient("http://x", "u", "")
	if _, err := c.GetIssue(context.Background(), "X-1"); err == nil || !strings.Contains(err.Error(), "token not configured") {
		t.Errorf("err = %v", err)
	}
}
