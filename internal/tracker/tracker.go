// Package tracker defines the issue tracker contract the pipelines depend on,
// plus wrappers that add caching or turn writes into logged no-ops.
package tracker

import (
	"context"
	"errors"
	"strings"

	"github.com/ayerma/assistant/internal/adf"
)

// ErrNotFound is returned by FetchIssue when the key does not exist.
var ErrNotFound = errors.New("issue not found")

// Client is the narrow set of tracker operations used by the pipelines.
// Bodies are plain text; implementations encode them for the wire.
type Client interface {
	// FetchIssue reads one issue with its parent, sub-tasks, comments and links.
	FetchIssue(ctx context.Context, key string) (*Ticket, error)

	// CreateIssue creates a top-level issue and returns its key.
	CreateIssue(ctx context.Context, project, kind, summary, body string) (string, error)

	// CreateSubIssue creates an issue under parentKey and returns its key.
	CreateSubIssue(ctx context.Context, project, kind, parentKey, summary, body string) (string, error)

	// LinkIssues relates two issues. fromKey is the inward side, toKey the outward side.
	LinkIssues(ctx context.Context, fromKey, toKey, linkType string) error

	// AddComment appends a comment to an issue.
	AddComment(ctx context.Context, key, body string) error

	// AddLabels adds labels, keeping the ones already present.
	AddLabels(ctx context.Context, key string, labels ...string) error
}

// Ticket is the tracker's view of one issue.
type Ticket struct {
	Key         string
	ID          string
	Kind        string
	Summary     string
	Description *adf.Document
	Project     string
	ParentKey   string
	Status      string
	Resolution  string
	Labels      []string
	Subtasks    []Ref
	Comments    []Comment
	Links       []Link
}

// Ref is a lightweight pointer to another issue as embedded in a ticket.
type Ref struct {
	Key     string
	Kind    string
	Summary string
	Status  string
}

// Comment is one comment body in creation order.
type Comment struct {
	ID      string
	Author  string
	Created string
	Body    *adf.Document
}

// Link is a relation from the ticket to another issue.
type Link struct {
	Type string
	// Relation is the human label for this side, e.g. "is blocked by".
	Relation string
	Issue    Ref
}

// HasParent reports whether the ticket points at a parent issue.
func (t *Ticket) HasParent() bool {
	return t != nil && strings.TrimSpace(t.ParentKey) != ""
}

// DescriptionText returns the description flattened to one line.
func (t *Ticket) DescriptionText() string {
	if t == nil {
		return ""
	}
	return adf.ToPlainText(t.Description)
}

// LatestComment returns the most recent comment, or nil.
func (t *Ticket) LatestComment() *Comment {
	if t == nil || len(t.Comments) == 0 {
		return nil
	}
	return &t.Comments[len(t.Comments)-1]
}

// ProjectKey returns the project of the ticket, falling back to the prefix of
// its key ("PROJ-12" gives "PROJ").
func (t *Ticket) ProjectKey() string {
	if t == nil {
		return ""
	}
	if t.Project != "" {
		return t.Project
	}
	return ProjectFromKey(t.Key)
}

// ProjectFromKey returns the part of an issue key before the last dash.
func ProjectFromKey(key string) string {
	key = strings.TrimSpace(key)
	if i := strings.LastIndex(key, "-"); i > 0 {
		return key[:i]
	}
	return ""
}

// SameKind compares issue type names the way Jira does, ignoring case.
func SameKind(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
