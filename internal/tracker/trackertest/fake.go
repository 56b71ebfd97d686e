// Package trackertest provides an in-memory tracker.Client for tests.
package trackertest

import (
	"context"
	"fmt"
	"sync"

	"github.com/ayerma/assistant/internal/adf"
	"github.com/ayerma/assistant/internal/tracker"
)

// Created records one CreateIssue or CreateSubIssue call.
type Created struct {
	Key       string
	Project   string
	Kind      string
	ParentKey string
	Summary   string
	Body      string
}

// LinkCall records one LinkIssues call.
type LinkCall struct {
	From string
	To   string
	Type string
}

// CommentCall records one AddComment call.
type CommentCall struct {
	Key  string
	Body string
}

// Fake is a thread-safe in-memory tracker. Set the *Err hooks to make
// individual calls fail; a nil hook or a nil return means success.
type Fake struct {
	mu sync.Mutex

	Issues   map[string]*tracker.Ticket
	Created  []Created
	Links    []LinkCall
	Comments []CommentCall
	Labels   map[string][]string
	Fetches  []string

	FetchErr   func(key string) error
	CreateErr  func(summary string) error
	LinkErr    func(from, to string) error
	CommentErr func(key string) error
	LabelErr   func(key string) error

	seq int
}

// New returns a fake seeded with the given tickets.
func New(tickets ...*tracker.Ticket) *Fake {
	f := &Fake{
		Issues: make(map[string]*tracker.Ticket),
		Labels: make(map[string][]string),
	}
	for _, t := range tickets {
		f.Issues[t.Key] = t
	}
	return f
}

// Put adds or replaces a ticket.
func (f *Fake) Put(t *tracker.Ticket) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Issues[t.Key] = t
}

// FetchCount returns how many FetchIssue calls were made.
func (f *Fake) FetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Fetches)
}

func (f *Fake) FetchIssue(_ context.Context, key string) (*tracker.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Fetches = append(f.Fetches, key)
	if f.FetchErr != nil {
		if err := f.FetchErr(key); err != nil {
			return nil, err
		}
	}
	t, ok := f.Issues[key]
	if !ok {
		return nil, fmt.Errorf("fetch %s: %w", key, tracker.ErrNotFound)
	}
	cp := *t
	return &cp, nil
}

func (f *Fake) CreateIssue(ctx context.Context, project, kind, summary, body string) (string, error) {
	return f.create(project, kind, "", summary, body)
}

func (f *Fake) CreateSubIssue(ctx context.Context, project, kind, parentKey, summary, body string) (string, error) {
	return f.create(project, kind, parentKey, summary, body)
}

func (f *Fake) create(project, kind, parentKey, summary, body string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateErr != nil {
		if err := f.CreateErr(summary); err != nil {
			return "", err
		}
	}
	f.seq++
	key := fmt.Sprintf("%s-%d", project, 100+f.seq)
	f.Created = append(f.Created, Created{
		Key: key, Project: project, Kind: kind, ParentKey: parentKey, Summary: summary, Body: body,
	})
	f.Issues[key] = &tracker.Ticket{
		Key:         key,
		Kind:        kind,
		Summary:     summary,
		Description: adf.FromText(body),
		Project:     project,
		ParentKey:   parentKey,
	}
	if parent, ok := f.Issues[parentKey]; ok {
		parent.Subtasks = append(parent.Subtasks, tracker.Ref{Key: key, Kind: kind, Summary: summary})
	}
	return key, nil
}

func (f *Fake) LinkIssues(_ context.Context, fromKey, toKey, linkType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.LinkErr != nil {
		if err := f.LinkErr(fromKey, toKey); err != nil {
			return err
		}
	}
	f.Links = append(f.Links, LinkCall{From: fromKey, To: toKey, Type: linkType})
	return nil
}

func (f *Fake) AddComment(_ context.Context, key, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CommentErr != nil {
		if err := f.CommentErr(key); err != nil {
			return err
		}
	}
	f.Comments = append(f.Comments, CommentCall{Key: key, Body: body})
	return nil
}

func (f *Fake) AddLabels(_ context.Context, key string, labels ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.LabelErr != nil {
		if err := f.LabelErr(key); err != nil {
			return err
		}
	}
	f.Labels[key] = append(f.Labels[key], labels...)
	return nil
}

// CreatedByKey returns the recorded creation for key.
func (f *Fake) CreatedByKey(key string) (Created, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.Created {
		if c.Key == key {
			return c, true
		}
	}
	return Created{}, false
}

var _ tracker.Client = (*Fake)(nil)
