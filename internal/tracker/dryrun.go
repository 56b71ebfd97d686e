package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// DryRun reads through to a real client but only logs writes. Created issues
// get fabricated keys (DRY-1, DRY-2, ...) so downstream steps still have
// something to link to.
type DryRun struct {
	read   Client
	logger *slog.Logger

	mu   sync.Mutex
	next int
}

// NewDryRun returns a dry-run client. read may be nil, in which case
// FetchIssue reports ErrNotFound.
func NewDryRun(read Client, logger *slog.Logger) *DryRun {
	if logger == nil {
		logger = slog.Default()
	}
	return &DryRun{read: read, logger: logger}
}

func (d *DryRun) FetchIssue(ctx context.Context, key string) (*Ticket, error) {
	if d.read == nil {
		return nil, fmt.Errorf("fetch %s: %w", key, ErrNotFound)
	}
	return d.read.FetchIssue(ctx, key)
}

func (d *DryRun) fakeKey() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.next++
	return fmt.Sprintf("DRY-%d", d.next)
}

func (d *DryRun) CreateIssue(_ context.Context, project, kind, summary, body string) (string, error) {
	key := d.fakeKey()
	d.logger.Info("dry run: create issue", "key", key, "project", project, "kind", kind, "summary", summary, "body_len", len(body))
	return key, nil
}

func (d *DryRun) CreateSubIssue(_ context.Context, project, kind, parentKey, summary, body string) (string, error) {
	key := d.fakeKey()
	d.logger.Info("dry run: create sub-issue", "key", key, "project", project, "kind", kind, "parent", parentKey, "summary", summary, "body_len", len(body))
	return key, nil
}

func (d *DryRun) LinkIssues(_ context.Context, fromKey, toKey, linkType string) error {
	d.logger.Info("dry run: link issues", "from", fromKey, "to", toKey, "type", linkType)
	return nil
}

func (d *DryRun) AddComment(_ context.Context, key, body string) error {
	d.logger.Info("dry run: add comment", "key", key, "body_len", len(body))
	return nil
}

func (d *DryRun) AddLabels(_ context.Context, key string, labels ...string) error {
	d.logger.Info("dry run: add labels", "key", key, "labels", labels)
	return nil
}
