package tracker

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the number of tickets kept by NewCachingClient.
const DefaultCacheSize = 256

// CachingClient keeps recently fetched tickets in memory. Writes pass through
// and evict every key they touch, so a later read sees the change.
type CachingClient struct {
	next  Client
	cache *lru.Cache[string, *Ticket]
}

// NewCachingClient wraps next with an LRU of the given size.
func NewCachingClient(next Client, size int) (*CachingClient, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, *Ticket](size)
	if err != nil {
		return nil, err
	}
	return &CachingClient{next: next, cache: cache}, nil
}

func (c *CachingClient) FetchIssue(ctx context.Context, key string) (*Ticket, error) {
	if t, ok := c.cache.Get(key); ok {
		return t, nil
	}
	t, err := c.next.FetchIssue(ctx, key)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, t)
	return t, nil
}

func (c *CachingClient) CreateIssue(ctx context.Context, project, kind, summary, body string) (string, error) {
	return c.next.CreateIssue(ctx, project, kind, summary, body)
}

func (c *CachingClient) CreateSubIssue(ctx context.Context, project, kind, parentKey, summary, body string) (string, error) {
	c.cache.Remove(parentKey)
	return c.next.CreateSubIssue(ctx, project, kind, parentKey, summary, body)
}

func (c *CachingClient) LinkIssues(ctx context.Context, fromKey, toKey, linkType string) error {
	c.cache.Remove(fromKey)
	c.cache.Remove(toKey)
	return c.next.LinkIssues(ctx, fromKey, toKey, linkType)
}

func (c *CachingClient) AddComment(ctx context.Context, key, body string) error {
	c.cache.Remove(key)
	return c.next.AddComment(ctx, key, body)
}

func (c *CachingClient) AddLabels(ctx context.Context, key string, labels ...string) error {
	c.cache.Remove(key)
	return c.next.AddLabels(ctx, key, labels...)
}

// Purge drops every cached ticket.
func (c *CachingClient) Purge() {
	c.cache.Purge()
}
