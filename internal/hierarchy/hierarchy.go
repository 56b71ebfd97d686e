// Package hierarchy walks a ticket's parent chain up to a designated
// top-level kind (Epic by default) to recover the context it belongs to.
package hierarchy

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ayerma/assistant/internal/logging"
	"github.com/ayerma/assistant/internal/telemetry"
	"github.com/ayerma/assistant/internal/tracker"
)

// Defaults used when Options leaves a field zero.
const (
	DefaultTopKind  = "Epic"
	DefaultMaxDepth = 10
)

// StopReason says why a walk ended.
type StopReason string

const (
	// FoundTop means the last ticket is of the top-level kind; its context is authoritative.
	FoundTop StopReason = "found_top"
	// ReachedRoot means the last ticket has no parent.
	ReachedRoot StopReason = "reached_root"
	// DepthExceeded means the fetch budget ran out; the last ticket is best effort.
	DepthExceeded StopReason = "depth_exceeded"
)

// Fetcher is the read side of tracker.Client.
type Fetcher interface {
	FetchIssue(ctx context.Context, key string) (*tracker.Ticket, error)
}

// Options tunes a Resolver.
type Options struct {
	TopKind  string
	MaxDepth int
	Logger   *slog.Logger
}

// Chain is the result of one walk: every visited ticket from the starting
// one upward, and why the walk stopped.
type Chain struct {
	Tickets []*tracker.Ticket
	Stop    StopReason
	// Fetches counts tracker reads made by this walk.
	Fetches int
}

// Start returns the ticket the walk began at.
func (c *Chain) Start() *tracker.Ticket {
	if c == nil || len(c.Tickets) == 0 {
		return nil
	}
	return c.Tickets[0]
}

// Top returns the last visited ticket, present in every terminal state.
func (c *Chain) Top() *tracker.Ticket {
	if c == nil || len(c.Tickets) == 0 {
		return nil
	}
	return c.Tickets[len(c.Tickets)-1]
}

// Authoritative reports whether the walk reached the top-level kind.
func (c *Chain) Authoritative() bool {
	return c != nil && c.Stop == FoundTop
}

// Ancestors returns the visited tickets above the starting one.
func (c *Chain) Ancestors() []*tracker.Ticket {
	if c == nil || len(c.Tickets) < 2 {
		return nil
	}
	return c.Tickets[1:]
}

// Resolver walks parent links with a bounded number of fetches.
type Resolver struct {
	fetcher  Fetcher
	topKind  string
	maxDepth int
	logger   *slog.Logger
}

// New returns a Resolver reading through f.
func New(f Fetcher, opts Options) *Resolver {
	r := &Resolver{
		fetcher:  f,
		topKind:  opts.TopKind,
		maxDepth: opts.MaxDepth,
		logger:   logging.OrDiscard(opts.Logger),
	}
	if r.topKind == "" {
		r.topKind = DefaultTopKind
	}
	if r.maxDepth <= 0 {
		r.maxDepth = DefaultMaxDepth
	}
	return r
}

// Resolve fetches key and walks upward. The initial read counts toward the
// depth bound, so a walk never performs more than MaxDepth fetches. Any fetch
// error aborts the walk.
func (r *Resolver) Resolve(ctx context.Context, key string) (*Chain, error) {
	ctx, span := telemetry.Tracer("github.com/ayerma/assistant/hierarchy").Start(ctx, "hierarchy.resolve")
	defer span.End()
	span.SetAttributes(attribute.String("assistant.issue.key", key))

	start, err := r.fetcher.FetchIssue(ctx, key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("resolve hierarchy of %s: %w", key, err)
	}
	chain, err := r.walk(ctx, start, 1)
	if chain != nil {
		span.SetAttributes(
			attribute.String("assistant.hierarchy.stop", string(chain.Stop)),
			attribute.Int("assistant.hierarchy.fetches", chain.Fetches),
		)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return chain, err
}

// ResolveFrom walks upward from a ticket the caller already holds. Only
// parent reads count toward the bound.
func (r *Resolver) ResolveFrom(ctx context.Context, start *tracker.Ticket) (*Chain, error) {
	if start == nil {
		return nil, fmt.Errorf("resolve hierarchy: nil ticket")
	}
	return r.walk(ctx, start, 0)
}

func (r *Resolver) walk(ctx context.Context, current *tracker.Ticket, fetches int) (*Chain, error) {
	chain := &Chain{Tickets: []*tracker.Ticket{current}, Fetches: fetches}
	for {
		r.logger.Debug("checking issue", "key", current.Key, "kind", current.Kind)

		if tracker.SameKind(current.Kind, r.topKind) {
			r.logger.Info("found top-level issue", "key", current.Key, "kind", current.Kind)
			chain.Stop = FoundTop
			return chain, nil
		}
		if !current.HasParent() {
			r.logger.Info("no parent, using issue as root context", "key", current.Key)
			chain.Stop = ReachedRoot
			return chain, nil
		}
		if chain.Fetches >= r.maxDepth {
			r.logger.Warn("max depth reached while traversing parents", "key", current.Key, "max_depth", r.maxDepth)
			chain.Stop = DepthExceeded
			return chain, nil
		}

		parentKey := current.ParentKey
		r.logger.Debug("following parent link", "from", current.Key, "to", parentKey)
		parent, err := r.fetcher.FetchIssue(ctx, parentKey)
		chain.Fetches++
		if err != nil {
			return nil, fmt.Errorf("resolve hierarchy: fetch parent %s of %s: %w", parentKey, current.Key, err)
		}
		current = parent
		chain.Tickets = append(chain.Tickets, current)
	}
}
