// Package materialize turns parsed model output into tracker issues, links,
// comments and labels. A failing write is recorded in the Report and the
// batch carries on.
package materialize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/ayerma/assistant/internal/logging"
	"github.com/ayerma/assistant/internal/telemetry"
	"github.com/ayerma/assistant/internal/tracker"
	"github.com/ayerma/assistant/internal/workitem"
)

// Defaults used when Options leaves a field empty.
const (
	DefaultStoryKind   = "Story"
	DefaultTaskKind    = "Task"
	DefaultSubtaskKind = "Sub-task"
	DefaultLinkType    = "Relates"
	DefaultStoryMarker = "story"
)

// Mode selects where top-level items go.
type Mode int

const (
	// Linked creates each item as a project issue linked to the source.
	Linked Mode = iota
	// Children creates each item directly under the source issue.
	Children
)

func (m Mode) String() string {
	if m == Children {
		return "children"
	}
	return "linked"
}

// Options tunes a batch.
type Options struct {
	Mode        Mode
	LinkType    string
	StoryKind   string
	TaskKind    string
	SubtaskKind string
	// StoryMarker is the type tag that selects StoryKind, compared ignoring case.
	StoryMarker string
	// Labels are added to every top-level issue created.
	Labels []string
	// Summary names an item whose title is blank.
	Summary func(n workitem.Node) string
	Logger  *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.LinkType == "" {
		o.LinkType = DefaultLinkType
	}
	if o.StoryKind == "" {
		o.StoryKind = DefaultStoryKind
	}
	if o.TaskKind == "" {
		o.TaskKind = DefaultTaskKind
	}
	if o.SubtaskKind == "" {
		o.SubtaskKind = DefaultSubtaskKind
	}
	if o.StoryMarker == "" {
		o.StoryMarker = DefaultStoryMarker
	}
	if o.Summary == nil {
		o.Summary = func(n workitem.Node) string { return "Task " + n.ID.Or("(unnamed)") }
	}
	o.Logger = logging.OrDiscard(o.Logger)
	return o
}

var ticketMetrics struct {
	created metric.Int64Counter
	failed  metric.Int64Counter
}

var ticketMetricsOnce sync.Once

func initTicketMetrics() {
	m := telemetry.Meter("github.com/ayerma/assistant/materialize")
	ticketMetrics.created, _ = m.Int64Counter("assistant.tickets.created",
		metric.WithDescription("Tracker issues created from model output"),
		metric.WithUnit("{issue}"),
	)
	ticketMetrics.failed, _ = m.Int64Counter("assistant.tickets.failed",
		metric.WithDescription("Tracker writes that failed while materializing output"),
		metric.WithUnit("{write}"),
	)
}

// startBatch opens the batch span and returns a func that records the report.
func startBatch(ctx context.Context, op, sourceKey string) (context.Context, func(*Report)) {
	ticketMetricsOnce.Do(initTicketMetrics)
	ctx, span := telemetry.Tracer("github.com/ayerma/assistant/materialize").Start(ctx, "materialize.batch",
		trace.WithAttributes(
			attribute.String("assistant.op", op),
			attribute.String("assistant.source_key", sourceKey),
		))
	return ctx, func(r *Report) {
		attrs := metric.WithAttributes(attribute.String("assistant.op", op))
		if ticketMetrics.created != nil {
			ticketMetrics.created.Add(ctx, int64(r.Created()), attrs)
			ticketMetrics.failed.Add(ctx, int64(r.Failed()), attrs)
		}
		span.SetAttributes(
			attribute.Int("assistant.tickets.created", r.Created()),
			attribute.Int("assistant.tickets.failed", r.Failed()),
		)
		span.End()
	}
}

// Materialize creates one issue per item, in order, under project. In Linked
// mode each issue is linked to sourceKey (source inward) and its children
// become sub-issues of it; in Children mode items are created under sourceKey
// and their own children are ignored, with the item's description as the
// whole body.
func Materialize(ctx context.Context, client tracker.Client, sourceKey, project string, items []workitem.Node, opts Options) *Report {
	opts = opts.withDefaults()
	log := opts.Logger.With("source", sourceKey, "mode", opts.Mode.String())
	report := &Report{SourceKey: sourceKey, KeyByID: make(map[string]string)}

	if len(items) == 0 {
		log.Warn("no work items in output, skipping tracker writes")
		report.Skipped = true
		return report
	}

	ctx, finish := startBatch(ctx, "materialize", sourceKey)
	defer finish(report)

	log.Info("materializing work items", "items", len(items), "project", project)
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			for _, rest := range items[i:] {
				report.failed(Failure{ItemID: rest.ID.String(), Summary: summaryOf(rest, opts), Stage: StageCreate, Err: err})
			}
			break
		}
		materializeItem(ctx, client, sourceKey, project, item, opts, report, log)
	}

	log.Info("materialized work items", "created", report.Created(), "failed", report.Failed())
	return report
}

func materializeItem(ctx context.Context, client tracker.Client, sourceKey, project string, item workitem.Node, opts Options, report *Report, log *slog.Logger) {
	id := item.ID.String()
	summary := summaryOf(item, opts)
	body := TaskBody(item)
	if opts.Mode == Children {
		body = strings.TrimSpace(item.Description.String())
	}

	var (
		kind string
		key  string
		err  error
	)
	switch opts.Mode {
	case Children:
		kind = opts.TaskKind
		key, err = client.CreateSubIssue(ctx, project, kind, sourceKey, summary, body)
	default:
		kind = ResolveKind(item, opts.StoryMarker, opts.StoryKind, opts.TaskKind)
		key, err = client.CreateIssue(ctx, project, kind, summary, body)
	}
	if err != nil {
		log.Error("create issue failed", "item", id, "summary", summary, "error", err)
		report.failed(Failure{ItemID: id, Summary: summary, Stage: StageCreate, Err: err})
		return
	}

	res := Result{ItemID: id, Key: key, Kind: kind, Summary: summary}
	if opts.Mode == Children {
		res.ParentKey = sourceKey
	}
	report.created(res)
	if id != "" {
		report.KeyByID[id] = key
	}
	log.Info("created issue", "key", key, "kind", kind, "summary", summary)

	if opts.Mode == Linked {
		if err := client.LinkIssues(ctx, sourceKey, key, opts.LinkType); err != nil {
			log.Error("link issue failed", "key", key, "link_type", opts.LinkType, "error", err)
			report.failed(Failure{ItemID: id, Summary: summary, Stage: StageLink, Key: key, Err: err})
		}
	}
	if len(opts.Labels) > 0 {
		if err := client.AddLabels(ctx, key, opts.Labels...); err != nil {
			log.Error("label issue failed", "key", key, "error", err)
			report.failed(Failure{ItemID: id, Summary: summary, Stage: StageLabel, Key: key, Err: err})
		}
	}

	if opts.Mode == Children {
		if len(item.Children) > 0 {
			log.Debug("ignoring nested items below a child issue", "key", key, "nested", len(item.Children))
		}
		return
	}
	for _, child := range item.Children {
		childID := child.ID.String()
		childSummary := child.Title.Or("Question " + child.ID.Or("(unnamed)"))
		childKey, err := client.CreateSubIssue(ctx, project, opts.SubtaskKind, key, childSummary, QuestionBody(child))
		if err != nil {
			log.Error("create sub-issue failed", "parent", key, "summary", childSummary, "error", err)
			report.failed(Failure{ItemID: childID, Summary: childSummary, Stage: StageChild, Err: fmt.Errorf("under %s: %w", key, err)})
			continue
		}
		report.created(Result{ItemID: childID, Key: childKey, Kind: opts.SubtaskKind, Summary: childSummary, ParentKey: key})
		log.Info("created sub-issue", "key", childKey, "parent", key, "summary", childSummary)
	}
}

func summaryOf(n workitem.Node, opts Options) string {
	if !n.Title.Blank() {
		return n.Title.String()
	}
	return opts.Summary(n)
}

// ResolveKind picks storyKind when the item's ticket_type (or, failing that,
// its type) equals marker ignoring case, and taskKind otherwise.
func ResolveKind(n workitem.Node, marker, storyKind, taskKind string) string {
	tag := n.TicketType
	if tag.Blank() {
		tag = n.Type
	}
	if tracker.SameKind(tag.String(), marker) {
		return storyKind
	}
	return taskKind
}

// TaskBody formats a top-level item: description, technical notes, type,
// story points and acceptance criteria, each only when present, separated by
// blank lines.
func TaskBody(n workitem.Node) string {
	var sections []string
	if !n.Description.Blank() {
		sections = append(sections, "Description:\n"+n.Description.String())
	}
	if !n.TechnicalNotes.Blank() {
		sections = append(sections, "Technical Notes:\n"+n.TechnicalNotes.String())
	}
	if !n.Type.Blank() {
		sections = append(sections, "Type: "+n.Type.String())
	}
	if !n.StoryPoints.Blank() {
		sections = append(sections, "Story Points: "+n.StoryPoints.String())
	}
	if ac := n.AcceptanceCriteria.NonBlank(); len(ac) > 0 {
		sections = append(sections, "Acceptance Criteria:\n"+bullets(ac))
	}
	if len(sections) == 0 {
		return "See task details in BA output."
	}
	return strings.Join(sections, "\n\n")
}

// QuestionBody formats a child item from its description and reason.
func QuestionBody(n workitem.Node) string {
	var sections []string
	if !n.Description.Blank() {
		sections = append(sections, "Description:\n"+n.Description.String())
	}
	if !n.Reason.Blank() {
		sections = append(sections, "Reason:\n"+n.Reason.String())
	}
	if len(sections) == 0 {
		return "Question details required."
	}
	return strings.Join(sections, "\n\n")
}

func bullets(lines []string) string {
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(l)
	}
	return b.String()
}

func numbered(lines []string) string {
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s", i+1, l)
	}
	return b.String()
}
