package materialize

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ayerma/assistant/internal/logging"
	"github.com/ayerma/assistant/internal/tracker"
	"github.com/ayerma/assistant/internal/workitem"
)

// Troubleshooting defaults.
const (
	DefaultBlockLinkType = "Blocks"
	FixLabel             = "BA-DEV"
	ManualLabel          = "Attention"
)

// TroubleshootOptions tunes Troubleshoot.
type TroubleshootOptions struct {
	TaskKind string
	LinkType string
	Logger   *slog.Logger
}

// Troubleshoot files the technical fix and the manual actions, whichever are
// present, as tasks that block sourceKey. The fix is labelled BA-DEV and the
// manual work Attention.
func Troubleshoot(ctx context.Context, client tracker.Client, sourceKey, project string, ts *workitem.Troubleshooting, opts TroubleshootOptions) *Report {
	if opts.TaskKind == "" {
		opts.TaskKind = DefaultTaskKind
	}
	if opts.LinkType == "" {
		opts.LinkType = DefaultBlockLinkType
	}
	log := logging.OrDiscard(opts.Logger).With("source", sourceKey)
	report := &Report{SourceKey: sourceKey}

	if ts == nil || (ts.TechnicalFix == nil && ts.ManualActions == nil) {
		log.Warn("troubleshooting output has neither a technical fix nor manual actions")
		report.Skipped = true
		return report
	}

	ctx, finish := startBatch(ctx, "troubleshoot", sourceKey)
	defer finish(report)

	if fix := ts.TechnicalFix; fix != nil {
		summary := fix.Title.Or("Technical Fix for " + sourceKey)
		fileBlocker(ctx, client, sourceKey, project, summary, FixBody(fix), FixLabel, opts, report, log)
	} else {
		log.Info("no technical fix needed")
	}
	if manual := ts.ManualActions; manual != nil {
		summary := manual.Title.Or("Manual Actions for " + sourceKey)
		fileBlocker(ctx, client, sourceKey, project, summary, ManualBody(manual), ManualLabel, opts, report, log)
	} else {
		log.Info("no manual actions needed")
	}
	return report
}

func fileBlocker(ctx context.Context, client tracker.Client, sourceKey, project, summary, body, label string, opts TroubleshootOptions, report *Report, log *slog.Logger) {
	key, err := client.CreateIssue(ctx, project, opts.TaskKind, summary, body)
	if err != nil {
		log.Error("create issue failed", "summary", summary, "error", err)
		report.failed(Failure{Summary: summary, Stage: StageCreate, Err: err})
		return
	}
	report.created(Result{Key: key, Kind: opts.TaskKind, Summary: summary})
	log.Info("created issue", "key", key, "label", label)

	if err := client.AddLabels(ctx, key, label); err != nil {
		report.failed(Failure{Summary: summary, Stage: StageLabel, Key: key, Err: err})
	}
	// The new issue is the inward side: it blocks the source.
	if err := client.LinkIssues(ctx, key, sourceKey, opts.LinkType); err != nil {
		report.failed(Failure{Summary: summary, Stage: StageLink, Key: key, Err: err})
	}
}

// FixBody formats a technical fix.
func FixBody(r *workitem.Remedy) string {
	var sections []string
	if !r.Description.Blank() {
		sections = append(sections, r.Description.String())
	}
	if steps := r.Steps.NonBlank(); len(steps) > 0 {
		sections = append(sections, "## Steps to Fix\n\n"+numbered(steps))
	}
	if !r.Verification.Blank() {
		sections = append(sections, "## Verification\n\n"+r.Verification.String())
	}
	if related := r.RelatedTickets.NonBlank(); len(related) > 0 {
		sections = append(sections, "## Related Tickets\n\n"+bullets(related))
	}
	return strings.Join(sections, "\n\n")
}

// ManualBody formats manual actions.
func ManualBody(r *workitem.Remedy) string {
	var sections []string
	if !r.Description.Blank() {
		sections = append(sections, r.Description.String())
	}
	if !r.Reason.Blank() {
		sections = append(sections, "## Why Manual Intervention is Required\n\n"+r.Reason.String())
	}
	if steps := r.Steps.NonBlank(); len(steps) > 0 {
		sections = append(sections, "## Steps to Complete\n\n"+numbered(steps))
	}
	if !r.Verification.Blank() {
		sections = append(sections, "## Verification\n\n"+r.Verification.String())
	}
	return strings.Join(sections, "\n\n")
}
