package materialize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ayerma/assistant/internal/logging"
	"github.com/ayerma/assistant/internal/tracker"
	"github.com/ayerma/assistant/internal/workitem"
)

// InterviewLabels are added to an issue enriched with interview content.
var InterviewLabels = []string{"interview-content", "ai-generated"}

// ErrNoPullRequest is returned when implementation output names no pull request.
var ErrNoPullRequest = errors.New("no pull_request_url in implementation output")

// Enrich posts the question set as one comment on key and labels it.
func Enrich(ctx context.Context, client tracker.Client, key string, set *workitem.InterviewSet, logger *slog.Logger) *Report {
	log := logging.OrDiscard(logger).With("key", key)
	report := &Report{SourceKey: key}
	if set == nil || len(set.Questions) == 0 {
		log.Warn("no questions in output, skipping enrichment")
		report.Skipped = true
		return report
	}

	ctx, finish := startBatch(ctx, "enrich", key)
	defer finish(report)

	if err := client.AddComment(ctx, key, InterviewComment(set)); err != nil {
		report.failed(Failure{Summary: "interview questions", Stage: StageComment, Key: key, Err: err})
		return report
	}
	log.Info("added interview questions", "questions", len(set.Questions))
	if err := client.AddLabels(ctx, key, InterviewLabels...); err != nil {
		report.failed(Failure{Summary: "interview questions", Stage: StageLabel, Key: key, Err: err})
	}
	return report
}

// InterviewComment renders the question set as a tracker comment.
func InterviewComment(set *workitem.InterviewSet) string {
	var b strings.Builder
	b.WriteString("📚 Interview Questions Generated\n\n")
	fmt.Fprintf(&b, "*Topic: %s*\n\n", set.Topic.String())
	b.WriteString("---\n\n")
	for i, q := range set.Questions {
		fmt.Fprintf(&b, "*Q%d: %s*\n\n", i+1, q.Question.String())
		fmt.Fprintf(&b, "A%d: %s\n\n", i+1, q.Answer.String())
		b.WriteString("---\n\n")
	}
	fmt.Fprintf(&b, "Total questions: %d\n", len(set.Questions))
	return b.String()
}

// AttachPullRequest comments the pull request and summary on key.
func AttachPullRequest(ctx context.Context, client tracker.Client, key string, res *workitem.TechResult) error {
	if res == nil || res.PullRequestURL.Blank() {
		return ErrNoPullRequest
	}
	if err := client.AddComment(ctx, key, PullRequestComment(res)); err != nil {
		return fmt.Errorf("attach pull request to %s: %w", key, err)
	}
	return nil
}

// PullRequestComment renders the completion comment.
func PullRequestComment(res *workitem.TechResult) string {
	var b strings.Builder
	b.WriteString("✅ Implementation completed\n\n")
	if !res.Summary.Blank() {
		b.WriteString(res.Summary.String())
		b.WriteString("\n\n")
	}
	b.WriteString("Pull Request: ")
	b.WriteString(res.PullRequestURL.String())
	return b.String()
}
