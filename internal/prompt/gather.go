package prompt

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ayerma/assistant/internal/adf"
	"github.com/ayerma/assistant/internal/hierarchy"
	"github.com/ayerma/assistant/internal/logging"
	"github.com/ayerma/assistant/internal/tracker"
)

// QuestionPrefix marks clarification sub-tasks by their summary.
const QuestionPrefix = "[Question]"

// unresolved is the resolution name Jira reports for open issues.
const unresolved = "Unresolved"

// GatherTech collects ancestor context and answered questions for current.
// subject is what the prompt calls the task; it may differ from current when
// the caller supplied its own summary. Any fetch failure aborts.
func GatherTech(ctx context.Context, client tracker.Client, resolver *hierarchy.Resolver, current *tracker.Ticket, subject Subject, logger *slog.Logger) (TechData, error) {
	log := logging.OrDiscard(logger)
	data := TechData{Subject: subject}

	chain, err := resolver.ResolveFrom(ctx, current)
	if err != nil {
		return data, fmt.Errorf("resolve context for %s: %w", current.Key, err)
	}
	if top := chain.Top(); top != nil && top.Key != current.Key {
		s := SubjectOf(top)
		data.Context = &s
		log.Info("found ancestor context", "key", top.Key, "kind", top.Kind, "stop", chain.Stop)
	}

	for _, ref := range current.Subtasks {
		if ref.Summary != "" && !strings.HasPrefix(ref.Summary, QuestionPrefix) {
			continue
		}
		sub, err := client.FetchIssue(ctx, ref.Key)
		if err != nil {
			return data, fmt.Errorf("fetch question %s: %w", ref.Key, err)
		}
		if !strings.HasPrefix(sub.Summary, QuestionPrefix) {
			continue
		}
		data.Questions = append(data.Questions, questionOf(sub))
	}
	if n := len(data.Questions); n > 0 {
		log.Info("found question sub-tasks", "count", n)
	}
	return data, nil
}

func questionOf(t *tracker.Ticket) Question {
	q := Question{
		Question: strings.TrimSpace(strings.Replace(t.Summary, QuestionPrefix, "", 1)),
		Context:  strings.TrimSpace(adf.ToLines(t.Description)),
	}
	if c := t.LatestComment(); c != nil {
		q.Answer = strings.TrimSpace(adf.ToLines(c.Body))
	} else if t.Resolution != "" && t.Resolution != unresolved {
		q.Status = t.Resolution
	}
	return q
}

// GatherTroubleshoot collects the issue and every linked issue that can be
// read. Linked issues that fail to load are logged and left out.
func GatherTroubleshoot(ctx context.Context, client tracker.Client, t *tracker.Ticket, logger *slog.Logger) TroubleshootData {
	log := logging.OrDiscard(logger)
	data := TroubleshootData{Subject: SubjectOf(t)}
	for _, link := range t.Links {
		if link.Issue.Key == "" {
			continue
		}
		rel, err := client.FetchIssue(ctx, link.Issue.Key)
		if err != nil {
			log.Warn("could not fetch related issue", "key", link.Issue.Key, "error", err)
			continue
		}
		data.Related = append(data.Related, Related{
			Key:         rel.Key,
			LinkType:    link.Type,
			Status:      rel.Status,
			Summary:     strings.TrimSpace(rel.Summary),
			Description: strings.TrimSpace(adf.ToLines(rel.Description)),
		})
	}
	return data
}
