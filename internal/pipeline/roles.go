package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/ayerma/assistant/internal/config"
	"github.com/ayerma/assistant/internal/materialize"
	"github.com/ayerma/assistant/internal/prompt"
	"github.com/ayerma/assistant/internal/tracker"
	"github.com/ayerma/assistant/internal/workitem"
)

// ContentLabel marks issues created from a content breakdown.
const ContentLabel = "Content-breaker"

func init() {
	register(&Role{
		Name:         config.RoleBA,
		Requirements: true,
		paths:        func(r config.Roles) config.RolePaths { return r.BA },
		user: func(ctx context.Context, r *Runner, key string, opts Options) (string, error) {
			s, err := r.subject(ctx, key, opts)
			if err != nil {
				return "", err
			}
			return prompt.BA(s)
		},
		apply: applyPlan,
	})
	register(&Role{
		Name:         config.RoleTech,
		Requirements: true,
		paths:        func(r config.Roles) config.RolePaths { return r.Tech },
		user:         techPrompt,
		apply:        applyTech,
	})
	register(&Role{
		Name:         config.RoleContentSpitter,
		Requirements: true,
		paths:        func(r config.Roles) config.RolePaths { return r.ContentSpitter },
		user: func(ctx context.Context, r *Runner, key string, opts Options) (string, error) {
			s, err := r.subject(ctx, key, opts)
			if err != nil {
				return "", err
			}
			return prompt.Breakdown(s)
		},
		apply: applyBreakdown,
	})
	register(&Role{
		Name:         config.RoleContentCreator,
		Requirements: true,
		paths:        func(r config.Roles) config.RolePaths { return r.ContentCreator },
		user: func(ctx context.Context, r *Runner, key string, opts Options) (string, error) {
			s, err := r.subject(ctx, key, opts)
			if err != nil {
				return "", err
			}
			return prompt.Interview(s)
		},
		apply: applyInterview,
	})
	register(&Role{
		Name:  config.RoleTroubleshooter,
		paths: func(r config.Roles) config.RolePaths { return r.Troubleshooter },
		user: func(ctx context.Context, r *Runner, key string, _ Options) (string, error) {
			t, err := r.Tracker.FetchIssue(ctx, key)
			if err != nil {
				return "", err
			}
			return prompt.Troubleshoot(prompt.GatherTroubleshoot(ctx, r.Tracker, t, r.logger()))
		},
		apply: applyTroubleshooting,
	})
}

// subject returns the caller's summary and description when given, and
// reads the issue otherwise.
func (r *Runner) subject(ctx context.Context, key string, opts Options) (prompt.Subject, error) {
	if strings.TrimSpace(opts.Summary) != "" {
		r.logger().Info("using provided summary and description", "key", key)
		return prompt.Subject{
			Key:         key,
			Summary:     strings.TrimSpace(opts.Summary),
			Description: strings.TrimSpace(opts.Description),
		}, nil
	}
	t, err := r.Tracker.FetchIssue(ctx, key)
	if err != nil {
		return prompt.Subject{}, err
	}
	return prompt.SubjectOf(t), nil
}

func techPrompt(ctx context.Context, r *Runner, key string, opts Options) (string, error) {
	current, err := r.Tracker.FetchIssue(ctx, key)
	if err != nil {
		return "", err
	}
	subject := prompt.SubjectOf(current)
	if strings.TrimSpace(opts.Summary) != "" {
		subject.Summary = strings.TrimSpace(opts.Summary)
		subject.Description = strings.TrimSpace(opts.Description)
	}
	data, err := prompt.GatherTech(ctx, r.Tracker, r.Resolver, current, subject, r.logger())
	if err != nil {
		return "", err
	}
	data.RepoPath = strings.TrimSpace(opts.RepoPath)
	return prompt.Tech(data)
}

// sourceProject reads the source issue for its project, falling back to the
// key prefix when the read fails.
func (r *Runner) sourceProject(ctx context.Context, key string) (string, error) {
	t, err := r.Tracker.FetchIssue(ctx, key)
	if err == nil && t.ProjectKey() != "" {
		return t.ProjectKey(), nil
	}
	if p := tracker.ProjectFromKey(key); p != "" {
		if err != nil {
			r.logger().Warn("could not read source issue, using key prefix as project", "key", key, "error", err)
		}
		return p, nil
	}
	if err != nil {
		return "", fmt.Errorf("resolve project of %s: %w", key, err)
	}
	return "", fmt.Errorf("resolve project of %s: no project key", key)
}

func applyPlan(ctx context.Context, r *Runner, key string, output []byte) (*materialize.Report, error) {
	var plan workitem.Plan
	if err := workitem.Decode(output, &plan); err != nil {
		return nil, err
	}
	project, err := r.sourceProject(ctx, key)
	if err != nil {
		return nil, err
	}
	j := r.Config.Jira
	report := materialize.Materialize(ctx, r.Tracker, key, project, plan.Tasks, materialize.Options{
		Mode:        materialize.Linked,
		LinkType:    j.LinkType,
		StoryKind:   j.StoryKind,
		TaskKind:    j.TaskKind,
		SubtaskKind: j.QuestionKind,
		Logger:      r.logger(),
	})
	return report, report.Err()
}

func applyBreakdown(ctx context.Context, r *Runner, key string, output []byte) (*materialize.Report, error) {
	var b workitem.Breakdown
	if err := workitem.Decode(output, &b); err != nil {
		return nil, err
	}
	report := materialize.Materialize(ctx, r.Tracker, key, tracker.ProjectFromKey(key), b.Subtopics, materialize.Options{
		Mode:     materialize.Children,
		TaskKind: r.Config.Jira.TaskKind,
		Labels:   []string{ContentLabel},
		Summary:  func(workitem.Node) string { return "Content Subtopic" },
		Logger:   r.logger(),
	})
	return report, report.Err()
}

func applyInterview(ctx context.Context, r *Runner, key string, output []byte) (*materialize.Report, error) {
	var set workitem.InterviewSet
	if err := workitem.Decode(output, &set); err != nil {
		return nil, err
	}
	report := materialize.Enrich(ctx, r.Tracker, key, &set, r.logger())
	return report, report.Err()
}

func applyTroubleshooting(ctx context.Context, r *Runner, key string, output []byte) (*materialize.Report, error) {
	var ts workitem.Troubleshooting
	if err := workitem.Decode(output, &ts); err != nil {
		return nil, err
	}
	report := materialize.Troubleshoot(ctx, r.Tracker, key, tracker.ProjectFromKey(key), &ts, materialize.TroubleshootOptions{
		TaskKind: r.Config.Jira.TaskKind,
		LinkType: r.Config.Jira.BlockLinkType,
		Logger:   r.logger(),
	})
	return report, report.Err()
}

// applyTech validates the implementation output. The tracker is only touched
// later, by AttachPullRequest.
func applyTech(_ context.Context, r *Runner, key string, output []byte) (*materialize.Report, error) {
	var res workitem.TechResult
	if err := workitem.Decode(output, &res); err != nil {
		return nil, err
	}
	if !res.PullRequestURL.Blank() {
		r.logger().Info("implementation output names a pull request", "key", key, "url", res.PullRequestURL.String())
	}
	return &materialize.Report{SourceKey: key, Skipped: true}, nil
}
