package materialize_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayerma/assistant/internal/materialize"
	"github.com/ayerma/assistant/internal/tracker/trackertest"
	"github.com/ayerma/assistant/internal/workitem"
)

func TestEnrich(t *testing.T) {
	fake := trackertest.New(source())
	set := &workitem.InterviewSet{
		Topic: "Maps",
		Questions: []workitem.QA{
			{Question: "Are maps ordered?", Answer: "No."},
			{Question: "Zero value?", Answer: "nil"},
		},
	}

	report := materialize.Enrich(context.Background(), fake, "APP-1", set, nil)

	require.NoError(t, report.Err())
	require.Len(t, fake.Comments, 1)
	want := "📚 Interview Questions Generated\n\n*Topic: Maps*\n\n---\n\n" +
		"*Q1: Are maps ordered?*\n\nA1: No.\n\n---\n\n" +
		"*Q2: Zero value?*\n\nA2: nil\n\n---\n\n" +
		"Total questions: 2\n"
	assert.Equal(t, want, fake.Comments[0].Body)
	assert.Equal(t, []string{"interview-content", "ai-generated"}, fake.Labels["APP-1"])
}

func TestEnrichCommentFailureSkipsLabels(t *testing.T) {
	fake := trackertest.New(source())
	fake.CommentErr = func(string) error { return errors.New("denied") }
	set := &workitem.InterviewSet{Questions: []workitem.QA{{Question: "q"}}}

	report := materialize.Enrich(context.Background(), fake, "APP-1", set, nil)

	require.Equal(t, 1, report.Failed())
	assert.Equal(t, materialize.StageComment, report.Failures[0].Stage)
	assert.Empty(t, fake.Labels["APP-1"])
}

func TestEnrichNoQuestions(t *testing.T) {
	fake := trackertest.New(source())
	report := materialize.Enrich(context.Background(), fake, "APP-1", &workitem.InterviewSet{Topic: "x"}, nil)
	assert.True(t, report.Skipped)
	assert.Empty(t, fake.Comments)
}

func TestAttachPullRequest(t *testing.T) {
	fake := trackertest.New(source())
	res := &workitem.TechResult{PullRequestURL: "https://github.com/o/r/pull/9", Summary: "Added login"}

	require.NoError(t, materialize.AttachPullRequest(context.Background(), fake, "APP-1", res))
	require.Len(t, fake.Comments, 1)
	assert.Equal(t, "✅ Implementation completed\n\nAdded login\n\nPull Request: https://github.com/o/r/pull/9", fake.Comments[0].Body)

	err := materialize.AttachPullRequest(context.Background(), fake, "APP-1", &workitem.TechResult{Summary: "x"})
	assert.ErrorIs(t, err, materialize.ErrNoPullRequest)
}
