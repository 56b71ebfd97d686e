package workitem

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePlanLenientScalars(t *testing.T) {
	src := `{
	  // model output may carry comments
	  "tasks": [
	    {
	      "id": 7,
	      "title": "Add login",
	      "type": "story",
	      "story_points": 3,
	      "acceptance_criteria": ["Given a user", 42, "When they log in", null],
	      "sub_tickets": [
	        {"id": "Q1", "title": "Which IdP?", "reason": "not stated"},
	      ],
	    },
	    {"title": {"nested": true}, "acceptance_criteria": "not a list"}
	  ]
	}`
	var plan Plan
	require.NoError(t, Decode([]byte(src), &plan))
	require.Len(t, plan.Tasks, 2)

	first := plan.Tasks[0]
	assert.Equal(t, "7", first.ID.String())
	assert.Equal(t, "3", first.StoryPoints.String())
	assert.Equal(t, Lines{"Given a user", "When they log in"}, first.AcceptanceCriteria)
	require.Len(t, first.Children, 1)
	assert.Equal(t, "not stated", first.Children[0].Reason.String())

	second := plan.Tasks[1]
	assert.True(t, second.Title.Blank())
	assert.Empty(t, second.AcceptanceCriteria)
}

func TestDecodeYAML(t *testing.T) {
	src := `
subtopics:
  - title: Goroutines
    description: Scheduling and leaks
  - title: 12
`
	var b Breakdown
	require.NoError(t, Decode([]byte(src), &b))
	require.Len(t, b.Subtopics, 2)
	assert.Equal(t, "Goroutines", b.Subtopics[0].Title.String())
	assert.Equal(t, "12", b.Subtopics[1].Title.String())
}

func TestDecodeTroubleshooting(t *testing.T) {
	src := `{"technical_fix": {"title": "Fix NPE", "steps": ["a", "b"], "related_tickets": ["X-1"]}}`
	var ts Troubleshooting
	require.NoError(t, Decode([]byte(src), &ts))
	require.NotNil(t, ts.TechnicalFix)
	assert.Nil(t, ts.ManualActions)
	assert.Equal(t, Lines{"a", "b"}, ts.TechnicalFix.Steps)
	assert.Equal(t, Lines{"X-1"}, ts.TechnicalFix.RelatedTickets)
}

func TestDecodeMalformed(t *testing.T) {
	for name, src := range map[string]string{
		"empty":     "   ",
		"truncated": `{"tasks": [`,
		"yaml":      "tasks: [unclosed",
	} {
		t.Run(name, func(t *testing.T) {
			var plan Plan
			err := Decode([]byte(src), &plan)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformed))
			var pe *ParseError
			require.True(t, errors.As(err, &pe))
		})
	}
}

func TestPretty(t *testing.T) {
	out, err := Pretty([]byte(`{"b":1,/*x*/ "a":[true,],}`))
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": [\n    true\n  ],\n  \"b\": 1\n}\n", string(out))

	out, err = Pretty([]byte("topic: Maps\nquestions: []\n"))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(out), `"topic": "Maps"`))
}

func TestTextHelpers(t *testing.T) {
	assert.Equal(t, "fallback", Text("  ").Or("fallback"))
	assert.Equal(t, "x", Text(" x ").Or("fallback"))
	assert.Equal(t, []string{"a", "b"}, Lines{" a ", "", "b"}.NonBlank())
}
