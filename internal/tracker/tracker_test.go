package tracker_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayerma/assistant/internal/adf"
	"github.com/ayerma/assistant/internal/logging"
	"github.com/ayerma/assistant/internal/tracker"
	"github.com/ayerma/assistant/internal/tracker/trackertest"
)

func TestProjectKey(t *testing.T) {
	tests := []struct {
		ticket *tracker.Ticket
		want   string
	}{
		{&tracker.Ticket{Key: "PROJ-12", Project: "OTHER"}, "OTHER"},
		{&tracker.Ticket{Key: "PROJ-12"}, "PROJ"},
		{&tracker.Ticket{Key: "MY-TEAM-7"}, "MY-TEAM"},
		{&tracker.Ticket{Key: "nodash"}, ""},
		{nil, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.ticket.ProjectKey())
	}
}

func TestTicketHelpers(t *testing.T) {
	tk := &tracker.Ticket{
		Key:         "A-1",
		ParentKey:   " ",
		Description: adf.FromText("line one\nline two"),
		Comments: []tracker.Comment{
			{ID: "1", Body: adf.FromText("old")},
			{ID: "2", Body: adf.FromText("new")},
		},
	}
	assert.False(t, tk.HasParent())
	assert.Equal(t, "line one  line two", tk.DescriptionText())
	require.NotNil(t, tk.LatestComment())
	assert.Equal(t, "2", tk.LatestComment().ID)
	assert.Nil(t, (&tracker.Ticket{}).LatestComment())
	assert.True(t, tracker.SameKind("epic", " Epic "))
}

func TestCachingClient(t *testing.T) {
	ctx := context.Background()
	fake := trackertest.New(&tracker.Ticket{Key: "A-1", Summary: "first"})
	c, err := tracker.NewCachingClient(fake, 8)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		tk, err := c.FetchIssue(ctx, "A-1")
		require.NoError(t, err)
		assert.Equal(t, "first", tk.Summary)
	}
	assert.Equal(t, 1, fake.FetchCount())

	require.NoError(t, c.AddComment(ctx, "A-1", "hello"))
	_, err = c.FetchIssue(ctx, "A-1")
	require.NoError(t, err)
	assert.Equal(t, 2, fake.FetchCount(), "a write should evict the ticket")

	_, err = c.FetchIssue(ctx, "A-404")
	assert.ErrorIs(t, err, tracker.ErrNotFound)
	_, err = c.FetchIssue(ctx, "A-404")
	assert.ErrorIs(t, err, tracker.ErrNotFound)
	assert.Equal(t, 4, fake.FetchCount(), "errors are not cached")
}

func TestDryRun(t *testing.T) {
	ctx := context.Background()
	fake := trackertest.New(&tracker.Ticket{Key: "A-1"})
	d := tracker.NewDryRun(fake, logging.Discard())

	k1, err := d.CreateIssue(ctx, "A", "Task", "one", "body")
	require.NoError(t, err)
	k2, err := d.CreateSubIssue(ctx, "A", "Sub-task", k1, "two", "body")
	require.NoError(t, err)
	assert.Equal(t, "DRY-1", k1)
	assert.Equal(t, "DRY-2", k2)

	require.NoError(t, d.LinkIssues(ctx, "A-1", k1, "Relates"))
	require.NoError(t, d.AddComment(ctx, "A-1", "x"))
	require.NoError(t, d.AddLabels(ctx, "A-1", "l"))
	assert.Empty(t, fake.Created)
	assert.Empty(t, fake.Links)
	assert.Empty(t, fake.Comments)

	tk, err := d.FetchIssue(ctx, "A-1")
	require.NoError(t, err)
	assert.Equal(t, "A-1", tk.Key)

	_, err = tracker.NewDryRun(nil, nil).FetchIssue(ctx, "A-1")
	assert.True(t, errors.Is(err, tracker.ErrNotFound))
}
