package jira

import (
	"testing"
)

func TestExtractKey(t *testing.T) {
	tests := []struct {
		name string
		ref  string
		want string
	}{
		{"bare key", "PROJ-123", "PROJ-123"},
		{"lower case key", "proj-7", "PROJ-7"},
		{"padded key", "  ABC-1 ", "ABC-1"},
		{"cloud URL", "https://company.atlassian.net/browse/PROJ-123", "PROJ-123"},
		{"URL with query", "https://company.atlassian.net/browse/PROJ-9?focusedCommentId=1", "PROJ-9"},
		{"URL with trailing path", "https://jira.company.com/browse/TEAM_X-4/", "TEAM_X-4"},
		{"GitHub issue URL", "https://github.com/org/repo/issues/123", ""},
		{"no number", "PROJ-", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractKey(tt.ref); got != tt.want {
				t.Errorf("ExtractKey(%q) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}
}

func TestBrowseURL(t *testing.T) {
	got := BrowseURL("https://company.atlassian.net/", "PROJ-1")
	want := "https://company.atlassian.net/browse/PROJ-1"
	if got != want {
		t.Errorf("BrowseURL() = %q, want %q", got, want)
	}
}
