package jira

import (
	"regexp"
	"strings"
)

var keyPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*-[0-9]+$`)

// IsIssueKey reports whether s looks like a Jira issue key ("PROJ-123").
func IsIssueKey(s string) bool {
	return keyPattern.MatchString(s)
}

// ExtractKey accepts either an issue key or a browse URL and returns the key.
// For example, "https://company.atlassian.net/browse/PROJ-123?focused=1"
// returns "PROJ-123". Anything else yields "".
func ExtractKey(ref string) string {
	ref = strings.TrimSpace(ref)
	if idx := strings.LastIndex(ref, "/browse/"); idx != -1 {
		ref = ref[idx+len("/browse/"):]
		if end := strings.IndexAny(ref, "/?#"); end != -1 {
			ref = ref[:end]
		}
	}
	ref = strings.ToUpper(ref)
	if !IsIssueKey(ref) {
		return ""
	}
	return ref
}

// BrowseURL returns the human-facing link for key.
func BrowseURL(baseURL, key string) string {
	return strings.TrimSuffix(baseURL, "/") + "/browse/" + key
}
