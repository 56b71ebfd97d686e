// Package jira provides a REST v3 client for Jira and maps its issues onto
// tracker tickets.
package jira

import "encoding/json"

// Issue represents a Jira issue from the REST API.
type Issue struct {
	ID     string      `json:"id"`
	Key    string      `json:"key"`
	Self   string      `json:"self"`
	Fields IssueFields `json:"fields"`
}

// IssueFields contains the fields of a Jira issue.
type IssueFields struct {
	Summary     string           `json:"summary"`
	Description json.RawMessage  `json:"description"` // ADF (Atlassian Document Format) or plain text
	Status      *StatusField     `json:"status"`
	IssueType   *IssueTypeField  `json:"issuetype"`
	Project     *ProjectField    `json:"project"`
	Parent      *LinkedIssue     `json:"parent"`
	Subtasks    []LinkedIssue    `json:"subtasks"`
	Comment     *CommentPage     `json:"comment"`
	IssueLinks  []IssueLink      `json:"issuelinks"`
	Labels      []string         `json:"labels"`
	Resolution  *ResolutionField `json:"resolution"`
}

// StatusField represents a Jira issue status.
type StatusField struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// IssueTypeField represents a Jira issue type.
type IssueTypeField struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Subtask bool   `json:"subtask"`
}

// ProjectField represents a Jira project.
type ProjectField struct {
	ID  string `json:"id"`
	Key string `json:"key"`
}

// ResolutionField represents a Jira resolution.
type ResolutionField struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LinkedIssue is the abbreviated issue Jira embeds for parents, sub-tasks
// and link targets.
type LinkedIssue struct {
	ID     string `json:"id"`
	Key    string `json:"key"`
	Fields struct {
		Summary   string          `json:"summary"`
		Status    *StatusField    `json:"status"`
		IssueType *IssueTypeField `json:"issuetype"`
	} `json:"fields"`
}

// CommentPage is the comment field as returned with an issue.
type CommentPage struct {
	Total    int            `json:"total"`
	Comments []IssueComment `json:"comments"`
}

// IssueComment is one comment. Body is ADF on v3.
type IssueComment struct {
	ID      string          `json:"id"`
	Author  *UserField      `json:"author"`
	Body    json.RawMessage `json:"body"`
	Created string          `json:"created"`
}

// UserField represents a Jira user.
type UserField struct {
	AccountID   string `json:"accountId"`
	DisplayName string `json:"displayName"`
}

// IssueLink is one entry of the issuelinks field. Exactly one of InwardIssue
// and OutwardIssue is set.
type IssueLink struct {
	ID           string        `json:"id"`
	Type         IssueLinkType `json:"type"`
	InwardIssue  *LinkedIssue  `json:"inwardIssue,omitempty"`
	OutwardIssue *LinkedIssue  `json:"outwardIssue,omitempty"`
}

// IssueLinkType names a link type and its two directions.
type IssueLinkType struct {
	Name    string `json:"name"`
	Inward  string `json:"inward,omitempty"`
	Outward string `json:"outward,omitempty"`
}
