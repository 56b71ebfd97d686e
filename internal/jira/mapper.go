package jira

import (
	"github.com/ayerma/assistant/internal/adf"
	"github.com/ayerma/assistant/internal/tracker"
)

// ToTicket converts a REST issue into the tracker's ticket model. Missing
// optional fields stay zero.
func ToTicket(issue *Issue) *tracker.Ticket {
	if issue == nil {
		return nil
	}
	f := issue.Fields
	t := &tracker.Ticket{
		Key:         issue.Key,
		ID:          issue.ID,
		Summary:     f.Summary,
		Description: adf.Parse(f.Description),
		Labels:      f.Labels,
	}
	if f.IssueType != nil {
		t.Kind = f.IssueType.Name
	}
	if f.Project != nil {
		t.Project = f.Project.Key
	}
	if f.Parent != nil {
		t.ParentKey = f.Parent.Key
	}
	if f.Status != nil {
		t.Status = f.Status.Name
	}
	if f.Resolution != nil {
		t.Resolution = f.Resolution.Name
	}
	for _, st := range f.Subtasks {
		t.Subtasks = append(t.Subtasks, toRef(&st))
	}
	if f.Comment != nil {
		for _, c := range f.Comment.Comments {
			cm := tracker.Comment{ID: c.ID, Created: c.Created, Body: adf.Parse(c.Body)}
			if c.Author != nil {
				cm.Author = c.Author.DisplayName
			}
			t.Comments = append(t.Comments, cm)
		}
	}
	for _, l := range f.IssueLinks {
		// inwardIssue means the other issue is on the inward side, so this
		// ticket reads the link through its inward label ("is blocked by").
		switch {
		case l.InwardIssue != nil:
			t.Links = append(t.Links, tracker.Link{Type: l.Type.Name, Relation: l.Type.Inward, Issue: toRef(l.InwardIssue)})
		case l.OutwardIssue != nil:
			t.Links = append(t.Links, tracker.Link{Type: l.Type.Name, Relation: l.Type.Outward, Issue: toRef(l.OutwardIssue)})
		}
	}
	return t
}

func toRef(li *LinkedIssue) tracker.Ref {
	r := tracker.Ref{Key: li.Key, Summary: li.Fields.Summary}
	if li.Fields.IssueType != nil {
		r.Kind = li.Fields.IssueType.Name
	}
	if li.Fields.Status != nil {
		r.Status = li.Fields.Status.Name
	}
	return r
}
