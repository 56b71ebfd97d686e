package prompt

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/ayerma/assistant/internal/adf"
	"github.com/ayerma/assistant/internal/tracker"
)

// Subject is the ticket a prompt is about.
type Subject struct {
	Key         string
	Kind        string
	Summary     string
	Description string
}

// SubjectOf extracts the prompt fields of a ticket, keeping description lines.
func SubjectOf(t *tracker.Ticket) Subject {
	if t == nil {
		return Subject{}
	}
	return Subject{
		Key:         t.Key,
		Kind:        t.Kind,
		Summary:     strings.TrimSpace(t.Summary),
		Description: strings.TrimSpace(adf.ToLines(t.Description)),
	}
}

// Question is an answered (or pending) clarification sub-task.
type Question struct {
	Question string
	Context  string
	Answer   string
	Status   string
}

// TechData feeds the implementation prompt.
type TechData struct {
	Subject
	// Context is the top of the ancestor chain, when it is not the task itself.
	Context   *Subject
	Questions []Question
	RepoPath  string
}

// Related is one linked issue shown to the troubleshooter.
type Related struct {
	Key         string
	LinkType    string
	Status      string
	Summary     string
	Description string
}

// TroubleshootData feeds the troubleshooting prompt.
type TroubleshootData struct {
	Subject
	Related []Related
}

var funcs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
	"or2": func(s, def string) string {
		if strings.TrimSpace(s) == "" {
			return def
		}
		return s
	},
}

const baTemplate = `Jira issue key: {{or2 .Key "(unknown)"}}
Title: {{or2 .Summary "(unknown)"}}

{{if .Description}}Description:
{{.Description}}

{{end}}Task: Convert this Jira ticket into an implementation plan following the BA role instructions. Return ONLY the STRICT JSON as specified (no markdown).
`

const techTemplate = `{{with .Context}}# Context: Original Application Idea

{{.Kind}}: {{.Key}}
Summary: {{.Summary}}

{{if .Description}}{{.Description}}

{{end}}---

{{end}}# Current Task

Issue: {{.Key}}
Summary: {{.Summary}}

{{if .Description}}Description:
{{.Description}}

{{end}}{{if .Questions}}# Additional Details (Questions & Answers)

{{range $i, $q := .Questions}}## Question {{inc $i}}
**Q:** {{$q.Question}}

{{if $q.Context}}**Context:** {{$q.Context}}

{{end}}{{if $q.Answer}}**A:** {{$q.Answer}}

{{else if $q.Status}}**Status:** {{$q.Status}}

{{end}}---

{{end}}{{end}}# Important Instructions

- You MUST work ONLY on the current task defined above ({{.Key}})
- Parent tickets are provided for context only
- Follow all technical requirements from the technical guide
- Implement only what is specified in the task description and answered questions
- Do not add features or functionality beyond the current task scope
{{if .RepoPath}}

Repository path: {{.RepoPath}}
{{end}}`

const breakdownTemplate = `# Content Breakdown Request

Issue Key: {{.Key}}

## Content Area

{{.Summary}}

{{if .Description}}## Content Description

{{.Description}}

{{end}}Please analyze this content request and break it down into logical subtopics. Return the JSON structure as specified.`

const interviewTemplate = `Generate Java interview questions for the following topic:

Jira Issue: {{.Key}}
Topic: {{.Summary}}

Generate 8-12 most common interview questions for this Java topic with comprehensive answers.
Return ONLY the JSON object following the exact schema defined in the instructions.
`

const troubleshootTemplate = `# Issue to Troubleshoot

**Issue Key:** {{.Key}}
**Type:** {{or2 .Kind "Unknown"}}
**Summary:** {{or2 .Summary "No summary"}}

{{if .Description}}**Description:**
{{.Description}}

{{end}}{{if .Related}}# Related Issues

{{range $i, $r := .Related}}## Related Issue {{inc $i}}: {{$r.Key}}

**Link Type:** {{or2 $r.LinkType "Related"}}
**Status:** {{or2 $r.Status "Unknown"}}
**Summary:** {{or2 $r.Summary "No summary"}}

{{if $r.Description}}**Description:**
{{$r.Description}}

{{end}}---

{{end}}{{end}}# Task

Analyze the issue and all related context provided above. Provide troubleshooting guidance split into:
1. **Technical fixes** - code or configuration changes in the repository
2. **Manual actions** - steps requiring human intervention outside the repository

Return the strict JSON format as specified in the instructions.
`

var (
	baTmpl           = template.Must(template.New("ba").Funcs(funcs).Parse(baTemplate))
	techTmpl         = template.Must(template.New("tech").Funcs(funcs).Parse(techTemplate))
	breakdownTmpl    = template.Must(template.New("breakdown").Funcs(funcs).Parse(breakdownTemplate))
	interviewTmpl    = template.Must(template.New("interview").Funcs(funcs).Parse(interviewTemplate))
	troubleshootTmpl = template.Must(template.New("troubleshoot").Funcs(funcs).Parse(troubleshootTemplate))
)

func render(t *template.Template, data any) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", t.Name(), err)
	}
	return b.String(), nil
}

// BA renders the planning prompt.
func BA(s Subject) (string, error) { return render(baTmpl, s) }

// Tech renders the implementation prompt.
func Tech(d TechData) (string, error) { return render(techTmpl, d) }

// Breakdown renders the content breakdown prompt.
func Breakdown(s Subject) (string, error) { return render(breakdownTmpl, s) }

// Interview renders the interview content prompt.
func Interview(s Subject) (string, error) { return render(interviewTmpl, s) }

// Troubleshoot renders the troubleshooting prompt.
func Troubleshoot(d TroubleshootData) (string, error) { return render(troubleshootTmpl, d) }
