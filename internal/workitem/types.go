package workitem

import (
	"bytes"
	"encoding/json"
	"strings"

	"gopkg.in/yaml.v3"
)

// Text is a lenient scalar: strings are kept, numbers and booleans keep their
// literal form, and null, objects and arrays read as empty.
type Text string

// String returns the text trimmed of surrounding space.
func (t Text) String() string { return strings.TrimSpace(string(t)) }

// Blank reports whether the text is empty after trimming.
func (t Text) Blank() bool { return t.String() == "" }

// Or returns t, or def when t is blank.
func (t Text) Or(def string) string {
	if t.Blank() {
		return def
	}
	return t.String()
}

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*t = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	case '{', '[', 'n':
		*t = ""
	default:
		*t = Text(data)
	}
	return nil
}

func (t *Text) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode || value.Tag == "!!null" {
		*t = ""
		return nil
	}
	*t = Text(value.Value)
	return nil
}

// Lines is a list of text entries. Entries that are not strings are dropped,
// and a value that is not a list reads as empty.
type Lines []string

func (l *Lines) UnmarshalJSON(data []byte) error {
	*l = nil
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil
	}
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			*l = append(*l, s)
		}
	}
	return nil
}

func (l *Lines) UnmarshalYAML(value *yaml.Node) error {
	*l = nil
	if value.Kind != yaml.SequenceNode {
		return nil
	}
	for _, item := range value.Content {
		if item.Kind == yaml.ScalarNode && item.Tag == "!!str" {
			*l = append(*l, item.Value)
		}
	}
	return nil
}

// NonBlank returns the entries that have text, trimmed.
func (l Lines) NonBlank() []string {
	var out []string
	for _, s := range l {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Node is one work item from model output. Only one level of Children is
// ever materialized.
type Node struct {
	ID                 Text   `json:"id,omitempty" yaml:"id,omitempty"`
	Title              Text   `json:"title,omitempty" yaml:"title,omitempty"`
	Description        Text   `json:"description,omitempty" yaml:"description,omitempty"`
	TechnicalNotes     Text   `json:"technical_notes,omitempty" yaml:"technical_notes,omitempty"`
	Type               Text   `json:"type,omitempty" yaml:"type,omitempty"`
	TicketType         Text   `json:"ticket_type,omitempty" yaml:"ticket_type,omitempty"`
	StoryPoints        Text   `json:"story_points,omitempty" yaml:"story_points,omitempty"`
	AcceptanceCriteria Lines  `json:"acceptance_criteria,omitempty" yaml:"acceptance_criteria,omitempty"`
	Reason             Text   `json:"reason,omitempty" yaml:"reason,omitempty"`
	Children           []Node `json:"sub_tickets,omitempty" yaml:"sub_tickets,omitempty"`
}

// Plan is the BA output: top-level tasks with question sub-tickets.
type Plan struct {
	Tasks []Node `json:"tasks" yaml:"tasks"`
}

// Breakdown is the content breakdown output.
type Breakdown struct {
	Subtopics []Node `json:"subtopics" yaml:"subtopics"`
}

// Remedy is one side of a troubleshooting answer.
type Remedy struct {
	Title          Text  `json:"title,omitempty" yaml:"title,omitempty"`
	Description    Text  `json:"description,omitempty" yaml:"description,omitempty"`
	Reason         Text  `json:"reason,omitempty" yaml:"reason,omitempty"`
	Steps          Lines `json:"steps,omitempty" yaml:"steps,omitempty"`
	Verification   Text  `json:"verification,omitempty" yaml:"verification,omitempty"`
	RelatedTickets Lines `json:"related_tickets,omitempty" yaml:"related_tickets,omitempty"`
}

// Troubleshooting splits a diagnosis into repository changes and manual work.
// Either side may be absent.
type Troubleshooting struct {
	TechnicalFix  *Remedy `json:"technical_fix,omitempty" yaml:"technical_fix,omitempty"`
	ManualActions *Remedy `json:"manual_actions,omitempty" yaml:"manual_actions,omitempty"`
}

// QA is one generated interview question with its answer.
type QA struct {
	Question Text `json:"question" yaml:"question"`
	Answer   Text `json:"answer" yaml:"answer"`
}

// InterviewSet is the content creator output.
type InterviewSet struct {
	Topic     Text `json:"topic" yaml:"topic"`
	Questions []QA `json:"questions" yaml:"questions"`
}

// TechResult is the part of the implementation output the tracker cares about.
type TechResult struct {
	PullRequestURL Text `json:"pull_request_url,omitempty" yaml:"pull_request_url,omitempty"`
	Summary        Text `json:"summary,omitempty" yaml:"summary,omitempty"`
}
