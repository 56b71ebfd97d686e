// Package adf converts between Jira's Atlassian Document Format and plain text.
//
// A document is a tree of nodes. Leaves are *Text nodes carrying literal text;
// everything else is a *Block holding an ordered list of children. Conversions
// never fail: malformed or missing input degrades to an empty document.
package adf

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Node types used by the converters.
const (
	TypeDoc         = "doc"
	TypeParagraph   = "paragraph"
	TypeText        = "text"
	TypeHeading     = "heading"
	TypeBulletList  = "bulletList"
	TypeOrderedList = "orderedList"
	TypeListItem    = "listItem"
	TypeCodeBlock   = "codeBlock"
	TypeBlockquote  = "blockquote"
	TypeRule        = "rule"
	TypeHardBreak   = "hardBreak"
)

// Node is either a *Text leaf or a *Block container.
type Node interface {
	// NodeType returns the ADF "type" of the node.
	NodeType() string
	node()
}

// Mark is an inline formatting mark on a text node (strong, em, code, link).
type Mark struct {
	Type  string         `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// Text is a leaf carrying literal text.
type Text struct {
	Text  string
	Marks []Mark
}

// Block is a container node. It never carries text of its own.
type Block struct {
	Type    string
	Attrs   map[string]any
	Content []Node
}

func (*Text) NodeType() string    { return TypeText }
func (b *Block) NodeType() string { return b.Type }
func (*Text) node()               {}
func (*Block) node()              {}

// Document is the root of an ADF tree.
type Document struct {
	Version int
	Content []Node
}

// NewText returns a text leaf.
func NewText(s string, marks ...Mark) *Text {
	return &Text{Text: s, Marks: marks}
}

// NewBlock returns a container of the given type.
func NewBlock(typ string, children ...Node) *Block {
	return &Block{Type: typ, Content: children}
}

// IsEmpty reports whether the document has no text at all.
func (d *Document) IsEmpty() bool {
	return d == nil || strings.TrimSpace(ToPlainText(d)) == ""
}

// wire is the JSON shape of any ADF node.
type wire struct {
	Type    string          `json:"type"`
	Version int             `json:"version,omitempty"`
	Text    *string         `json:"text,omitempty"`
	Marks   []Mark          `json:"marks,omitempty"`
	Attrs   map[string]any  `json:"attrs,omitempty"`
	Content json.RawMessage `json:"content,omitempty"`
}

// Parse decodes raw ADF JSON. A JSON string is treated as a plain-text body
// (Jira server and v2 endpoints return those). Anything unreadable yields an
// empty document.
func Parse(raw json.RawMessage) *Document {
	doc := &Document{Version: 1}
	if len(raw) == 0 || string(raw) == "null" {
		return doc
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return FromText(s)
	}

	var root wire
	if err := json.Unmarshal(raw, &root); err != nil {
		return doc
	}
	if root.Version > 0 {
		doc.Version = root.Version
	}
	if root.Type != TypeDoc {
		// A bare node: wrap it so callers always see a document.
		if n := decodeNode(root); n != nil {
			doc.Content = []Node{n}
		}
		return doc
	}
	doc.Content = decodeChildren(root.Content)
	return doc
}

func decodeChildren(raw json.RawMessage) []Node {
	if len(raw) == 0 {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	nodes := make([]Node, 0, len(items))
	for _, item := range items {
		var w wire
		if err := json.Unmarshal(item, &w); err != nil {
			continue
		}
		if n := decodeNode(w); n != nil {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

func decodeNode(w wire) Node {
	if w.Type == TypeText {
		if w.Text == nil {
			return &Text{Marks: w.Marks}
		}
		return &Text{Text: *w.Text, Marks: w.Marks}
	}
	if w.Type == "" {
		return nil
	}
	return &Block{Type: w.Type, Attrs: w.Attrs, Content: decodeChildren(w.Content)}
}

// MarshalJSON encodes the document as ADF.
func (d *Document) MarshalJSON() ([]byte, error) {
	version := d.Version
	if version == 0 {
		version = 1
	}
	return json.Marshal(map[string]any{
		"type":    TypeDoc,
		"version": version,
		"content": encodeChildren(d.Content),
	})
}

// UnmarshalJSON decodes ADF leniently; it never returns an error.
func (d *Document) UnmarshalJSON(raw []byte) error {
	*d = *Parse(raw)
	return nil
}

func encodeChildren(nodes []Node) []any {
	out := make([]any, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, encodeNode(n))
	}
	return out
}

func encodeNode(n Node) map[string]any {
	switch v := n.(type) {
	case *Text:
		m := map[string]any{"type": TypeText, "text": v.Text}
		if len(v.Marks) > 0 {
			m["marks"] = v.Marks
		}
		return m
	case *Block:
		m := map[string]any{"type": v.Type}
		if len(v.Attrs) > 0 {
			m["attrs"] = v.Attrs
		}
		// Leaf blocks like rule and hardBreak must not carry content.
		if v.Type != TypeRule && v.Type != TypeHardBreak {
			m["content"] = encodeChildren(v.Content)
		}
		return m
	}
	return map[string]any{}
}

var controlRun = regexp.MustCompile(`[\x00-\x1f]+`)

// ToPlainText flattens a document depth-first. Text leaves are appended
// verbatim and a single space follows every child of a container, which marks
// block boundaries. Control characters collapse to one space and the result is
// trimmed. A nil or empty document yields "".
func ToPlainText(d *Document) string {
	if d == nil {
		return ""
	}
	var sb strings.Builder
	for _, n := range d.Content {
		flatten(n, &sb)
		sb.WriteByte(' ')
	}
	return strings.TrimSpace(controlRun.ReplaceAllString(sb.String(), " "))
}

func flatten(n Node, sb *strings.Builder) {
	switch v := n.(type) {
	case *Text:
		sb.WriteString(v.Text)
	case *Block:
		for _, child := range v.Content {
			flatten(child, sb)
			sb.WriteByte(' ')
		}
	}
}

// ToLines renders a document one block per line, keeping paragraph breaks.
// Inline text inside a paragraph is concatenated without separators; hard
// breaks become newlines. Use it where layout matters (prompt bodies); use
// ToPlainText for single-line summaries.
func ToLines(d *Document) string {
	if d == nil {
		return ""
	}
	var lines []string
	for _, n := range d.Content {
		lines = appendLines(lines, n, "")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n ")
}

func appendLines(lines []string, n Node, prefix string) []string {
	switch v := n.(type) {
	case *Text:
		return append(lines, prefix+v.Text)
	case *Block:
		switch v.Type {
		case TypeBulletList, TypeOrderedList:
			for i, item := range v.Content {
				marker := "- "
				if v.Type == TypeOrderedList {
					marker = strconv.Itoa(i+1) + ". "
				}
				lines = appendLines(lines, item, prefix+marker)
			}
			return lines
		case TypeListItem, TypeBlockquote:
			for i, child := range v.Content {
				p := prefix
				if i > 0 {
					p = strings.Repeat(" ", len(prefix))
				}
				lines = appendLines(lines, child, p)
			}
			return lines
		case TypeRule:
			return append(lines, prefix+"---")
		}
		if !hasBlockChildren(v) {
			return append(lines, prefix+inlineText(v))
		}
		for _, child := range v.Content {
			lines = appendLines(lines, child, prefix)
		}
		return lines
	}
	return lines
}

func hasBlockChildren(b *Block) bool {
	for _, c := range b.Content {
		if blk, ok := c.(*Block); ok && blk.Type != TypeHardBreak {
			return true
		}
	}
	return false
}

func inlineText(b *Block) string {
	var sb strings.Builder
	for _, c := range b.Content {
		switch v := c.(type) {
		case *Text:
			sb.WriteString(v.Text)
		case *Block:
			if v.Type == TypeHardBreak {
				sb.WriteByte('\n')
			}
		}
	}
	return sb.String()
}

// FromText builds a minimal document: one paragraph per input line. Blank
// lines become empty paragraphs so vertical spacing survives; Jira rejects
// empty text nodes, so those paragraphs carry no leaf.
func FromText(text string) *Document {
	doc := &Document{Version: 1}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			doc.Content = append(doc.Content, NewBlock(TypeParagraph))
			continue
		}
		doc.Content = append(doc.Content, NewBlock(TypeParagraph, NewText(line)))
	}
	return doc
}
