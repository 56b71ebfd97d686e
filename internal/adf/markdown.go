package adf

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var markdown = goldmark.New()

// FromMarkdown builds a document from Markdown-flavoured text, keeping the
// structure model output usually carries: headings, bullet and numbered lists,
// code blocks, emphasis and inline code. Unknown constructs fall back to their
// text content.
func FromMarkdown(src string) *Document {
	source := []byte(src)
	root := markdown.Parser().Parse(text.NewReader(source))

	doc := &Document{Version: 1}
	for c := root.FirstChild(); c != nil; c = c.NextSibling() {
		if n := convertBlock(c, source); n != nil {
			doc.Content = append(doc.Content, n)
		}
	}
	if len(doc.Content) == 0 {
		return FromText(src)
	}
	return doc
}

func convertBlock(n ast.Node, source []byte) Node {
	switch v := n.(type) {
	case *ast.Heading:
		b := NewBlock(TypeHeading, convertInline(v, source, nil)...)
		b.Attrs = map[string]any{"level": v.Level}
		return b
	case *ast.Paragraph, *ast.TextBlock:
		return NewBlock(TypeParagraph, convertInline(v, source, nil)...)
	case *ast.List:
		typ := TypeBulletList
		if v.IsOrdered() {
			typ = TypeOrderedList
		}
		list := NewBlock(typ)
		for item := v.FirstChild(); item != nil; item = item.NextSibling() {
			li := NewBlock(TypeListItem)
			for c := item.FirstChild(); c != nil; c = c.NextSibling() {
				if child := convertBlock(c, source); child != nil {
					li.Content = append(li.Content, child)
				}
			}
			list.Content = append(list.Content, li)
		}
		return list
	case *ast.FencedCodeBlock:
		b := NewBlock(TypeCodeBlock)
		if lang := string(v.Language(source)); lang != "" {
			b.Attrs = map[string]any{"language": lang}
		}
		if body := strings.TrimRight(linesOf(v, source), "\n"); body != "" {
			b.Content = []Node{NewText(body)}
		}
		return b
	case *ast.CodeBlock:
		b := NewBlock(TypeCodeBlock)
		if body := strings.TrimRight(linesOf(v, source), "\n"); body != "" {
			b.Content = []Node{NewText(body)}
		}
		return b
	case *ast.Blockquote:
		q := NewBlock(TypeBlockquote)
		for c := v.FirstChild(); c != nil; c = c.NextSibling() {
			if child := convertBlock(c, source); child != nil {
				q.Content = append(q.Content, child)
			}
		}
		return q
	case *ast.ThematicBreak:
		return NewBlock(TypeRule)
	}
	if body := strings.TrimSpace(linesOf(n, source)); body != "" {
		return NewBlock(TypeParagraph, NewText(body))
	}
	return nil
}

func linesOf(n ast.Node, source []byte) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(source))
	}
	return sb.String()
}

// convertInline flattens inline children into text leaves, carrying marks
// down from emphasis and code spans.
func convertInline(n ast.Node, source []byte, marks []Mark) []Node {
	var out []Node
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch v := c.(type) {
		case *ast.Text:
			if s := string(v.Segment.Value(source)); s != "" {
				out = append(out, NewText(s, marks...))
			}
			if v.HardLineBreak() {
				out = append(out, NewBlock(TypeHardBreak))
			} else if v.SoftLineBreak() && v.NextSibling() != nil {
				out = append(out, NewText(" ", marks...))
			}
		case *ast.String:
			if s := string(v.Value); s != "" {
				out = append(out, NewText(s, marks...))
			}
		case *ast.CodeSpan:
			out = append(out, convertInline(v, source, withMark(marks, Mark{Type: "code"}))...)
		case *ast.Emphasis:
			typ := "em"
			if v.Level >= 2 {
				typ = "strong"
			}
			out = append(out, convertInline(v, source, withMark(marks, Mark{Type: typ}))...)
		case *ast.Link:
			link := Mark{Type: "link", Attrs: map[string]any{"href": string(v.Destination)}}
			out = append(out, convertInline(v, source, withMark(marks, link))...)
		case *ast.AutoLink:
			url := string(v.URL(source))
			out = append(out, NewText(url, withMark(marks, Mark{Type: "link", Attrs: map[string]any{"href": url}})...))
		default:
			out = append(out, convertInline(v, source, marks)...)
		}
	}
	return out
}

func withMark(marks []Mark, m Mark) []Mark {
	out := make([]Mark, 0, len(marks)+1)
	out = append(out, marks...)
	return append(out, m)
}
