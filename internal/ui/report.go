package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/ayerma/assistant/internal/hierarchy"
	"github.com/ayerma/assistant/internal/materialize"
	"github.com/ayerma/assistant/internal/pipeline"
)

const summaryWidth = 72

// Printer writes human-readable run output.
type Printer struct {
	w io.Writer
	s Styles
}

// NewPrinter returns a Printer on w.
func NewPrinter(w io.Writer, color bool) *Printer {
	return &Printer{w: w, s: NewStyles(NewRenderer(w, color))}
}

// Result prints the outcome of one role run.
func (p *Printer) Result(res *pipeline.Result) {
	if res == nil {
		return
	}
	fmt.Fprintf(p.w, "%s %s\n", p.s.RenderCategory(res.Role), p.s.Accent.Render(res.Key))
	if res.PromptPath != "" {
		fmt.Fprintf(p.w, "%sprompt  %s\n", TreeIndent, p.s.Muted.Render(res.PromptPath))
	}
	if res.OutputPath != "" && !res.PromptOnly {
		fmt.Fprintf(p.w, "%soutput  %s\n", TreeIndent, p.s.Muted.Render(res.OutputPath))
	}
	switch {
	case res.PromptOnly:
		fmt.Fprintf(p.w, "%s %s\n", p.s.Muted.Render(IconSkip), "prompt written, generation skipped")
	case res.Declined:
		fmt.Fprintf(p.w, "%s %s\n", p.s.Warn.Render(IconWarn), "changes declined, nothing written to the tracker")
	case res.Report != nil:
		p.Report(res.Report)
	}
}

// Report prints created issues and failures of one batch.
func (p *Printer) Report(r *materialize.Report) {
	if r == nil {
		return
	}
	if r.Skipped {
		fmt.Fprintf(p.w, "%s nothing to create for %s\n", p.s.Muted.Render(IconSkip), r.SourceKey)
		return
	}
	for _, res := range r.Results {
		indent := ""
		if res.ParentKey != "" && res.ParentKey != r.SourceKey {
			indent = TreeIndent + TreeChild
		}
		fmt.Fprintf(p.w, "%s%s %s %s %s\n", indent,
			p.s.Pass.Render(IconPass),
			p.s.Accent.Render(res.Key),
			p.s.Muted.Render("["+res.Kind+"]"),
			TruncateSimple(res.Summary, summaryWidth))
	}
	for _, f := range r.Failures {
		who := f.Summary
		if f.Key != "" {
			who = f.Key + " " + f.Summary
		}
		fmt.Fprintf(p.w, "%s %s %s: %s\n",
			p.s.Fail.Render(IconFail),
			p.s.Muted.Render(f.Stage),
			TruncateSimple(who, summaryWidth),
			FirstLine(f.Message))
	}
	fmt.Fprintln(p.w, p.s.RenderSeparator())
	status := p.s.Pass.Render(fmt.Sprintf("%d created", r.Created()))
	if r.Failed() > 0 {
		status += ", " + p.s.Fail.Render(fmt.Sprintf("%d failed", r.Failed()))
	}
	fmt.Fprintf(p.w, "%s from %s\n", status, r.SourceKey)
}

// Chain prints the parent walk from the start ticket up.
func (p *Printer) Chain(c *hierarchy.Chain) {
	if c == nil {
		return
	}
	for i, t := range c.Tickets {
		prefix := ""
		if i > 0 {
			prefix = strings.Repeat(TreeIndent, i-1) + TreeChild
		}
		fmt.Fprintf(p.w, "%s%s %s %s\n", prefix,
			p.s.Accent.Render(t.Key),
			p.s.Muted.Render("["+t.Kind+"]"),
			TruncateSimple(t.Summary, summaryWidth))
	}
	icon, note := p.s.Pass.Render(IconPass), "top-level issue found"
	switch c.Stop {
	case hierarchy.ReachedRoot:
		icon, note = p.s.Warn.Render(IconWarn), "reached an issue without a parent"
	case hierarchy.DepthExceeded:
		icon, note = p.s.Warn.Render(IconWarn), "stopped at the depth limit"
	}
	fmt.Fprintf(p.w, "%s %s (%d fetches)\n", icon, note, c.Fetches)
}
