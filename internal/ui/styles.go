// Package ui renders run reports and hierarchy chains for the terminal.
// Uses the Ayu color theme with adaptive light/dark mode support.
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Ayu theme color palette
var (
	ColorPass   = lipgloss.AdaptiveColor{Light: "#86b300", Dark: "#c2d94c"}
	ColorWarn   = lipgloss.AdaptiveColor{Light: "#f2ae49", Dark: "#ffb454"}
	ColorFail   = lipgloss.AdaptiveColor{Light: "#f07171", Dark: "#f07178"}
	ColorMuted  = lipgloss.AdaptiveColor{Light: "#828c99", Dark: "#6c7680"}
	ColorAccent = lipgloss.AdaptiveColor{Light: "#399ee6", Dark: "#59c2ff"}
)

// Status icons
const (
	IconPass = "✓"
	IconWarn = "⚠"
	IconFail = "✗"
	IconSkip = "-"
)

// Tree characters for hierarchical display
const (
	TreeChild  = "⎿ "
	TreeIndent = "  "
)

// SeparatorLight is the rule drawn between report sections.
const SeparatorLight = "──────────────────────────────────────────"

// Styles is a palette bound to one renderer, so output written to a file
// or pipe stays free of escape codes.
type Styles struct {
	Pass     lipgloss.Style
	Warn     lipgloss.Style
	Fail     lipgloss.Style
	Muted    lipgloss.Style
	Accent   lipgloss.Style
	Category lipgloss.Style
}

// NewStyles builds the palette on r.
func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Pass:     r.NewStyle().Foreground(ColorPass),
		Warn:     r.NewStyle().Foreground(ColorWarn),
		Fail:     r.NewStyle().Foreground(ColorFail),
		Muted:    r.NewStyle().Foreground(ColorMuted),
		Accent:   r.NewStyle().Foreground(ColorAccent),
		Category: r.NewStyle().Bold(true).Foreground(ColorAccent),
	}
}

// RenderCategory renders a category header in uppercase with accent color
func (s Styles) RenderCategory(text string) string {
	return s.Category.Render(strings.ToUpper(text))
}

// RenderSeparator renders the light separator line in muted color
func (s Styles) RenderSeparator() string {
	return s.Muted.Render(SeparatorLight)
}
