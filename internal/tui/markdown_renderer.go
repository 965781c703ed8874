package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// defaultMarkdownStyle is the glamour style used when none is configured.
const defaultMarkdownStyle = "dark"

// markdownRenderer renders markdown for terminal views and recreates the renderer when wrap width or style changes.
type markdownRenderer struct {
	style       string
	width       int
	activeStyle string
	renderer    *glamour.TermRenderer
}

// render converts markdown input into ANSI-styled terminal text with the requested wrap width.
func (r *markdownRenderer) render(markdown string, width int) string {
	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return ""
	}

	wrapWidth := max(width, 24)
	style := strings.TrimSpace(r.style)
	if style == "" {
		style = defaultMarkdownStyle
	}

	if r.renderer == nil || r.width != wrapWidth || r.activeStyle != style {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(wrapWidth),
		)
		if err != nil {
			return markdown
		}
		r.renderer = renderer
		r.width = wrapWidth
		r.activeStyle = style
	}

	rendered, err := r.renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.TrimRight(rendered, "\n")
}
