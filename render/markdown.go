package render

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"github.com/namanNagelia/canvasAgents/logging"
)

// Markdown renders section bodies through glamour.
type Markdown struct {
	renderer *glamour.TermRenderer
}

// NewMarkdown builds a renderer for the theme (auto, dark, light, notty).
// When glamour cannot be set up, bodies are shown as plain text.
func NewMarkdown(theme string, width int) *Markdown {
	if width < 20 {
		width = 20
	}
	style := glamour.WithAutoStyle()
	switch theme {
	case "dark", "light", "notty":
		style = glamour.WithStandardStyle(theme)
	}

	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		logging.Get(logging.CategoryTUI).Warn("markdown renderer unavailable", zap.Error(err))
		return &Markdown{}
	}
	return &Markdown{renderer: r}
}

// Render renders markdown with panic recovery, falling back to the input.
func (m *Markdown) Render(content string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			logging.Get(logging.CategoryTUI).Warn("markdown render panicked", zap.Any("panic", r))
			result = content
		}
	}()

	if m == nil || m.renderer == nil || strings.TrimSpace(content) == "" {
		return content
	}
	out, err := m.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}
