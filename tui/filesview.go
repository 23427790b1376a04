package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) updateFiles(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "f", "q":
		m.mode = modeChat
		m.refreshViewport()
	case "up", "k":
		m.panel.MoveUp()
	case "down", "j":
		m.panel.MoveDown()
	case " ", "space", "x", "enter":
		m.panel.ToggleCursor()
	case "u":
		return m.enterUpload()
	case "r":
		if id := m.chat.ID(); id != "" {
			m.status = "refreshing files..."
			return m, m.env.upload(id, nil)
		}
	}
	return m, nil
}

func (m Model) enterUpload() (Model, tea.Cmd) {
	if m.chat.ID() == "" {
		m.status = "open a session before uploading"
		return m, nil
	}
	m.uploadInput.SetValue("")
	m.uploadInput.Focus()
	m.mode = modeUpload
	return m, textinput.Blink
}

func (m Model) updateUpload(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.uploadInput.Blur()
		m.mode = modeFiles
		return m, nil
	case "enter":
		m.uploadInput.Blur()
		m.mode = modeFiles
		paths := splitPaths(m.uploadInput.Value())
		if len(paths) == 0 {
			return m, nil
		}
		m.status = fmt.Sprintf("uploading %d file(s)...", len(paths))
		return m, m.env.upload(m.chat.ID(), paths)
	}

	var cmd tea.Cmd
	m.uploadInput, cmd = m.uploadInput.Update(msg)
	return m, cmd
}

func (m Model) uploadsDone(msg uploadsDoneMsg) (tea.Model, tea.Cmd) {
	if msg.sessionID != m.chat.ID() {
		return m, nil
	}
	if msg.files != nil {
		m.panel.Replace(msg.files)
	}
	if msg.err != nil {
		next, cmd, _ := m.handleErr(msg.err)
		return next, cmd
	}
	m.status = fmt.Sprintf("%d file(s) in this session", m.panel.Len())
	return m, nil
}

func (m Model) viewFiles() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(pad("Files", max(20, m.width-4))) + "\n")

	list := m.panel.Files()
	if len(list) == 0 {
		b.WriteString(dimStyle.Render("\n  No files yet. Press u to upload documents for this session.\n"))
		return b.String()
	}

	nameWidth := max(20, m.width/3)
	for i, f := range list {
		mark := "[ ]"
		if f.Selected {
			mark = "[x]"
		}
		size := "-"
		if f.ContentLength > 0 {
			size = fmt.Sprintf("%d chars", f.ContentLength)
		}
		row := strings.Join([]string{
			mark,
			pad(f.Name, nameWidth),
			pad(size, 12),
			f.Preview,
		}, " ")
		if i == m.panel.Cursor() {
			b.WriteString(selectedStyle.Render(row) + "\n")
		} else {
			b.WriteString(normalStyle.Render(row) + "\n")
		}
	}
	return b.String()
}

// splitPaths splits the upload input on whitespace and expands a leading ~.
func splitPaths(input string) []string {
	var paths []string
	home, _ := os.UserHomeDir()
	for _, p := range strings.Fields(input) {
		if home != "" && (p == "~" || strings.HasPrefix(p, "~/")) {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
		paths = append(paths, p)
	}
	return paths
}
