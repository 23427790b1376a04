package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// loginForm field indices
const (
	fieldAction = iota
	fieldName
	fieldEmail
	fieldPassword
	fieldCount
)

type loginForm struct {
	register bool // false = log in, true = create account
	name     textinput.Model
	email    textinput.Model
	password textinput.Model
	focus    int
	busy     bool
	message  string
}

func newLoginForm() *loginForm {
	name := textinput.New()
	name.Placeholder = "Ada Lovelace"
	name.CharLimit = 100

	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.CharLimit = 200

	pw := textinput.New()
	pw.Placeholder = "password"
	pw.CharLimit = 200
	pw.EchoMode = textinput.EchoPassword
	pw.EchoCharacter = '•'

	f := &loginForm{name: name, email: email, password: pw, focus: fieldEmail}
	f.focusCurrent()
	return f
}

func (m Model) enterLogin(message string) (Model, tea.Cmd) {
	m.login = newLoginForm()
	m.login.message = message
	m.user.Name = ""
	m.mode = modeLogin
	return m, textinput.Blink
}

// next moves focus, skipping the name field unless registering.
func (f *loginForm) next(step int) {
	f.blurCurrent()
	for {
		f.focus = (f.focus + step + fieldCount) % fieldCount
		if f.focus != fieldName || f.register {
			break
		}
	}
	f.focusCurrent()
}

func (f *loginForm) input() *textinput.Model {
	switch f.focus {
	case fieldName:
		return &f.name
	case fieldEmail:
		return &f.email
	case fieldPassword:
		return &f.password
	}
	return nil
}

func (f *loginForm) blurCurrent() {
	if in := f.input(); in != nil {
		in.Blur()
	}
}

func (f *loginForm) focusCurrent() {
	if in := f.input(); in != nil {
		in.Focus()
		in.CursorEnd()
	}
}

func (m Model) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.login
	key := msg.String()

	if f.busy {
		return m, nil
	}

	// global keys
	switch key {
	case "esc":
		m.quitting = true
		return m, tea.Quit

	case "tab", "down":
		f.next(1)
		return m, nil

	case "shift+tab", "up":
		f.next(-1)
		return m, nil

	case "enter":
		email := strings.TrimSpace(f.email.Value())
		password := f.password.Value()
		name := strings.TrimSpace(f.name.Value())
		switch {
		case email == "" || password == "":
			f.message = "email and password are required"
			return m, nil
		case f.register && name == "":
			f.message = "name is required to register"
			return m, nil
		}
		f.busy = true
		f.message = ""
		if f.register {
			return m, m.env.register(name, email, password)
		}
		return m, m.env.login(email, password)
	}

	// field-specific keys
	if f.focus == fieldAction {
		switch key {
		case "left", "h":
			f.register = false
		case "right", "l":
			f.register = true
		}
		return m, nil
	}

	var cmd tea.Cmd
	in := f.input()
	*in, cmd = in.Update(msg)
	return m, cmd
}

func (m Model) loginDone(msg loginDoneMsg) (tea.Model, tea.Cmd) {
	if m.login == nil {
		return m, nil
	}
	m.login.busy = false
	if msg.err != nil {
		m.login.message = msg.err.Error()
		m.login.password.SetValue("")
		return m, nil
	}
	m.user = msg.user
	m.login = nil
	m.status = ""
	m.mode = modeList
	return m, m.env.loadHistory()
}

func (m Model) viewLogin() string {
	f := m.login
	if f == nil {
		return ""
	}

	heading := "Log in"
	if f.register {
		heading = "Create account"
	}
	titleStr := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39")).
		Render("canvas · " + heading)

	actionLabel := fieldLabel("Mode:", f.focus == fieldAction)
	actionValue := renderRadio([]string{"Log in", "Register"}, boolIndex(f.register), f.focus == fieldAction)

	rows := []string{titleStr, fmt.Sprintf("%s  %s", actionLabel, actionValue)}
	if f.register {
		rows = append(rows, fmt.Sprintf("%s  %s", fieldLabel("Name:", f.focus == fieldName), f.name.View()))
	}
	rows = append(rows,
		fmt.Sprintf("%s  %s", fieldLabel("Email:", f.focus == fieldEmail), f.email.View()),
		fmt.Sprintf("%s  %s", fieldLabel("Pass:", f.focus == fieldPassword), f.password.View()),
	)

	switch {
	case f.busy:
		rows = append(rows, dimStyle.Render("Signing in..."))
	case f.message != "":
		rows = append(rows, errorStyle.Render(f.message))
	}
	rows = append(rows, dimStyle.Render("Enter: submit  Tab: next  ←→: toggle  Esc: quit"))

	box := formBoxStyle.Render(strings.Join(rows, "\n\n"))

	// center the box on screen
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func fieldLabel(label string, focused bool) string {
	style := lipgloss.NewStyle().Width(6)
	if focused {
		style = style.Bold(true).Foreground(lipgloss.Color("39"))
	} else {
		style = style.Foreground(lipgloss.Color("252"))
	}
	return style.Render(label)
}

func renderRadio(options []string, selected int, focused bool) string {
	var parts []string
	for i, opt := range options {
		if i == selected {
			style := lipgloss.NewStyle().Bold(true)
			if focused {
				style = style.Foreground(lipgloss.Color("39"))
			} else {
				style = style.Foreground(lipgloss.Color("255"))
			}
			parts = append(parts, style.Render("● "+opt))
		} else {
			parts = append(parts, dimStyle.Render("○ "+opt))
		}
	}
	return strings.Join(parts, "   ")
}

func boolIndex(b bool) int {
	if b {
		return 1
	}
	return 0
}
