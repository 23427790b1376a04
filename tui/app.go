// Package tui is the bubbletea front end: login, the session list and the
// chat view.
package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/namanNagelia/canvasAgents/api"
	"github.com/namanNagelia/canvasAgents/chat"
	"github.com/namanNagelia/canvasAgents/diagram"
	"github.com/namanNagelia/canvasAgents/files"
	"github.com/namanNagelia/canvasAgents/logging"
	"github.com/namanNagelia/canvasAgents/model"
	"github.com/namanNagelia/canvasAgents/render"
)

type mode int

const (
	modeStartup mode = iota
	modeLogin
	modeList
	modeSearch
	modeChat
	modeFiles
	modeUpload
)

// Options wires the model to its collaborators.
type Options struct {
	Backend      Backend
	Cache        Cache // nil disables offline fallback
	Diagrams     *diagram.Cache
	Renderer     *render.Renderer
	Timeout      time.Duration
	DefaultAgent model.AgentKind
}

type Model struct {
	env      env
	renderer *render.Renderer
	width    int
	height   int
	mode     mode
	status   string
	user     api.User
	offline  bool
	quitting bool

	login *loginForm

	sessions    []model.Session
	filtered    []model.Session
	cursor      int
	offset      int // scroll offset
	searchInput textinput.Model

	chat        *chat.Session
	opening     string // session id being fetched
	agent       model.AgentKind
	composer    textarea.Model
	viewport    viewport.Model
	spinner     spinner.Model
	decks       map[string]*model.Deck
	rendering   map[string]bool
	panel       *files.Panel
	uploadInput textinput.Model
}

func NewModel(opts Options) Model {
	if opts.Timeout <= 0 {
		opts.Timeout = 120 * time.Second
	}
	if opts.Diagrams == nil {
		opts.Diagrams = diagram.NewCache(nil)
	}
	if opts.Renderer == nil {
		opts.Renderer = render.New(render.Options{}, opts.Diagrams)
	}
	agent := opts.DefaultAgent
	if _, ok := model.LookupAgent(agent); !ok {
		agent = model.AgentGeneral
	}

	si := textinput.New()
	si.Placeholder = "search..."
	si.CharLimit = 100

	ui := textinput.New()
	ui.Placeholder = "paths to upload, separated by spaces"
	ui.CharLimit = 2000

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		env: env{
			backend:  opts.Backend,
			cache:    opts.Cache,
			diagrams: opts.Diagrams,
			timeout:  opts.Timeout,
		},
		renderer:    opts.Renderer,
		width:       120,
		height:      30,
		searchInput: si,
		uploadInput: ui,
		chat:        chat.New(),
		agent:       agent,
		composer:    newComposer(),
		viewport:    viewport.New(120, 20),
		spinner:     sp,
		decks:       make(map[string]*model.Deck),
		rendering:   make(map[string]bool),
		panel:       &files.Panel{},
	}
	m.setComposerPlaceholder()
	return m
}

func (m Model) Init() tea.Cmd {
	return m.env.checkAuth()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.clampOffset()
		m.layoutChat()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		switch m.mode {
		case modeLogin:
			return m.updateLogin(msg)
		case modeList:
			return m.updateList(msg)
		case modeSearch:
			return m.updateSearch(msg)
		case modeChat:
			return m.updateChat(msg)
		case modeFiles:
			return m.updateFiles(msg)
		case modeUpload:
			return m.updateUpload(msg)
		}
		return m, nil

	case authCheckedMsg:
		if msg.err != nil {
			if errors.Is(msg.err, api.ErrUnauthorized) {
				return m.enterLogin("")
			}
			// backend unreachable; the cached list may still be usable
			m.status = "backend unreachable: " + msg.err.Error()
			m.mode = modeList
			return m, m.env.loadHistory()
		}
		m.user = msg.user
		m.mode = modeList
		return m, m.env.loadHistory()

	case loginDoneMsg:
		return m.loginDone(msg)

	case loggedOutMsg:
		if msg.err != nil {
			logging.Get(logging.CategoryTUI).Warn("logout request failed", zap.Error(msg.err))
		}
		m.sessions, m.filtered = nil, nil
		m.chat.Load("", nil)
		m.panel.Clear()
		return m.enterLogin("logged out")

	case historyLoadedMsg:
		return m.historyLoaded(msg)

	case sessionOpenedMsg:
		return m.sessionOpened(msg)

	case sessionCreatedMsg:
		return m.sessionCreated(msg)

	case postedMsg:
		return m.posted(msg)

	case settledMsg:
		return m.settled(msg)

	case diagramRenderedMsg:
		delete(m.rendering, msg.code)
		m.refreshViewport()
		return m, nil

	case uploadsDoneMsg:
		return m.uploadsDone(msg)

	case openedMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
		}
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refreshViewport()
		return m, cmd
	}

	// cursor blinks and other input-internal messages
	var cmd tea.Cmd
	switch {
	case m.mode == modeChat && m.composer.Focused():
		m.composer, cmd = m.composer.Update(msg)
	case m.mode == modeLogin && m.login != nil:
		if in := m.login.input(); in != nil {
			*in, cmd = in.Update(msg)
		}
	case m.mode == modeSearch:
		m.searchInput, cmd = m.searchInput.Update(msg)
	case m.mode == modeUpload:
		m.uploadInput, cmd = m.uploadInput.Update(msg)
	}
	return m, cmd
}

// handleErr routes auth failures to the login form and shows anything
// else on the status line.
func (m Model) handleErr(err error) (Model, tea.Cmd, bool) {
	if err == nil {
		return m, nil, false
	}
	if errors.Is(err, api.ErrUnauthorized) {
		next, cmd := m.enterLogin("session expired, please log in again")
		return next, cmd, true
	}
	m.status = err.Error()
	return m, nil, true
}

func (m Model) historyLoaded(msg historyLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil && msg.sessions == nil {
		next, cmd, _ := m.handleErr(msg.err)
		return next, cmd
	}
	m.offline = msg.offline
	if msg.offline {
		m.status = "offline: showing cached sessions"
	}
	m.sessions = msg.sessions
	m.applyFilter()
	return m, nil
}

func (m *Model) applyFilter() {
	m.filtered = nil
	search := strings.ToLower(m.searchInput.Value())

	for _, s := range m.sessions {
		if search != "" {
			haystack := strings.ToLower(s.Preview + " " + s.ID)
			if !strings.Contains(haystack, search) {
				continue
			}
		}
		m.filtered = append(m.filtered, s)
	}

	// reset cursor
	if m.cursor >= len(m.filtered) {
		m.cursor = max(0, len(m.filtered)-1)
	}
	m.clampOffset()
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			m.clampOffset()
		}

	case "down", "j":
		if m.cursor < len(m.filtered)-1 {
			m.cursor++
			m.clampOffset()
		}

	case "home", "g":
		m.cursor = 0
		m.clampOffset()

	case "end", "G":
		m.cursor = max(0, len(m.filtered)-1)
		m.clampOffset()

	case "pgup":
		m.cursor = max(0, m.cursor-m.visibleRows())
		m.clampOffset()

	case "pgdown":
		m.cursor = max(0, min(len(m.filtered)-1, m.cursor+m.visibleRows()))
		m.clampOffset()

	case "enter":
		if len(m.filtered) > 0 {
			return m.enterChat(m.filtered[m.cursor].ID)
		}

	case "n":
		m.status = "creating session..."
		return m, m.env.createSession()

	case "r":
		m.status = ""
		return m, m.env.loadHistory()

	case "/":
		m.searchInput.Focus()
		m.mode = modeSearch

	case "L":
		return m, m.env.logout()
	}

	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.searchInput.Blur()
		m.mode = modeList
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	switch m.mode {
	case modeStartup:
		return "\n  Connecting...\n"
	case modeLogin:
		return m.viewLogin()
	case modeChat, modeFiles, modeUpload:
		return m.viewChat()
	}
	return m.viewList()
}

func (m Model) viewList() string {
	var b strings.Builder

	// title bar
	title := titleStyle.Render("canvas")
	info := fmt.Sprintf("  %d sessions", len(m.filtered))
	if m.user.Name != "" {
		info += "  ·  " + m.user.Name
	}
	b.WriteString(title + dimStyle.Render(info))
	if m.offline {
		b.WriteString(" " + offlineTag.Render("offline"))
	}
	b.WriteString("\n")

	b.WriteString(m.renderHeader() + "\n")

	visible := m.visibleRows()
	end := min(m.offset+visible, len(m.filtered))
	for i := m.offset; i < end; i++ {
		b.WriteString(m.renderRow(m.filtered[i], i == m.cursor) + "\n")
	}

	// pad remaining rows
	for i := end - m.offset; i < visible; i++ {
		b.WriteString("\n")
	}

	if m.mode == modeSearch {
		b.WriteString(statusBarStyle.Render("Search: ") + m.searchInput.View())
		return b.String()
	}
	if m.status != "" {
		b.WriteString(errorStyle.Render("  "+m.status) + "\n")
	} else {
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("  Enter: open  n: new  /: search  r: refresh  L: logout  q: quit"))
	return b.String()
}

func (m Model) renderHeader() string {
	w := m.colWidths()
	cols := []string{
		pad("Session", w.id),
		pad("Updated", w.time),
		pad("First message", w.preview),
	}
	return headerStyle.Render(strings.Join(cols, " "))
}

func (m Model) renderRow(s model.Session, selected bool) string {
	w := m.colWidths()

	timeStr := "-"
	if t := s.LastActive(); !t.IsZero() {
		timeStr = t.Local().Format("01-02 15:04")
	}
	preview := s.Preview
	if runes := []rune(preview); len(runes) > w.preview {
		preview = string(runes[:w.preview-2]) + ".."
	}

	row := strings.Join([]string{
		pad(s.ShortID, w.id),
		pad(timeStr, w.time),
		preview,
	}, " ")

	if selected {
		return lipgloss.PlaceHorizontal(m.width, lipgloss.Left, selectedStyle.Render(row))
	}
	return normalStyle.Render(row)
}

type colWidths struct {
	id      int
	time    int
	preview int
}

func (m Model) colWidths() colWidths {
	w := colWidths{id: 10, time: 12}
	// preview gets remaining width
	w.preview = max(20, m.width-w.id-w.time-4)
	return w
}

func (m Model) visibleRows() int {
	// title, header, status line, help bar
	return max(1, m.height-4)
}

func (m *Model) clampOffset() {
	visible := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func pad(s string, width int) string {
	runes := []rune(s)
	if len(runes) >= width {
		return string(runes[:width])
	}
	return s + strings.Repeat(" ", width-len(runes))
}
