package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/namanNagelia/canvasAgents/api"
	"github.com/namanNagelia/canvasAgents/chat"
	"github.com/namanNagelia/canvasAgents/logging"
	"github.com/namanNagelia/canvasAgents/model"
	"github.com/namanNagelia/canvasAgents/normalize"
	"github.com/namanNagelia/canvasAgents/render"
	"github.com/namanNagelia/canvasAgents/transcript"
)

const composerHeight = 3

func newComposer() textarea.Model {
	ta := textarea.New()
	ta.ShowLineNumbers = false
	ta.CharLimit = 4000
	ta.SetHeight(composerHeight)
	ta.Prompt = ""
	// enter sends; alt+enter breaks the line
	ta.KeyMap.InsertNewline.SetKeys("alt+enter")
	return ta
}

func (m *Model) setComposerPlaceholder() {
	m.composer.Placeholder = "Ask me about " + strings.ToLower(m.agent.Info().Name) + "..."
}

func (m *Model) cycleAgent() {
	agents := model.Agents()
	for i, a := range agents {
		if a.Kind == m.agent {
			m.agent = agents[(i+1)%len(agents)].Kind
			m.setComposerPlaceholder()
			return
		}
	}
	m.agent = agents[0].Kind
	m.setComposerPlaceholder()
}

func (m Model) busy() bool {
	st := m.chat.State()
	return m.opening != "" || st == chat.StateSubmitting || st == chat.StateAwaiting
}

func (m Model) enterChat(id string) (Model, tea.Cmd) {
	m.chat.Load(id, nil)
	m.opening = id
	m.decks = make(map[string]*model.Deck)
	m.panel.Clear()
	m.status = ""
	m.mode = modeChat
	m.composer.Reset()
	m.composer.Focus()
	m.layoutChat()
	m.refreshViewport()
	return m, tea.Batch(m.env.openSession(id), m.spinner.Tick, textarea.Blink)
}

func (m Model) sessionOpened(msg sessionOpenedMsg) (tea.Model, tea.Cmd) {
	// user already moved to another session
	if msg.id != m.opening {
		return m, nil
	}
	m.opening = ""
	if msg.err != nil && !msg.offline {
		next, cmd, _ := m.handleErr(msg.err)
		next.refreshViewport()
		return next, cmd
	}
	m.offline = msg.offline
	if msg.offline {
		m.status = "offline: showing cached transcript"
	}
	m.chat.Load(msg.id, msg.messages)
	m.panel.Replace(msg.files)
	m.refreshViewport()
	m.viewport.GotoBottom()
	return m, m.renderDiagrams()
}

func (m Model) sessionCreated(msg sessionCreatedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		next, cmd, _ := m.handleErr(msg.err)
		return next, cmd
	}
	next, cmd := m.enterChat(msg.id)
	return next, tea.Batch(cmd, m.env.loadHistory())
}

func (m Model) leaveChat() (tea.Model, tea.Cmd) {
	m.composer.Blur()
	m.opening = ""
	m.mode = modeList
	m.status = ""
	// previews change after chatting
	return m, m.env.loadHistory()
}

func (m Model) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if m.composer.Focused() {
		switch key {
		case "esc":
			m.composer.Blur()
			return m, nil
		case "enter":
			return m.send()
		case "tab":
			m.cycleAgent()
			return m, nil
		case "ctrl+f":
			m.composer.Blur()
			m.mode = modeFiles
			return m, nil
		}
		var cmd tea.Cmd
		m.composer, cmd = m.composer.Update(msg)
		return m, cmd
	}

	switch key {
	case "esc", "q":
		return m.leaveChat()

	case "i", "enter":
		m.composer.Focus()
		return m, textarea.Blink

	case "tab":
		m.cycleAgent()

	case "r":
		if text, ok := m.chat.Retry(); ok {
			m.composer.SetValue(text)
			m.composer.Focus()
			m.status = ""
			m.refreshViewport()
			return m, textarea.Blink
		}

	case "p":
		m.renderer.TogglePlanning()
		m.refreshViewport()

	case "[":
		if m.withDeck(func(d *model.Deck) { d.Prev() }) {
			m.refreshViewport()
		}

	case "]":
		if m.withDeck(func(d *model.Deck) { d.Next() }) {
			m.refreshViewport()
		}

	case " ", "space":
		if m.withDeck(func(d *model.Deck) { d.Flip() }) {
			m.refreshViewport()
		}

	case "o":
		if path := m.lastDiagramPath(); path != "" {
			return m, openFile(path)
		}
		m.status = "no rendered diagram to open"

	case "f":
		m.mode = modeFiles

	case "u":
		return m.enterUpload()

	case "up", "k":
		m.viewport.LineUp(1)
	case "down", "j":
		m.viewport.LineDown(1)
	case "pgup":
		m.viewport.ViewUp()
	case "pgdown":
		m.viewport.ViewDown()
	case "home", "g":
		m.viewport.GotoTop()
	case "end", "G":
		m.viewport.GotoBottom()
	}
	return m, nil
}

func (m Model) send() (tea.Model, tea.Cmd) {
	if m.opening != "" {
		m.status = "session is still loading"
		return m, nil
	}
	sub, err := m.chat.Begin(m.composer.Value(), m.agent, m.panel.SelectedIDs())
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		return m, nil
	case err != nil:
		m.status = err.Error()
		return m, nil
	}
	m.composer.Reset()
	m.status = ""
	m.refreshViewport()
	m.viewport.GotoBottom()
	return m, tea.Batch(m.env.post(sub), m.spinner.Tick)
}

func (m Model) posted(msg postedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m.failed(msg.sub, msg.err)
	}
	if !m.chat.Posted(msg.sub) {
		return m, nil
	}
	return m, m.env.fetch(msg.sub)
}

func (m Model) settled(msg settledMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m.failed(msg.sub, msg.err)
	}
	if !m.chat.Settle(msg.sub, msg.messages) {
		return m, nil
	}
	m.refreshViewport()
	m.viewport.GotoBottom()
	return m, m.renderDiagrams()
}

func (m Model) failed(sub chat.Submission, err error) (tea.Model, tea.Cmd) {
	if !m.chat.Fail(sub, err) {
		return m, nil
	}
	logging.Get(logging.CategoryTUI).Debug("showing failed submission",
		zap.String("session", sub.SessionID),
		zap.Uint64("seq", sub.Seq))
	if errors.Is(err, api.ErrUnauthorized) {
		next, cmd := m.enterLogin("session expired, please log in again")
		return next, cmd
	}
	m.refreshViewport()
	m.viewport.GotoBottom()
	return m, nil
}

// renderDiagrams queues a render for every diagram source not yet
// rendered or in flight.
func (m Model) renderDiagrams() tea.Cmd {
	var cmds []tea.Cmd
	for _, msg := range m.chat.Messages() {
		if msg.Role != model.RoleAI || msg.Status != model.StatusSettled {
			continue
		}
		if render.StrategyFor(msg.Agent) != render.StrategyDiagram {
			continue
		}
		dd, ok := normalize.Normalize(msg).(normalize.DiagramDisplay)
		if !ok || !dd.Diagram.HasDiagram() {
			continue
		}
		code := dd.Diagram.Code
		if _, done := m.env.diagrams.Lookup(code); done || m.rendering[code] {
			continue
		}
		m.rendering[code] = true
		cmds = append(cmds, m.env.renderDiagram(code))
	}
	return tea.Batch(cmds...)
}

// withDeck applies fn to the deck of the most recent flashcard message.
func (m Model) withDeck(fn func(*model.Deck)) bool {
	msgs := m.chat.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		msg := msgs[i]
		if msg.Role != model.RoleAI || msg.Status != model.StatusSettled {
			continue
		}
		fd, ok := normalize.Normalize(msg).(normalize.FlashcardDisplay)
		if !ok || len(fd.Cards) == 0 {
			continue
		}
		deck := m.decks[msg.ID]
		if deck == nil || len(deck.Cards) != len(fd.Cards) {
			deck = model.NewDeck(fd.Cards)
			m.decks[msg.ID] = deck
		}
		fn(deck)
		return true
	}
	return false
}

func (m Model) lastDiagramPath() string {
	msgs := m.chat.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		msg := msgs[i]
		if msg.Role != model.RoleAI || render.StrategyFor(msg.Agent) != render.StrategyDiagram {
			continue
		}
		dd, ok := normalize.Normalize(msg).(normalize.DiagramDisplay)
		if !ok || !dd.Diagram.HasDiagram() {
			continue
		}
		if o, done := m.env.diagrams.Lookup(dd.Diagram.Code); done && o.Err == nil && o.Result.Path != "" {
			return o.Result.Path
		}
	}
	return ""
}

func (m *Model) layoutChat() {
	width := max(20, m.width-2)
	m.renderer.SetWidth(width - 2)
	m.composer.SetWidth(width)
	// title, status line, help bar, composer plus its border
	m.viewport.Width = m.width
	m.viewport.Height = max(3, m.height-3-(composerHeight+2))
	m.refreshViewport()
}

func (m *Model) refreshViewport() {
	var content string
	switch {
	case m.opening != "":
		content = "\n  " + m.spinner.View() + " Loading..."
	case len(m.chat.Messages()) == 0:
		content = dimStyle.Render("\n  No messages yet. Pick an agent with tab and ask something.")
	default:
		content = m.renderer.Transcript(m.chat.Messages(), render.View{
			Spinner: m.spinner.View(),
			Decks:   m.decks,
		})
	}
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(content)
	if atBottom {
		m.viewport.GotoBottom()
	}
}

func (m Model) viewChat() string {
	var b strings.Builder

	info := m.agent.Info()
	title := chatTitleStyle.Render(fmt.Sprintf("canvas · %s", transcript.ShortID(m.chat.ID())))
	agent := " " + agentTag(info.Color).Render(info.Icon+" "+info.Name)
	if n := len(m.panel.SelectedIDs()); n > 0 {
		agent += dimStyle.Render(fmt.Sprintf("  %d file(s) attached", n))
	}
	b.WriteString(title + agent)
	if m.offline {
		b.WriteString(" " + offlineTag.Render("offline"))
	}
	b.WriteString("\n")

	if m.mode == modeFiles {
		b.WriteString(lipgloss.NewStyle().Height(m.viewport.Height).Render(m.viewFiles()))
	} else {
		b.WriteString(m.viewport.View())
	}
	b.WriteString("\n")

	switch {
	case m.mode == modeUpload:
		b.WriteString(statusBarStyle.Render("Upload: ") + m.uploadInput.View())
	case m.status != "":
		b.WriteString(errorStyle.Render("  " + m.status))
	case m.chat.State() == chat.StateErrored:
		b.WriteString(errorStyle.Render("  last message failed, press r to retry"))
	}
	b.WriteString("\n")

	style := composerBlurredStyle
	if m.composer.Focused() {
		style = composerStyle
	}
	b.WriteString(style.Render(m.composer.View()))
	b.WriteString("\n")
	b.WriteString(m.chatHelpBar())
	return b.String()
}

func (m Model) chatHelpBar() string {
	switch {
	case m.mode == modeFiles:
		return helpStyle.Render("  j/k: move  space: attach  u: upload  r: refresh  Esc: back")
	case m.mode == modeUpload:
		return helpStyle.Render("  Enter: upload  Esc: cancel")
	case m.composer.Focused():
		return helpStyle.Render("  Enter: send  Alt+Enter: newline  Tab: agent  Ctrl+F: files  Esc: done typing")
	}
	scroll := ""
	if m.viewport.TotalLineCount() > m.viewport.Height {
		scroll = dimStyle.Render(fmt.Sprintf("  %d%%", int(m.viewport.ScrollPercent()*100)))
	}
	return helpStyle.Render("  i: type  Tab: agent  r: retry  p: planning  [ ]: cards  o: open diagram  f: files  Esc: back") + scroll
}
