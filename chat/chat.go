// Package chat holds the submit lifecycle of one chat session view.
//
// A Session is owned by a single goroutine (the TUI update loop). Network
// work happens elsewhere and reports back through Posted, Settle and Fail,
// each carrying the Submission it belongs to; results for an older
// submission or another session are ignored.
package chat

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/namanNagelia/canvasAgents/logging"
	"github.com/namanNagelia/canvasAgents/model"
)

var (
	ErrBusy         = errors.New("a message is already being sent")
	ErrEmptyMessage = errors.New("message is empty")
	ErrNoSession    = errors.New("no session selected")
)

type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateAwaiting
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateAwaiting:
		return "awaiting"
	case StateErrored:
		return "errored"
	}
	return "unknown"
}

// Submission identifies one send. It is handed to the network commands
// and passed back with their results.
type Submission struct {
	Seq       uint64
	SessionID string
	Text      string
	Agent     model.AgentKind
	FileIDs   []string
}

// Session is the view state of one open chat.
type Session struct {
	id       string
	messages []model.Message
	input    string
	state    State
	seq      uint64
	lastErr  error
}

func New() *Session {
	return &Session{}
}

func (s *Session) ID() string { return s.id }
func (s *Session) State() State { return s.state }
func (s *Session) Input() string { return s.input }
func (s *Session) Err() error { return s.lastErr }
func (s *Session) SetInput(v string) { s.input = v }

// Messages returns a copy of the transcript.
func (s *Session) Messages() []model.Message {
	out := make([]model.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// CanSubmit reports whether Begin would accept a non-empty message.
func (s *Session) CanSubmit() bool {
	return s.id != "" && (s.state == StateIdle || s.state == StateErrored)
}

// Load replaces the view with a freshly opened session. Any submission in
// flight for the previous view becomes stale.
func (s *Session) Load(sessionID string, transcript []model.Message) {
	s.seq++
	s.id = sessionID
	s.messages = transcript
	s.state = StateIdle
	s.lastErr = nil
	logging.Get(logging.CategoryChat).Debug("session loaded",
		zap.String("session", sessionID),
		zap.Int("messages", len(transcript)))
}

// Begin starts a submission: it appends the user's message and a pending
// placeholder, then clears the input. It never mutates state on error.
func (s *Session) Begin(text string, agent model.AgentKind, fileIDs []string) (Submission, error) {
	if s.state == StateSubmitting || s.state == StateAwaiting {
		return Submission{}, ErrBusy
	}
	if strings.TrimSpace(text) == "" {
		return Submission{}, ErrEmptyMessage
	}
	if s.id == "" {
		return Submission{}, ErrNoSession
	}

	s.seq++
	sub := Submission{
		Seq:       s.seq,
		SessionID: s.id,
		Text:      text,
		Agent:     agent,
		FileIDs:   append([]string(nil), fileIDs...),
	}

	s.messages = append(s.messages,
		model.Message{
			ID:      uuid.NewString(),
			Role:    model.RoleHuman,
			Content: model.TextContent(text),
			Agent:   agent,
		},
		model.Message{
			ID:     uuid.NewString(),
			Role:   model.RoleAI,
			Agent:  agent,
			Status: model.StatusPending,
		},
	)
	s.input = ""
	s.state = StateSubmitting
	s.lastErr = nil

	logging.Get(logging.CategoryChat).Debug("submission started",
		zap.Uint64("seq", sub.Seq),
		zap.String("agent", string(agent)),
		zap.Int("files", len(fileIDs)))
	return sub, nil
}

// Posted records that the backend accepted the message.
func (s *Session) Posted(sub Submission) bool {
	if s.stale(sub) || s.state != StateSubmitting {
		return false
	}
	s.state = StateAwaiting
	return true
}

// Settle replaces the transcript with the backend's copy.
func (s *Session) Settle(sub Submission, transcript []model.Message) bool {
	if s.stale(sub) {
		return false
	}
	s.messages = transcript
	s.state = StateIdle
	logging.Get(logging.CategoryChat).Debug("submission settled",
		zap.Uint64("seq", sub.Seq),
		zap.Int("messages", len(transcript)))
	return true
}

// Fail drops the pending placeholder, keeps the user's message, and adds
// one errored message holding the text for Retry.
func (s *Session) Fail(sub Submission, err error) bool {
	if s.stale(sub) {
		return false
	}

	kept := make([]model.Message, 0, len(s.messages)+1)
	for _, m := range s.messages {
		if m.Status == model.StatusPending {
			continue
		}
		kept = append(kept, m)
	}
	s.messages = append(kept, model.Message{
		ID:           uuid.NewString(),
		Role:         model.RoleAI,
		Agent:        sub.Agent,
		Status:       model.StatusErrored,
		Content:      model.TextContent(err.Error()),
		OriginalText: sub.Text,
	})
	s.state = StateErrored
	s.lastErr = err

	logging.Get(logging.CategoryChat).Warn("submission failed",
		zap.Uint64("seq", sub.Seq),
		zap.Error(err))
	return true
}

// Retry removes the most recent errored message and restores its text
// into the input. It reports false when there is nothing to retry.
func (s *Session) Retry() (string, bool) {
	if s.state == StateSubmitting || s.state == StateAwaiting {
		return "", false
	}
	for i := len(s.messages) - 1; i >= 0; i-- {
		m := s.messages[i]
		if m.Status != model.StatusErrored {
			continue
		}
		s.messages = append(s.messages[:i], s.messages[i+1:]...)
		s.input = m.OriginalText
		s.state = StateIdle
		s.lastErr = nil
		return m.OriginalText, true
	}
	return "", false
}

func (s *Session) stale(sub Submission) bool {
	if sub.Seq != s.seq || sub.SessionID != s.id {
		logging.Get(logging.CategoryChat).Debug("ignoring stale result",
			zap.Uint64("seq", sub.Seq),
			zap.Uint64("current", s.seq))
		return true
	}
	return false
}
