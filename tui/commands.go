package tui

import (
	"context"
	"errors"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/namanNagelia/canvasAgents/api"
	"github.com/namanNagelia/canvasAgents/chat"
	"github.com/namanNagelia/canvasAgents/diagram"
	"github.com/namanNagelia/canvasAgents/files"
	"github.com/namanNagelia/canvasAgents/launcher"
	"github.com/namanNagelia/canvasAgents/logging"
	"github.com/namanNagelia/canvasAgents/model"
	"github.com/namanNagelia/canvasAgents/store"
	"github.com/namanNagelia/canvasAgents/transcript"
)

// Backend is everything the TUI asks of the learning backend.
type Backend interface {
	CheckAuth(ctx context.Context) (api.User, error)
	Login(ctx context.Context, email, password string) (api.User, error)
	Register(ctx context.Context, name, email, password string) error
	Logout(ctx context.Context) error
	SessionHistory(ctx context.Context) ([]model.SessionRecord, error)
	CreateSession(ctx context.Context) (string, error)
	SessionDetails(ctx context.Context, sessionID string) (model.SessionDetails, error)
	Chat(ctx context.Context, req api.ChatRequest) error
	Files(ctx context.Context, sessionID string) ([]model.UploadedFile, error)
	UploadFile(ctx context.Context, sessionID, name string, r io.Reader) (model.UploadedFile, error)
}

// Cache keeps copies of server payloads for offline viewing.
type Cache interface {
	PutDetails(ctx context.Context, d model.SessionDetails) error
	Details(ctx context.Context, id string) (model.SessionDetails, error)
	PutHistory(ctx context.Context, records []model.SessionRecord) error
	History(ctx context.Context) ([]model.SessionRecord, error)
	Forget(ctx context.Context) error
}

type (
	authCheckedMsg struct {
		user api.User
		err  error
	}
	loginDoneMsg struct {
		user api.User
		err  error
	}
	loggedOutMsg     struct{ err error }
	historyLoadedMsg struct {
		sessions []model.Session
		offline  bool
		err      error
	}
	sessionOpenedMsg struct {
		id       string
		messages []model.Message
		files    []model.UploadedFile
		offline  bool
		err      error
	}
	sessionCreatedMsg struct {
		id  string
		err error
	}
	postedMsg struct {
		sub chat.Submission
		err error
	}
	settledMsg struct {
		sub      chat.Submission
		messages []model.Message
		err      error
	}
	diagramRenderedMsg struct{ code string }
	uploadsDoneMsg     struct {
		sessionID string
		files     []model.UploadedFile
		err       error
	}
	openedMsg struct{ err error }
)

// env runs network work off the update loop.
type env struct {
	backend  Backend
	cache    Cache
	diagrams *diagram.Cache
	timeout  time.Duration
}

func (e env) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), e.timeout)
}

func (e env) checkAuth() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := e.ctx()
		defer cancel()
		user, err := e.backend.CheckAuth(ctx)
		return authCheckedMsg{user: user, err: err}
	}
}

func (e env) login(email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := e.ctx()
		defer cancel()
		user, err := e.backend.Login(ctx, email, password)
		return loginDoneMsg{user: user, err: err}
	}
}

// register creates the account and logs straight in.
func (e env) register(name, email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := e.ctx()
		defer cancel()
		if err := e.backend.Register(ctx, name, email, password); err != nil {
			return loginDoneMsg{err: err}
		}
		user, err := e.backend.Login(ctx, email, password)
		return loginDoneMsg{user: user, err: err}
	}
}

func (e env) logout() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := e.ctx()
		defer cancel()
		err := e.backend.Logout(ctx)
		if e.cache != nil {
			if ferr := e.cache.Forget(ctx); ferr != nil {
				logging.Get(logging.CategoryStore).Warn("failed to clear transcript cache", zap.Error(ferr))
			}
		}
		return loggedOutMsg{err: err}
	}
}

// loadHistory falls back to the cached list when the backend is
// unreachable. Auth failures are never masked.
func (e env) loadHistory() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := e.ctx()
		defer cancel()

		records, err := e.backend.SessionHistory(ctx)
		if err == nil {
			if e.cache != nil {
				if cerr := e.cache.PutHistory(ctx, records); cerr != nil {
					logging.Get(logging.CategoryStore).Warn("failed to cache history", zap.Error(cerr))
				}
			}
			return historyLoadedMsg{sessions: transcript.Summarize(records)}
		}
		if errors.Is(err, api.ErrUnauthorized) || e.cache == nil {
			return historyLoadedMsg{err: err}
		}
		cached, cerr := e.cache.History(ctx)
		if cerr != nil {
			return historyLoadedMsg{err: err}
		}
		return historyLoadedMsg{sessions: transcript.Summarize(cached), offline: true, err: err}
	}
}

// openSession fetches the transcript and the file list concurrently.
// A failed file listing leaves the panel empty.
func (e env) openSession(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := e.ctx()
		defer cancel()

		var (
			details model.SessionDetails
			list    []model.UploadedFile
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			d, err := e.backend.SessionDetails(gctx, id)
			if err != nil {
				return err
			}
			details = d
			return nil
		})
		g.Go(func() error {
			l, err := e.backend.Files(gctx, id)
			if err != nil {
				logging.Get(logging.CategoryAPI).Warn("failed to list files", zap.String("session", id), zap.Error(err))
				return nil
			}
			list = l
			return nil
		})

		err := g.Wait()
		if err == nil {
			if e.cache != nil {
				if cerr := e.cache.PutDetails(ctx, details); cerr != nil {
					logging.Get(logging.CategoryStore).Warn("failed to cache session", zap.Error(cerr))
				}
			}
			return sessionOpenedMsg{id: id, messages: transcript.Build(details), files: list}
		}

		if errors.Is(err, api.ErrUnauthorized) || e.cache == nil {
			return sessionOpenedMsg{id: id, err: err}
		}
		cached, cerr := e.cache.Details(ctx, id)
		if cerr != nil {
			if !errors.Is(cerr, store.ErrNotFound) {
				logging.Get(logging.CategoryStore).Warn("cache read failed", zap.Error(cerr))
			}
			return sessionOpenedMsg{id: id, err: err}
		}
		return sessionOpenedMsg{id: id, messages: transcript.Build(cached), offline: true, err: err}
	}
}

func (e env) createSession() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := e.ctx()
		defer cancel()
		id, err := e.backend.CreateSession(ctx)
		return sessionCreatedMsg{id: id, err: err}
	}
}

func (e env) post(sub chat.Submission) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := e.ctx()
		defer cancel()
		return postedMsg{sub: sub, err: chat.Post(ctx, e.backend, sub)}
	}
}

func (e env) fetch(sub chat.Submission) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := e.ctx()
		defer cancel()
		msgs, err := chat.Fetch(ctx, e.backend, sub.SessionID)
		return settledMsg{sub: sub, messages: msgs, err: err}
	}
}

func (e env) renderDiagram(code string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := e.ctx()
		defer cancel()
		e.diagrams.Render(ctx, code)
		return diagramRenderedMsg{code: code}
	}
}

func (e env) upload(sessionID string, paths []string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := e.ctx()
		defer cancel()
		list, err := files.UploadAll(ctx, e.backend, sessionID, paths)
		return uploadsDoneMsg{sessionID: sessionID, files: list, err: err}
	}
}

func openFile(path string) tea.Cmd {
	return func() tea.Msg {
		return openedMsg{err: launcher.Open(path)}
	}
}
