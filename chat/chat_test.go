package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/namanNagelia/canvasAgents/api"
	"github.com/namanNagelia/canvasAgents/model"
)

func loaded(t *testing.T) *Session {
	t.Helper()
	s := New()
	s.Load("s1", []model.Message{
		{ID: "s1/0/human", Role: model.RoleHuman, Content: model.TextContent("earlier")},
	})
	return s
}

func TestBeginAppendsEchoAndPlaceholder(t *testing.T) {
	s := loaded(t)
	s.SetInput("what is entropy")

	sub, err := s.Begin("what is entropy", model.AgentFeynman, []string{"f1"})
	require.NoError(t, err)
	assert.Equal(t, StateSubmitting, s.State())
	assert.Empty(t, s.Input())
	assert.Equal(t, "s1", sub.SessionID)
	assert.Equal(t, []string{"f1"}, sub.FileIDs)

	msgs := s.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, model.RoleHuman, msgs[1].Role)
	assert.Equal(t, "what is entropy", msgs[1].Content.Text)
	assert.Equal(t, model.StatusPending, msgs[2].Status)
	assert.Equal(t, model.AgentFeynman, msgs[2].Agent)
	assert.NotEqual(t, msgs[1].ID, msgs[2].ID)
}

func TestBeginRejectsWhileBusy(t *testing.T) {
	s := loaded(t)
	_, err := s.Begin("first", model.AgentGeneral, nil)
	require.NoError(t, err)

	before := s.Messages()
	s.SetInput("second")

	_, err = s.Begin("second", model.AgentGeneral, nil)
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, before, s.Messages())
	assert.Equal(t, "second", s.Input())
	assert.False(t, s.CanSubmit())
}

func TestBeginRejectsEmpty(t *testing.T) {
	s := loaded(t)
	_, err := s.Begin("  \n\t", model.AgentGeneral, nil)
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Equal(t, StateIdle, s.State())
	assert.Len(t, s.Messages(), 1)

	_, err = New().Begin("hi", model.AgentGeneral, nil)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestHappyPath(t *testing.T) {
	s := loaded(t)
	sub, err := s.Begin("q", model.AgentStep, nil)
	require.NoError(t, err)

	assert.True(t, s.Posted(sub))
	assert.Equal(t, StateAwaiting, s.State())

	_, err = s.Begin("again", model.AgentStep, nil)
	assert.ErrorIs(t, err, ErrBusy)

	server := []model.Message{
		{ID: "a", Role: model.RoleHuman, Content: model.TextContent("earlier")},
		{ID: "b", Role: model.RoleHuman, Content: model.TextContent("q")},
		{ID: "c", Role: model.RoleAI, Content: model.TextContent("answer")},
	}
	assert.True(t, s.Settle(sub, server))
	assert.Equal(t, StateIdle, s.State())
	assert.Equal(t, server, s.Messages())
	assert.True(t, s.CanSubmit())
}

func TestFailKeepsEchoAndAddsOneError(t *testing.T) {
	s := loaded(t)
	sub, err := s.Begin("explain gravity", model.AgentFeynman, nil)
	require.NoError(t, err)
	s.Posted(sub)

	assert.True(t, s.Fail(sub, errors.New("connection refused")))
	assert.Equal(t, StateErrored, s.State())
	assert.EqualError(t, s.Err(), "connection refused")

	msgs := s.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "explain gravity", msgs[1].Content.Text)
	assert.Equal(t, model.RoleHuman, msgs[1].Role)

	errored := 0
	for _, m := range msgs {
		assert.NotEqual(t, model.StatusPending, m.Status)
		if m.Status == model.StatusErrored {
			errored++
			assert.Equal(t, "explain gravity", m.OriginalText)
		}
	}
	assert.Equal(t, 1, errored)

	// retry restores the text and drops the error
	text, ok := s.Retry()
	require.True(t, ok)
	assert.Equal(t, "explain gravity", text)
	assert.Equal(t, "explain gravity", s.Input())
	assert.Equal(t, StateIdle, s.State())
	assert.Len(t, s.Messages(), 2)

	_, ok = s.Retry()
	assert.False(t, ok)
}

func TestBeginFromErrored(t *testing.T) {
	s := loaded(t)
	sub, _ := s.Begin("one", model.AgentGeneral, nil)
	s.Fail(sub, errors.New("boom"))

	next, err := s.Begin("two", model.AgentGeneral, nil)
	require.NoError(t, err)
	assert.Greater(t, next.Seq, sub.Seq)

	// the old submission can no longer touch the view
	assert.False(t, s.Settle(sub, nil))
	assert.Equal(t, StateSubmitting, s.State())
}

func TestStaleResultsIgnored(t *testing.T) {
	s := loaded(t)
	sub, err := s.Begin("q", model.AgentGeneral, nil)
	require.NoError(t, err)

	s.Load("s2", nil)

	assert.False(t, s.Posted(sub))
	assert.False(t, s.Settle(sub, []model.Message{{ID: "x"}}))
	assert.False(t, s.Fail(sub, errors.New("late")))
	assert.Empty(t, s.Messages())
	assert.Equal(t, StateIdle, s.State())
	assert.Equal(t, "s2", s.ID())
}

type fakeBackend struct {
	chatErr  error
	sent     []api.ChatRequest
	details  model.SessionDetails
	fetchErr error
}

func (f *fakeBackend) Chat(_ context.Context, req api.ChatRequest) error {
	f.sent = append(f.sent, req)
	return f.chatErr
}

func (f *fakeBackend) SessionDetails(_ context.Context, id string) (model.SessionDetails, error) {
	if f.fetchErr != nil {
		return model.SessionDetails{}, f.fetchErr
	}
	d := f.details
	d.ID = id
	return d, nil
}

func TestSubmit(t *testing.T) {
	b := &fakeBackend{details: model.SessionDetails{
		UserInput:  []model.UserInput{{Message: "q", AgentType: model.AgentNote}},
		AIResponse: []model.AIResponse{{Message: model.TextContent("notes"), AgentType: model.AgentNote}},
	}}
	sub := Submission{Seq: 1, SessionID: "s1", Text: "q", Agent: model.AgentNote, FileIDs: []string{"f"}}

	posted := false
	msgs, err := Submit(context.Background(), b, sub, func() { posted = true })
	require.NoError(t, err)
	assert.True(t, posted)
	require.Len(t, b.sent, 1)
	assert.Equal(t, api.ChatRequest{SessionID: "s1", Message: "q", AgentType: model.AgentNote, FileIDs: []string{"f"}}, b.sent[0])
	require.Len(t, msgs, 2)
	assert.Equal(t, "notes", msgs[1].Content.Text)
}

func TestSubmitErrors(t *testing.T) {
	b := &fakeBackend{chatErr: errors.New("down")}
	posted := false
	_, err := Submit(context.Background(), b, Submission{SessionID: "s1"}, func() { posted = true })
	assert.EqualError(t, err, "down")
	assert.False(t, posted)

	b = &fakeBackend{fetchErr: api.ErrUnauthorized}
	_, err = Submit(context.Background(), b, Submission{SessionID: "s1"}, nil)
	assert.ErrorIs(t, err, api.ErrUnauthorized)
}
