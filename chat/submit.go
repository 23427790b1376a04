package chat

import (
	"context"
	"fmt"

	"github.com/namanNagelia/canvasAgents/api"
	"github.com/namanNagelia/canvasAgents/model"
	"github.com/namanNagelia/canvasAgents/transcript"
)

// Backend is the part of the API client a submission needs.
type Backend interface {
	Chat(ctx context.Context, req api.ChatRequest) error
	SessionDetails(ctx context.Context, sessionID string) (model.SessionDetails, error)
}

// Post sends the submission's message.
func Post(ctx context.Context, b Backend, sub Submission) error {
	return b.Chat(ctx, api.ChatRequest{
		SessionID: sub.SessionID,
		Message:   sub.Text,
		AgentType: sub.Agent,
		FileIDs:   sub.FileIDs,
	})
}

// Fetch re-reads the authoritative transcript of a session.
func Fetch(ctx context.Context, b Backend, sessionID string) ([]model.Message, error) {
	d, err := b.SessionDetails(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh session: %w", err)
	}
	return transcript.Build(d), nil
}

// Submit runs Post then Fetch, calling posted in between.
func Submit(ctx context.Context, b Backend, sub Submission, posted func()) ([]model.Message, error) {
	if err := Post(ctx, b, sub); err != nil {
		return nil, err
	}
	if posted != nil {
		posted()
	}
	return Fetch(ctx, b, sub.SessionID)
}
