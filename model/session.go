package model

import "time"

// Session is one row of the session history list.
type Session struct {
	ID        string
	ShortID   string // first4..last4
	Preview   string // first user message, truncated
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UploadedFile is a document attached to a session.
type UploadedFile struct {
	ID            string
	Name          string
	Preview       string
	FileType      string
	ContentLength int
	Selected      bool
}

// UserInput is one entry of a session's user_input array.
type UserInput struct {
	Message   string    `json:"message"`
	AgentType AgentKind `json:"agent_type"`
}

// AIResponse is one entry of a session's ai_response array.
type AIResponse struct {
	Message   Content   `json:"message"`
	AgentType AgentKind `json:"agent_type"`
}

// SessionDetails is the payload of get_session_details.
type SessionDetails struct {
	ID         string       `json:"id"`
	UserInput  []UserInput  `json:"user_input"`
	AIResponse []AIResponse `json:"ai_response"`
	CreatedAt  string       `json:"created_at,omitempty"`
	UpdatedAt  string       `json:"updated_at,omitempty"`
}

// SessionRecord is one entry of get_session_history.
type SessionRecord struct {
	ID        string      `json:"id"`
	UserInput []UserInput `json:"user_input"`
	CreatedAt string      `json:"created_at,omitempty"`
	UpdatedAt string      `json:"updated_at,omitempty"`
}

// LastActive is the update time, or creation time if the session was never updated.
func (s Session) LastActive() time.Time {
	if s.UpdatedAt.IsZero() {
		return s.CreatedAt
	}
	return s.UpdatedAt
}
