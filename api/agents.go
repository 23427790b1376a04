package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/namanNagelia/canvasAgents/model"
)

const previewChars = 50

// ChatRequest is the body of POST /api/agents/chat.
type ChatRequest struct {
	SessionID string          `json:"session_id"`
	Message   string          `json:"message"`
	AgentType model.AgentKind `json:"agent_type"`
	FileIDs   []string        `json:"file_ids"`
}

// SessionHistory lists the user's sessions. The backend has returned both
// a bare array and {"sessions": [...]}.
func (c *Client) SessionHistory(ctx context.Context) ([]model.SessionRecord, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, "/api/agents/get_session_history", &raw); err != nil {
		return nil, err
	}

	var records []model.SessionRecord
	if err := json.Unmarshal(raw, &records); err == nil {
		return records, nil
	}
	var wrapped struct {
		Sessions []model.SessionRecord `json:"sessions"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to parse session history: %w", err)
	}
	return wrapped.Sessions, nil
}

// CreateSession registers a new session under a client-generated id and
// returns the id the backend assigned.
func (c *Client) CreateSession(ctx context.Context) (string, error) {
	id := uuid.NewString()
	var resp struct {
		SessionID flexID `json:"session_id"`
	}
	if err := c.postJSON(ctx, "/api/agents/create_session/"+url.PathEscape(id), nil, &resp); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	if resp.SessionID == "" {
		return id, nil
	}
	return resp.SessionID.String(), nil
}

// Chat posts a message to an agent. The answer is read back with
// SessionDetails.
func (c *Client) Chat(ctx context.Context, req ChatRequest) error {
	if req.FileIDs == nil {
		req.FileIDs = []string{}
	}
	if err := c.postJSON(ctx, "/api/agents/chat", req, nil); err != nil {
		return fmt.Errorf("chat: %w", err)
	}
	return nil
}

// SessionDetails fetches the parallel user/AI arrays for a session. The
// payload may be wrapped in {"sessionDetails": ...}.
func (c *Client) SessionDetails(ctx context.Context, sessionID string) (model.SessionDetails, error) {
	var raw map[string]json.RawMessage
	if err := c.getJSON(ctx, "/api/agents/get_session_details/"+url.PathEscape(sessionID), &raw); err != nil {
		return model.SessionDetails{}, err
	}

	body, err := json.Marshal(raw)
	if err != nil {
		return model.SessionDetails{}, fmt.Errorf("failed to re-encode session details: %w", err)
	}
	if inner, ok := raw["sessionDetails"]; ok {
		body = inner
	}

	var d model.SessionDetails
	if err := json.Unmarshal(body, &d); err != nil {
		return model.SessionDetails{}, fmt.Errorf("failed to parse session details: %w", err)
	}
	if d.ID == "" {
		d.ID = sessionID
	}
	return d, nil
}

// UploadFile sends one document as multipart form data.
func (c *Client) UploadFile(ctx context.Context, sessionID, name string, r io.Reader) (model.UploadedFile, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("session_id", sessionID); err != nil {
		return model.UploadedFile{}, fmt.Errorf("failed to write form: %w", err)
	}
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return model.UploadedFile{}, fmt.Errorf("failed to write form: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return model.UploadedFile{}, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return model.UploadedFile{}, fmt.Errorf("failed to write form: %w", err)
	}

	var resp struct {
		FileID        flexID `json:"file_id"`
		Content       string `json:"content"`
		ContentLength int    `json:"content_length"`
		FileType      string `json:"file_type"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/agents/upload_file", &buf, w.FormDataContentType(), &resp); err != nil {
		return model.UploadedFile{}, fmt.Errorf("upload %s: %w", name, err)
	}

	return model.UploadedFile{
		ID:            resp.FileID.String(),
		Name:          name,
		Preview:       Preview(resp.Content),
		FileType:      resp.FileType,
		ContentLength: resp.ContentLength,
	}, nil
}

// Files lists the documents attached to a session, none selected.
func (c *Client) Files(ctx context.Context, sessionID string) ([]model.UploadedFile, error) {
	var resp struct {
		Files []struct {
			ID            flexID `json:"id"`
			Name          string `json:"name"`
			Content       string `json:"content"`
			FileType      string `json:"file_type"`
			ContentLength int    `json:"content_length"`
		} `json:"files"`
	}
	if err := c.getJSON(ctx, "/api/agents/get_files/"+url.PathEscape(sessionID), &resp); err != nil {
		return nil, err
	}

	files := make([]model.UploadedFile, 0, len(resp.Files))
	for _, f := range resp.Files {
		files = append(files, model.UploadedFile{
			ID:            f.ID.String(),
			Name:          f.Name,
			Preview:       Preview(f.Content),
			FileType:      f.FileType,
			ContentLength: f.ContentLength,
		})
	}
	return files, nil
}

// flexID accepts ids encoded as JSON strings or numbers.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %s", b)
	}
	*f = flexID(n.String())
	return nil
}

func (f flexID) String() string { return string(f) }

// Preview cuts extracted file text to 50 characters plus an ellipsis.
func Preview(content string) string {
	runes := []rune(content)
	if len(runes) <= previewChars {
		return content
	}
	return string(runes[:previewChars]) + "..."
}
