package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized is matched by any 401 response.
var ErrUnauthorized = errors.New("unauthorized")

// Error is a non-2xx response from the backend.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("backend returned %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Detail)
}

func (e *Error) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// newError reads FastAPI's {"detail": ...} body. Detail is a string for
// HTTPException and a list for validation errors.
func newError(status int, body []byte) *Error {
	e := &Error{Status: status}

	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		e.Detail = string(bytes.TrimSpace(truncateBody(body)))
		return e
	}

	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		e.Detail = s
		return e
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, payload.Detail); err == nil {
		e.Detail = buf.String()
	}
	return e
}

func truncateBody(b []byte) []byte {
	const max = 200
	if len(b) > max {
		return b[:max]
	}
	return b
}
