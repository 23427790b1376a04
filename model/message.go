package model

import (
	"bytes"
	"encoding/json"
)

type Role string

const (
	RoleHuman Role = "human"
	RoleAI    Role = "ai"
)

// Status tracks where a message is in the submit lifecycle.
type Status int

const (
	StatusSettled Status = iota
	StatusPending        // placeholder while the agent is answering
	StatusErrored        // failed submission, carries OriginalText for retry
)

// Message represents one entry of a chat transcript.
type Message struct {
	ID           string
	Role         Role
	Content      Content
	Agent        AgentKind
	Status       Status
	OriginalText string // user text to restore on retry
}

// Content is either plain text or a decoded JSON object.
type Content struct {
	Text   string
	Fields map[string]any // non-nil when the payload arrived as an object
}

func TextContent(s string) Content {
	return Content{Text: s}
}

func ObjectContent(fields map[string]any) Content {
	if fields == nil {
		fields = map[string]any{}
	}
	return Content{Fields: fields}
}

func (c Content) IsObject() bool {
	return c.Fields != nil
}

// String returns the text form of the content; objects are re-encoded as indented JSON.
func (c Content) String() string {
	if !c.IsObject() {
		return c.Text
	}
	b, err := json.MarshalIndent(c.Fields, "", "  ")
	if err != nil {
		return ""
	}
	return string(b)
}

// UnmarshalJSON accepts a string, an object, or anything else (kept as raw text).
func (c *Content) UnmarshalJSON(raw []byte) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		*c = Content{}
		return nil
	}

	// content can be a plain string
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		*c = TextContent(str)
		return nil
	}

	// or an object
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		*c = ObjectContent(obj)
		return nil
	}

	*c = TextContent(string(raw))
	return nil
}

func (c Content) MarshalJSON() ([]byte, error) {
	if c.IsObject() {
		return json.Marshal(c.Fields)
	}
	return json.Marshal(c.Text)
}
