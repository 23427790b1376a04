package normalize

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/namanNagelia/canvasAgents/logging"
	"github.com/namanNagelia/canvasAgents/model"
)

// Payload is a message's content after the parse-or-default step. Fields
// is nil unless the content was (or decoded to) a JSON object.
type Payload struct {
	Text   string
	Fields map[string]any
}

func (p Payload) Structured() bool {
	return p.Fields != nil
}

// Decode parses AI text content as JSON when it can. Failure is not an
// error: the text is kept as-is and treated as unstructured.
func Decode(msg model.Message) Payload {
	if msg.Content.IsObject() {
		return Payload{Text: msg.Content.String(), Fields: msg.Content.Fields}
	}
	text := msg.Content.Text
	if msg.Role != model.RoleAI {
		return Payload{Text: text}
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Payload{Text: text}
	}

	var v any
	if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
		logging.Get(logging.CategoryNormalize).Debug("content is not JSON, rendering as text",
			zap.String("agent", string(msg.Agent)),
			zap.Error(err))
		return Payload{Text: text}
	}

	switch val := v.(type) {
	case map[string]any:
		return Payload{Text: text, Fields: val}
	case string:
		// double-encoded: the JSON document is itself a string
		return Payload{Text: val}
	default:
		return Payload{Text: text}
	}
}

// String reads key as display text. Strings pass through, lists of
// strings become a bullet list, numbers and booleans are formatted, and
// anything else (missing, null, nested objects) is empty.
func (p Payload) String(key string) string {
	return fieldText(p.Fields[key])
}

// First returns the first non-empty of keys.
func (p Payload) First(keys ...string) string {
	for _, k := range keys {
		if s := p.String(k); s != "" {
			return s
		}
	}
	return ""
}

// Flashcards reads a list of {front, back} objects, skipping malformed entries.
func (p Payload) Flashcards(key string) []model.Flashcard {
	list, ok := p.Fields[key].([]any)
	if !ok {
		return nil
	}
	var cards []model.Flashcard
	for _, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		card := model.Flashcard{
			Front: fieldText(firstPresent(obj, "front", "question")),
			Back:  fieldText(firstPresent(obj, "back", "answer")),
		}
		if card.Front == "" && card.Back == "" {
			continue
		}
		cards = append(cards, card)
	}
	return cards
}

func firstPresent(obj map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func fieldText(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		return fmt.Sprint(val)
	case bool:
		return fmt.Sprint(val)
	case []any:
		var items []string
		for _, item := range val {
			if s := fieldText(item); s != "" {
				items = append(items, "- "+s)
			}
		}
		return strings.Join(items, "\n")
	default:
		return ""
	}
}
