// Package transcript rebuilds chat transcripts and session summaries from
// the backend's session payloads.
package transcript

import (
	"fmt"
	"strings"

	"github.com/namanNagelia/canvasAgents/model"
)

// Build pairs user_input[i] with ai_response[i]. A user input without a
// response yields only the human message; extra responses are dropped.
func Build(d model.SessionDetails) []model.Message {
	messages := make([]model.Message, 0, len(d.UserInput)*2)

	for i, in := range d.UserInput {
		messages = append(messages, model.Message{
			ID:      messageID(d.ID, i, model.RoleHuman),
			Role:    model.RoleHuman,
			Content: model.TextContent(in.Message),
			Agent:   in.AgentType.Normalized(),
		})

		if i >= len(d.AIResponse) {
			continue
		}
		resp := d.AIResponse[i]
		agent := resp.AgentType
		if agent == "" {
			agent = in.AgentType
		}
		messages = append(messages, model.Message{
			ID:      messageID(d.ID, i, model.RoleAI),
			Role:    model.RoleAI,
			Content: responseContent(resp.Message),
			Agent:   agent.Normalized(),
		})
	}

	return messages
}

// responseContent drops the agent's internal message log from object
// responses; it is never displayed.
func responseContent(c model.Content) model.Content {
	if !c.IsObject() {
		return c
	}
	fields := make(map[string]any, len(c.Fields))
	for k, v := range c.Fields {
		if k == "messages" {
			continue
		}
		fields[k] = v
	}
	return model.ObjectContent(fields)
}

func messageID(sessionID string, idx int, role model.Role) string {
	return fmt.Sprintf("%s/%d/%s", sessionID, idx, role)
}

// ShortID abbreviates long ids as first4..last4.
func ShortID(id string) string {
	if len(id) < 9 {
		return id
	}
	return id[:4] + ".." + id[len(id)-4:]
}

// Truncate collapses whitespace and cuts s to maxLen runes.
func Truncate(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 2 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-2]) + ".."
}
