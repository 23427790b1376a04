package transcript

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/namanNagelia/canvasAgents/model"
)

const detailsJSON = `{
	"id": "7f3c2a10-aaaa-bbbb-cccc-0123456789ab",
	"user_input": [
		{"message": "explain entropy", "agent_type": "Feynman"},
		{"message": "draw it", "agent_type": "diagram"},
		{"message": "still waiting", "agent_type": "general"}
	],
	"ai_response": [
		{"message": {"core_concept": "Entropy", "messages": [{"role": "system"}]}, "agent_type": "feynman"},
		{"message": "graph TD\nA-->B", "agent_type": ""}
	]
}`

func TestBuild(t *testing.T) {
	var d model.SessionDetails
	require.NoError(t, json.Unmarshal([]byte(detailsJSON), &d))

	msgs := Build(d)
	require.Len(t, msgs, 5)

	assert.Equal(t, model.RoleHuman, msgs[0].Role)
	assert.Equal(t, "explain entropy", msgs[0].Content.Text)
	assert.Equal(t, model.AgentFeynman, msgs[0].Agent)

	assert.Equal(t, model.RoleAI, msgs[1].Role)
	require.True(t, msgs[1].Content.IsObject())
	assert.Equal(t, "Entropy", msgs[1].Content.Fields["core_concept"])
	assert.NotContains(t, msgs[1].Content.Fields, "messages")

	// an empty agent tag on the response inherits the input's
	assert.Equal(t, model.AgentDiagram, msgs[3].Agent)
	assert.Equal(t, "graph TD\nA-->B", msgs[3].Content.Text)

	// the last input has no response yet
	assert.Equal(t, model.RoleHuman, msgs[4].Role)
	assert.Equal(t, "still waiting", msgs[4].Content.Text)

	for _, m := range msgs {
		assert.Equal(t, model.StatusSettled, m.Status)
	}
}

func TestBuildStableIDs(t *testing.T) {
	var d model.SessionDetails
	require.NoError(t, json.Unmarshal([]byte(detailsJSON), &d))

	first, second := Build(d), Build(d)
	ids := map[string]bool{}
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.False(t, ids[first[i].ID], "duplicate id %s", first[i].ID)
		ids[first[i].ID] = true
	}
}

func TestBuildDropsUnpairedResponses(t *testing.T) {
	d := model.SessionDetails{
		ID:         "s",
		AIResponse: []model.AIResponse{{Message: model.TextContent("orphan")}},
	}
	assert.Empty(t, Build(d))
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "7f3c..89ab", ShortID("7f3c2a10-aaaa-bbbb-cccc-0123456789ab"))
	assert.Equal(t, "short", ShortID("short"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "a b c", Truncate("a \n b\t c", 10))
	assert.Equal(t, "hello w..", Truncate("hello world again", 9))
	assert.Equal(t, "日本..", Truncate("日本語のテキスト", 4))
	assert.Equal(t, "ab", Truncate("abcdef", 2))
}

func TestSummarize(t *testing.T) {
	records := []model.SessionRecord{
		{ID: "old-session-0001", UserInput: []model.UserInput{{Message: "first"}}, CreatedAt: "2025-01-01T10:00:00"},
		{ID: ""},
		{ID: "new-session-0002", CreatedAt: "2025-01-01T10:00:00", UpdatedAt: "2025-03-02T08:30:00.123456"},
	}

	got := Summarize(records)
	require.Len(t, got, 2)

	assert.Equal(t, "new-session-0002", got[0].ID)
	assert.Equal(t, "New chat", got[0].Preview)
	assert.Equal(t, time.Date(2025, 3, 2, 8, 30, 0, 123456000, time.UTC), got[0].UpdatedAt)

	assert.Equal(t, "old-..0001", got[1].ShortID)
	assert.Equal(t, "first", got[1].Preview)
	assert.True(t, got[1].UpdatedAt.IsZero())
	assert.Equal(t, got[1].CreatedAt, got[1].LastActive())
}
