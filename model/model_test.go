package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeckWrapsAround(t *testing.T) {
	d := NewDeck([]Flashcard{{Front: "a"}, {Front: "b"}, {Front: "c"}})

	d.Index = 2
	assert.Equal(t, 0, d.Next(), "next from the last card wraps to the first")

	d.Index = 0
	assert.Equal(t, 2, d.Prev(), "previous from the first card wraps to the last")

	assert.Equal(t, 1, d.Prev())
	assert.Equal(t, 2, d.Next())
}

func TestDeckResetsFlipOnNavigation(t *testing.T) {
	d := NewDeck([]Flashcard{{Front: "a"}, {Front: "b"}})
	d.Flip()
	require.True(t, d.Flipped)
	d.Next()
	assert.False(t, d.Flipped)
}

func TestEmptyDeck(t *testing.T) {
	d := NewDeck(nil)
	_, ok := d.Current()
	assert.False(t, ok)
	assert.Equal(t, 0, d.Next())
	assert.Equal(t, 0, d.Prev())
}

func TestSingleCardDeck(t *testing.T) {
	d := NewDeck([]Flashcard{{Front: "only"}})
	assert.Equal(t, 0, d.Next())
	assert.Equal(t, 0, d.Prev())
}

func TestContentUnmarshal(t *testing.T) {
	var msgs []struct {
		Message Content `json:"message"`
	}
	raw := `[{"message":"plain"},{"message":{"answer":"42"}},{"message":[1,2]},{"message":null}]`
	require.NoError(t, json.Unmarshal([]byte(raw), &msgs))

	assert.False(t, msgs[0].Message.IsObject())
	assert.Equal(t, "plain", msgs[0].Message.Text)

	assert.True(t, msgs[1].Message.IsObject())
	assert.Equal(t, "42", msgs[1].Message.Fields["answer"])

	assert.False(t, msgs[2].Message.IsObject())
	assert.Equal(t, "[1,2]", msgs[2].Message.Text)

	assert.Equal(t, Content{}, msgs[3].Message)
}

func TestLookupAgent(t *testing.T) {
	a, ok := LookupAgent("Diagram ")
	require.True(t, ok)
	assert.Equal(t, AgentDiagram, a.Kind)
	assert.Equal(t, "Diagram", a.Name)

	_, ok = LookupAgent("poetry")
	assert.False(t, ok)
	assert.Equal(t, AgentGeneral, AgentKind("poetry").Info().Kind)
	assert.Equal(t, AgentKind("poetry"), AgentKind("poetry").Normalized())
	assert.Len(t, Agents(), 7)
}
