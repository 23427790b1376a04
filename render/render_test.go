package render

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/namanNagelia/canvasAgents/diagram"
	"github.com/namanNagelia/canvasAgents/model"
)

func newTestRenderer(cache *diagram.Cache) *Renderer {
	return New(Options{Theme: "notty", Width: 80}, cache)
}

func ai(kind model.AgentKind, text string) model.Message {
	return model.Message{ID: "m1", Role: model.RoleAI, Agent: kind, Content: model.TextContent(text)}
}

func TestStrategyFor(t *testing.T) {
	tests := []struct {
		tag  model.AgentKind
		want Strategy
	}{
		{model.AgentGeneral, StrategyPlain},
		{"", StrategyPlain},
		{"poetry", StrategyPlain},
		{"Note", StrategyNotes},
		{model.AgentResearch, StrategyResearch},
		{model.AgentStep, StrategyStep},
		{" diagram ", StrategyDiagram},
		{model.AgentFlashcard, StrategyFlashcard},
		{model.AgentFeynman, StrategyFeynman},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StrategyFor(tt.tag), "tag %q", tt.tag)
	}
	assert.Equal(t, "flashcard", StrategyFlashcard.String())
	assert.Equal(t, "unknown", Strategy(42).String())
}

func TestMessageStatuses(t *testing.T) {
	r := newTestRenderer(nil)

	human := r.Message(model.Message{Role: model.RoleHuman, Content: model.TextContent("what is a cell?")}, View{})
	assert.Contains(t, human, "You")
	assert.Contains(t, human, "what is a cell?")

	pending := r.Message(model.Message{Role: model.RoleAI, Agent: model.AgentNote, Status: model.StatusPending}, View{Spinner: "⣾"})
	assert.Contains(t, pending, "⣾ Thinking…")
	assert.Contains(t, pending, "Notes")

	errored := r.Message(model.Message{
		Role:         model.RoleAI,
		Status:       model.StatusErrored,
		Content:      model.TextContent("connection refused"),
		OriginalText: "what is a cell?",
	}, View{})
	assert.Contains(t, errored, "connection refused")
	assert.Contains(t, errored, "press r to retry")
}

func TestUnknownAgentRendersPlainText(t *testing.T) {
	r := newTestRenderer(nil)
	out := r.Message(ai("poetry", "roses are red"), View{})
	assert.Contains(t, out, "poetry")
	assert.Contains(t, out, "roses are red")
}

func TestFeynmanSectionsAndPlanning(t *testing.T) {
	r := newTestRenderer(nil)
	msg := ai(model.AgentFeynman, `{"core_concept": "Entropy", "explanation": "Things spread out", "planning_process": "secret plan"}`)

	out := r.Message(msg, View{})
	assert.Contains(t, out, "Core concept")
	assert.Contains(t, out, "Entropy")
	assert.Contains(t, out, "Explanation")
	assert.NotContains(t, out, "Summary")
	assert.Contains(t, out, "Planning process (press p to expand)")
	assert.NotContains(t, out, "secret plan")

	r.TogglePlanning()
	assert.True(t, r.ShowPlanning())
	out = r.Message(msg, View{})
	assert.Contains(t, out, "secret plan")
}

func TestStepOmitsMissingSections(t *testing.T) {
	r := newTestRenderer(nil)
	out := r.Message(ai(model.AgentStep, `{"step_solution": "Add the numbers"}`), View{})
	assert.Contains(t, out, "Solution")
	assert.Contains(t, out, "Add the numbers")
	assert.NotContains(t, out, "Visual aids")
	assert.NotContains(t, out, "Problem identification")
}

func TestResearchBibliography(t *testing.T) {
	r := newTestRenderer(nil)
	out := r.Message(ai(model.AgentResearch, `{"formatted_notes": "Cells divide", "bibliography": "Alberts 2002"}`), View{})
	assert.Contains(t, out, "Research notes")
	assert.Contains(t, out, "Bibliography")
	assert.Contains(t, out, "Alberts 2002")
}

func TestFlashcards(t *testing.T) {
	r := newTestRenderer(nil)
	msg := ai(model.AgentFlashcard, `{"flashcards": [{"front": "Capital of France?", "back": "Paris"}, {"front": "2+2?", "back": "Four"}], "study_tips": "Repeat daily"}`)

	out := r.Message(msg, View{})
	assert.Contains(t, out, "Flashcards (1 of 2)")
	assert.Contains(t, out, "Capital of France?")
	assert.NotContains(t, out, "Paris")
	assert.Contains(t, out, "Repeat daily")

	deck := model.NewDeck([]model.Flashcard{{Front: "Capital of France?", Back: "Paris"}, {Front: "2+2?", Back: "Four"}})
	deck.Next()
	deck.Flip()
	out = r.Message(msg, View{Decks: map[string]*model.Deck{"m1": deck}})
	assert.Contains(t, out, "Flashcards (2 of 2)")
	assert.Contains(t, out, "Answer")
	assert.Contains(t, out, "Four")

	out = r.Message(ai(model.AgentFlashcard, "Sorry, I could not make cards from that."), View{})
	assert.Contains(t, out, "No flashcards found")
	assert.Contains(t, out, "could not make cards")
}

func TestDiagramRenderStatus(t *testing.T) {
	cache := diagram.NewCache(diagram.CheckRenderer{})
	r := newTestRenderer(cache)

	good := ai(model.AgentDiagram, "```mermaid\ngraph TD;\nA-->B\n```\n{\"interpretation\":\"A leads to B\"}")
	out := r.Message(good, View{})
	assert.Contains(t, out, "A-->B")
	assert.Contains(t, out, "rendering diagram…")
	assert.Contains(t, out, "A leads to B")

	cache.Render(context.Background(), "graph TD;\nA-->B")
	out = r.Message(good, View{})
	assert.Contains(t, out, "diagram checked")

	bad := ai(model.AgentDiagram, "```mermaid\ngraph TD\nA[oops-->B\n```\n{\"interpretation\":\"still shown\"}")
	cache.Render(context.Background(), "graph TD\nA[oops-->B")
	out = r.Message(bad, View{})
	assert.Contains(t, out, "error rendering diagram")
	assert.Contains(t, out, "still shown")
}

func TestTranscriptRendersEveryMessage(t *testing.T) {
	r := newTestRenderer(nil)
	msgs := []model.Message{
		{ID: "1", Role: model.RoleHuman, Content: model.TextContent("first question")},
		ai(model.AgentFeynman, `{"explanation": "broken`),
		{ID: "3", Role: model.RoleHuman, Content: model.TextContent("second question")},
	}
	out := r.Transcript(msgs, View{})
	assert.Contains(t, out, "first question")
	assert.Contains(t, out, "broken")
	assert.Contains(t, out, "second question")
	assert.Less(t, strings.Index(out, "first question"), strings.Index(out, "second question"))
}

func TestMarkdownFallbacks(t *testing.T) {
	var nilMD *Markdown
	assert.Equal(t, "# raw", nilMD.Render("# raw"))
	assert.Equal(t, "plain", (&Markdown{}).Render("plain"))
	assert.Contains(t, NewMarkdown("notty", 80).Render("**bold** text"), "text")
}
