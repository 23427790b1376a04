package normalize

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/namanNagelia/canvasAgents/diagram"
	"github.com/namanNagelia/canvasAgents/logging"
	"github.com/namanNagelia/canvasAgents/model"
)

func aiText(kind model.AgentKind, text string) model.Message {
	return model.Message{Role: model.RoleAI, Agent: kind, Content: model.TextContent(text)}
}

func TestRewriteMath(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`\[x^2\]`, `$$x^2$$`},
		{`inline \(a+b\) here`, `inline $a+b$ here`},
		{`no math`, `no math`},
		{`already $$x$$ and $y$`, `already $$x$$ and $y$`},
		{`\\[odd\\]`, `\$$odd\$$`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RewriteMath(tt.input), "input %q", tt.input)
	}
}

func TestRewriteMathIdempotent(t *testing.T) {
	inputs := []string{
		`\[ \int_0^1 f(x)\,dx \]`,
		`mixed \(a\) and \[b\] and $c$`,
		`\\\[nested\\\]`,
		`\(\)\[\]`,
		`trailing backslash \`,
		"",
	}
	for _, in := range inputs {
		once := RewriteMath(in)
		assert.Equal(t, once, RewriteMath(once), "input %q", in)
	}
}

func TestMalformedJSONNeverFails(t *testing.T) {
	malformed := []string{
		`{"core_concept": "unterminated`,
		`{not json at all}`,
		`[1, 2,`,
		`{"explanation": "x",}`,
		"\x00\x01 binary junk",
		`}{`,
	}
	kinds := []model.AgentKind{
		model.AgentGeneral, model.AgentResearch, model.AgentNote, model.AgentStep,
		model.AgentDiagram, model.AgentFlashcard, model.AgentFeynman, "mystery",
	}

	for _, raw := range malformed {
		for _, kind := range kinds {
			var d Display
			require.NotPanics(t, func() { d = Normalize(aiText(kind, raw)) })

			switch v := d.(type) {
			case FeynmanDisplay:
				assert.Empty(t, v.CoreConcept)
				assert.Empty(t, v.Examples)
				assert.Empty(t, v.Summary)
				assert.Empty(t, v.PlanningProcess)
				assert.Equal(t, raw, v.Explanation)
			case StepDisplay:
				assert.Empty(t, v.ProblemIdentification)
				assert.Empty(t, v.VisualAids)
				assert.Empty(t, v.PlanningProcess)
				assert.Equal(t, raw, v.Solution)
			case NotesDisplay:
				assert.Empty(t, v.ResearchMethod)
				assert.Empty(t, v.Bibliography)
				assert.Empty(t, v.PlanningProcess)
			case FlashcardDisplay:
				assert.Empty(t, v.Cards)
				assert.Empty(t, v.StudyTips)
				assert.Empty(t, v.OrganizationApproach)
				assert.Empty(t, v.PlanningProcess)
			case DiagramDisplay:
				assert.False(t, v.Diagram.HasDiagram())
				assert.Empty(t, v.Diagram.Metadata.PlanningProcess)
			case GeneralDisplay:
				assert.Empty(t, v.PlanningProcess)
				assert.Equal(t, raw, v.Answer)
			case PlainDisplay:
				assert.Equal(t, raw, v.Text)
			default:
				t.Fatalf("unexpected display %T", d)
			}
		}
	}
}

func TestNormalizeStructured(t *testing.T) {
	tests := []struct {
		name string
		msg  model.Message
		want Display
	}{
		{
			name: "feynman from JSON text",
			msg: aiText(model.AgentFeynman, `{
				"core_concept": "Entropy",
				"explanation": "Disorder grows: \\(S = k \\ln W\\)",
				"examples": ["messy room", "ice melting"],
				"summary": "Things spread out.",
				"planning_process": "Start simple."}`),
			want: FeynmanDisplay{
				CoreConcept:     "Entropy",
				Explanation:     "Disorder grows: $S = k \\ln W$",
				Examples:        "- messy room\n- ice melting",
				Summary:         "Things spread out.",
				PlanningProcess: "Start simple.",
			},
		},
		{
			name: "step from object content with wrong-typed key",
			msg: model.Message{Role: model.RoleAI, Agent: "Step", Content: model.ObjectContent(map[string]any{
				"step_solution":          "1. Add\n2. Carry",
				"problem_identification": map[string]any{"type": "arithmetic"},
			})},
			want: StepDisplay{Solution: "1. Add\n2. Carry"},
		},
		{
			name: "research notes",
			msg: aiText(model.AgentResearch, `{"formatted_notes": "# Cells", "bibliography": "Alberts 2002"}`),
			want: NotesDisplay{Agent: model.AgentResearch, Notes: "# Cells", Bibliography: "Alberts 2002"},
		},
		{
			name: "note agent plain text",
			msg:  aiText(model.AgentNote, `Mitochondria \[E=mc^2\]`),
			want: NotesDisplay{Agent: model.AgentNote, Notes: "Mitochondria $$E=mc^2$$"},
		},
		{
			name: "general keeps answer verbatim",
			msg:  aiText(model.AgentGeneral, `{"answer": "Use \\(x\\)", "planning_process": "think"}`),
			want: GeneralDisplay{Answer: `Use \(x\)`, PlanningProcess: "think"},
		},
		{
			name: "general with unknown object shows the JSON",
			msg:  aiText(model.AgentGeneral, `{"foo": 1}`),
			want: GeneralDisplay{Answer: `{"foo": 1}`},
		},
		{
			name: "double-encoded JSON string",
			msg:  aiText(model.AgentFeynman, `"just a string"`),
			want: FeynmanDisplay{Explanation: "just a string"},
		},
		{
			name: "unknown agent passes text through",
			msg:  aiText("poetry", `{"verse": "roses"}`),
			want: PlainDisplay{Agent: "poetry", Text: `{"verse": "roses"}`},
		},
		{
			name: "human message is never parsed",
			msg:  model.Message{Role: model.RoleHuman, Agent: model.AgentFeynman, Content: model.TextContent(`{"explanation": "x"}`)},
			want: PlainDisplay{Agent: model.AgentFeynman, Text: `{"explanation": "x"}`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.msg)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("Normalize() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalizeFlashcards(t *testing.T) {
	msg := aiText(model.AgentFlashcard, `{
		"flashcards": [
			{"front": "What is \\(\\pi\\)?", "back": "3.14159"},
			"not a card",
			{"front": "", "back": ""},
			{"question": "Capital of France?", "answer": "Paris"},
			{"front": 7, "back": true}
		],
		"study_tips": "Space it out",
		"organization_approach": ["by topic", "by difficulty"]
	}`)

	d, ok := Normalize(msg).(FlashcardDisplay)
	require.True(t, ok)

	want := []model.Flashcard{
		{Front: `What is \(\pi\)?`, Back: "3.14159"},
		{Front: "Capital of France?", Back: "Paris"},
		{Front: "7", Back: "true"},
	}
	if diff := cmp.Diff(want, d.Cards); diff != "" {
		t.Fatalf("cards mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "Space it out", d.StudyTips)
	assert.Equal(t, "- by topic\n- by difficulty", d.OrganizationApproach)
	assert.Empty(t, d.Fallback)

	// flashcards that aren't a list degrade to no cards
	d = Normalize(aiText(model.AgentFlashcard, `{"flashcards": "oops"}`)).(FlashcardDisplay)
	assert.Empty(t, d.Cards)
}

func TestNormalizeDiagram(t *testing.T) {
	t.Run("fenced diagram with trailing json", func(t *testing.T) {
		msg := aiText(model.AgentDiagram, "```mermaid\ngraph TD;\nA-->B\n```\n{\"interpretation\":\"x\"}")
		d := Normalize(msg).(DiagramDisplay)
		assert.Equal(t, "graph TD;\nA-->B", d.Diagram.Code)
		assert.Equal(t, "x", d.Diagram.Metadata.Interpretation)
		assert.Empty(t, d.Fallback)
	})

	t.Run("structured object with escaped code", func(t *testing.T) {
		msg := aiText(model.AgentDiagram, `{"diagram_code": "graph TD\\nA[\\\"x = 1\\\"]-->B", "diagram_type_rationale": "\\(flow\\)"}`)
		d := Normalize(msg).(DiagramDisplay)
		assert.Equal(t, diagram.MethodField, d.Diagram.Method)
		assert.Equal(t, "graph TD\nA[x #61; 1]-->B", d.Diagram.Code)
		assert.Equal(t, "$flow$", d.Diagram.Metadata.DiagramTypeRationale)
	})

	t.Run("prose only falls back to text", func(t *testing.T) {
		d := Normalize(aiText(model.AgentDiagram, "I could not draw that.")).(DiagramDisplay)
		assert.False(t, d.Diagram.HasDiagram())
		assert.Equal(t, "I could not draw that.", d.Fallback)
	})
}

func TestDecodeLogsParseFailure(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logging.Set(zap.New(core))
	t.Cleanup(func() { logging.Set(nil) })

	p := Decode(aiText(model.AgentStep, "{broken"))
	assert.False(t, p.Structured())
	assert.Equal(t, "{broken", p.Text)

	entries := logs.FilterLoggerName(string(logging.CategoryNormalize)).All()
	require.Len(t, entries, 1)
	assert.Equal(t, "content is not JSON, rendering as text", entries[0].Message)
}
