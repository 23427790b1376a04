// Package normalize turns raw agent messages into typed display records.
// Nothing here fails: malformed or unexpected payloads degrade to text.
package normalize

import (
	"github.com/namanNagelia/canvasAgents/diagram"
	"github.com/namanNagelia/canvasAgents/model"
)

// Normalize decodes msg and extracts the fields its agent kind knows about.
func Normalize(msg model.Message) Display {
	p := Decode(msg)
	if msg.Role != model.RoleAI {
		return PlainDisplay{Agent: msg.Agent, Text: p.Text}
	}

	kind, known := model.LookupAgent(msg.Agent)
	if !known {
		return PlainDisplay{Agent: msg.Agent, Text: p.Text}
	}

	switch kind.Kind {
	case model.AgentGeneral:
		return general(p)
	case model.AgentNote, model.AgentResearch:
		return notes(kind.Kind, p)
	case model.AgentStep:
		return step(p)
	case model.AgentDiagram:
		return diagramDisplay(p)
	case model.AgentFlashcard:
		return flashcards(p)
	case model.AgentFeynman:
		return feynman(p)
	}
	return PlainDisplay{Agent: msg.Agent, Text: p.Text}
}

func general(p Payload) GeneralDisplay {
	if !p.Structured() {
		return GeneralDisplay{Answer: p.Text}
	}
	d := GeneralDisplay{
		Answer:          p.First("answer", "response"),
		PlanningProcess: RewriteMath(p.String("planning_process")),
	}
	if d.Answer == "" && d.PlanningProcess == "" {
		// some object we don't know; show it rather than nothing
		d.Answer = p.Text
	}
	return d
}

func notes(kind model.AgentKind, p Payload) NotesDisplay {
	d := NotesDisplay{Agent: kind}
	if !p.Structured() {
		d.Notes = RewriteMath(p.Text)
		return d
	}
	d.Notes = RewriteMath(p.First("formatted_notes", "notes"))
	d.ResearchMethod = RewriteMath(p.String("research_method"))
	d.Bibliography = RewriteMath(p.String("bibliography"))
	d.PlanningProcess = RewriteMath(p.String("planning_process"))
	return d
}

func step(p Payload) StepDisplay {
	if !p.Structured() {
		return StepDisplay{Solution: RewriteMath(p.Text)}
	}
	return StepDisplay{
		Solution:              RewriteMath(p.String("step_solution")),
		ProblemIdentification: RewriteMath(p.String("problem_identification")),
		VisualAids:            RewriteMath(p.String("visual_aids")),
		PlanningProcess:       RewriteMath(p.String("planning_process")),
	}
}

func diagramDisplay(p Payload) DiagramDisplay {
	ext := diagram.Parse(diagram.Source{Text: p.Text, Fields: p.Fields})
	ext.Metadata = diagram.Metadata{
		Interpretation:       RewriteMath(ext.Metadata.Interpretation),
		PlanningProcess:      RewriteMath(ext.Metadata.PlanningProcess),
		DiagramTypeRationale: RewriteMath(ext.Metadata.DiagramTypeRationale),
	}
	d := DiagramDisplay{Diagram: ext}
	if !ext.HasDiagram() && ext.Metadata.IsZero() && !p.Structured() {
		d.Fallback = RewriteMath(p.Text)
	}
	return d
}

func flashcards(p Payload) FlashcardDisplay {
	if !p.Structured() {
		return FlashcardDisplay{Fallback: RewriteMath(p.Text)}
	}
	return FlashcardDisplay{
		Cards:                p.Flashcards("flashcards"),
		StudyTips:            RewriteMath(p.String("study_tips")),
		OrganizationApproach: RewriteMath(p.String("organization_approach")),
		PlanningProcess:      RewriteMath(p.String("planning_process")),
	}
}

func feynman(p Payload) FeynmanDisplay {
	if !p.Structured() {
		return FeynmanDisplay{Explanation: RewriteMath(p.Text)}
	}
	return FeynmanDisplay{
		CoreConcept:     RewriteMath(p.String("core_concept")),
		Explanation:     RewriteMath(p.String("explanation")),
		Examples:        RewriteMath(p.String("examples")),
		Summary:         RewriteMath(p.String("summary")),
		PlanningProcess: RewriteMath(p.String("planning_process")),
	}
}
