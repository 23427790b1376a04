package normalize

import (
	"github.com/namanNagelia/canvasAgents/diagram"
	"github.com/namanNagelia/canvasAgents/model"
)

// Display is the typed, partially populated record a renderer works from.
// Empty fields mean the section is omitted.
type Display interface {
	Kind() model.AgentKind
}

// PlainDisplay is used for human messages and agent tags nobody knows.
type PlainDisplay struct {
	Agent model.AgentKind
	Text  string
}

type GeneralDisplay struct {
	Answer          string
	PlanningProcess string
}

// NotesDisplay serves both the note and research agents.
type NotesDisplay struct {
	Agent           model.AgentKind
	Notes           string
	ResearchMethod  string
	Bibliography    string
	PlanningProcess string
}

type StepDisplay struct {
	Solution              string
	ProblemIdentification string
	VisualAids            string
	PlanningProcess       string
}

type DiagramDisplay struct {
	Diagram diagram.Extraction
	// Fallback holds the raw text when no diagram and no metadata were found.
	Fallback string
}

type FlashcardDisplay struct {
	Cards                []model.Flashcard
	StudyTips            string
	OrganizationApproach string
	PlanningProcess      string
	Fallback             string
}

type FeynmanDisplay struct {
	CoreConcept     string
	Explanation     string
	Examples        string
	Summary         string
	PlanningProcess string
}

func (d PlainDisplay) Kind() model.AgentKind { return d.Agent }
func (GeneralDisplay) Kind() model.AgentKind { return model.AgentGeneral }
func (d NotesDisplay) Kind() model.AgentKind { return d.Agent }
func (StepDisplay) Kind() model.AgentKind { return model.AgentStep }
func (DiagramDisplay) Kind() model.AgentKind { return model.AgentDiagram }
func (FlashcardDisplay) Kind() model.AgentKind { return model.AgentFlashcard }
func (FeynmanDisplay) Kind() model.AgentKind { return model.AgentFeynman }
