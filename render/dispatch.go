package render

import "github.com/namanNagelia/canvasAgents/model"

// Strategy is one of the seven ways an agent message is laid out.
type Strategy int

const (
	StrategyPlain Strategy = iota
	StrategyNotes
	StrategyResearch
	StrategyStep
	StrategyDiagram
	StrategyFlashcard
	StrategyFeynman
)

var strategyNames = [...]string{"plain", "notes", "research", "step", "diagram", "flashcard", "feynman"}

func (s Strategy) String() string {
	if int(s) < len(strategyNames) {
		return strategyNames[s]
	}
	return "unknown"
}

// StrategyFor maps an agent tag to its strategy. General, empty and
// unrecognised tags get the plain preformatted strategy.
func StrategyFor(tag model.AgentKind) Strategy {
	info, ok := model.LookupAgent(tag)
	if !ok {
		return StrategyPlain
	}
	switch info.Kind {
	case model.AgentNote:
		return StrategyNotes
	case model.AgentResearch:
		return StrategyResearch
	case model.AgentStep:
		return StrategyStep
	case model.AgentDiagram:
		return StrategyDiagram
	case model.AgentFlashcard:
		return StrategyFlashcard
	case model.AgentFeynman:
		return StrategyFeynman
	}
	return StrategyPlain
}
