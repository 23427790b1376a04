package model

import "strings"

// AgentKind selects which response template applies to a message.
type AgentKind string

const (
	AgentGeneral   AgentKind = "general"
	AgentResearch  AgentKind = "research"
	AgentNote      AgentKind = "note"
	AgentStep      AgentKind = "step"
	AgentDiagram   AgentKind = "diagram"
	AgentFlashcard AgentKind = "flashcard"
	AgentFeynman   AgentKind = "feynman"
)

// AgentInfo is the fixed display data for an agent kind.
type AgentInfo struct {
	Kind        AgentKind
	Name        string
	Icon        string
	Color       string // lipgloss color
	Description string
}

var agents = []AgentInfo{
	{AgentGeneral, "General", "💬", "245", "General knowledge"},
	{AgentResearch, "Research", "🔎", "33", "In-depth research and citations"},
	{AgentNote, "Notes", "📖", "36", "Comprehensive note-taking"},
	{AgentStep, "Step", "🪜", "62", "Detailed problem solving"},
	{AgentDiagram, "Diagram", "🗺", "214", "Visual concept mapping"},
	{AgentFlashcard, "Flashcards", "🃏", "204", "Flashcards for studying"},
	{AgentFeynman, "Feynman", "💡", "220", "Simplified explanations"},
}

// Agents returns the known agent kinds in display order.
func Agents() []AgentInfo {
	out := make([]AgentInfo, len(agents))
	copy(out, agents)
	return out
}

// LookupAgent finds the display data for a tag, ignoring case and surrounding space.
func LookupAgent(tag AgentKind) (AgentInfo, bool) {
	key := AgentKind(strings.ToLower(strings.TrimSpace(string(tag))))
	for _, a := range agents {
		if a.Kind == key {
			return a, true
		}
	}
	return AgentInfo{}, false
}

// Info returns display data, falling back to the general agent for unknown tags.
func (k AgentKind) Info() AgentInfo {
	if a, ok := LookupAgent(k); ok {
		return a
	}
	return agents[0]
}

// Normalized returns the canonical tag if known, otherwise the tag unchanged.
func (k AgentKind) Normalized() AgentKind {
	if a, ok := LookupAgent(k); ok {
		return a.Kind
	}
	return k
}
