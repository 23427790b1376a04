// Package render lays out chat messages for the terminal. Each agent kind
// has its own strategy; a message that fails to render is replaced by a
// placeholder without affecting the rest of the transcript.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/namanNagelia/canvasAgents/diagram"
	"github.com/namanNagelia/canvasAgents/logging"
	"github.com/namanNagelia/canvasAgents/model"
	"github.com/namanNagelia/canvasAgents/normalize"
)

// Options configures a Renderer.
type Options struct {
	Theme        string
	Width        int
	ShowPlanning bool
}

// View carries the per-frame state owned by the TUI.
type View struct {
	Spinner string                 // current spinner frame for pending messages
	Decks   map[string]*model.Deck // flashcard position per message id
}

// Renderer turns messages into terminal text.
type Renderer struct {
	opts     Options
	md       *Markdown
	diagrams *diagram.Cache
}

// New creates a renderer. diagrams may be nil, in which case diagram
// sources are shown without a render status.
func New(opts Options, diagrams *diagram.Cache) *Renderer {
	if opts.Width <= 0 {
		opts.Width = 80
	}
	return &Renderer{
		opts:     opts,
		md:       NewMarkdown(opts.Theme, opts.Width),
		diagrams: diagrams,
	}
}

// SetWidth rebuilds the markdown renderer for a new terminal width.
func (r *Renderer) SetWidth(width int) {
	if width <= 0 || width == r.opts.Width {
		return
	}
	r.opts.Width = width
	r.md = NewMarkdown(r.opts.Theme, width)
}

func (r *Renderer) ShowPlanning() bool { return r.opts.ShowPlanning }

// TogglePlanning expands or collapses every planning-process section.
func (r *Renderer) TogglePlanning() {
	r.opts.ShowPlanning = !r.opts.ShowPlanning
}

// Transcript renders all messages in order.
func (r *Renderer) Transcript(msgs []model.Message, v View) string {
	var sb strings.Builder
	for i, m := range msgs {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(r.Message(m, v))
	}
	return sb.String()
}

// Message renders one message, recovering from any failure inside it.
func (r *Renderer) Message(msg model.Message, v View) (out string) {
	defer func() {
		if p := recover(); p != nil {
			logging.Get(logging.CategoryTUI).Error("message render panicked",
				zap.String("message", msg.ID),
				zap.Any("panic", p))
			out = r.header(msg) + "\n" + warnStyle.Render("⚠ this message could not be displayed")
		}
	}()

	switch {
	case msg.Role == model.RoleHuman:
		return youStyle.Render("You") + "\n" + preStyle.Width(r.opts.Width).Render(msg.Content.String())
	case msg.Status == model.StatusPending:
		return r.header(msg) + "\n" + pendingStyle.Render(strings.TrimSpace(v.Spinner+" Thinking…"))
	case msg.Status == model.StatusErrored:
		body := "✗ " + msg.Content.String() + "\n" + hintStyle.Render("press r to retry")
		return r.header(msg) + "\n" + errorBubbleStyle.Width(r.opts.Width-4).Render(body)
	}

	return r.header(msg) + "\n" + r.body(msg, normalize.Normalize(msg), v)
}

func (r *Renderer) header(msg model.Message) string {
	info, ok := model.LookupAgent(msg.Agent)
	if !ok {
		label := "Assistant"
		if msg.Agent != "" {
			label = string(msg.Agent)
		}
		return agentHeaderStyle.Background(lipgloss.Color("240")).Render(label)
	}
	return agentHeaderStyle.Background(lipgloss.Color(info.Color)).Render(info.Icon + " " + info.Name)
}

func (r *Renderer) body(msg model.Message, d normalize.Display, v View) string {
	switch StrategyFor(msg.Agent) {
	case StrategyNotes, StrategyResearch:
		if nd, ok := d.(normalize.NotesDisplay); ok {
			return r.notes(nd)
		}
	case StrategyStep:
		if sd, ok := d.(normalize.StepDisplay); ok {
			return r.step(sd)
		}
	case StrategyDiagram:
		if dd, ok := d.(normalize.DiagramDisplay); ok {
			return r.diagram(dd)
		}
	case StrategyFlashcard:
		if fd, ok := d.(normalize.FlashcardDisplay); ok {
			return r.flashcards(fd, v.Decks[msg.ID])
		}
	case StrategyFeynman:
		if fd, ok := d.(normalize.FeynmanDisplay); ok {
			return r.feynman(fd)
		}
	}
	return r.plain(msg, d)
}

func (r *Renderer) plain(msg model.Message, d normalize.Display) string {
	switch pd := d.(type) {
	case normalize.GeneralDisplay:
		return joinSections(
			preStyle.Width(r.opts.Width).Render(pd.Answer),
			r.planning(pd.PlanningProcess),
		)
	case normalize.PlainDisplay:
		return preStyle.Width(r.opts.Width).Render(pd.Text)
	}
	return preStyle.Width(r.opts.Width).Render(msg.Content.String())
}

func (r *Renderer) notes(d normalize.NotesDisplay) string {
	title := "Notes"
	if d.Agent == model.AgentResearch {
		title = "Research notes"
	}
	return joinSections(
		r.section(title, d.Notes),
		r.section("Research method", d.ResearchMethod),
		r.section("Bibliography", d.Bibliography),
		r.planning(d.PlanningProcess),
	)
}

func (r *Renderer) step(d normalize.StepDisplay) string {
	return joinSections(
		r.section("Problem identification", d.ProblemIdentification),
		r.section("Solution", d.Solution),
		r.section("Visual aids", d.VisualAids),
		r.planning(d.PlanningProcess),
	)
}

func (r *Renderer) feynman(d normalize.FeynmanDisplay) string {
	return joinSections(
		r.section("Core concept", d.CoreConcept),
		r.section("Explanation", d.Explanation),
		r.section("Examples", d.Examples),
		r.section("Summary", d.Summary),
		r.planning(d.PlanningProcess),
	)
}

func (r *Renderer) diagram(d normalize.DiagramDisplay) string {
	if d.Fallback != "" {
		return r.md.Render(d.Fallback)
	}

	var diagramSection string
	if d.Diagram.HasDiagram() {
		src := r.md.Render("```mermaid\n" + d.Diagram.Code + "\n```")
		diagramSection = sectionTitleStyle.Render("Diagram") + "\n" + src + "\n" + r.diagramStatus(d.Diagram.Code)
	}

	meta := d.Diagram.Metadata
	return joinSections(
		diagramSection,
		r.section("Interpretation", meta.Interpretation),
		r.section("Why this diagram type", meta.DiagramTypeRationale),
		r.planning(meta.PlanningProcess),
	)
}

func (r *Renderer) diagramStatus(code string) string {
	if r.diagrams == nil {
		return ""
	}
	o, ok := r.diagrams.Lookup(code)
	switch {
	case !ok:
		return hintStyle.Render("rendering diagram…")
	case o.Err != nil:
		return warnStyle.Render(o.Placeholder())
	case o.Result.Path != "":
		return okStyle.Render("✓ rendered to " + o.Result.Path + " (press o to open)")
	}
	return okStyle.Render("✓ diagram checked")
}

func (r *Renderer) flashcards(d normalize.FlashcardDisplay, deck *model.Deck) string {
	if d.Fallback != "" {
		return warnStyle.Render("No flashcards found") + "\n" + r.md.Render(d.Fallback)
	}

	var cardSection string
	if len(d.Cards) > 0 {
		if deck == nil || len(deck.Cards) != len(d.Cards) {
			deck = model.NewDeck(d.Cards)
		}
		card, _ := deck.Current()
		face, text := "Question", card.Front
		if deck.Flipped {
			face, text = "Answer", card.Back
		}
		text = normalize.RewriteMath(text)
		title := fmt.Sprintf("Flashcards (%d of %d)", deck.Index+1, len(deck.Cards))
		cardSection = sectionTitleStyle.Render(title) + "\n" +
			cardStyle.Width(min(r.opts.Width-4, 70)).Render(hintStyle.Render(face)+"\n"+text) + "\n" +
			hintStyle.Render("[ / ] previous / next · space flip")
	}

	return joinSections(
		cardSection,
		r.section("Study tips", d.StudyTips),
		r.section("Organization approach", d.OrganizationApproach),
		r.planning(d.PlanningProcess),
	)
}

// section renders a titled markdown block; empty bodies are omitted.
func (r *Renderer) section(title, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return sectionTitleStyle.Render(title) + "\n" + r.md.Render(body)
}

func (r *Renderer) planning(body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	if !r.opts.ShowPlanning {
		return collapsedStyle.Render("▸ Planning process (press p to expand)")
	}
	return r.section("Planning process", body)
}

func joinSections(parts ...string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}
