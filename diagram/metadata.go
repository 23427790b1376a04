package diagram

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Metadata is the prose that accompanies a diagram.
type Metadata struct {
	Interpretation       string
	PlanningProcess      string
	DiagramTypeRationale string
}

func (m Metadata) IsZero() bool {
	return m == Metadata{}
}

var headingRe = regexp.MustCompile(`(?m)^(#{1,6})[ \t]+(.+?)[ \t]*$`)

// ExtractMetadata reads the companion fields from the parsed object, else
// from the first JSON object embedded in the text, else from markdown
// "## Interpretation"-style sections when no JSON was found at all.
func ExtractMetadata(src Source) Metadata {
	if src.Fields != nil {
		return metadataFromFields(src.Fields)
	}
	if fields, ok := EmbeddedObject(src.Text); ok {
		return metadataFromFields(fields)
	}
	return metadataFromHeadings(src.Text)
}

func metadataFromFields(fields map[string]any) Metadata {
	return Metadata{
		Interpretation:       stringField(fields, "interpretation"),
		PlanningProcess:      stringField(fields, "planning_process"),
		DiagramTypeRationale: stringField(fields, "diagram_type_rationale"),
	}
}

// EmbeddedObject finds the first decodable JSON object in text, ignoring
// anything inside fenced blocks (mermaid uses braces for decision nodes).
func EmbeddedObject(text string) (map[string]any, bool) {
	text = anyFenceRe.ReplaceAllString(text, "")
	for i := 0; i < len(text); i++ {
		if text[i] != '{' {
			continue
		}
		var obj map[string]any
		dec := json.NewDecoder(strings.NewReader(text[i:]))
		if err := dec.Decode(&obj); err == nil {
			return obj, true
		}
	}
	return nil, false
}

func metadataFromHeadings(text string) Metadata {
	sections := Sections(text)
	return Metadata{
		Interpretation:       sections["interpretation"],
		PlanningProcess:      sections["planning process"],
		DiagramTypeRationale: sections["diagram type rationale"],
	}
}

// Sections splits markdown into heading → body, keyed by lowercased heading.
// A body runs until the next heading of the same or a higher level, so
// subheadings stay inside their parent's body.
func Sections(text string) map[string]string {
	out := make(map[string]string)
	locs := headingRe.FindAllStringSubmatchIndex(text, -1)
	for i, loc := range locs {
		level := loc[3] - loc[2]
		name := strings.ToLower(strings.TrimSpace(text[loc[4]:loc[5]]))
		end := len(text)
		for _, next := range locs[i+1:] {
			if next[3]-next[2] <= level {
				end = next[0]
				break
			}
		}
		body := strings.TrimSpace(text[loc[1]:end])
		if _, seen := out[name]; !seen {
			out[name] = body
		}
	}
	return out
}

func stringField(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return strings.TrimSpace(s)
}
