// Package diagram pulls mermaid sources out of agent output, repairs them
// so the renderer accepts them, and renders them once per source.
package diagram

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode"
)

// Source is what an extractor looks at: the raw message text and, when the
// text (or the payload itself) was a JSON object, its fields.
type Source struct {
	Text   string
	Fields map[string]any
}

// Method names the extractor that produced a diagram.
type Method string

const (
	MethodNone          Method = ""
	MethodField         Method = "field"
	MethodFence         Method = "fence"
	MethodKeyword       Method = "keyword"
	MethodPrefixedFence Method = "prefixed-fence"
	MethodDocument      Method = "document"
)

type extractor struct {
	method Method
	fn     func(Source) (string, bool)
}

// extractors run in priority order; the first hit wins. Structured fields
// beat anything found by scanning text.
var extractors = []extractor{
	{MethodField, fromField},
	{MethodFence, fromFence},
	{MethodKeyword, fromKeyword},
	{MethodPrefixedFence, fromPrefixedFence},
	{MethodDocument, fromDocument},
}

var (
	mermaidFenceRe  = regexp.MustCompile("(?s)```mermaid[^\\S\\n]*\\n?(.*?)```")
	prefixedFenceRe = regexp.MustCompile("(?s)Diagram:\\s*```[\\w-]*[^\\S\\n]*\\n?(.*?)```")
	anyFenceRe      = regexp.MustCompile("(?s)```.*?```")
)

// RootKeywords are the diagram types recognised at the start of bare text.
var RootKeywords = []string{"graph", "flowchart", "sequenceDiagram", "classDiagram", "stateDiagram"}

// Extract returns the raw (unrepaired) diagram source and the method that found it.
func Extract(src Source) (string, Method) {
	for _, e := range extractors {
		if code, ok := e.fn(src); ok {
			return code, e.method
		}
	}
	return "", MethodNone
}

func fromField(src Source) (string, bool) {
	return fieldCode(src.Fields, "diagram", "diagram_code")
}

func fromFence(src Source) (string, bool) {
	m := mermaidFenceRe.FindStringSubmatch(src.Text)
	if m == nil {
		return "", false
	}
	code := strings.TrimSpace(m[1])
	return code, code != ""
}

func fromKeyword(src Source) (string, bool) {
	text := strings.TrimSpace(src.Text)
	if !HasRootKeyword(text) {
		return "", false
	}
	return text, true
}

func fromPrefixedFence(src Source) (string, bool) {
	m := prefixedFenceRe.FindStringSubmatch(src.Text)
	if m == nil {
		return "", false
	}
	code := strings.TrimSpace(m[1])
	return code, code != ""
}

func fromDocument(src Source) (string, bool) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(src.Text)), &doc); err != nil {
		return "", false
	}
	return fieldCode(doc, "diagram_code", "diagram")
}

// HasRootKeyword reports whether text starts with a recognised diagram type
// followed by a non-letter (or nothing).
func HasRootKeyword(text string) bool {
	for _, kw := range RootKeywords {
		if !strings.HasPrefix(text, kw) {
			continue
		}
		rest := text[len(kw):]
		if rest == "" {
			return true
		}
		r := []rune(rest)[0]
		if !unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func fieldCode(fields map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		if s, ok := fields[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s), true
		}
	}
	return "", false
}
