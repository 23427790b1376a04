package diagram

import (
	"regexp"
	"strings"
)

var unescaper = strings.NewReplacer(`\n`, "\n")

var labelRe = regexp.MustCompile(`\[([^\[\]\n]*)\]`)

// labelEscapes maps characters that break the flowchart grammar inside a
// node label to mermaid entity codes.
var labelEscapes = strings.NewReplacer(
	`=`, "#61;",
	`(`, "#40;",
	`)`, "#41;",
	`^`, "#94;",
	`'`, "#39;",
	`"`, "#34;",
)

// Repair rewrites escape sequences left over from JSON transport and
// escapes grammar-breaking characters inside node labels. Steps run in a
// fixed order: \n, \", \\, CRLF, labels.
func Repair(code string) string {
	code = unescaper.Replace(code)
	code = strings.ReplaceAll(code, `\"`, `"`)
	code = strings.ReplaceAll(code, `\\`, `\`)
	code = strings.ReplaceAll(code, "\r\n", "\n")
	return EscapeLabels(strings.TrimSpace(code))
}

// EscapeLabels escapes the text of every single-line [label]. Quoted labels
// are unwrapped first; a cylinder [(label)] keeps its outer parentheses.
func EscapeLabels(code string) string {
	return labelRe.ReplaceAllStringFunc(code, func(m string) string {
		inner := m[1 : len(m)-1]
		if len(inner) >= 2 && strings.HasPrefix(inner, `"`) && strings.HasSuffix(inner, `"`) {
			inner = inner[1 : len(inner)-1]
		}
		if len(inner) >= 2 && strings.HasPrefix(inner, "(") && strings.HasSuffix(inner, ")") {
			return "[(" + labelEscapes.Replace(inner[1:len(inner)-1]) + ")]"
		}
		return "[" + labelEscapes.Replace(inner) + "]"
	})
}
