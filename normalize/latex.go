package normalize

import "strings"

var mathDelims = strings.NewReplacer(
	`\[`, "$$",
	`\]`, "$$",
	`\(`, "$",
	`\)`, "$",
)

// RewriteMath converts \[..\] and \(..\) math delimiters to the dollar
// form the markdown renderer understands. Replacements never produce a
// backslash, so applying it twice changes nothing.
func RewriteMath(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	return mathDelims.Replace(s)
}
