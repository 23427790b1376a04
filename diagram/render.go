package diagram

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Result is a successfully rendered diagram.
type Result struct {
	Source string // repaired mermaid source
	Path   string // rendered file, empty when the renderer only validates
}

// Renderer turns a repaired mermaid source into something displayable.
type Renderer interface {
	Render(ctx context.Context, code string) (Result, error)
}

// ErrEmpty is returned for blank sources.
var ErrEmpty = errors.New("empty diagram")

// CheckRenderer validates the source without drawing it: the root keyword
// must be known and brackets must balance. The terminal then shows the
// source itself.
type CheckRenderer struct{}

func (CheckRenderer) Render(ctx context.Context, code string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if err := Check(code); err != nil {
		return Result{}, err
	}
	return Result{Source: code}, nil
}

// Check reports the first structural problem in a mermaid source.
func Check(code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return ErrEmpty
	}
	if !HasRootKeyword(firstStatement(code)) {
		return fmt.Errorf("unknown diagram type %q", firstWord(code))
	}

	// message text in sequence/class/state diagrams is free-form, so only
	// flowcharts get the bracket check
	kw := firstWord(code)
	if kw != "graph" && kw != "flowchart" {
		return nil
	}
	return checkBrackets(code)
}

func checkBrackets(code string) error {
	pairs := map[rune]rune{')': '(', ']': '[', '}': '{'}
	var stack []rune
	for lineNo, line := range strings.Split(code, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "%%") {
			continue
		}
		inQuote := false
		asym := false
		for _, r := range line {
			if r == '"' {
				inQuote = !inQuote
				continue
			}
			if inQuote {
				continue
			}
			switch r {
			case '>':
				asym = true
			case '(', '[', '{':
				stack = append(stack, r)
			case ')', ']', '}':
				if len(stack) > 0 && stack[len(stack)-1] == pairs[r] {
					stack = stack[:len(stack)-1]
					continue
				}
				// id>asymmetric label]
				if r == ']' && asym {
					asym = false
					continue
				}
				return fmt.Errorf("line %d: unexpected %q", lineNo+1, r)
			}
		}
	}
	if len(stack) > 0 {
		return fmt.Errorf("unclosed %q", stack[len(stack)-1])
	}
	return nil
}

// CLIRenderer shells out to mermaid-cli and writes an SVG per source.
type CLIRenderer struct {
	Binary    string // defaults to mmdc
	OutputDir string
}

func (r CLIRenderer) Render(ctx context.Context, code string) (Result, error) {
	if strings.TrimSpace(code) == "" {
		return Result{}, ErrEmpty
	}
	bin := r.Binary
	if bin == "" {
		bin = "mmdc"
	}
	if err := os.MkdirAll(r.OutputDir, 0755); err != nil {
		return Result{}, fmt.Errorf("failed to create diagram directory: %w", err)
	}

	name := sourceKey(code)
	in := filepath.Join(r.OutputDir, name+".mmd")
	out := filepath.Join(r.OutputDir, name+".svg")
	if err := os.WriteFile(in, []byte(code), 0644); err != nil {
		return Result{}, fmt.Errorf("failed to write diagram source: %w", err)
	}

	cmd := exec.CommandContext(ctx, bin, "-i", in, "-o", out)
	output, err := cmd.CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(output))
		if msg == "" {
			msg = err.Error()
		}
		return Result{}, fmt.Errorf("%s: %s", filepath.Base(bin), lastLine(msg))
	}
	return Result{Source: code, Path: out}, nil
}

// Placeholder is shown in place of a diagram that failed to render.
func Placeholder(err error) string {
	if err == nil {
		return "⚠ error rendering diagram"
	}
	return "⚠ error rendering diagram: " + err.Error()
}

func sourceKey(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:8])
}

func firstStatement(code string) string {
	for _, line := range strings.Split(code, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "%%") {
			continue
		}
		return line
	}
	return ""
}

func firstWord(code string) string {
	f := strings.Fields(firstStatement(code))
	if len(f) == 0 {
		return ""
	}
	return f[0]
}

func lastLine(s string) string {
	lines := strings.Split(s, "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
