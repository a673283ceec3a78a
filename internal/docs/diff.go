package docs

import (
	"fmt"
	"strings"

	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

// contextLines is how many unchanged lines are kept around each change
const contextLines = 2

// elided stands in for a trimmed run of unchanged lines
const elided = "\x00"

// Diff renders a line-oriented diff between the current and the generated
// document. Unchanged runs are trimmed to a little context.
func (r *Result) Diff() string {
	if !r.Changed() {
		return ""
	}

	dmp := diffpatch.New()
	a, b, lines := dmp.DiffLinesToChars(r.Before, r.After)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out strings.Builder
	fmt.Fprintf(&out, "--- %s\n+++ %s (generated)\n", r.Path, r.Path)
	for i, d := range diffs {
		text := splitLines(d.Text)
		switch d.Type {
		case diffpatch.DiffDelete:
			writePrefixed(&out, "-", text)
		case diffpatch.DiffInsert:
			writePrefixed(&out, "+", text)
		case diffpatch.DiffEqual:
			writePrefixed(&out, " ", trimContext(text, i == 0, i == len(diffs)-1))
		}
	}
	return out.String()
}

func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return []string{""}
	}
	return strings.Split(s, "\n")
}

func trimContext(lines []string, first, last bool) []string {
	if len(lines) <= 2*contextLines {
		return lines
	}
	var kept []string
	if !first {
		kept = append(kept, lines[:contextLines]...)
	}
	kept = append(kept, elided)
	if !last {
		kept = append(kept, lines[len(lines)-contextLines:]...)
	}
	return kept
}

func writePrefixed(out *strings.Builder, prefix string, lines []string) {
	for _, line := range lines {
		if line == elided {
			out.WriteString("...\n")
			continue
		}
		out.WriteString(prefix)
		out.WriteString(line)
		out.WriteString("\n")
	}
}
