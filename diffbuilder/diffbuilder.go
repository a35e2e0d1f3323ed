// Package diffbuilder produces the unified diff text and first-changed-line
// number that every edit engine attaches to its result.
package diffbuilder

import (
	"fmt"
	"strings"

	"github.com/pkg/diff"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Result is what every edit engine hands back alongside its new content.
type Result struct {
	// Unified is a unified diff of old vs new, with a 3-line context
	// radius.
	Unified string
	// FirstChangedLine is the 1-based line number of the first line that
	// differs between old and new, or 0 if old and new are identical.
	FirstChangedLine int
}

// Build computes a Result for the transition from oldContent to newContent.
// path is used purely as the label in the unified diff header.
func Build(path, oldContent, newContent string) Result {
	return Result{
		Unified:          unified(path, oldContent, newContent),
		FirstChangedLine: firstChangedLine(oldContent, newContent),
	}
}

func unified(path, oldContent, newContent string) string {
	if oldContent == newContent {
		return ""
	}
	var buf strings.Builder
	if err := diff.Text(path, path, oldContent, newContent, &buf); err != nil {
		return fmt.Sprintf("(diff generation failed: %v)\n", err)
	}
	return buf.String()
}

// firstChangedLine finds the 1-based line number of the first line that
// differs between oldContent and newContent, using a line-granular diff so
// that a pure insertion/deletion near the top of the file is reported
// correctly rather than as "everything after byte N changed".
func firstChangedLine(oldContent, newContent string) int {
	if oldContent == newContent {
		return 0
	}
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(oldContent, newContent)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)

	lineNum := 1
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			lineNum += countLines(d.Text)
		case diffmatchpatch.DiffDelete, diffmatchpatch.DiffInsert:
			return lineNum
		}
	}
	return lineNum
}

// countLines counts the newline-terminated lines in s. DiffLinesToChars
// always hands whole lines (including their trailing "\n") to DiffMain, so
// a non-empty chunk's line count is just its newline count, with one more
// line if the chunk doesn't end in a newline.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}
