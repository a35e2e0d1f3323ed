package diffbuilder

import (
	"strings"
	"testing"
)

func TestBuildIdentical(t *testing.T) {
	r := Build("file.go", "a\nb\nc", "a\nb\nc")
	if r.Unified != "" {
		t.Errorf("expected empty diff, got %q", r.Unified)
	}
	if r.FirstChangedLine != 0 {
		t.Errorf("FirstChangedLine = %d, want 0", r.FirstChangedLine)
	}
}

func TestBuildSingleLineChange(t *testing.T) {
	old := "one\ntwo\nthree\n"
	newContent := "one\nTWO\nthree\n"
	r := Build("file.txt", old, newContent)
	if r.FirstChangedLine != 2 {
		t.Errorf("FirstChangedLine = %d, want 2", r.FirstChangedLine)
	}
	if !strings.Contains(r.Unified, "-two") || !strings.Contains(r.Unified, "+TWO") {
		t.Errorf("unified diff missing expected hunk lines: %q", r.Unified)
	}
}

func TestBuildInsertAtTop(t *testing.T) {
	old := "one\ntwo\nthree\n"
	newContent := "zero\none\ntwo\nthree\n"
	r := Build("file.txt", old, newContent)
	if r.FirstChangedLine != 1 {
		t.Errorf("FirstChangedLine = %d, want 1", r.FirstChangedLine)
	}
}

func TestBuildAppendAtEnd(t *testing.T) {
	old := "one\ntwo\n"
	newContent := "one\ntwo\nthree\n"
	r := Build("file.txt", old, newContent)
	if r.FirstChangedLine != 3 {
		t.Errorf("FirstChangedLine = %d, want 3", r.FirstChangedLine)
	}
}

func TestBuildMultiLineChange(t *testing.T) {
	old := "a\nb\nc\nd\ne\n"
	newContent := "a\nb\nX\nY\ne\n"
	r := Build("file.txt", old, newContent)
	if r.FirstChangedLine != 3 {
		t.Errorf("FirstChangedLine = %d, want 3", r.FirstChangedLine)
	}
}
