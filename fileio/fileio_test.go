package fileio

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRoundTripNoBOMNoCR(t *testing.T) {
	raw := []byte("line1\nline2\nline3")
	s := Parse(raw)
	if s.BOM {
		t.Error("unexpected BOM")
	}
	if s.EOL != LF {
		t.Errorf("EOL = %v, want LF", s.EOL)
	}
	got := Render(s, s.Lines)
	if string(got) != string(raw) {
		t.Errorf("round-trip mismatch: got %q, want %q", got, raw)
	}
}

func TestCRLFPreservation(t *testing.T) {
	raw := []byte("line1\r\nline2\r\nline3")
	s := Parse(raw)
	if s.EOL != CRLF {
		t.Fatalf("EOL = %v, want CRLF", s.EOL)
	}
	lines := append([]string{}, s.Lines...)
	lines[1] = "replaced"
	got := Render(s, lines)
	want := "line1\r\nreplaced\r\nline3"
	if string(got) != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBOMPreservation(t *testing.T) {
	raw := append(append([]byte{}, bomBytes...), []byte("hello\nworld")...)
	s := Parse(raw)
	if !s.BOM {
		t.Fatal("expected BOM to be detected")
	}
	got := Render(s, s.Lines)
	if !bytesHasPrefix(got, bomBytes) {
		t.Error("expected rendered output to retain BOM")
	}
}

func bytesHasPrefix(b, prefix []byte) bool {
	if len(b) < len(prefix) {
		return false
	}
	for i := range prefix {
		if b[i] != prefix[i] {
			return false
		}
	}
	return true
}

func TestReadTooLarge(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.txt")
	if err := os.WriteFile(path, make([]byte, 100), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Read(path, 10)
	if err == nil {
		t.Fatal("expected TooLarge error")
	}
}

func TestReadNotRegularFile(t *testing.T) {
	dir := t.TempDir()
	_, err := Read(dir, DefaultReadLimit())
	if err == nil {
		t.Fatal("expected error reading a directory")
	}
}

func TestWriteAtomicCreatesParents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a", "b", "c.txt")
	s := &Snapshot{}
	if err := Write(path, s, []string{"hello"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello" {
		t.Errorf("got %q, want %q", got, "hello")
	}
}

func DefaultReadLimit() int64 { return 10 * 1024 * 1024 }
