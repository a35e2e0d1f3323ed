package anchor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"editcore.dev/pathguard"
)

func newTestEditor(t *testing.T) (*Editor, string) {
	t.Helper()
	dir := t.TempDir()
	guard := pathguard.New(dir, "", pathguard.Flags{})
	return NewEditor(guard, 10*1024*1024), dir
}

func TestReplaceWhitespaceTolerance(t *testing.T) {
	e, dir := newTestEditor(t)
	path := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(path, []byte("hello world   \nnext line"), 0o644); err != nil {
		t.Fatal(err)
	}
	res, err := e.Replace("f.txt", "hello world\nnext", "hello universe\nnext")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res == nil {
		t.Fatal("expected a result")
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(got), "hello universe") {
		t.Errorf("got %q", got)
	}
}

func TestReplaceAmbiguous(t *testing.T) {
	e, dir := newTestEditor(t)
	path := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(path, []byte("hello world hello universe"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := e.Replace("f.txt", "hello", "hi")
	ae, ok := err.(*NeedleAmbiguousError)
	if !ok {
		t.Fatalf("expected NeedleAmbiguousError, got %v", err)
	}
	if ae.Count != 2 {
		t.Errorf("Count = %d, want 2", ae.Count)
	}
	if !strings.Contains(ae.Error(), "2 occurrences") || !strings.Contains(ae.Error(), "must be unique") {
		t.Errorf("message %q missing expected phrasing", ae.Error())
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello world hello universe" {
		t.Errorf("file was mutated: %q", got)
	}
}

func TestReplaceNoChange(t *testing.T) {
	e, dir := newTestEditor(t)
	path := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(path, []byte("same"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := e.Replace("f.txt", "same", "same")
	if _, ok := err.(*NoChangeError); !ok {
		t.Fatalf("expected NoChangeError, got %v", err)
	}
}

func TestCreateThenUndo(t *testing.T) {
	e, dir := newTestEditor(t)
	if _, err := e.Create("new.txt", "hello"); err != nil {
		t.Fatalf("create error: %v", err)
	}
	path := filepath.Join(dir, "new.txt")
	got, _ := os.ReadFile(path)
	if string(got) != "hello" {
		t.Fatalf("got %q", got)
	}

	if _, err := e.Replace("new.txt", "hello", "goodbye"); err != nil {
		t.Fatalf("replace error: %v", err)
	}
	got, _ = os.ReadFile(path)
	if string(got) != "goodbye" {
		t.Fatalf("got %q", got)
	}

	if _, err := e.Undo("new.txt"); err != nil {
		t.Fatalf("undo error: %v", err)
	}
	got, _ = os.ReadFile(path)
	if string(got) != "hello" {
		t.Fatalf("after undo got %q, want %q", got, "hello")
	}
}

func TestCreateExistingFails(t *testing.T) {
	e, dir := newTestEditor(t)
	path := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := e.Create("f.txt", "y")
	if _, ok := err.(*FileExistsError); !ok {
		t.Fatalf("expected FileExistsError, got %v", err)
	}
}

func TestInsertAtLine(t *testing.T) {
	e, dir := newTestEditor(t)
	path := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(path, []byte("a\nb\nc"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Insert("f.txt", 1, "X"); err != nil {
		t.Fatalf("insert error: %v", err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "a\nX\nb\nc" {
		t.Fatalf("got %q", got)
	}
}

func TestViewFile(t *testing.T) {
	e, dir := newTestEditor(t)
	if err := os.WriteFile(filepath.Join(dir, "f.txt"), []byte("a\nb\nc"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := e.View("f.txt", nil)
	if err != nil {
		t.Fatalf("view error: %v", err)
	}
	if !strings.Contains(out, "1\ta") || !strings.Contains(out, "3\tc") {
		t.Errorf("got %q", out)
	}
}

func TestViewDirectory(t *testing.T) {
	e, dir := newTestEditor(t)
	if err := os.WriteFile(filepath.Join(dir, "f.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := e.View(".", nil)
	if err != nil {
		t.Fatalf("view error: %v", err)
	}
	if !strings.Contains(out, "f.txt") {
		t.Errorf("got %q", out)
	}
}
