package pathguard

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveTraversalDenied(t *testing.T) {
	cwd := t.TempDir()
	g := New(cwd, "", Flags{})
	_, err := g.Resolve("../escape.txt", true)
	if err == nil {
		t.Fatal("expected traversal to be denied")
	}
	if got := err.Error(); !strings.Contains(got, "Path traversal not allowed") {
		t.Errorf("error message = %q, want it to contain %q", got, "Path traversal not allowed")
	}
	perr, ok := err.(*Error)
	if !ok || perr.Kind != KindTraversalDenied {
		t.Errorf("expected KindTraversalDenied, got %#v", err)
	}
}

func TestResolveAllowPathTraversal(t *testing.T) {
	cwd := t.TempDir()
	g := New(cwd, "", Flags{AllowPathTraversal: true})
	got, err := g.Resolve("../escape.txt", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := filepath.Clean(filepath.Join(cwd, "..", "escape.txt"))
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResolveWithinCwd(t *testing.T) {
	cwd := t.TempDir()
	g := New(cwd, "", Flags{})
	got, err := g.Resolve("sub/file.txt", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := filepath.Join(cwd, "sub", "file.txt")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResolveEmpty(t *testing.T) {
	g := New(t.TempDir(), "", Flags{})
	if _, err := g.Resolve("", true); err == nil {
		t.Fatal("expected empty path to be rejected")
	}
}

func TestResolveNullByte(t *testing.T) {
	g := New(t.TempDir(), "", Flags{})
	_, err := g.Resolve("foo\x00bar", true)
	if err == nil {
		t.Fatal("expected NUL byte to be rejected")
	}
	if perr, ok := err.(*Error); !ok || perr.Kind != KindNullByte {
		t.Errorf("expected KindNullByte, got %#v", err)
	}
}

func TestResolveEmptyComponent(t *testing.T) {
	g := New(t.TempDir(), "", Flags{})
	_, err := g.Resolve("foo//bar", true)
	if err == nil {
		t.Fatal("expected empty component to be rejected")
	}
}

func TestResolveTooLong(t *testing.T) {
	g := New(t.TempDir(), "", Flags{})
	long := make([]byte, MaxPathLen+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err := g.Resolve(string(long), true)
	if err == nil {
		t.Fatal("expected overlong path to be rejected")
	}
}

func TestResolveMemoryRedirect(t *testing.T) {
	cwd := t.TempDir()
	ws := t.TempDir()
	g := New(cwd, ws, Flags{})

	got, err := g.Resolve("MEMORY.md", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := filepath.Join(ws, "MEMORY.md"); got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	got, err = g.Resolve("memory/notes.md", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := filepath.Join(ws, "memory", "notes.md"); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResolveMemoryEscapeHatch(t *testing.T) {
	cwd := t.TempDir()
	ws := t.TempDir()
	g := New(cwd, ws, Flags{})

	got, err := g.Resolve("./memory/notes.md", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := filepath.Join(cwd, "memory", "notes.md"); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResolveTildeTraversalDenied(t *testing.T) {
	cwd := t.TempDir()
	home := t.TempDir()
	t.Setenv("HOME", home)

	g := New(cwd, "", Flags{})
	_, err := g.Resolve("~/../../etc/passwd", true)
	if err == nil {
		t.Fatal("expected tilde-expanded traversal to be denied")
	}
	perr, ok := err.(*Error)
	if !ok || perr.Kind != KindTraversalDenied {
		t.Errorf("expected KindTraversalDenied, got %#v", err)
	}
}

func TestResolveTildeWithinHomeStillOutsideRoot(t *testing.T) {
	cwd := t.TempDir()
	home := t.TempDir()
	t.Setenv("HOME", home)

	g := New(cwd, "", Flags{})
	if _, err := g.Resolve("~/notes.txt", true); err == nil {
		t.Fatal("expected a tilde path outside cwd to be denied without AllowPathTraversal")
	}

	g2 := New(cwd, "", Flags{AllowPathTraversal: true})
	got, err := g2.Resolve("~/notes.txt", true)
	if err != nil {
		t.Fatalf("unexpected error with AllowPathTraversal: %v", err)
	}
	if want := filepath.Join(home, "notes.txt"); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResolveSymlinkDenied(t *testing.T) {
	cwd := t.TempDir()
	target := filepath.Join(cwd, "real.txt")
	if err := os.WriteFile(target, []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(cwd, "link.txt")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	g := New(cwd, "", Flags{})
	_, err := g.Resolve("link.txt", true)
	if err == nil {
		t.Fatal("expected symlink to be denied")
	}

	g2 := New(cwd, "", Flags{AllowSymlinks: true})
	if _, err := g2.Resolve("link.txt", true); err != nil {
		t.Errorf("unexpected error with AllowSymlinks: %v", err)
	}
}
