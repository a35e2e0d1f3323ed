// Package pathguard resolves a caller-supplied path against a working
// directory and sandboxes it: traversal, null bytes, empty path segments,
// oversize paths, and symlinks are all rejected by default, and the
// memory/ and MEMORY.md prefixes are redirected to a separate workspace
// root.
package pathguard

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MaxPathLen is the largest raw path, in bytes (UTF-8 code units),
// PathGuard will accept.
const MaxPathLen = 4096

// Kind identifies the category of a Error.
type Kind int

const (
	KindEmpty Kind = iota
	KindNullByte
	KindEmptyComponent
	KindTooLong
	KindTraversalDenied
	KindSymlinkDenied
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "Empty"
	case KindNullByte:
		return "NullByte"
	case KindEmptyComponent:
		return "EmptyComponent"
	case KindTooLong:
		return "TooLong"
	case KindTraversalDenied:
		return "TraversalDenied"
	case KindSymlinkDenied:
		return "SymlinkDenied"
	default:
		return "Unknown"
	}
}

// Error is returned by Resolve when a path is rejected.
type Error struct {
	Kind Kind
	Path string
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

func rejectf(kind Kind, path, format string, args ...any) error {
	return &Error{Kind: kind, Path: path, Msg: fmt.Sprintf(format, args...)}
}

// Flags controls which sandbox checks Resolve relaxes.
type Flags struct {
	AllowPathTraversal bool
	AllowSymlinks      bool
}

// Guard resolves paths against a fixed cwd and workspace root.
type Guard struct {
	Cwd           string
	WorkspaceRoot string
	Flags         Flags
}

// New returns a Guard rooted at cwd, redirecting memory/ paths under
// workspaceRoot (which may be empty if memory redirection is unused).
func New(cwd, workspaceRoot string, flags Flags) *Guard {
	return &Guard{Cwd: cwd, WorkspaceRoot: workspaceRoot, Flags: flags}
}

// WithCwd returns a Guard identical to g but rooted at cwd, for a single
// tool call that names a different working directory than g was
// constructed with. An empty cwd returns g unchanged.
func (g *Guard) WithCwd(cwd string) *Guard {
	if cwd == "" {
		return g
	}
	cp := *g
	cp.Cwd = cwd
	return &cp
}

// memoryRedirect reports whether raw is an unescaped memory/ or MEMORY.md
// path, and if so returns the path to re-root it under the workspace.
func memoryRedirect(raw string) (rest string, redirect bool) {
	if strings.HasPrefix(raw, "./") {
		return "", false
	}
	if raw == "MEMORY.md" {
		return "MEMORY.md", true
	}
	if strings.HasPrefix(raw, "memory/") {
		return raw, true
	}
	return "", false
}

// Resolve validates and canonicalizes raw, returning the absolute path to
// use for I/O. memoryAware selects whether the ./ escape hatch and memory
// redirection apply (only read/write/edit tools honor it; pass true for
// those).
func (g *Guard) Resolve(raw string, memoryAware bool) (string, error) {
	if raw == "" {
		return "", rejectf(KindEmpty, raw, "path must not be empty")
	}
	if len(raw) > MaxPathLen {
		return "", rejectf(KindTooLong, raw, "path exceeds maximum length of %d", MaxPathLen)
	}
	if strings.ContainsRune(raw, 0) {
		return "", rejectf(KindNullByte, raw, "path contains a NUL byte")
	}
	if hasEmptyComponent(raw) {
		return "", rejectf(KindEmptyComponent, raw, "path contains an empty path segment")
	}

	root := g.Cwd
	wasAbsoluteCaller := filepath.IsAbs(raw)

	if memoryAware {
		if rest, redirect := memoryRedirect(raw); redirect {
			raw = rest
			root = g.WorkspaceRoot
		} else if stripped, ok := strings.CutPrefix(raw, "./"); ok {
			raw = stripped
		}
	}

	if strings.HasPrefix(raw, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			raw = filepath.Join(home, strings.TrimPrefix(raw, "~"))
		}
	}

	var canonical string
	if filepath.IsAbs(raw) {
		canonical = filepath.Clean(raw)
	} else {
		canonical = filepath.Clean(filepath.Join(root, raw))
	}

	if !g.Flags.AllowPathTraversal && !wasAbsoluteCaller {
		if !withinRoot(canonical, root) {
			return "", rejectf(KindTraversalDenied, raw, "Path traversal not allowed: %q escapes %q", raw, root)
		}
	}

	if !g.Flags.AllowSymlinks {
		if err := rejectSymlinks(canonical, root); err != nil {
			return "", err
		}
	}

	return canonical, nil
}

func hasEmptyComponent(p string) bool {
	// A leading "/" or a Windows drive prefix is not an empty component;
	// only interior "//" sequences are.
	return strings.Contains(p, "//")
}

func withinRoot(canonical, root string) bool {
	root = filepath.Clean(root)
	if canonical == root {
		return true
	}
	rel, err := filepath.Rel(root, canonical)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// rejectSymlinks walks every ancestor of canonical up to (and including)
// root, failing if any component within the sandbox is a symlink.
func rejectSymlinks(canonical, root string) error {
	root = filepath.Clean(root)
	cur := canonical
	for {
		info, err := os.Lstat(cur)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				// Not-yet-existing components (e.g. a file about to be
				// created) can't be symlinks; keep walking ancestors.
			} else {
				return nil //nolint:nilerr // a stat failure other than
				// not-exist isn't this guard's concern; let the caller's
				// own I/O surface the real error.
			}
		} else if info.Mode()&os.ModeSymlink != 0 {
			return rejectf(KindSymlinkDenied, canonical, "symlink not allowed: %q", cur)
		}
		if cur == root || cur == filepath.Dir(cur) {
			return nil
		}
		cur = filepath.Dir(cur)
	}
}
