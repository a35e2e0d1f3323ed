// Package anchor implements AnchorEditor: the fuzzy-anchored single-region
// text replacement that backs the "edit" tool, plus the supplemental
// view/undo_edit operations layered on top of it.
package anchor

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"editcore.dev/diffbuilder"
	"editcore.dev/fileio"
	"editcore.dev/fuzzy"
	"editcore.dev/pathguard"
)

// NeedleNotFoundError is returned when old_text matches nowhere in the
// file, at any normalization stage.
type NeedleNotFoundError struct{ Path string }

func (e *NeedleNotFoundError) Error() string {
	return fmt.Sprintf("%s: old_text not found in file", e.Path)
}

// NeedleAmbiguousError is returned when old_text matches more than once at
// whichever normalization stage first produced a match.
type NeedleAmbiguousError struct {
	Path  string
	Count int
}

func (e *NeedleAmbiguousError) Error() string {
	return fmt.Sprintf("%d occurrences of old_text found in %s; replacement must be unique", e.Count, e.Path)
}

// NoChangeError is returned when applying the replacement would leave the
// file's content byte-identical.
type NoChangeError struct{ Path string }

func (e *NoChangeError) Error() string {
	return fmt.Sprintf("%s: new_text produces no change", e.Path)
}

// NotRegularFileError is returned when the target is a directory, device,
// or other non-regular file.
type NotRegularFileError struct{ Path string }

func (e *NotRegularFileError) Error() string {
	return fmt.Sprintf("%s: not a regular file", e.Path)
}

// FileNotFoundError is returned when an operation that requires an
// existing file (str_replace, insert, a str_replace's Replace) is given a
// path that doesn't exist.
type FileNotFoundError struct{ Path string }

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("%s: file not found", e.Path)
}

// FileExistsError is returned when Create is given a path that already
// exists.
type FileExistsError struct{ Path string }

func (e *FileExistsError) Error() string {
	return fmt.Sprintf("%s: file already exists", e.Path)
}

// Result is AnchorEditor's successful output.
type Result struct {
	Summary string
	Diff    diffbuilder.Result
}

// Editor applies anchor-based edits against a sandboxed filesystem view,
// and remembers the pre-edit content of every file it has successfully
// written in this process so a caller can request Undo.
type Editor struct {
	Guard       *pathguard.Guard
	MaxFileSize int64

	mu      *sync.Mutex
	history map[string][]string
}

// NewEditor returns an Editor rooted at guard, enforcing maxFileSize on
// every read.
func NewEditor(guard *pathguard.Guard, maxFileSize int64) *Editor {
	return &Editor{Guard: guard, MaxFileSize: maxFileSize, mu: &sync.Mutex{}, history: make(map[string][]string)}
}

// WithGuard returns an Editor identical to e but resolving paths through
// guard instead, sharing e's undo history and its lock. Tool calls that
// name a working directory different from e's own use this to honor it
// for a single call without losing history tracked under e.
func (e *Editor) WithGuard(guard *pathguard.Guard) *Editor {
	return &Editor{Guard: guard, MaxFileSize: e.MaxFileSize, mu: e.mu, history: e.history}
}

// Replace performs the AnchorEditor "edit" operation: locate oldText in
// path's content via the fuzzy cascade and rewrite it to newText.
func (e *Editor) Replace(path, oldText, newText string) (*Result, error) {
	resolved, err := e.Guard.Resolve(path, true)
	if err != nil {
		return nil, err
	}

	snap, err := fileio.Read(resolved, e.MaxFileSize)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &FileNotFoundError{Path: path}
		}
		if errors.Is(err, fileio.ErrNotRegularFile) {
			return nil, &NotRegularFileError{Path: path}
		}
		return nil, err
	}

	before := snap.Content()
	match, err := fuzzy.Find(before, oldText)
	if err != nil {
		switch fe := err.(type) {
		case *fuzzy.NotFoundError:
			return nil, &NeedleNotFoundError{Path: path}
		case *fuzzy.AmbiguousError:
			return nil, &NeedleAmbiguousError{Path: path, Count: fe.Count}
		default:
			return nil, err
		}
	}

	normalized := match.NormalizedHaystack
	after := normalized[:match.Start] + newText + normalized[match.Start+match.Length:]
	if after == before {
		return nil, &NoChangeError{Path: path}
	}

	e.recordHistory(resolved, before)

	newLines := strings.Split(after, "\n")
	if err := fileio.Write(resolved, snap, newLines); err != nil {
		return nil, err
	}

	diff := diffbuilder.Build(path, before, after)
	return &Result{
		Summary: fmt.Sprintf("edited %s", path),
		Diff:    diff,
	}, nil
}

// recordHistory remembers content as the pre-edit snapshot for resolved,
// for a later Undo.
func (e *Editor) recordHistory(resolved, content string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history[resolved] = append(e.history[resolved], content)
}

// Create writes a brand-new file; it is an error if the file already
// exists.
func (e *Editor) Create(path, content string) (*Result, error) {
	resolved, err := e.Guard.Resolve(path, true)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(resolved); err == nil {
		return nil, &FileExistsError{Path: path}
	}
	if err := fileio.WriteBytes(resolved, []byte(content)); err != nil {
		return nil, err
	}
	e.recordHistory(resolved, "")
	diff := diffbuilder.Build(path, "", content)
	return &Result{Summary: fmt.Sprintf("created %s", path), Diff: diff}, nil
}

// Insert splices newText in as new lines immediately after line
// insertLine (0 inserts before the first line).
func (e *Editor) Insert(path string, insertLine int, newText string) (*Result, error) {
	resolved, err := e.Guard.Resolve(path, true)
	if err != nil {
		return nil, err
	}
	snap, err := fileio.Read(resolved, e.MaxFileSize)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &FileNotFoundError{Path: path}
		}
		if errors.Is(err, fileio.ErrNotRegularFile) {
			return nil, &NotRegularFileError{Path: path}
		}
		return nil, err
	}
	if insertLine < 0 || insertLine > len(snap.Lines) {
		return nil, fmt.Errorf("%s: insert_line %d out of range [0, %d]", path, insertLine, len(snap.Lines))
	}

	before := snap.Content()
	e.recordHistory(resolved, before)

	inserted := strings.Split(newText, "\n")
	newLines := make([]string, 0, len(snap.Lines)+len(inserted))
	newLines = append(newLines, snap.Lines[:insertLine]...)
	newLines = append(newLines, inserted...)
	newLines = append(newLines, snap.Lines[insertLine:]...)

	if err := fileio.Write(resolved, snap, newLines); err != nil {
		return nil, err
	}
	after := strings.Join(newLines, "\n")
	diff := diffbuilder.Build(path, before, after)
	return &Result{Summary: fmt.Sprintf("inserted into %s", path), Diff: diff}, nil
}

// Undo pops the most recent recorded pre-edit content for path and writes
// it back through fileio.Write, re-applying the file's current BOM and line
// ending (plain LF with no BOM if the file can no longer be read).
func (e *Editor) Undo(path string) (*Result, error) {
	resolved, err := e.Guard.Resolve(path, true)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	hist := e.history[resolved]
	if len(hist) == 0 {
		e.mu.Unlock()
		return nil, fmt.Errorf("%s: no edit history to undo", path)
	}
	prev := hist[len(hist)-1]
	e.history[resolved] = hist[:len(hist)-1]
	e.mu.Unlock()

	snap, err := fileio.Read(resolved, e.MaxFileSize)
	var current string
	if err == nil {
		current = snap.Content()
	} else {
		snap = &fileio.Snapshot{}
	}

	if err := fileio.Write(resolved, snap, strings.Split(prev, "\n")); err != nil {
		return nil, err
	}
	diff := diffbuilder.Build(path, current, prev)
	return &Result{Summary: fmt.Sprintf("undid last edit to %s", path), Diff: diff}, nil
}

// View reads path (file) or lists it (directory) for the caller to decide
// what old_text or hunk context to send next. It never mutates anything.
func (e *Editor) View(path string, viewRange []int) (string, error) {
	resolved, err := e.Guard.Resolve(path, true)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		if viewRange != nil {
			return "", fmt.Errorf("view_range is not allowed when path is a directory")
		}
		return listDirectory(resolved)
	}

	snap, err := fileio.Read(resolved, e.MaxFileSize)
	if err != nil {
		return "", err
	}
	lines := snap.Lines
	start := 1
	if viewRange != nil {
		if len(viewRange) != 2 {
			return "", fmt.Errorf("view_range must have exactly 2 elements")
		}
		first, last := viewRange[0], viewRange[1]
		if first < 1 || first > len(lines) {
			return "", fmt.Errorf("view_range start %d out of range [1, %d]", first, len(lines))
		}
		if last == -1 {
			last = len(lines)
		}
		if last < first || last > len(lines) {
			return "", fmt.Errorf("view_range end %d out of range [%d, %d]", last, first, len(lines))
		}
		lines = lines[first-1 : last]
		start = first
	}
	return numberLines(lines, start), nil
}

func numberLines(lines []string, start int) string {
	var b strings.Builder
	for i, l := range lines {
		fmt.Fprintf(&b, "%6d\t%s\n", start+i, l)
	}
	return b.String()
}

func listDirectory(path string) (string, error) {
	var b strings.Builder
	entries, err := os.ReadDir(path)
	if err != nil {
		return "", err
	}
	for _, ent := range entries {
		if strings.HasPrefix(ent.Name(), ".") {
			continue
		}
		fmt.Fprintf(&b, "%s\n", ent.Name())
		if ent.IsDir() {
			nested, err := os.ReadDir(fmt.Sprintf("%s/%s", path, ent.Name()))
			if err != nil {
				continue
			}
			for _, n := range nested {
				if strings.HasPrefix(n.Name(), ".") {
					continue
				}
				fmt.Fprintf(&b, "  %s/%s\n", ent.Name(), n.Name())
			}
		}
	}
	return b.String(), nil
}
