package patch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"

	"editcore.dev/diffbuilder"
	"editcore.dev/fileio"
	"editcore.dev/pathguard"
)

// FileNotFoundError, FileExistsError, and ContextNotFoundError are the
// planner's fatal error kinds, beyond what pathguard already reports.
type FileNotFoundError struct{ Path string }

func (e *FileNotFoundError) Error() string { return fmt.Sprintf("file not found: %s", e.Path) }

type FileExistsError struct{ Path string }

func (e *FileExistsError) Error() string { return fmt.Sprintf("file already exists: %s", e.Path) }

type ContextNotFoundError struct {
	Path string
	Hunk int
}

func (e *ContextNotFoundError) Error() string {
	return fmt.Sprintf("%s: hunk %d: context not found in file", e.Path, e.Hunk)
}

// resolvedOp pairs a parsed Op with the absolute, sandboxed path(s) it
// will act on.
type resolvedOp struct {
	op         Op
	path       string
	moveToPath string
}

// FileResult summarizes one operation's effect for the caller.
type FileResult struct {
	Path      string
	Kind      OpKind
	MoveTo    string
	Additions int
	Removals  int
	Diff      diffbuilder.Result
}

// Result is PatchPlanner's output for a successful Execute.
type Result struct {
	Files []FileResult
}

// Validate resolves every operation's path(s) against guard and checks
// existence preconditions, running the checks concurrently. It performs
// no filesystem mutation. Every operation is checked even if an earlier
// one fails, so the caller sees every problem with the patch at once; on
// any failure the whole patch is rejected and nothing should be written.
func Validate(ctx context.Context, ops []Op, guard *pathguard.Guard) ([]resolvedOp, error) {
	resolved := make([]resolvedOp, len(ops))
	errs := make([]error, len(ops))

	g, _ := errgroup.WithContext(ctx)
	for i, op := range ops {
		i, op := i, op
		g.Go(func() error {
			r, err := validateOne(op, guard)
			if err != nil {
				errs[i] = err
				return nil
			}
			resolved[i] = r
			return nil
		})
	}
	// g.Wait's own error is always nil here; every failure is routed
	// through errs so a problem in op 3 doesn't stop op 7 from being
	// checked too.
	_ = g.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return resolved, nil
}

func validateOne(op Op, guard *pathguard.Guard) (resolvedOp, error) {
	path, err := guard.Resolve(op.Path, false)
	if err != nil {
		return resolvedOp{}, err
	}
	r := resolvedOp{op: op, path: path}

	switch op.Kind {
	case OpAdd:
		if exists(path) {
			return resolvedOp{}, &FileExistsError{Path: op.Path}
		}
	case OpDelete:
		if !exists(path) {
			return resolvedOp{}, &FileNotFoundError{Path: op.Path}
		}
	case OpUpdate:
		if !exists(path) {
			return resolvedOp{}, &FileNotFoundError{Path: op.Path}
		}
		if op.MoveTo != "" {
			movePath, err := guard.Resolve(op.MoveTo, false)
			if err != nil {
				return resolvedOp{}, err
			}
			r.moveToPath = movePath
		}
	}
	return r, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Execute applies every operation after Validate has already succeeded.
// Hunks within an Update operation are resolved in file order against the
// in-memory content as modified by that operation's previous hunks.
func Execute(resolved []resolvedOp, maxFileSize int64) (*Result, error) {
	res := &Result{}
	for _, r := range resolved {
		fr, err := executeOne(r, maxFileSize)
		if err != nil {
			return nil, err
		}
		res.Files = append(res.Files, fr)
	}
	return res, nil
}

func executeOne(r resolvedOp, maxFileSize int64) (FileResult, error) {
	switch r.op.Kind {
	case OpAdd:
		return executeAdd(r, maxFileSize)
	case OpDelete:
		return executeDelete(r)
	case OpUpdate:
		return executeUpdate(r, maxFileSize)
	default:
		return FileResult{}, fmt.Errorf("unknown operation kind %v", r.op.Kind)
	}
}

func executeAdd(r resolvedOp, maxFileSize int64) (FileResult, error) {
	content := strings.Join(r.op.Body, "\n")
	if len(r.op.Body) > 0 {
		content += "\n"
	}
	if err := fileio.WriteBytes(r.path, []byte(content)); err != nil {
		return FileResult{}, err
	}
	diff := diffbuilder.Build(r.op.Path, "", content)
	return FileResult{Path: r.op.Path, Kind: OpAdd, Additions: len(r.op.Body), Diff: diff}, nil
}

func executeDelete(r resolvedOp) (FileResult, error) {
	if err := os.Remove(r.path); err != nil {
		return FileResult{}, err
	}
	return FileResult{Path: r.op.Path, Kind: OpDelete}, nil
}

func executeUpdate(r resolvedOp, maxFileSize int64) (FileResult, error) {
	snap, err := fileio.Read(r.path, maxFileSize)
	if err != nil {
		return FileResult{}, err
	}
	before := snap.Content()

	working := append([]string(nil), snap.Lines...)
	additions, removals := 0, 0
	for hi, h := range r.op.Hunks {
		orig := h.Original()
		result := h.Result()
		if len(orig) == 0 {
			// A hunk with no context and no removals has nothing to search
			// for. With no added lines either it changes nothing and is
			// skipped; added lines with no context have no position to go
			// to, so that hunk fails like one whose context is missing.
			if len(result) > 0 {
				return FileResult{}, &ContextNotFoundError{Path: r.op.Path, Hunk: hi + 1}
			}
			continue
		}

		start, ok := findFirst(working, orig)
		if !ok {
			return FileResult{}, &ContextNotFoundError{Path: r.op.Path, Hunk: hi + 1}
		}
		working = spliceLines(working, start, start+len(orig), result)
		additions += h.Additions()
		removals += h.Removals()
	}

	writePath := r.path
	writeLogicalPath := r.op.Path
	if r.op.MoveTo != "" {
		writePath = r.moveToPath
		writeLogicalPath = r.op.MoveTo
	}

	if err := fileio.Write(writePath, snap, working); err != nil {
		return FileResult{}, err
	}
	if r.op.MoveTo != "" {
		if err := os.Remove(r.path); err != nil {
			return FileResult{}, err
		}
	}

	after := strings.Join(working, "\n")
	diff := diffbuilder.Build(writeLogicalPath, before, after)
	return FileResult{
		Path:      writeLogicalPath,
		Kind:      OpUpdate,
		MoveTo:    r.op.MoveTo,
		Additions: additions,
		Removals:  removals,
		Diff:      diff,
	}, nil
}

// findFirst returns the 0-based starting index of needle's first
// occurrence as a contiguous subsequence of haystack, using exact
// per-line comparison.
func findFirst(haystack, needle []string) (int, bool) {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return 0, false
	}
	for start := 0; start+len(needle) <= len(haystack); start++ {
		match := true
		for j, want := range needle {
			if haystack[start+j] != want {
				match = false
				break
			}
		}
		if match {
			return start, true
		}
	}
	return 0, false
}

func spliceLines(lines []string, start, end int, replacement []string) []string {
	out := make([]string, 0, len(lines)-(end-start)+len(replacement))
	out = append(out, lines[:start]...)
	out = append(out, replacement...)
	out = append(out, lines[end:]...)
	return out
}
