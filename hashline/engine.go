package hashline

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Op identifies the kind of a hashline edit.
type Op int

const (
	OpReplace Op = iota
	OpAppend
	OpPrepend
	OpReplaceText
)

// Anchor is a parsed `<line>#<hash>` reference.
type Anchor struct {
	Line int
	Hash string
}

func (a Anchor) String() string { return Tag(a.Line, a.Hash) }

// Edit is one instruction in a batch hashline apply call. Pos/End are nil
// for an EOF Append or a BOF Prepend. OldText/NewText/All are used only by
// OpReplaceText.
type Edit struct {
	Op       Op
	Pos      *Anchor
	End      *Anchor
	Lines    []string
	OldText  string
	NewText  string
	All      bool
}

// BadEditError reports a structural invariant violation in an Edit, caught
// during validation before any file I/O.
type BadEditError struct {
	Reason string
}

func (e *BadEditError) Error() string { return "bad edit: " + e.Reason }

// LineOutOfRangeError reports an anchor referencing a line past the end of
// the file.
type LineOutOfRangeError struct {
	Line, Max int
}

func (e *LineOutOfRangeError) Error() string {
	return fmt.Sprintf("line %d is out of range (file has %d lines)", e.Line, e.Max)
}

// Mismatch describes one anchor whose stored hash no longer matches the
// file's current content for that line.
type Mismatch struct {
	Anchor      Anchor
	ActualHash  string
	ContextText string
}

// MismatchReport is returned when Apply's validation pass finds any stale
// anchor. It carries enough information for the caller to retry blindly.
type MismatchReport struct {
	Mismatches []Mismatch
	Remaps     map[string]string
	Message    string
}

func (r *MismatchReport) Error() string { return r.Message }

// Result is the output of a successful Apply.
type Result struct {
	Content           []string
	FirstChangedLine  int // 1-based, 0 if nothing changed
	NoopEdits         []Edit
	DeduplicatedEdits []Edit
}

// Apply runs the full batch pipeline: validate, dedupe, sort, then for each
// edit autocorrect (when enabled), noop-detect, and apply. lines is the
// file's current content; it is not mutated. autocorrect enables the
// optional heuristic passes.
func Apply(lines []string, edits []Edit, autocorrect bool) (*Result, error) {
	if err := validateStructure(edits); err != nil {
		return nil, err
	}
	for _, e := range edits {
		for _, a := range []*Anchor{e.Pos, e.End} {
			if a != nil && (a.Line < 1 || a.Line > len(lines)) {
				return nil, &LineOutOfRangeError{Line: a.Line, Max: len(lines)}
			}
		}
	}
	if report := validateAnchors(lines, edits); report != nil {
		return nil, report
	}

	kept, deduped := dedupe(edits)
	sortEdits(kept)
	kept = resolveAnchorCollisions(kept)

	working := append([]string(nil), lines...)
	var noop []Edit

	for _, e := range kept {
		if e.Op == OpReplaceText {
			working = applyReplaceText(working, e)
			continue
		}

		start, end := editSpan(e, len(working))
		newLines := append([]string(nil), e.Lines...)

		if autocorrect {
			newLines = restoreIndentation(working, start, end, newLines)
			newLines = stripBoundaryEcho(working, start, end, newLines)
			newLines = undoLineReflow(working, start, end, newLines)
		}

		if isNoop(working, start, end, newLines) {
			noop = append(noop, e)
			continue
		}

		working = spliceLines(working, start, end, newLines)
	}

	firstChanged := firstDifferingLine(lines, working)

	return &Result{
		Content:           working,
		FirstChangedLine:  firstChanged,
		NoopEdits:         noop,
		DeduplicatedEdits: deduped,
	}, nil
}

// validateStructure enforces the per-edit invariants that don't require
// the file's content: Replace requires pos.line <= end.line; non-EOF/BOF
// Append/Prepend require a non-empty payload. Every violation is reported:
// a single one as its *BadEditError, several joined with errors.Join.
func validateStructure(edits []Edit) error {
	var errs []error
	for _, e := range edits {
		switch e.Op {
		case OpReplace:
			if e.End != nil && e.Pos != nil && e.Pos.Line > e.End.Line {
				errs = append(errs, &BadEditError{Reason: fmt.Sprintf("replace range pos.line (%d) > end.line (%d)", e.Pos.Line, e.End.Line)})
			}
		case OpAppend, OpPrepend:
			if e.Pos != nil && len(e.Lines) == 0 {
				errs = append(errs, &BadEditError{Reason: "append/prepend at an anchor requires a non-empty payload"})
			}
		case OpReplaceText:
			// no structural invariant beyond having old_text, enforced at
			// the JSON-decoding boundary.
		default:
			errs = append(errs, &BadEditError{Reason: fmt.Sprintf("unknown op %v", e.Op)})
		}
	}
	if len(errs) == 1 {
		return errs[0]
	}
	return errors.Join(errs...)
}

// validateAnchors checks every anchor against the file's actual content,
// accumulating every mismatch rather than failing on the first.
func validateAnchors(lines []string, edits []Edit) *MismatchReport {
	var mismatches []Mismatch
	seen := map[Anchor]bool{}

	check := func(a *Anchor) {
		if a == nil || seen[*a] {
			return
		}
		seen[*a] = true
		if a.Line < 1 || a.Line > len(lines) {
			mismatches = append(mismatches, Mismatch{Anchor: *a, ActualHash: "", ContextText: fmt.Sprintf("line %d does not exist", a.Line)})
			return
		}
		actual := Hash(a.Line, lines[a.Line-1])
		if actual != a.Hash {
			mismatches = append(mismatches, Mismatch{Anchor: *a, ActualHash: actual})
		}
	}

	for _, e := range edits {
		check(e.Pos)
		check(e.End)
	}

	if len(mismatches) == 0 {
		return nil
	}

	remaps := map[string]string{}
	var ctx strings.Builder
	for i, m := range mismatches {
		if i > 0 {
			ctx.WriteString("\n…\n")
		}
		ctx.WriteString(renderContext(lines, m.Anchor.Line))
		if m.ActualHash != "" {
			remaps[m.Anchor.String()] = Tag(m.Anchor.Line, m.ActualHash)
		}
	}

	noun := "line has"
	if len(mismatches) != 1 {
		noun = "lines have"
	}
	msg := fmt.Sprintf("%d %s changed since last read\n%s", len(mismatches), noun, ctx.String())

	return &MismatchReport{Mismatches: mismatches, Remaps: remaps, Message: msg}
}

// renderContext renders the ±2 line window around line, 1-based, marking
// the target line with ">>>".
func renderContext(lines []string, line int) string {
	lo := line - 2
	if lo < 1 {
		lo = 1
	}
	hi := line + 2
	if hi > len(lines) {
		hi = len(lines)
	}
	var b strings.Builder
	for n := lo; n <= hi; n++ {
		if n > lo {
			b.WriteByte('\n')
		}
		marker := "   "
		text := ""
		if n >= 1 && n <= len(lines) {
			text = lines[n-1]
		}
		if n == line {
			marker = ">>>"
		}
		fmt.Fprintf(&b, "%s %d: %s", marker, n, text)
	}
	return b.String()
}

// dedupe drops edits that target the same anchor with an identical
// payload, keeping the first occurrence. Edits at the same anchor with
// different payloads are left alone here; resolveAnchorCollisions, run
// after sorting, is what makes the last one in sort order win.
func dedupe(edits []Edit) (kept []Edit, dropped []Edit) {
	type key struct {
		anchor  string
		payload string
	}
	seen := map[key]bool{}
	for _, e := range edits {
		k := key{anchor: anchorKey(e), payload: strings.Join(e.Lines, "\x00") + "\x01" + e.OldText + "\x01" + e.NewText}
		if seen[k] {
			dropped = append(dropped, e)
			continue
		}
		seen[k] = true
		kept = append(kept, e)
	}
	return kept, dropped
}

// resolveAnchorCollisions keeps only the last edit, in sort order, among
// any run of edits that target the same anchor with different payloads.
// editSpan addresses a Replace/Append/Prepend edit by its anchor's
// original line number; it has no way to re-resolve that span against
// whatever an earlier same-anchor edit in the same batch already spliced,
// so splicing both would corrupt the first edit's just-inserted content
// instead of cleanly overwriting it. Keeping only the last one produces
// the same final content last-write-wins implies, without that hazard.
// OpReplaceText edits are exempt: they have no anchor and never collide
// this way (anchorKey maps every one of them to the same empty key).
func resolveAnchorCollisions(edits []Edit) []Edit {
	resolved := make([]Edit, 0, len(edits))
	for i, e := range edits {
		if e.Op != OpReplaceText && i+1 < len(edits) && anchorKey(edits[i+1]) == anchorKey(e) {
			continue
		}
		resolved = append(resolved, e)
	}
	return resolved
}

func anchorKey(e Edit) string {
	var b strings.Builder
	if e.Pos != nil {
		b.WriteString(e.Pos.String())
	}
	b.WriteByte('-')
	if e.End != nil {
		b.WriteString(e.End.String())
	}
	fmt.Fprintf(&b, "-%d", e.Op)
	return b.String()
}

// sortEdits orders edits descending by effective line position, so that
// applying them front-to-back against a single line vector never shifts
// an earlier edit's target out from under it. At the same line, Append is
// applied before Replace before Prepend: Append's splice point sits just
// after the line, so applying it first never disturbs the lower indices
// Replace and Prepend still need to target.
func sortEdits(edits []Edit) {
	sort.SliceStable(edits, func(i, j int) bool {
		pi, oi := sortKey(edits[i])
		pj, oj := sortKey(edits[j])
		if pi != pj {
			return pi > pj
		}
		return oi > oj
	})
}

// sortKey returns (line position, op rank) such that sorting descending by
// (position, rank) applies edits bottom-to-top, and at equal positions
// applies Append before Replace before Prepend (so earlier, lower-ranked
// ops see the file as it stood before the later ones spliced in).
func sortKey(e Edit) (pos int, opRank int) {
	switch e.Op {
	case OpAppend:
		if e.Pos != nil {
			return e.Pos.Line, 2
		}
		return 1 << 30, 2 // EOF: sorts as last_line + 1, i.e. after everything
	case OpPrepend:
		if e.Pos != nil {
			return e.Pos.Line, 0
		}
		return 0, 0 // BOF
	case OpReplace:
		if e.Pos != nil {
			return e.Pos.Line, 1
		}
		return 0, 1
	case OpReplaceText:
		return -1, 0 // applied separately, position is irrelevant
	default:
		return 0, 0
	}
}

// editSpan returns the 0-based [start, end) half-open range in working
// that e targets.
func editSpan(e Edit, numLines int) (start, end int) {
	switch e.Op {
	case OpReplace:
		if e.Pos == nil {
			return 0, 0
		}
		s := e.Pos.Line - 1
		en := s + 1
		if e.End != nil {
			en = e.End.Line
		}
		return s, en
	case OpAppend:
		if e.Pos == nil {
			return numLines, numLines
		}
		return e.Pos.Line, e.Pos.Line
	case OpPrepend:
		if e.Pos == nil {
			return 0, 0
		}
		return e.Pos.Line - 1, e.Pos.Line - 1
	default:
		return 0, 0
	}
}

func spliceLines(lines []string, start, end int, replacement []string) []string {
	out := make([]string, 0, len(lines)-(end-start)+len(replacement))
	out = append(out, lines[:start]...)
	out = append(out, replacement...)
	out = append(out, lines[end:]...)
	return out
}

func isNoop(lines []string, start, end int, newLines []string) bool {
	if end-start != len(newLines) {
		return false
	}
	for i, l := range newLines {
		if lines[start+i] != l {
			return false
		}
	}
	return true
}

func applyReplaceText(lines []string, e Edit) []string {
	content := strings.Join(lines, "\n")
	if e.All {
		content = strings.ReplaceAll(content, e.OldText, e.NewText)
	} else {
		content = strings.Replace(content, e.OldText, e.NewText, 1)
	}
	return strings.Split(content, "\n")
}

func firstDifferingLine(before, after []string) int {
	n := len(before)
	if len(after) < n {
		n = len(after)
	}
	for i := 0; i < n; i++ {
		if before[i] != after[i] {
			return i + 1
		}
	}
	if len(before) != len(after) {
		return n + 1
	}
	return 0
}

// leadingWhitespace returns the leading run of spaces/tabs of s.
func leadingWhitespace(s string) string {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return s[:i]
}

// restoreIndentation re-prepends the anchor line's leading whitespace to
// the new payload's first line when the caller's payload stripped it. When
// the edit replaces lines (a single line or a range) and the payload has
// more than one line, the payload's last line likewise gets the leading
// whitespace of the last replaced line.
func restoreIndentation(lines []string, start, end int, newLines []string) []string {
	if len(newLines) == 0 || start >= len(lines) {
		return newLines
	}
	out := append([]string(nil), newLines...)
	want := leadingWhitespace(lines[start])
	if want != "" && leadingWhitespace(out[0]) == "" {
		out[0] = want + out[0]
	}
	if end > start && end-1 < len(lines) {
		wantLast := leadingWhitespace(lines[end-1])
		last := len(out) - 1
		if wantLast != "" && last != 0 && leadingWhitespace(out[last]) == "" {
			out[last] = wantLast + out[last]
		}
	}
	return out
}

// stripBoundaryEcho drops the new payload's first line when it duplicates
// the line immediately preceding the edited region, and likewise for the
// last line against the line immediately following, provided the payload
// is strictly larger than the region being replaced (otherwise dropping a
// line would just delete content the caller meant to keep).
func stripBoundaryEcho(lines []string, start, end int, newLines []string) []string {
	if len(newLines) <= end-start {
		return newLines
	}
	out := append([]string(nil), newLines...)
	if start > 0 && len(out) > 0 && out[0] == lines[start-1] {
		out = out[1:]
	}
	if end < len(lines) && len(out) > 0 && out[len(out)-1] == lines[end] {
		out = out[:len(out)-1]
	}
	return out
}

// undoLineReflow collapses a multi-line payload back into the single
// removed line when, ignoring whitespace, they represent the same text
// split across more lines.
func undoLineReflow(lines []string, start, end int, newLines []string) []string {
	if end-start != 1 || len(newLines) <= 1 {
		return newLines
	}
	removed := stripASCIIWhitespace(lines[start])
	combined := stripASCIIWhitespace(strings.Join(newLines, ""))
	if removed == combined {
		return []string{lines[start]}
	}
	return newLines
}
