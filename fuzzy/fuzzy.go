// Package fuzzy locates a needle inside a haystack under a cascade of
// increasingly forgiving normalizations, used by the anchor-based text
// editor and the hashline engine's textual fallback.
package fuzzy

import (
	"fmt"
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// Exactness describes which normalization stage produced a match.
type Exactness int

const (
	Exact Exactness = iota
	Whitespace
	Unicode
	MultiSpace
)

func (e Exactness) String() string {
	switch e {
	case Exact:
		return "Exact"
	case Whitespace:
		return "Whitespace"
	case Unicode:
		return "Unicode"
	case MultiSpace:
		return "MultiSpace"
	default:
		return "Unknown"
	}
}

// Match reports where a needle was found. Start and Length are byte
// offsets into NormalizedHaystack, the haystack as it stood after the
// winning stage's transformation — not necessarily the caller's original
// haystack once a normalization stage has altered it (e.g. collapsed
// whitespace or folded punctuation). A caller splicing a replacement in
// must splice into NormalizedHaystack, not the original.
type Match struct {
	Start              int
	Length             int
	Exactness          Exactness
	NormalizedHaystack string
}

// NotFoundError is returned when no stage found any occurrence.
type NotFoundError struct{}

func (*NotFoundError) Error() string { return "no occurrences found" }

// AmbiguousError is returned when a stage found more than one occurrence;
// per-stage fallthrough stops here, it is never retried at a later stage.
type AmbiguousError struct {
	Stage Exactness
	Count int
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("%d occurrences found at %s stage; match must be unique", e.Count, e.Stage)
}

type stage struct {
	exactness Exactness
	normalize func(string) string
}

// Find runs haystack/needle through the normalization cascade, stopping at
// the first stage that yields exactly one occurrence. If a stage yields
// more than one occurrence, that is a hard failure: later stages are never
// tried.
func Find(haystack, needle string) (Match, error) {
	stages := []stage{
		{Exact, identity},
		{Whitespace, normalizeLineEndings},
		{Whitespace, stripBOM},
		{Whitespace, stripTrailingWhitespace},
		{Unicode, foldPunctuation},
		{MultiSpace, collapseSpaces},
	}

	h, n := haystack, needle
	for _, st := range stages {
		h = st.normalize(h)
		n = st.normalize(n)
		count := strings.Count(h, n)
		switch {
		case count == 1:
			idx := strings.Index(h, n)
			return Match{Start: idx, Length: len(n), Exactness: st.exactness, NormalizedHaystack: h}, nil
		case count > 1:
			return Match{}, &AmbiguousError{Stage: st.exactness, Count: count}
		}
	}
	return Match{}, &NotFoundError{}
}

func identity(s string) string { return s }

func normalizeLineEndings(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

func stripBOM(s string) string {
	return strings.TrimPrefix(s, "﻿")
}

func stripTrailingWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	return strings.Join(lines, "\n")
}

var punctuationFold = runes.Map(foldPunctuationRune)

func foldPunctuationRune(r rune) rune {
	switch r {
	case '’', '‘':
		return '\''
	case '“', '”':
		return '"'
	case '–', '—', '−':
		return '-'
	case ' ':
		return ' '
	default:
		return r
	}
}

func foldPunctuation(s string) string {
	out, _, err := transform.String(punctuationFold, s)
	if err != nil {
		// runes.Map never fails on well-formed input; fall back to the
		// untransformed string rather than losing the match attempt.
		return s
	}
	return out
}

func collapseSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := false
	for _, r := range s {
		if r == ' ' {
			if lastSpace {
				continue
			}
			lastSpace = true
		} else {
			lastSpace = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
