// Package hashline implements the hash-anchored line editor: lines are
// addressed by a `<line>#<hash>` tag rather than by line number alone, so a
// caller's edit instructions can be validated against drift in the file
// since it was last read.
package hashline

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Alphabet is the 16-symbol code used for hash nibbles, chosen to avoid
// characters easily confused with line numbers or punctuation.
const Alphabet = "ZPMQVRWSNKTXJBYH"

// Hash computes the 2-character tag for a line's content. line is mixed
// into the hash only when the normalized text has no ASCII alphanumeric
// character, so that purely symbolic or empty lines (which would otherwise
// collide constantly) still get distinct tags.
func Hash(line int, text string) string {
	normalized := stripASCIIWhitespace(text)
	input := normalized
	if !hasAlphanumeric(normalized) {
		input = fmt.Sprintf("#%d#%s", line, normalized)
	}
	sum := xxhash.Sum64String(input)
	low := byte(sum)
	hi, lo := low>>4, low&0x0F
	return string([]byte{Alphabet[hi], Alphabet[lo]})
}

// stripASCIIWhitespace removes all ASCII whitespace (space, tab, CR, LF,
// vertical tab, form feed) from s. This is a removal, not a collapse: two
// lines differing only in amount of whitespace hash identically.
func stripASCIIWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case ' ', '\t', '\r', '\n', '\v', '\f':
			continue
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func hasAlphanumeric(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
			return true
		}
	}
	return false
}

// Tag formats the `<line>#<hash>` anchor string for a line.
func Tag(line int, hash string) string {
	return fmt.Sprintf("%d#%s", line, hash)
}

// FormatRow renders one `<line>#<hash>:<text>` row.
func FormatRow(line int, text string) string {
	return fmt.Sprintf("%s:%s", Tag(line, Hash(line, text)), text)
}

// FormatHashlines renders every line of content (split on LF) as a tagged
// row, starting numbering at startLine. Empty content still produces one
// row, for an empty first line.
func FormatHashlines(content string, startLine int) string {
	lines := strings.Split(content, "\n")
	rows := make([]string, len(lines))
	for i, l := range lines {
		rows[i] = FormatRow(startLine+i, l)
	}
	return strings.Join(rows, "\n")
}
