package hashline

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidLineReference is returned by ParseTag when s doesn't match the
// `<line>#<hash>` shape at all.
type ErrInvalidLineReference struct{ Input string }

func (e *ErrInvalidLineReference) Error() string {
	return fmt.Sprintf("invalid line reference: %q", e.Input)
}

// ErrLineNumberMustBeGE1 is returned by ParseTag when the line number
// parses but is less than 1.
type ErrLineNumberMustBeGE1 struct{ Line int }

func (e *ErrLineNumberMustBeGE1) Error() string {
	return fmt.Sprintf("line number must be >= 1, got %d", e.Line)
}

var tagPattern = regexp.MustCompile(`^(-?\d+)#([` + regexp.QuoteMeta(Alphabet) + `]{2})$`)

// ParseTag strips leading `>>>`, `+`, `-` markers and whitespace from s,
// then parses the remaining `<line>#<hash>` anchor.
func ParseTag(s string) (line int, hash string, err error) {
	trimmed := strings.TrimLeft(s, " \t")
	trimmed = strings.TrimPrefix(trimmed, ">>>")
	trimmed = strings.TrimLeft(trimmed, " \t")
	if len(trimmed) > 0 && (trimmed[0] == '+' || trimmed[0] == '-') {
		trimmed = trimmed[1:]
	}
	trimmed = strings.TrimSpace(trimmed)

	m := tagPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return 0, "", &ErrInvalidLineReference{Input: s}
	}
	n, convErr := strconv.Atoi(m[1])
	if convErr != nil {
		return 0, "", &ErrInvalidLineReference{Input: s}
	}
	if n < 1 {
		return 0, "", &ErrLineNumberMustBeGE1{Line: n}
	}
	return n, m[2], nil
}
