package hashline

import "testing"

func TestHashStable(t *testing.T) {
	a := Hash(2, "bbb")
	b := Hash(2, "bbb")
	if a != b {
		t.Errorf("hash not stable: %q != %q", a, b)
	}
	if len(a) != 2 {
		t.Errorf("hash length = %d, want 2", len(a))
	}
}

func TestHashDependsOnLineOnlyWhenSymbolOnly(t *testing.T) {
	a1 := Hash(1, "!!!")
	a2 := Hash(2, "!!!")
	if a1 == a2 {
		t.Error("symbol-only lines at different line numbers should hash differently")
	}

	b1 := Hash(1, "abc")
	b2 := Hash(2, "abc")
	if b1 != b2 {
		t.Error("alphanumeric lines should hash the same regardless of line number")
	}
}

func TestHashIgnoresWhitespaceAmount(t *testing.T) {
	a := Hash(1, "foo bar")
	b := Hash(1, "foo   bar\t")
	if a != b {
		t.Errorf("whitespace amount should not affect hash: %q != %q", a, b)
	}
}

func TestFormatHashlinesEmpty(t *testing.T) {
	got := FormatHashlines("", 1)
	want := "1#" + Hash(1, "") + ":"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFormatHashlinesMultipleLines(t *testing.T) {
	got := FormatHashlines("aaa\nbbb\nccc", 1)
	want := "1#" + Hash(1, "aaa") + ":aaa\n" +
		"2#" + Hash(2, "bbb") + ":bbb\n" +
		"3#" + Hash(3, "ccc") + ":ccc"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
