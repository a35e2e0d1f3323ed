package hashline

import "testing"

func TestFormatterEmitsAllLines(t *testing.T) {
	f := NewFormatter("aaa\nbbb\nccc", 1)
	var got string
	for !f.Done() {
		chunk := f.NextChunk(1, 0)
		if chunk == "" {
			break
		}
		if got != "" {
			got += "\n"
		}
		got += chunk
	}
	want := FormatHashlines("aaa\nbbb\nccc", 1)
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFormatterByteBounded(t *testing.T) {
	f := NewFormatter("aaaaaaaaaa", 1)
	row := FormatRow(1, "aaaaaaaaaa")
	var got string
	for !f.Done() {
		chunk := f.NextChunk(0, 3)
		if chunk == "" {
			break
		}
		got += chunk
	}
	if got != row {
		t.Errorf("got %q, want %q", got, row)
	}
}

func TestFormatterResume(t *testing.T) {
	content := "aaa\nbbb\nccc"
	f1 := NewFormatter(content, 1)
	first := f1.NextChunk(1, 0)

	f2 := NewFormatter(content, 1)
	f2.Skip(2, 0)
	rest := f2.NextChunk(0, 0)

	got := first + "\n" + rest
	want := FormatHashlines(content, 1)
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestStreamParserFeedAndFlush(t *testing.T) {
	p := &StreamParser{}
	lines := p.Feed([]byte("hello wor"))
	if len(lines) != 0 {
		t.Fatalf("expected no complete lines yet, got %v", lines)
	}
	lines = p.Feed([]byte("ld\nsecond\nthir"))
	if len(lines) != 2 || lines[0] != "hello world" || lines[1] != "second" {
		t.Fatalf("got %v", lines)
	}
	if rest := p.Flush(); rest != "thir" {
		t.Errorf("Flush = %q, want %q", rest, "thir")
	}
}
