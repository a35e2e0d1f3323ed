package patch

import "testing"

func TestParseAddDeleteUpdate(t *testing.T) {
	text := `*** Add File: new1.txt
+alpha
*** Update File: existing.txt
@@
-original
+modified
*** Delete File: stale.txt
`
	ops, err := Parse(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ops) != 3 {
		t.Fatalf("expected 3 ops, got %d", len(ops))
	}
	if ops[0].Kind != OpAdd || ops[0].Path != "new1.txt" || len(ops[0].Body) != 1 || ops[0].Body[0] != "alpha" {
		t.Errorf("add op = %+v", ops[0])
	}
	if ops[1].Kind != OpUpdate || ops[1].Path != "existing.txt" || len(ops[1].Hunks) != 1 {
		t.Errorf("update op = %+v", ops[1])
	}
	if ops[2].Kind != OpDelete || ops[2].Path != "stale.txt" {
		t.Errorf("delete op = %+v", ops[2])
	}
}

func TestParseWithEnvelope(t *testing.T) {
	text := `*** Begin Patch
*** Delete File: gone.txt
*** End Patch
`
	ops, err := Parse(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ops) != 1 || ops[0].Kind != OpDelete {
		t.Fatalf("got %+v", ops)
	}
}

func TestParseUpdateWithMoveTo(t *testing.T) {
	text := `*** Update File: old.txt
*** Move to: new.txt
@@
-a
+b
`
	ops, err := Parse(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ops) != 1 || ops[0].MoveTo != "new.txt" {
		t.Fatalf("got %+v", ops)
	}
}

func TestParseUnrecognizedLine(t *testing.T) {
	_, err := Parse("garbage line\n")
	if _, ok := err.(*ParseError); !ok {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestParseUpdateRequiresHunk(t *testing.T) {
	_, err := Parse("*** Update File: x.txt\n")
	if _, ok := err.(*ParseError); !ok {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestHunkOriginalAndResult(t *testing.T) {
	h := Hunk{Lines: []HunkLine{
		{Kind: LineContext, Text: "ctx1"},
		{Kind: LineRemove, Text: "old"},
		{Kind: LineAdd, Text: "new"},
		{Kind: LineContext, Text: "ctx2"},
	}}
	if got := h.Original(); len(got) != 3 || got[0] != "ctx1" || got[1] != "old" || got[2] != "ctx2" {
		t.Errorf("Original() = %v", got)
	}
	if got := h.Result(); len(got) != 3 || got[0] != "ctx1" || got[1] != "new" || got[2] != "ctx2" {
		t.Errorf("Result() = %v", got)
	}
	if h.Additions() != 1 || h.Removals() != 1 {
		t.Errorf("Additions/Removals = %d/%d", h.Additions(), h.Removals())
	}
}

func TestParseEmptyUpdateHunkAccepted(t *testing.T) {
	text := "*** Update File: x.txt\n@@\n ctx\n"
	ops, err := Parse(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ops[0].Hunks) != 1 || ops[0].Hunks[0].Additions() != 0 || ops[0].Hunks[0].Removals() != 0 {
		t.Errorf("got %+v", ops[0].Hunks[0])
	}
}
