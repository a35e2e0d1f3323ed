package claudetool

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"editcore.dev/diffbuilder"
	"editcore.dev/fileio"
	"editcore.dev/hashline"
	"editcore.dev/llm"
	"editcore.dev/pathguard"
	"editcore.dev/skribe"
)

const (
	HashlineEditName        = "hashline_edit"
	HashlineEditDescription = `
Apply a batch of line edits to a file, addressed by hash-anchored tags
(` + "`<line>#<hash>`" + `) rather than bare line numbers, so a stale edit against
content that changed since it was last read is caught rather than silently
misapplied.

Read the file first with a hashline-tagged view to get current tags. Each
edit is one of:
  {"op": "replace", "pos": "<line>#<hash>", "end": "<line>#<hash>" (optional), "lines": [...]}
  {"op": "append", "pos": "<line>#<hash>" (optional, omit for end of file), "lines": [...]}
  {"op": "prepend", "pos": "<line>#<hash>" (optional, omit for start of file), "lines": [...]}
  {"op": "replaceText", "old_text": "...", "new_text": "...", "all": false}

If any anchor's hash no longer matches the file's current content, the
call fails with every mismatch reported together, plus a remap table the
caller can use to retry blindly.
`
	HashlineEditInputSchema = `
{
  "type": "object",
  "properties": {
    "path": {"type": "string"},
    "autocorrect": {"type": "boolean", "description": "Enable autocorrect passes (indentation restore, boundary echo strip, line reflow undo). Default false."},
    "edits": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "op": {"type": "string", "enum": ["replace", "append", "prepend", "replaceText"]},
          "pos": {"type": "string"},
          "end": {"type": "string"},
          "lines": {"type": "array", "items": {"type": "string"}},
          "old_text": {"type": "string"},
          "new_text": {"type": "string"},
          "all": {"type": "boolean"}
        },
        "required": ["op"]
      }
    }
  },
  "required": ["path", "edits"]
}
`
)

type hashlineEditEntry struct {
	Op      string   `json:"op"`
	Pos     string   `json:"pos,omitempty"`
	End     string   `json:"end,omitempty"`
	Lines   []string `json:"lines,omitempty"`
	OldText string   `json:"old_text,omitempty"`
	NewText string   `json:"new_text,omitempty"`
	All     bool     `json:"all,omitempty"`
}

type hashlineEditInput struct {
	Path        string              `json:"path"`
	Autocorrect bool                `json:"autocorrect,omitempty"`
	Edits       []hashlineEditEntry `json:"edits"`
}

// HashlineEditTool exposes HashlineEngine as an llm.Tool.
type HashlineEditTool struct {
	Guard       *pathguard.Guard
	MaxFileSize int64
}

func (h *HashlineEditTool) Tool() *llm.Tool {
	return &llm.Tool{
		Name:        HashlineEditName,
		Description: HashlineEditDescription,
		InputSchema: llm.MustSchema(HashlineEditInputSchema),
		Run:         h.Run,
	}
}

// decodeEdit converts one wire-format entry into a hashline.Edit,
// returning hashline.BadEditError on an unknown op, and hashline.ParseTag's
// error (ErrInvalidLineReference or ErrLineNumberMustBeGE1) on a malformed
// anchor.
func decodeEdit(e hashlineEditEntry) (hashline.Edit, error) {
	var out hashline.Edit
	switch e.Op {
	case "replace":
		out.Op = hashline.OpReplace
	case "append":
		out.Op = hashline.OpAppend
	case "prepend":
		out.Op = hashline.OpPrepend
	case "replaceText":
		out.Op = hashline.OpReplaceText
		out.OldText = e.OldText
		out.NewText = e.NewText
		out.All = e.All
		return out, nil
	default:
		return out, &hashline.BadEditError{Reason: fmt.Sprintf("unknown op %q", e.Op)}
	}

	if e.Pos != "" {
		a, err := parseAnchor(e.Pos)
		if err != nil {
			return out, err
		}
		out.Pos = a
	}
	if e.End != "" {
		a, err := parseAnchor(e.End)
		if err != nil {
			return out, err
		}
		out.End = a
	}
	out.Lines = e.Lines
	return out, nil
}

func parseAnchor(s string) (*hashline.Anchor, error) {
	line, hash, err := hashline.ParseTag(s)
	if err != nil {
		return nil, err
	}
	return &hashline.Anchor{Line: line, Hash: hash}, nil
}

func (h *HashlineEditTool) Run(ctx context.Context, input json.RawMessage) llm.ToolOut {
	var in hashlineEditInput
	if err := json.Unmarshal(input, &in); err != nil {
		return llm.ErrorfToolOut("failed to parse hashline_edit input: %v", err)
	}

	ctx = skribe.ContextWithAttr(ctx, slog.String("path", in.Path), slog.Int("num_edits", len(in.Edits)))
	slog.DebugContext(ctx, "hashline_edit")

	guard := h.Guard.WithCwd(WorkingDir(ctx))
	resolved, err := guard.Resolve(in.Path, true)
	if err != nil {
		return llm.ErrorToolOut(err)
	}

	snap, err := fileio.Read(resolved, h.MaxFileSize)
	if err != nil {
		return llm.ErrorToolOut(err)
	}

	edits := make([]hashline.Edit, 0, len(in.Edits))
	for _, e := range in.Edits {
		decoded, err := decodeEdit(e)
		if err != nil {
			return llm.ErrorToolOut(err)
		}
		edits = append(edits, decoded)
	}

	if ctx.Err() != nil {
		return llm.ErrorToolOut(&OperationAbortedError{})
	}

	before := snap.Content()
	result, err := hashline.Apply(snap.Lines, edits, in.Autocorrect)
	if err != nil {
		if report, ok := err.(*hashline.MismatchReport); ok {
			slog.WarnContext(ctx, "hashline_edit stale anchors", slog.Int("num_mismatches", len(report.Mismatches)))
			return llm.ToolOut{Error: report, Display: report}
		}
		return llm.ErrorToolOut(err)
	}

	if ctx.Err() != nil {
		return llm.ErrorToolOut(&OperationAbortedError{})
	}

	if err := fileio.Write(resolved, snap, result.Content); err != nil {
		return llm.ErrorToolOut(err)
	}

	after := strings.Join(result.Content, "\n")
	diff := diffbuilder.Build(in.Path, before, after)

	summary := fmt.Sprintf("applied %d edit(s) to %s", len(edits)-len(result.NoopEdits), in.Path)
	return llm.ToolOut{
		LLMContent: llm.TextContent(summary),
		Display: struct {
			Diff              diffbuilder.Result
			NoopEdits         int
			DeduplicatedEdits int
		}{diff, len(result.NoopEdits), len(result.DeduplicatedEdits)},
	}
}
