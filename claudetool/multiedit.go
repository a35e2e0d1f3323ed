package claudetool

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"editcore.dev/anchor"
	"editcore.dev/diffbuilder"
	"editcore.dev/llm"
	"editcore.dev/skribe"
)

// OperationAbortedError is returned when ctx is cancelled at a suspension
// point: between MultiEditor's edits (Index is the edit about to run), or
// before or after HashlineEditTool applies its batch (Index is 0).
type OperationAbortedError struct{ Index int }

func (e *OperationAbortedError) Error() string {
	return fmt.Sprintf("operation aborted before edit %d", e.Index)
}

const (
	MultiEditName        = "multiedit"
	MultiEditDescription = `
Apply a sequence of anchor-based text replacements to a single file.

Each edit is a {old_text, new_text} pair applied in order against the
file's growing content: a later edit's old_text may be text that an
earlier edit in the same call just introduced. If any edit fails (its
old_text is not found, or is ambiguous), the call stops immediately and
reports which edit failed; every edit that already succeeded remains
applied to the file on disk. There is no rollback.
`
	MultiEditInputSchema = `
{
  "type": "object",
  "properties": {
    "path": {"type": "string", "description": "File to edit."},
    "edits": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "old_text": {"type": "string"},
          "new_text": {"type": "string"}
        },
        "required": ["old_text", "new_text"]
      }
    }
  },
  "required": ["path", "edits"]
}
`
)

type multiEditEntry struct {
	OldText string `json:"old_text"`
	NewText string `json:"new_text"`
}

type multiEditInput struct {
	Path  string           `json:"path"`
	Edits []multiEditEntry `json:"edits"`
}

// MultiEditTool exposes MultiEditor as an llm.Tool.
type MultiEditTool struct {
	Editor *anchor.Editor
}

func (m *MultiEditTool) Tool() *llm.Tool {
	return &llm.Tool{
		Name:        MultiEditName,
		Description: MultiEditDescription,
		InputSchema: llm.MustSchema(MultiEditInputSchema),
		Run:         m.Run,
	}
}

func (m *MultiEditTool) Run(ctx context.Context, input json.RawMessage) llm.ToolOut {
	var in multiEditInput
	if err := json.Unmarshal(input, &in); err != nil {
		return llm.ErrorfToolOut("failed to parse multiedit input: %v", err)
	}

	ctx = skribe.ContextWithAttr(ctx, slog.String("path", in.Path), slog.Int("num_edits", len(in.Edits)))
	slog.DebugContext(ctx, "multiedit")

	editor := m.Editor
	if wd := WorkingDir(ctx); wd != "" {
		editor = editor.WithGuard(editor.Guard.WithCwd(wd))
	}

	var results []diffbuilder.Result
	for i, e := range in.Edits {
		if ctx.Err() != nil {
			return llm.ErrorToolOut(&OperationAbortedError{Index: i})
		}
		res, err := editor.Replace(in.Path, e.OldText, e.NewText)
		if err != nil {
			slog.ErrorContext(ctx, "multiedit failed", slog.Int("index", i), slog.String("err", err.Error()))
			return llm.ToolOut{
				Error:   fmt.Errorf("edit %d of %d: %w", i+1, len(in.Edits), err),
				Display: results,
			}
		}
		results = append(results, res.Diff)
	}

	summary := fmt.Sprintf("applied %d edits to %s", len(in.Edits), in.Path)
	return llm.ToolOut{
		LLMContent: llm.TextContent(summary),
		Display:    results,
	}
}
