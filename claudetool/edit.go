package claudetool

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"editcore.dev/anchor"
	"editcore.dev/llm"
	"editcore.dev/skribe"
)

const (
	EditName        = "edit"
	EditDescription = `
Edit a file by locating old_text and replacing it with new_text, or run one
of the supplemental view/create/insert/undo_edit commands.

old_text is matched against the file with increasing tolerance: first
exactly, then normalizing line endings, BOM, and trailing whitespace, then
folding curly quotes/dashes to ASCII, then collapsing runs of spaces. The
first stage at which old_text matches exactly once wins; if it matches more
than once at that stage the call fails rather than guessing which occurrence
was meant.

Commands:
  str_replace: requires old_text and new_text; replaces the one matched region.
  create:      requires file_text; fails if path already exists.
  insert:      requires insert_line and new_text; splices new_text in as new
               lines immediately after insert_line (0 inserts before line 1).
  view:        reads path (or lists it, if a directory); optionally bounded
               by view_range [start, end] (end -1 means to EOF).
  undo_edit:   reverts path to its content before the most recent edit this
               tool made to it, in this process.
`
	EditInputSchema = `
{
  "type": "object",
  "properties": {
    "command": {"type": "string", "enum": ["str_replace", "create", "insert", "view", "undo_edit"]},
    "path": {"type": "string"},
    "old_text": {"type": "string"},
    "new_text": {"type": "string"},
    "file_text": {"type": "string"},
    "insert_line": {"type": "integer"},
    "view_range": {"type": "array", "items": {"type": "integer"}, "minItems": 2, "maxItems": 2}
  },
  "required": ["command", "path"]
}
`
)

// UnknownCommandError is returned when an edit tool call names a command
// other than the five this tool understands.
type UnknownCommandError struct{ Command string }

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command %q", e.Command)
}

// MissingFieldError is returned when a command's required field is absent.
type MissingFieldError struct {
	Command string
	Field   string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s requires %s", e.Command, e.Field)
}

type editInput struct {
	Command    string  `json:"command"`
	Path       string  `json:"path"`
	OldText    *string `json:"old_text,omitempty"`
	NewText    *string `json:"new_text,omitempty"`
	FileText   *string `json:"file_text,omitempty"`
	InsertLine *int    `json:"insert_line,omitempty"`
	ViewRange  []int   `json:"view_range,omitempty"`
}

// EditTool exposes AnchorEditor, plus its view/create/insert/undo_edit
// supplements, as a single llm.Tool keyed off a command field.
type EditTool struct {
	Editor *anchor.Editor
}

func (t *EditTool) Tool() *llm.Tool {
	return &llm.Tool{
		Name:        EditName,
		Description: EditDescription,
		InputSchema: llm.MustSchema(EditInputSchema),
		Run:         t.Run,
	}
}

func (t *EditTool) Run(ctx context.Context, input json.RawMessage) llm.ToolOut {
	var in editInput
	if err := json.Unmarshal(input, &in); err != nil {
		return llm.ErrorfToolOut("failed to parse edit input: %v", err)
	}
	if ctx.Err() != nil {
		return llm.ErrorToolOut(ctx.Err())
	}

	ctx = skribe.ContextWithAttr(ctx, slog.String("path", in.Path), slog.String("command", in.Command))
	slog.DebugContext(ctx, "edit")

	editor := t.Editor
	if wd := WorkingDir(ctx); wd != "" {
		editor = editor.WithGuard(editor.Guard.WithCwd(wd))
	}

	switch in.Command {
	case "str_replace":
		if in.OldText == nil {
			return llm.ErrorToolOut(&MissingFieldError{Command: in.Command, Field: "old_text"})
		}
		if in.NewText == nil {
			return llm.ErrorToolOut(&MissingFieldError{Command: in.Command, Field: "new_text"})
		}
		res, err := editor.Replace(in.Path, *in.OldText, *in.NewText)
		if err != nil {
			return llm.ErrorToolOut(err)
		}
		return llm.ToolOut{LLMContent: llm.TextContent(res.Summary), Display: res.Diff}

	case "create":
		if in.FileText == nil {
			return llm.ErrorToolOut(&MissingFieldError{Command: in.Command, Field: "file_text"})
		}
		res, err := editor.Create(in.Path, *in.FileText)
		if err != nil {
			return llm.ErrorToolOut(err)
		}
		return llm.ToolOut{LLMContent: llm.TextContent(res.Summary), Display: res.Diff}

	case "insert":
		if in.InsertLine == nil {
			return llm.ErrorToolOut(&MissingFieldError{Command: in.Command, Field: "insert_line"})
		}
		if in.NewText == nil {
			return llm.ErrorToolOut(&MissingFieldError{Command: in.Command, Field: "new_text"})
		}
		res, err := editor.Insert(in.Path, *in.InsertLine, *in.NewText)
		if err != nil {
			return llm.ErrorToolOut(err)
		}
		return llm.ToolOut{LLMContent: llm.TextContent(res.Summary), Display: res.Diff}

	case "view":
		out, err := editor.View(in.Path, in.ViewRange)
		if err != nil {
			return llm.ErrorToolOut(err)
		}
		return llm.ToolOut{LLMContent: llm.TextContent(out)}

	case "undo_edit":
		res, err := editor.Undo(in.Path)
		if err != nil {
			return llm.ErrorToolOut(err)
		}
		return llm.ToolOut{LLMContent: llm.TextContent(res.Summary), Display: res.Diff}

	default:
		return llm.ErrorToolOut(&UnknownCommandError{Command: in.Command})
	}
}
