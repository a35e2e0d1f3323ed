package claudetool

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"editcore.dev/llm"
	"editcore.dev/patch"
	"editcore.dev/pathguard"
	"editcore.dev/skribe"
)

const (
	PatchName        = "patch"
	PatchDescription = `
Apply a patch made up of Add/Delete/Update File operations to one or more
files in a single call.

Patch text format:
  *** Begin Patch              (optional envelope)
  *** Add File: path/to/new.go
  +line one
  +line two
  *** Delete File: path/to/old.go
  *** Update File: path/to/existing.go
  *** Move to: path/to/renamed.go   (optional, Update only)
  @@
   context line
  -removed line
  +added line
   context line
  *** End Patch                (optional envelope)

Every operation is validated before anything is written: every path must
resolve inside the working directory, every Add target must not already
exist, every Delete/Update target must exist. If any operation fails
validation, every problem found is reported together and nothing is
written. Within an Update's hunks, each hunk's context/removed lines are
matched against the file's first occurrence of that exact sequence.
After validation, operations are applied one at a time in patch order. A
hunk whose context cannot be found fails its operation and stops the
patch there: that operation's file is left unchanged, but operations
earlier in the patch have already been written and are not rolled back.
`
	PatchInputSchema = `
{
  "type": "object",
  "properties": {
    "patch": {"type": "string", "description": "The patch text, in the Add/Delete/Update File format."}
  },
  "required": ["patch"]
}
`
)

type patchInput struct {
	Patch string `json:"patch"`
}

// PatchTool exposes PatchParser + PatchPlanner as an llm.Tool.
type PatchTool struct {
	Guard       *pathguard.Guard
	MaxFileSize int64
}

func (p *PatchTool) Tool() *llm.Tool {
	return &llm.Tool{
		Name:        PatchName,
		Description: PatchDescription,
		InputSchema: llm.MustSchema(PatchInputSchema),
		Run:         p.Run,
	}
}

func (p *PatchTool) Run(ctx context.Context, input json.RawMessage) llm.ToolOut {
	var in patchInput
	if err := json.Unmarshal(input, &in); err != nil {
		return llm.ErrorfToolOut("failed to parse patch input: %v", err)
	}

	ops, err := patch.Parse(in.Patch)
	if err != nil {
		return llm.ErrorToolOut(err)
	}
	if len(ops) == 0 {
		return llm.ErrorfToolOut("patch contains no operations")
	}

	ctx = skribe.ContextWithAttr(ctx, slog.Int("num_ops", len(ops)))
	slog.DebugContext(ctx, "patch")

	guard := p.Guard.WithCwd(WorkingDir(ctx))
	resolved, err := patch.Validate(ctx, ops, guard)
	if err != nil {
		slog.ErrorContext(ctx, "patch validation failed", slog.String("err", err.Error()))
		return llm.ErrorToolOut(err)
	}
	if ctx.Err() != nil {
		return llm.ErrorToolOut(ctx.Err())
	}

	result, err := patch.Execute(resolved, p.MaxFileSize)
	if err != nil {
		return llm.ErrorToolOut(err)
	}

	summary := fmt.Sprintf("applied %d operation(s)", len(result.Files))
	return llm.ToolOut{LLMContent: llm.TextContent(summary), Display: result.Files}
}
