// Package claudetool wires the AnchorEditor, MultiEditor, HashlineEngine,
// and PatchEngine into the llm.Tool contract: one file per tool, each
// exposing a JSON schema and a Run function.
package claudetool

import (
	"context"
)

type workingDirCtxKeyType string

const workingDirCtxKey workingDirCtxKeyType = "workingDir"

// WithWorkingDir attaches the working directory a tool call should resolve
// relative paths against.
func WithWorkingDir(ctx context.Context, wd string) context.Context {
	return context.WithValue(ctx, workingDirCtxKey, wd)
}

// WorkingDir returns the working directory attached by WithWorkingDir, or
// "" if none was attached (in which case a tool resolves paths against the
// cwd its Guard or Editor was constructed with).
func WorkingDir(ctx context.Context) string {
	wd, _ := ctx.Value(workingDirCtxKey).(string)
	return wd
}
