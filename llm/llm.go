// Package llm defines the tool-call contract shared by every file-editing
// engine in this repository: the shape a tool's Run function is invoked
// with, and the shape its result takes on the way back to whatever is
// driving the conversation.
//
// This package intentionally does not know how to talk to any LLM
// provider. It only defines the boundary types; provider integration is
// out of scope for this module.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// MustSchema validates that schema is a valid JSON schema and returns it as
// a json.RawMessage. It panics if the schema is invalid. The schema must
// have at least type="object" and a properties key.
func MustSchema(schema string) json.RawMessage {
	schema = strings.TrimSpace(schema)
	bytes := []byte(schema)
	var obj map[string]any
	if err := json.Unmarshal(bytes, &obj); err != nil {
		panic("failed to parse JSON schema: " + schema + ": " + err.Error())
	}
	if typ, ok := obj["type"]; !ok || typ != "object" {
		panic("JSON schema must have type='object': " + schema)
	}
	if _, ok := obj["properties"]; !ok {
		panic("JSON schema must have 'properties' key: " + schema)
	}
	return json.RawMessage(bytes)
}

func EmptySchema() json.RawMessage {
	return MustSchema(`{"type": "object", "properties": {}}`)
}

// Tool represents a tool exposed by this module to whatever drives the
// agent loop.
type Tool struct {
	Name        string
	Description string
	InputSchema json.RawMessage

	// Run is called with the tool's input, as JSON, in compliance with
	// InputSchema. Run functions may be called concurrently with each
	// other and themselves, but never concurrently with another Run call
	// against the *same path* from the *same caller*.
	Run func(ctx context.Context, input json.RawMessage) ToolOut `json:"-"`
}

// ContentType distinguishes the few content shapes a tool result can take.
type ContentType int

const (
	ContentTypeText ContentType = iota
	ContentTypeToolResult
)

// Content is a single piece of tool output.
type Content struct {
	Type ContentType
	Text string

	// ToolResult holds nested content for a tool_result block.
	ToolResult []Content
	ToolError  bool
}

func StringContent(s string) Content {
	return Content{Type: ContentTypeText, Text: s}
}

// TextContent creates the most common tool result shape: a single text
// block.
func TextContent(text string) []Content {
	return []Content{{Type: ContentTypeText, Text: text}}
}

// ToolOut represents the output of a tool run.
type ToolOut struct {
	// LLMContent is sent back to whatever is driving the conversation.
	// May be nil on error.
	LLMContent []Content
	// Display is content meant for a human to look at (e.g. a unified
	// diff); its shape is coordinated with whatever UI renders it, and it
	// is not interpreted by this module.
	Display any
	// Error is the error, if any, that occurred during the tool run. If
	// non-nil, LLMContent is ignored and the error's message is what
	// reaches the conversation.
	Error error
}

func ErrorToolOut(err error) ToolOut {
	if err == nil {
		panic("ErrorToolOut called with nil error")
	}
	return ToolOut{Error: err}
}

func ErrorfToolOut(format string, args ...any) ToolOut {
	return ErrorToolOut(fmt.Errorf(format, args...))
}

// ContentsAttr returns contents as a slog.Attr, for logging.
func ContentsAttr(contents []Content) slog.Attr {
	var contentAttrs []any
	for i, content := range contents {
		var attrs []any
		switch content.Type {
		case ContentTypeText:
			attrs = append(attrs, slog.String("text", content.Text))
		case ContentTypeToolResult:
			attrs = append(attrs, slog.Any("tool_result", content.ToolResult))
			attrs = append(attrs, slog.Bool("tool_error", content.ToolError))
		default:
			attrs = append(attrs, slog.Any("content", content))
		}
		contentAttrs = append(contentAttrs, slog.Group(fmt.Sprintf("content_%d", i), attrs...))
	}
	return slog.Group("contents", contentAttrs...)
}
