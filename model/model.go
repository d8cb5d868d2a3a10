package model

import (
	"context"

	"github.com/plankit/plankit/tool"
)

// ToolCallRecord captures one native tool invocation made by an adapter.
type ToolCallRecord struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
	Result    string `json:"result"`
}

// NativeResult is the outcome of a native tool-calling round trip.
// Success=false signals the engine to fall back to planned execution,
// the same way a returned error does.
type NativeResult struct {
	Content   string           `json:"content"`
	ToolCalls []ToolCallRecord `json:"toolCalls,omitempty"`
	Success   bool             `json:"success"`
	Errors    []string         `json:"errors,omitempty"`
}

// Adapter is the single opaque capability the execution core depends on.
// Complete serves plan creation and response humanization; ExecuteWithTools
// serves the native execution strategy. Providers are wired behind this
// seam, the core never sees protocol details.
type Adapter interface {
	// Complete generates a text completion for the prompt. The returned
	// text may itself be machine-parseable (JSON, possibly fenced).
	Complete(ctx context.Context, prompt string) (string, error)

	// ExecuteWithTools runs the prompt with the provider's native
	// tool-calling protocol against the given catalog.
	ExecuteWithTools(ctx context.Context, prompt string, tools []tool.Tool) (*NativeResult, error)

	// SupportsNativeTools reports whether ExecuteWithTools is usable.
	SupportsNativeTools() bool
}
