package model

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/plankit/plankit/log"
	"github.com/plankit/plankit/schema"
	"github.com/plankit/plankit/tool"
)

// LangChainAdapter exposes any langchaingo llms.Model as an Adapter.
// ExecuteWithTools drives the model's function-calling protocol in a
// round-trip loop: tool calls are executed locally and their results fed
// back until the model answers with plain content.
type LangChainAdapter struct {
	model         llms.Model
	supportsTools bool
	maxToolRounds int
	logger        log.Logger
}

var _ Adapter = (*LangChainAdapter)(nil)

type LangChainOption func(*LangChainAdapter)

// WithLangChainNativeTools toggles the native tool-calling path. Models
// without function-calling support should set this to false so the engine
// goes straight to planned execution.
func WithLangChainNativeTools(supported bool) LangChainOption {
	return func(a *LangChainAdapter) {
		a.supportsTools = supported
	}
}

// WithLangChainMaxToolRounds caps the native round-trip loop.
func WithLangChainMaxToolRounds(n int) LangChainOption {
	return func(a *LangChainAdapter) {
		if n > 0 {
			a.maxToolRounds = n
		}
	}
}

// WithLangChainLogger sets the adapter logger.
func WithLangChainLogger(logger log.Logger) LangChainOption {
	return func(a *LangChainAdapter) {
		a.logger = logger
	}
}

// NewLangChainAdapter wraps a langchaingo model.
func NewLangChainAdapter(m llms.Model, opts ...LangChainOption) *LangChainAdapter {
	a := &LangChainAdapter{
		model:         m,
		supportsTools: true,
		maxToolRounds: 10,
		logger:        &log.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SupportsNativeTools reports whether the wrapped model does function calling.
func (a *LangChainAdapter) SupportsNativeTools() bool {
	return a.supportsTools
}

// Complete generates a single text completion.
func (a *LangChainAdapter) Complete(ctx context.Context, prompt string) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, a.model, prompt)
}

// ExecuteWithTools runs the native tool-calling loop.
func (a *LangChainAdapter) ExecuteWithTools(ctx context.Context, prompt string, tools []tool.Tool) (*NativeResult, error) {
	byName := make(map[string]tool.Tool, len(tools))
	toolDefs := make([]llms.Tool, 0, len(tools))
	for _, t := range tools {
		byName[t.Name] = t
		toolDefs = append(toolDefs, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  schemaAsMap(t.ParamsSchema),
			},
		})
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	result := &NativeResult{}

	for round := 0; round < a.maxToolRounds; round++ {
		resp, err := a.model.GenerateContent(ctx, messages, llms.WithTools(toolDefs))
		if err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("empty response from model")
		}
		choice := resp.Choices[0]

		if len(choice.ToolCalls) == 0 {
			result.Content = choice.Content
			result.Success = true
			return result, nil
		}

		aiMsg := llms.MessageContent{Role: llms.ChatMessageTypeAI}
		if choice.Content != "" {
			aiMsg.Parts = append(aiMsg.Parts, llms.TextPart(choice.Content))
		}
		for _, tc := range choice.ToolCalls {
			aiMsg.Parts = append(aiMsg.Parts, tc)
		}
		messages = append(messages, aiMsg)

		for _, tc := range choice.ToolCalls {
			callResult := a.invokeTool(ctx, byName, tc.FunctionCall.Name, tc.FunctionCall.Arguments)
			result.ToolCalls = append(result.ToolCalls, ToolCallRecord{
				Name:      tc.FunctionCall.Name,
				Arguments: tc.FunctionCall.Arguments,
				Result:    callResult,
			})
			messages = append(messages, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{
					llms.ToolCallResponse{
						ToolCallID: tc.ID,
						Name:       tc.FunctionCall.Name,
						Content:    callResult,
					},
				},
			})
		}
	}

	result.Errors = append(result.Errors, fmt.Sprintf("tool round limit (%d) reached", a.maxToolRounds))
	return result, nil
}

func (a *LangChainAdapter) invokeTool(ctx context.Context, byName map[string]tool.Tool, name, arguments string) string {
	t, ok := byName[name]
	if !ok {
		a.logger.Warn("model requested unknown tool %s", name)
		return fmt.Sprintf("Error: tool not found: %s", name)
	}

	var params map[string]any
	if err := json.Unmarshal([]byte(arguments), &params); err != nil {
		params = map[string]any{"input": arguments}
	}

	out, err := t.Action(ctx, params)
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}
	return out
}

// schemaAsMap converts a declarative schema into the generic map form the
// langchaingo function definition expects.
func schemaAsMap(s *schema.Schema) map[string]any {
	if s == nil {
		return map[string]any{"type": "object"}
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return map[string]any{"type": "object"}
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return map[string]any{"type": "object"}
	}
	return m
}
