package tool

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/tools"

	"github.com/plankit/plankit/schema"
)

// FromLangChain wraps a langchaingo tool as a declarative Tool. LangChain
// tools take a single string input, so the wrapped schema is a one-property
// object with a required "input" string.
func FromLangChain(t tools.Tool) Tool {
	return Tool{
		Name:        t.Name(),
		Description: t.Description(),
		ParamsSchema: schema.Object(map[string]*schema.Schema{
			"input": schema.String("The input query for the tool"),
		}, "input"),
		Action: func(ctx context.Context, params map[string]any) (string, error) {
			input, _ := params["input"].(string)
			return t.Call(ctx, input)
		},
	}
}

// FromLangChainAll wraps a slice of langchaingo tools.
func FromLangChainAll(ts []tools.Tool) []Tool {
	out := make([]Tool, 0, len(ts))
	for _, t := range ts {
		out = append(out, FromLangChain(t))
	}
	return out
}

// lcAdapter exposes a declarative Tool as a langchaingo tools.Tool.
// The string input is passed through as the "input" parameter.
type lcAdapter struct {
	tool Tool
}

// ToLangChain adapts a Tool for APIs that expect langchaingo tools.
func ToLangChain(t Tool) tools.Tool {
	return &lcAdapter{tool: t}
}

func (a *lcAdapter) Name() string        { return a.tool.Name }
func (a *lcAdapter) Description() string { return a.tool.Description }

func (a *lcAdapter) Call(ctx context.Context, input string) (string, error) {
	if a.tool.Action == nil {
		return "", fmt.Errorf("tool %s has no action", a.tool.Name)
	}
	return a.tool.Action(ctx, map[string]any{"input": input})
}
