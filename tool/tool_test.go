package tool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plankit/plankit/schema"
)

func echoTool(name string) Tool {
	return Tool{
		Name:        name,
		Description: "echoes its input",
		ParamsSchema: schema.Object(map[string]*schema.Schema{
			"input": schema.String(""),
		}, "input"),
		Action: func(ctx context.Context, params map[string]any) (string, error) {
			input, _ := params["input"].(string)
			return input, nil
		},
	}
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry(echoTool("echo"))

	got, ok := r.Get("echo")
	require.True(t, ok)
	assert.Equal(t, "echo", got.Name)

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRegistryDuplicateName(t *testing.T) {
	r := NewRegistry(echoTool("echo"))
	err := r.Register(echoTool("echo"))
	assert.Error(t, err)
}

func TestRegistryRejectsInvalidTools(t *testing.T) {
	r := NewRegistry()

	err := r.Register(Tool{Description: "no name"})
	assert.Error(t, err)

	err = r.Register(Tool{Name: "no_action"})
	assert.Error(t, err)
}

func TestRegistryListPreservesOrder(t *testing.T) {
	r := NewRegistry(echoTool("a"), echoTool("b"), echoTool("c"))

	list := r.List()
	require.Len(t, list, 3)
	assert.Equal(t, "a", list[0].Name)
	assert.Equal(t, "b", list[1].Name)
	assert.Equal(t, "c", list[2].Name)
	assert.Equal(t, 3, r.Len())
}
