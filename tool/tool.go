package tool

import (
	"context"
	"fmt"
	"sync"

	"github.com/plankit/plankit/schema"
)

// Tool is a callable capability exposed to the execution core. Tools are
// declarative: parameters and results are described by schemas, the action
// is an opaque function. The core only reads a Tool, never mutates it.
type Tool struct {
	// Name uniquely identifies the tool inside a registry.
	Name string

	// Description tells the planning model what the tool does.
	Description string

	// ParamsSchema describes the action's parameter object.
	ParamsSchema *schema.Schema

	// ResultSchema optionally describes the action's result when the
	// result string is a JSON document.
	ResultSchema *schema.Schema

	// Action executes the tool. It may return an error; the executor
	// records it against the step without failing the rest of the plan.
	Action func(ctx context.Context, params map[string]any) (string, error)
}

// Registry is a named catalog of tools. Reads are concurrent-safe.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

// NewRegistry creates a registry pre-populated with the given tools.
// Duplicate names panic; registries are built at startup.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool)}
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a tool to the registry.
func (r *Registry) Register(t Tool) error {
	if t.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if t.Action == nil {
		return fmt.Errorf("tool %s has no action", t.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[t.Name]; exists {
		return fmt.Errorf("tool %s already registered", t.Name)
	}
	r.tools[t.Name] = t
	r.order = append(r.order, t.Name)
	return nil
}

// Get looks up a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[name]
	return t, ok
}

// List returns the tools in registration order.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}
