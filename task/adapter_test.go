package task

import (
	"context"
	"fmt"
	"sync"

	"github.com/plankit/plankit/model"
	"github.com/plankit/plankit/tool"
)

// scriptedAdapter replays canned completions in order and records every
// prompt it sees.
type scriptedAdapter struct {
	mu          sync.Mutex
	completions []string
	completeErr map[int]error
	calls       int
	prompts     []string

	supportsNative bool
	nativeResult   *model.NativeResult
	nativeErr      error
	nativePrompts  []string
}

var _ model.Adapter = (*scriptedAdapter)(nil)

func (a *scriptedAdapter) Complete(_ context.Context, prompt string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.prompts = append(a.prompts, prompt)
	idx := a.calls
	a.calls++

	if err, ok := a.completeErr[idx]; ok {
		return "", err
	}
	if idx >= len(a.completions) {
		return "", fmt.Errorf("unexpected completion call %d", idx)
	}
	return a.completions[idx], nil
}

func (a *scriptedAdapter) ExecuteWithTools(_ context.Context, prompt string, _ []tool.Tool) (*model.NativeResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.nativePrompts = append(a.nativePrompts, prompt)
	if a.nativeErr != nil {
		return nil, a.nativeErr
	}
	return a.nativeResult, nil
}

func (a *scriptedAdapter) SupportsNativeTools() bool {
	return a.supportsNative
}
