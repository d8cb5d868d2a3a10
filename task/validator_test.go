package task

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plankit/plankit/schema"
	"github.com/plankit/plankit/tool"
)

func noopTool(name string) tool.Tool {
	return tool.Tool{
		Name:        name,
		Description: name,
		Action: func(context.Context, map[string]any) (string, error) {
			return "", nil
		},
	}
}

func planOf(steps ...*PlanStep) *ExecutionPlan {
	return NewExecutionPlan(steps, nil)
}

func TestValidateStructureAcceptsValidPlan(t *testing.T) {
	t.Parallel()

	pv := NewPlanValidator(nil, nil)
	plan := planOf(
		&PlanStep{ID: "a", ToolName: "t", DependsOn: []string{}},
		&PlanStep{ID: "b", ToolName: "t", DependsOn: []string{"a"}},
		&PlanStep{ID: "c", ToolName: "t", DependsOn: []string{"a", "b"}},
	)

	err := pv.ValidateStructure(plan, tool.NewRegistry(noopTool("t")))
	assert.NoError(t, err)
}

func TestValidateStructureRejectsDuplicateIDs(t *testing.T) {
	t.Parallel()

	pv := NewPlanValidator(nil, nil)
	plan := planOf(
		&PlanStep{ID: "a", ToolName: "t"},
		&PlanStep{ID: "a", ToolName: "t"},
	)

	err := pv.ValidateStructure(plan, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"a"`)
}

func TestValidateStructureRejectsDanglingDependency(t *testing.T) {
	t.Parallel()

	pv := NewPlanValidator(nil, nil)
	plan := planOf(
		&PlanStep{ID: "a", ToolName: "t", DependsOn: []string{"ghost"}},
	)

	err := pv.ValidateStructure(plan, nil)
	require.Error(t, err)

	var sve *StructuralValidationError
	require.ErrorAs(t, err, &sve)
	assert.Equal(t, "a", sve.StepID)
	assert.Equal(t, "ghost", sve.DependsOn)
	assert.Contains(t, err.Error(), "a")
	assert.Contains(t, err.Error(), "ghost")
}

func TestValidateStructureDetectsThreeNodeCycle(t *testing.T) {
	t.Parallel()

	pv := NewPlanValidator(nil, nil)
	plan := planOf(
		&PlanStep{ID: "a", ToolName: "t", DependsOn: []string{"b"}},
		&PlanStep{ID: "b", ToolName: "t", DependsOn: []string{"c"}},
		&PlanStep{ID: "c", ToolName: "t", DependsOn: []string{"a"}},
	)

	err := pv.ValidateStructure(plan, nil)
	require.Error(t, err)

	var ce *CycleError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []string{"a", "b", "c", "a"}, ce.Path)
	assert.Contains(t, err.Error(), "a -> b -> c -> a")
}

func TestValidateStructureDetectsSelfCycle(t *testing.T) {
	t.Parallel()

	pv := NewPlanValidator(nil, nil)
	plan := planOf(
		&PlanStep{ID: "a", ToolName: "t", DependsOn: []string{"a"}},
	)

	var ce *CycleError
	require.ErrorAs(t, pv.ValidateStructure(plan, nil), &ce)
}

func TestValidateStructureUnknownToolIsNotFatal(t *testing.T) {
	t.Parallel()

	pv := NewPlanValidator(nil, nil)
	plan := planOf(
		&PlanStep{ID: "a", ToolName: "missing"},
	)

	// Unknown tools fail at execution time, scoped to the one step.
	assert.NoError(t, pv.ValidateStructure(plan, tool.NewRegistry(noopTool("t"))))
}

func TestValidateStructureCycleBehindValidPrefix(t *testing.T) {
	t.Parallel()

	pv := NewPlanValidator(nil, nil)
	plan := planOf(
		&PlanStep{ID: "root", ToolName: "t", DependsOn: []string{}},
		&PlanStep{ID: "x", ToolName: "t", DependsOn: []string{"root", "y"}},
		&PlanStep{ID: "y", ToolName: "t", DependsOn: []string{"x"}},
	)

	var ce *CycleError
	require.ErrorAs(t, pv.ValidateStructure(plan, nil), &ce)
	assert.Contains(t, ce.Path, "x")
	assert.Contains(t, ce.Path, "y")
}

func TestValidateParameters(t *testing.T) {
	t.Parallel()

	pv := NewPlanValidator(nil, nil)
	s := schema.Object(map[string]*schema.Schema{
		"q": schema.String("query"),
	}, "q")

	ok := pv.ValidateParameters(map[string]any{"q": "golang"}, s)
	assert.True(t, ok.Valid)

	bad := pv.ValidateParameters(map[string]any{}, s)
	assert.False(t, bad.Valid)
	assert.NotEmpty(t, bad.Errors)

	wrongType := pv.ValidateParameters(map[string]any{"q": 12}, s)
	assert.False(t, wrongType.Valid)
}
