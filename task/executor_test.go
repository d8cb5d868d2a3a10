package task

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plankit/plankit/schema"
	"github.com/plankit/plankit/tool"
)

func geocodeTool(t *testing.T) tool.Tool {
	t.Helper()
	return tool.Tool{
		Name:        "geocode",
		Description: "resolve a place name to coordinates",
		ParamsSchema: schema.Object(map[string]*schema.Schema{
			"location": schema.String("place name"),
		}, "location"),
		ResultSchema: schema.Object(map[string]*schema.Schema{
			"latitude":  schema.Number(""),
			"longitude": schema.Number(""),
		}),
		Action: func(_ context.Context, params map[string]any) (string, error) {
			require.Equal(t, "Bogota", params["location"])
			return `{"latitude": 4.61, "longitude": -74.08}`, nil
		},
	}
}

func weatherTool(t *testing.T) tool.Tool {
	t.Helper()
	return tool.Tool{
		Name:        "weather",
		Description: "current weather at coordinates",
		ParamsSchema: schema.Object(map[string]*schema.Schema{
			"lat": schema.Number(""),
			"lon": schema.Number(""),
		}, "lat", "lon"),
		Action: func(_ context.Context, params map[string]any) (string, error) {
			// Coercion must deliver numbers, not placeholder strings.
			lat, ok := params["lat"].(float64)
			require.True(t, ok, "lat is %T", params["lat"])
			lon, ok := params["lon"].(float64)
			require.True(t, ok, "lon is %T", params["lon"])
			return fmt.Sprintf("%.2f,%.2f: sunny, 19C", lat, lon), nil
		},
	}
}

func TestExecutePlanDependencyChain(t *testing.T) {
	t.Parallel()

	registry := tool.NewRegistry(geocodeTool(t), weatherTool(t))
	p := NewPlanner(&scriptedAdapter{})

	plan := planOf(
		&PlanStep{ID: "g", ToolName: "geocode", Params: map[string]any{"location": "Bogota"}, Status: StepPending},
		&PlanStep{ID: "w", ToolName: "weather", Params: map[string]any{
			"lat": "{{g.latitude}}",
			"lon": "{{g.longitude}}",
		}, DependsOn: []string{"g"}, Status: StepPending},
	)
	plan.Metadata["g"] = StepMetadata{ToolName: "geocode", ResultSchema: geocodeTool(t).ResultSchema}

	trace, err := p.ExecutePlan(context.Background(), plan, registry, RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, StepCompleted, plan.Step("g").Status)
	assert.Equal(t, StepCompleted, plan.Step("w").Status)
	assert.Contains(t, trace, "4.61,-74.08: sunny, 19C")

	// Structured results land in context as parsed values.
	sv, ok := plan.Context["g"].Structured()
	require.True(t, plan.Step("g").StructuredResult != nil)
	require.True(t, ok)
	assert.Equal(t, 4.61, sv.(map[string]any)["latitude"])
}

func TestExecutePlanFailureIsolation(t *testing.T) {
	t.Parallel()

	registry := tool.NewRegistry(
		tool.Tool{
			Name: "boom",
			Action: func(context.Context, map[string]any) (string, error) {
				return "", fmt.Errorf("upstream unavailable")
			},
		},
		noopToolReturning("echo", "hello"),
	)
	p := NewPlanner(&scriptedAdapter{})

	plan := planOf(
		&PlanStep{ID: "a", ToolName: "boom", Status: StepPending},
		&PlanStep{ID: "b", ToolName: "echo", Status: StepPending},
	)

	trace, err := p.ExecutePlan(context.Background(), plan, registry, RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, StepFailed, plan.Step("a").Status)
	assert.Equal(t, "Error: upstream unavailable", plan.Step("a").Result)
	assert.Equal(t, StepCompleted, plan.Step("b").Status)
	assert.Contains(t, trace, "a: Error: upstream unavailable")
	assert.Contains(t, trace, "b: hello")
}

func TestExecutePlanUnknownToolIsolated(t *testing.T) {
	t.Parallel()

	registry := tool.NewRegistry(noopToolReturning("echo", "hello"))
	p := NewPlanner(&scriptedAdapter{})

	plan := planOf(
		&PlanStep{ID: "a", ToolName: "nope", Status: StepPending},
		&PlanStep{ID: "b", ToolName: "echo", Status: StepPending},
	)

	trace, err := p.ExecutePlan(context.Background(), plan, registry, RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, "Error: tool not found: nope", plan.Step("a").Result)
	assert.Equal(t, StepCompleted, plan.Step("b").Status)
	assert.Contains(t, trace, "b: hello")
}

func TestExecutePlanCascadesDependentOfFailedStep(t *testing.T) {
	t.Parallel()

	registry := tool.NewRegistry(
		tool.Tool{
			Name: "boom",
			Action: func(context.Context, map[string]any) (string, error) {
				return "", fmt.Errorf("nope")
			},
		},
		noopToolReturning("echo", "hello"),
	)
	p := NewPlanner(&scriptedAdapter{})

	plan := planOf(
		&PlanStep{ID: "a", ToolName: "boom", Status: StepPending},
		&PlanStep{ID: "b", ToolName: "echo", DependsOn: []string{"a"}, Status: StepPending},
		&PlanStep{ID: "c", ToolName: "echo", Status: StepPending},
	)

	_, err := p.ExecutePlan(context.Background(), plan, registry, RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, StepFailed, plan.Step("b").Status)
	assert.Equal(t, "Error: dependency a failed", plan.Step("b").Result)
	assert.Equal(t, StepCompleted, plan.Step("c").Status)
}

func TestExecutePlanParameterValidationFailure(t *testing.T) {
	t.Parallel()

	strict := tool.Tool{
		Name: "strict",
		ParamsSchema: schema.Object(map[string]*schema.Schema{
			"q": schema.String(""),
		}, "q"),
		Action: func(context.Context, map[string]any) (string, error) {
			t.Fatal("action must not run on invalid parameters")
			return "", nil
		},
	}
	p := NewPlanner(&scriptedAdapter{})

	plan := planOf(
		&PlanStep{ID: "a", ToolName: "strict", Params: map[string]any{}, Status: StepPending},
	)

	_, err := p.ExecutePlan(context.Background(), plan, tool.NewRegistry(strict), RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, StepFailed, plan.Step("a").Status)
	assert.Contains(t, plan.Step("a").Result, "Error: invalid parameters")
}

func TestExecutePlanRejectsInvalidStructure(t *testing.T) {
	t.Parallel()

	p := NewPlanner(&scriptedAdapter{})
	plan := planOf(
		&PlanStep{ID: "a", ToolName: "echo", DependsOn: []string{"ghost"}, Status: StepPending},
	)

	_, err := p.ExecutePlan(context.Background(), plan, tool.NewRegistry(noopToolReturning("echo", "x")), RunOptions{})

	var sve *StructuralValidationError
	require.ErrorAs(t, err, &sve)
	assert.Equal(t, StepPending, plan.Step("a").Status)
}

func TestExecutePlanMaxStepsBudget(t *testing.T) {
	t.Parallel()

	var executed int32
	counting := tool.Tool{
		Name: "count",
		Action: func(context.Context, map[string]any) (string, error) {
			atomic.AddInt32(&executed, 1)
			return "ok", nil
		},
	}
	p := NewPlanner(&scriptedAdapter{})

	plan := planOf(
		&PlanStep{ID: "a", ToolName: "count", Status: StepPending},
		&PlanStep{ID: "b", ToolName: "count", DependsOn: []string{"a"}, Status: StepPending},
		&PlanStep{ID: "c", ToolName: "count", DependsOn: []string{"b"}, Status: StepPending},
	)

	trace, err := p.ExecutePlan(context.Background(), plan, tool.NewRegistry(counting), RunOptions{MaxSteps: 2})

	var be *BudgetExceededError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, 2, be.CompletedSteps)
	assert.Empty(t, trace)
	assert.EqualValues(t, 2, atomic.LoadInt32(&executed))
}

func TestExecutePlanMaxDurationBudget(t *testing.T) {
	t.Parallel()

	slow := tool.Tool{
		Name: "slow",
		Action: func(context.Context, map[string]any) (string, error) {
			time.Sleep(30 * time.Millisecond)
			return "ok", nil
		},
	}
	p := NewPlanner(&scriptedAdapter{})

	plan := planOf(
		&PlanStep{ID: "a", ToolName: "slow", Status: StepPending},
		&PlanStep{ID: "b", ToolName: "slow", DependsOn: []string{"a"}, Status: StepPending},
	)

	_, err := p.ExecutePlan(context.Background(), plan, tool.NewRegistry(slow), RunOptions{MaxDuration: 10 * time.Millisecond})

	var be *BudgetExceededError
	require.ErrorAs(t, err, &be)
}

func TestExecutePlanStopOnFirstToolError(t *testing.T) {
	t.Parallel()

	registry := tool.NewRegistry(
		tool.Tool{
			Name: "boom",
			Action: func(context.Context, map[string]any) (string, error) {
				return "", fmt.Errorf("nope")
			},
		},
		noopToolReturning("echo", "hello"),
	)
	p := NewPlanner(&scriptedAdapter{})

	// The stop flag is raised from a worker goroutine, so run the
	// failed-step plus independent-sibling wave many times to make sure
	// the sibling never slips through.
	for range 200 {
		plan := planOf(
			&PlanStep{ID: "a", ToolName: "boom", Status: StepPending},
			&PlanStep{ID: "b", ToolName: "echo", Status: StepPending},
		)

		trace, err := p.ExecutePlan(context.Background(), plan, registry, RunOptions{StopOnFirstToolError: true})
		require.NoError(t, err)

		// Independent sibling b is never scheduled; it stays pending and
		// is absent from the trace.
		assert.Equal(t, StepFailed, plan.Step("a").Status)
		assert.Equal(t, StepPending, plan.Step("b").Status)
		assert.NotContains(t, trace, "b:")
		assert.Contains(t, trace, "a: Error: nope")
	}
}

func TestExecutePlanConcurrentWave(t *testing.T) {
	t.Parallel()

	slow := tool.Tool{
		Name: "slow",
		Action: func(context.Context, map[string]any) (string, error) {
			time.Sleep(20 * time.Millisecond)
			return "ok", nil
		},
	}
	p := NewPlanner(&scriptedAdapter{})

	steps := make([]*PlanStep, 0, 4)
	for i := range 4 {
		steps = append(steps, &PlanStep{ID: fmt.Sprintf("s%d", i), ToolName: "slow", Status: StepPending})
	}
	plan := planOf(steps...)

	start := time.Now()
	_, err := p.ExecutePlan(context.Background(), plan, tool.NewRegistry(slow), RunOptions{Concurrency: 4})
	require.NoError(t, err)

	for _, s := range plan.Steps {
		assert.Equal(t, StepCompleted, s.Status)
	}
	if elapsed := time.Since(start); elapsed > 70*time.Millisecond {
		t.Logf("Warning: wave took %v, might not be parallel", elapsed)
	}
}

func TestExecutePlanCancelledContext(t *testing.T) {
	t.Parallel()

	p := NewPlanner(&scriptedAdapter{})
	plan := planOf(
		&PlanStep{ID: "a", ToolName: "echo", Status: StepPending},
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.ExecutePlan(ctx, plan, tool.NewRegistry(noopToolReturning("echo", "x")), RunOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func noopToolReturning(name, result string) tool.Tool {
	return tool.Tool{
		Name:        name,
		Description: name,
		Action: func(context.Context, map[string]any) (string, error) {
			return result, nil
		},
	}
}
