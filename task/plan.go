package task

import (
	"encoding/json"

	"github.com/plankit/plankit/schema"
)

// StepStatus is the lifecycle state of a plan step. A step starts pending
// and moves exactly once to completed or failed; it never reverts.
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
)

// PlanStep is one tool invocation inside an execution plan. Params may
// contain {{stepId}} / {{stepId.property}} placeholders referencing prior
// step results; they are resolved just before the step runs.
type PlanStep struct {
	ID        string         `json:"id"`
	ToolName  string         `json:"toolName"`
	Params    map[string]any `json:"params"`
	DependsOn []string       `json:"dependsOn"`

	Status StepStatus `json:"status"`

	// Result is the raw string returned by the tool, or an
	// "Error: ..." message for failed steps.
	Result string `json:"result,omitempty"`

	// StructuredResult is the parsed JSON value of Result when the tool
	// declares a result schema and the result parses as JSON.
	StructuredResult any `json:"structuredResult,omitempty"`
}

// StepValue is the stored outcome of a terminal step: either the raw
// result string or a structured JSON value. Keeping the two cases tagged
// lets the resolver pattern-match instead of speculatively re-parsing.
type StepValue struct {
	raw        string
	structured any
	isJSON     bool
}

// RawValue wraps a plain string result.
func RawValue(s string) StepValue {
	return StepValue{raw: s}
}

// StructuredValue wraps a parsed JSON result.
func StructuredValue(v any) StepValue {
	return StepValue{structured: v, isJSON: true}
}

// Value returns the structured value when present, else the raw string.
func (v StepValue) Value() any {
	if v.isJSON {
		return v.structured
	}
	return v.raw
}

// Structured returns the parsed value and whether one is present.
func (v StepValue) Structured() (any, bool) {
	return v.structured, v.isJSON
}

// String renders the value for trace output: structured values are
// pretty-printed JSON, raw values pass through.
func (v StepValue) String() string {
	if !v.isJSON {
		return v.raw
	}
	pretty, err := json.MarshalIndent(v.structured, "", "  ")
	if err != nil {
		return v.raw
	}
	return string(pretty)
}

// StepMetadata carries per-step tool information used during reference
// resolution.
type StepMetadata struct {
	ToolName     string
	ResultSchema *schema.Schema
}

// ExecutionPlan is a validated DAG of steps plus the results accumulated
// while executing it. Context is append-only: a step's key is written
// exactly once, when the step reaches a terminal state.
type ExecutionPlan struct {
	Steps    []*PlanStep
	Context  map[string]StepValue
	Metadata map[string]StepMetadata
}

// NewExecutionPlan wraps steps into a plan with empty context and the
// given metadata.
func NewExecutionPlan(steps []*PlanStep, metadata map[string]StepMetadata) *ExecutionPlan {
	if metadata == nil {
		metadata = make(map[string]StepMetadata)
	}
	return &ExecutionPlan{
		Steps:    steps,
		Context:  make(map[string]StepValue),
		Metadata: metadata,
	}
}

// Step returns the step with the given id, or nil.
func (p *ExecutionPlan) Step(id string) *PlanStep {
	for _, s := range p.Steps {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// ReferenceContext is the read-only view the resolver works against.
type ReferenceContext struct {
	Results  map[string]StepValue
	Metadata map[string]StepMetadata
}

// RefContext builds the resolver view over the plan's current results.
func (p *ExecutionPlan) RefContext() *ReferenceContext {
	return &ReferenceContext{
		Results:  p.Context,
		Metadata: p.Metadata,
	}
}
