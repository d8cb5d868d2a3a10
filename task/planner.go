package task

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/plankit/plankit/log"
	"github.com/plankit/plankit/model"
	"github.com/plankit/plankit/tool"
)

// Planner turns a natural-language request into an execution plan with a
// single planning completion, and drives wave-by-wave execution of that
// plan (see executor.go).
type Planner struct {
	model     model.Adapter
	resolver  *Resolver
	validator *PlanValidator
	logger    log.Logger
}

type PlannerOption func(*Planner)

// WithPlannerLogger sets the planner logger.
func WithPlannerLogger(logger log.Logger) PlannerOption {
	return func(p *Planner) {
		p.logger = logger
		p.resolver = NewResolver(logger)
		p.validator = NewPlanValidator(nil, logger)
	}
}

// WithPlannerValidator swaps the plan validator (and its schema engine).
func WithPlannerValidator(v *PlanValidator) PlannerOption {
	return func(p *Planner) {
		p.validator = v
	}
}

// NewPlanner creates a planner over the given model adapter.
func NewPlanner(m model.Adapter, opts ...PlannerOption) *Planner {
	p := &Planner{
		model:  m,
		logger: &log.NoOpLogger{},
	}
	p.resolver = NewResolver(p.logger)
	p.validator = NewPlanValidator(nil, p.logger)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PlanRequest is the input to plan creation.
type PlanRequest struct {
	Message       string
	Registry      *tool.Registry
	MemoryContext string
	SystemPrompt  string
}

// CreatePlan issues one planning completion and parses the result into an
// execution plan. Parsing tolerates markdown fences and surrounding prose;
// a response that still cannot be parsed fails with PlanParseError and is
// not retried here.
func (p *Planner) CreatePlan(ctx context.Context, req PlanRequest) (*ExecutionPlan, error) {
	prompt := p.buildPlanningPrompt(req)

	p.logger.Debug("requesting plan for message: %s", req.Message)
	raw, err := p.model.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("planning call failed: %w", err)
	}

	steps, err := parsePlanSteps(raw)
	if err != nil {
		return nil, &PlanParseError{Raw: raw, Cause: err}
	}

	metadata := make(map[string]StepMetadata, len(steps))
	for _, step := range steps {
		step.Status = StepPending
		if step.DependsOn == nil {
			step.DependsOn = []string{}
		}
		meta := StepMetadata{ToolName: step.ToolName}
		if req.Registry != nil {
			if t, ok := req.Registry.Get(step.ToolName); ok {
				meta.ResultSchema = t.ResultSchema
			}
		}
		metadata[step.ID] = meta
	}

	p.logger.Info("plan created with %d steps", len(steps))
	return NewExecutionPlan(steps, metadata), nil
}

func (p *Planner) buildPlanningPrompt(req PlanRequest) string {
	var sb strings.Builder

	if req.SystemPrompt != "" {
		sb.WriteString(req.SystemPrompt)
		sb.WriteString("\n\n")
	}

	sb.WriteString("You are a task planning assistant. Break the user's request into steps that invoke the available tools.\n\n")
	sb.WriteString("Available tools:\n")
	for i, t := range req.Registry.List() {
		sb.WriteString(fmt.Sprintf("%d. %s: %s\n", i+1, t.Name, t.Description))
		if t.ParamsSchema != nil {
			if raw, err := json.Marshal(t.ParamsSchema); err == nil {
				sb.WriteString(fmt.Sprintf("   parameters: %s\n", raw))
			}
		}
	}

	if req.MemoryContext != "" {
		sb.WriteString("\nConversation context:\n")
		sb.WriteString(req.MemoryContext)
		sb.WriteString("\n")
	}

	sb.WriteString(`
Respond ONLY with a JSON array of step objects. Each step object has exactly these keys:
  "id": a short unique identifier for the step,
  "toolName": the name of one of the available tools,
  "params": the parameter object for that tool,
  "dependsOn": an array of step ids whose results this step needs.

To use a prior step's result inside params, write "{{stepId}}" for the whole result or "{{stepId.property}}" for one field of it.

Example:
[
  {"id": "s1", "toolName": "geocode", "params": {"location": "Bogota"}, "dependsOn": []},
  {"id": "s2", "toolName": "weather", "params": {"lat": "{{s1.latitude}}", "lon": "{{s1.longitude}}"}, "dependsOn": ["s1"]}
]

`)
	// Retrieval-augmented messages already end with the marker.
	if !strings.Contains(req.Message, userRequestMarker) {
		sb.WriteString(userRequestMarker)
	}
	sb.WriteString(req.Message)

	return sb.String()
}

// fencedBlockPattern extracts the body of a markdown code fence.
var fencedBlockPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// parsePlanSteps extracts the step array from model output. Extraction
// order: raw parse, fenced-block parse, bracket/brace substring parse.
func parsePlanSteps(text string) ([]*PlanStep, error) {
	trimmed := strings.TrimSpace(text)

	candidates := []string{trimmed}

	if m := fencedBlockPattern.FindStringSubmatch(trimmed); len(m) > 1 {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}

	if start, end := strings.Index(trimmed, "["), strings.LastIndex(trimmed, "]"); start != -1 && end > start {
		candidates = append(candidates, trimmed[start:end+1])
	}
	if start, end := strings.Index(trimmed, "{"), strings.LastIndex(trimmed, "}"); start != -1 && end > start {
		candidates = append(candidates, trimmed[start:end+1])
	}

	var lastErr error
	for _, candidate := range candidates {
		steps, err := decodeSteps(candidate)
		if err == nil {
			if len(steps) == 0 {
				return nil, fmt.Errorf("plan has no steps")
			}
			return steps, nil
		}
		lastErr = err
	}

	return nil, lastErr
}

// decodeSteps accepts either a bare array or an object with a "steps" key.
func decodeSteps(candidate string) ([]*PlanStep, error) {
	var steps []*PlanStep
	if err := json.Unmarshal([]byte(candidate), &steps); err == nil {
		return steps, nil
	}

	var wrapper struct {
		Steps []*PlanStep `json:"steps"`
	}
	if err := json.Unmarshal([]byte(candidate), &wrapper); err != nil {
		return nil, err
	}
	if wrapper.Steps == nil {
		return nil, fmt.Errorf("no steps array found")
	}
	return wrapper.Steps, nil
}
