package task

import (
	"encoding/json"
	"fmt"

	"github.com/plankit/plankit/log"
	"github.com/plankit/plankit/schema"
	"github.com/plankit/plankit/tool"
)

// PlanValidator checks plan structure before execution and validates
// resolved parameters against tool schemas.
type PlanValidator struct {
	params schema.Validator
	logger log.Logger
}

// NewPlanValidator creates a validator. A nil schema validator defaults to
// the library-backed implementation.
func NewPlanValidator(params schema.Validator, logger log.Logger) *PlanValidator {
	if params == nil {
		params = schema.LibraryValidator{}
	}
	if logger == nil {
		logger = &log.NoOpLogger{}
	}
	return &PlanValidator{params: params, logger: logger}
}

// ValidateStructure rejects plans with duplicate ids, dangling dependency
// references or dependency cycles. An unknown tool name is only a warning:
// the executor isolates it to the one step at run time.
func (pv *PlanValidator) ValidateStructure(plan *ExecutionPlan, registry *tool.Registry) error {
	declared := make(map[string]struct{}, len(plan.Steps))
	for _, step := range plan.Steps {
		if _, dup := declared[step.ID]; dup {
			return fmt.Errorf("duplicate step id %q", step.ID)
		}
		declared[step.ID] = struct{}{}
	}

	for _, step := range plan.Steps {
		if registry != nil {
			if _, ok := registry.Get(step.ToolName); !ok {
				pv.logger.Warn("step %q references unknown tool %q", step.ID, step.ToolName)
			}
		}
		for _, dep := range step.DependsOn {
			if _, ok := declared[dep]; !ok {
				return &StructuralValidationError{StepID: step.ID, DependsOn: dep}
			}
		}
		pv.checkParamReferences(step, declared)
	}

	return pv.detectCycles(plan)
}

// checkParamReferences warns about placeholders in params that point at
// undeclared steps or at steps missing from dependsOn. Non-fatal: the
// resolver substitutes "" for unresolvable references at run time.
func (pv *PlanValidator) checkParamReferences(step *PlanStep, declared map[string]struct{}) {
	raw, err := json.Marshal(step.Params)
	if err != nil {
		return
	}

	deps := make(map[string]struct{}, len(step.DependsOn))
	for _, dep := range step.DependsOn {
		deps[dep] = struct{}{}
	}

	for _, ref := range ExtractTemplateReferences(string(raw)) {
		if _, ok := declared[ref.StepID]; !ok {
			pv.logger.Warn("step %q references undeclared step %q in params", step.ID, ref.StepID)
			continue
		}
		if _, ok := deps[ref.StepID]; !ok {
			pv.logger.Warn("step %q references step %q without depending on it", step.ID, ref.StepID)
		}
	}
}

type dfsColor uint8

const (
	colorWhite dfsColor = iota
	colorGray
	colorBlack
)

// detectCycles runs a three-color DFS over the dependsOn adjacency. The
// traversal uses an explicit work stack so deep plans cannot overflow the
// goroutine stack.
func (pv *PlanValidator) detectCycles(plan *ExecutionPlan) error {
	deps := make(map[string][]string, len(plan.Steps))
	for _, step := range plan.Steps {
		deps[step.ID] = step.DependsOn
	}

	color := make(map[string]dfsColor, len(plan.Steps))

	type frame struct {
		id   string
		next int
	}

	for _, root := range plan.Steps {
		if color[root.ID] != colorWhite {
			continue
		}

		stack := []frame{{id: root.ID}}
		path := []string{root.ID}
		color[root.ID] = colorGray

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			edges := deps[top.id]

			if top.next >= len(edges) {
				color[top.id] = colorBlack
				stack = stack[:len(stack)-1]
				path = path[:len(path)-1]
				continue
			}

			dep := edges[top.next]
			top.next++

			switch color[dep] {
			case colorWhite:
				color[dep] = colorGray
				stack = append(stack, frame{id: dep})
				path = append(path, dep)
			case colorGray:
				// Re-entered a node on the current path: cycle.
				start := 0
				for i, id := range path {
					if id == dep {
						start = i
						break
					}
				}
				cycle := append(append([]string{}, path[start:]...), dep)
				return &CycleError{Path: cycle}
			}
		}
	}

	return nil
}

// ValidateParameters checks a parameter object against a tool schema. It
// reports problems as data rather than an error.
func (pv *PlanValidator) ValidateParameters(params map[string]any, s *schema.Schema) schema.Result {
	return pv.params.Validate(params, s)
}

// ValidateResult checks a parsed tool result against its declared schema.
func (pv *PlanValidator) ValidateResult(value any, s *schema.Schema) schema.Result {
	return pv.params.Validate(value, s)
}
