package task

import (
	"fmt"
	"strings"
)

// PlanParseError reports that the planning completion could not be parsed
// into a step list. It carries the raw model output for diagnosis; the
// planner does not retry.
type PlanParseError struct {
	Raw   string
	Cause error
}

func (e *PlanParseError) Error() string {
	return fmt.Sprintf("failed to parse plan from model output: %v", e.Cause)
}

func (e *PlanParseError) Unwrap() error {
	return e.Cause
}

// StructuralValidationError reports a dependency on an undeclared step.
// It is fatal: the plan is rejected before any step executes.
type StructuralValidationError struct {
	StepID    string
	DependsOn string
}

func (e *StructuralValidationError) Error() string {
	return fmt.Sprintf("step %q depends on undeclared step %q", e.StepID, e.DependsOn)
}

// CycleError reports a dependency cycle, including the discovered path.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Path, " -> "))
}

// BudgetExceededError reports that the run hit its step or duration
// ceiling. The run aborts; partial results are discarded.
type BudgetExceededError struct {
	Reason         string
	CompletedSteps int
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("execution budget exceeded (%s) after %d completed steps", e.Reason, e.CompletedSteps)
}

// DeadlockError reports pending steps whose dependencies can never
// complete. Unreachable after structural validation; kept as a defensive
// guard.
type DeadlockError struct {
	StuckSteps []string
}

func (e *DeadlockError) Error() string {
	return fmt.Sprintf("execution deadlock: steps %s are pending but not runnable", strings.Join(e.StuckSteps, ", "))
}
