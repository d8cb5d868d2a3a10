package task

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/plankit/plankit/tool"
)

// ExecutePlan validates the plan and runs it wave by wave until no step
// remains pending. Failures are isolated per step: a failed step never
// stops its siblings, only its dependents (which fail in cascade). The
// returned trace lists every executed step in completion order as
// "{id}: {result}" lines.
func (p *Planner) ExecutePlan(ctx context.Context, plan *ExecutionPlan, registry *tool.Registry, opts RunOptions) (string, error) {
	if err := p.validator.ValidateStructure(plan, registry); err != nil {
		return "", err
	}

	var deadline time.Time
	if opts.MaxDuration > 0 {
		deadline = time.Now().Add(opts.MaxDuration)
	}

	run := &planRun{
		plan:     plan,
		registry: registry,
		planner:  p,
	}

	dispatched := 0
	stopped := false

	for !stopped {
		pending := run.pendingSteps()
		if len(pending) == 0 {
			break
		}

		if err := checkDeadline(deadline, run); err != nil {
			return "", err
		}

		// Dependents of failed steps can never become ready; fail them
		// now so the loop terminates.
		if run.cascadeFailures(pending) {
			continue
		}

		ready := run.readySteps(pending)
		if len(ready) == 0 {
			stuck := make([]string, 0, len(pending))
			for _, s := range pending {
				stuck = append(stuck, s.ID)
			}
			return "", &DeadlockError{StuckSteps: stuck}
		}

		var wg sync.WaitGroup
		sem := make(chan struct{}, opts.concurrency())

		for _, step := range ready {
			if err := ctx.Err(); err != nil {
				wg.Wait()
				return "", err
			}
			if err := checkDeadline(deadline, run); err != nil {
				wg.Wait()
				return "", err
			}
			if opts.MaxSteps > 0 && dispatched >= opts.MaxSteps {
				wg.Wait()
				return "", &BudgetExceededError{
					Reason:         fmt.Sprintf("max steps (%d)", opts.MaxSteps),
					CompletedSteps: run.terminalCount(),
				}
			}

			// Acquire the slot before committing to the step: a failing
			// sibling may raise the stop flag while the slot is held, and
			// a step past this check must not start.
			sem <- struct{}{}
			if run.stopRequested() {
				<-sem
				stopped = true
				break
			}

			dispatched++
			wg.Add(1)
			go func(s *PlanStep) {
				defer wg.Done()
				defer func() { <-sem }()

				run.executeStep(ctx, s)
				if s.Status == StepFailed && opts.StopOnFirstToolError {
					run.requestStop()
				}
			}(step)
		}

		wg.Wait()

		if run.stopRequested() {
			stopped = true
		}
	}

	return run.trace(), nil
}

func checkDeadline(deadline time.Time, run *planRun) error {
	if !deadline.IsZero() && time.Now().After(deadline) {
		return &BudgetExceededError{
			Reason:         "max duration",
			CompletedSteps: run.terminalCount(),
		}
	}
	return nil
}

// planRun is the mutable bookkeeping of one ExecutePlan call. All access
// to the plan's context map and the completion order goes through mu;
// each step writes a unique, never-reused context key.
type planRun struct {
	plan     *ExecutionPlan
	registry *tool.Registry
	planner  *Planner

	mu    sync.Mutex
	order []string
	stop  bool
}

func (r *planRun) pendingSteps() []*PlanStep {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*PlanStep
	for _, s := range r.plan.Steps {
		if s.Status == StepPending {
			out = append(out, s)
		}
	}
	return out
}

// readySteps filters pending steps down to those whose dependencies all
// completed. Steps in the returned wave are independent by construction.
func (r *planRun) readySteps(pending []*PlanStep) []*PlanStep {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ready []*PlanStep
	for _, s := range pending {
		ok := true
		for _, dep := range s.DependsOn {
			if d := r.plan.Step(dep); d == nil || d.Status != StepCompleted {
				ok = false
				break
			}
		}
		if ok {
			ready = append(ready, s)
		}
	}
	return ready
}

// cascadeFailures fails pending steps that depend on a failed step.
// Returns true when at least one step was failed this way.
func (r *planRun) cascadeFailures(pending []*PlanStep) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	failed := false
	for _, s := range pending {
		for _, dep := range s.DependsOn {
			if d := r.plan.Step(dep); d != nil && d.Status == StepFailed {
				r.finishLocked(s, StepFailed, fmt.Sprintf("Error: dependency %s failed", dep), nil)
				failed = true
				break
			}
		}
	}
	return failed
}

func (r *planRun) requestStop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stop = true
}

func (r *planRun) stopRequested() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stop
}

func (r *planRun) terminalCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

// executeStep runs one ready step: tool lookup, reference resolution,
// parameter validation, invocation. Any failure is recorded on the step;
// siblings are unaffected.
func (r *planRun) executeStep(ctx context.Context, step *PlanStep) {
	logger := r.planner.logger

	t, ok := r.registry.Get(step.ToolName)
	if !ok {
		logger.Warn("step %s: tool not found: %s", step.ID, step.ToolName)
		r.finish(step, StepFailed, fmt.Sprintf("Error: tool not found: %s", step.ToolName), nil)
		return
	}

	params := r.planner.resolver.ResolveReferences(step.Params, r.refSnapshot(), t.ParamsSchema)

	if res := r.planner.validator.ValidateParameters(params, t.ParamsSchema); !res.Valid {
		logger.Warn("step %s: invalid parameters: %s", step.ID, strings.Join(res.Errors, "; "))
		r.finish(step, StepFailed, fmt.Sprintf("Error: invalid parameters: %s", strings.Join(res.Errors, "; ")), nil)
		return
	}

	step.Params = params

	out, err := t.Action(ctx, params)
	if err != nil {
		logger.Warn("step %s: tool %s failed: %v", step.ID, step.ToolName, err)
		r.finish(step, StepFailed, fmt.Sprintf("Error: %v", err), nil)
		return
	}

	var structured any
	hasStructured := false
	if t.ResultSchema != nil {
		var parsed any
		if jsonErr := json.Unmarshal([]byte(out), &parsed); jsonErr == nil {
			structured = parsed
			hasStructured = true
			// Schema mismatches on results are advisory only.
			if res := r.planner.validator.ValidateResult(parsed, t.ResultSchema); !res.Valid {
				logger.Warn("step %s: result does not match declared schema: %s", step.ID, strings.Join(res.Errors, "; "))
			}
		}
	}

	logger.Debug("step %s completed via %s", step.ID, step.ToolName)
	if hasStructured {
		r.finish(step, StepCompleted, out, structured)
	} else {
		r.finish(step, StepCompleted, out, nil)
	}
}

// refSnapshot copies the current result map so the resolver can read it
// without racing sibling completions. Dependencies are terminal before a
// step starts, so the snapshot always holds everything the step may
// reference.
func (r *planRun) refSnapshot() *ReferenceContext {
	r.mu.Lock()
	defer r.mu.Unlock()

	results := make(map[string]StepValue, len(r.plan.Context))
	for k, v := range r.plan.Context {
		results[k] = v
	}
	return &ReferenceContext{Results: results, Metadata: r.plan.Metadata}
}

func (r *planRun) finish(step *PlanStep, status StepStatus, result string, structured any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finishLocked(step, status, result, structured)
}

func (r *planRun) finishLocked(step *PlanStep, status StepStatus, result string, structured any) {
	step.Status = status
	step.Result = result
	step.StructuredResult = structured

	if structured != nil {
		r.plan.Context[step.ID] = StructuredValue(structured)
	} else {
		r.plan.Context[step.ID] = RawValue(result)
	}
	r.order = append(r.order, step.ID)
}

// trace joins executed steps in completion order; structured results are
// pretty-printed.
func (r *planRun) trace() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	lines := make([]string, 0, len(r.order))
	for _, id := range r.order {
		lines = append(lines, fmt.Sprintf("%s: %s", id, r.plan.Context[id].String()))
	}
	return strings.Join(lines, "\n")
}
