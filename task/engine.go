package task

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/plankit/plankit/log"
	"github.com/plankit/plankit/model"
	"github.com/plankit/plankit/tool"
)

// userRequestMarker terminates every assembled prompt; memory context is
// spliced in immediately before it.
const userRequestMarker = "User request: "

// ContextRetriever augments a user message with retrieved context. The
// returned prompt must end with the user-request marker followed by the
// message.
type ContextRetriever interface {
	AugmentPrompt(ctx context.Context, message string) (string, error)
}

// RunRecord is the persisted outcome of one engine run.
type RunRecord struct {
	ID          string    `json:"id"`
	Request     string    `json:"request"`
	PlanJSON    string    `json:"planJson,omitempty"`
	Trace       string    `json:"trace,omitempty"`
	Answer      string    `json:"answer"`
	Strategy    string    `json:"strategy"`
	CreatedAt   time.Time `json:"createdAt"`
	CompletedAt time.Time `json:"completedAt"`
}

// RunRecorder persists run records. Recording failures are logged and
// never fail the run.
type RunRecorder interface {
	RecordRun(ctx context.Context, rec *RunRecord) error
}

// ExecutionContext is the input to one engine run.
type ExecutionContext struct {
	Message       string
	Registry      *tool.Registry
	MemoryContext string
	SystemPrompt  string
	Options       RunOptions
}

// Engine decides between native tool calling and planned execution, with
// fallback from the former to the latter. The planned path humanizes its
// trace and degrades to the raw trace when humanization fails.
type Engine struct {
	model     model.Adapter
	planner   *Planner
	processor *ResponseProcessor
	retriever ContextRetriever
	recorder  RunRecorder
	listeners listenerSet
	logger    log.Logger
}

type EngineOption func(*Engine)

// WithEngineLogger sets the engine logger and propagates it to the
// planner and the response processor.
func WithEngineLogger(logger log.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
		e.planner = NewPlanner(e.model, WithPlannerLogger(logger))
		e.processor = NewResponseProcessor(e.model, logger)
	}
}

// WithRetriever plugs in a retrieval collaborator for prompt augmentation.
func WithRetriever(r ContextRetriever) EngineOption {
	return func(e *Engine) {
		e.retriever = r
	}
}

// WithRecorder plugs in run persistence.
func WithRecorder(r RunRecorder) EngineOption {
	return func(e *Engine) {
		e.recorder = r
	}
}

// WithListener registers a run listener.
func WithListener(l RunListener) EngineOption {
	return func(e *Engine) {
		e.listeners.add(l)
	}
}

// WithEnginePlanner swaps the planner, e.g. to use a separate planning
// model.
func WithEnginePlanner(p *Planner) EngineOption {
	return func(e *Engine) {
		e.planner = p
	}
}

// NewEngine creates an engine over the given model adapter.
func NewEngine(m model.Adapter, opts ...EngineOption) *Engine {
	e := &Engine{
		model:  m,
		logger: &log.NoOpLogger{},
	}
	e.planner = NewPlanner(m)
	e.processor = NewResponseProcessor(m, nil)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AddListener registers a run listener after construction.
func (e *Engine) AddListener(l RunListener) {
	e.listeners.add(l)
}

// Execute runs the decision state machine: native attempt when the model
// supports tool calling, planned execution otherwise or on native
// failure. Recoverable conditions are absorbed; an error escapes only
// when every tier is exhausted, paired with an "Execution failed: ..."
// string.
func (e *Engine) Execute(ctx context.Context, ec ExecutionContext) (string, error) {
	runID := uuid.NewString()
	started := time.Now()

	e.listeners.notify(ctx, RunEventStart, runID, ec.Message, nil)

	message := e.augmentedMessage(ctx, ec.Message)

	if e.model.SupportsNativeTools() && ec.Registry != nil && ec.Registry.Len() > 0 {
		answer, ok := e.attemptNative(ctx, runID, message, ec)
		if ok {
			e.record(ctx, &RunRecord{
				ID:          runID,
				Request:     ec.Message,
				Answer:      answer,
				Strategy:    "native",
				CreatedAt:   started,
				CompletedAt: time.Now(),
			})
			e.listeners.notify(ctx, RunEventSuccess, runID, answer, nil)
			return answer, nil
		}
	}

	e.listeners.notify(ctx, RunEventPlanAttempt, runID, message, nil)

	plan, err := e.planner.CreatePlan(ctx, PlanRequest{
		Message:       message,
		Registry:      ec.Registry,
		MemoryContext: ec.MemoryContext,
		SystemPrompt:  ec.SystemPrompt,
	})
	if err != nil {
		e.listeners.notify(ctx, RunEventFailure, runID, "", err)
		return fmt.Sprintf("Execution failed: %v", err), err
	}

	trace, err := e.planner.ExecutePlan(ctx, plan, ec.Registry, ec.Options)
	if err != nil {
		e.listeners.notify(ctx, RunEventFailure, runID, "", err)
		return fmt.Sprintf("Execution failed: %v", err), err
	}

	answer := e.processor.Humanize(ctx, ec.Message, trace)
	if re := ec.Options.RequiredOutputRegex; re != nil && !re.MatchString(answer) {
		e.logger.Warn("humanized answer did not match required pattern, returning raw trace")
		answer = trace
	}

	e.record(ctx, &RunRecord{
		ID:          runID,
		Request:     ec.Message,
		PlanJSON:    marshalPlan(plan),
		Trace:       trace,
		Answer:      answer,
		Strategy:    "planned",
		CreatedAt:   started,
		CompletedAt: time.Now(),
	})
	e.listeners.notify(ctx, RunEventSuccess, runID, answer, nil)
	return answer, nil
}

// attemptNative makes the single native tool-calling call. Any error or
// an unsuccessful result falls back to the planned path; the attempt is
// never retried.
func (e *Engine) attemptNative(ctx context.Context, runID, prompt string, ec ExecutionContext) (string, bool) {
	e.listeners.notify(ctx, RunEventNativeAttempt, runID, prompt, nil)

	fullPrompt := e.basicPrompt(prompt, ec)
	res, err := e.model.ExecuteWithTools(ctx, fullPrompt, ec.Registry.List())
	if err != nil {
		e.logger.Warn("native execution failed, falling back to planned: %v", err)
		e.listeners.notify(ctx, RunEventFallback, runID, "native", err)
		return "", false
	}
	if !res.Success {
		e.logger.Warn("native execution unsuccessful, falling back to planned: %s", strings.Join(res.Errors, "; "))
		e.listeners.notify(ctx, RunEventFallback, runID, "native", nil)
		return "", false
	}
	if re := ec.Options.RequiredOutputRegex; re != nil && !re.MatchString(res.Content) {
		e.logger.Warn("native answer did not match required pattern, falling back to planned")
		e.listeners.notify(ctx, RunEventFallback, runID, "native", nil)
		return "", false
	}
	return res.Content, true
}

// augmentedMessage runs the retrieval collaborator when configured. A
// retrieval failure degrades to the original message.
func (e *Engine) augmentedMessage(ctx context.Context, message string) string {
	if e.retriever == nil {
		return message
	}
	augmented, err := e.retriever.AugmentPrompt(ctx, message)
	if err != nil {
		e.logger.Warn("retrieval failed, using plain message: %v", err)
		return message
	}
	if strings.TrimSpace(augmented) == "" {
		return message
	}
	return augmented
}

// basicPrompt concatenates system prompt, memory context and the user
// request. When the message already carries the user-request marker (a
// retrieval-augmented prompt), memory is spliced in before the marker.
func (e *Engine) basicPrompt(message string, ec ExecutionContext) string {
	if idx := strings.LastIndex(message, userRequestMarker); idx != -1 {
		if ec.MemoryContext == "" {
			return message
		}
		return message[:idx] + "Conversation context:\n" + ec.MemoryContext + "\n\n" + message[idx:]
	}

	var sb strings.Builder
	if ec.SystemPrompt != "" {
		sb.WriteString(ec.SystemPrompt)
		sb.WriteString("\n\n")
	}
	if ec.MemoryContext != "" {
		sb.WriteString("Conversation context:\n")
		sb.WriteString(ec.MemoryContext)
		sb.WriteString("\n\n")
	}
	sb.WriteString(userRequestMarker)
	sb.WriteString(message)
	return sb.String()
}

func (e *Engine) record(ctx context.Context, rec *RunRecord) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.RecordRun(ctx, rec); err != nil {
		e.logger.Warn("run record not persisted: %v", err)
	}
}

func marshalPlan(plan *ExecutionPlan) string {
	raw, err := json.Marshal(plan.Steps)
	if err != nil {
		return ""
	}
	return string(raw)
}
