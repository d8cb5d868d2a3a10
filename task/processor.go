package task

import (
	"context"
	"strings"

	"github.com/plankit/plankit/log"
	"github.com/plankit/plankit/model"
)

// ResponseProcessor turns a raw step trace into a conversational answer
// with one completion call.
type ResponseProcessor struct {
	model  model.Adapter
	logger log.Logger
}

// NewResponseProcessor creates a processor over the given adapter.
func NewResponseProcessor(m model.Adapter, logger log.Logger) *ResponseProcessor {
	if logger == nil {
		logger = &log.NoOpLogger{}
	}
	return &ResponseProcessor{model: m, logger: logger}
}

// Humanize asks the model to answer the original request using the trace.
// A failed completion degrades to the raw trace; callers never see an
// error from humanization.
func (rp *ResponseProcessor) Humanize(ctx context.Context, message, trace string) string {
	if strings.TrimSpace(trace) == "" {
		return trace
	}

	prompt := rp.buildPrompt(message, trace)
	answer, err := rp.model.Complete(ctx, prompt)
	if err != nil {
		rp.logger.Warn("humanization call failed, returning raw trace: %v", err)
		return trace
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		rp.logger.Warn("humanization returned empty text, returning raw trace")
		return trace
	}
	return answer
}

func (rp *ResponseProcessor) buildPrompt(message, trace string) string {
	var sb strings.Builder
	sb.WriteString("The user asked:\n")
	sb.WriteString(message)
	sb.WriteString("\n\nThe following tools were executed to answer the request:\n")
	sb.WriteString(trace)
	sb.WriteString("\n\n")
	sb.WriteString("Write a concise, conversational answer to the user based only on these results. ")
	sb.WriteString("Do not mention tools, steps or internal ids.")
	return sb.String()
}
