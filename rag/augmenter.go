package rag

import (
	"context"
	"strings"
)

// userRequestMarker must stay in sync with the execution engine's prompt
// assembly, which splices memory context in before this marker.
const userRequestMarker = "User request: "

// PromptAugmenter turns retrieval results into a context-augmented
// prompt. It satisfies the engine's ContextRetriever contract: the
// returned prompt ends with the user-request marker and the original
// message, and an empty return means "no relevant context".
type PromptAugmenter struct {
	retriever Retriever
	k         int
	header    string
}

type PromptAugmenterOption func(*PromptAugmenter)

// WithAugmenterK caps how many documents are spliced into the prompt.
func WithAugmenterK(k int) PromptAugmenterOption {
	return func(a *PromptAugmenter) {
		if k > 0 {
			a.k = k
		}
	}
}

// WithAugmenterHeader overrides the instruction line above the context.
func WithAugmenterHeader(header string) PromptAugmenterOption {
	return func(a *PromptAugmenter) {
		a.header = header
	}
}

// NewPromptAugmenter creates an augmenter over a retriever.
func NewPromptAugmenter(r Retriever, opts ...PromptAugmenterOption) *PromptAugmenter {
	a := &PromptAugmenter{
		retriever: r,
		k:         4,
		header:    "Use the following context when it is relevant to the request.",
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AugmentPrompt retrieves context for the message and assembles the
// prompt. No results yields an empty string so the caller can fall back
// to the plain message.
func (a *PromptAugmenter) AugmentPrompt(ctx context.Context, message string) (string, error) {
	results, err := a.retriever.RetrieveWithK(ctx, message, a.k)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString(a.header)
	sb.WriteString("\n\nContext:\n")
	for _, res := range results {
		sb.WriteString("- ")
		sb.WriteString(strings.TrimSpace(res.Document.Content))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(userRequestMarker)
	sb.WriteString(message)
	return sb.String(), nil
}
