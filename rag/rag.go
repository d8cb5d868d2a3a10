package rag

import (
	"context"

	"github.com/google/uuid"
)

// Document is one retrievable piece of context.
type Document struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// NewDocument creates a document with a fresh id.
func NewDocument(content string, metadata map[string]any) Document {
	return Document{
		ID:       uuid.NewString(),
		Content:  content,
		Metadata: metadata,
	}
}

// SearchResult is a retrieved document with its relevance score.
type SearchResult struct {
	Document Document
	Score    float64
}

// Retriever finds documents relevant to a query.
type Retriever interface {
	// Retrieve returns the top results using the retriever's default k.
	Retrieve(ctx context.Context, query string) ([]SearchResult, error)

	// RetrieveWithK returns at most k results.
	RetrieveWithK(ctx context.Context, query string, k int) ([]SearchResult, error)
}
