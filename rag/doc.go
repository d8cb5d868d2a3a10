// Package rag supplies retrieval-augmented context to the execution
// engine. The Retriever interface finds relevant documents; the
// PromptAugmenter assembles them into a prompt the engine can hand to
// the model.
package rag
