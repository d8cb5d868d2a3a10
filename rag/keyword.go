package rag

import (
	"context"
	"sort"
	"strings"
	"sync"
	"unicode"
)

// KeywordRetriever scores documents by query-term overlap. It needs no
// embedding model, which keeps the retrieval tier dependency-free for
// deployments without a vector store.
type KeywordRetriever struct {
	mu   sync.RWMutex
	docs []Document

	k         int
	threshold float64
}

var _ Retriever = (*KeywordRetriever)(nil)

type KeywordRetrieverOption func(*KeywordRetriever)

// WithDefaultK sets the default result count, default 4.
func WithDefaultK(k int) KeywordRetrieverOption {
	return func(r *KeywordRetriever) {
		if k > 0 {
			r.k = k
		}
	}
}

// WithScoreThreshold drops results scoring below the threshold.
func WithScoreThreshold(threshold float64) KeywordRetrieverOption {
	return func(r *KeywordRetriever) {
		r.threshold = threshold
	}
}

// NewKeywordRetriever creates an empty retriever.
func NewKeywordRetriever(opts ...KeywordRetrieverOption) *KeywordRetriever {
	r := &KeywordRetriever{k: 4}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add indexes documents.
func (r *KeywordRetriever) Add(docs ...Document) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs = append(r.docs, docs...)
}

// AddText indexes a plain text snippet.
func (r *KeywordRetriever) AddText(content string) {
	r.Add(NewDocument(content, nil))
}

// Retrieve returns the top results using the default k.
func (r *KeywordRetriever) Retrieve(ctx context.Context, query string) ([]SearchResult, error) {
	return r.RetrieveWithK(ctx, query, r.k)
}

// RetrieveWithK scores every document against the query terms and returns
// the best k above the threshold.
func (r *KeywordRetriever) RetrieveWithK(_ context.Context, query string, k int) ([]SearchResult, error) {
	terms := tokenize(query)
	if len(terms) == 0 {
		return nil, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]SearchResult, 0, len(r.docs))
	for _, doc := range r.docs {
		score := overlapScore(terms, tokenize(doc.Content))
		if score > 0 && score >= r.threshold {
			results = append(results, SearchResult{Document: doc, Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// overlapScore is the fraction of query terms present in the document.
func overlapScore(queryTerms, docTerms []string) float64 {
	docSet := make(map[string]struct{}, len(docTerms))
	for _, t := range docTerms {
		docSet[t] = struct{}{}
	}

	matched := 0
	for _, t := range queryTerms {
		if _, ok := docSet[t]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(queryTerms))
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
