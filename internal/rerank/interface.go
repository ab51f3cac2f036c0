// Package rerank provides query-relevance reranking of candidate documents.
//
// A Reranker takes a query and an ordered list of candidate documents and
// returns a relevance-ranked subset. Scoring is delegated either to a
// remote scoring API (RemoteReranker) or to a local lexical heuristic
// (LexicalReranker). The Compressor wraps a Reranker to implement
// contextual compression: reducing a retrieved candidate set to its most
// relevant members, carrying relevance scores in document metadata.
package rerank

import (
	"context"
)

// RelevanceScoreKey is the reserved metadata key that carries a document's
// relevance score after compression. Any caller-supplied value under this
// key is overwritten.
const RelevanceScoreKey = "relevance_score"

// Document is a candidate for reranking: text content plus optional
// metadata. Score is the upstream similarity score when the document came
// from vector search (zero otherwise). Documents are not mutated by
// reranking.
type Document struct {
	ID       string
	Content  string
	Score    float32
	Metadata map[string]interface{}
}

// ScoredDocument is a reranked document.
type ScoredDocument struct {
	Document

	// RelevanceScore is the query relevance assigned by the scoring
	// backend. Non-negative; descending across a result list, with ties
	// preserving input order.
	RelevanceScore float64

	// Index is the document's position in the input slice.
	Index int
}

// Reranker ranks candidate documents by query relevance.
type Reranker interface {
	// Rerank scores docs against query and returns them sorted by
	// RelevanceScore descending (stable on ties), truncated to topK.
	// topK == 0 means all documents. An empty docs slice yields an empty
	// result without consulting the scoring backend.
	//
	// Fails with ErrEmptyQuery or ErrInvalidTopK on malformed input, and
	// with *ServiceError when the scoring backend fails or returns a
	// malformed response.
	Rerank(ctx context.Context, query string, docs []Document, topK int) ([]ScoredDocument, error)

	// Close releases any resources held by the reranker.
	Close() error
}
