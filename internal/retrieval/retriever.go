// Package retrieval implements two-stage retrieval: a wide vector search
// fetches candidates, then a reranker orders them by query relevance.
package retrieval

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/rerankd/internal/logging"
	"github.com/fyrsmithlabs/rerankd/internal/rerank"
	"github.com/fyrsmithlabs/rerankd/internal/vectorstore"
)

// DefaultFetchK is how many candidates the first stage fetches when the
// caller doesn't specify. Over-fetching gives the reranker room to
// reorder; the second stage truncates to topK.
const DefaultFetchK = 20

// Options tunes one retrieval call.
type Options struct {
	// Collection overrides the store's default collection when set.
	Collection string

	// FetchK is the first-stage candidate count. Zero means DefaultFetchK.
	FetchK int

	// TopK bounds the final result count. Zero means all candidates.
	TopK int

	// Filters restrict candidates by metadata equality.
	Filters map[string]interface{}
}

// Result is a reranked retrieval hit.
type Result struct {
	ID              string                 `json:"id"`
	Content         string                 `json:"content"`
	SimilarityScore float32                `json:"similarity_score"`
	RelevanceScore  float64                `json:"relevance_score"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
}

// Retriever runs the search-then-rerank pipeline.
type Retriever struct {
	store    vectorstore.Store
	reranker rerank.Reranker
	logger   *logging.Logger
	tracer   oteltrace.Tracer
}

// NewRetriever creates a Retriever.
func NewRetriever(store vectorstore.Store, reranker rerank.Reranker, logger *logging.Logger) *Retriever {
	return &Retriever{
		store:    store,
		reranker: reranker,
		logger:   logger,
		tracer:   otel.Tracer("rerankd/retrieval"),
	}
}

// Retrieve searches the vector store for candidates and reranks them by
// query relevance. The returned results are ordered by relevance
// descending, at most opts.TopK of them.
func (r *Retriever) Retrieve(ctx context.Context, query string, opts Options) ([]Result, error) {
	requestID := uuid.New().String()
	ctx = logging.WithRequestID(ctx, requestID)

	ctx, span := r.tracer.Start(ctx, "retrieval.retrieve",
		oteltrace.WithAttributes(
			attribute.String("retrieval.request_id", requestID),
			attribute.Int("retrieval.fetch_k", opts.FetchK),
			attribute.Int("retrieval.top_k", opts.TopK),
		))
	defer span.End()

	fetchK := opts.FetchK
	if fetchK <= 0 {
		fetchK = DefaultFetchK
	}

	var hits []vectorstore.SearchResult
	var err error
	if opts.Collection != "" {
		hits, err = r.store.SearchInCollection(ctx, opts.Collection, query, fetchK, opts.Filters)
	} else if len(opts.Filters) > 0 {
		hits, err = r.store.SearchWithFilters(ctx, query, fetchK, opts.Filters)
	} else {
		hits, err = r.store.Search(ctx, query, fetchK)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		return nil, fmt.Errorf("searching candidates: %w", err)
	}

	if len(hits) == 0 {
		return []Result{}, nil
	}

	docs := make([]rerank.Document, len(hits))
	for i, hit := range hits {
		docs[i] = rerank.Document{
			ID:       hit.ID,
			Content:  hit.Content,
			Score:    hit.Score,
			Metadata: hit.Metadata,
		}
	}

	ranked, err := r.reranker.Rerank(ctx, query, docs, opts.TopK)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rerank failed")
		return nil, fmt.Errorf("reranking candidates: %w", err)
	}

	results := make([]Result, len(ranked))
	for i, sd := range ranked {
		results[i] = Result{
			ID:              sd.ID,
			Content:         sd.Content,
			SimilarityScore: sd.Score,
			RelevanceScore:  sd.RelevanceScore,
			Metadata:        sd.Metadata,
		}
	}

	span.SetAttributes(
		attribute.Int("retrieval.candidate_count", len(hits)),
		attribute.Int("retrieval.result_count", len(results)),
	)

	r.logger.Debug(ctx, "retrieval complete",
		zap.String("query_prefix", truncateQuery(query)),
		zap.Int("candidates", len(hits)),
		zap.Int("results", len(results)),
	)

	return results, nil
}

func truncateQuery(query string) string {
	const max = 64
	if len(query) > max {
		return query[:max]
	}
	return query
}
