package rerank

import (
	"context"
	"sort"
	"strings"
	"time"
)

// LexicalReranker ranks documents by term overlap with the query, blended
// with the upstream similarity score. It needs no network access and
// serves as the offline fallback when no remote scoring API is
// configured.
type LexicalReranker struct{}

// NewLexicalReranker creates a new LexicalReranker.
func NewLexicalReranker() *LexicalReranker {
	return &LexicalReranker{}
}

// Rerank ranks docs by a blend of the upstream score (50%) and the
// fraction of query terms found in the document (50%). A query that
// tokenizes to nothing (stopwords only) falls back to ranking by the
// upstream score alone.
func (r *LexicalReranker) Rerank(ctx context.Context, query string, docs []Document, topK int) ([]ScoredDocument, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if topK < 0 {
		return nil, ErrInvalidTopK
	}
	if len(docs) == 0 {
		return []ScoredDocument{}, nil
	}

	start := time.Now()

	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		results := fallbackRank(docs, topK)
		observeRerank("lexical", time.Since(start), len(docs), nil)
		return results, nil
	}

	const originalWeight = 0.5
	const overlapWeight = 0.5

	results := make([]ScoredDocument, len(docs))
	for i, doc := range docs {
		overlap := termOverlap(queryTokens, tokenize(doc.Content))
		results[i] = ScoredDocument{
			Document:       doc,
			RelevanceScore: originalWeight*float64(doc.Score) + overlapWeight*overlap,
			Index:          i,
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RelevanceScore > results[j].RelevanceScore
	})

	if topK > 0 && topK < len(results) {
		results = results[:topK]
	}
	observeRerank("lexical", time.Since(start), len(docs), nil)
	return results, nil
}

// Close closes the reranker. LexicalReranker has no resources to clean up.
func (r *LexicalReranker) Close() error {
	return nil
}

// tokenize splits text into lowercase terms, filtering out stopwords and
// tokens shorter than three characters.
func tokenize(text string) []string {
	text = strings.ToLower(text)
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return !isAlphanumeric(r)
	})

	filtered := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if !isStopword(token) && len(token) > 2 {
			filtered = append(filtered, token)
		}
	}
	return filtered
}

// isAlphanumeric returns true if the rune is alphanumeric or underscore.
func isAlphanumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9') || r == '_'
}

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "from": true, "as": true, "is": true, "was": true,
	"are": true, "be": true, "been": true, "being": true, "have": true, "has": true,
	"had": true, "do": true, "does": true, "did": true, "will": true, "would": true,
	"could": true, "should": true, "may": true, "might": true, "can": true, "this": true,
	"that": true, "these": true, "those": true, "i": true, "you": true, "he": true,
	"she": true, "it": true, "we": true, "they": true, "what": true, "which": true,
	"who": true, "when": true, "where": true, "why": true, "how": true,
}

// isStopword returns true if the token is a common English stopword.
func isStopword(token string) bool {
	return stopwords[token]
}

// termOverlap returns the fraction of unique query terms present in the
// document tokens, between 0.0 and 1.0.
func termOverlap(queryTokens, docTokens []string) float64 {
	if len(queryTokens) == 0 {
		return 0.0
	}

	docTokenSet := make(map[string]bool, len(docTokens))
	for _, token := range docTokens {
		docTokenSet[token] = true
	}

	// Duplicate query terms count once, in both numerator and denominator.
	querySet := make(map[string]bool, len(queryTokens))
	for _, token := range queryTokens {
		querySet[token] = true
	}

	matchCount := 0
	for token := range querySet {
		if docTokenSet[token] {
			matchCount++
		}
	}
	return float64(matchCount) / float64(len(querySet))
}

// fallbackRank ranks documents by their upstream score when lexical
// scoring cannot proceed.
func fallbackRank(docs []Document, topK int) []ScoredDocument {
	results := make([]ScoredDocument, len(docs))
	for i, doc := range docs {
		results[i] = ScoredDocument{
			Document:       doc,
			RelevanceScore: float64(doc.Score),
			Index:          i,
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RelevanceScore > results[j].RelevanceScore
	})

	if topK > 0 && topK < len(results) {
		results = results[:topK]
	}
	return results
}

var _ Reranker = (*LexicalReranker)(nil)
