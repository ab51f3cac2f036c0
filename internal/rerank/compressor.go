package rerank

import "context"

// Compressor reduces a retrieved candidate set to its most relevant
// members. It delegates scoring to a Reranker and rebuilds the surviving
// documents in ranked order, recording each document's relevance under
// RelevanceScoreKey in its metadata.
type Compressor struct {
	reranker Reranker
	topK     int
}

// NewCompressor creates a Compressor. topK bounds the compressed set
// size; zero keeps all documents.
func NewCompressor(reranker Reranker, topK int) *Compressor {
	return &Compressor{reranker: reranker, topK: topK}
}

// CompressDocuments reranks docs against query and returns the top
// documents in relevance order. Input documents are not mutated; each
// returned document carries a fresh metadata map with the relevance
// score added. A caller-supplied value under RelevanceScoreKey is
// overwritten.
func (c *Compressor) CompressDocuments(ctx context.Context, query string, docs []Document) ([]Document, error) {
	ranked, err := c.reranker.Rerank(ctx, query, docs, c.topK)
	if err != nil {
		return nil, err
	}

	compressed := make([]Document, len(ranked))
	for i, sd := range ranked {
		metadata := make(map[string]interface{}, len(sd.Metadata)+1)
		for k, v := range sd.Metadata {
			metadata[k] = v
		}
		metadata[RelevanceScoreKey] = sd.RelevanceScore

		compressed[i] = Document{
			ID:       sd.ID,
			Content:  sd.Content,
			Score:    sd.Score,
			Metadata: metadata,
		}
	}
	return compressed, nil
}

// Close closes the underlying reranker.
func (c *Compressor) Close() error {
	return c.reranker.Close()
}
