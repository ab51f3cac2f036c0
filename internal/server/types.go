package server

import "github.com/fyrsmithlabs/rerankd/internal/retrieval"

// RerankRequest is the request body for POST /api/v1/rerank.
type RerankRequest struct {
	Query     string            `json:"query"`
	Documents []DocumentPayload `json:"documents"`
	TopK      int               `json:"top_k,omitempty"`
}

// DocumentPayload is a candidate document in API requests.
type DocumentPayload struct {
	ID       string                 `json:"id,omitempty"`
	Content  string                 `json:"content"`
	Score    float32                `json:"score,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// RerankResponse is the response body for POST /api/v1/rerank.
type RerankResponse struct {
	Results []ScoredDocumentPayload `json:"results"`
}

// ScoredDocumentPayload is one ranked document in API responses.
type ScoredDocumentPayload struct {
	ID             string                 `json:"id,omitempty"`
	Content        string                 `json:"content"`
	Index          int                    `json:"index"`
	RelevanceScore float64                `json:"relevance_score"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// CompressRequest is the request body for POST /api/v1/compress.
type CompressRequest struct {
	Query     string            `json:"query"`
	Documents []DocumentPayload `json:"documents"`
	TopK      int               `json:"top_k,omitempty"`
}

// CompressResponse is the response body for POST /api/v1/compress.
// Documents come back in relevance order with relevance_score merged
// into their metadata.
type CompressResponse struct {
	Documents []DocumentPayload `json:"documents"`
}

// AddDocumentsRequest is the request body for POST /api/v1/documents.
type AddDocumentsRequest struct {
	Collection string            `json:"collection,omitempty"`
	Documents  []DocumentPayload `json:"documents"`
}

// AddDocumentsResponse is the response body for POST /api/v1/documents.
type AddDocumentsResponse struct {
	IDs []string `json:"ids"`
}

// DeleteDocumentsRequest is the request body for DELETE /api/v1/documents.
type DeleteDocumentsRequest struct {
	Collection string   `json:"collection,omitempty"`
	IDs        []string `json:"ids"`
}

// SearchRequest is the request body for POST /api/v1/search.
type SearchRequest struct {
	Query      string                 `json:"query"`
	Collection string                 `json:"collection,omitempty"`
	FetchK     int                    `json:"fetch_k,omitempty"`
	TopK       int                    `json:"top_k,omitempty"`
	Filters    map[string]interface{} `json:"filters,omitempty"`
}

// SearchResponse is the response body for POST /api/v1/search.
type SearchResponse struct {
	Results []retrieval.Result `json:"results"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}
