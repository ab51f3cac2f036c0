package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const (
	defaultEndpoint    = "https://api.cohere.com"
	defaultModel       = "rerank-english-v3.0"
	defaultTimeout     = 30 * time.Second
	defaultRateLimit   = 10 // requests per second
	defaultBurst       = 5
	defaultBaseBackoff = 500 * time.Millisecond
)

// RemoteConfig configures a RemoteReranker.
type RemoteConfig struct {
	// Endpoint is the base URL of the scoring API. The client POSTs to
	// {Endpoint}/v1/rerank.
	Endpoint string

	// Model is the scoring model identifier sent with each request.
	Model string

	// APIKey authenticates requests via a bearer token. Optional for
	// unauthenticated deployments.
	APIKey string

	// Timeout bounds each HTTP attempt.
	Timeout time.Duration

	// MaxRetries is the number of additional attempts after a retryable
	// failure. Zero means a single attempt.
	MaxRetries int

	// RequestsPerSecond and Burst configure client-side rate limiting.
	RequestsPerSecond float64
	Burst             int
}

// ApplyDefaults fills in zero-valued fields.
func (c *RemoteConfig) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = defaultEndpoint
	}
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
	if c.RequestsPerSecond == 0 {
		c.RequestsPerSecond = defaultRateLimit
	}
	if c.Burst == 0 {
		c.Burst = defaultBurst
	}
}

// Validate checks the configuration for inconsistencies.
func (c *RemoteConfig) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required")
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}
	return nil
}

// RemoteReranker scores documents against a query using a remote rerank
// API (Cohere-compatible wire format). Requests are rate limited and
// transient failures are retried with exponential backoff.
type RemoteReranker struct {
	config     RemoteConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	tracer     oteltrace.Tracer
}

// NewRemoteReranker creates a RemoteReranker.
func NewRemoteReranker(cfg RemoteConfig) (*RemoteReranker, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid remote reranker config: %w", err)
	}

	return &RemoteReranker{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		tracer:  otel.Tracer("rerankd/rerank"),
	}, nil
}

// rerankRequest is the wire format of a scoring request.
type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      *int     `json:"top_n,omitempty"`
}

// rerankResponse is the wire format of a scoring response.
type rerankResponse struct {
	ID      string         `json:"id"`
	Results []rerankResult `json:"results"`
}

type rerankResult struct {
	Index          int     `json:"index"`
	RelevanceScore float64 `json:"relevance_score"`
}

type rerankAPIError struct {
	Message string `json:"message"`
}

// Rerank scores docs against query via the remote API and returns them
// sorted by relevance descending, truncated to topK.
func (r *RemoteReranker) Rerank(ctx context.Context, query string, docs []Document, topK int) ([]ScoredDocument, error) {
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

	ctx, span := r.tracer.Start(ctx, "rerank.remote",
		oteltrace.WithAttributes(
			attribute.String("rerank.model", r.config.Model),
			attribute.Int("rerank.document_count", len(docs)),
			attribute.Int("rerank.top_k", topK),
		))
	defer span.End()

	start := time.Now()
	results, err := r.score(ctx, query, docs, topK)
	observeRerank("remote", time.Since(start), len(docs), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "remote scoring failed")
		return nil, err
	}

	span.SetAttributes(attribute.Int("rerank.result_count", len(results)))
	return results, nil
}

func (r *RemoteReranker) score(ctx context.Context, query string, docs []Document, topK int) ([]ScoredDocument, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	contents := make([]string, len(docs))
	for i, doc := range docs {
		contents[i] = doc.Content
	}

	req := rerankRequest{
		Model:     r.config.Model,
		Query:     query,
		Documents: contents,
	}
	if topK > 0 && topK < len(docs) {
		req.TopN = &topK
	}

	var resp *rerankResponse
	var lastErr error
	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := defaultBaseBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		resp, lastErr = r.doRequest(ctx, req)
		if lastErr == nil {
			break
		}
		if !isRetryableError(lastErr) {
			return nil, r.wrapServiceError(lastErr)
		}
	}
	if lastErr != nil {
		return nil, r.wrapServiceError(fmt.Errorf("max retries exceeded: %w", lastErr))
	}

	return r.buildResults(resp, docs, topK, req.TopN != nil)
}

// wrapServiceError normalizes backend failures into *ServiceError,
// leaving errors already carrying one untouched.
func (r *RemoteReranker) wrapServiceError(err error) error {
	var se *ServiceError
	if errors.As(err, &se) {
		return err
	}
	return &ServiceError{Err: err}
}

// doRequest performs one HTTP attempt against the rerank endpoint.
func (r *RemoteReranker) doRequest(ctx context.Context, req rerankRequest) (*rerankResponse, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", r.config.Endpoint+"/v1/rerank", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if r.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+r.config.APIKey)
	}

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return nil, &retryableError{err: fmt.Errorf("rerank request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &retryableError{err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &retryableError{err: &ServiceError{StatusCode: resp.StatusCode, Err: fmt.Errorf("rate limited")}}
	}
	if resp.StatusCode >= 500 {
		return nil, &retryableError{err: &ServiceError{StatusCode: resp.StatusCode, Err: fmt.Errorf("server error: %s", truncateBody(body))}}
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr rerankAPIError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
			return nil, &ServiceError{StatusCode: resp.StatusCode, Err: fmt.Errorf("%s", apiErr.Message)}
		}
		return nil, &ServiceError{StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status: %s", truncateBody(body))}
	}

	var rerankResp rerankResponse
	if err := json.Unmarshal(body, &rerankResp); err != nil {
		return nil, &ServiceError{Err: fmt.Errorf("failed to parse response: %w", err)}
	}

	return &rerankResp, nil
}

// buildResults validates the response against the request and produces the
// sorted, truncated result list. A response referencing unknown documents,
// repeating a document, or omitting documents it was required to score is
// rejected rather than silently reordered.
func (r *RemoteReranker) buildResults(resp *rerankResponse, docs []Document, topK int, truncated bool) ([]ScoredDocument, error) {
	seen := make(map[int]bool, len(resp.Results))
	results := make([]ScoredDocument, 0, len(resp.Results))

	for _, res := range resp.Results {
		if res.Index < 0 || res.Index >= len(docs) {
			return nil, &ServiceError{Err: fmt.Errorf("result index %d out of range (%d documents)", res.Index, len(docs))}
		}
		if seen[res.Index] {
			return nil, &ServiceError{Err: fmt.Errorf("duplicate result index %d", res.Index)}
		}
		if res.RelevanceScore < 0 {
			return nil, &ServiceError{Err: fmt.Errorf("negative relevance score %f for index %d", res.RelevanceScore, res.Index)}
		}
		seen[res.Index] = true

		results = append(results, ScoredDocument{
			Document:       docs[res.Index],
			RelevanceScore: res.RelevanceScore,
			Index:          res.Index,
		})
	}

	if !truncated && len(results) != len(docs) {
		return nil, &ServiceError{Err: fmt.Errorf("incomplete response: %d results for %d documents", len(results), len(docs))}
	}

	// The backend may return results in any order; sort locally so
	// downstream ordering never depends on backend behavior. Score ties
	// break by original input position, not response position.
	sort.Slice(results, func(i, j int) bool {
		if results[i].RelevanceScore != results[j].RelevanceScore {
			return results[i].RelevanceScore > results[j].RelevanceScore
		}
		return results[i].Index < results[j].Index
	})

	if topK > 0 && topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}

// Close releases client resources.
func (r *RemoteReranker) Close() error {
	r.httpClient.CloseIdleConnections()
	return nil
}

func truncateBody(body []byte) string {
	const max = 512
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}

var _ Reranker = (*RemoteReranker)(nil)
