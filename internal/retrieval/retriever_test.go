package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/rerankd/internal/logging"
	"github.com/fyrsmithlabs/rerankd/internal/rerank"
	"github.com/fyrsmithlabs/rerankd/internal/vectorstore"
)

// fakeStore records search parameters and returns canned hits.
type fakeStore struct {
	vectorstore.Store

	hits       []vectorstore.SearchResult
	err        error
	gotQuery   string
	gotK       int
	gotColl    string
	gotFilters map[string]interface{}
}

func (f *fakeStore) Search(_ context.Context, query string, k int) ([]vectorstore.SearchResult, error) {
	f.gotQuery, f.gotK = query, k
	return f.hits, f.err
}

func (f *fakeStore) SearchWithFilters(_ context.Context, query string, k int, filters map[string]interface{}) ([]vectorstore.SearchResult, error) {
	f.gotQuery, f.gotK, f.gotFilters = query, k, filters
	return f.hits, f.err
}

func (f *fakeStore) SearchInCollection(_ context.Context, collection string, query string, k int, filters map[string]interface{}) ([]vectorstore.SearchResult, error) {
	f.gotColl, f.gotQuery, f.gotK, f.gotFilters = collection, query, k, filters
	return f.hits, f.err
}

func testLogger(t *testing.T) *logging.Logger {
	t.Helper()
	logger, err := logging.NewLogger(logging.NewDefaultConfig(), nil)
	require.NoError(t, err)
	return logger
}

func TestRetrieveSearchThenRerank(t *testing.T) {
	store := &fakeStore{
		hits: []vectorstore.SearchResult{
			{ID: "a", Content: "cooking pasta at home", Score: 0.9},
			{ID: "b", Content: "kubernetes pod scheduling", Score: 0.6},
		},
	}

	r := NewRetriever(store, rerank.NewLexicalReranker(), testLogger(t))

	results, err := r.Retrieve(context.Background(), "kubernetes scheduling", Options{TopK: 1})
	require.NoError(t, err)
	require.Len(t, results, 1)

	// Lexical rerank promotes the on-topic document past the higher
	// similarity score
	assert.Equal(t, "b", results[0].ID)
	assert.Equal(t, float32(0.6), results[0].SimilarityScore)
	assert.Greater(t, results[0].RelevanceScore, 0.0)

	assert.Equal(t, DefaultFetchK, store.gotK)
	assert.Equal(t, "kubernetes scheduling", store.gotQuery)
}

func TestRetrieveFetchKOverride(t *testing.T) {
	store := &fakeStore{}
	r := NewRetriever(store, rerank.NewLexicalReranker(), testLogger(t))

	_, err := r.Retrieve(context.Background(), "query", Options{FetchK: 50})
	require.NoError(t, err)
	assert.Equal(t, 50, store.gotK)
}

func TestRetrieveRoutesToCollectionAndFilters(t *testing.T) {
	store := &fakeStore{}
	r := NewRetriever(store, rerank.NewLexicalReranker(), testLogger(t))

	filters := map[string]interface{}{"source": "docs"}

	_, err := r.Retrieve(context.Background(), "query", Options{Collection: "notes", Filters: filters})
	require.NoError(t, err)
	assert.Equal(t, "notes", store.gotColl)
	assert.Equal(t, filters, store.gotFilters)

	store.gotColl = ""
	_, err = r.Retrieve(context.Background(), "query", Options{Filters: filters})
	require.NoError(t, err)
	assert.Empty(t, store.gotColl)
	assert.Equal(t, filters, store.gotFilters)
}

func TestRetrieveEmptyCandidates(t *testing.T) {
	r := NewRetriever(&fakeStore{}, rerank.NewLexicalReranker(), testLogger(t))

	results, err := r.Retrieve(context.Background(), "query", Options{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetrieveSearchError(t *testing.T) {
	wantErr := errors.New("store down")
	r := NewRetriever(&fakeStore{err: wantErr}, rerank.NewLexicalReranker(), testLogger(t))

	_, err := r.Retrieve(context.Background(), "query", Options{})
	assert.ErrorIs(t, err, wantErr)
}

func TestRetrieveRerankError(t *testing.T) {
	store := &fakeStore{
		hits: []vectorstore.SearchResult{{ID: "a", Content: "text", Score: 0.5}},
	}
	wantErr := &rerank.ServiceError{StatusCode: 502, Err: errors.New("bad gateway")}
	r := NewRetriever(store, &failingReranker{err: wantErr}, testLogger(t))

	_, err := r.Retrieve(context.Background(), "query", Options{})
	var svcErr *rerank.ServiceError
	assert.ErrorAs(t, err, &svcErr)
}

type failingReranker struct {
	err error
}

func (f *failingReranker) Rerank(context.Context, string, []rerank.Document, int) ([]rerank.ScoredDocument, error) {
	return nil, f.err
}

func (f *failingReranker) Close() error { return nil }
