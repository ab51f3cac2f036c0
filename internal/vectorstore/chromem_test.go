package vectorstore

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// hashEmbedder produces deterministic unit vectors from token hashes so
// identical texts embed identically and similar texts land close together.
type hashEmbedder struct {
	dims int
}

func (e *hashEmbedder) embed(text string) []float32 {
	vec := make([]float32, e.dims)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(token))
		vec[int(h.Sum32())%e.dims] += 1
	}
	// Normalize so cosine similarity behaves
	var norm float32
	for _, v := range vec {
		norm += v * v
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(float64(norm)))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec
}

func (e *hashEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.embed(t)
	}
	return out, nil
}

func (e *hashEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return e.embed(text), nil
}

func newTestStore(t *testing.T) *ChromemStore {
	t.Helper()
	store, err := NewChromemStore(ChromemConfig{
		Path:       t.TempDir(),
		VectorSize: 16,
	}, &hashEmbedder{dims: 16}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestChromemAddAndSearch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	docs := []Document{
		{ID: "go", Content: "golang concurrency channels goroutines", Metadata: map[string]interface{}{"lang": "go"}},
		{ID: "py", Content: "python asyncio event loop coroutines", Metadata: map[string]interface{}{"lang": "python"}},
		{ID: "rs", Content: "rust ownership borrow checker lifetimes"},
	}

	ids, err := store.AddDocuments(ctx, docs)
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "py", "rs"}, ids)

	results, err := store.Search(ctx, "golang goroutines channels", 2)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "go", results[0].ID)
	assert.Equal(t, "go", results[0].Metadata["lang"])
}

func TestChromemSearchWithFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.AddDocuments(ctx, []Document{
		{ID: "a", Content: "concurrency patterns", Metadata: map[string]interface{}{"lang": "go"}},
		{ID: "b", Content: "concurrency patterns", Metadata: map[string]interface{}{"lang": "python"}},
	})
	require.NoError(t, err)

	results, err := store.SearchWithFilters(ctx, "concurrency patterns", 2, map[string]interface{}{"lang": "python"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b", results[0].ID)
}

func TestChromemAddDocumentsValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.AddDocuments(ctx, nil)
	assert.ErrorIs(t, err, ErrEmptyDocuments)

	_, err = store.AddDocuments(ctx, []Document{
		{ID: "a", Content: "x", Collection: "col_one"},
		{ID: "b", Content: "y", Collection: "col_two"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch targets")
}

func TestChromemSearchValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Search(ctx, "", 5)
	require.Error(t, err)

	_, err = store.Search(ctx, "query", 0)
	require.Error(t, err)

	_, err = store.SearchInCollection(ctx, "No-Such-Name!", "query", 5, nil)
	assert.ErrorIs(t, err, ErrInvalidCollectionName)

	_, err = store.SearchInCollection(ctx, "missing_collection", "query", 5, nil)
	assert.ErrorIs(t, err, ErrCollectionNotFound)
}

func TestChromemDeleteDocuments(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.AddDocuments(ctx, []Document{
		{ID: "keep", Content: "alpha"},
		{ID: "drop", Content: "beta"},
	})
	require.NoError(t, err)

	require.NoError(t, store.DeleteDocuments(ctx, []string{"drop"}))

	info, err := store.GetCollectionInfo(ctx, "rerankd_default")
	require.NoError(t, err)
	assert.Equal(t, 1, info.PointCount)

	// Deleting nothing is a no-op
	require.NoError(t, store.DeleteDocuments(ctx, nil))
}

func TestChromemCollectionLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateCollection(ctx, "my_collection", 16))
	assert.ErrorIs(t, store.CreateCollection(ctx, "my_collection", 16), ErrCollectionExists)

	exists, err := store.CollectionExists(ctx, "my_collection")
	require.NoError(t, err)
	assert.True(t, exists)

	names, err := store.ListCollections(ctx)
	require.NoError(t, err)
	assert.Contains(t, names, "my_collection")

	require.NoError(t, store.DeleteCollection(ctx, "my_collection"))
	exists, err = store.CollectionExists(ctx, "my_collection")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestChromemCreateCollectionVectorSizeMismatch(t *testing.T) {
	store := newTestStore(t)

	err := store.CreateCollection(context.Background(), "wrong_size", 999)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match")
}

func TestValidateCollectionName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "rerankd_default", false},
		{"valid with digits", "docs_v2", false},
		{"empty", "", true},
		{"uppercase", "Docs", true},
		{"path traversal", "../etc", true},
		{"spaces", "my docs", true},
		{"too long", strings.Repeat("a", 65), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCollectionName(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCollectionName)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewChromemStoreRequiresEmbedder(t *testing.T) {
	_, err := NewChromemStore(ChromemConfig{Path: t.TempDir()}, nil, zap.NewNop())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
