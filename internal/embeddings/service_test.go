package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:   "valid",
			config: Config{BaseURL: "http://localhost:8080/v1", Model: "BAAI/bge-small-en-v1.5"},
		},
		{
			name:    "missing base URL",
			config:  Config{Model: "BAAI/bge-small-en-v1.5"},
			wantErr: true,
		},
		{
			name:    "missing model",
			config:  Config{BaseURL: "http://localhost:8080/v1"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewServiceRejectsInvalidConfig(t *testing.T) {
	_, err := NewService(Config{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

// newStubEmbeddingServer serves an OpenAI-compatible /embeddings endpoint
// returning fixed three-dimensional vectors.
func newStubEmbeddingServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		type embeddingData struct {
			Object    string    `json:"object"`
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		}
		data := make([]embeddingData, len(req.Input))
		for i := range req.Input {
			data[i] = embeddingData{
				Object:    "embedding",
				Index:     i,
				Embedding: []float32{0.1, 0.2, float32(i)},
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"object": "list",
			"data":   data,
			"model":  "test-model",
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestEmbed(t *testing.T) {
	srv := newStubEmbeddingServer(t)

	svc, err := NewService(Config{BaseURL: srv.URL, Model: "test-model"})
	require.NoError(t, err)

	vectors, err := svc.Embed(context.Background(), []string{"first text", "second text"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Len(t, vectors[0], 3)
	assert.NotEqual(t, vectors[0], vectors[1])
}

func TestEmbedEmptyInput(t *testing.T) {
	srv := newStubEmbeddingServer(t)

	svc, err := NewService(Config{BaseURL: srv.URL, Model: "test-model"})
	require.NoError(t, err)

	_, err = svc.Embed(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = svc.EmbedQuery(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestEmbedQuery(t *testing.T) {
	srv := newStubEmbeddingServer(t)

	svc, err := NewService(Config{BaseURL: srv.URL, Model: "test-model"})
	require.NoError(t, err)

	vector, err := svc.EmbedQuery(context.Background(), "what is reranking")
	require.NoError(t, err)
	assert.Len(t, vector, 3)
	assert.NotNil(t, svc.Embedder())
}
