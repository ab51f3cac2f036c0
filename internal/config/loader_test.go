package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfigFile(t, ""))
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 9190, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout.Duration())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "lexical", cfg.Rerank.Provider)
	assert.Equal(t, "rerank-english-v3.0", cfg.Rerank.Remote.Model)
	assert.Equal(t, 30*time.Second, cfg.Rerank.Remote.Timeout.Duration())
	assert.Equal(t, 0, cfg.Rerank.Remote.MaxRetries)
	assert.Equal(t, "chromem", cfg.VectorStore.Provider)
	assert.Equal(t, 384, cfg.VectorStore.Chromem.VectorSize)
	assert.Empty(t, cfg.Events.NATSURL)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 8081
rerank:
  provider: remote
  remote:
    model: rerank-v3.5
    api_key: test-key
    max_retries: 2
vectorstore:
  provider: qdrant
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "remote", cfg.Rerank.Provider)
	assert.Equal(t, "rerank-v3.5", cfg.Rerank.Remote.Model)
	assert.Equal(t, "test-key", cfg.Rerank.Remote.APIKey.Value())
	assert.Equal(t, 2, cfg.Rerank.Remote.MaxRetries)
	assert.Equal(t, "qdrant", cfg.VectorStore.Provider)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 8081
`)
	t.Setenv("RERANKD_SERVER_PORT", "8082")
	t.Setenv("RERANKD_RERANK_PROVIDER", "remote")
	t.Setenv("RERANKD_EMBEDDINGS_BASE_URL", "http://tei:8080/v1")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8082, cfg.Server.Port)
	assert.Equal(t, "remote", cfg.Rerank.Provider)
	assert.Equal(t, "http://tei:8080/v1", cfg.Embeddings.BaseURL)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 9190, cfg.Server.Port)
}

func TestLoadRejectsWorldReadableFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 8081\n"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insecure config file permissions")
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "bad logging format",
			yaml:    "logging:\n  format: xml\n",
			wantErr: "logging format",
		},
		{
			name:    "bad rerank provider",
			yaml:    "rerank:\n  provider: quantum\n",
			wantErr: "rerank provider",
		},
		{
			name:    "bad vectorstore provider",
			yaml:    "vectorstore:\n  provider: postgres\n",
			wantErr: "vectorstore provider",
		},
		{
			name:    "negative retries",
			yaml:    "rerank:\n  provider: remote\n  remote:\n    max_retries: -1\n",
			wantErr: "max retries",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfigFile(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
