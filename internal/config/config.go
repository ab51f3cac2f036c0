// Package config provides configuration loading for rerankd.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for rerankd.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Logging     LoggingConfig     `koanf:"logging"`
	Telemetry   TelemetryConfig   `koanf:"telemetry"`
	Rerank      RerankConfig      `koanf:"rerank"`
	VectorStore VectorStoreConfig `koanf:"vectorstore"`
	Embeddings  EmbeddingsConfig  `koanf:"embeddings"`
	Events      EventsConfig      `koanf:"events"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig holds logger configuration.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format selects the encoder: json or console.
	Format string `koanf:"format"`
}

// TelemetryConfig holds OpenTelemetry export configuration.
type TelemetryConfig struct {
	Enabled bool `koanf:"enabled"`

	// Endpoint is the OTLP collector endpoint (host:port).
	Endpoint string `koanf:"endpoint"`

	// Protocol selects the OTLP transport: grpc or http.
	Protocol string `koanf:"protocol"`

	// Insecure disables TLS for the OTLP connection.
	Insecure bool `koanf:"insecure"`

	// SampleRatio is the trace sampling ratio in [0,1].
	SampleRatio float64 `koanf:"sample_ratio"`
}

// RerankConfig holds reranker configuration.
type RerankConfig struct {
	// Provider selects the reranker implementation: remote or lexical.
	Provider string `koanf:"provider"`

	Remote RemoteConfig `koanf:"remote"`
}

// RemoteConfig holds configuration for the remote scoring API.
//
// The source protocol defines no retry or timeout policy, so both are
// explicit here: Timeout bounds each HTTP attempt and MaxRetries
// defaults to 0 (a single attempt). Retries use exponential backoff
// and only fire on transport errors, 429s, and 5xx responses.
type RemoteConfig struct {
	// Endpoint is the base URL of the rerank API.
	// The client POSTs to {endpoint}/v1/rerank.
	Endpoint string `koanf:"endpoint"`

	// Model is the rerank model identifier sent with each request.
	Model string `koanf:"model"`

	// APIKey authenticates against the remote API.
	APIKey Secret `koanf:"api_key"`

	// Timeout bounds a single HTTP attempt.
	Timeout Duration `koanf:"timeout"`

	// MaxRetries is the number of additional attempts after the first.
	MaxRetries int `koanf:"max_retries"`

	// RequestsPerSecond throttles outbound calls.
	RequestsPerSecond float64 `koanf:"requests_per_second"`

	// Burst is the rate limiter burst size.
	Burst int `koanf:"burst"`
}

// VectorStoreConfig holds vector store configuration.
type VectorStoreConfig struct {
	// Provider selects the implementation: chromem (embedded) or qdrant.
	Provider string `koanf:"provider"`

	Chromem ChromemConfig `koanf:"chromem"`
	Qdrant  QdrantConfig  `koanf:"qdrant"`
}

// ChromemConfig holds configuration for the embedded chromem-go store.
type ChromemConfig struct {
	Path       string `koanf:"path"`
	Compress   bool   `koanf:"compress"`
	Collection string `koanf:"collection"`
	VectorSize int    `koanf:"vector_size"`
}

// QdrantConfig holds configuration for the Qdrant gRPC store.
type QdrantConfig struct {
	Host       string `koanf:"host"`
	Port       int    `koanf:"port"`
	Collection string `koanf:"collection"`
	VectorSize int    `koanf:"vector_size"`
	UseTLS     bool   `koanf:"use_tls"`
}

// EmbeddingsConfig holds embedding service configuration.
type EmbeddingsConfig struct {
	// BaseURL points at a TEI or OpenAI-compatible embedding API.
	BaseURL string `koanf:"base_url"`

	// Model is the embedding model name.
	Model string `koanf:"model"`

	// APIKey is required for OpenAI, optional for TEI.
	APIKey Secret `koanf:"api_key"`
}

// EventsConfig holds NATS event publishing configuration.
// Publishing is disabled unless NATSURL is set.
type EventsConfig struct {
	NATSURL string `koanf:"nats_url"`
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 9190
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Telemetry.Protocol == "" {
		cfg.Telemetry.Protocol = "grpc"
	}
	if cfg.Telemetry.Endpoint == "" {
		cfg.Telemetry.Endpoint = "localhost:4317"
	}
	if cfg.Telemetry.SampleRatio == 0 {
		cfg.Telemetry.SampleRatio = 1.0
	}

	if cfg.Rerank.Provider == "" {
		cfg.Rerank.Provider = "lexical"
	}
	if cfg.Rerank.Remote.Endpoint == "" {
		cfg.Rerank.Remote.Endpoint = "https://api.cohere.com"
	}
	if cfg.Rerank.Remote.Model == "" {
		cfg.Rerank.Remote.Model = "rerank-english-v3.0"
	}
	if cfg.Rerank.Remote.Timeout == 0 {
		cfg.Rerank.Remote.Timeout = Duration(30 * time.Second)
	}
	if cfg.Rerank.Remote.RequestsPerSecond == 0 {
		cfg.Rerank.Remote.RequestsPerSecond = 10
	}
	if cfg.Rerank.Remote.Burst == 0 {
		cfg.Rerank.Remote.Burst = 5
	}

	if cfg.VectorStore.Provider == "" {
		cfg.VectorStore.Provider = "chromem"
	}
	if cfg.VectorStore.Chromem.Path == "" {
		cfg.VectorStore.Chromem.Path = "~/.config/rerankd/vectorstore"
	}
	if cfg.VectorStore.Chromem.Collection == "" {
		cfg.VectorStore.Chromem.Collection = "rerankd_default"
	}
	if cfg.VectorStore.Chromem.VectorSize == 0 {
		cfg.VectorStore.Chromem.VectorSize = 384 // bge-small-en-v1.5 dimensions
	}
	if cfg.VectorStore.Qdrant.Host == "" {
		cfg.VectorStore.Qdrant.Host = "localhost"
	}
	if cfg.VectorStore.Qdrant.Port == 0 {
		cfg.VectorStore.Qdrant.Port = 6334
	}
	if cfg.VectorStore.Qdrant.Collection == "" {
		cfg.VectorStore.Qdrant.Collection = "rerankd_default"
	}
	if cfg.VectorStore.Qdrant.VectorSize == 0 {
		cfg.VectorStore.Qdrant.VectorSize = 384
	}

	if cfg.Embeddings.BaseURL == "" {
		cfg.Embeddings.BaseURL = "http://localhost:8080/v1"
	}
	if cfg.Embeddings.Model == "" {
		cfg.Embeddings.Model = "BAAI/bge-small-en-v1.5"
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging format must be 'json' or 'console', got %q", c.Logging.Format)
	}
	switch c.Telemetry.Protocol {
	case "grpc", "http":
	default:
		return fmt.Errorf("telemetry protocol must be 'grpc' or 'http', got %q", c.Telemetry.Protocol)
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry sample ratio must be in [0,1], got %f", c.Telemetry.SampleRatio)
	}
	switch c.Rerank.Provider {
	case "remote", "lexical":
	default:
		return fmt.Errorf("rerank provider must be 'remote' or 'lexical', got %q", c.Rerank.Provider)
	}
	if c.Rerank.Provider == "remote" {
		if c.Rerank.Remote.Endpoint == "" {
			return fmt.Errorf("rerank remote endpoint required")
		}
		if c.Rerank.Remote.Model == "" {
			return fmt.Errorf("rerank remote model required")
		}
		if c.Rerank.Remote.MaxRetries < 0 {
			return fmt.Errorf("rerank max retries cannot be negative: %d", c.Rerank.Remote.MaxRetries)
		}
	}
	switch c.VectorStore.Provider {
	case "chromem", "qdrant":
	default:
		return fmt.Errorf("vectorstore provider must be 'chromem' or 'qdrant', got %q", c.VectorStore.Provider)
	}
	return nil
}
