// Rerankd is a document reranking daemon with an HTTP API.
//
// It scores candidate documents against a query, either with a remote
// rerank API (Cohere-compatible) or a local lexical scorer, and can run
// a full two-stage retrieval pipeline on top of an embedded or remote
// vector store.
//
// Configuration is loaded from ~/.config/rerankd/config.yaml and
// RERANKD_* environment variables. See internal/config for details.
//
// Usage:
//
//	# Start the daemon with defaults
//	rerankd
//
//	# Configure via environment
//	RERANKD_SERVER_PORT=9191 RERANKD_RERANK_PROVIDER=remote rerankd
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/rerankd/internal/config"
	"github.com/fyrsmithlabs/rerankd/internal/embeddings"
	"github.com/fyrsmithlabs/rerankd/internal/events"
	"github.com/fyrsmithlabs/rerankd/internal/logging"
	"github.com/fyrsmithlabs/rerankd/internal/rerank"
	"github.com/fyrsmithlabs/rerankd/internal/retrieval"
	"github.com/fyrsmithlabs/rerankd/internal/server"
	"github.com/fyrsmithlabs/rerankd/internal/telemetry"
	"github.com/fyrsmithlabs/rerankd/internal/vectorstore"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default ~/.config/rerankd/config.yaml)")
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  rerankd           Start the rerankd daemon\n")
			fmt.Fprintf(os.Stderr, "  rerankd version   Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("rerankd\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the rerankd server and blocks until context is cancelled.
//
// This function initializes all dependencies:
//  1. Loads and validates configuration
//  2. Initializes logger and telemetry
//  3. Creates the embedding service and vector store
//  4. Creates the configured reranker (remote or lexical)
//  5. Connects the NATS event publisher (if configured)
//  6. Wires the retrieval pipeline and HTTP server
//  7. Performs graceful shutdown on context cancellation
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync() // Best-effort sync on shutdown
	}()

	logger.Info(ctx, "Starting rerankd",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.String("rerank_provider", cfg.Rerank.Provider),
		zap.String("vectorstore_provider", cfg.VectorStore.Provider),
		zap.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout.Duration()))

	tel, err := initTelemetry(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
		defer shutdownCancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Warn(shutdownCtx, "Telemetry shutdown incomplete", zap.Error(err))
		}
	}()

	deps, err := initDependencies(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer deps.Close(logger)

	logger.Info(ctx, "Dependencies initialized",
		zap.Bool("vectorstore_ready", deps.store != nil),
		zap.Bool("events_enabled", deps.publisher != nil),
		zap.Bool("telemetry_enabled", tel.IsEnabled()))

	srv, err := server.NewServer(
		deps.reranker,
		deps.retriever,
		deps.store,
		deps.publisher,
		cfg.Rerank.Provider,
		logger.Underlying(),
		&server.Config{Host: cfg.Server.Host, Port: cfg.Server.Port},
	)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	logger.Info(ctx, "Server configured",
		zap.String("health_endpoint", fmt.Sprintf("http://%s:%d/health", cfg.Server.Host, cfg.Server.Port)),
		zap.String("api_prefix", "/api/v1"),
		zap.String("metrics_endpoint", "/metrics"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

// dependencies holds all infrastructure dependencies.
type dependencies struct {
	reranker  rerank.Reranker
	store     vectorstore.Store
	retriever *retrieval.Retriever
	publisher *events.Publisher
}

// Close releases all infrastructure resources.
func (d *dependencies) Close(logger *logging.Logger) {
	ctx := context.Background()
	if d.publisher != nil {
		if err := d.publisher.Close(); err != nil {
			logger.Warn(ctx, "Closing event publisher failed", zap.Error(err))
		}
	}
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			logger.Warn(ctx, "Closing vector store failed", zap.Error(err))
		}
	}
	if d.reranker != nil {
		if err := d.reranker.Close(); err != nil {
			logger.Warn(ctx, "Closing reranker failed", zap.Error(err))
		}
	}
}

// initLogger initializes the structured logger.
func initLogger(cfg *config.Config) (*logging.Logger, error) {
	level, err := logging.LevelFromString(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	return logging.NewLogger(&logging.Config{
		Level:  level,
		Format: cfg.Logging.Format,
	}, nil)
}

// initTelemetry initializes OTLP trace and metric export.
func initTelemetry(ctx context.Context, cfg *config.Config) (*telemetry.Telemetry, error) {
	tcfg := telemetry.NewDefaultConfig()
	tcfg.Enabled = cfg.Telemetry.Enabled
	tcfg.Endpoint = cfg.Telemetry.Endpoint
	tcfg.Protocol = cfg.Telemetry.Protocol
	tcfg.Insecure = cfg.Telemetry.Insecure
	tcfg.SampleRatio = cfg.Telemetry.SampleRatio
	tcfg.ServiceVersion = version
	return telemetry.New(ctx, tcfg)
}

// initDependencies creates the reranker, vector store, retrieval
// pipeline, and event publisher.
//
// Vector store initialization is best-effort: if the embedding service
// or store cannot be created, rerankd still serves the rerank and
// compress endpoints and the storage endpoints return 503.
func initDependencies(cfg *config.Config, logger *logging.Logger) (*dependencies, error) {
	ctx := context.Background()

	reranker, err := initReranker(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create reranker: %w", err)
	}

	deps := &dependencies{reranker: reranker}

	store, err := initStore(cfg, logger)
	if err != nil {
		logger.Warn(ctx, "Vector store unavailable, storage endpoints disabled", zap.Error(err))
	} else {
		deps.store = store
		deps.retriever = retrieval.NewRetriever(store, reranker, logger)
	}

	publisher, err := events.NewPublisher(cfg.Events.NATSURL, logger.Underlying())
	if err != nil {
		deps.Close(logger)
		return nil, fmt.Errorf("failed to connect event publisher: %w", err)
	}
	deps.publisher = publisher

	return deps, nil
}

// initReranker creates the configured reranker implementation.
func initReranker(cfg *config.Config) (rerank.Reranker, error) {
	switch cfg.Rerank.Provider {
	case "remote":
		return rerank.NewRemoteReranker(rerank.RemoteConfig{
			Endpoint:          cfg.Rerank.Remote.Endpoint,
			Model:             cfg.Rerank.Remote.Model,
			APIKey:            cfg.Rerank.Remote.APIKey.Value(),
			Timeout:           cfg.Rerank.Remote.Timeout.Duration(),
			MaxRetries:        cfg.Rerank.Remote.MaxRetries,
			RequestsPerSecond: cfg.Rerank.Remote.RequestsPerSecond,
			Burst:             cfg.Rerank.Remote.Burst,
		})
	case "lexical":
		return rerank.NewLexicalReranker(), nil
	default:
		return nil, fmt.Errorf("unsupported rerank provider: %s", cfg.Rerank.Provider)
	}
}

// initStore creates the embedding service and vector store.
func initStore(cfg *config.Config, logger *logging.Logger) (vectorstore.Store, error) {
	embeddingSvc, err := embeddings.NewService(embeddings.Config{
		BaseURL: cfg.Embeddings.BaseURL,
		Model:   cfg.Embeddings.Model,
		APIKey:  cfg.Embeddings.APIKey.Value(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding service: %w", err)
	}

	return vectorstore.NewStore(cfg, embeddingSvc.Embedder(), logger.Underlying())
}
