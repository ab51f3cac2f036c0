// Package server provides the HTTP API for rerankd.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/rerankd/internal/events"
	"github.com/fyrsmithlabs/rerankd/internal/rerank"
	"github.com/fyrsmithlabs/rerankd/internal/retrieval"
	"github.com/fyrsmithlabs/rerankd/internal/vectorstore"
)

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// Server provides HTTP endpoints for reranking, compression, and
// document management.
type Server struct {
	echo      *echo.Echo
	reranker  rerank.Reranker
	retriever *retrieval.Retriever
	store     vectorstore.Store
	publisher *events.Publisher
	provider  string
	logger    *zap.Logger
	config    *Config
}

// NewServer creates a new HTTP server.
//
// store and retriever may be nil when the daemon runs in pure scoring
// mode; the document and search endpoints then return 503.
func NewServer(reranker rerank.Reranker, retriever *retrieval.Retriever, store vectorstore.Store, publisher *events.Publisher, provider string, logger *zap.Logger, cfg *Config) (*Server, error) {
	if reranker == nil {
		return nil, fmt.Errorf("reranker cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 9190,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:      e,
		reranker:  reranker,
		retriever: retriever,
		store:     store,
		publisher: publisher,
		provider:  provider,
		logger:    logger,
		config:    cfg,
	}

	s.registerRoutes()

	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	v1.POST("/rerank", s.handleRerank)
	v1.POST("/compress", s.handleCompress)
	v1.POST("/search", s.handleSearch)
	v1.POST("/documents", s.handleAddDocuments)
	v1.DELETE("/documents", s.handleDeleteDocuments)
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleRerank scores the supplied documents against the query.
func (s *Server) handleRerank(c echo.Context) error {
	var req RerankRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid rerank request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	docs := toDocuments(req.Documents)

	start := time.Now()
	results, err := s.reranker.Rerank(c.Request().Context(), req.Query, docs, req.TopK)
	if err != nil {
		s.publishEvent(events.RerankEvent{
			RequestID:     requestID(c),
			Provider:      s.provider,
			DocumentCount: len(docs),
			DurationMs:    time.Since(start).Milliseconds(),
			Error:         err.Error(),
		}, false)
		return s.mapError(err)
	}

	s.publishEvent(events.RerankEvent{
		RequestID:     requestID(c),
		Provider:      s.provider,
		DocumentCount: len(docs),
		ResultCount:   len(results),
		DurationMs:    time.Since(start).Milliseconds(),
	}, true)

	payload := make([]ScoredDocumentPayload, len(results))
	for i, sd := range results {
		payload[i] = ScoredDocumentPayload{
			ID:             sd.ID,
			Content:        sd.Content,
			Index:          sd.Index,
			RelevanceScore: sd.RelevanceScore,
			Metadata:       sd.Metadata,
		}
	}

	return c.JSON(http.StatusOK, RerankResponse{Results: payload})
}

// handleCompress reranks and rebuilds documents with relevance scores in
// their metadata.
func (s *Server) handleCompress(c echo.Context) error {
	var req CompressRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid compress request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	compressor := rerank.NewCompressor(s.reranker, req.TopK)
	compressed, err := compressor.CompressDocuments(c.Request().Context(), req.Query, toDocuments(req.Documents))
	if err != nil {
		return s.mapError(err)
	}

	payload := make([]DocumentPayload, len(compressed))
	for i, doc := range compressed {
		payload[i] = DocumentPayload{
			ID:       doc.ID,
			Content:  doc.Content,
			Score:    doc.Score,
			Metadata: doc.Metadata,
		}
	}

	return c.JSON(http.StatusOK, CompressResponse{Documents: payload})
}

// handleSearch runs the two-stage retrieval pipeline against the store.
func (s *Server) handleSearch(c echo.Context) error {
	if s.retriever == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "document store not configured")
	}

	var req SearchRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid search request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Query) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query field is required")
	}

	results, err := s.retriever.Retrieve(c.Request().Context(), req.Query, retrieval.Options{
		Collection: req.Collection,
		FetchK:     req.FetchK,
		TopK:       req.TopK,
		Filters:    req.Filters,
	})
	if err != nil {
		return s.mapError(err)
	}

	return c.JSON(http.StatusOK, SearchResponse{Results: results})
}

// handleAddDocuments indexes documents into the vector store.
func (s *Server) handleAddDocuments(c echo.Context) error {
	if s.store == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "document store not configured")
	}

	var req AddDocumentsRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid add documents request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if len(req.Documents) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "documents field is required")
	}

	docs := make([]vectorstore.Document, len(req.Documents))
	for i, d := range req.Documents {
		id := d.ID
		if id == "" {
			id = uuid.New().String()
		}
		docs[i] = vectorstore.Document{
			ID:         id,
			Content:    d.Content,
			Metadata:   d.Metadata,
			Collection: req.Collection,
		}
	}

	ids, err := s.store.AddDocuments(c.Request().Context(), docs)
	if err != nil {
		return s.mapError(err)
	}

	return c.JSON(http.StatusCreated, AddDocumentsResponse{IDs: ids})
}

// handleDeleteDocuments removes documents from the vector store.
func (s *Server) handleDeleteDocuments(c echo.Context) error {
	if s.store == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "document store not configured")
	}

	var req DeleteDocumentsRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid delete documents request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if len(req.IDs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "ids field is required")
	}

	var err error
	if req.Collection != "" {
		err = s.store.DeleteDocumentsFromCollection(c.Request().Context(), req.Collection, req.IDs)
	} else {
		err = s.store.DeleteDocuments(c.Request().Context(), req.IDs)
	}
	if err != nil {
		return s.mapError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// mapError translates domain errors into HTTP status codes: invalid
// input is the caller's fault (400), scoring backend failures surface
// as bad gateway (502).
func (s *Server) mapError(err error) error {
	switch {
	case errors.Is(err, rerank.ErrEmptyQuery),
		errors.Is(err, rerank.ErrInvalidTopK),
		errors.Is(err, rerank.ErrNilContext),
		errors.Is(err, vectorstore.ErrEmptyDocuments),
		errors.Is(err, vectorstore.ErrInvalidCollectionName):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())

	case errors.Is(err, vectorstore.ErrCollectionNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())

	case errors.Is(err, vectorstore.ErrCollectionExists):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}

	var svcErr *rerank.ServiceError
	if errors.As(err, &svcErr) {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}

	s.logger.Error("internal error", zap.Error(err))
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func (s *Server) publishEvent(event events.RerankEvent, completed bool) {
	if s.publisher == nil {
		return
	}
	var err error
	if completed {
		err = s.publisher.Completed(event)
	} else {
		err = s.publisher.Failed(event)
	}
	if err != nil {
		s.logger.Warn("publishing rerank event failed", zap.Error(err))
	}
}

func requestID(c echo.Context) string {
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

func toDocuments(payloads []DocumentPayload) []rerank.Document {
	docs := make([]rerank.Document, len(payloads))
	for i, p := range payloads {
		docs[i] = rerank.Document{
			ID:       p.ID,
			Content:  p.Content,
			Score:    p.Score,
			Metadata: p.Metadata,
		}
	}
	return docs
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}
