// Package search retrieves the chunks most similar to a query and assembles
// chat-turn context from them.
package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/docsy/internal/config"
	"github.com/hyperjump/docsy/internal/embedding"
	"github.com/hyperjump/docsy/internal/models"
	"github.com/hyperjump/docsy/internal/vector"
)

// Engine runs semantic retrieval over the vector index. Results come back in
// the index's order; nothing is reranked.
type Engine struct {
	embedder    embedding.Embedder
	vectorIndex vector.VectorIndex
	config      config.RetrievalConfig
	logger      *zap.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates a search engine with the given dependencies. Zero limits
// in cfg fall back to the package defaults.
func NewEngine(embedder embedding.Embedder, vectorIndex vector.VectorIndex, cfg config.RetrievalConfig, opts ...EngineOption) *Engine {
	if cfg.ChatLimit <= 0 {
		cfg.ChatLimit = config.DefaultChatLimit
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = config.DefaultSearchLimit
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = config.DefaultMaxLimit
	}
	e := &Engine{
		embedder:    embedder,
		vectorIndex: vectorIndex,
		config:      cfg,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	return e
}

// Retrieve embeds the query and returns up to query.Limit chunks from the
// query's notebook, optionally restricted to query.DocumentIDs. An empty
// result is not an error.
func (e *Engine) Retrieve(ctx context.Context, query *models.SearchQuery) ([]*models.SearchResult, error) {
	if err := ProcessQuery(query, e.config); err != nil {
		return nil, err
	}

	queryEmbedding, err := e.embedder.Embed(ctx, query.Query)
	if err != nil {
		return nil, fmt.Errorf("embedding failed: %w", err)
	}

	filter := vector.Filter{NotebookID: query.NotebookID, DocumentIDs: query.DocumentIDs}
	hits, err := e.vectorIndex.Search(ctx, queryEmbedding, filter, query.Limit)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	results := make([]*models.SearchResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, models.ResultFromPayload(h.ID, h.Score, h.Payload))
	}
	e.logger.Debug("search retrieved chunks",
		zap.String("notebook_id", query.NotebookID),
		zap.Int("limit", query.Limit),
		zap.Int("results", len(results)))
	return results, nil
}

// Search wraps Retrieve in the response envelope returned by the HTTP API.
func (e *Engine) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	startTime := time.Now()
	results, err := e.Retrieve(ctx, query)
	if err != nil {
		return nil, err
	}
	return &models.SearchResponse{
		Success:   true,
		Results:   results,
		Query:     query.Query,
		QueryTime: time.Since(startTime).Milliseconds(),
	}, nil
}
