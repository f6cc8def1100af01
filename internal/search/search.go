// Package search is the query façade over the vector store: it embeds the
// query text and delegates to the store's ranked search. It holds no state
// beyond its injected collaborators.
package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/semscout/semscout/internal/embedder"
	"github.com/semscout/semscout/internal/store"
	"github.com/semscout/semscout/pkg/types"
)

// Engine answers ranked similarity queries.
type Engine struct {
	store    *store.Store
	embedder embedder.Embedder
	logger   *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets a logger for query debug events.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates a query engine over the given store and embedding provider.
func New(st *store.Store, emb embedder.Embedder, opts ...Option) *Engine {
	e := &Engine{store: st, embedder: emb, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search embeds text and returns the ranked matches. Malformed options are
// rejected before any embedding call; an embedding failure propagates as a
// failed search with no partial result list.
func (e *Engine) Search(ctx context.Context, text string, opts types.SearchOptions) ([]types.SearchResult, error) {
	if err := opts.Normalize(); err != nil {
		return nil, err
	}

	query, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := e.store.Search(query, opts)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("search completed",
		zap.Int("results", len(results)), zap.Int("top_k", opts.TopK), zap.Float64("threshold", opts.Threshold))
	return results, nil
}
