// Package retrieval turns questions into retrieved passages and grounded
// answers.
package retrieval

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/skyops/airman/internal/embedding"
	"github.com/skyops/airman/internal/models"
	"github.com/skyops/airman/internal/store"
)

// Retriever embeds a query and finds the most similar corpus chunks.
type Retriever struct {
	embedder embedding.Embedder
	store    store.Store
	logger   *zap.Logger
}

// NewRetriever wires a retriever over the given embedder and store.
func NewRetriever(emb embedding.Embedder, st store.Store, logger *zap.Logger) *Retriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{embedder: emb, store: st, logger: logger}
}

// Retrieve returns up to k passages most similar to the query, in
// non-increasing score order. k must be at least 1. Fewer than k passages
// are returned when the corpus is smaller than k.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]models.RetrievedPassage, error) {
	if k < 1 {
		return nil, fmt.Errorf("top-k must be at least 1, got %d", k)
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := r.store.Query(ctx, r.embedder.ModelID(), vec, k)
	if err != nil {
		return nil, err
	}

	passages := make([]models.RetrievedPassage, 0, len(hits))
	for _, h := range hits {
		passages = append(passages, models.RetrievedPassage{
			Text:   h.Text,
			Source: h.Source,
			Score:  h.Score,
		})
	}

	r.logger.Debug("retrieved passages",
		zap.Int("requested", k),
		zap.Int("returned", len(passages)))
	return passages, nil
}
