// Package embedding provides text embedding clients and caching.
package embedding

import "context"

// Embedder produces vector embeddings for text. ModelID identifies the
// embedding model; the store persists it at ingest time and rejects
// queries embedded under a different model.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	ModelID() string
	Close() error
}
