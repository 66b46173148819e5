// Package store persists embedded chunks and answers nearest-neighbor
// queries against the current corpus generation.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/skyops/airman/internal/models"
)

var (
	// ErrStoreUnavailable is returned when no corpus generation has been
	// ingested yet.
	ErrStoreUnavailable = errors.New("vector store has no ingested corpus")

	// ErrModelMismatch is returned when a query vector was produced by a
	// different embedding model than the stored corpus.
	ErrModelMismatch = errors.New("embedding model does not match stored corpus")
)

// Hit is a single retrieved chunk with its similarity score.
type Hit struct {
	ID     string
	Source string
	Text   string
	Score  float64
}

// Status describes the current corpus generation.
type Status struct {
	GenerationID string    `json:"generation_id"`
	ModelID      string    `json:"model_id"`
	Dimensions   int       `json:"dimensions"`
	ChunkCount   int       `json:"chunk_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store is the vector store contract. Rebuild atomically replaces the
// whole corpus; concurrent Query calls observe either the old or the new
// generation, never a mix.
type Store interface {
	Rebuild(ctx context.Context, modelID string, dimensions int, chunks []models.Chunk) error
	Query(ctx context.Context, modelID string, query []float32, k int) ([]Hit, error)
	Status(ctx context.Context) (*Status, error)
	Close() error
}
