package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/skyops/airman/internal/embedding"
	"github.com/skyops/airman/internal/loader"
	"github.com/skyops/airman/internal/models"
	"github.com/skyops/airman/internal/store"
)

// embedBatchSize bounds how many chunks go to the embedding backend in
// one request.
const embedBatchSize = 32

// Pipeline runs the offline indexing pass: load documents, chunk them,
// embed every chunk, and atomically rebuild the vector store.
type Pipeline struct {
	loader   *loader.Loader
	chunker  *Chunker
	embedder embedding.Embedder
	store    store.Store
	logger   *zap.Logger
}

// NewPipeline wires an indexing pipeline.
func NewPipeline(ld *loader.Loader, ch *Chunker, emb embedding.Embedder, st store.Store, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{loader: ld, chunker: ch, embedder: emb, store: st, logger: logger}
}

// Stats summarizes one ingest run.
type Stats struct {
	Documents int           `json:"documents"`
	Skipped   int           `json:"skipped"`
	Chunks    int           `json:"chunks"`
	Duration  time.Duration `json:"-"`
}

// Run executes a full corpus rebuild. The store swap is atomic, so
// queries served during a run see the previous corpus until the new one
// commits. An empty corpus directory is an error; unreadable individual
// files are skipped and counted.
func (p *Pipeline) Run(ctx context.Context) (*Stats, error) {
	start := time.Now()

	loaded, err := p.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	if len(loaded.Documents) == 0 {
		return nil, fmt.Errorf("no ingestible documents found")
	}

	var chunks []models.Chunk
	for _, doc := range loaded.Documents {
		chunks = append(chunks, p.chunker.Chunk(doc.Source, doc.Text)...)
	}

	p.logger.Info("chunked corpus",
		zap.Int("documents", len(loaded.Documents)),
		zap.Int("skipped", loaded.Skipped),
		zap.Int("chunks", len(chunks)))

	for lo := 0; lo < len(chunks); lo += embedBatchSize {
		hi := lo + embedBatchSize
		if hi > len(chunks) {
			hi = len(chunks)
		}
		texts := make([]string, 0, hi-lo)
		for _, c := range chunks[lo:hi] {
			texts = append(texts, c.Text)
		}
		vectors, err := p.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed chunks %d..%d: %w", lo, hi, err)
		}
		for i := range vectors {
			chunks[lo+i].Embedding = vectors[i]
		}
	}

	if err := p.store.Rebuild(ctx, p.embedder.ModelID(), p.embedder.Dimensions(), chunks); err != nil {
		return nil, fmt.Errorf("rebuild store: %w", err)
	}

	stats := &Stats{
		Documents: len(loaded.Documents),
		Skipped:   loaded.Skipped,
		Chunks:    len(chunks),
		Duration:  time.Since(start),
	}
	p.logger.Info("ingest complete",
		zap.Int("documents", stats.Documents),
		zap.Int("chunks", stats.Chunks),
		zap.Duration("duration", stats.Duration))
	return stats, nil
}
