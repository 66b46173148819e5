package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/skyops/airman/internal/models"
	"github.com/skyops/airman/internal/vector"
)

// SQLiteStore implements Store on a single SQLite database. Each rebuild
// writes a fresh generation and swaps the current pointer in one
// transaction, so readers never observe a partially replaced corpus.
// The current generation is held fully in memory; a query serves hits
// from its snapshot alone, so a concurrent rebuild deleting the
// superseded generation's rows cannot fail an in-flight query.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger

	mu  sync.RWMutex
	gen *generation
}

type generation struct {
	id         string
	modelID    string
	dimensions int
	createdAt  time.Time
	ids        []string
	vectors    [][]float32
	chunks     map[string]chunkRow
}

type chunkRow struct {
	source string
	text   string
}

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *SQLiteStore) {
		s.logger = logger
	}
}

// NewSQLiteStore opens or creates the database at dbPath, initializes the
// schema, and loads the current generation's embeddings into memory.
// Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string, opts ...Option) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	s := &SQLiteStore{db: db, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.loadCurrent(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to load current generation: %w", err)
	}
	return s, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS generations (
		id TEXT PRIMARY KEY,
		model_id TEXT NOT NULL,
		dimensions INTEGER NOT NULL,
		chunk_count INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS chunks (
		generation_id TEXT NOT NULL,
		chunk_id TEXT NOT NULL,
		source TEXT NOT NULL,
		chunk_index INTEGER NOT NULL,
		content TEXT NOT NULL,
		embedding BLOB NOT NULL,
		PRIMARY KEY (generation_id, chunk_id),
		FOREIGN KEY (generation_id) REFERENCES generations(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_chunks_generation ON chunks(generation_id);

	CREATE TABLE IF NOT EXISTS current_generation (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		generation_id TEXT NOT NULL
	);
	`
	_, err := db.Exec(schema)
	return err
}

// Rebuild replaces the whole corpus with the given chunks under a new
// generation. The current pointer is swapped in the same transaction that
// writes the new rows; the previous generation is deleted afterwards.
func (s *SQLiteStore) Rebuild(ctx context.Context, modelID string, dimensions int, chunks []models.Chunk) error {
	if modelID == "" {
		return fmt.Errorf("model id must not be empty")
	}
	if dimensions <= 0 {
		return fmt.Errorf("dimensions must be positive, got %d", dimensions)
	}

	genID := uuid.New().String()
	now := time.Now().UTC()

	gen := &generation{
		id:         genID,
		modelID:    modelID,
		dimensions: dimensions,
		createdAt:  now,
		ids:        make([]string, 0, len(chunks)),
		vectors:    make([][]float32, 0, len(chunks)),
		chunks:     make(map[string]chunkRow, len(chunks)),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin rebuild: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO generations (id, model_id, dimensions, chunk_count, created_at) VALUES (?, ?, ?, ?, ?)",
		genID, modelID, dimensions, len(chunks), now,
	); err != nil {
		return fmt.Errorf("failed to insert generation: %w", err)
	}

	insert, err := tx.PrepareContext(ctx,
		"INSERT INTO chunks (generation_id, chunk_id, source, chunk_index, content, embedding) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare chunk insert: %w", err)
	}
	defer insert.Close()

	for _, c := range chunks {
		if len(c.Embedding) != dimensions {
			return fmt.Errorf("chunk %s has embedding dimension %d, expected %d", c.ID, len(c.Embedding), dimensions)
		}
		normalized := vector.Normalize(c.Embedding)
		if _, err := insert.ExecContext(ctx, genID, c.ID, c.Source, c.Index, c.Text, vector.Encode(normalized)); err != nil {
			return fmt.Errorf("failed to insert chunk %s: %w", c.ID, err)
		}
		gen.ids = append(gen.ids, c.ID)
		gen.vectors = append(gen.vectors, normalized)
		gen.chunks[c.ID] = chunkRow{source: c.Source, text: c.Text}
	}

	var previous sql.NullString
	if err := tx.QueryRowContext(ctx, "SELECT generation_id FROM current_generation WHERE id = 1").Scan(&previous); err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to read current pointer: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO current_generation (id, generation_id) VALUES (1, ?) ON CONFLICT(id) DO UPDATE SET generation_id = excluded.generation_id",
		genID,
	); err != nil {
		return fmt.Errorf("failed to swap current pointer: %w", err)
	}

	if previous.Valid {
		if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE generation_id = ?", previous.String); err != nil {
			return fmt.Errorf("failed to drop previous chunks: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM generations WHERE id = ?", previous.String); err != nil {
			return fmt.Errorf("failed to drop previous generation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rebuild: %w", err)
	}

	s.mu.Lock()
	s.gen = gen
	s.mu.Unlock()

	s.logger.Info("corpus rebuilt",
		zap.String("generation_id", genID),
		zap.String("model_id", modelID),
		zap.Int("chunks", len(chunks)))
	return nil
}

// Query returns up to k chunks nearest to the query vector. Returns
// ErrStoreUnavailable when nothing has been ingested and ErrModelMismatch
// when the query was embedded with a different model than the corpus.
// Hits are served entirely from the generation snapshot taken under the
// lock: a rebuild swapping in a new generation mid-query cannot affect
// the answer, which is complete under whichever generation was current
// when the query started.
func (s *SQLiteStore) Query(ctx context.Context, modelID string, query []float32, k int) ([]Hit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	gen := s.gen
	s.mu.RUnlock()

	if gen == nil {
		return nil, ErrStoreUnavailable
	}
	if modelID != gen.modelID {
		return nil, fmt.Errorf("%w: query model %q, corpus model %q", ErrModelMismatch, modelID, gen.modelID)
	}
	if len(query) != gen.dimensions {
		return nil, fmt.Errorf("query has dimension %d, corpus has %d", len(query), gen.dimensions)
	}

	results, err := vector.TopK(vector.Normalize(query), gen.ids, gen.vectors, k)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		row, ok := gen.chunks[r.ID]
		if !ok {
			return nil, fmt.Errorf("chunk %s missing from generation %s", r.ID, gen.id)
		}
		hits = append(hits, Hit{ID: r.ID, Source: row.source, Text: row.text, Score: r.Score})
	}
	return hits, nil
}

// Status reports the current generation, or ErrStoreUnavailable when the
// store is empty.
func (s *SQLiteStore) Status(ctx context.Context) (*Status, error) {
	s.mu.RLock()
	gen := s.gen
	s.mu.RUnlock()

	if gen == nil {
		return nil, ErrStoreUnavailable
	}
	return &Status{
		GenerationID: gen.id,
		ModelID:      gen.modelID,
		Dimensions:   gen.dimensions,
		ChunkCount:   len(gen.ids),
		CreatedAt:    gen.createdAt,
	}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// loadCurrent reads the current generation's embeddings into memory. A
// database with no current pointer leaves the store empty.
func (s *SQLiteStore) loadCurrent(ctx context.Context) error {
	var genID string
	err := s.db.QueryRowContext(ctx, "SELECT generation_id FROM current_generation WHERE id = 1").Scan(&genID)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return err
	}

	gen := &generation{id: genID, chunks: make(map[string]chunkRow)}
	if err := s.db.QueryRowContext(ctx,
		"SELECT model_id, dimensions, created_at FROM generations WHERE id = ?", genID,
	).Scan(&gen.modelID, &gen.dimensions, &gen.createdAt); err != nil {
		return fmt.Errorf("failed to read generation %s: %w", genID, err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT chunk_id, source, content, embedding FROM chunks WHERE generation_id = ? ORDER BY source, chunk_index", genID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id, source, content string
		var blob []byte
		if err := rows.Scan(&id, &source, &content, &blob); err != nil {
			return err
		}
		vec, err := vector.Decode(blob, gen.dimensions)
		if err != nil {
			return fmt.Errorf("chunk %s: %w", id, err)
		}
		gen.ids = append(gen.ids, id)
		gen.vectors = append(gen.vectors, vec)
		gen.chunks[id] = chunkRow{source: source, text: content}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.gen = gen
	s.mu.Unlock()

	s.logger.Info("loaded corpus generation",
		zap.String("generation_id", genID),
		zap.String("model_id", gen.modelID),
		zap.Int("chunks", len(gen.ids)))
	return nil
}
