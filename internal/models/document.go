// Package models defines core data structures for documents, chunks, answers, and eval records.
package models

// SourceDocument is a raw document loaded from the corpus directory.
// Discarded after chunking; only the source id travels further.
type SourceDocument struct {
	// Source is a path-like identifier, unique per ingest run.
	Source string `json:"source"`
	Text   string `json:"text"`
}

// Chunk is a bounded, overlapping substring of a source document, the unit
// of retrieval. Never mutated after creation; a rebuild replaces the whole set.
type Chunk struct {
	ID        string    `json:"id" db:"id"`
	Source    string    `json:"source" db:"source"`
	Index     int       `json:"chunk_index" db:"chunk_index"`
	Text      string    `json:"text" db:"content"`
	Embedding []float32 `json:"-" db:"-"`
}
