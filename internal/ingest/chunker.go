// Package ingest provides document chunking and the offline indexing pipeline.
package ingest

import (
	"fmt"

	"github.com/skyops/airman/internal/models"
)

// Chunker splits text into overlapping character windows. Consecutive
// chunks from the same document share exactly overlapChars characters, so
// concatenating the chunks with the leading overlap stripped from every
// chunk after the first reconstructs the document byte for byte.
type Chunker struct {
	maxChars     int
	overlapChars int
}

// NewChunker creates a chunker with the given window and overlap sizes,
// both in characters. maxChars must exceed overlapChars; overlapChars
// must not be negative.
func NewChunker(maxChars, overlapChars int) (*Chunker, error) {
	if overlapChars < 0 {
		return nil, fmt.Errorf("chunk overlap must not be negative, got %d", overlapChars)
	}
	if maxChars <= overlapChars {
		return nil, fmt.Errorf("chunk size (%d) must exceed overlap (%d)", maxChars, overlapChars)
	}
	return &Chunker{maxChars: maxChars, overlapChars: overlapChars}, nil
}

// Chunk splits text into ordered chunks covering the document end to end.
// A document no longer than maxChars yields exactly one chunk; empty text
// yields none. Chunk IDs are deterministic (source plus index) so an
// unchanged corpus rebuilds to an identical chunk set.
func (c *Chunker) Chunk(source, text string) []models.Chunk {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	step := c.maxChars - c.overlapChars
	chunks := make([]models.Chunk, 0, len(runes)/step+1)
	for start := 0; ; start += step {
		end := start + c.maxChars
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, models.Chunk{
			ID:     ChunkID(source, len(chunks)),
			Source: source,
			Index:  len(chunks),
			Text:   string(runes[start:end]),
		})
		if end >= len(runes) {
			return chunks
		}
	}
}

// ChunkID returns the deterministic id for the index-th chunk of source.
func ChunkID(source string, index int) string {
	return fmt.Sprintf("%s#%04d", source, index)
}
