package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/skyops/airman/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testChunks() []models.Chunk {
	return []models.Chunk{
		{ID: "manual.md#0000", Source: "manual.md", Index: 0, Text: "Battery must be above 20% before takeoff.", Embedding: []float32{1, 0, 0}},
		{ID: "manual.md#0001", Source: "manual.md", Index: 1, Text: "Inspect propellers for cracks.", Embedding: []float32{0, 1, 0}},
		{ID: "checklist.txt#0000", Source: "checklist.txt", Index: 0, Text: "Calibrate the compass away from metal.", Embedding: []float32{0, 0, 1}},
	}
}

func TestQueryBeforeIngest(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Query(context.Background(), "m", []float32{1, 0, 0}, 3)
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("err = %v, want ErrStoreUnavailable", err)
	}
	if _, err := s.Status(context.Background()); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Status err = %v, want ErrStoreUnavailable", err)
	}
}

func TestRebuildAndQuery(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.Rebuild(ctx, "mock-embed", 3, testChunks()); err != nil {
		t.Fatal(err)
	}

	hits, err := s.Query(ctx, "mock-embed", []float32{0.9, 0.1, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits", len(hits))
	}
	if hits[0].ID != "manual.md#0000" {
		t.Errorf("top hit = %s", hits[0].ID)
	}
	if hits[0].Text != "Battery must be above 20% before takeoff." {
		t.Errorf("top hit text = %q", hits[0].Text)
	}
	if hits[0].Score < hits[1].Score {
		t.Errorf("scores not descending: %v < %v", hits[0].Score, hits[1].Score)
	}

	st, err := s.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.ChunkCount != 3 || st.ModelID != "mock-embed" || st.Dimensions != 3 {
		t.Errorf("status = %+v", st)
	}
}

func TestRebuildReplacesCorpus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.Rebuild(ctx, "mock-embed", 3, testChunks()); err != nil {
		t.Fatal(err)
	}
	replacement := []models.Chunk{
		{ID: "new.md#0000", Source: "new.md", Index: 0, Text: "Return-to-home altitude is 30 meters.", Embedding: []float32{1, 1, 0}},
	}
	if err := s.Rebuild(ctx, "mock-embed", 3, replacement); err != nil {
		t.Fatal(err)
	}

	hits, err := s.Query(ctx, "mock-embed", []float32{1, 0, 0}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].ID != "new.md#0000" {
		t.Errorf("hits = %+v, want only the replacement chunk", hits)
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM generations").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("generations remaining = %d, want 1", count)
	}
}

func TestQueryModelMismatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.Rebuild(ctx, "nomic-embed-text", 3, testChunks()); err != nil {
		t.Fatal(err)
	}
	_, err := s.Query(ctx, "other-model", []float32{1, 0, 0}, 1)
	if !errors.Is(err, ErrModelMismatch) {
		t.Errorf("err = %v, want ErrModelMismatch", err)
	}
}

func TestQueryKLargerThanCorpus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.Rebuild(ctx, "mock-embed", 3, testChunks()); err != nil {
		t.Fatal(err)
	}
	hits, err := s.Query(ctx, "mock-embed", []float32{1, 0, 0}, 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 3 {
		t.Errorf("got %d hits, want all 3", len(hits))
	}
}

func TestReopenLoadsCurrentGeneration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "persist.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Rebuild(ctx, "mock-embed", 3, testChunks()); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	hits, err := reopened.Query(ctx, "mock-embed", []float32{0, 0, 1}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].ID != "checklist.txt#0000" {
		t.Errorf("hits after reopen = %+v", hits)
	}
}

func TestQueryDuringConcurrentRebuild(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	corpus := make([]models.Chunk, 50)
	for i := range corpus {
		corpus[i] = models.Chunk{
			ID:        fmt.Sprintf("manual.md#%04d", i),
			Source:    "manual.md",
			Index:     i,
			Text:      fmt.Sprintf("procedure step %d", i),
			Embedding: []float32{float32(i + 1), 1, float32(50 - i)},
		}
	}
	if err := s.Rebuild(ctx, "mock-embed", 3, corpus); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	rebuildErr := make(chan error, 1)
	go func() {
		defer close(rebuildErr)
		for {
			select {
			case <-done:
				return
			default:
			}
			if err := s.Rebuild(ctx, "mock-embed", 3, corpus); err != nil {
				rebuildErr <- err
				return
			}
		}
	}()

	for i := 0; i < 200; i++ {
		hits, err := s.Query(ctx, "mock-embed", []float32{1, 0.5, 0.25}, 5)
		if err != nil {
			t.Fatalf("query %d failed during rebuild: %v", i, err)
		}
		if len(hits) != 5 {
			t.Fatalf("query %d returned %d hits", i, len(hits))
		}
		for _, h := range hits {
			if h.Text == "" || h.Source == "" {
				t.Fatalf("query %d returned incomplete hit %+v", i, h)
			}
		}
	}
	close(done)
	if err := <-rebuildErr; err != nil {
		t.Fatalf("rebuild failed: %v", err)
	}
}

func TestRebuildRejectsWrongDimension(t *testing.T) {
	s := newTestStore(t)
	chunks := []models.Chunk{
		{ID: "a#0000", Source: "a", Index: 0, Text: "x", Embedding: []float32{1, 0}},
	}
	if err := s.Rebuild(context.Background(), "m", 3, chunks); err == nil {
		t.Error("expected dimension error")
	}
}

func TestRebuildEmptyCorpus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.Rebuild(ctx, "mock-embed", 3, nil); err != nil {
		t.Fatal(err)
	}
	hits, err := s.Query(ctx, "mock-embed", []float32{1, 0, 0}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Errorf("got %d hits from empty corpus", len(hits))
	}
	st, err := s.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.ChunkCount != 0 {
		t.Errorf("chunk count = %d", st.ChunkCount)
	}
}
