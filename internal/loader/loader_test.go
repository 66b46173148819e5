package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/skyops/airman/internal/extract"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b_manual.txt", "Battery must be above 20% charge.")
	writeFile(t, dir, "a_sop.md", "# Pre-flight\nCheck propellers.")
	writeFile(t, dir, "ignored.bin", "binary")
	sub := filepath.Join(dir, "nested")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, sub, "c_notes.txt", "GPS should lock at least 10 satellites.")

	ld := New(dir, extract.NewExtractor())
	res, err := ld.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Documents) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(res.Documents))
	}
	// Sorted by path for deterministic ingest runs.
	if filepath.Base(res.Documents[0].Source) != "a_sop.md" {
		t.Errorf("first document = %s", res.Documents[0].Source)
	}
	for _, doc := range res.Documents {
		if doc.Text == "" {
			t.Errorf("document %s has empty text", doc.Source)
		}
	}
}

func TestLoadSkipsUndecodableFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.txt", "All clear.")
	// A .pdf that is not a PDF fails extraction and must be skipped,
	// not fatal to the batch.
	writeFile(t, dir, "broken.pdf", "this is not a pdf")

	ld := New(dir, extract.NewExtractor())
	res, err := ld.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Documents) != 1 {
		t.Errorf("expected 1 document, got %d", len(res.Documents))
	}
	if res.Skipped != 1 {
		t.Errorf("expected 1 skipped, got %d", res.Skipped)
	}
}

func TestLoadMissingDirIsError(t *testing.T) {
	ld := New(filepath.Join(t.TempDir(), "nope"), extract.NewExtractor())
	if _, err := ld.Load(context.Background()); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestLoadEmptyFilesDropped(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "empty.txt", "   \n\t ")
	ld := New(dir, extract.NewExtractor())
	res, err := ld.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Documents) != 0 {
		t.Errorf("expected no documents, got %d", len(res.Documents))
	}
}
