// Package loader reads raw corpus documents from a directory into memory.
package loader

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/skyops/airman/internal/extract"
	"github.com/skyops/airman/internal/models"
)

// Loader walks a directory tree and turns supported files into
// SourceDocuments tagged with their path as source id.
type Loader struct {
	dir        string
	extractor  *extract.Extractor
	extensions map[string]bool
	logger     *zap.Logger // optional
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets a logger for skip reporting.
func WithLogger(l *zap.Logger) Option {
	return func(ld *Loader) { ld.logger = l }
}

// New creates a loader over dir using the given extractor.
func New(dir string, extractor *extract.Extractor, opts ...Option) *Loader {
	exts := make(map[string]bool)
	for _, e := range extract.SupportedExtensions() {
		exts[e] = true
	}
	ld := &Loader{dir: dir, extractor: extractor, extensions: exts}
	for _, opt := range opts {
		opt(ld)
	}
	return ld
}

// Result is the outcome of one load pass.
type Result struct {
	Documents []models.SourceDocument
	// Skipped counts files that could not be read or decoded. A skip is
	// reported, never fatal to the batch.
	Skipped int
}

// Load walks the corpus directory and extracts every supported file.
// Documents are returned sorted by source path so ingest runs are
// deterministic. A missing or unreadable directory is an error; an
// unreadable file is a skip.
func (ld *Loader) Load(ctx context.Context) (*Result, error) {
	res := &Result{}
	err := filepath.WalkDir(ld.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		if !ld.extensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		text, exErr := ld.extractor.Extract(path)
		if exErr != nil {
			res.Skipped++
			if ld.logger != nil {
				ld.logger.Warn("skipping unreadable document",
					zap.String("path", path), zap.Error(exErr))
			}
			return nil
		}
		if strings.TrimSpace(text) == "" {
			return nil
		}
		res.Documents = append(res.Documents, models.SourceDocument{Source: path, Text: text})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load documents from %s: %w", ld.dir, err)
	}
	sort.Slice(res.Documents, func(i, j int) bool {
		return res.Documents[i].Source < res.Documents[j].Source
	})
	return res, nil
}
