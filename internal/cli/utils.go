// Package cli provides CLI output utilities for Airman.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/skyops/airman/internal/evalrun"
	"github.com/skyops/airman/internal/models"
	"github.com/skyops/airman/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a format flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputText, OutputJSON:
		return OutputFormat(s), nil
	default:
		return "", fmt.Errorf("unknown output format %q (use text or json)", s)
	}
}

// WriteAnswer writes an answer with its sources to w in the given format.
func WriteAnswer(w io.Writer, result *models.AnswerResult, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	fmt.Fprintf(w, "\n%s\n", result.Answer)
	if len(result.Sources) > 0 {
		fmt.Fprintln(w, "\nSources:")
		for _, src := range result.Sources {
			fmt.Fprintf(w, "  - %s (score %.4f)\n", src.Source, src.Score)
			if src.Snippet != "" {
				fmt.Fprintf(w, "    %s\n", utils.Truncate(src.Snippet, 200))
			}
		}
	}
	return nil
}

// WritePassages writes raw retrieval hits to w in the given format.
func WritePassages(w io.Writer, passages []models.RetrievedPassage, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(passages)
	}
	fmt.Fprintf(w, "\n%d passages\n\n", len(passages))
	for i, p := range passages {
		fmt.Fprintf(w, "[%d] score=%.4f source=%s\n", i+1, p.Score, p.Source)
		fmt.Fprintf(w, "    %s\n\n", utils.Snippet(p.Text, 200))
	}
	return nil
}

// WriteEvalSummary writes label counts for an eval run or labeled file.
func WriteEvalSummary(w io.Writer, s *evalrun.Summary) {
	fmt.Fprintf(w, "\nTotal questions: %d\n", s.Total)
	if s.Errors > 0 {
		fmt.Fprintf(w, "Errors: %d\n", s.Errors)
	}
	fmt.Fprint(w, "Answers -")
	for _, l := range models.AnswerLabels {
		fmt.Fprintf(w, " %s: %d", l, s.AnswerLabels[l])
	}
	fmt.Fprintln(w)
	fmt.Fprint(w, "Retrieval -")
	for _, l := range models.RetrievalLabels {
		fmt.Fprintf(w, " %s: %d", l, s.RetrievalLabels[l])
	}
	fmt.Fprintln(w)
	if len(s.FailureBuckets) > 0 {
		fmt.Fprint(w, "Failure buckets -")
		for _, b := range models.FailureBuckets {
			if n := s.FailureBuckets[b]; n > 0 {
				fmt.Fprintf(w, " %s: %d", b, n)
			}
		}
		fmt.Fprintln(w)
	}
}
