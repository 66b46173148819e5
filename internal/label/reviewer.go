// Package label turns raw eval-run logs into human-labeled datasets.
package label

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/skyops/airman/internal/evalrun"
	"github.com/skyops/airman/internal/models"
)

// Judgment is one human verdict over an eval record.
type Judgment struct {
	AnswerLabel    models.AnswerLabel
	RetrievalLabel models.RetrievalLabel
	FailureBucket  models.FailureBucket
	Notes          string
}

// Judge produces a judgment for a record. Implementations may be
// interactive or automated.
type Judge interface {
	Judge(ctx context.Context, index int, rec *models.EvalRecord) (*Judgment, error)
}

// Reviewer applies judgments to eval records. The input log is never
// modified; labeled copies go to a separate file.
type Reviewer struct {
	judge  Judge
	logger *zap.Logger
}

// NewReviewer wires a reviewer around the given judge.
func NewReviewer(judge Judge, logger *zap.Logger) *Reviewer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reviewer{judge: judge, logger: logger}
}

// Review passes records through the judge and returns a labeled copy of
// the full input: every record in, every record out, order preserved.
// Already-labeled records and records outside the [start, start+limit)
// window pass through unchanged; a limit of 0 means no limit.
func (r *Reviewer) Review(ctx context.Context, records []models.EvalRecord, start, limit int) ([]models.EvalRecord, int, error) {
	if start < 0 {
		return nil, 0, fmt.Errorf("start must not be negative, got %d", start)
	}

	out := make([]models.EvalRecord, len(records))
	copy(out, records)

	judged := 0
	for i := start; i < len(out); i++ {
		if limit > 0 && judged >= limit {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		if out[i].Labeled() {
			continue
		}

		j, err := r.judge.Judge(ctx, i, &out[i])
		if err != nil {
			return nil, 0, fmt.Errorf("judge record %d: %w", i, err)
		}
		if !j.AnswerLabel.Valid() || !j.RetrievalLabel.Valid() {
			return nil, 0, fmt.Errorf("record %d: invalid judgment %q/%q", i, j.AnswerLabel, j.RetrievalLabel)
		}
		if j.FailureBucket != "" && !j.FailureBucket.Valid() {
			return nil, 0, fmt.Errorf("record %d: invalid failure bucket %q", i, j.FailureBucket)
		}

		now := time.Now().UTC()
		out[i].AnswerLabel = j.AnswerLabel
		out[i].RetrievalLabel = j.RetrievalLabel
		out[i].FailureBucket = j.FailureBucket
		out[i].LabelNotes = j.Notes
		out[i].LabeledAt = &now
		judged++
	}

	r.logger.Info("labeling pass complete",
		zap.Int("records", len(out)),
		zap.Int("judged", judged))
	return out, judged, nil
}

// LabeledPath maps an eval log path into the labeled directory, turning
// 2026-08-23.jsonl into 2026-08-23.labeled.jsonl.
func LabeledPath(labeledDir, logPath string) string {
	base := strings.TrimSuffix(filepath.Base(logPath), ".jsonl")
	return filepath.Join(labeledDir, base+".labeled.jsonl")
}

// WriteLabeled writes labeled records to the labeled file for logPath.
// Returns the output path.
func WriteLabeled(labeledDir, logPath string, records []models.EvalRecord) (string, error) {
	out := LabeledPath(labeledDir, logPath)
	if err := evalrun.AppendRecords(out, records); err != nil {
		return "", err
	}
	return out, nil
}
