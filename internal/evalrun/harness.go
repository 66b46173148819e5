package evalrun

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skyops/airman/internal/models"
	"github.com/skyops/airman/internal/retrieval"
)

// Harness runs an eval set through the answer pipeline sequentially, so
// per-question latency reflects single-query behavior.
type Harness struct {
	answerer    *retrieval.Answerer
	itemTimeout time.Duration
	logger      *zap.Logger
}

// NewHarness wires an eval harness. itemTimeout bounds each question; a
// non-positive timeout disables the bound.
func NewHarness(a *retrieval.Answerer, itemTimeout time.Duration, logger *zap.Logger) *Harness {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Harness{answerer: a, itemTimeout: itemTimeout, logger: logger}
}

// Result is the outcome of one eval run.
type Result struct {
	RunID   string
	Records []models.EvalRecord
	Failed  int
}

// Run answers every item in the set and produces one record per item,
// labels defaulted to unlabeled. A per-item failure is captured in the
// record's Error field and the run continues; only a cancelled context
// aborts the run.
func (h *Harness) Run(ctx context.Context, items []models.EvalItem, topK int) (*Result, error) {
	runID := uuid.New().String()
	res := &Result{RunID: runID, Records: make([]models.EvalRecord, 0, len(items))}

	h.logger.Info("starting eval run",
		zap.String("run_id", runID),
		zap.Int("questions", len(items)),
		zap.Int("top_k", topK))

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec := models.EvalRecord{
			RunID:          runID,
			EvalID:         item.ID,
			Index:          i,
			Query:          item.Query,
			ExpectedAnswer: item.ExpectedAnswer,
			Timestamp:      time.Now().UTC(),
			TopK:           topK,
			Retrieved:      []models.RetrievedRef{},
			AnswerLabel:    models.AnswerUnlabeled,
			RetrievalLabel: models.RetrievalUnlabeled,
		}

		itemCtx := ctx
		cancel := func() {}
		if h.itemTimeout > 0 {
			itemCtx, cancel = context.WithTimeout(ctx, h.itemTimeout)
		}
		start := time.Now()
		answer, err := h.answerer.Answer(itemCtx, item.Query, topK)
		cancel()
		rec.LatencySeconds = time.Since(start).Seconds()

		if err != nil {
			rec.Error = err.Error()
			res.Failed++
			h.logger.Warn("eval question failed",
				zap.String("eval_id", item.ID), zap.Error(err))
		} else {
			rec.Answer = answer.Answer
			for rank, src := range answer.Sources {
				rec.Retrieved = append(rec.Retrieved, models.RetrievedRef{
					Rank:    rank + 1,
					Source:  src.Source,
					Score:   src.Score,
					Snippet: src.Snippet,
				})
			}
		}
		res.Records = append(res.Records, rec)
	}

	h.logger.Info("eval run complete",
		zap.String("run_id", runID),
		zap.Int("answered", len(res.Records)-res.Failed),
		zap.Int("failed", res.Failed))
	return res, nil
}

// Summary counts labels across a set of records.
type Summary struct {
	Total           int
	AnswerLabels    map[models.AnswerLabel]int
	RetrievalLabels map[models.RetrievalLabel]int
	FailureBuckets  map[models.FailureBucket]int
	Errors          int
}

// Summarize tallies label counts over records. Unlabeled records count
// under the unlabeled keys, so a fresh run summarizes cleanly.
func Summarize(records []models.EvalRecord) *Summary {
	s := &Summary{
		Total:           len(records),
		AnswerLabels:    make(map[models.AnswerLabel]int),
		RetrievalLabels: make(map[models.RetrievalLabel]int),
		FailureBuckets:  make(map[models.FailureBucket]int),
	}
	for i := range records {
		r := &records[i]
		al := r.AnswerLabel
		if al == "" {
			al = models.AnswerUnlabeled
		}
		rl := r.RetrievalLabel
		if rl == "" {
			rl = models.RetrievalUnlabeled
		}
		s.AnswerLabels[al]++
		s.RetrievalLabels[rl]++
		if r.FailureBucket != "" {
			s.FailureBuckets[r.FailureBucket]++
		}
		if r.Error != "" {
			s.Errors++
		}
	}
	return s
}
