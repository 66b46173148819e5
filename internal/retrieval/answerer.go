package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/skyops/airman/internal/llm"
	"github.com/skyops/airman/internal/models"
	"github.com/skyops/airman/pkg/utils"
)

// ErrGenerationFailed is returned when the language model call fails. The
// retrieval step may still have succeeded; callers can distinguish this
// from retrieval errors.
var ErrGenerationFailed = errors.New("answer generation failed")

// noContextMarker stands in for the passage list when retrieval returns
// nothing, so the model declines instead of hallucinating.
const noContextMarker = "[no context found]"

const snippetLen = 160

// Answerer produces answers grounded exclusively in retrieved passages.
type Answerer struct {
	retriever *Retriever
	client    llm.Client
	maxTokens int
	logger    *zap.Logger
}

// NewAnswerer wires an answer generator. maxTokens caps the model's
// output length.
func NewAnswerer(r *Retriever, client llm.Client, maxTokens int, logger *zap.Logger) *Answerer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Answerer{retriever: r, client: client, maxTokens: maxTokens, logger: logger}
}

// Answer retrieves the top-k passages for the query and asks the model to
// answer using only those passages. Sources are deduplicated per document
// keeping the best score. When nothing is retrieved the model is still
// called, with an explicit no-context marker in place of passages.
func (a *Answerer) Answer(ctx context.Context, query string, k int) (*models.AnswerResult, error) {
	passages, err := a.retriever.Retrieve(ctx, query, k)
	if err != nil {
		return nil, err
	}

	prompt := BuildPrompt(query, passages)
	answer, err := a.client.Complete(ctx, prompt, a.maxTokens)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	a.logger.Debug("generated answer",
		zap.Int("passages", len(passages)),
		zap.Int("answer_chars", len(answer)))

	return &models.AnswerResult{
		Answer:  strings.TrimSpace(answer),
		Sources: DedupeSources(passages),
	}, nil
}

// BuildPrompt assembles the grounded prompt: numbered passages followed by
// the question and an instruction to answer only from the passages or
// decline.
func BuildPrompt(query string, passages []models.RetrievedPassage) string {
	var b strings.Builder
	b.WriteString("You are an assistant answering questions about drone operating manuals.\n")
	b.WriteString("Answer the question using ONLY the context passages below.\n")
	b.WriteString("If the passages do not contain the answer, say you cannot answer from the manuals. Do not guess.\n\n")
	b.WriteString("Context passages:\n")
	if len(passages) == 0 {
		b.WriteString(noContextMarker)
		b.WriteString("\n\n")
	}
	for i, p := range passages {
		fmt.Fprintf(&b, "[source %d] (%s)\n%s\n\n", i+1, p.Source, strings.TrimSpace(p.Text))
	}
	b.WriteString("Question: ")
	b.WriteString(strings.TrimSpace(query))
	b.WriteString("\nAnswer:")
	return b.String()
}

// DedupeSources collapses passages to one entry per source document,
// keeping the best score and its snippet, ordered by descending score.
func DedupeSources(passages []models.RetrievedPassage) []models.AnswerSource {
	seen := make(map[string]bool)
	sources := make([]models.AnswerSource, 0, len(passages))
	// passages arrive score-descending, so the first hit per source is its best
	for _, p := range passages {
		if seen[p.Source] {
			continue
		}
		seen[p.Source] = true
		sources = append(sources, models.AnswerSource{
			Source:  p.Source,
			Score:   p.Score,
			Snippet: utils.Snippet(p.Text, snippetLen),
		})
	}
	return sources
}
