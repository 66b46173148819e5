package label

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/skyops/airman/internal/models"
	"github.com/skyops/airman/pkg/utils"
)

const (
	previewAnswerLen  = 600
	previewSnippetLen = 220
	previewRetrieved  = 3
)

// InteractiveJudge prompts a human on a terminal for each judgment.
// Choice prompts repeat until a valid label is entered; empty input takes
// the default.
type InteractiveJudge struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewInteractiveJudge reads choices from in and prints prompts to out.
func NewInteractiveJudge(in io.Reader, out io.Writer) *InteractiveJudge {
	return &InteractiveJudge{in: bufio.NewScanner(in), out: out}
}

// Judge shows the record and collects labels for it.
func (j *InteractiveJudge) Judge(ctx context.Context, index int, rec *models.EvalRecord) (*Judgment, error) {
	fmt.Fprintln(j.out, strings.Repeat("=", 50))
	fmt.Fprintf(j.out, "[%d] eval_id=%s top_k=%d\n", index, rec.EvalID, rec.TopK)
	fmt.Fprintf(j.out, "Query: %s\n\n", rec.Query)
	if rec.ExpectedAnswer != "" {
		fmt.Fprintf(j.out, "Expected:\n%s\n\n", utils.Snippet(rec.ExpectedAnswer, previewAnswerLen))
	}
	if rec.Error != "" {
		fmt.Fprintf(j.out, "Error: %s\n\n", rec.Error)
	} else {
		fmt.Fprintf(j.out, "Answer:\n%s\n\n", utils.Snippet(rec.Answer, previewAnswerLen))
	}
	for i, ref := range rec.Retrieved {
		if i >= previewRetrieved {
			break
		}
		fmt.Fprintf(j.out, "  - score=%.4f source=%s\n", ref.Score, ref.Source)
		fmt.Fprintf(j.out, "    %s\n", utils.Snippet(ref.Snippet, previewSnippetLen))
	}
	fmt.Fprintln(j.out)

	answerRaw, err := j.promptChoice(ctx, "answer_label", answerChoices(), string(models.AnswerPartial))
	if err != nil {
		return nil, err
	}
	retrievalRaw, err := j.promptChoice(ctx, "retrieval_label", retrievalChoices(), string(models.RetrievalOK))
	if err != nil {
		return nil, err
	}
	bucketRaw, err := j.promptChoice(ctx, "failure_bucket", bucketChoices(), string(models.BucketOther))
	if err != nil {
		return nil, err
	}
	notes, err := j.promptFree(ctx, "notes")
	if err != nil {
		return nil, err
	}

	return &Judgment{
		AnswerLabel:    models.AnswerLabel(answerRaw),
		RetrievalLabel: models.RetrievalLabel(retrievalRaw),
		FailureBucket:  models.FailureBucket(bucketRaw),
		Notes:          notes,
	}, nil
}

func (j *InteractiveJudge) promptChoice(ctx context.Context, name string, choices []string, def string) (string, error) {
	valid := make(map[string]bool, len(choices))
	for _, c := range choices {
		valid[c] = true
	}
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		fmt.Fprintf(j.out, "%s [%s] (default=%s): ", name, strings.Join(choices, "/"), def)
		line, err := j.readLine()
		if err != nil {
			return "", err
		}
		line = strings.ToLower(strings.TrimSpace(line))
		if line == "" {
			return def, nil
		}
		if valid[line] {
			return line, nil
		}
		fmt.Fprintf(j.out, "Invalid. Choose one of %s\n", strings.Join(choices, "/"))
	}
}

func (j *InteractiveJudge) promptFree(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprintf(j.out, "%s (optional): ", name)
	line, err := j.readLine()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (j *InteractiveJudge) readLine() (string, error) {
	if !j.in.Scan() {
		if err := j.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return j.in.Text(), nil
}

func answerChoices() []string {
	out := make([]string, 0, len(models.AnswerLabels)-1)
	for _, l := range models.AnswerLabels {
		if l != models.AnswerUnlabeled {
			out = append(out, string(l))
		}
	}
	return out
}

func retrievalChoices() []string {
	out := make([]string, 0, len(models.RetrievalLabels)-1)
	for _, l := range models.RetrievalLabels {
		if l != models.RetrievalUnlabeled {
			out = append(out, string(l))
		}
	}
	return out
}

func bucketChoices() []string {
	out := make([]string, 0, len(models.FailureBuckets))
	for _, b := range models.FailureBuckets {
		out = append(out, string(b))
	}
	return out
}
