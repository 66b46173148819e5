package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// AnswerLabel is a human judgment of answer quality. Closed set; parsing
// rejects anything outside it so a typo cannot leak into a log file.
type AnswerLabel string

// RetrievalLabel is a human judgment of retrieval quality.
type RetrievalLabel string

// FailureBucket categorizes what went wrong for a labeled failure.
type FailureBucket string

const (
	AnswerCorrect    AnswerLabel = "correct"
	AnswerPartial    AnswerLabel = "partial"
	AnswerWrong      AnswerLabel = "wrong"
	AnswerOutOfScope AnswerLabel = "out_of_scope"
	AnswerUnlabeled  AnswerLabel = "unlabeled"

	RetrievalOK        RetrievalLabel = "ok"
	RetrievalBad       RetrievalLabel = "bad"
	RetrievalUnlabeled RetrievalLabel = "unlabeled"

	BucketRetrievalMiss        FailureBucket = "retrieval_miss"
	BucketChunkingIssue        FailureBucket = "chunking_issue"
	BucketGroundingFailure     FailureBucket = "grounding_failure"
	BucketInstructionFollowing FailureBucket = "instruction_following"
	BucketAmbiguityHandling    FailureBucket = "ambiguity_handling"
	BucketFormatting           FailureBucket = "formatting"
	BucketOther                FailureBucket = "other"
)

// AnswerLabels lists all valid answer labels.
var AnswerLabels = []AnswerLabel{AnswerCorrect, AnswerPartial, AnswerWrong, AnswerOutOfScope, AnswerUnlabeled}

// RetrievalLabels lists all valid retrieval labels.
var RetrievalLabels = []RetrievalLabel{RetrievalOK, RetrievalBad, RetrievalUnlabeled}

// FailureBuckets lists all valid failure buckets.
var FailureBuckets = []FailureBucket{
	BucketRetrievalMiss, BucketChunkingIssue, BucketGroundingFailure,
	BucketInstructionFollowing, BucketAmbiguityHandling, BucketFormatting, BucketOther,
}

// Valid reports whether l is one of the known answer labels.
func (l AnswerLabel) Valid() bool {
	for _, v := range AnswerLabels {
		if l == v {
			return true
		}
	}
	return false
}

// Valid reports whether l is one of the known retrieval labels.
func (l RetrievalLabel) Valid() bool {
	for _, v := range RetrievalLabels {
		if l == v {
			return true
		}
	}
	return false
}

// Valid reports whether b is one of the known failure buckets.
func (b FailureBucket) Valid() bool {
	for _, v := range FailureBuckets {
		if b == v {
			return true
		}
	}
	return false
}

// ParseAnswerLabel converts s to an AnswerLabel. Empty string maps to
// unlabeled so records written before labeling round-trip cleanly.
func ParseAnswerLabel(s string) (AnswerLabel, error) {
	if s == "" {
		return AnswerUnlabeled, nil
	}
	l := AnswerLabel(s)
	if !l.Valid() {
		return "", fmt.Errorf("invalid answer label: %q", s)
	}
	return l, nil
}

// ParseRetrievalLabel converts s to a RetrievalLabel. Empty string maps to unlabeled.
func ParseRetrievalLabel(s string) (RetrievalLabel, error) {
	if s == "" {
		return RetrievalUnlabeled, nil
	}
	l := RetrievalLabel(s)
	if !l.Valid() {
		return "", fmt.Errorf("invalid retrieval label: %q", s)
	}
	return l, nil
}

// ParseFailureBucket converts s to a FailureBucket.
func ParseFailureBucket(s string) (FailureBucket, error) {
	b := FailureBucket(s)
	if !b.Valid() {
		return "", fmt.Errorf("invalid failure bucket: %q", s)
	}
	return b, nil
}

// UnmarshalJSON enforces the closed label set when reading log files.
func (l *AnswerLabel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParseAnswerLabel(s)
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// UnmarshalJSON enforces the closed label set when reading log files.
func (l *RetrievalLabel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParseRetrievalLabel(s)
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// EvalItem is a fixed (query, expected answer) pair used to regression-test
// answer quality.
type EvalItem struct {
	ID             string `yaml:"id" json:"id"`
	Query          string `yaml:"query" json:"query"`
	ExpectedAnswer string `yaml:"expected_answer" json:"expected_answer"`
}

// RetrievedRef is the logged form of one retrieved chunk within an eval record.
type RetrievedRef struct {
	Rank    int     `json:"rank"`
	Source  string  `json:"source"`
	Score   float64 `json:"score"`
	Snippet string  `json:"snippet"`
}

// EvalRecord is one structured, auditable record per eval question.
// Written by the eval harness with labels defaulted to unlabeled; the
// label reviewer later rewrites a copy with human judgments attached.
type EvalRecord struct {
	RunID          string         `json:"run_id"`
	EvalID         string         `json:"eval_id"`
	Index          int            `json:"index"`
	Query          string         `json:"query"`
	ExpectedAnswer string         `json:"expected_answer"`
	Timestamp      time.Time      `json:"timestamp"`
	TopK           int            `json:"top_k"`
	LatencySeconds float64        `json:"latency_seconds"`
	Answer         string         `json:"answer"`
	Error          string         `json:"error,omitempty"`
	Retrieved      []RetrievedRef `json:"retrieved"`
	AnswerLabel    AnswerLabel    `json:"answer_label"`
	RetrievalLabel RetrievalLabel `json:"retrieval_label"`
	FailureBucket  FailureBucket  `json:"failure_bucket,omitempty"`
	LabelNotes     string         `json:"label_notes,omitempty"`
	LabeledAt      *time.Time     `json:"labeled_at,omitempty"`
}

// Labeled reports whether the record already carries human judgments.
func (r *EvalRecord) Labeled() bool {
	return r.AnswerLabel != AnswerUnlabeled && r.AnswerLabel != "" &&
		r.RetrievalLabel != RetrievalUnlabeled && r.RetrievalLabel != ""
}
