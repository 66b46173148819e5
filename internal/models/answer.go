package models

// RetrievedPassage is a single retrieval hit. Score is a similarity,
// higher is more relevant. Ephemeral, produced per query.
type RetrievedPassage struct {
	Text   string  `json:"text"`
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}

// AnswerSource is one supporting source of an answer, deduplicated by
// source with the best score and a single-line snippet for display/logging.
type AnswerSource struct {
	Source  string  `json:"source"`
	Score   float64 `json:"score"`
	Snippet string  `json:"snippet"`
}

// AnswerResult is the outcome of one grounded question: the generated
// answer plus the sources it was constrained to.
type AnswerResult struct {
	Answer  string         `json:"answer"`
	Sources []AnswerSource `json:"sources"`
}
