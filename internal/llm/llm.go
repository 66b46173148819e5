// Package llm provides language-model clients for answer generation.
package llm

import "context"

// Client is a language model that completes a prompt. One call per
// request; retry and backoff policy belongs to the implementation.
type Client interface {
	// Complete sends prompt and returns the generated text. maxTokens
	// bounds the output length.
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
	ModelID() string
}
