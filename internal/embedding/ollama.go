package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// OllamaEmbedder produces embeddings via the Ollama REST API (/api/embed).
type OllamaEmbedder struct {
	baseURL    string
	model      string
	token      string // Bearer token for hosted endpoints (empty = no auth)
	dimensions int
	httpClient *http.Client
}

// NewOllamaEmbedder creates an embedder for the given endpoint and model.
// dimensions is the expected vector size; responses of a different size
// are rejected so a misconfigured model cannot poison the index.
func NewOllamaEmbedder(baseURL, model, token string, dimensions int) *OllamaEmbedder {
	return &OllamaEmbedder{
		baseURL:    baseURL,
		model:      model,
		token:      token,
		dimensions: dimensions,
		httpClient: &http.Client{},
	}
}

type embedRequest struct {
	Model string `json:"model"`
	Input any    `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed generates a vector embedding for the given text.
func (o *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := o.request(ctx, embedRequest{Model: o.model, Input: text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("ollama embed: empty response")
	}
	return vecs[0], nil
}

// EmbedBatch generates embeddings for multiple texts in one call,
// preserving input order.
func (o *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vecs, err := o.request(ctx, embedRequest{Model: o.model, Input: texts})
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("ollama embed: got %d embeddings for %d inputs", len(vecs), len(texts))
	}
	return vecs, nil
}

// Dimensions returns the configured embedding dimension.
func (o *OllamaEmbedder) Dimensions() int {
	return o.dimensions
}

// ModelID returns the embedding model identifier.
func (o *OllamaEmbedder) ModelID() string {
	return o.model
}

// Close is a no-op; the HTTP client holds no persistent resources.
func (o *OllamaEmbedder) Close() error {
	return nil
}

func (o *OllamaEmbedder) request(ctx context.Context, payload embedRequest) ([][]float32, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("ollama embed: marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ollama embed: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if o.token != "" {
		req.Header.Set("Authorization", "Bearer "+o.token)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama embed: API error (%d): %s", resp.StatusCode, string(msg))
	}

	var decoded embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("ollama embed: decode response: %w", err)
	}
	for i, v := range decoded.Embeddings {
		if len(v) != o.dimensions {
			return nil, fmt.Errorf("ollama embed: vector %d has dimension %d, expected %d",
				i, len(v), o.dimensions)
		}
	}
	return decoded.Embeddings, nil
}
