package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// OllamaClient completes prompts via the Ollama REST API (/api/chat).
type OllamaClient struct {
	baseURL    string
	model      string
	token      string // Bearer token for hosted endpoints (empty = no auth)
	httpClient *http.Client
}

// NewOllamaClient creates a chat client for the given endpoint and model.
func NewOllamaClient(baseURL, model, token string) *OllamaClient {
	return &OllamaClient{
		baseURL:    baseURL,
		model:      model,
		token:      token,
		httpClient: &http.Client{},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

// Complete sends prompt as a single user message and returns the reply.
func (o *OllamaClient) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	payload := chatRequest{
		Model:    o.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
		Stream:   false,
	}
	if maxTokens > 0 {
		payload.Options = map[string]any{"num_predict": maxTokens}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("ollama chat: marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("ollama chat: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if o.token != "" {
		req.Header.Set("Authorization", "Bearer "+o.token)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama chat: API error (%d): %s", resp.StatusCode, string(msg))
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("ollama chat: decode response: %w", err)
	}
	return decoded.Message.Content, nil
}

// ModelID returns the chat model identifier.
func (o *OllamaClient) ModelID() string {
	return o.model
}
