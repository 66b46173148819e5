package llm

import (
	"context"
	"sync"
)

// MockClient is a scriptable language model for tests. When Fn is set it
// decides each reply; otherwise Response/Err are returned verbatim.
// Prompts are recorded for assertions.
type MockClient struct {
	Response string
	Err      error
	Fn       func(call int, prompt string) (string, error)

	mu      sync.Mutex
	prompts []string
}

// Complete records the prompt and returns the scripted reply.
func (m *MockClient) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	m.mu.Lock()
	call := len(m.prompts)
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	if m.Fn != nil {
		return m.Fn(call, prompt)
	}
	return m.Response, m.Err
}

// ModelID returns the mock model identifier.
func (m *MockClient) ModelID() string {
	return "mock-chat"
}

// Prompts returns a copy of the recorded prompts in call order.
func (m *MockClient) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}
