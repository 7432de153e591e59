package ai

import (
	"context"
	"sync"
)

// MockProvider is a test double for AI providers. StreamComplete sends
// Chunks when set, else Response as a single chunk.
type MockProvider struct {
	Response  string
	Chunks    []string
	Err       error // returned by Complete and StreamComplete
	StreamErr error // delivered on the channel after Chunks

	mu       sync.Mutex
	requests []CompletionRequest
}

// NewMockProvider creates a MockProvider that returns the given response.
func NewMockProvider(response string) *MockProvider {
	return &MockProvider{Response: response}
}

// LastRequest returns the most recent request, or nil.
func (m *MockProvider) LastRequest() *CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil
	}
	req := m.requests[len(m.requests)-1]
	return &req
}

// Calls returns how many requests the mock has received.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func (m *MockProvider) record(req CompletionRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
}

func (m *MockProvider) Complete(_ context.Context, req CompletionRequest) (CompletionResponse, error) {
	m.record(req)
	if m.Err != nil {
		return CompletionResponse{}, m.Err
	}
	return CompletionResponse{
		Content:      m.Response,
		Model:        "mock",
		InputTokens:  10,
		OutputTokens: len(m.Response),
	}, nil
}

func (m *MockProvider) StreamComplete(ctx context.Context, req CompletionRequest) (<-chan StreamChunk, error) {
	m.record(req)
	if m.Err != nil {
		return nil, m.Err
	}

	chunks := m.Chunks
	if chunks == nil {
		chunks = []string{m.Response}
	}
	ch := make(chan StreamChunk)
	go func() {
		defer close(ch)
		for _, c := range chunks {
			if !send(ctx, ch, StreamChunk{Content: c}) {
				return
			}
		}
		if m.StreamErr != nil {
			send(ctx, ch, StreamChunk{Error: m.StreamErr})
			return
		}
		send(ctx, ch, StreamChunk{Done: true})
	}()
	return ch, nil
}

func (m *MockProvider) Models() []ModelInfo {
	return []ModelInfo{
		{ID: "mock", Name: "Mock Model", MaxTokens: 4096, Description: "Test mock"},
	}
}

func (m *MockProvider) HealthCheck(_ context.Context) error {
	return m.Err
}
