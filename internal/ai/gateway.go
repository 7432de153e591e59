// Package ai provides a provider-agnostic gateway for text generation with
// model-prefix routing and streaming.
package ai

import "context"

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the input to an AI completion.
type CompletionRequest struct {
	Messages    []Message `json:"messages"`
	Model       string    `json:"model,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

// CompletionResponse is the output from an AI completion.
type CompletionResponse struct {
	Content      string `json:"content"`
	Model        string `json:"model"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// TotalTokens returns the sum of input and output tokens.
func (r CompletionResponse) TotalTokens() int {
	return r.InputTokens + r.OutputTokens
}

// StreamChunk is one delta of a streamed completion. The last chunk has
// Done set, or Error when the stream broke.
type StreamChunk struct {
	Content string
	Done    bool
	Error   error
}

// ModelInfo describes an available model.
type ModelInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MaxTokens   int    `json:"max_tokens"`
	Description string `json:"description"`
}

// Provider is the interface all AI providers must implement.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
	// StreamComplete starts a streamed completion. The channel is closed
	// after the final chunk.
	StreamComplete(ctx context.Context, req CompletionRequest) (<-chan StreamChunk, error)
	Models() []ModelInfo
	HealthCheck(ctx context.Context) error
}

// Collect drains a stream into a single string. It returns the text read so
// far together with the first chunk error.
func Collect(ctx context.Context, ch <-chan StreamChunk) (string, error) {
	var out []byte
	for {
		select {
		case <-ctx.Done():
			return string(out), ctx.Err()
		case chunk, ok := <-ch:
			if !ok {
				return string(out), nil
			}
			if chunk.Error != nil {
				return string(out), chunk.Error
			}
			out = append(out, chunk.Content...)
			if chunk.Done {
				return string(out), nil
			}
		}
	}
}
