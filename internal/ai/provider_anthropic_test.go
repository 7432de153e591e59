package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func anthropicServer(t *testing.T, check func(body anthropicRequest), reply string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("unexpected x-api-key: %s", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") != anthropicVersion {
			t.Errorf("unexpected anthropic-version: %s", r.Header.Get("anthropic-version"))
		}

		var body anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if check != nil {
			check(body)
		}
		fmt.Fprintf(w, `{"content":[{"type":"text","text":%q}],"model":"claude-sonnet-4-6","usage":{"input_tokens":12,"output_tokens":8}}`, reply)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNewAnthropicProvider_EmptyKey(t *testing.T) {
	if _, err := NewAnthropicProvider(""); err == nil {
		t.Fatal("NewAnthropicProvider() should return error for empty key")
	}
}

func TestAnthropicProvider_Complete(t *testing.T) {
	server := anthropicServer(t, func(body anthropicRequest) {
		if body.Model != defaultAnthropicModel {
			t.Errorf("model = %q, want %q", body.Model, defaultAnthropicModel)
		}
		if body.MaxTokens != 4096 {
			t.Errorf("max_tokens = %d, want 4096", body.MaxTokens)
		}
	}, "Claude response")

	provider, err := NewAnthropicProvider("test-key", WithAnthropicBaseURL(server.URL))
	if err != nil {
		t.Fatalf("NewAnthropicProvider() error = %v", err)
	}

	resp, err := provider.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: "user", Content: "hello"}},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Content != "Claude response" {
		t.Errorf("content = %q, want %q", resp.Content, "Claude response")
	}
	if resp.InputTokens != 12 || resp.OutputTokens != 8 {
		t.Errorf("tokens = %d/%d, want 12/8", resp.InputTokens, resp.OutputTokens)
	}
}

func TestAnthropicProvider_Complete_SystemMessage(t *testing.T) {
	server := anthropicServer(t, func(body anthropicRequest) {
		if body.System != "Olet opettaja." {
			t.Errorf("system = %q", body.System)
		}
		if len(body.Messages) != 1 || body.Messages[0].Role != "user" {
			t.Errorf("messages = %+v, want only the user message", body.Messages)
		}
	}, "ok")

	provider, _ := NewAnthropicProvider("test-key", WithAnthropicBaseURL(server.URL))
	_, err := provider.Complete(context.Background(), CompletionRequest{
		Messages: []Message{
			{Role: "system", Content: "Olet opettaja."},
			{Role: "user", Content: "hei"},
		},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
}

func TestAnthropicProvider_Complete_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "invalid api key"}}`))
	}))
	defer server.Close()

	provider, _ := NewAnthropicProvider("bad-key", WithAnthropicBaseURL(server.URL))
	_, err := provider.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: "user", Content: "hello"}},
	})
	if err == nil {
		t.Fatal("Complete() should return error on API error")
	}
}

func TestAnthropicProvider_StreamComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body anthropicRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		if !body.Stream {
			t.Error("stream flag not set")
		}

		w.Header().Set("Content-Type", "text/event-stream")
		events := []string{
			`event: message_start` + "\n" + `data: {"type":"message_start","message":{"id":"msg_1"}}`,
			`event: content_block_start` + "\n" + `data: {"type":"content_block_start","index":0}`,
			`event: ping` + "\n" + `data: {"type":"ping"}`,
			`event: content_block_delta` + "\n" + `data: {"type":"content_block_delta","delta":{"type":"text_delta","text":"<quiz>"}}`,
			`event: content_block_delta` + "\n" + `data: {"type":"content_block_delta","delta":{"type":"text_delta","text":"</quiz>"}}`,
			`event: message_stop` + "\n" + `data: {"type":"message_stop"}`,
		}
		for _, e := range events {
			fmt.Fprint(w, e+"\n\n")
		}
	}))
	defer server.Close()

	provider, _ := NewAnthropicProvider("test-key", WithAnthropicBaseURL(server.URL))
	ch, err := provider.StreamComplete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: "user", Content: "hello"}},
	})
	if err != nil {
		t.Fatalf("StreamComplete() error = %v", err)
	}
	got, err := Collect(context.Background(), ch)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if got != "<quiz></quiz>" {
		t.Errorf("Collect() = %q", got)
	}
}

func TestAnthropicProvider_StreamComplete_ErrorEvent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: error\ndata: {\"type\":\"error\",\"error\":{\"type\":\"overloaded_error\",\"message\":\"Overloaded\"}}\n\n")
	}))
	defer server.Close()

	provider, _ := NewAnthropicProvider("test-key", WithAnthropicBaseURL(server.URL))
	ch, err := provider.StreamComplete(context.Background(), CompletionRequest{})
	if err != nil {
		t.Fatalf("StreamComplete() error = %v", err)
	}
	if _, err := Collect(context.Background(), ch); err == nil {
		t.Fatal("Collect() should return the stream error")
	}
}

func TestAnthropicProvider_HealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantErr    bool
	}{
		{"healthy", http.StatusOK, false},
		{"unhealthy", http.StatusUnauthorized, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.statusCode != http.StatusOK {
					w.WriteHeader(tt.statusCode)
					return
				}
				_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"pong"}],"model":"claude-sonnet-4-6"}`))
			}))
			defer server.Close()

			provider, _ := NewAnthropicProvider("test-key", WithAnthropicBaseURL(server.URL))
			err := provider.HealthCheck(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("HealthCheck() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
