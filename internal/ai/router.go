package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// ErrNoProvider is returned when no provider is registered or all failed.
var ErrNoProvider = errors.New("no AI provider available")

// Router resolves "provider/model" strings to a registered provider and
// falls back through the remaining providers in registration order.
// Router itself satisfies Provider.
type Router struct {
	providers    map[string]Provider
	fallback     []string // ordered fallback chain
	defaultModel string
	mu           sync.RWMutex
}

// NewRouter creates a router. defaultModel is used for requests that name
// no model or an unknown provider prefix, e.g. "anthropic/claude-sonnet-4-6".
func NewRouter(defaultModel string) *Router {
	return &Router{
		providers:    make(map[string]Provider),
		defaultModel: defaultModel,
	}
}

// Register adds a provider to the router.
func (r *Router) Register(name string, provider Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.providers[name]; !exists {
		r.fallback = append(r.fallback, name)
	}
	r.providers[name] = provider
}

// HasProvider returns true if at least one provider is registered.
func (r *Router) HasProvider() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers) > 0
}

// Providers returns registered provider names in fallback order.
func (r *Router) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.fallback...)
}

// Resolve maps a model string to a registered provider name and the
// provider-local model id. The model id is empty when the provider's own
// default should be used.
func (r *Router) Resolve(model string) (provider, modelID string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolveLocked(model)
}

func (r *Router) resolveLocked(model string) (string, string) {
	if name, id, ok := r.split(model); ok {
		return name, id
	}
	if name, id, ok := r.split(r.defaultModel); ok {
		return name, id
	}
	if len(r.fallback) > 0 {
		return r.fallback[0], ""
	}
	return "", ""
}

func (r *Router) split(model string) (string, string, bool) {
	// A bare "groq" style name still selects the provider.
	name, id, _ := strings.Cut(strings.TrimSpace(model), "/")
	if _, ok := r.providers[name]; !ok {
		return "", "", false
	}
	return name, id, true
}

type candidate struct {
	name     string
	model    string
	provider Provider
}

// candidates lists the resolved provider first, then every other provider
// with its own default model.
func (r *Router) candidates(model string) []candidate {
	r.mu.RLock()
	defer r.mu.RUnlock()

	first, id := r.resolveLocked(model)
	if first == "" {
		return nil
	}
	out := []candidate{{name: first, model: id, provider: r.providers[first]}}
	for _, name := range r.fallback {
		if name != first {
			out = append(out, candidate{name: name, provider: r.providers[name]})
		}
	}
	return out
}

// Complete routes a request to the resolved provider, falling back on error.
func (r *Router) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	var lastErr error
	for _, c := range r.candidates(req.Model) {
		creq := req
		creq.Model = c.model

		resp, err := c.provider.Complete(ctx, creq)
		if err != nil {
			if ctx.Err() != nil {
				return CompletionResponse{}, ctx.Err()
			}
			slog.Warn("AI provider failed, trying next",
				"provider", c.name,
				"error", err,
			)
			lastErr = err
			continue
		}

		slog.Debug("AI request completed",
			"provider", c.name,
			"model", resp.Model,
			"input_tokens", resp.InputTokens,
			"output_tokens", resp.OutputTokens,
		)
		return resp, nil
	}
	return CompletionResponse{}, noProvider(lastErr)
}

// StreamComplete opens a stream on the resolved provider. Fallback happens
// only when a provider fails to start streaming; errors after that are
// delivered on the channel.
func (r *Router) StreamComplete(ctx context.Context, req CompletionRequest) (<-chan StreamChunk, error) {
	var lastErr error
	for _, c := range r.candidates(req.Model) {
		creq := req
		creq.Model = c.model

		ch, err := c.provider.StreamComplete(ctx, creq)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Warn("AI provider failed to stream, trying next",
				"provider", c.name,
				"error", err,
			)
			lastErr = err
			continue
		}

		slog.Debug("AI stream started", "provider", c.name, "model", c.model)
		return ch, nil
	}
	return nil, noProvider(lastErr)
}

// Models lists the models of every provider, prefixed with the provider name.
func (r *Router) Models() []ModelInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []ModelInfo
	for _, name := range r.fallback {
		for _, m := range r.providers[name].Models() {
			m.ID = name + "/" + m.ID
			out = append(out, m)
		}
	}
	return out
}

// HealthCheck succeeds when at least one provider is healthy.
func (r *Router) HealthCheck(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var errs []error
	for _, name := range r.fallback {
		err := r.providers[name].HealthCheck(ctx)
		if err == nil {
			return nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", name, err))
	}
	if len(errs) == 0 {
		return ErrNoProvider
	}
	return errors.Join(errs...)
}

func noProvider(lastErr error) error {
	if lastErr == nil {
		return ErrNoProvider
	}
	return fmt.Errorf("%w: all AI providers failed: %w", ErrNoProvider, lastErr)
}
