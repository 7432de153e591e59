// Package generation turns a content request into stored educational
// content: prompt, LLM stream, parse, validate, save and charge.
package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/p-n-ai/koulutus-bot/internal/ai"
	"github.com/p-n-ai/koulutus-bot/internal/content"
	"github.com/p-n-ai/koulutus-bot/internal/credits"
	"github.com/p-n-ai/koulutus-bot/internal/education"
)

const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 8192
	defaultTimeout     = 3 * time.Minute
)

var (
	// ErrInvalidRequest is returned before any work starts.
	ErrInvalidRequest = errors.New("invalid generation request")
	// ErrParse means the model output held no usable content.
	ErrParse = errors.New("parse generated content")
	// ErrValidation means a quiz failed validation.
	ErrValidation = errors.New("content validation failed")
)

// RequestError rejects a request before any work starts. It matches
// ErrInvalidRequest.
type RequestError struct {
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

func (e *RequestError) Is(target error) bool {
	return target == ErrInvalidRequest
}

// StreamError is returned for failures after the first event was sent.
// Message is the text delivered to the client in the error event.
type StreamError struct {
	Message string
	Err     error
}

func (e *StreamError) Error() string {
	return e.Message + ": " + e.Err.Error()
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

// Request asks for one piece of content.
type Request struct {
	UserID           string            `json:"-"`
	ContentType      string            `json:"contentType"`
	Subject          string            `json:"subject"`
	GradeLevel       string            `json:"gradeLevel"`
	Language         string            `json:"language,omitempty"`
	AdditionalParams map[string]string `json:"additionalParams,omitempty"`
	Model            string            `json:"model,omitempty"`
}

// Result is the outcome of a successful generation.
type Result struct {
	Content          education.Content
	ContentID        string
	CreditsUsed      int
	CreditsRemaining int
	Raw              string
}

// Config holds dependencies for the service.
type Config struct {
	AI           ai.Provider
	Repository   content.Repository
	Ledger       credits.Ledger
	Audit        AuditLogger
	DefaultModel string        // used when a request names no model
	Temperature  float64       // default 0.7
	MaxTokens    int           // default 8192
	Timeout      time.Duration // LLM stream deadline, default 3m
}

// Service runs generations.
type Service struct {
	ai           ai.Provider
	repo         content.Repository
	ledger       credits.Ledger
	audit        AuditLogger
	defaultModel string
	temperature  float64
	maxTokens    int
	timeout      time.Duration
}

// NewService creates a generation service.
func NewService(cfg Config) (*Service, error) {
	if cfg.AI == nil {
		return nil, fmt.Errorf("AI provider is required")
	}
	if cfg.Repository == nil {
		return nil, fmt.Errorf("content repository is required")
	}
	if cfg.Ledger == nil {
		return nil, fmt.Errorf("credit ledger is required")
	}
	s := &Service{
		ai:           cfg.AI,
		repo:         cfg.Repository,
		ledger:       cfg.Ledger,
		audit:        cfg.Audit,
		defaultModel: cfg.DefaultModel,
		temperature:  cfg.Temperature,
		maxTokens:    cfg.MaxTokens,
		timeout:      cfg.Timeout,
	}
	if s.audit == nil {
		s.audit = NopAuditLogger{}
	}
	if s.temperature <= 0 {
		s.temperature = defaultTemperature
	}
	if s.maxTokens <= 0 {
		s.maxTokens = defaultMaxTokens
	}
	if s.timeout <= 0 {
		s.timeout = defaultTimeout
	}
	return s, nil
}

// Prepare checks a request and the caller's credits without contacting
// the model. Transports call it before committing to a stream so these
// failures can become plain HTTP errors.
func (s *Service) Prepare(ctx context.Context, req Request) (education.ContentTypeInfo, error) {
	if req.UserID == "" {
		return education.ContentTypeInfo{}, &RequestError{Message: "Authentication required"}
	}
	if strings.TrimSpace(req.ContentType) == "" || strings.TrimSpace(req.Subject) == "" || strings.TrimSpace(req.GradeLevel) == "" {
		return education.ContentTypeInfo{}, &RequestError{Message: "Content type, subject, and grade level are required"}
	}
	ct, err := education.ParseContentType(req.ContentType)
	if err != nil {
		return education.ContentTypeInfo{}, &RequestError{Message: "Unsupported content type"}
	}
	info, ok := education.Lookup(ct)
	if !ok {
		return education.ContentTypeInfo{}, &RequestError{Message: "Unsupported content type"}
	}
	if _, err := credits.Check(ctx, s.ledger, req.UserID, info.Credits); err != nil {
		return education.ContentTypeInfo{}, err
	}
	return info, nil
}

// Generate runs the whole pipeline, reporting progress through emit.
// Errors from Prepare are returned without any event; every later
// failure emits one error event and returns a *StreamError.
func (s *Service) Generate(ctx context.Context, req Request, emit func(Event)) (*Result, error) {
	if emit == nil {
		emit = func(Event) {}
	}
	info, err := s.Prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	language := req.Language
	if language == "" {
		language = education.DefaultLanguage
	}
	prompt, err := education.BuildPrompt(info.Key, req.Subject, req.GradeLevel, language, req.AdditionalParams)
	if err != nil {
		return nil, &RequestError{Message: err.Error()}
	}

	started := time.Now()
	model := s.model(req.Model)
	log := slog.With("user_id", req.UserID, "content_type", info.Key, "subject", req.Subject)
	fail := func(msg string, err error) (*Result, error) {
		log.Warn("generation failed", "error", err, "message", msg)
		s.record(ctx, AuditEntry{
			UserID:      req.UserID,
			ContentType: string(info.Key),
			Model:       model,
			Status:      AuditFailed,
			Error:       msg,
			Duration:    time.Since(started),
		})
		emit(Event{Type: EventError, Message: msg})
		return nil, &StreamError{Message: msg, Err: err}
	}

	emit(statusEvent(fmt.Sprintf("Generating %s...", info.Description)))

	raw, err := s.stream(ctx, model, prompt, emit)
	if err != nil {
		return fail("Content generation failed", err)
	}

	emit(statusEvent("Parsing generated content..."))

	parsed, err := education.Parse(raw, info.Key)
	if err != nil {
		return fail("Failed to parse generated content", fmt.Errorf("%w: %w", ErrParse, err))
	}
	if q, ok := parsed.(*education.Quiz); ok {
		if v := education.ValidateQuiz(q); !v.IsValid {
			msg := "Content validation failed: " + strings.Join(v.Errors, ", ")
			return fail(msg, ErrValidation)
		}
	}

	rec := content.Record{
		UserID: req.UserID,
		Data:   education.ToStorageRecord(parsed, info.Key),
	}
	if c, ok := parsed.(*education.Course); ok {
		rec.Description = c.Metadata.Description
	}
	if p, ok := parsed.(*education.Presentation); ok {
		rec.Description = p.Metadata.Description
	}
	details := credits.Details{
		ContentType: string(info.Key),
		Subject:     req.Subject,
		GradeLevel:  req.GradeLevel,
	}
	saved, remaining, err := s.repo.SaveWithDeduction(ctx, rec, info.Credits, details)
	if err != nil {
		var insufficient *credits.InsufficientCreditsError
		if errors.As(err, &insufficient) {
			return fail(insufficient.Error(), err)
		}
		return fail("Failed to save generated content", err)
	}

	log.Info("content generated",
		"content_id", saved.ID,
		"credits_used", info.Credits,
		"credits_remaining", remaining,
		"duration", time.Since(started),
	)
	s.record(ctx, AuditEntry{
		UserID:      req.UserID,
		ContentType: string(info.Key),
		ContentID:   saved.ID,
		Model:       model,
		Status:      AuditCompleted,
		CreditsUsed: info.Credits,
		Duration:    time.Since(started),
	})

	res := &Result{
		Content:          parsed,
		ContentID:        saved.ID,
		CreditsUsed:      info.Credits,
		CreditsRemaining: remaining,
		Raw:              raw,
	}
	emit(Event{
		Type:             EventComplete,
		Content:          res.Content,
		ContentID:        res.ContentID,
		CreditsUsed:      res.CreditsUsed,
		CreditsRemaining: res.CreditsRemaining,
	})
	return res, nil
}

func (s *Service) record(ctx context.Context, entry AuditEntry) {
	if err := s.audit.Log(ctx, entry); err != nil {
		slog.Warn("failed to record generation audit", "error", err)
	}
}

// model applies the default model and maps any name mentioning groq to
// the groq provider.
func (s *Service) model(m string) string {
	m = strings.TrimSpace(m)
	if m == "" {
		return s.defaultModel
	}
	if !strings.HasPrefix(m, "groq/") && strings.Contains(m, "groq") {
		return "groq/"
	}
	return m
}

func (s *Service) stream(ctx context.Context, model, prompt string, emit func(Event)) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ch, err := s.ai.StreamComplete(ctx, ai.CompletionRequest{
		Messages:    []ai.Message{{Role: "user", Content: prompt}},
		Model:       model,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	})
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case chunk, ok := <-ch:
			if !ok || chunk.Done {
				return sb.String(), nil
			}
			if chunk.Error != nil {
				return "", chunk.Error
			}
			if chunk.Content == "" {
				continue
			}
			sb.WriteString(chunk.Content)
			emit(Event{Type: EventContent, Delta: chunk.Content})
		}
	}
}
