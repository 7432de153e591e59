package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Audit statuses.
const (
	AuditCompleted = "completed"
	AuditFailed    = "failed"
)

// AuditEntry records the outcome of one generation.
type AuditEntry struct {
	UserID      string
	ContentType string
	ContentID   string
	Model       string
	Status      string
	Error       string
	CreditsUsed int
	Duration    time.Duration
	CreatedAt   time.Time
}

// AuditLogger stores generation outcomes.
type AuditLogger interface {
	Log(ctx context.Context, entry AuditEntry) error
}

// NopAuditLogger ignores all entries.
type NopAuditLogger struct{}

func (NopAuditLogger) Log(context.Context, AuditEntry) error {
	return nil
}

// MemoryAuditLogger keeps entries in memory for tests.
type MemoryAuditLogger struct {
	mu      sync.Mutex
	entries []AuditEntry
}

func NewMemoryAuditLogger() *MemoryAuditLogger {
	return &MemoryAuditLogger{entries: []AuditEntry{}}
}

func (l *MemoryAuditLogger) Log(_ context.Context, entry AuditEntry) error {
	if entry.Status == "" {
		return fmt.Errorf("status is required")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()
	return nil
}

func (l *MemoryAuditLogger) Entries() []AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]AuditEntry{}, l.entries...)
}

// PostgresAuditLogger inserts entries into generation_events.
type PostgresAuditLogger struct {
	pool *pgxpool.Pool
}

func NewPostgresAuditLogger(pool *pgxpool.Pool) *PostgresAuditLogger {
	return &PostgresAuditLogger{pool: pool}
}

func (l *PostgresAuditLogger) Log(ctx context.Context, entry AuditEntry) error {
	if l == nil || l.pool == nil {
		return fmt.Errorf("audit logger pool is nil")
	}
	if entry.Status == "" {
		return fmt.Errorf("status is required")
	}

	data, err := json.Marshal(map[string]any{
		"model":        entry.Model,
		"error":        entry.Error,
		"credits_used": entry.CreditsUsed,
		"duration_ms":  entry.Duration.Milliseconds(),
	})
	if err != nil {
		return fmt.Errorf("marshal audit data: %w", err)
	}

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	// The caller's context may already be cancelled after a failed stream.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	var contentID *string
	if entry.ContentID != "" {
		contentID = &entry.ContentID
	}
	if _, err := l.pool.Exec(ctx,
		`INSERT INTO generation_events (user_id, content_type, content_id, status, data, created_at)
		 VALUES ($1, $2, $3::uuid, $4, $5::jsonb, $6)`,
		entry.UserID,
		entry.ContentType,
		contentID,
		entry.Status,
		string(data),
		createdAt,
	); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	slog.Debug("generation audited",
		"user_id", entry.UserID,
		"content_type", entry.ContentType,
		"status", entry.Status,
	)
	return nil
}
