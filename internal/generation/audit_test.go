package generation_test

import (
	"testing"

	"github.com/p-n-ai/koulutus-bot/internal/generation"
)

func TestMemoryAuditLogger_Log(t *testing.T) {
	l := generation.NewMemoryAuditLogger()

	if err := l.Log(t.Context(), generation.AuditEntry{UserID: "u1"}); err == nil {
		t.Error("Log() without status should fail")
	}
	if err := l.Log(t.Context(), generation.AuditEntry{UserID: "u1", Status: generation.AuditCompleted}); err != nil {
		t.Fatalf("Log() error = %v", err)
	}

	entries := l.Entries()
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	if entries[0].CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestPostgresAuditLogger_NilPool(t *testing.T) {
	l := generation.NewPostgresAuditLogger(nil)
	if err := l.Log(t.Context(), generation.AuditEntry{Status: generation.AuditFailed}); err == nil {
		t.Fatal("expected error for nil pool")
	}
}
