//go:build integration

package credits_test

import (
	"errors"
	"testing"

	"github.com/p-n-ai/koulutus-bot/internal/credits"
	"github.com/p-n-ai/koulutus-bot/internal/platform/database/dbtest"
)

func TestPostgresLedger(t *testing.T) {
	db := dbtest.New(t)
	ctx := t.Context()

	l, err := credits.NewPostgresLedger(db.Pool, 10)
	if err != nil {
		t.Fatalf("NewPostgresLedger() error = %v", err)
	}

	if got, err := l.Balance(ctx, "new-user"); err != nil || got != 10 {
		t.Fatalf("Balance() = %d, %v; want 10", got, err)
	}

	remaining, err := l.Deduct(ctx, "new-user", 8, credits.Details{ContentType: "course"})
	if err != nil {
		t.Fatalf("Deduct() error = %v", err)
	}
	if remaining != 2 {
		t.Errorf("remaining = %d, want 2", remaining)
	}

	if _, err := l.Deduct(ctx, "new-user", 3, credits.Details{}); !errors.Is(err, credits.ErrInsufficientCredits) {
		t.Errorf("Deduct() error = %v, want ErrInsufficientCredits", err)
	}

	var count int
	if err := db.Pool.QueryRow(ctx,
		`SELECT count(*) FROM credit_transactions WHERE user_id = $1`, "new-user",
	).Scan(&count); err != nil {
		t.Fatalf("count transactions: %v", err)
	}
	if count != 1 {
		t.Errorf("transactions = %d, want 1", count)
	}
}
