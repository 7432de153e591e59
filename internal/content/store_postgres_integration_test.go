//go:build integration

package content_test

import (
	"errors"
	"testing"

	"github.com/p-n-ai/koulutus-bot/internal/content"
	"github.com/p-n-ai/koulutus-bot/internal/credits"
	"github.com/p-n-ai/koulutus-bot/internal/education"
	"github.com/p-n-ai/koulutus-bot/internal/platform/database/dbtest"
)

func TestPostgresRepository(t *testing.T) {
	db := dbtest.New(t)
	ctx := t.Context()

	ledger, err := credits.NewPostgresLedger(db.Pool, 5)
	if err != nil {
		t.Fatalf("NewPostgresLedger() error = %v", err)
	}
	repo, err := content.NewPostgresRepository(db.Pool, ledger)
	if err != nil {
		t.Fatalf("NewPostgresRepository() error = %v", err)
	}

	saved, remaining, err := repo.SaveWithDeduction(ctx, quizRecord("u1", "Kertolasku"), 2, credits.Details{ContentType: "quiz"})
	if err != nil {
		t.Fatalf("SaveWithDeduction() error = %v", err)
	}
	if remaining != 3 {
		t.Errorf("remaining = %d, want 3", remaining)
	}

	got, err := repo.Get(ctx, saved.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	q, ok := got.Data.ContentData.(*education.Quiz)
	if !ok {
		t.Fatalf("ContentData = %T, want *education.Quiz", got.Data.ContentData)
	}
	if q.Metadata.Title != "Kertolasku" || len(q.Questions) != 1 || !q.Questions[0].Options[0].Correct {
		t.Errorf("quiz = %+v", q)
	}
	if got.Data.SharingSettings.Public {
		t.Error("Public = true, want false")
	}

	// Not enough credits: neither the row nor the deduction is kept.
	_, _, err = repo.SaveWithDeduction(ctx, quizRecord("u1", "Jakolasku"), 8, credits.Details{})
	if !errors.Is(err, credits.ErrInsufficientCredits) {
		t.Fatalf("error = %v, want ErrInsufficientCredits", err)
	}
	list, err := repo.ListByUser(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(list) != 1 {
		t.Errorf("records = %d, want 1", len(list))
	}
	if balance, _ := ledger.Balance(ctx, "u1"); balance != 3 {
		t.Errorf("balance = %d, want 3", balance)
	}

	if _, err := repo.Get(ctx, "not-a-uuid"); !errors.Is(err, content.ErrNotFound) {
		t.Errorf("Get(not-a-uuid) error = %v, want ErrNotFound", err)
	}
	if _, err := repo.Get(ctx, "00000000-0000-0000-0000-000000000000"); !errors.Is(err, content.ErrNotFound) {
		t.Errorf("Get(zero uuid) error = %v, want ErrNotFound", err)
	}

	updated, err := repo.UpdateSharing(ctx, saved.ID, "u1", education.SharingSettings{Public: true, LinkSharing: true})
	if err != nil {
		t.Fatalf("UpdateSharing() error = %v", err)
	}
	if !updated.Data.SharingSettings.Public || !updated.Data.SharingSettings.LinkSharing {
		t.Errorf("SharingSettings = %+v, want both enabled", updated.Data.SharingSettings)
	}
	if _, ok := updated.Data.ContentData.(*education.Quiz); !ok {
		t.Errorf("ContentData = %T, want *education.Quiz", updated.Data.ContentData)
	}
	if _, err := repo.UpdateSharing(ctx, saved.ID, "u2", education.SharingSettings{}); !errors.Is(err, content.ErrNotFound) {
		t.Errorf("UpdateSharing() by another user error = %v, want ErrNotFound", err)
	}
}
