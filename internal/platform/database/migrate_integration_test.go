//go:build integration

package database_test

import (
	"testing"

	"github.com/p-n-ai/koulutus-bot/internal/platform/database/dbtest"
)

func TestMigrate_Idempotent(t *testing.T) {
	db := dbtest.New(t)

	if err := db.Migrate(t.Context()); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}

	for _, table := range []string{"profiles", "credit_transactions", "educational_content", "generation_events"} {
		var exists bool
		err := db.Pool.QueryRow(t.Context(),
			`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)`,
			table,
		).Scan(&exists)
		if err != nil {
			t.Fatalf("query %s: %v", table, err)
		}
		if !exists {
			t.Errorf("table %s missing", table)
		}
	}

	var version int64
	var dirty bool
	if err := db.Pool.QueryRow(t.Context(), `SELECT version, dirty FROM schema_migrations`).Scan(&version, &dirty); err != nil {
		t.Fatalf("read schema_migrations: %v", err)
	}
	if version != 3 || dirty {
		t.Errorf("schema version = %d (dirty %v), want 3 clean", version, dirty)
	}

	// Statements with semicolons inside literals run intact.
	var comment string
	err := db.Pool.QueryRow(t.Context(), `SELECT obj_description('generation_events'::regclass, 'pg_class')`).Scan(&comment)
	if err != nil {
		t.Fatalf("read table comment: %v", err)
	}
	if want := "One row per finished generation; completed or failed."; comment != want {
		t.Errorf("comment = %q, want %q", comment, want)
	}
}
