//go:build integration

// Package dbtest starts a throwaway PostgreSQL container for integration
// tests. Build with -tags integration.
package dbtest

import (
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/p-n-ai/koulutus-bot/internal/platform/database"
)

const image = "postgres:16-alpine"

// New returns a migrated database backed by a fresh container. The
// container is removed when the test ends.
func New(t *testing.T) *database.DB {
	t.Helper()
	ctx := t.Context()

	ctr, err := postgres.Run(ctx, image,
		postgres.WithDatabase("koulutus"),
		postgres.WithUsername("koulutus"),
		postgres.WithPassword("koulutus"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}

	url, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	db, err := database.New(ctx, url, 5, 1)
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(db.Close)

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return db
}
