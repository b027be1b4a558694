package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/spice-forecast/internal/model"
	"github.com/Veraticus/spice-forecast/internal/storage"
)

// SetupTestDB creates a migrated in-memory database seeded with txns.
// The database is closed when the test finishes.
//
// Example:
//
//	store := testutil.SetupTestDB(t, testutil.NewHistory().
//		Monthly("Netflix", 15.99, testutil.Date(2024, time.January, 5), 6).
//		Build()...)
func SetupTestDB(t *testing.T, txns ...model.Transaction) *storage.SQLiteStorage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	if len(txns) > 0 {
		saved, err := store.SaveTransactions(ctx, txns)
		if err != nil {
			t.Fatalf("failed to seed transactions: %v", err)
		}
		if saved != len(txns) {
			t.Fatalf("seeded %d of %d transactions; fixtures must have distinct hashes", saved, len(txns))
		}
	}

	return store
}
