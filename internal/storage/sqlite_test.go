package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/spice-forecast/internal/model"
	"github.com/Veraticus/spice-forecast/internal/service"
	"github.com/mattn/go-sqlite3"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

var testBaseTime = time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)

// Helper function to create test transactions, one per day.
func createTestTransactions(count int) []model.Transaction {
	txns := make([]model.Transaction, count)

	for i := 0; i < count; i++ {
		txns[i] = model.Transaction{
			ID:           fmt.Sprintf("txn-%03d", i+1),
			Date:         testBaseTime.AddDate(0, 0, i),
			Name:         fmt.Sprintf("Transaction #%d", i+1),
			MerchantName: fmt.Sprintf("Merchant #%d", (i%3)+1),
			Amount:       float64(i+1) * 10.50,
			AccountID:    "acc1",
			Category:     []string{"Food", "Restaurants"},
		}
		txns[i].Hash = txns[i].GenerateHash()
	}
	return txns
}

func TestNewSQLiteStorage_EmptyPath(t *testing.T) {
	if _, err := NewSQLiteStorage(""); err == nil {
		t.Error("Expected error for empty database path")
	}
}

func TestSQLiteStorage_SaveTransactions(t *testing.T) {
	tests := []struct {
		setup        func(*SQLiteStorage, context.Context)
		validate     func(*testing.T, *SQLiteStorage, context.Context)
		name         string
		transactions []model.Transaction
		wantInserted int
		wantErr      bool
	}{
		{
			name:         "save new transactions",
			transactions: createTestTransactions(3),
			wantInserted: 3,
			validate: func(t *testing.T, s *SQLiteStorage, ctx context.Context) {
				t.Helper()
				txns, err := s.GetTransactions(ctx, service.TransactionFilter{})
				if err != nil {
					t.Errorf("Failed to get transactions: %v", err)
				}
				if len(txns) != 3 {
					t.Errorf("Expected 3 transactions, got %d", len(txns))
				}
			},
		},
		{
			name:         "handle duplicate transactions",
			transactions: createTestTransactions(2),
			setup: func(s *SQLiteStorage, ctx context.Context) {
				// Save the same transactions first
				_, _ = s.SaveTransactions(ctx, createTestTransactions(2))
			},
			wantInserted: 0,
			validate: func(t *testing.T, s *SQLiteStorage, ctx context.Context) {
				t.Helper()
				count, err := s.CountTransactions(ctx)
				if err != nil {
					t.Errorf("Failed to count transactions: %v", err)
				}
				// Should still have only 2 transactions (no duplicates)
				if count != 2 {
					t.Errorf("Expected 2 transactions (no duplicates), got %d", count)
				}
			},
		},
		{
			name:         "save empty list",
			transactions: []model.Transaction{},
			wantErr:      true,
		},
		{
			name: "reject transaction without date",
			transactions: []model.Transaction{
				{ID: "no-date", Name: "Mystery", Amount: 10, AccountID: "acc1"},
			},
			wantErr: true,
		},
		{
			name: "save spending fields",
			transactions: []model.Transaction{
				{
					ID:                  "txn-full",
					Date:                testBaseTime,
					Name:                "SQ *CORNER CAFE 1234",
					MerchantName:        "Corner Cafe",
					Amount:              50.00,
					PaymentAmount:       45.00,
					ReimbursementAmount: 20.00,
					MCCCode:             "5814",
					UserCategory:        "Dining",
					AccountID:           "acc1",
					Type:                "DEBIT",
					Category:            []string{"Travel", "Airlines"},
				},
			},
			wantInserted: 1,
			validate: func(t *testing.T, s *SQLiteStorage, ctx context.Context) {
				t.Helper()
				txns, err := s.GetTransactions(ctx, service.TransactionFilter{AccountID: "acc1"})
				if err != nil {
					t.Fatalf("Failed to get transaction: %v", err)
				}
				if len(txns) != 1 {
					t.Fatalf("Expected 1 transaction, got %d", len(txns))
				}
				txn := txns[0]
				if txn.PaymentAmount != 45.00 || txn.ReimbursementAmount != 20.00 {
					t.Errorf("Amounts not preserved: payment %v, reimbursement %v", txn.PaymentAmount, txn.ReimbursementAmount)
				}
				if got := txn.EffectiveAmount(); got != 25.00 {
					t.Errorf("EffectiveAmount() = %v, want 25", got)
				}
				if txn.MCCCode != "5814" || txn.UserCategory != "Dining" || txn.Type != "DEBIT" {
					t.Errorf("Fields not preserved: %+v", txn)
				}
				if !txn.Date.Equal(testBaseTime) {
					t.Errorf("Date = %v, want %v", txn.Date, testBaseTime)
				}
				expectedCategories := []string{"Travel", "Airlines"}
				if len(txn.Category) != len(expectedCategories) {
					t.Errorf("Categories not preserved, expected %v, got %v", expectedCategories, txn.Category)
				} else {
					for i, cat := range expectedCategories {
						if txn.Category[i] != cat {
							t.Errorf("Category[%d] mismatch: expected %s, got %s", i, cat, txn.Category[i])
						}
					}
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, cleanup := createTestStorage(t)
			defer cleanup()
			ctx := context.Background()

			if tt.setup != nil {
				tt.setup(store, ctx)
			}

			inserted, err := store.SaveTransactions(ctx, tt.transactions)
			if (err != nil) != tt.wantErr {
				t.Errorf("SaveTransactions() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && inserted != tt.wantInserted {
				t.Errorf("SaveTransactions() inserted = %d, want %d", inserted, tt.wantInserted)
			}

			if tt.validate != nil {
				tt.validate(t, store, ctx)
			}
		})
	}
}

func TestSQLiteStorage_Migrations(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	// Test initial migration
	store1, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()
	if err2 := store1.Migrate(ctx); err2 != nil {
		t.Fatalf("Initial migration failed: %v", err2)
	}
	_ = store1.Close()

	// Test idempotency - running migrations again should not error
	store2, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer func() { _ = store2.Close() }()

	if err := store2.Migrate(ctx); err != nil {
		t.Fatalf("Repeated migration failed: %v", err)
	}

	version, err := store2.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("Failed to read schema version: %v", err)
	}
	if version != ExpectedSchemaVersion {
		t.Errorf("SchemaVersion() = %d, want %d", version, ExpectedSchemaVersion)
	}

	// Verify database is functional after migrations
	if _, err := store2.SaveTransactions(ctx, createTestTransactions(1)); err != nil {
		t.Errorf("Database not functional after migration: %v", err)
	}
}

func TestSQLiteStorage_ConcurrentAccess(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	// Test concurrent reads and writes
	done := make(chan bool)
	errs := make(chan error, 10)

	// Concurrent writers
	for i := 0; i < 5; i++ {
		go func(id int) {
			txn := model.Transaction{
				ID:           fmt.Sprintf("concurrent-%d", id),
				Date:         testBaseTime.AddDate(0, 0, id),
				Name:         fmt.Sprintf("Concurrent #%d", id),
				MerchantName: "TestMerchant",
				Amount:       float64(id+1) * 10,
				AccountID:    "acc1",
			}
			txn.Hash = txn.GenerateHash()

			if _, err := store.SaveTransactions(ctx, []model.Transaction{txn}); err != nil {
				errs <- err
			}
			done <- true
		}(i)
	}

	// Concurrent readers
	for i := 0; i < 5; i++ {
		go func() {
			if _, err := store.GetTransactions(ctx, service.TransactionFilter{}); err != nil {
				errs <- err
			}
			done <- true
		}()
	}

	// Wait for all goroutines
	for i := 0; i < 10; i++ {
		<-done
	}

	close(errs)
	for err := range errs {
		t.Errorf("Concurrent access error: %v", err)
	}

	count, err := store.CountTransactions(ctx)
	if err != nil {
		t.Fatalf("Failed to count transactions: %v", err)
	}
	if count != 5 {
		t.Errorf("Expected 5 transactions, got %d", count)
	}
}

func TestIsBusy(t *testing.T) {
	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "busy", err: sqlite3.Error{Code: sqlite3.ErrBusy}, want: true},
		{name: "locked", err: fmt.Errorf("commit: %w", sqlite3.Error{Code: sqlite3.ErrLocked}), want: true},
		{name: "constraint", err: sqlite3.Error{Code: sqlite3.ErrConstraint}, want: false},
		{name: "plain", err: fmt.Errorf("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isBusy(tt.err); got != tt.want {
				t.Errorf("isBusy() = %v, want %v", got, tt.want)
			}
		})
	}
}
