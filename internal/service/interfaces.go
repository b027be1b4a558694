// Package service defines the interfaces between the analysis core and its collaborators.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/spice-forecast/internal/model"
)

// TransactionFilter defines filtering options for transaction queries.
type TransactionFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	AccountID string
	Limit     int
	Offset    int
}

// TransactionProvider supplies transaction history to the analysis core.
// Implementations may return records in any order.
type TransactionProvider interface {
	GetTransactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error)
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	TransactionProvider

	// SaveTransactions inserts transactions, ignoring ones whose hash already exists.
	// It returns the number of rows actually inserted.
	SaveTransactions(ctx context.Context, transactions []model.Transaction) (int, error)
	CountTransactions(ctx context.Context) (int, error)
	GetDateRange(ctx context.Context) (*DateRange, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// DateRange represents a time period.
type DateRange struct {
	Start time.Time
	End   time.Time
}
