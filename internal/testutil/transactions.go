// Package testutil provides transaction fixtures and test database helpers.
//
// Example usage:
//
//	txns := testutil.NewHistory().
//		Monthly("Netflix", 15.99, testutil.Date(2024, time.January, 5), 12).
//		Add(testutil.Date(2024, time.March, 2), "Corner Cafe", 4.50).
//		Build()
package testutil

import (
	"fmt"
	"time"

	"github.com/Veraticus/spice-forecast/internal/model"
)

// Date returns midnight UTC of the given calendar date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// HistoryBuilder assembles a deterministic transaction history.
type HistoryBuilder struct {
	account string
	txns    []model.Transaction
}

// NewHistory starts an empty history for a single test account.
func NewHistory() *HistoryBuilder {
	return &HistoryBuilder{account: "acct-test"}
}

// Add appends one purchase.
func (b *HistoryBuilder) Add(date time.Time, merchant string, amount float64) *HistoryBuilder {
	return b.AddTransaction(model.Transaction{
		Date:         date,
		Name:         merchant,
		MerchantName: merchant,
		Amount:       amount,
	})
}

// AddTransaction appends a fully specified transaction, filling ID, account and hash.
func (b *HistoryBuilder) AddTransaction(txn model.Transaction) *HistoryBuilder {
	if txn.ID == "" {
		txn.ID = fmt.Sprintf("txn-%04d", len(b.txns)+1)
	}
	if txn.AccountID == "" {
		txn.AccountID = b.account
	}
	if txn.Name == "" {
		txn.Name = txn.MerchantName
	}
	if txn.Hash == "" {
		txn.Hash = txn.GenerateHash()
	}
	b.txns = append(b.txns, txn)
	return b
}

// Monthly appends one charge per month starting at first. Optional day offsets
// are applied cyclically to jitter the billing day.
func (b *HistoryBuilder) Monthly(merchant string, amount float64, first time.Time, months int, dayOffsets ...int) *HistoryBuilder {
	for i := 0; i < months; i++ {
		date := first.AddDate(0, i, 0)
		if len(dayOffsets) > 0 {
			date = date.AddDate(0, 0, dayOffsets[i%len(dayOffsets)])
		}
		b.Add(date, merchant, amount)
	}
	return b
}

// Daily appends one charge per day for the given number of days.
func (b *HistoryBuilder) Daily(merchant string, amount float64, start time.Time, days int) *HistoryBuilder {
	for i := 0; i < days; i++ {
		b.Add(start.AddDate(0, 0, i), merchant, amount)
	}
	return b
}

// Build returns a copy of the assembled transactions.
func (b *HistoryBuilder) Build() []model.Transaction {
	out := make([]model.Transaction, len(b.txns))
	copy(out, b.txns)
	return out
}
