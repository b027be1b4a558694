package model

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
)

// ErrMalformedTransaction marks a record that cannot take part in analysis.
var ErrMalformedTransaction = errors.New("malformed transaction")

// SkippedRecord describes an input record that was left out of an analysis.
type SkippedRecord struct {
	Err           error
	TransactionID string
	Index         int
}

func (s SkippedRecord) String() string {
	if s.TransactionID != "" {
		return fmt.Sprintf("record %d (%s): %v", s.Index, s.TransactionID, s.Err)
	}
	return fmt.Sprintf("record %d: %v", s.Index, s.Err)
}

// Validate reports why a transaction cannot be analyzed, or nil.
func (t Transaction) Validate() error {
	if t.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrMalformedTransaction)
	}
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"amount", t.Amount},
		{"payment amount", t.PaymentAmount},
		{"reimbursement amount", t.ReimbursementAmount},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: %s is not a finite number", ErrMalformedTransaction, f.name)
		}
	}
	return nil
}

// Screen splits the input into analyzable records and skipped ones.
// Each skipped record is logged as a warning. The input is not modified.
func Screen(transactions []Transaction) ([]Transaction, []SkippedRecord) {
	valid := make([]Transaction, 0, len(transactions))
	var skipped []SkippedRecord

	for i, txn := range transactions {
		if err := txn.Validate(); err != nil {
			slog.Warn("Skipping transaction",
				"index", i,
				"id", txn.ID,
				"error", err)
			skipped = append(skipped, SkippedRecord{
				Index:         i,
				TransactionID: txn.ID,
				Err:           err,
			})
			continue
		}
		valid = append(valid, txn)
	}

	return valid, skipped
}

// DaySpan returns the number of days between the earliest and latest
// transaction dates. Empty input yields 0.
func DaySpan(transactions []Transaction) float64 {
	if len(transactions) == 0 {
		return 0
	}
	earliest, latest := transactions[0].Date, transactions[0].Date
	for _, txn := range transactions[1:] {
		if txn.Date.Before(earliest) {
			earliest = txn.Date
		}
		if txn.Date.After(latest) {
			latest = txn.Date
		}
	}
	return latest.Sub(earliest).Hours() / 24
}
