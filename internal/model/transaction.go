package model

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"
)

// Transaction represents a single purchase from any source.
// Analysis code treats it as read-only.
type Transaction struct {
	Date         time.Time
	ID           string
	Name         string // Raw transaction description
	MerchantName string // Cleaned merchant name
	AccountID    string
	Hash         string
	MCCCode      string // Merchant category code, if the source provides one
	UserCategory string // Category assigned by the user, takes precedence over Category
	Type         string // Transaction type (e.g., DEBIT, CHECK, PAYMENT, ATM)
	CheckNumber  string

	// Category hints from the source (e.g., OFX transaction type mapping)
	Category []string

	Amount              float64
	PaymentAmount       float64 // Amount in the payment currency; zero means "same as Amount"
	ReimbursementAmount float64 // Portion paid back to the user
}

// EffectiveAmount is the amount the user actually bore for this transaction.
//
// Precedence: PaymentAmount when non-zero, otherwise Amount; the
// ReimbursementAmount is then subtracted. Every analysis uses this accessor.
func (t Transaction) EffectiveAmount() float64 {
	base := t.PaymentAmount
	if base == 0 {
		base = t.Amount
	}
	return base - t.ReimbursementAmount
}

// Merchant returns the cleaned merchant name, falling back to the raw description.
func (t Transaction) Merchant() string {
	if m := strings.TrimSpace(t.MerchantName); m != "" {
		return m
	}
	return strings.TrimSpace(t.Name)
}

// CategoryName returns the user category, then the first source category.
func (t Transaction) CategoryName() string {
	if t.UserCategory != "" {
		return t.UserCategory
	}
	if len(t.Category) > 0 {
		return t.Category[0]
	}
	return ""
}

// GenerateHash creates a unique hash for duplicate detection.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%.2f:%s:%s",
		t.Date.Format("2006-01-02"),
		t.Amount,
		t.MerchantName,
		t.AccountID)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
