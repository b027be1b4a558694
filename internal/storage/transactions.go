package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/spice-forecast/internal/common"
	"github.com/Veraticus/spice-forecast/internal/model"
	"github.com/Veraticus/spice-forecast/internal/service"
)

const transactionColumns = `id, hash, date, name, merchant_name, amount,
	payment_amount, reimbursement_amount, mcc_code, user_category,
	categories, account_id, transaction_type, check_number`

// SaveTransactions saves multiple transactions to the database. Transactions
// whose hash is already stored are ignored. It returns the number inserted.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, transactions []model.Transaction) (int, error) {
	// Validate inputs
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateTransactions(transactions); err != nil {
		return 0, err
	}

	var inserted int
	err := common.WithRetry(ctx, func() error {
		n, saveErr := s.saveTransactionsOnce(ctx, transactions)
		if saveErr != nil {
			return &common.RetryableError{Err: saveErr, Retryable: isBusy(saveErr)}
		}
		inserted = n
		return nil
	}, saveRetryOptions)
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func (s *SQLiteStorage) saveTransactionsOnce(ctx context.Context, transactions []model.Transaction) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	inserted, err := s.saveTransactionsTx(ctx, tx, transactions)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transactions: %w", err)
	}
	return inserted, nil
}

func (s *SQLiteStorage) saveTransactionsTx(ctx context.Context, tx *sql.Tx, transactions []model.Transaction) (int, error) {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	inserted := 0
	for _, txn := range transactions {
		// Generate hash if not already set
		if txn.Hash == "" {
			txn.Hash = txn.GenerateHash()
		}

		// Convert categories slice to JSON string
		categoriesJSON := ""
		if len(txn.Category) > 0 {
			categoriesBytes, marshalErr := json.Marshal(txn.Category)
			if marshalErr == nil {
				categoriesJSON = string(categoriesBytes)
			}
		}

		name := txn.Name
		if name == "" {
			name = txn.MerchantName
		}

		result, execErr := stmt.ExecContext(ctx,
			txn.ID,
			txn.Hash,
			txn.Date,
			name,
			txn.MerchantName,
			txn.Amount,
			txn.PaymentAmount,
			txn.ReimbursementAmount,
			txn.MCCCode,
			txn.UserCategory,
			categoriesJSON,
			txn.AccountID,
			txn.Type,
			txn.CheckNumber,
		)
		if execErr != nil {
			return 0, fmt.Errorf("failed to insert transaction %s: %w", txn.ID, execErr)
		}

		if n, rowsErr := result.RowsAffected(); rowsErr == nil {
			inserted += int(n)
		}
	}

	return inserted, nil
}

// GetTransactions retrieves transactions matching the filter, oldest first.
func (s *SQLiteStorage) GetTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	return s.getTransactionsTx(ctx, s.db, filter)
}

func (s *SQLiteStorage) getTransactionsTx(ctx context.Context, q queryable, filter service.TransactionFilter) ([]model.Transaction, error) {
	var (
		conditions []string
		args       []any
	)

	if filter.StartDate != nil {
		conditions = append(conditions, "date >= ?")
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		conditions = append(conditions, "date <= ?")
		args = append(args, *filter.EndDate)
	}
	if filter.AccountID != "" {
		conditions = append(conditions, "account_id = ?")
		args = append(args, filter.AccountID)
	}

	query := "SELECT " + transactionColumns + " FROM transactions"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date ASC, id ASC"

	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTransactions(rows)
}

// CountTransactions returns the number of stored transactions.
func (s *SQLiteStorage) CountTransactions(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

// GetDateRange returns the earliest and latest transaction dates.
func (s *SQLiteStorage) GetDateRange(ctx context.Context) (*service.DateRange, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var r service.DateRange
	err := s.db.QueryRowContext(ctx, "SELECT date FROM transactions ORDER BY date ASC LIMIT 1").Scan(&r.Start)
	if err == sql.ErrNoRows {
		return nil, common.ErrNoTransactions
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get earliest transaction date: %w", err)
	}

	if err := s.db.QueryRowContext(ctx, "SELECT date FROM transactions ORDER BY date DESC LIMIT 1").Scan(&r.End); err != nil {
		return nil, fmt.Errorf("failed to get latest transaction date: %w", err)
	}

	return &r, nil
}

func scanTransactions(rows *sql.Rows) ([]model.Transaction, error) {
	var transactions []model.Transaction
	for rows.Next() {
		var txn model.Transaction
		var merchant, mcc, userCategory, categoriesJSON, accountID, txType, checkNum sql.NullString

		err := rows.Scan(
			&txn.ID,
			&txn.Hash,
			&txn.Date,
			&txn.Name,
			&merchant,
			&txn.Amount,
			&txn.PaymentAmount,
			&txn.ReimbursementAmount,
			&mcc,
			&userCategory,
			&categoriesJSON,
			&accountID,
			&txType,
			&checkNum,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		txn.MerchantName = merchant.String
		txn.MCCCode = mcc.String
		txn.UserCategory = userCategory.String
		txn.AccountID = accountID.String
		txn.Type = txType.String
		txn.CheckNumber = checkNum.String

		// Parse categories JSON
		if categoriesJSON.Valid && categoriesJSON.String != "" {
			if err := json.Unmarshal([]byte(categoriesJSON.String), &txn.Category); err != nil {
				// Log but don't fail on JSON parse error
				slog.Warn("Failed to parse categories JSON", "error", err, "json", categoriesJSON.String)
			}
		}

		transactions = append(transactions, txn)
	}

	return transactions, rows.Err()
}
