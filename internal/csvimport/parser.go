// Package csvimport reads spending transactions from CSV exports.
package csvimport

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/spice-forecast/internal/common"
	"github.com/Veraticus/spice-forecast/internal/model"
	"github.com/shopspring/decimal"
)

// Column headers. Matching is case-insensitive.
const (
	ColumnID            = "ID"
	ColumnDate          = "Date"
	ColumnMerchant      = "Merchant"
	ColumnName          = "Name"
	ColumnAmount        = "Amount"
	ColumnPayment       = "Payment Amount"
	ColumnReimbursement = "Reimbursement"
	ColumnMCC           = "MCC"
	ColumnCategory      = "Category"
	ColumnAccount       = "Account"
)

// dateLayouts are tried in order.
var dateLayouts = []string{
	time.DateOnly,
	"01/02/2006",
	"1/2/2006",
	"2006/01/02",
}

// ErrInvalidRow marks a row that could not be converted.
var ErrInvalidRow = errors.New("invalid CSV row")

// RowError describes a rejected row. Row is the 1-based line number in the file.
type RowError struct {
	Err error
	Row int
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e RowError) Unwrap() error {
	return e.Err
}

// Parser converts CSV exports into transactions.
type Parser struct {
	accountID string
}

// NewParser creates a parser that assigns rows without an Account column to accountID.
func NewParser(accountID string) *Parser {
	if accountID == "" {
		accountID = "csv"
	}
	return &Parser{accountID: accountID}
}

// ParseFile reads every row. Rows that cannot be converted are returned as
// RowErrors and do not stop the import.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) ([]model.Transaction, []RowError, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	r := csv.NewReader(reader)
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("%w: empty CSV file", common.ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := indexHeader(header)
	if err := requireColumns(columns); err != nil {
		return nil, nil, err
	}

	var (
		transactions []model.Transaction
		rowErrors    []RowError
	)

	for {
		record, readErr := r.Read()
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			var parseErr *csv.ParseError
			row := 0
			if errors.As(readErr, &parseErr) {
				row = parseErr.StartLine
			}
			rowErrors = append(rowErrors, RowError{Row: row, Err: fmt.Errorf("%w: %w", ErrInvalidRow, readErr)})
			continue
		}
		if isBlank(record) {
			continue
		}
		row, _ := r.FieldPos(0)

		txn, convErr := p.convertRecord(columns, record)
		if convErr != nil {
			rowErrors = append(rowErrors, RowError{Row: row, Err: convErr})
			continue
		}
		transactions = append(transactions, txn)
	}

	slog.Info("Parsed CSV file",
		"transactions", len(transactions),
		"rejected_rows", len(rowErrors))

	return transactions, rowErrors, nil
}

func indexHeader(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := columns[key]; !dup {
			columns[key] = i
		}
	}
	return columns
}

func requireColumns(columns map[string]int) error {
	missing := []string{}
	if _, ok := columns[strings.ToLower(ColumnDate)]; !ok {
		missing = append(missing, ColumnDate)
	}
	if _, ok := columns[strings.ToLower(ColumnAmount)]; !ok {
		missing = append(missing, ColumnAmount)
	}
	_, hasMerchant := columns[strings.ToLower(ColumnMerchant)]
	_, hasName := columns[strings.ToLower(ColumnName)]
	if !hasMerchant && !hasName {
		missing = append(missing, ColumnMerchant)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing CSV columns %s", common.ErrUnsupportedFormat, strings.Join(missing, ", "))
	}
	return nil
}

func isBlank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

func field(columns map[string]int, record []string, name string) string {
	i, ok := columns[strings.ToLower(name)]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func (p *Parser) convertRecord(columns map[string]int, record []string) (model.Transaction, error) {
	var txn model.Transaction

	date, err := parseDate(field(columns, record, ColumnDate))
	if err != nil {
		return txn, err
	}

	merchant := field(columns, record, ColumnMerchant)
	name := field(columns, record, ColumnName)
	if merchant == "" {
		merchant = name
	}
	if name == "" {
		name = merchant
	}
	if merchant == "" {
		return txn, fmt.Errorf("%w: missing %s", ErrInvalidRow, ColumnMerchant)
	}

	amount, err := parseMoney(field(columns, record, ColumnAmount), ColumnAmount, true)
	if err != nil {
		return txn, err
	}
	payment, err := parseMoney(field(columns, record, ColumnPayment), ColumnPayment, false)
	if err != nil {
		return txn, err
	}
	reimbursement, err := parseMoney(field(columns, record, ColumnReimbursement), ColumnReimbursement, false)
	if err != nil {
		return txn, err
	}

	account := field(columns, record, ColumnAccount)
	if account == "" {
		account = p.accountID
	}

	txn = model.Transaction{
		Date:                date,
		Name:                name,
		MerchantName:        merchant,
		AccountID:           account,
		MCCCode:             field(columns, record, ColumnMCC),
		UserCategory:        field(columns, record, ColumnCategory),
		Amount:              amount.InexactFloat64(),
		PaymentAmount:       payment.InexactFloat64(),
		ReimbursementAmount: reimbursement.InexactFloat64(),
	}
	txn.Hash = txn.GenerateHash()

	txn.ID = field(columns, record, ColumnID)
	if txn.ID == "" {
		txn.ID = "csv-" + txn.Hash[:16]
	}

	return txn, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: missing %s", ErrInvalidRow, ColumnDate)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: invalid %s format: %s", ErrInvalidRow, ColumnDate, s)
}

// parseMoney reads a decimal amount, tolerating a currency symbol, thousands
// separators and accounting-style parentheses for negatives.
func parseMoney(s, column string, required bool) (decimal.Decimal, error) {
	if s == "" {
		if required {
			return decimal.Zero, fmt.Errorf("%w: missing %s", ErrInvalidRow, column)
		}
		return decimal.Zero, nil
	}

	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	negative := strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")")
	if negative {
		cleaned = cleaned[1 : len(cleaned)-1]
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid %s: %s", ErrInvalidRow, column, s)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}
