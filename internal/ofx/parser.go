package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/Veraticus/spice-forecast/internal/common"
	"github.com/Veraticus/spice-forecast/internal/model"
	"github.com/aclindsa/ofxgo"
)

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	tagFixRegex   = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// Parser implements OFX/QFX file parsing. Only outflows are returned:
// deposits, interest and other credits are not spending.
type Parser struct{}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

// preprocessOFX fixes common formatting issues in OFX files.
func (p *Parser) preprocessOFX(content string) string {
	// Trim any leading whitespace or blank lines before the header
	content = strings.TrimLeft(content, " \t\r\n")

	// Fix mixed-case SEVERITY values (should be INFO, WARN, or ERROR)
	content = severityRegex.ReplaceAllStringFunc(content, func(match string) string {
		return strings.ToUpper(match)
	})

	// Fix missing closing angle brackets in SGML-style OFX files
	// Match opening tags that are missing their closing bracket
	// Pattern: <TAGNAME at end of line (no > and no content after tag)
	content = tagFixRegex.ReplaceAllString(content, "$1>")

	return content
}

// ParseFile parses an OFX/QFX file and returns its spending transactions.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) ([]model.Transaction, error) {
	resp, err := p.parse(ctx, reader)
	if err != nil {
		return nil, err
	}

	var transactions []model.Transaction
	var bankStmts, ccStmts int

	// Process bank messages
	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			bankStmts++
			txns, err := p.processBankStatement(stmt)
			if err != nil {
				slog.Warn("Failed to process bank statement",
					"account", stmt.BankAcctFrom.AcctID,
					"error", err)
				continue
			}
			transactions = append(transactions, txns...)
		}
	}

	// Process credit card messages
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			ccStmts++
			txns, err := p.processCreditCardStatement(stmt)
			if err != nil {
				slog.Warn("Failed to process credit card statement",
					"account", stmt.CCAcctFrom.AcctID,
					"error", err)
				continue
			}
			transactions = append(transactions, txns...)
		}
	}

	slog.Info("Parsed OFX file",
		"spending_transactions", len(transactions),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)

	return transactions, nil
}

// processBankStatement converts OFX bank transactions to our model.
func (p *Parser) processBankStatement(stmt *ofxgo.StatementResponse) ([]model.Transaction, error) {
	if stmt.BankTranList == nil {
		return nil, nil
	}
	return p.convertList(stmt.BankTranList.Transactions, string(stmt.BankAcctFrom.AcctID)), nil
}

// processCreditCardStatement converts OFX credit card transactions to our model.
func (p *Parser) processCreditCardStatement(stmt *ofxgo.CCStatementResponse) ([]model.Transaction, error) {
	if stmt.BankTranList == nil {
		return nil, nil
	}
	return p.convertList(stmt.BankTranList.Transactions, string(stmt.CCAcctFrom.AcctID)), nil
}

// convertList converts the debits of a statement and drops its credits.
func (p *Parser) convertList(list []ofxgo.Transaction, accountID string) []model.Transaction {
	var transactions []model.Transaction
	credits := 0

	for _, ofxTx := range list {
		if ofxTx.TrnAmt.Sign() > 0 {
			credits++
			continue
		}
		transactions = append(transactions, p.convertTransaction(ofxTx, accountID))
	}

	if credits > 0 {
		slog.Debug("Dropped OFX credits", "account", accountID, "count", credits)
	}
	return transactions
}

// convertTransaction converts an OFX transaction to our model.
func (p *Parser) convertTransaction(ofxTx ofxgo.Transaction, accountID string) model.Transaction {
	// Extract clean merchant name
	merchantName := p.extractMerchantName(ofxTx)

	// OFX uses negative for debits; spending is stored positive.
	// ofxTx.TrnAmt is a big.Rat, convert to float64
	amount, _ := ofxTx.TrnAmt.Float64()
	amount = -amount

	// Create transaction
	tx := model.Transaction{
		ID:           string(ofxTx.FiTID),
		Date:         ofxTx.DtPosted.Time,
		Name:         string(ofxTx.Name),
		MerchantName: merchantName,
		Amount:       amount,
		AccountID:    accountID,
		Type:         fmt.Sprintf("%v", ofxTx.TrnType), // e.g., DEBIT, CHECK, PAYMENT, ATM
	}

	// Add check number if present
	if ofxTx.CheckNum != "" {
		tx.CheckNumber = string(ofxTx.CheckNum)
	}

	// Some institutions report the merchant's industry code in SIC
	if ofxTx.SIC > 0 {
		tx.MCCCode = fmt.Sprintf("%04d", int64(ofxTx.SIC))
	}

	// OFX doesn't provide categories, but some types imply one
	switch tx.Type {
	case "FEE", "SRVCHG":
		tx.Category = []string{"Bank Fees"}
	case "ATM", "CASH":
		tx.Category = []string{"Cash & ATM"}
	case "CHECK":
		tx.Category = []string{"Checks"}
	}

	// Generate hash for deduplication
	tx.Hash = tx.GenerateHash()

	return tx
}

// extractMerchantName tries to get a clean merchant name from OFX data.
func (p *Parser) extractMerchantName(tx ofxgo.Transaction) string {
	// Prefer PAYEE if available (cleaner merchant name)
	if tx.Payee != nil && tx.Payee.Name != "" {
		return string(tx.Payee.Name)
	}

	// Fall back to NAME field
	name := string(tx.Name)

	// Use MEMO field if NAME is generic
	if tx.Memo != "" && isGenericDescription(name) {
		// Sometimes MEMO has better merchant info
		name = string(tx.Memo)
	}

	// Basic cleanup
	name = strings.TrimSpace(name)

	// Remove common prefixes
	prefixes := []string{
		"POS PURCHASE ",
		"PURCHASE AUTHORIZED ON ",
		"DEBIT CARD PURCHASE ",
		"ACH DEBIT ",
		"CHECK CARD ",
		"VISA PURCHASE ",
		"MC PURCHASE ",
		"DEBIT PURCHASE ",
	}

	for _, prefix := range prefixes {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// Clean up date patterns like "MM/DD" at the beginning
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}

	return name
}

// isGenericDescription checks if a transaction name is too generic.
func isGenericDescription(name string) bool {
	generic := []string{
		"DEBIT",
		"CREDIT",
		"PURCHASE",
		"PAYMENT",
		"POS TRANSACTION",
		"CARD PURCHASE",
	}

	upperName := strings.ToUpper(name)
	for _, g := range generic {
		if upperName == g {
			return true
		}
	}
	return false
}

// GetAccounts extracts unique account IDs from the OFX file.
func (p *Parser) GetAccounts(ctx context.Context, reader io.Reader) ([]string, error) {
	resp, err := p.parse(ctx, reader)
	if err != nil {
		return nil, err
	}

	accountMap := make(map[string]bool)

	// Bank accounts
	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			if stmt.BankAcctFrom.AcctID != "" {
				accountMap[string(stmt.BankAcctFrom.AcctID)] = true
			}
		}
	}

	// Credit card accounts
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			if stmt.CCAcctFrom.AcctID != "" {
				accountMap[string(stmt.CCAcctFrom.AcctID)] = true
			}
		}
	}

	// Convert to slice
	accounts := make([]string, 0, len(accountMap))
	for acct := range accountMap {
		accounts = append(accounts, acct)
	}
	sort.Strings(accounts)

	return accounts, nil
}

// parse reads, repairs and decodes an OFX document.
func (p *Parser) parse(ctx context.Context, reader io.Reader) (*ofxgo.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse OFX file: %w", common.ErrUnsupportedFormat, err)
	}
	return resp, nil
}
