package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/Veraticus/koperasi/internal/model"
	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"
)

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	openTagRegex  = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// OFXParser reads OFX/QFX bank statements.
type OFXParser struct {
	loc *time.Location
}

// NewOFXParser creates a parser that places posted dates in loc.
func NewOFXParser(loc *time.Location) *OFXParser {
	if loc == nil {
		loc = time.Local
	}
	return &OFXParser{loc: loc}
}

// preprocess fixes formatting problems common in bank exports.
func preprocess(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)
	return openTagRegex.ReplaceAllString(content, "$1>")
}

// Parse returns the statement lines of every bank and credit-card statement
// in r. Debits become expenses and credits become income.
func (p *OFXParser) Parse(_ context.Context, r io.Reader) ([]model.Transaction, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocess(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var (
		txns               []model.Transaction
		bankStmts, ccStmts int
	)
	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		bankStmts++
		txns = append(txns, p.convertAll(stmt.BankTranList.Transactions, string(stmt.BankAcctFrom.AcctID))...)
	}
	for _, msg := range resp.CreditCard {
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		ccStmts++
		txns = append(txns, p.convertAll(stmt.BankTranList.Transactions, string(stmt.CCAcctFrom.AcctID))...)
	}

	slog.Info("Parsed OFX file",
		"total_transactions", len(txns),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)
	return txns, nil
}

func (p *OFXParser) convertAll(lines []ofxgo.Transaction, accountID string) []model.Transaction {
	out := make([]model.Transaction, 0, len(lines))
	for _, line := range lines {
		txn, err := p.convert(line, accountID)
		if err != nil {
			slog.Warn("Skipping OFX statement line",
				"account", accountID,
				"fitid", string(line.FiTID),
				"error", err)
			continue
		}
		out = append(out, txn)
	}
	return out
}

func (p *OFXParser) convert(line ofxgo.Transaction, accountID string) (model.Transaction, error) {
	amount, err := decimal.NewFromString(line.TrnAmt.FloatString(2))
	if err != nil {
		return model.Transaction{}, fmt.Errorf("invalid amount: %w", err)
	}
	if amount.IsZero() {
		return model.Transaction{}, fmt.Errorf("zero amount")
	}

	txnType := model.TransactionTypeIncome
	if amount.IsNegative() {
		txnType = model.TransactionTypeExpense
		amount = amount.Neg()
	}

	posted := line.DtPosted.Time.In(p.loc)
	return model.Transaction{
		ID:          ofxID(accountID, string(line.FiTID)),
		Date:        time.Date(posted.Year(), posted.Month(), posted.Day(), 0, 0, 0, 0, p.loc),
		Amount:      amount,
		Description: description(line),
		Type:        txnType,
	}, nil
}

func ofxID(accountID, fitID string) string {
	if accountID == "" {
		return "ofx-" + fitID
	}
	return "ofx-" + accountID + "-" + fitID
}

// description picks the most informative free text of a statement line.
func description(line ofxgo.Transaction) string {
	if line.Payee != nil && line.Payee.Name != "" {
		return strings.TrimSpace(string(line.Payee.Name))
	}

	name := strings.TrimSpace(string(line.Name))
	memo := strings.TrimSpace(string(line.Memo))
	switch {
	case name == "":
		name = memo
	case memo != "" && isGenericDescription(name):
		name = memo
	case memo != "" && !strings.Contains(strings.ToLower(name), strings.ToLower(memo)):
		name = name + " " + memo
	}

	upper := strings.ToUpper(name)
	for _, prefix := range bankPrefixes {
		if strings.HasPrefix(upper, prefix) {
			name = strings.TrimSpace(name[len(prefix):])
			break
		}
	}
	return name
}

var bankPrefixes = []string{
	"TRSF E-BANKING DB ",
	"TRANSFER DEBET ",
	"TRF DB ",
	"DEBIT TRANSFER ",
	"ACH DEBIT ",
}

func isGenericDescription(name string) bool {
	switch strings.ToUpper(name) {
	case "DEBIT", "CREDIT", "DB", "CR", "TRANSFER", "PAYMENT", "PEMBAYARAN":
		return true
	}
	return false
}
