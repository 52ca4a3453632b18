package importer

import (
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/koperasi/internal/model"
	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

// csvRow is one line of a history export. Header names are lower case.
type csvRow struct {
	ID          string `csv:"id"`
	Date        string `csv:"date"`
	Description string `csv:"description"`
	Amount      string `csv:"amount"`
	Type        string `csv:"type"`
}

var csvDateLayouts = []string{"2006-01-02", "02/01/2006", "02-01-2006", "02.01.2006"}

// CSVParser reads transaction history exported as CSV.
type CSVParser struct {
	loc       *time.Location
	delimiter rune
}

// NewCSVParser creates a parser for files separated by delimiter. A zero
// delimiter means a comma.
func NewCSVParser(delimiter rune, loc *time.Location) *CSVParser {
	if delimiter == 0 {
		delimiter = ','
	}
	if loc == nil {
		loc = time.Local
	}
	return &CSVParser{delimiter: delimiter, loc: loc}
}

// Parse converts the rows of r into transactions. Rows without an id get a
// stable one derived from their content so re-imports are idempotent.
func (p *CSVParser) Parse(_ context.Context, r io.Reader) ([]model.Transaction, error) {
	reader := csv.NewReader(r)
	reader.Comma = p.delimiter
	reader.TrimLeadingSpace = true

	var rows []csvRow
	if err := gocsv.UnmarshalCSV(reader, &rows); err != nil {
		return nil, fmt.Errorf("error parsing CSV file: %w", err)
	}

	seen := make(map[string]int, len(rows))
	txns := make([]model.Transaction, 0, len(rows))
	for i, row := range rows {
		if strings.TrimSpace(row.Date) == "" && strings.TrimSpace(row.Amount) == "" {
			continue
		}
		txn, err := p.convert(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		if txn.ID == "" {
			txn.ID = contentID(txn)
		}
		if n := seen[txn.ID]; n > 0 {
			seen[txn.ID] = n + 1
			txn.ID = fmt.Sprintf("%s-%d", txn.ID, n+1)
		} else {
			seen[txn.ID] = 1
		}
		txns = append(txns, txn)
	}

	slog.Info("Parsed CSV file", "rows", len(rows), "transactions", len(txns))
	return txns, nil
}

func (p *CSVParser) convert(row csvRow) (model.Transaction, error) {
	date, err := p.parseDate(row.Date)
	if err != nil {
		return model.Transaction{}, err
	}
	amount, err := ParseAmount(row.Amount)
	if err != nil {
		return model.Transaction{}, err
	}
	if amount.IsZero() {
		return model.Transaction{}, fmt.Errorf("%w: zero amount", ErrInvalidRow)
	}

	txnType, err := rowType(row.Type, amount)
	if err != nil {
		return model.Transaction{}, err
	}

	return model.Transaction{
		ID:          strings.TrimSpace(row.ID),
		Date:        date,
		Amount:      amount.Abs(),
		Description: strings.TrimSpace(row.Description),
		Type:        txnType,
	}, nil
}

func (p *CSVParser) parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range csvDateLayouts {
		if d, err := time.ParseInLocation(layout, raw, p.loc); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognised date %q", ErrInvalidRow, raw)
}

func rowType(raw string, amount decimal.Decimal) (model.TransactionType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		if amount.IsNegative() {
			return model.TransactionTypeExpense, nil
		}
		return model.TransactionTypeIncome, nil
	case "expense", "debit", "db", "d", "keluar":
		return model.TransactionTypeExpense, nil
	case "income", "credit", "cr", "k", "masuk":
		return model.TransactionTypeIncome, nil
	}
	return "", fmt.Errorf("%w: unknown type %q", ErrInvalidRow, raw)
}

// ParseAmount reads amounts such as "1500000", "-125.50", "Rp 1.500.000,00"
// or "1,500,000.00". The last separator followed by one or two digits is
// the decimal point.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	for _, prefix := range []string{"Rp", "IDR", "rp"} {
		s = strings.TrimPrefix(s, prefix)
	}
	s = strings.NewReplacer(" ", "", "_", "", "\u00a0", "").Replace(s)

	if sep := strings.LastIndexAny(s, ".,"); sep >= 0 {
		whole := strings.NewReplacer(".", "", ",", "").Replace(s[:sep])
		frac := s[sep+1:]
		if len(frac) > 0 && len(frac) <= 2 {
			s = whole + "." + frac
		} else {
			s = whole + frac
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid amount %q", ErrInvalidRow, raw)
	}
	return d, nil
}

func contentID(txn model.Transaction) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{
		txn.Date.Format("2006-01-02"),
		string(txn.Type),
		txn.Amount.String(),
		strings.ToLower(txn.Description),
	}, "|")))
	return "csv-" + hex.EncodeToString(sum[:8])
}
