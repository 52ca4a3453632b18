package importer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/koperasi/internal/common"
	"github.com/Veraticus/koperasi/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBankOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20241015120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>IDR
<BANKACCTFROM>
<BANKID>002
<ACCTID>1234567890
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20241001000000[0:GMT]
<DTEND>20241015000000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20241001120000[0:GMT]
<TRNAMT>-5000000.00
<FITID>2024100101
<NAME>TRSF E-BANKING DB GAJI OKTOBER
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20241002120000[0:GMT]
<TRNAMT>250000.00
<FITID>2024100201
<NAME>SETORAN IURAN
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20241003120000[0:GMT]
<TRNAMT>-150000.50
<FITID>2024100301
<NAME>PEMBAYARAN
<MEMO>Listrik PLN
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>10000000.00
<DTASOF>20241015000000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestOFXParser_Parse(t *testing.T) {
	txns, err := NewOFXParser(time.UTC).Parse(context.Background(), strings.NewReader(sampleBankOFX))
	require.NoError(t, err)
	require.Len(t, txns, 3)

	tests := []struct {
		amount      decimal.Decimal
		date        time.Time
		id          string
		description string
		txnType     model.TransactionType
	}{
		{d("5000000"), time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC), "ofx-1234567890-2024100101", "GAJI OKTOBER", model.TransactionTypeExpense},
		{d("250000"), time.Date(2024, 10, 2, 0, 0, 0, 0, time.UTC), "ofx-1234567890-2024100201", "SETORAN IURAN", model.TransactionTypeIncome},
		{d("150000.5"), time.Date(2024, 10, 3, 0, 0, 0, 0, time.UTC), "ofx-1234567890-2024100301", "Listrik PLN", model.TransactionTypeExpense},
	}
	for i, tt := range tests {
		got := txns[i]
		assert.Equal(t, tt.id, got.ID)
		assert.True(t, tt.date.Equal(got.Date), "date of %s: %v", tt.id, got.Date)
		assert.True(t, tt.amount.Equal(got.Amount), "amount of %s: %s", tt.id, got.Amount)
		assert.Equal(t, tt.description, got.Description)
		assert.Equal(t, tt.txnType, got.Type)
	}
}

func TestOFXParser_RejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "not valid OFX"} {
		_, err := NewOFXParser(time.UTC).Parse(context.Background(), strings.NewReader(input))
		assert.Error(t, err, "input %q", input)
	}
}

func TestPreprocess(t *testing.T) {
	in := "\n\n<SEVERITY>Warn</SEVERITY>\n<CODE\n"
	assert.Equal(t, "<SEVERITY>WARN</SEVERITY>\n<CODE>\n", preprocess(in))
}

const sampleCSV = `id,date,description,amount,type
,2024-10-01,Gaji Oktober,"1.500.000,00",debit
REF-9,02/10/2024,Iuran anggota,250000,
,2024-10-03,Kertas A4,-75000,
,2024-10-03,Kertas A4,-75000,
`

func TestCSVParser_Parse(t *testing.T) {
	txns, err := NewCSVParser(',', time.UTC).Parse(context.Background(), strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, txns, 4)

	assert.True(t, strings.HasPrefix(txns[0].ID, "csv-"))
	assert.True(t, d("1500000").Equal(txns[0].Amount))
	assert.Equal(t, model.TransactionTypeExpense, txns[0].Type)

	assert.Equal(t, "REF-9", txns[1].ID)
	assert.Equal(t, time.Date(2024, 10, 2, 0, 0, 0, 0, time.UTC), txns[1].Date)
	assert.Equal(t, model.TransactionTypeIncome, txns[1].Type)

	assert.True(t, d("75000").Equal(txns[2].Amount))
	assert.Equal(t, model.TransactionTypeExpense, txns[2].Type)
	assert.Equal(t, txns[2].ID+"-2", txns[3].ID)
}

func TestCSVParser_IsDeterministic(t *testing.T) {
	parser := NewCSVParser(',', time.UTC)
	first, err := parser.Parse(context.Background(), strings.NewReader(sampleCSV))
	require.NoError(t, err)
	second, err := parser.Parse(context.Background(), strings.NewReader(sampleCSV))
	require.NoError(t, err)

	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
}

func TestCSVParser_Semicolon(t *testing.T) {
	input := "date;description;amount\n2024-10-05;Sewa kantor;-2000000\n"
	txns, err := NewCSVParser(';', time.UTC).Parse(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "Sewa kantor", txns[0].Description)
}

func TestCSVParser_InvalidRows(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"bad date", "date,description,amount\nsoon,Sewa,100\n"},
		{"bad amount", "date,description,amount\n2024-10-05,Sewa,banyak\n"},
		{"zero amount", "date,description,amount\n2024-10-05,Sewa,0\n"},
		{"bad type", "date,description,amount,type\n2024-10-05,Sewa,100,transfer\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCSVParser(',', time.UTC).Parse(context.Background(), strings.NewReader(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidRow)
			assert.Contains(t, err.Error(), "row 2")
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"1500000", "1500000"},
		{"-125.50", "-125.5"},
		{"Rp 1.500.000,00", "1500000"},
		{"1,500,000.00", "1500000"},
		{"1.500", "1500"},
		{"2_000_000", "2000000"},
		{"IDR 75000", "75000"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseAmount(tt.raw)
			require.NoError(t, err)
			assert.True(t, d(tt.want).Equal(got), "got %s", got)
		})
	}

	_, err := ParseAmount("")
	assert.ErrorIs(t, err, ErrInvalidRow)
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"statement.ofx", FormatOFX, false},
		{"statement.QFX", FormatOFX, false},
		{"history.csv", FormatCSV, false},
		{"history.xlsx", "", true},
	}
	for _, tt := range tests {
		got, err := DetectFormat(tt.path)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrUnknownFormat)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

type fakeClassifier struct {
	calls int
}

func (c *fakeClassifier) Classify(_ context.Context, draft model.Transaction) (model.ClassificationResult, error) {
	c.calls++
	cat := int64(10)
	desc := strings.ToLower(draft.Description)
	switch {
	case strings.Contains(desc, "gaji"):
		return model.ClassificationResult{SuggestedCategoryID: &cat, ConfidenceScore: 80}, nil
	case strings.Contains(desc, "kertas"):
		return model.ClassificationResult{SuggestedCategoryID: &cat, ConfidenceScore: 40}, nil
	case strings.Contains(desc, "tunai"):
		return model.ClassificationResult{}, common.ErrNotClassifiable
	}
	return model.ClassificationResult{Reasoning: model.ReasonNoMatch}, nil
}

type fakeStore struct {
	err   error
	saved []model.Transaction
	calls int
}

func (s *fakeStore) ImportTransactions(_ context.Context, txns []model.Transaction) (int, error) {
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	s.saved = append(s.saved, txns...)
	return len(txns), nil
}

func importFixture() []model.Transaction {
	day := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	return []model.Transaction{
		{ID: "a", Date: day, Amount: d("5000000"), Description: "Gaji Oktober", Type: model.TransactionTypeExpense},
		{ID: "b", Date: day, Amount: d("75000"), Description: "Kertas A4", Type: model.TransactionTypeExpense},
		{ID: "c", Date: day, Amount: d("250000"), Description: "Gaji titipan", Type: model.TransactionTypeIncome},
		{ID: "d", Date: day, Amount: d("100000"), Description: "Tarik tunai", Type: model.TransactionTypeExpense},
	}
}

func TestImporter_Import(t *testing.T) {
	store := &fakeStore{}
	classifier := &fakeClassifier{}
	var progress []int

	result, err := New(store, classifier).Import(context.Background(), importFixture(), Options{
		PaymentMethodID: 3,
		MinConfidence:   50,
		Progress:        func(done, _ int) { progress = append(progress, done) },
	})
	require.NoError(t, err)

	assert.Equal(t, 4, result.Parsed)
	assert.Equal(t, 1, result.Categorized)
	assert.Equal(t, 4, result.Inserted)
	assert.Equal(t, []int{1, 2, 3, 4}, progress)
	assert.Equal(t, 3, classifier.calls)

	require.Len(t, store.saved, 4)
	assert.Equal(t, int64(10), store.saved[0].CategoryID)
	assert.Zero(t, store.saved[1].CategoryID)
	assert.Zero(t, store.saved[2].CategoryID)
	for _, txn := range store.saved {
		assert.Equal(t, int64(3), txn.PaymentMethodID)
	}
}

func TestImporter_DryRunDoesNotWrite(t *testing.T) {
	store := &fakeStore{}
	result, err := New(store, nil).Import(context.Background(), importFixture(), Options{DryRun: true})
	require.NoError(t, err)
	assert.Zero(t, store.calls)
	assert.Zero(t, result.Inserted)
	assert.Len(t, result.Transactions, 4)
}

func TestImporter_StoreFailure(t *testing.T) {
	store := &fakeStore{err: errors.New("database is locked")}
	_, err := New(store, nil).Import(context.Background(), importFixture(), Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrStorage)
}

func TestImporter_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := &fakeStore{}
	_, err := New(store, nil).Import(ctx, importFixture(), Options{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, store.calls)
}
