package main

import (
	"testing"
	"time"

	"github.com/Veraticus/koperasi/internal/common"
	"github.com/Veraticus/koperasi/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	now := time.Date(2024, 5, 17, 15, 30, 0, 0, time.Local)

	got, err := parseDate("", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 17, 0, 0, 0, 0, time.Local), got)

	got, err = parseDate("2024-03-01", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local), got)

	_, err = parseDate("01/03/2024", now)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1500000", "1500000"},
		{"1.500.000", "1500000"},
		{"1.500", "1500"},
		{"150.000,50", "150000.5"},
		{"Rp 250.000", "250000"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseAmount(tt.input)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}

	_, err := parseAmount("lima ribu")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestParseTransactionType(t *testing.T) {
	tests := []struct {
		input   string
		want    model.TransactionType
		wantErr bool
	}{
		{"", model.TransactionTypeExpense, false},
		{"expense", model.TransactionTypeExpense, false},
		{"Keluar", model.TransactionTypeExpense, false},
		{"income", model.TransactionTypeIncome, false},
		{"masuk", model.TransactionTypeIncome, false},
		{"transfer", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseTransactionType(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveCategory(t *testing.T) {
	categories := []model.Category{
		{ID: 3, Name: "Gaji Karyawan"},
		{ID: 7, Name: "Alat Tulis Kantor"},
	}

	id, err := resolveCategory(categories, "7")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	id, err = resolveCategory(categories, "gaji karyawan")
	require.NoError(t, err)
	assert.Equal(t, int64(3), id)

	_, err = resolveCategory(categories, "42")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestResolvePaymentMethod(t *testing.T) {
	methods := []model.PaymentMethod{
		{ID: 1, Name: "BCA", Type: model.PaymentMethodBankTransfer},
		{ID: 2, Name: "Kas", Type: model.PaymentMethodCash},
	}

	id, err := resolvePaymentMethod(methods, "bca")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	id, err = resolvePaymentMethod(methods, "2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), id)

	_, err = resolvePaymentMethod(methods, "Mandiri")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCategoryNamer(t *testing.T) {
	name := categoryNamer([]model.Category{{ID: 3, Name: "Gaji Karyawan"}})

	assert.Equal(t, "Gaji Karyawan", name(3))
	assert.Equal(t, "#9", name(9))
	assert.Equal(t, "(none)", name(0))
}

func TestAmountRange(t *testing.T) {
	lo := decimal.NewFromInt(100000)
	hi := decimal.NewFromInt(1500000)

	assert.Equal(t, "any", amountRange(nil, nil))
	assert.Equal(t, "≥ Rp 100.000", amountRange(&lo, nil))
	assert.Equal(t, "≤ Rp 1.500.000", amountRange(nil, &hi))
	assert.Equal(t, "Rp 100.000 – Rp 1.500.000", amountRange(&lo, &hi))
}

func TestApprovalSummary(t *testing.T) {
	threshold := decimal.NewFromInt(5000000)

	assert.Equal(t, "-", approvalSummary(model.ValidationRules{}))
	assert.Equal(t, "always", approvalSummary(model.ValidationRules{RequiresApproval: true}))
	assert.Equal(t, "≥ Rp 5.000.000", approvalSummary(model.ValidationRules{ApprovalThreshold: &threshold}))
}
