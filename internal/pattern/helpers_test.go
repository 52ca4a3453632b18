package pattern

import (
	"time"

	"github.com/Veraticus/koperasi/internal/model"
	"github.com/shopspring/decimal"
)

func decPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func withdrawal(amount int64, description string) model.Transaction {
	return model.Transaction{
		Amount:      decimal.NewFromInt(amount),
		Description: description,
		Type:        model.TransactionTypeExpense,
		Date:        time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC),
	}
}

func payrollPattern() model.Pattern {
	return model.Pattern{
		ID:         1,
		Name:       "Gaji Karyawan",
		Keywords:   "gaji|payroll",
		AmountMin:  decPtr(1_000_000),
		AmountMax:  decPtr(10_000_000),
		Frequency:  model.FrequencyMonthly,
		CategoryID: 10,
		Confidence: 90,
		IsActive:   true,
		UpdatedAt:  time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	}
}
