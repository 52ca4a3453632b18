package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CategoryType indicates which transactions a category applies to.
type CategoryType string

const (
	// CategoryTypeIncome applies to income transactions only.
	CategoryTypeIncome CategoryType = "income"
	// CategoryTypeExpense applies to expense transactions only.
	CategoryTypeExpense CategoryType = "expense"
	// CategoryTypeBoth applies to income and expense transactions.
	CategoryTypeBoth CategoryType = "both"
)

// Valid reports whether t is a known category type.
func (t CategoryType) Valid() bool {
	switch t {
	case CategoryTypeIncome, CategoryTypeExpense, CategoryTypeBoth:
		return true
	}
	return false
}

// AppliesTo reports whether a category of this type can be used for a
// transaction of the given type.
func (t CategoryType) AppliesTo(txnType TransactionType) bool {
	switch t {
	case CategoryTypeBoth:
		return true
	case CategoryTypeIncome:
		return txnType == TransactionTypeIncome
	case CategoryTypeExpense:
		return txnType == TransactionTypeExpense
	}
	return false
}

// AutoClassificationRules are the administrator hints attached to a category.
type AutoClassificationRules struct {
	AmountMin *decimal.Decimal `json:"amount_min,omitempty" yaml:"amount_min,omitempty"`
	AmountMax *decimal.Decimal `json:"amount_max,omitempty" yaml:"amount_max,omitempty"`
	Frequency Frequency        `json:"frequency,omitempty" yaml:"frequency,omitempty"`
	Keywords  []string         `json:"keywords,omitempty" yaml:"keywords,omitempty"`
}

// ValidationRules holds the spending policy for a category. Every rule kind is
// an explicit optional field; nil means the rule is not configured.
type ValidationRules struct {
	MaxTransactionAmount *decimal.Decimal `json:"max_transaction_amount,omitempty" yaml:"max_transaction_amount,omitempty"`
	MaxDailyAmount       *decimal.Decimal `json:"max_daily_amount,omitempty" yaml:"max_daily_amount,omitempty"`
	MaxMonthlyAmount     *decimal.Decimal `json:"max_monthly_amount,omitempty" yaml:"max_monthly_amount,omitempty"`
	ApprovalThreshold    *decimal.Decimal `json:"approval_threshold,omitempty" yaml:"approval_threshold,omitempty"`
	RequiresApproval     bool             `json:"requires_approval" yaml:"requires_approval"`
}

// Category is a spending or income category managed by administrators.
type Category struct {
	CreatedAt       time.Time               `json:"created_at"`
	UpdatedAt       time.Time               `json:"updated_at"`
	AutoRules       AutoClassificationRules `json:"auto_classification_rules"`
	ValidationRules ValidationRules         `json:"validation_rules"`
	Name            string                  `json:"name"`
	Type            CategoryType            `json:"type"`
	Color           string                  `json:"color"`
	ID              int64                   `json:"id"`
	IsActive        bool                    `json:"is_active"`
}
