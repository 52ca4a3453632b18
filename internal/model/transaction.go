package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a transaction in the cooperative's books.
type TransactionType string

const (
	// TransactionTypeIncome is money received by the cooperative.
	TransactionTypeIncome TransactionType = "income"
	// TransactionTypeExpense is money paid out by the cooperative.
	TransactionTypeExpense TransactionType = "expense"
)

// PaymentMethodType is the channel a transaction moves through.
type PaymentMethodType string

// Payment method types.
const (
	PaymentMethodCash         PaymentMethodType = "cash"
	PaymentMethodBankTransfer PaymentMethodType = "bank_transfer"
	PaymentMethodEWallet      PaymentMethodType = "e_wallet"
	PaymentMethodOther        PaymentMethodType = "other"
)

// Valid reports whether t is a known payment method type.
func (t PaymentMethodType) Valid() bool {
	switch t {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodEWallet, PaymentMethodOther:
		return true
	}
	return false
}

// PaymentMethod is a configured payment channel.
type PaymentMethod struct {
	Name string            `json:"name" yaml:"name"`
	Type PaymentMethodType `json:"type" yaml:"type"`
	ID   int64             `json:"id" yaml:"-"`
}

// Transaction is a draft or recorded cooperative transaction.
// ID is empty for drafts that have never been saved.
type Transaction struct {
	Date            time.Time       `json:"transaction_date"`
	Amount          decimal.Decimal `json:"amount"`
	ID              string          `json:"id,omitempty"`
	Description     string          `json:"description"`
	Type            TransactionType `json:"type"`
	PaymentMethodID int64           `json:"payment_method_id"`
	CategoryID      int64           `json:"category_id,omitempty"`
}
