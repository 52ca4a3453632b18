// Package storage provides the SQLite persistence layer for koperasi.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/koperasi/internal/model"
)

// Validation errors.
var (
	ErrNilContext           = errors.New("context cannot be nil")
	ErrEmptyString          = errors.New("string parameter cannot be empty")
	ErrNilParameter         = errors.New("parameter cannot be nil")
	ErrInvalidDateRange     = errors.New("start date must be before end date")
	ErrInvalidCategory      = errors.New("invalid category")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrInvalidTransaction   = errors.New("invalid transaction")
	ErrInvalidLogEntry      = errors.New("invalid log entry")
	ErrMalformedRecord      = errors.New("malformed stored record")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateCategory(cat *model.Category) error {
	if cat == nil {
		return fmt.Errorf("%w: category", ErrNilParameter)
	}
	if strings.TrimSpace(cat.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidCategory)
	}
	if !cat.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidCategory, cat.Type)
	}
	if !cat.AutoRules.Frequency.Valid() {
		return fmt.Errorf("%w: unknown frequency %q", ErrInvalidCategory, cat.AutoRules.Frequency)
	}
	lo, hi := cat.AutoRules.AmountMin, cat.AutoRules.AmountMax
	if lo != nil && hi != nil && lo.GreaterThan(*hi) {
		return fmt.Errorf("%w: amount_min %s is greater than amount_max %s", ErrInvalidCategory, lo, hi)
	}
	return nil
}

func validatePaymentMethod(pm *model.PaymentMethod) error {
	if pm == nil {
		return fmt.Errorf("%w: payment method", ErrNilParameter)
	}
	if strings.TrimSpace(pm.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidPaymentMethod)
	}
	if !pm.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidPaymentMethod, pm.Type)
	}
	return nil
}

// validateTransaction checks what the table needs. Policy checks belong to
// the validator, not storage.
func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if txn.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	if strings.TrimSpace(txn.Description) == "" {
		return fmt.Errorf("%w: missing description", ErrInvalidTransaction)
	}
	if txn.Type != model.TransactionTypeIncome && txn.Type != model.TransactionTypeExpense {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidTransaction, txn.Type)
	}
	return nil
}

func validateLogEntry(transactionID string) error {
	if strings.TrimSpace(transactionID) == "" {
		return fmt.Errorf("%w: missing transaction id", ErrInvalidLogEntry)
	}
	return nil
}
