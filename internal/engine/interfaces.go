package engine

import (
	"context"

	"github.com/Veraticus/koperasi/internal/model"
	"github.com/Veraticus/koperasi/internal/validation"
)

// Store is the slice of storage the engine reads and writes. A fresh
// snapshot of categories and patterns is taken for every call.
type Store interface {
	GetCategories(ctx context.Context) ([]model.Category, error)
	GetCategoryByID(ctx context.Context, id int64) (*model.Category, error)
	GetActivePatterns(ctx context.Context) ([]model.Pattern, error)
	GetPaymentMethod(ctx context.Context, id int64) (*model.PaymentMethod, error)
	SaveTransaction(ctx context.Context, txn *model.Transaction) error
	validation.History
}
