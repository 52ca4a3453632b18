// Package service defines the collaborator contracts the engine consumes.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/koperasi/internal/model"
)

// CategoryStore manages categories and their rules.
type CategoryStore interface {
	GetCategories(ctx context.Context) ([]model.Category, error)
	GetCategoryByID(ctx context.Context, id int64) (*model.Category, error)
	GetCategoryByName(ctx context.Context, name string) (*model.Category, error)
	CreateCategory(ctx context.Context, category *model.Category) error
	UpdateCategory(ctx context.Context, category *model.Category) error
}

// PatternStore manages administrator-authored patterns.
type PatternStore interface {
	GetPatterns(ctx context.Context) ([]model.Pattern, error)
	GetActivePatterns(ctx context.Context) ([]model.Pattern, error)
	GetPattern(ctx context.Context, id int64) (*model.Pattern, error)
	CreatePattern(ctx context.Context, pattern *model.Pattern) error
	UpdatePattern(ctx context.Context, pattern *model.Pattern) error
	SetPatternActive(ctx context.Context, id int64, active bool) error
	DeletePattern(ctx context.Context, id int64) error
}

// PaymentMethodStore manages payment channels.
type PaymentMethodStore interface {
	GetPaymentMethods(ctx context.Context) ([]model.PaymentMethod, error)
	GetPaymentMethod(ctx context.Context, id int64) (*model.PaymentMethod, error)
	CreatePaymentMethod(ctx context.Context, method *model.PaymentMethod) error
}

// TransactionFilter narrows transaction listings. Zero dates are open bounds.
type TransactionFilter struct {
	StartDate  time.Time
	EndDate    time.Time
	CategoryID int64
	Limit      int
}

// TransactionStore persists recorded transactions.
type TransactionStore interface {
	// SaveTransaction inserts or replaces txn, assigning an id to drafts.
	SaveTransaction(ctx context.Context, txn *model.Transaction) error
	// ImportTransactions inserts transactions whose id is not yet stored and
	// returns how many were new.
	ImportTransactions(ctx context.Context, txns []model.Transaction) (int, error)
	GetTransaction(ctx context.Context, id string) (*model.Transaction, error)
	GetTransactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error)
}

// Storage is everything the SQLite backend provides.
type Storage interface {
	CategoryStore
	PatternStore
	PaymentMethodStore
	TransactionStore

	Migrate(ctx context.Context) error
	Close() error
}
