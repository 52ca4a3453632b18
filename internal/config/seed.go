package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Veraticus/koperasi/internal/common"
	"github.com/Veraticus/koperasi/internal/model"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Seed is the YAML document an administrator uses to describe categories,
// payment methods and patterns in bulk.
type Seed struct {
	PaymentMethods []model.PaymentMethod `yaml:"payment_methods"`
	Categories     []SeedCategory        `yaml:"categories"`
	Patterns       []SeedPattern         `yaml:"patterns"`
}

// SeedCategory describes one category. Amounts are decimal strings.
type SeedCategory struct {
	Name       string             `yaml:"name"`
	Type       model.CategoryType `yaml:"type"`
	Color      string             `yaml:"color"`
	Keywords   []string           `yaml:"keywords"`
	Frequency  model.Frequency    `yaml:"frequency"`
	AmountMin  string             `yaml:"amount_min"`
	AmountMax  string             `yaml:"amount_max"`
	Validation SeedValidation     `yaml:"validation"`
}

// SeedValidation holds a category's limits. Blank means not configured.
type SeedValidation struct {
	MaxTransactionAmount string `yaml:"max_transaction_amount"`
	MaxDailyAmount       string `yaml:"max_daily_amount"`
	MaxMonthlyAmount     string `yaml:"max_monthly_amount"`
	ApprovalThreshold    string `yaml:"approval_threshold"`
	RequiresApproval     bool   `yaml:"requires_approval"`
}

// SeedPattern describes one pattern. Category names a category from the
// same file or one already stored.
type SeedPattern struct {
	Active     *bool           `yaml:"active"`
	Name       string          `yaml:"name"`
	Category   string          `yaml:"category"`
	Keywords   string          `yaml:"keywords"`
	Frequency  model.Frequency `yaml:"frequency"`
	AmountMin  string          `yaml:"amount_min"`
	AmountMax  string          `yaml:"amount_max"`
	Confidence float64         `yaml:"confidence"`
}

// LoadSeed reads and parses a seed file.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return nil, fmt.Errorf("error reading seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed parses a seed document. Unknown keys are rejected.
func ParseSeed(data []byte) (*Seed, error) {
	var seed Seed
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil {
		if errors.Is(err, io.EOF) {
			return &seed, nil
		}
		return nil, fmt.Errorf("%w: error parsing seed file: %w", common.ErrInvalidConfig, err)
	}
	return &seed, nil
}

// Category converts c to a model category.
func (c SeedCategory) Category() (model.Category, error) {
	cat := model.Category{
		Name:  strings.TrimSpace(c.Name),
		Type:  c.Type,
		Color: c.Color,
		AutoRules: model.AutoClassificationRules{
			Keywords:  c.Keywords,
			Frequency: c.Frequency,
		},
		ValidationRules: model.ValidationRules{
			RequiresApproval: c.Validation.RequiresApproval,
		},
	}

	fields := []struct {
		dst  **decimal.Decimal
		raw  string
		name string
	}{
		{&cat.AutoRules.AmountMin, c.AmountMin, "amount_min"},
		{&cat.AutoRules.AmountMax, c.AmountMax, "amount_max"},
		{&cat.ValidationRules.MaxTransactionAmount, c.Validation.MaxTransactionAmount, "max_transaction_amount"},
		{&cat.ValidationRules.MaxDailyAmount, c.Validation.MaxDailyAmount, "max_daily_amount"},
		{&cat.ValidationRules.MaxMonthlyAmount, c.Validation.MaxMonthlyAmount, "max_monthly_amount"},
		{&cat.ValidationRules.ApprovalThreshold, c.Validation.ApprovalThreshold, "approval_threshold"},
	}
	for _, f := range fields {
		d, err := ParseAmount(f.raw)
		if err != nil {
			return model.Category{}, fmt.Errorf("category %q %s: %w", c.Name, f.name, err)
		}
		*f.dst = d
	}
	return cat, nil
}

// Pattern converts p to a model pattern targeting categoryID.
func (p SeedPattern) Pattern(categoryID int64) (model.Pattern, error) {
	out := model.Pattern{
		Name:       strings.TrimSpace(p.Name),
		Keywords:   p.Keywords,
		Frequency:  p.Frequency,
		CategoryID: categoryID,
		Confidence: p.Confidence,
		IsActive:   p.Active == nil || *p.Active,
	}

	var err error
	if out.AmountMin, err = ParseAmount(p.AmountMin); err != nil {
		return model.Pattern{}, fmt.Errorf("pattern %q amount_min: %w", p.Name, err)
	}
	if out.AmountMax, err = ParseAmount(p.AmountMax); err != nil {
		return model.Pattern{}, fmt.Errorf("pattern %q amount_max: %w", p.Name, err)
	}
	return out, nil
}

// ParseAmount parses an optional decimal amount; blank yields nil.
func ParseAmount(raw string) (*decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(raw, "_", ""))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid amount %q", common.ErrInvalidInput, raw)
	}
	return &d, nil
}

// SeedStore is what applying a seed needs from storage.
type SeedStore interface {
	GetCategoryByName(ctx context.Context, name string) (*model.Category, error)
	CreateCategory(ctx context.Context, category *model.Category) error
	UpdateCategory(ctx context.Context, category *model.Category) error
	GetPaymentMethods(ctx context.Context) ([]model.PaymentMethod, error)
	CreatePaymentMethod(ctx context.Context, method *model.PaymentMethod) error
	CreatePattern(ctx context.Context, pattern *model.Pattern) error
}

// SeedResult counts what Apply changed.
type SeedResult struct {
	CategoriesCreated     int
	CategoriesUpdated     int
	PaymentMethodsCreated int
	PatternsCreated       int
}

// Apply writes the seed into store. Existing categories are updated in
// place, existing payment methods are left alone, and patterns are always
// created.
func (s *Seed) Apply(ctx context.Context, store SeedStore) (SeedResult, error) {
	var result SeedResult

	existing, err := store.GetPaymentMethods(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to list payment methods: %w", err)
	}
	known := make(map[string]bool, len(existing))
	for _, pm := range existing {
		known[pm.Name] = true
	}
	for _, pm := range s.PaymentMethods {
		if known[pm.Name] {
			continue
		}
		pm := pm
		if err := store.CreatePaymentMethod(ctx, &pm); err != nil {
			return result, fmt.Errorf("payment method %q: %w", pm.Name, err)
		}
		known[pm.Name] = true
		result.PaymentMethodsCreated++
	}

	ids := make(map[string]int64, len(s.Categories))
	for _, sc := range s.Categories {
		cat, err := sc.Category()
		if err != nil {
			return result, err
		}

		current, err := store.GetCategoryByName(ctx, cat.Name)
		switch {
		case err == nil:
			cat.ID = current.ID
			cat.IsActive = true
			if err := store.UpdateCategory(ctx, &cat); err != nil {
				return result, fmt.Errorf("category %q: %w", cat.Name, err)
			}
			result.CategoriesUpdated++
		case errors.Is(err, common.ErrNotFound):
			if err := store.CreateCategory(ctx, &cat); err != nil {
				return result, fmt.Errorf("category %q: %w", cat.Name, err)
			}
			result.CategoriesCreated++
		default:
			return result, fmt.Errorf("category %q: %w", cat.Name, err)
		}
		ids[cat.Name] = cat.ID
	}

	for _, sp := range s.Patterns {
		name := strings.TrimSpace(sp.Category)
		categoryID, ok := ids[name]
		if !ok {
			cat, err := store.GetCategoryByName(ctx, name)
			if err != nil {
				return result, fmt.Errorf("pattern %q references category %q: %w", sp.Name, name, err)
			}
			categoryID = cat.ID
			ids[name] = categoryID
		}

		p, err := sp.Pattern(categoryID)
		if err != nil {
			return result, err
		}
		if err := store.CreatePattern(ctx, &p); err != nil {
			return result, fmt.Errorf("pattern %q: %w", p.Name, err)
		}
		result.PatternsCreated++
	}

	slog.Info("applied seed",
		"categories_created", result.CategoriesCreated,
		"categories_updated", result.CategoriesUpdated,
		"payment_methods_created", result.PaymentMethodsCreated,
		"patterns_created", result.PatternsCreated)
	return result, nil
}
