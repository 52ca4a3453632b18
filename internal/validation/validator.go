// Package validation applies category spending policy to transactions.
package validation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/koperasi/internal/model"
	"github.com/shopspring/decimal"
)

// DefaultOverrunErrorRatio is the multiple of a daily or monthly cap above
// which an overrun becomes a blocking error instead of a warning.
var DefaultOverrunErrorRatio = decimal.NewFromFloat(1.5)

// History reports what has already been recorded against a category.
// excludeID names a transaction to leave out of the sum, so an edited
// transaction is not counted twice.
type History interface {
	SumByCategoryDay(ctx context.Context, categoryID int64, day time.Time, excludeID string) (decimal.Decimal, error)
	SumByCategoryMonth(ctx context.Context, categoryID int64, month time.Time, excludeID string) (decimal.Decimal, error)
}

// Options tunes the validator.
type Options struct {
	// OverrunErrorRatio defaults to DefaultOverrunErrorRatio when not positive.
	OverrunErrorRatio decimal.Decimal
}

// Categories is an immutable lookup of categories taken for one request.
type Categories struct {
	byID map[int64]model.Category
}

// NewCategories snapshots categories by id.
func NewCategories(categories []model.Category) *Categories {
	c := &Categories{byID: make(map[int64]model.Category, len(categories))}
	for _, cat := range categories {
		c.byID[cat.ID] = cat
	}
	return c
}

// Get returns the category with id.
func (c *Categories) Get(id int64) (model.Category, bool) {
	if c == nil {
		return model.Category{}, false
	}
	cat, ok := c.byID[id]
	return cat, ok
}

// Validator checks transactions against their category's validation rules.
type Validator struct {
	categories *Categories
	history    History
	ratio      decimal.Decimal
}

// NewValidator creates a validator. A nil history treats every category as
// having no other recorded transactions.
func NewValidator(categories *Categories, history History, opts Options) *Validator {
	ratio := opts.OverrunErrorRatio
	if !ratio.IsPositive() {
		ratio = DefaultOverrunErrorRatio
	}
	return &Validator{
		categories: categories,
		history:    history,
		ratio:      ratio,
	}
}

// Validate returns the policy outcome for txn. It never writes anything.
//
// Caps compare strictly: an amount equal to max_transaction_amount passes,
// and a daily or monthly total equal to the cap passes. A total above the cap
// but at most cap*ratio is a warning; above cap*ratio it is an error.
func (v *Validator) Validate(ctx context.Context, txn model.Transaction) model.ValidationResult {
	r := &result{}

	if strings.TrimSpace(txn.Description) == "" {
		r.fail(model.IssueDescriptionRequired, "description is required")
	}
	if !txn.Amount.IsPositive() {
		r.fail(model.IssueAmountPositive, "amount must be greater than zero")
	}
	if txn.CategoryID <= 0 {
		r.fail(model.IssueCategoryRequired, "category is required")
		return r.done()
	}

	category, ok := v.categories.Get(txn.CategoryID)
	if !ok {
		r.fail(model.IssueCategoryUnknown, fmt.Sprintf("category %d does not exist", txn.CategoryID))
		return r.done()
	}
	if !category.IsActive {
		r.fail(model.IssueCategoryInactive, fmt.Sprintf("category %q is inactive", category.Name))
		return r.done()
	}

	if txn.Type != "" && !category.Type.AppliesTo(txn.Type) {
		r.fail(model.IssueCategoryTypeMismatch,
			fmt.Sprintf("category %q is for %s transactions, not %s", category.Name, category.Type, txn.Type))
	}

	rules := category.ValidationRules

	if txn.Amount.IsPositive() {
		v.checkTransactionCap(r, txn, category)
		v.checkPeriodCap(ctx, r, txn, category, rules.MaxDailyAmount, periodDay)
		v.checkPeriodCap(ctx, r, txn, category, rules.MaxMonthlyAmount, periodMonth)
	}

	switch {
	case rules.RequiresApproval:
		r.requireApproval(model.ApprovalReasonPolicy)
	case rules.ApprovalThreshold != nil && txn.Amount.GreaterThanOrEqual(*rules.ApprovalThreshold):
		r.requireApproval(model.ApprovalReasonThreshold)
	}

	return r.done()
}

func (v *Validator) checkTransactionCap(r *result, txn model.Transaction, category model.Category) {
	limit := category.ValidationRules.MaxTransactionAmount
	if limit == nil || !txn.Amount.GreaterThan(*limit) {
		return
	}
	r.fail(model.IssueMaxTransactionAmount,
		fmt.Sprintf("transaction exceeds per-transaction limit for category %q (%s > %s)",
			category.Name, txn.Amount, limit))
}

type period struct {
	name      string
	code      model.IssueCode
	unchecked model.IssueCode
	sum       func(History, context.Context, int64, time.Time, string) (decimal.Decimal, error)
}

var (
	periodDay = period{
		name:      "daily",
		code:      model.IssueMaxDailyAmount,
		unchecked: model.IssueDailyUnchecked,
		sum:       History.SumByCategoryDay,
	}
	periodMonth = period{
		name:      "monthly",
		code:      model.IssueMaxMonthlyAmount,
		unchecked: model.IssueMonthlyUnchecked,
		sum:       History.SumByCategoryMonth,
	}
)

func (v *Validator) checkPeriodCap(ctx context.Context, r *result, txn model.Transaction, category model.Category, limit *decimal.Decimal, p period) {
	if limit == nil {
		return
	}

	recorded := decimal.Zero
	if v.history != nil {
		sum, err := p.sum(v.history, ctx, category.ID, txn.Date, txn.ID)
		if err != nil {
			slog.Warn("Could not load recorded totals",
				"period", p.name,
				"category_id", category.ID,
				"error", err)
			r.warn(p.unchecked, fmt.Sprintf("%s limit for category %q could not be checked", p.name, category.Name))
			return
		}
		recorded = sum
	}

	total := recorded.Add(txn.Amount)
	if !total.GreaterThan(*limit) {
		return
	}

	msg := fmt.Sprintf("%s total %s exceeds %s limit %s for category %q",
		p.name, total, p.name, limit, category.Name)

	if total.GreaterThan(limit.Mul(v.ratio)) {
		r.fail(p.code, msg)
		return
	}
	r.warn(p.code, msg)
}

type result struct {
	errors         []model.ValidationIssue
	warnings       []model.ValidationIssue
	approvalReason string
}

func (r *result) fail(code model.IssueCode, msg string) {
	r.errors = append(r.errors, model.ValidationIssue{Code: code, Message: msg})
}

func (r *result) warn(code model.IssueCode, msg string) {
	r.warnings = append(r.warnings, model.ValidationIssue{Code: code, Message: msg})
}

func (r *result) requireApproval(reason string) {
	r.approvalReason = reason
}

func (r *result) done() model.ValidationResult {
	out := model.ValidationResult{
		Errors:           r.errors,
		Warnings:         r.warnings,
		IsValid:          len(r.errors) == 0,
		RequiresApproval: r.approvalReason != "",
		ApprovalReason:   r.approvalReason,
	}
	if out.Errors == nil {
		out.Errors = []model.ValidationIssue{}
	}
	if out.Warnings == nil {
		out.Warnings = []model.ValidationIssue{}
	}
	return out
}
