// Package engine runs the withdrawal classification and validation flow
// behind the transaction entry form.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/koperasi/internal/analytics"
	"github.com/Veraticus/koperasi/internal/common"
	"github.com/Veraticus/koperasi/internal/ledger"
	"github.com/Veraticus/koperasi/internal/model"
	"github.com/Veraticus/koperasi/internal/pattern"
	"github.com/Veraticus/koperasi/internal/validation"
)

// Options configures an Engine. Zero values select the defaults.
type Options struct {
	Now        func() time.Time
	Location   *time.Location
	Validation validation.Options
	// Scoring overrides pattern.DefaultScoring when set. A zero Scoring
	// is honoured and scores by base confidence alone.
	Scoring *pattern.Scoring
}

// Engine classifies drafts, validates them and records submissions.
type Engine struct {
	store      Store
	recorder   *ledger.Recorder
	aggregator *analytics.Aggregator
	validation validation.Options
	scoring    pattern.Scoring
}

// New creates an engine over store, writing outcomes to ledgerStore.
func New(store Store, ledgerStore ledger.Store, opts Options) *Engine {
	scoring := pattern.DefaultScoring()
	if opts.Scoring != nil {
		scoring = opts.Scoring.Normalize()
	}

	recorder := ledger.NewRecorder(ledgerStore)
	aggregator := analytics.NewAggregator(ledgerStore).WithLocation(opts.Location)
	if opts.Now != nil {
		recorder.WithClock(opts.Now)
		aggregator.WithClock(opts.Now)
	}

	return &Engine{
		store:      store,
		recorder:   recorder,
		aggregator: aggregator,
		validation: opts.Validation,
		scoring:    scoring,
	}
}

// Classify suggests a category for a bank-transfer expense. Other drafts
// return common.ErrNotClassifiable.
func (e *Engine) Classify(ctx context.Context, draft model.Transaction) (model.ClassificationResult, error) {
	if err := e.checkClassifiable(ctx, draft); err != nil {
		return model.ClassificationResult{}, err
	}

	patterns, err := e.store.GetActivePatterns(ctx)
	if err != nil {
		return model.ClassificationResult{}, fmt.Errorf("failed to load patterns: %w", err)
	}
	categories, err := e.store.GetCategories(ctx)
	if err != nil {
		return model.ClassificationResult{}, fmt.Errorf("failed to load categories: %w", err)
	}

	snapshot := pattern.NewSnapshot(usablePatterns(patterns, categories, draft.Type))
	result := pattern.NewClassifier(snapshot, e.scoring).Classify(draft)

	slog.Debug("classified draft",
		"description", draft.Description,
		"amount", draft.Amount.String(),
		"patterns", snapshot.Len(),
		"pattern_matched", result.PatternMatched,
		"confidence", result.ConfidenceScore)
	return result, nil
}

func (e *Engine) checkClassifiable(ctx context.Context, draft model.Transaction) error {
	if draft.Type != model.TransactionTypeExpense {
		return fmt.Errorf("%w: transaction type is %q, only expenses are classified", common.ErrNotClassifiable, draft.Type)
	}
	if draft.PaymentMethodID == 0 {
		return fmt.Errorf("%w: no payment method", common.ErrNotClassifiable)
	}

	method, err := e.store.GetPaymentMethod(ctx, draft.PaymentMethodID)
	if err != nil {
		return fmt.Errorf("failed to load payment method %d: %w", draft.PaymentMethodID, err)
	}
	if method.Type != model.PaymentMethodBankTransfer {
		return fmt.Errorf("%w: payment method %q is %s, not a bank transfer", common.ErrNotClassifiable, method.Name, method.Type)
	}
	return nil
}

// usablePatterns keeps patterns whose target category is active and applies
// to txnType.
func usablePatterns(patterns []model.Pattern, categories []model.Category, txnType model.TransactionType) []model.Pattern {
	lookup := validation.NewCategories(categories)

	usable := make([]model.Pattern, 0, len(patterns))
	for _, p := range patterns {
		cat, ok := lookup.Get(p.CategoryID)
		if !ok || !cat.IsActive {
			slog.Warn("skipping pattern with unknown or inactive category",
				"pattern_id", p.ID, "pattern", p.Name, "category_id", p.CategoryID)
			continue
		}
		if !cat.Type.AppliesTo(txnType) {
			continue
		}
		usable = append(usable, p)
	}
	return usable
}

// Validate checks draft against its category's rules, using recorded
// transactions for the daily and monthly totals.
func (e *Engine) Validate(ctx context.Context, draft model.Transaction) (model.ValidationResult, error) {
	categories, err := e.store.GetCategories(ctx)
	if err != nil {
		return model.ValidationResult{}, fmt.Errorf("failed to load categories: %w", err)
	}

	categories = e.withDraftCategory(ctx, categories, draft.CategoryID)

	v := validation.NewValidator(validation.NewCategories(categories), e.store, e.validation)
	return v.Validate(ctx, draft), nil
}

// withDraftCategory adds the draft's category when it is missing from the
// active list, so an inactive category is reported as such.
func (e *Engine) withDraftCategory(ctx context.Context, categories []model.Category, id int64) []model.Category {
	if id <= 0 {
		return categories
	}
	for _, cat := range categories {
		if cat.ID == id {
			return categories
		}
	}

	cat, err := e.store.GetCategoryByID(ctx, id)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			slog.Warn("Failed to look up draft category", "category_id", id, "error", err)
		}
		return categories
	}
	return append(categories, *cat)
}

// SubmitRequest is a draft on its way to being recorded.
type SubmitRequest struct {
	// Suggestion is the classification shown for the draft, if any.
	Suggestion *model.ClassificationResult
	// Reason explains an override.
	Reason string
	Draft  model.Transaction
	// Force records the transaction even when validation fails.
	Force bool
}

// SubmitResult describes a recorded submission.
type SubmitResult struct {
	// LedgerErr is set when the transaction was saved but its ledger entry
	// could not be written.
	LedgerErr     error
	Validation    model.ValidationResult
	TransactionID string
	Overridden    bool
}

// Submit validates and saves a draft, then records the suggestion outcome.
// An invalid draft is refused with common.ErrInvalidTransaction unless
// Force is set. Ledger failures never undo the save.
func (e *Engine) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	result, err := e.Validate(ctx, req.Draft)
	if err != nil {
		return nil, err
	}
	out := &SubmitResult{Validation: result}

	if !result.IsValid {
		if !req.Force {
			return out, fmt.Errorf("%w: %s", common.ErrInvalidTransaction, summarize(result.Errors))
		}
		slog.Warn("recording invalid transaction on request",
			"description", req.Draft.Description,
			"errors", summarize(result.Errors))
	}
	if result.RequiresApproval {
		slog.Info("transaction requires approval",
			"description", req.Draft.Description,
			"reason", result.ApprovalReason)
	}

	txn := req.Draft
	if err := e.store.SaveTransaction(ctx, &txn); err != nil {
		return out, common.StorageError("save transaction", err)
	}
	out.TransactionID = txn.ID

	if req.Suggestion == nil {
		return out, nil
	}

	outcome := ledger.Outcome{
		TransactionID:   txn.ID,
		Reason:          req.Reason,
		Suggestion:      *req.Suggestion,
		FinalCategoryID: txn.CategoryID,
	}
	out.Overridden = outcome.Overridden()
	if err := e.recorder.RecordOutcome(ctx, outcome); err != nil {
		slog.Warn("failed to record classification outcome",
			"transaction_id", txn.ID,
			"error", err)
		out.LedgerErr = err
	}
	return out, nil
}

// Analytics summarises the ledger over timeRange.
func (e *Engine) Analytics(ctx context.Context, timeRange string) (model.Metrics, error) {
	return e.aggregator.GetClassificationAnalytics(ctx, timeRange)
}

func summarize(issues []model.ValidationIssue) string {
	msgs := make([]string, 0, len(issues))
	for _, issue := range issues {
		msgs = append(msgs, issue.Message)
	}
	return strings.Join(msgs, "; ")
}
