// Package ledger records classification outcomes for later analytics.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/koperasi/internal/common"
	"github.com/Veraticus/koperasi/internal/model"
	"github.com/google/uuid"
)

// Store is append-only storage for classification outcomes. Each append is
// all-or-nothing. AppendManualOverride must also persist the matching
// classification row (see model.ManualOverrideLogEntry.AsClassification).
type Store interface {
	AppendClassification(ctx context.Context, entry *model.ClassificationLogEntry) error
	AppendManualOverride(ctx context.Context, entry *model.ManualOverrideLogEntry) error
	ClassificationLogs(ctx context.Context, start, end time.Time) ([]model.ClassificationLogEntry, error)
	ManualOverrideLogs(ctx context.Context, start, end time.Time) ([]model.ManualOverrideLogEntry, error)
}

// Recorder writes ledger entries, filling ids and timestamps.
type Recorder struct {
	store Store
	now   func() time.Time
}

// NewRecorder creates a recorder over store.
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store, now: time.Now}
}

// WithClock overrides the recorder's time source.
func (r *Recorder) WithClock(now func() time.Time) *Recorder {
	r.now = now
	return r
}

// LogClassification appends a record of a suggestion the user accepted.
func (r *Recorder) LogClassification(ctx context.Context, entry model.ClassificationLogEntry) error {
	if strings.TrimSpace(entry.TransactionID) == "" {
		return fmt.Errorf("%w: classification log entry needs a transaction id", common.ErrInvalidInput)
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = r.now()
	}

	if err := r.store.AppendClassification(ctx, &entry); err != nil {
		return common.StorageError("append classification log", err)
	}

	slog.Debug("Logged classification",
		"transaction_id", entry.TransactionID,
		"pattern", entry.PatternMatched,
		"confidence", entry.ConfidenceScore)
	return nil
}

// LogManualOverride appends a record of the user replacing a suggestion.
func (r *Recorder) LogManualOverride(ctx context.Context, entry model.ManualOverrideLogEntry) error {
	if strings.TrimSpace(entry.TransactionID) == "" {
		return fmt.Errorf("%w: manual override log entry needs a transaction id", common.ErrInvalidInput)
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = r.now()
	}

	if err := r.store.AppendManualOverride(ctx, &entry); err != nil {
		return common.StorageError("append manual override log", err)
	}

	slog.Debug("Logged manual override",
		"transaction_id", entry.TransactionID,
		"new_category_id", entry.NewCategoryID,
		"reason", entry.Reason)
	return nil
}

// Outcome is what happened to a suggestion when its transaction was submitted.
type Outcome struct {
	TransactionID   string
	Reason          string
	Suggestion      model.ClassificationResult
	FinalCategoryID int64
}

// Overridden reports whether the saved category differs from the suggestion.
// A submission with no suggestion counts as overridden.
func (o Outcome) Overridden() bool {
	if o.Suggestion.SuggestedCategoryID == nil {
		return true
	}
	return *o.Suggestion.SuggestedCategoryID != o.FinalCategoryID
}

// RecordOutcome writes exactly one of LogClassification or LogManualOverride.
func (r *Recorder) RecordOutcome(ctx context.Context, o Outcome) error {
	if o.Overridden() {
		return r.LogManualOverride(ctx, model.ManualOverrideLogEntry{
			TransactionID:      o.TransactionID,
			OriginalCategoryID: o.Suggestion.SuggestedCategoryID,
			NewCategoryID:      o.FinalCategoryID,
			Reason:             o.Reason,
			ConfidenceScore:    o.Suggestion.ConfidenceScore,
			PatternMatched:     o.Suggestion.PatternMatched,
		})
	}

	return r.LogClassification(ctx, model.ClassificationLogEntry{
		TransactionID:       o.TransactionID,
		SuggestedCategoryID: o.Suggestion.SuggestedCategoryID,
		ActualCategoryID:    o.FinalCategoryID,
		ConfidenceScore:     o.Suggestion.ConfidenceScore,
		PatternMatched:      o.Suggestion.PatternMatched,
	})
}
