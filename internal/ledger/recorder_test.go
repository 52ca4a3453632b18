package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/koperasi/internal/common"
	"github.com/Veraticus/koperasi/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStore struct {
	err             error
	classifications []model.ClassificationLogEntry
	overrides       []model.ManualOverrideLogEntry
}

func (s *countingStore) AppendClassification(_ context.Context, e *model.ClassificationLogEntry) error {
	if s.err != nil {
		return s.err
	}
	s.classifications = append(s.classifications, *e)
	return nil
}

func (s *countingStore) AppendManualOverride(_ context.Context, e *model.ManualOverrideLogEntry) error {
	if s.err != nil {
		return s.err
	}
	s.overrides = append(s.overrides, *e)
	return nil
}

func (s *countingStore) ClassificationLogs(context.Context, time.Time, time.Time) ([]model.ClassificationLogEntry, error) {
	return s.classifications, nil
}

func (s *countingStore) ManualOverrideLogs(context.Context, time.Time, time.Time) ([]model.ManualOverrideLogEntry, error) {
	return s.overrides, nil
}

func int64Ptr(v int64) *int64 { return &v }

var fixedNow = time.Date(2026, 10, 14, 8, 30, 0, 0, time.UTC)

func suggestion(categoryID int64) model.ClassificationResult {
	return model.ClassificationResult{
		SuggestedCategoryID: int64Ptr(categoryID),
		PatternMatched:      "Gaji Karyawan",
		ConfidenceScore:     92,
	}
}

func TestRecorder_AcceptedSuggestionLogsClassificationOnly(t *testing.T) {
	store := &countingStore{}
	r := NewRecorder(store).WithClock(func() time.Time { return fixedNow })

	err := r.RecordOutcome(context.Background(), Outcome{
		TransactionID:   "txn-1",
		Suggestion:      suggestion(10),
		FinalCategoryID: 10,
	})
	require.NoError(t, err)

	assert.Empty(t, store.overrides)
	require.Len(t, store.classifications, 1)
	got := store.classifications[0]
	assert.Equal(t, "txn-1", got.TransactionID)
	assert.Equal(t, int64(10), got.ActualCategoryID)
	assert.False(t, got.IsManualOverride)
	assert.Equal(t, 92.0, got.ConfidenceScore)
	assert.Equal(t, fixedNow, got.Timestamp)
	assert.NotEmpty(t, got.ID)
}

func TestRecorder_ChangedCategoryLogsOverrideOnly(t *testing.T) {
	store := &countingStore{}
	r := NewRecorder(store).WithClock(func() time.Time { return fixedNow })

	err := r.RecordOutcome(context.Background(), Outcome{
		TransactionID:   "txn-2",
		Suggestion:      suggestion(10),
		FinalCategoryID: 11,
		Reason:          "bonus, not salary",
	})
	require.NoError(t, err)

	assert.Empty(t, store.classifications)
	require.Len(t, store.overrides, 1)
	got := store.overrides[0]
	require.NotNil(t, got.OriginalCategoryID)
	assert.Equal(t, int64(10), *got.OriginalCategoryID)
	assert.Equal(t, int64(11), got.NewCategoryID)
	assert.Equal(t, "bonus, not salary", got.Reason)
	assert.Equal(t, "Gaji Karyawan", got.PatternMatched)
}

func TestRecorder_NoSuggestionCountsAsOverride(t *testing.T) {
	store := &countingStore{}
	r := NewRecorder(store)

	err := r.RecordOutcome(context.Background(), Outcome{
		TransactionID:   "txn-3",
		Suggestion:      model.ClassificationResult{Reasoning: model.ReasonNoMatch},
		FinalCategoryID: 5,
	})
	require.NoError(t, err)

	assert.Empty(t, store.classifications)
	require.Len(t, store.overrides, 1)
	assert.Nil(t, store.overrides[0].OriginalCategoryID)
}

func TestRecorder_StorageFailureIsRecoverable(t *testing.T) {
	cause := errors.New("disk I/O error")
	r := NewRecorder(&countingStore{err: cause})

	err := r.LogClassification(context.Background(), model.ClassificationLogEntry{TransactionID: "txn-4"})
	assert.ErrorIs(t, err, common.ErrStorage)
	assert.ErrorIs(t, err, cause)

	err = r.LogManualOverride(context.Background(), model.ManualOverrideLogEntry{TransactionID: "txn-4"})
	assert.ErrorIs(t, err, common.ErrStorage)
}

func TestRecorder_RequiresTransactionID(t *testing.T) {
	store := &countingStore{}
	r := NewRecorder(store)

	assert.ErrorIs(t, r.LogClassification(context.Background(), model.ClassificationLogEntry{}), common.ErrInvalidInput)
	assert.ErrorIs(t, r.LogManualOverride(context.Background(), model.ManualOverrideLogEntry{TransactionID: " "}), common.ErrInvalidInput)
	assert.Empty(t, store.classifications)
	assert.Empty(t, store.overrides)
}

func TestRecorder_KeepsCallerIDAndTimestamp(t *testing.T) {
	store := &countingStore{}
	r := NewRecorder(store).WithClock(func() time.Time { return fixedNow })
	ts := fixedNow.Add(-time.Hour)

	require.NoError(t, r.LogClassification(context.Background(), model.ClassificationLogEntry{
		ID: "fixed-id", TransactionID: "txn-5", Timestamp: ts,
	}))

	assert.Equal(t, "fixed-id", store.classifications[0].ID)
	assert.Equal(t, ts, store.classifications[0].Timestamp)
}
