package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/koperasi/internal/common"
	"github.com/Veraticus/koperasi/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLedger struct {
	classifications []model.ClassificationLogEntry
	overrides       []model.ManualOverrideLogEntry
	start, end      time.Time
}

func (s *stubLedger) AppendClassification(context.Context, *model.ClassificationLogEntry) error {
	return nil
}

func (s *stubLedger) AppendManualOverride(context.Context, *model.ManualOverrideLogEntry) error {
	return nil
}

func (s *stubLedger) ClassificationLogs(_ context.Context, start, end time.Time) ([]model.ClassificationLogEntry, error) {
	s.start, s.end = start, end
	return s.classifications, nil
}

func (s *stubLedger) ManualOverrideLogs(_ context.Context, start, end time.Time) ([]model.ManualOverrideLogEntry, error) {
	s.start, s.end = start, end
	return s.overrides, nil
}

func TestExportRange(t *testing.T) {
	now := time.Date(2024, 5, 17, 15, 0, 0, 0, time.Local)

	start, end, err := exportRange("", "", now)
	require.NoError(t, err)
	assert.True(t, start.IsZero())
	assert.Equal(t, now, end)

	start, end, err = exportRange("2024-05-01", "2024-05-10", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.Local), start)
	assert.Equal(t, time.Date(2024, 5, 10, 23, 59, 59, 999999999, time.Local), end)

	_, _, err = exportRange("2024-05-10", "2024-05-01", now)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestWriteLedgerCSV_Classifications(t *testing.T) {
	suggested := int64(3)
	ts := time.Date(2024, 5, 17, 9, 30, 0, 0, time.UTC)
	store := &stubLedger{classifications: []model.ClassificationLogEntry{
		{ID: "a", TransactionID: "t1", SuggestedCategoryID: &suggested, ActualCategoryID: 3, ConfidenceScore: 87.5, PatternMatched: "Gaji", Timestamp: ts},
		{ID: "b", TransactionID: "t2", ActualCategoryID: 4, IsManualOverride: true, Timestamp: ts},
	}}

	var buf bytes.Buffer
	n, err := writeLedgerCSV(context.Background(), store, logClassifications, time.Time{}, ts, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "timestamp,id,transaction_id,suggested_category_id,actual_category_id,confidence_score,pattern_matched,is_manual_override", lines[0])
	assert.Equal(t, "2024-05-17T09:30:00Z,a,t1,3,3,87.50,Gaji,false", lines[1])
	assert.Equal(t, "2024-05-17T09:30:00Z,b,t2,,4,0.00,,true", lines[2])
}

func TestWriteLedgerCSV_Overrides(t *testing.T) {
	original := int64(3)
	ts := time.Date(2024, 5, 17, 9, 30, 0, 0, time.UTC)
	store := &stubLedger{overrides: []model.ManualOverrideLogEntry{
		{ID: "o1", TransactionID: "t1", OriginalCategoryID: &original, NewCategoryID: 5, Reason: "rapat", ConfidenceScore: 60, PatternMatched: "Gaji", Timestamp: ts},
	}}

	var buf bytes.Buffer
	n, err := writeLedgerCSV(context.Background(), store, logOverrides, time.Time{}, ts, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, ts, store.end)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "2024-05-17T09:30:00Z,o1,t1,3,5,rapat,60.00,Gaji", lines[1])
}
