package analytics

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/Veraticus/koperasi/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryReader struct {
	err     error
	entries []model.ClassificationLogEntry
	calls   int
}

func (r *memoryReader) ClassificationLogs(_ context.Context, start, end time.Time) ([]model.ClassificationLogEntry, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	var out []model.ClassificationLogEntry
	for _, e := range r.entries {
		if !e.Timestamp.Before(start) && !e.Timestamp.After(end) {
			out = append(out, e)
		}
	}
	return out, nil
}

var now = time.Date(2026, 10, 14, 15, 0, 0, 0, time.UTC)

func cat(id int64) *int64 { return &id }

func entry(daysAgo int, suggested int64, pattern string, confidence float64, override bool) model.ClassificationLogEntry {
	return model.ClassificationLogEntry{
		TransactionID:       "txn",
		SuggestedCategoryID: cat(suggested),
		PatternMatched:      pattern,
		ConfidenceScore:     confidence,
		IsManualOverride:    override,
		Timestamp:           now.AddDate(0, 0, -daysAgo).Add(-time.Hour),
	}
}

func newTestAggregator(entries ...model.ClassificationLogEntry) (*Aggregator, *memoryReader) {
	r := &memoryReader{entries: entries}
	a := NewAggregator(r).WithClock(func() time.Time { return now }).WithLocation(time.UTC)
	return a, r
}

func TestAggregator_EmptyLedger(t *testing.T) {
	a, _ := newTestAggregator()

	m, err := a.GetClassificationAnalytics(context.Background(), "30d")
	require.NoError(t, err)

	assert.Zero(t, m.TotalClassifications)
	assert.Zero(t, m.AccuracyRate)
	assert.Zero(t, m.OverrideRate)
	assert.Zero(t, m.AvgConfidenceScore)
	assert.Len(t, m.DailyStats, 30)
	for _, d := range m.DailyStats {
		assert.Zero(t, d.AccuracyRate)
		assert.False(t, math.IsNaN(d.AccuracyRate))
	}
	require.Len(t, m.ConfidenceDistribution, 5)
	for _, b := range m.ConfidenceDistribution {
		assert.Zero(t, b.Count)
		assert.Zero(t, b.AccuracyRate)
	}
	assert.Empty(t, m.CategoryAccuracy)
	assert.Empty(t, m.TopPatterns)
}

func TestAggregator_Totals(t *testing.T) {
	a, _ := newTestAggregator(
		entry(0, 1, "Gaji", 95, false),
		entry(0, 1, "Gaji", 85, false),
		entry(1, 2, "Listrik", 60, true),
		entry(3, 2, "Listrik", 40, false),
	)

	m, err := a.GetClassificationAnalytics(context.Background(), "7d")
	require.NoError(t, err)

	assert.Equal(t, "7d", m.TimeRange)
	assert.Equal(t, 4, m.TotalClassifications)
	assert.Equal(t, 3, m.AccurateClassifications)
	assert.Equal(t, 1, m.ManualOverrides)
	assert.InDelta(t, 75.0, m.AccuracyRate, 1e-9)
	assert.InDelta(t, 25.0, m.OverrideRate, 1e-9)
	assert.InDelta(t, 70.0, m.AvgConfidenceScore, 1e-9)
}

func TestAggregator_RatesSumToHundred(t *testing.T) {
	var entries []model.ClassificationLogEntry
	for i := 0; i < 37; i++ {
		entries = append(entries, entry(i%20, int64(i%4), "p", float64(i*3%101), i%3 == 0))
	}
	a, _ := newTestAggregator(entries...)

	for _, r := range []string{"7d", "30d", "90d", "last_30_days"} {
		m, err := a.GetClassificationAnalytics(context.Background(), r)
		require.NoError(t, err)
		require.Positive(t, m.TotalClassifications)
		assert.InDelta(t, 100.0, m.AccuracyRate+m.OverrideRate, 1e-9, r)
		assert.Equal(t, m.TotalClassifications, m.AccurateClassifications+m.ManualOverrides)
	}
}

func TestAggregator_Idempotent(t *testing.T) {
	a, r := newTestAggregator(
		entry(0, 1, "Gaji", 95, false),
		entry(2, 3, "ATK", 55, true),
		entry(2, 2, "Listrik", 65, false),
		entry(5, 3, "ATK", 20, false),
	)

	first, err := a.GetClassificationAnalytics(context.Background(), "30d")
	require.NoError(t, err)
	second, err := a.GetClassificationAnalytics(context.Background(), "30d")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, r.calls)
}

func TestAggregator_DailyStats(t *testing.T) {
	a, _ := newTestAggregator(
		entry(0, 1, "Gaji", 90, false),
		entry(0, 1, "Gaji", 90, true),
		entry(6, 1, "Gaji", 90, false),
		entry(7, 1, "Gaji", 90, false), // outside a 7 day window
	)

	m, err := a.GetClassificationAnalytics(context.Background(), "7d")
	require.NoError(t, err)

	require.Len(t, m.DailyStats, 7)
	assert.Equal(t, time.Date(2026, 10, 8, 0, 0, 0, 0, time.UTC), m.DailyStats[0].Date)
	assert.Equal(t, time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC), m.DailyStats[6].Date)

	assert.Equal(t, 1, m.DailyStats[0].Classifications)
	assert.InDelta(t, 100.0, m.DailyStats[0].AccuracyRate, 1e-9)

	today := m.DailyStats[6]
	assert.Equal(t, 2, today.Classifications)
	assert.Equal(t, 1, today.Accurate)
	assert.Equal(t, 1, today.Overrides)
	assert.InDelta(t, 50.0, today.AccuracyRate, 1e-9)

	for _, d := range m.DailyStats[1:6] {
		assert.Zero(t, d.Classifications)
		assert.Zero(t, d.AccuracyRate)
	}
	assert.Equal(t, 3, m.TotalClassifications)
}

func TestAggregator_Breakdowns(t *testing.T) {
	noSuggestion := entry(0, 0, "", 0, true)
	noSuggestion.SuggestedCategoryID = nil

	a, _ := newTestAggregator(
		entry(0, 1, "Gaji", 100, false),
		entry(0, 1, "Gaji", 81, true),
		entry(1, 2, "Listrik", 79.9, false),
		entry(1, 2, "Listrik", 20, false),
		entry(2, 2, "PLN", 19.99, true),
		noSuggestion,
	)

	m, err := a.GetClassificationAnalytics(context.Background(), "30d")
	require.NoError(t, err)

	require.Len(t, m.CategoryAccuracy, 3)
	wantCategories := []struct {
		id       int64
		total    int
		accurate int
		rate     float64
	}{
		{id: 0, total: 1, accurate: 0, rate: 0},
		{id: 1, total: 2, accurate: 1, rate: 50},
		{id: 2, total: 3, accurate: 2, rate: 66.6667},
	}
	for i, want := range wantCategories {
		got := m.CategoryAccuracy[i]
		assert.Equal(t, want.id, got.CategoryID)
		assert.Equal(t, want.total, got.TotalSuggestions)
		assert.Equal(t, want.accurate, got.Accurate)
		assert.InDelta(t, want.rate, got.AccuracyRate, 1e-3)
	}

	assert.Equal(t, []model.PatternUsage{
		{PatternName: "Gaji", UsageCount: 2, Accurate: 1, AccuracyRate: 50},
		{PatternName: "Listrik", UsageCount: 2, Accurate: 2, AccuracyRate: 100},
		{PatternName: "PLN", UsageCount: 1, Accurate: 0, AccuracyRate: 0},
		{PatternName: "no pattern", UsageCount: 1, Accurate: 0, AccuracyRate: 0},
	}, m.TopPatterns)

	counts := make([]int, 0, 5)
	for _, b := range m.ConfidenceDistribution {
		counts = append(counts, b.Count)
	}
	// 0 and 19.99 | 20 | - | 79.9 | 81 and 100
	assert.Equal(t, []int{2, 1, 0, 1, 2}, counts)
	assert.Equal(t, "80-100", m.ConfidenceDistribution[4].Label)
	assert.InDelta(t, 50.0, m.ConfidenceDistribution[4].AccuracyRate, 1e-9)
	assert.InDelta(t, 100.0, m.ConfidenceDistribution[1].AccuracyRate, 1e-9)
	assert.Zero(t, m.ConfidenceDistribution[2].AccuracyRate)
}

func TestAggregator_ReadFailure(t *testing.T) {
	r := &memoryReader{err: errors.New("no such table")}
	a := NewAggregator(r).WithClock(func() time.Time { return now })

	_, err := a.GetClassificationAnalytics(context.Background(), "7d")
	assert.Error(t, err)
}

func TestRangeDays(t *testing.T) {
	tests := []struct {
		in        string
		wantDays  int
		wantLabel string
	}{
		{in: "7d", wantDays: 7, wantLabel: "7d"},
		{in: "30d", wantDays: 30, wantLabel: "30d"},
		{in: "90d", wantDays: 90, wantLabel: "90d"},
		{in: "last_30_days", wantDays: 30, wantLabel: "last_30_days"},
		{in: "", wantDays: 30, wantLabel: "30d"},
		{in: "1y", wantDays: 30, wantLabel: "30d"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			days, label := RangeDays(tt.in)
			assert.Equal(t, tt.wantDays, days)
			assert.Equal(t, tt.wantLabel, label)
		})
	}
}

func TestWindow_UsesLocation(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*60*60)
	// 20:00 UTC is already the next day in Jakarta
	start, end := Window(time.Date(2026, 10, 14, 20, 0, 0, 0, time.UTC), 7, jakarta)

	assert.Equal(t, time.Date(2026, 10, 9, 0, 0, 0, 0, jakarta), start)
	assert.True(t, end.Equal(time.Date(2026, 10, 15, 3, 0, 0, 0, jakarta)))
}

func TestAlerts(t *testing.T) {
	assert.Empty(t, Alerts(model.Metrics{}, DefaultThresholds()))

	healthy := model.Metrics{TotalClassifications: 10, AccuracyRate: 90, OverrideRate: 10}
	assert.Empty(t, Alerts(healthy, DefaultThresholds()))

	atLimits := model.Metrics{TotalClassifications: 10, AccuracyRate: 80, OverrideRate: 20}
	assert.Empty(t, Alerts(atLimits, DefaultThresholds()))

	poor := model.Metrics{TotalClassifications: 10, AccuracyRate: 70, OverrideRate: 30}
	alerts := Alerts(poor, DefaultThresholds())
	require.Len(t, alerts, 2)
	assert.Equal(t, "accuracyRate", alerts[0].Metric)
	assert.Equal(t, "overrideRate", alerts[1].Metric)
}
