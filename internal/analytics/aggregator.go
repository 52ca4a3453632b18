// Package analytics summarises the classification ledger for the monitoring dashboard.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Veraticus/koperasi/internal/model"
)

// Supported time ranges. Anything else falls back to RangeDefault.
const (
	Range7Days       = "7d"
	Range30Days      = "30d"
	Range90Days      = "90d"
	RangeLast30Days  = "last_30_days"
	RangeDefault     = Range30Days
	noPatternLabel   = "no pattern"
	dayKeyLayout     = "2006-01-02"
	bucketWidth      = 20.0
	bucketCount      = 5
	percentageFactor = 100.0
)

// Reader is the read side of the ledger.
type Reader interface {
	ClassificationLogs(ctx context.Context, start, end time.Time) ([]model.ClassificationLogEntry, error)
}

// RangeDays maps a time range to its length in days and canonical label.
func RangeDays(timeRange string) (int, string) {
	switch timeRange {
	case Range7Days:
		return 7, Range7Days
	case Range90Days:
		return 90, Range90Days
	case Range30Days, RangeLast30Days:
		return 30, timeRange
	}
	return 30, RangeDefault
}

// Window returns the inclusive bounds of a window of days ending at now:
// midnight days-1 days ago through now.
func Window(now time.Time, days int, loc *time.Location) (time.Time, time.Time) {
	now = now.In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	return today.AddDate(0, 0, -(days - 1)), now
}

// Aggregator computes Metrics over a ledger window.
type Aggregator struct {
	reader Reader
	now    func() time.Time
	loc    *time.Location
}

// NewAggregator creates an aggregator reading from reader.
func NewAggregator(reader Reader) *Aggregator {
	return &Aggregator{reader: reader, now: time.Now, loc: time.Local}
}

// WithClock overrides the time source.
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

// WithLocation sets the location calendar days are cut in.
func (a *Aggregator) WithLocation(loc *time.Location) *Aggregator {
	if loc != nil {
		a.loc = loc
	}
	return a
}

// GetClassificationAnalytics reads the window's ledger rows and summarises
// them. An empty ledger yields zeroed metrics.
func (a *Aggregator) GetClassificationAnalytics(ctx context.Context, timeRange string) (model.Metrics, error) {
	days, label := RangeDays(timeRange)
	start, end := Window(a.now(), days, a.loc)

	entries, err := a.reader.ClassificationLogs(ctx, start, end)
	if err != nil {
		return model.Metrics{}, fmt.Errorf("failed to read classification logs: %w", err)
	}

	m := Summarize(entries, start, end, days, a.loc)
	m.TimeRange = label
	return m, nil
}

// Summarize reduces entries to Metrics. Entries outside [start, end] are
// ignored. Slices are ordered by key so equal input gives equal output.
func Summarize(entries []model.ClassificationLogEntry, start, end time.Time, days int, loc *time.Location) model.Metrics {
	m := model.Metrics{
		WindowStart:            start,
		WindowEnd:              end,
		DailyStats:             make([]model.DailyStat, days),
		CategoryAccuracy:       []model.CategoryAccuracy{},
		TopPatterns:            []model.PatternUsage{},
		ConfidenceDistribution: newBuckets(),
	}

	dayIndex := make(map[string]int, days)
	for i := 0; i < days; i++ {
		d := start.AddDate(0, 0, i)
		m.DailyStats[i].Date = d
		dayIndex[d.Format(dayKeyLayout)] = i
	}

	categories := make(map[int64]*model.CategoryAccuracy)
	patterns := make(map[string]*model.PatternUsage)
	var confidenceSum float64

	for _, e := range entries {
		if e.Timestamp.Before(start) || e.Timestamp.After(end) {
			continue
		}

		accurate := !e.IsManualOverride

		m.TotalClassifications++
		confidenceSum += e.ConfidenceScore
		if accurate {
			m.AccurateClassifications++
		} else {
			m.ManualOverrides++
		}

		if i, ok := dayIndex[e.Timestamp.In(loc).Format(dayKeyLayout)]; ok {
			day := &m.DailyStats[i]
			day.Classifications++
			if accurate {
				day.Accurate++
			} else {
				day.Overrides++
			}
		}

		var categoryID int64
		if e.SuggestedCategoryID != nil {
			categoryID = *e.SuggestedCategoryID
		}
		cat, ok := categories[categoryID]
		if !ok {
			cat = &model.CategoryAccuracy{CategoryID: categoryID}
			categories[categoryID] = cat
		}
		cat.TotalSuggestions++
		if accurate {
			cat.Accurate++
		}

		name := e.PatternMatched
		if name == "" {
			name = noPatternLabel
		}
		usage, ok := patterns[name]
		if !ok {
			usage = &model.PatternUsage{PatternName: name}
			patterns[name] = usage
		}
		usage.UsageCount++
		if accurate {
			usage.Accurate++
		}

		bucket := &m.ConfidenceDistribution[bucketFor(e.ConfidenceScore)]
		bucket.Count++
		if accurate {
			bucket.Accurate++
		}
	}

	m.AccuracyRate = rate(m.AccurateClassifications, m.TotalClassifications)
	m.OverrideRate = rate(m.ManualOverrides, m.TotalClassifications)
	if m.TotalClassifications > 0 {
		m.AvgConfidenceScore = confidenceSum / float64(m.TotalClassifications)
	}

	for i := range m.DailyStats {
		m.DailyStats[i].AccuracyRate = rate(m.DailyStats[i].Accurate, m.DailyStats[i].Classifications)
	}
	for i := range m.ConfidenceDistribution {
		b := &m.ConfidenceDistribution[i]
		b.AccuracyRate = rate(b.Accurate, b.Count)
	}

	for _, cat := range categories {
		cat.AccuracyRate = rate(cat.Accurate, cat.TotalSuggestions)
		m.CategoryAccuracy = append(m.CategoryAccuracy, *cat)
	}
	sort.Slice(m.CategoryAccuracy, func(i, j int) bool {
		return m.CategoryAccuracy[i].CategoryID < m.CategoryAccuracy[j].CategoryID
	})

	for _, usage := range patterns {
		usage.AccuracyRate = rate(usage.Accurate, usage.UsageCount)
		m.TopPatterns = append(m.TopPatterns, *usage)
	}
	sort.Slice(m.TopPatterns, func(i, j int) bool {
		return m.TopPatterns[i].PatternName < m.TopPatterns[j].PatternName
	})

	return m
}

func newBuckets() []model.ConfidenceBucket {
	buckets := make([]model.ConfidenceBucket, bucketCount)
	for i := range buckets {
		lo := float64(i) * bucketWidth
		buckets[i] = model.ConfidenceBucket{
			Label: fmt.Sprintf("%.0f-%.0f", lo, lo+bucketWidth),
			Min:   lo,
			Max:   lo + bucketWidth,
		}
	}
	return buckets
}

// bucketFor maps a confidence to its bucket; 100 and above land in the last.
func bucketFor(confidence float64) int {
	if confidence <= 0 {
		return 0
	}
	i := int(confidence / bucketWidth)
	if i >= bucketCount {
		return bucketCount - 1
	}
	return i
}

// rate returns part/total as a percentage, 0 when total is 0.
func rate(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * percentageFactor
}
