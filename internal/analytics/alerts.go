package analytics

import (
	"fmt"

	"github.com/Veraticus/koperasi/internal/model"
)

// Default dashboard thresholds.
const (
	DefaultMinAccuracyRate = 80.0
	DefaultMaxOverrideRate = 20.0
)

// Thresholds configure when the dashboard raises an alert.
type Thresholds struct {
	MinAccuracyRate float64
	MaxOverrideRate float64
}

// DefaultThresholds returns the built-in alert thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinAccuracyRate: DefaultMinAccuracyRate,
		MaxOverrideRate: DefaultMaxOverrideRate,
	}
}

// Alert is a dashboard warning derived from metrics.
type Alert struct {
	Metric  string
	Message string
	Value   float64
	Limit   float64
}

// Alerts compares metrics against thresholds. A window without
// classifications raises nothing.
func Alerts(m model.Metrics, t Thresholds) []Alert {
	if m.TotalClassifications == 0 {
		return nil
	}

	var alerts []Alert
	if m.AccuracyRate < t.MinAccuracyRate {
		alerts = append(alerts, Alert{
			Metric:  "accuracyRate",
			Value:   m.AccuracyRate,
			Limit:   t.MinAccuracyRate,
			Message: fmt.Sprintf("accuracy %.1f%% is below %.1f%%; review patterns", m.AccuracyRate, t.MinAccuracyRate),
		})
	}
	if m.OverrideRate > t.MaxOverrideRate {
		alerts = append(alerts, Alert{
			Metric:  "overrideRate",
			Value:   m.OverrideRate,
			Limit:   t.MaxOverrideRate,
			Message: fmt.Sprintf("override rate %.1f%% is above %.1f%%", m.OverrideRate, t.MaxOverrideRate),
		})
	}
	return alerts
}
