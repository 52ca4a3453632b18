package model

import "time"

// DailyStat summarises the classification log for one calendar day.
type DailyStat struct {
	Date            time.Time `json:"date"`
	Classifications int       `json:"classifications"`
	Accurate        int       `json:"accurate"`
	Overrides       int       `json:"overrides"`
	AccuracyRate    float64   `json:"accuracyRate"`
}

// CategoryAccuracy summarises suggestions for one suggested category.
// CategoryID 0 groups submissions that carried no suggestion.
type CategoryAccuracy struct {
	CategoryID       int64   `json:"categoryId"`
	TotalSuggestions int     `json:"totalSuggestions"`
	Accurate         int     `json:"accurate"`
	AccuracyRate     float64 `json:"accuracyRate"`
}

// PatternUsage summarises how often a pattern won and how often it was trusted.
type PatternUsage struct {
	PatternName  string  `json:"patternName"`
	UsageCount   int     `json:"usageCount"`
	Accurate     int     `json:"accurate"`
	AccuracyRate float64 `json:"accuracyRate"`
}

// ConfidenceBucket counts entries whose confidence falls in [Min, Max).
// The last bucket includes Max.
type ConfidenceBucket struct {
	Label        string  `json:"label"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Count        int     `json:"count"`
	Accurate     int     `json:"accurate"`
	AccuracyRate float64 `json:"accuracyRate"`
}

// Metrics is the analytics summary over a time window.
type Metrics struct {
	WindowStart             time.Time          `json:"windowStart"`
	WindowEnd               time.Time          `json:"windowEnd"`
	TimeRange               string             `json:"timeRange"`
	DailyStats              []DailyStat        `json:"dailyStats"`
	CategoryAccuracy        []CategoryAccuracy `json:"categoryAccuracy"`
	TopPatterns             []PatternUsage     `json:"topPatterns"`
	ConfidenceDistribution  []ConfidenceBucket `json:"confidenceDistribution"`
	TotalClassifications    int                `json:"totalClassifications"`
	AccurateClassifications int                `json:"accurateClassifications"`
	ManualOverrides         int                `json:"manualOverrides"`
	AccuracyRate            float64            `json:"accuracyRate"`
	OverrideRate            float64            `json:"overrideRate"`
	AvgConfidenceScore      float64            `json:"avgConfidenceScore"`
}
