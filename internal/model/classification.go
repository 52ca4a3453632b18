// Package model defines the core data structures shared by the engine.
package model

import "time"

// ReasonNoMatch is the reasoning reported when no pattern matched.
const ReasonNoMatch = "no pattern matched"

// PatternMatch records which keyword alternatives of a pattern matched a
// description.
type PatternMatch struct {
	PatternName string   `json:"pattern_name"`
	Keywords    []string `json:"keywords"`
	PatternID   int64    `json:"pattern_id"`
	Score       float64  `json:"score"`
}

// ClassificationResult is the suggestion computed for a draft transaction.
// SuggestedCategoryID is nil when no pattern matched.
type ClassificationResult struct {
	SuggestedCategoryID *int64         `json:"suggested_category_id"`
	PatternID           *int64         `json:"pattern_id,omitempty"`
	PatternMatched      string         `json:"pattern_matched,omitempty"`
	Reasoning           string         `json:"reasoning"`
	PatternMatches      []PatternMatch `json:"pattern_matches"`
	ConfidenceScore     float64        `json:"confidence_score"`
}

// HasSuggestion reports whether the result carries a category suggestion.
func (r ClassificationResult) HasSuggestion() bool {
	return r.SuggestedCategoryID != nil
}

// ClassificationLogEntry is one append-only record of a classified submission.
type ClassificationLogEntry struct {
	Timestamp           time.Time `json:"timestamp"`
	SuggestedCategoryID *int64    `json:"suggested_category_id"`
	ID                  string    `json:"id"`
	TransactionID       string    `json:"transaction_id"`
	PatternMatched      string    `json:"pattern_matched"`
	ActualCategoryID    int64     `json:"actual_category_id"`
	ConfidenceScore     float64   `json:"confidence_score"`
	IsManualOverride    bool      `json:"is_manual_override"`
}

// ManualOverrideLogEntry records a user replacing a suggested category.
// ConfidenceScore and PatternMatched describe the rejected suggestion.
type ManualOverrideLogEntry struct {
	Timestamp          time.Time `json:"timestamp"`
	OriginalCategoryID *int64    `json:"original_category_id"`
	ID                 string    `json:"id"`
	TransactionID      string    `json:"transaction_id"`
	Reason             string    `json:"reason"`
	PatternMatched     string    `json:"pattern_matched"`
	NewCategoryID      int64     `json:"new_category_id"`
	ConfidenceScore    float64   `json:"confidence_score"`
}

// AsClassification returns the classification log row that accompanies an
// override, so every submission appears once in the classification log.
func (e ManualOverrideLogEntry) AsClassification() ClassificationLogEntry {
	return ClassificationLogEntry{
		ID:                  e.ID,
		TransactionID:       e.TransactionID,
		SuggestedCategoryID: e.OriginalCategoryID,
		ActualCategoryID:    e.NewCategoryID,
		ConfidenceScore:     e.ConfidenceScore,
		PatternMatched:      e.PatternMatched,
		IsManualOverride:    true,
		Timestamp:           e.Timestamp,
	}
}
