package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Frequency is the expected recurrence of transactions matched by a pattern.
type Frequency string

// Frequency constants.
const (
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
	FrequencyIrregular Frequency = "irregular"
)

// Valid reports whether f is a known frequency class. The empty value is
// accepted and treated as irregular.
func (f Frequency) Valid() bool {
	switch f {
	case "", FrequencyDaily, FrequencyWeekly, FrequencyMonthly,
		FrequencyQuarterly, FrequencyYearly, FrequencyIrregular:
		return true
	}
	return false
}

// Pattern is an administrator-authored classification rule.
type Pattern struct {
	CreatedAt  time.Time        `json:"created_at" yaml:"-"`
	UpdatedAt  time.Time        `json:"updated_at" yaml:"-"`
	AmountMin  *decimal.Decimal `json:"amount_range_min,omitempty" yaml:"amount_range_min,omitempty"`
	AmountMax  *decimal.Decimal `json:"amount_range_max,omitempty" yaml:"amount_range_max,omitempty"`
	Name       string           `json:"name" yaml:"name"`
	Keywords   string           `json:"description_pattern" yaml:"keywords"`
	Frequency  Frequency        `json:"frequency" yaml:"frequency"`
	ID         int64            `json:"id" yaml:"-"`
	CategoryID int64            `json:"category_id" yaml:"-"`
	Confidence float64          `json:"confidence_score" yaml:"confidence"`
	IsActive   bool             `json:"is_active" yaml:"active"`
}

// Alternatives splits the pipe-delimited keyword expression into its
// lower-cased, trimmed, non-empty alternatives. Duplicates are dropped.
func (p Pattern) Alternatives() []string {
	parts := strings.Split(p.Keywords, "|")
	out := make([]string, 0, len(parts))
	seen := make(map[string]bool, len(parts))
	for _, part := range parts {
		kw := strings.ToLower(strings.TrimSpace(part))
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
	}
	return out
}

// ContainsAmount reports whether amount lies inside the pattern's inclusive
// range. A nil bound is open.
func (p Pattern) ContainsAmount(amount decimal.Decimal) bool {
	if p.AmountMin != nil && amount.LessThan(*p.AmountMin) {
		return false
	}
	if p.AmountMax != nil && amount.GreaterThan(*p.AmountMax) {
		return false
	}
	return true
}
