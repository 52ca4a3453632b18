package pattern

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/Veraticus/koperasi/internal/model"
)

// Pattern validation errors.
var (
	ErrInvalidRange      = errors.New("amount range minimum exceeds maximum")
	ErrNegativeBound     = errors.New("amount range bound is negative")
	ErrInvalidConfidence = errors.New("confidence must be between 0 and 100")
	ErrNoKeywords        = errors.New("keyword expression has no alternatives")
	ErrNoCategory        = errors.New("pattern has no target category")
	ErrInvalidFrequency  = errors.New("unknown frequency class")
)

// ValidatePattern reports the first structural problem with p.
func ValidatePattern(p model.Pattern) error {
	if p.AmountMin != nil && p.AmountMin.IsNegative() {
		return ErrNegativeBound
	}
	if p.AmountMax != nil && p.AmountMax.IsNegative() {
		return ErrNegativeBound
	}
	if p.AmountMin != nil && p.AmountMax != nil && p.AmountMin.GreaterThan(*p.AmountMax) {
		return fmt.Errorf("%w: %s > %s", ErrInvalidRange, p.AmountMin, p.AmountMax)
	}
	if p.Confidence < 0 || p.Confidence > 100 {
		return fmt.Errorf("%w: got %.2f", ErrInvalidConfidence, p.Confidence)
	}
	if len(p.Alternatives()) == 0 {
		return ErrNoKeywords
	}
	if p.CategoryID <= 0 {
		return ErrNoCategory
	}
	if !p.Frequency.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidFrequency, p.Frequency)
	}
	return nil
}

// Snapshot is an immutable, ordered view of the pattern store taken for a
// single request. Malformed patterns are dropped when it is built.
type Snapshot struct {
	patterns []model.Pattern
	skipped  int
}

// NewSnapshot copies patterns into a snapshot ordered most recently updated
// first, then by id.
func NewSnapshot(patterns []model.Pattern) *Snapshot {
	s := &Snapshot{patterns: make([]model.Pattern, 0, len(patterns))}

	for _, p := range patterns {
		if err := ValidatePattern(p); err != nil {
			slog.Warn("Skipping malformed pattern",
				"pattern_id", p.ID,
				"pattern", p.Name,
				"error", err)
			s.skipped++
			continue
		}
		s.patterns = append(s.patterns, clonePattern(p))
	}

	sort.SliceStable(s.patterns, func(i, j int) bool {
		return newerThan(s.patterns[i], s.patterns[j])
	})

	return s
}

// Patterns returns a copy of the well-formed patterns in snapshot order.
func (s *Snapshot) Patterns() []model.Pattern {
	out := make([]model.Pattern, len(s.patterns))
	for i, p := range s.patterns {
		out[i] = clonePattern(p)
	}
	return out
}

// Len returns the number of well-formed patterns.
func (s *Snapshot) Len() int {
	return len(s.patterns)
}

// Skipped returns how many patterns were dropped as malformed.
func (s *Snapshot) Skipped() int {
	return s.skipped
}

// newerThan orders by UpdatedAt descending, then ID ascending.
func newerThan(a, b model.Pattern) bool {
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		return a.UpdatedAt.After(b.UpdatedAt)
	}
	return a.ID < b.ID
}

func clonePattern(p model.Pattern) model.Pattern {
	if p.AmountMin != nil {
		v := *p.AmountMin
		p.AmountMin = &v
	}
	if p.AmountMax != nil {
		v := *p.AmountMax
		p.AmountMax = &v
	}
	return p
}
