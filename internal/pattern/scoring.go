package pattern

import (
	"math"

	"github.com/Veraticus/koperasi/internal/model"
	"github.com/shopspring/decimal"
)

// Default scoring parameters.
const (
	DefaultKeywordBoost  = 5.0
	DefaultEdgeThreshold = 0.8
	DefaultEdgePenalty   = 10.0
)

// Scoring holds the tunable parameters of the effective score.
//
// Each keyword alternative beyond the first adds KeywordBoost. When both range
// bounds are set, the amount's distance from the midpoint is measured as a
// fraction of the half-width; past EdgeThreshold the score loses up to
// EdgePenalty, reached at the bound itself.
type Scoring struct {
	KeywordBoost  float64
	EdgeThreshold float64
	EdgePenalty   float64
}

// DefaultScoring returns the built-in scoring parameters.
func DefaultScoring() Scoring {
	return Scoring{
		KeywordBoost:  DefaultKeywordBoost,
		EdgeThreshold: DefaultEdgeThreshold,
		EdgePenalty:   DefaultEdgePenalty,
	}
}

// Normalize replaces out-of-range parameters with defaults.
func (s Scoring) Normalize() Scoring {
	if s.KeywordBoost < 0 {
		s.KeywordBoost = DefaultKeywordBoost
	}
	if s.EdgeThreshold < 0 || s.EdgeThreshold >= 1 {
		s.EdgeThreshold = DefaultEdgeThreshold
	}
	if s.EdgePenalty < 0 {
		s.EdgePenalty = DefaultEdgePenalty
	}
	return s
}

// Breakdown is the itemised effective score of one match.
type Breakdown struct {
	Base         float64
	Boost        float64
	Penalty      float64
	EdgeDistance float64
	Score        float64
	BoundedRange bool
}

// Score computes the effective score for a pattern hit by the given number of
// keyword alternatives at amount.
func (s Scoring) Score(p model.Pattern, hits int, amount decimal.Decimal) Breakdown {
	b := Breakdown{Base: p.Confidence}

	if hits > 1 {
		b.Boost = s.KeywordBoost * float64(hits-1)
	}

	if p.AmountMin != nil && p.AmountMax != nil {
		b.BoundedRange = true
		b.EdgeDistance = edgeDistance(*p.AmountMin, *p.AmountMax, amount)
		if b.EdgeDistance > s.EdgeThreshold {
			b.Penalty = s.EdgePenalty * (b.EdgeDistance - s.EdgeThreshold) / (1 - s.EdgeThreshold)
		}
	}

	b.Score = clamp(b.Base+b.Boost-b.Penalty, 0, 100)
	return b
}

// edgeDistance returns |amount - mid| / half-width clamped to [0,1].
// A degenerate range has every in-range amount at its centre.
func edgeDistance(lo, hi, amount decimal.Decimal) float64 {
	width := hi.Sub(lo)
	if !width.IsPositive() {
		return 0
	}

	two := decimal.NewFromInt(2)
	mid := lo.Add(hi).Div(two)
	half := width.Div(two)

	d := amount.Sub(mid).Abs().Div(half).InexactFloat64()
	return clamp(d, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
