package pattern

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Veraticus/koperasi/internal/model"
)

// Ensure Classifier implements CategorySuggester interface.
var _ CategorySuggester = (*Classifier)(nil)

// Classifier suggests a category for a withdrawal from a pattern snapshot.
type Classifier struct {
	matcher Matcher
	scoring Scoring
}

// NewClassifier creates a classifier over the snapshot.
func NewClassifier(snapshot *Snapshot, scoring Scoring) *Classifier {
	return &Classifier{
		matcher: NewMatcher(snapshot),
		scoring: scoring.Normalize(),
	}
}

// NewClassifierWithMatcher creates a classifier using a custom matcher.
func NewClassifierWithMatcher(matcher Matcher, scoring Scoring) *Classifier {
	return &Classifier{
		matcher: matcher,
		scoring: scoring.Normalize(),
	}
}

type scoredMatch struct {
	match     Match
	breakdown Breakdown
}

// Classify returns the best-scoring suggestion for txn. Ties go to the pattern
// that comes first in snapshot order, i.e. the most recently edited one.
func (c *Classifier) Classify(txn model.Transaction) model.ClassificationResult {
	matches := c.matcher.Match(txn)
	if len(matches) == 0 {
		return model.ClassificationResult{
			Reasoning:      model.ReasonNoMatch,
			PatternMatches: []model.PatternMatch{},
		}
	}

	scored := make([]scoredMatch, len(matches))
	best := 0
	for i, m := range matches {
		scored[i] = scoredMatch{
			match:     m,
			breakdown: c.scoring.Score(m.Pattern, len(m.Keywords), txn.Amount),
		}
		if scored[i].breakdown.Score > scored[best].breakdown.Score {
			best = i
		}
	}

	winner := scored[best]
	categoryID := winner.match.Pattern.CategoryID
	patternID := winner.match.Pattern.ID

	return model.ClassificationResult{
		SuggestedCategoryID: &categoryID,
		PatternID:           &patternID,
		PatternMatched:      winner.match.Pattern.Name,
		ConfidenceScore:     winner.breakdown.Score,
		PatternMatches:      patternMatches(scored),
		Reasoning:           reasoning(txn, winner, len(scored)),
	}
}

// patternMatches lists every match, highest score first.
func patternMatches(scored []scoredMatch) []model.PatternMatch {
	out := make([]model.PatternMatch, len(scored))
	for i, s := range scored {
		out[i] = model.PatternMatch{
			PatternID:   s.match.Pattern.ID,
			PatternName: s.match.Pattern.Name,
			Keywords:    append([]string(nil), s.match.Keywords...),
			Score:       s.breakdown.Score,
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// reasoning explains the winning score in a form the entry form shows verbatim.
func reasoning(txn model.Transaction, winner scoredMatch, candidates int) string {
	p := winner.match.Pattern
	b := winner.breakdown

	var sb strings.Builder
	fmt.Fprintf(&sb, "Pattern %q matched keyword(s) %s (%d of %d alternatives)",
		p.Name, quoteAll(winner.match.Keywords), len(winner.match.Keywords), len(p.Alternatives()))

	sb.WriteString("; amount ")
	sb.WriteString(txn.Amount.String())
	sb.WriteString(" ")
	sb.WriteString(describeRange(p, b))

	if p.Frequency != "" {
		fmt.Fprintf(&sb, "; %s pattern", p.Frequency)
	}

	fmt.Fprintf(&sb, "; base confidence %.0f", b.Base)
	if b.Boost > 0 {
		fmt.Fprintf(&sb, " +%.1f keyword boost", b.Boost)
	}
	if b.Penalty > 0 {
		fmt.Fprintf(&sb, " -%.1f range-edge penalty", b.Penalty)
	}
	fmt.Fprintf(&sb, " = %.1f", b.Score)

	if candidates > 1 {
		fmt.Fprintf(&sb, "; chosen over %d other matching pattern(s)", candidates-1)
	}

	return sb.String()
}

func describeRange(p model.Pattern, b Breakdown) string {
	switch {
	case p.AmountMin != nil && p.AmountMax != nil:
		position := "near the middle"
		if b.Penalty > 0 {
			position = "near the edge"
		}
		return fmt.Sprintf("is within range %s to %s, %s", p.AmountMin, p.AmountMax, position)
	case p.AmountMin != nil:
		return fmt.Sprintf("is at least %s", p.AmountMin)
	case p.AmountMax != nil:
		return fmt.Sprintf("is at most %s", p.AmountMax)
	}
	return "is unrestricted by range"
}

func quoteAll(keywords []string) string {
	quoted := make([]string, len(keywords))
	for i, kw := range keywords {
		quoted[i] = fmt.Sprintf("%q", kw)
	}
	return strings.Join(quoted, ", ")
}
