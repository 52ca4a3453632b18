package pattern

import (
	"strings"

	"github.com/Veraticus/koperasi/internal/model"
)

// Ensure MatcherImpl implements Matcher interface.
var _ Matcher = (*MatcherImpl)(nil)

// MatcherImpl implements Matcher over a snapshot.
type MatcherImpl struct {
	snapshot     *Snapshot
	alternatives map[int64][]string
}

// NewMatcher creates a new pattern matcher for the snapshot.
func NewMatcher(snapshot *Snapshot) *MatcherImpl {
	if snapshot == nil {
		snapshot = NewSnapshot(nil)
	}

	m := &MatcherImpl{
		snapshot:     snapshot,
		alternatives: make(map[int64][]string, snapshot.Len()),
	}

	// Split keyword expressions once per snapshot
	for _, p := range snapshot.patterns {
		m.alternatives[p.ID] = p.Alternatives()
	}

	return m
}

// Match returns matches in snapshot order.
func (m *MatcherImpl) Match(txn model.Transaction) []Match {
	if txn.Amount.IsNegative() {
		return nil
	}

	description := strings.ToLower(txn.Description)
	if strings.TrimSpace(description) == "" {
		return nil
	}

	var matches []Match
	for _, p := range m.snapshot.patterns {
		if !p.IsActive || !p.ContainsAmount(txn.Amount) {
			continue
		}

		hits := matchKeywords(description, m.alternatives[p.ID])
		if len(hits) == 0 {
			continue
		}

		matches = append(matches, Match{Pattern: clonePattern(p), Keywords: hits})
	}

	return matches
}

// matchKeywords returns the alternatives found in the lower-cased description.
func matchKeywords(description string, alternatives []string) []string {
	var hits []string
	for _, kw := range alternatives {
		if strings.Contains(description, kw) {
			hits = append(hits, kw)
		}
	}
	return hits
}
