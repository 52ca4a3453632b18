// Package pattern provides rule-based category suggestions for bank-transfer withdrawals.
package pattern

import (
	"github.com/Veraticus/koperasi/internal/model"
)

// Matcher evaluates transactions against a pattern snapshot.
type Matcher interface {
	// Match returns every active pattern whose range contains the amount and
	// whose keyword expression hits the description.
	Match(txn model.Transaction) []Match
}

// CategorySuggester turns matches into a single scored suggestion.
type CategorySuggester interface {
	Classify(txn model.Transaction) model.ClassificationResult
}

// Match is a pattern together with the keyword alternatives that hit.
type Match struct {
	Keywords []string
	Pattern  model.Pattern
}
