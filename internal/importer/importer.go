// Package importer loads recorded transaction history from bank exports.
// Imported expenses can be pre-categorised by the pattern classifier.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/koperasi/internal/common"
	"github.com/Veraticus/koperasi/internal/config"
	"github.com/Veraticus/koperasi/internal/model"
)

var (
	// ErrInvalidRow marks a line of an export that cannot be converted.
	ErrInvalidRow = errors.New("invalid row")
	// ErrUnknownFormat is returned for files that are neither OFX nor CSV.
	ErrUnknownFormat = errors.New("unknown import format")
)

// Format is an import file format.
type Format string

// Supported formats.
const (
	FormatOFX Format = "ofx"
	FormatCSV Format = "csv"
)

// DetectFormat maps a file name to its format by extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ofx", ".qfx":
		return FormatOFX, nil
	case ".csv", ".txt":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// Parser turns an export into transactions.
type Parser interface {
	Parse(ctx context.Context, r io.Reader) ([]model.Transaction, error)
}

// Classifier suggests categories for imported expenses.
type Classifier interface {
	Classify(ctx context.Context, draft model.Transaction) (model.ClassificationResult, error)
}

// Store receives imported transactions.
type Store interface {
	ImportTransactions(ctx context.Context, txns []model.Transaction) (int, error)
}

// Options controls an import run.
type Options struct {
	// Progress is called after each transaction is prepared.
	Progress func(done, total int)
	// PaymentMethodID is assigned to every imported transaction.
	PaymentMethodID int64
	// MinConfidence is the lowest suggestion confidence accepted as the
	// imported category. Zero accepts any suggestion.
	MinConfidence float64
	// DryRun parses and classifies without writing.
	DryRun bool
}

// Result counts what an import did.
type Result struct {
	Transactions []model.Transaction
	Parsed       int
	Categorized  int
	Inserted     int
}

// Importer parses exports and writes them to a store.
type Importer struct {
	store      Store
	classifier Classifier
}

// New creates an importer. classifier may be nil to import uncategorised.
func New(store Store, classifier Classifier) *Importer {
	return &Importer{store: store, classifier: classifier}
}

// ImportFile opens path, picks a parser by extension and imports it.
func (im *Importer) ImportFile(ctx context.Context, path string, parser Parser, opts Options) (*Result, error) {
	f, err := os.Open(config.ExpandPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open import file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			slog.Warn("Failed to close import file", "path", path, "error", cerr)
		}
	}()

	txns, err := parser.Parse(ctx, f)
	if err != nil {
		return nil, err
	}
	return im.Import(ctx, txns, opts)
}

// Import tags, classifies and stores txns. Transactions already present are
// skipped by the store.
func (im *Importer) Import(ctx context.Context, txns []model.Transaction, opts Options) (*Result, error) {
	result := &Result{Parsed: len(txns)}

	for i := range txns {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		txn := &txns[i]
		if txn.PaymentMethodID == 0 {
			txn.PaymentMethodID = opts.PaymentMethodID
		}
		if txn.CategoryID == 0 && im.assignCategory(ctx, txn, opts.MinConfidence) {
			result.Categorized++
		}
		if opts.Progress != nil {
			opts.Progress(i+1, len(txns))
		}
	}
	result.Transactions = txns

	if opts.DryRun || len(txns) == 0 {
		return result, nil
	}

	inserted, err := im.store.ImportTransactions(ctx, txns)
	if err != nil {
		return result, common.StorageError("import transactions", err)
	}
	result.Inserted = inserted

	slog.Info("Import completed",
		"parsed", result.Parsed,
		"categorized", result.Categorized,
		"inserted", result.Inserted)
	return result, nil
}

func (im *Importer) assignCategory(ctx context.Context, txn *model.Transaction, minConfidence float64) bool {
	if im.classifier == nil || txn.Type != model.TransactionTypeExpense {
		return false
	}

	suggestion, err := im.classifier.Classify(ctx, *txn)
	if errors.Is(err, common.ErrNotClassifiable) {
		return false
	}
	if err != nil {
		slog.Warn("Failed to classify imported transaction", "id", txn.ID, "error", err)
		return false
	}
	if !suggestion.HasSuggestion() || suggestion.ConfidenceScore < minConfidence {
		return false
	}

	txn.CategoryID = *suggestion.SuggestedCategoryID
	return true
}
