package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Veraticus/koperasi/internal/cli"
	"github.com/Veraticus/koperasi/internal/common"
	"github.com/Veraticus/koperasi/internal/config"
	"github.com/Veraticus/koperasi/internal/engine"
	"github.com/Veraticus/koperasi/internal/importer"
	"github.com/Veraticus/koperasi/internal/ledger"
	"github.com/Veraticus/koperasi/internal/model"
	"github.com/Veraticus/koperasi/internal/storage"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const dateLayout = "2006-01-02"

// initStorage opens and migrates the configured database.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath := config.ResolvePath(viper.GetString(config.KeyDatabasePath), config.DefaultDatabasePath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := store.Migrate(ctx); err != nil {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("Failed to close storage", "error", closeErr)
		}
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// closeStore logs the error from closing store. For use in defers.
func closeStore(store io.Closer) {
	if err := store.Close(); err != nil {
		slog.Error("Failed to close storage", "error", err)
	}
}

// openLedger returns the configured ledger store. The returned closer is a
// no-op for the SQLite backend, which shares db.
func openLedger(db *storage.SQLiteStorage) (ledger.Store, func(), error) {
	backend, err := config.LedgerBackend(viper.GetViper())
	if err != nil {
		return nil, nil, err
	}

	if backend == config.LedgerBackendSQLite {
		return db, func() {}, nil
	}

	path := config.ResolvePath(viper.GetString(config.KeyLedgerBoltPath), config.DefaultBoltPath)
	bolt, err := ledger.OpenBoltStore(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	slog.Debug("using bolt ledger", "path", path)
	return bolt, func() { closeStore(bolt) }, nil
}

// app bundles the storage, ledger and engine a command works with.
type app struct {
	store       *storage.SQLiteStorage
	engine      *engine.Engine
	closeLedger func()
}

func (a *app) Close() error {
	a.closeLedger()
	return a.store.Close()
}

// newApp opens storage and the ledger and builds the engine from config.
func newApp(ctx context.Context) (*app, error) {
	store, err := initStorage(ctx)
	if err != nil {
		return nil, err
	}

	ledgerStore, closeLedger, err := openLedger(store)
	if err != nil {
		closeStore(store)
		return nil, err
	}

	validationOpts, err := config.ValidationOptions(viper.GetViper())
	if err != nil {
		closeLedger()
		closeStore(store)
		return nil, err
	}

	scoring := config.Scoring(viper.GetViper())
	eng := engine.New(store, ledgerStore, engine.Options{
		Scoring:    &scoring,
		Validation: validationOpts,
	})
	return &app{store: store, engine: eng, closeLedger: closeLedger}, nil
}

// addDraftFlags registers the flags describing a draft transaction.
func addDraftFlags(cmd *cobra.Command) {
	cmd.Flags().String("date", "", "transaction date YYYY-MM-DD (default: today)")
	cmd.Flags().String("amount", "", "transaction amount, e.g. 1500000 or 1.500.000,00")
	cmd.Flags().StringP("description", "d", "", "transaction description")
	cmd.Flags().String("type", string(model.TransactionTypeExpense), "transaction type (expense, income)")
	cmd.Flags().StringP("payment-method", "p", "", "payment method name or id")
	cmd.Flags().StringP("category", "c", "", "category name or id")
}

// draftFromFlags builds a draft transaction from the flags added by
// addDraftFlags.
func draftFromFlags(ctx context.Context, cmd *cobra.Command, store *storage.SQLiteStorage) (model.Transaction, error) {
	var draft model.Transaction

	dateStr, _ := cmd.Flags().GetString("date")
	date, err := parseDate(dateStr, time.Now())
	if err != nil {
		return draft, err
	}
	draft.Date = date

	amountStr, _ := cmd.Flags().GetString("amount")
	if strings.TrimSpace(amountStr) != "" {
		amount, err := parseAmount(amountStr)
		if err != nil {
			return draft, err
		}
		draft.Amount = amount
	}

	draft.Description, _ = cmd.Flags().GetString("description")

	txnType, _ := cmd.Flags().GetString("type")
	draft.Type, err = parseTransactionType(txnType)
	if err != nil {
		return draft, err
	}

	if method, _ := cmd.Flags().GetString("payment-method"); method != "" {
		methods, err := store.GetPaymentMethods(ctx)
		if err != nil {
			return draft, fmt.Errorf("failed to list payment methods: %w", err)
		}
		if draft.PaymentMethodID, err = resolvePaymentMethod(methods, method); err != nil {
			return draft, err
		}
	}

	if category, _ := cmd.Flags().GetString("category"); category != "" {
		categories, err := store.GetCategories(ctx)
		if err != nil {
			return draft, fmt.Errorf("failed to list categories: %w", err)
		}
		if draft.CategoryID, err = resolveCategory(categories, category); err != nil {
			return draft, err
		}
	}

	return draft, nil
}

// parseDate parses a YYYY-MM-DD date in local time. Blank means the day of now.
func parseDate(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.Local), nil
	}
	date, err := time.ParseInLocation(dateLayout, raw, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q (want YYYY-MM-DD)", common.ErrInvalidInput, raw)
	}
	return date, nil
}

// parseAmount accepts plain and Indonesian-formatted amounts, so "1.500"
// is fifteen hundred rather than one and a half.
func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := importer.ParseAmount(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid amount %q", common.ErrInvalidInput, raw)
	}
	return amount, nil
}

func parseTransactionType(raw string) (model.TransactionType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(model.TransactionTypeExpense), "keluar":
		return model.TransactionTypeExpense, nil
	case string(model.TransactionTypeIncome), "masuk":
		return model.TransactionTypeIncome, nil
	}
	return "", fmt.Errorf("%w: unknown transaction type %q", common.ErrInvalidInput, raw)
}

func resolvePaymentMethod(methods []model.PaymentMethod, ref string) (int64, error) {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		for _, pm := range methods {
			if pm.ID == id {
				return id, nil
			}
		}
	}
	for _, pm := range methods {
		if strings.EqualFold(pm.Name, ref) {
			return pm.ID, nil
		}
	}
	return 0, fmt.Errorf("payment method %q: %w", ref, common.ErrNotFound)
}

func resolveCategory(categories []model.Category, ref string) (int64, error) {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		for _, cat := range categories {
			if cat.ID == id {
				return id, nil
			}
		}
	}
	for _, cat := range categories {
		if strings.EqualFold(cat.Name, ref) {
			return cat.ID, nil
		}
	}
	return 0, fmt.Errorf("category %q: %w", ref, common.ErrNotFound)
}

// categoryNamer maps category ids to names, falling back to "#id".
func categoryNamer(categories []model.Category) func(int64) string {
	names := make(map[int64]string, len(categories))
	for _, cat := range categories {
		names[cat.ID] = cat.Name
	}
	return func(id int64) string {
		if name, ok := names[id]; ok {
			return name
		}
		if id == 0 {
			return "(none)"
		}
		return "#" + strconv.FormatInt(id, 10)
	}
}

// newTable returns a tabwriter with a styled header row already written.
func newTable(w io.Writer, headers ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))

	styled := make([]string, len(headers))
	rules := make([]string, len(headers))
	for i, h := range headers {
		styled[i] = headerStyle.Render(h)
		rules[i] = strings.Repeat("─", len(h))
	}
	fmt.Fprintln(tw, strings.Join(styled, "\t"))
	fmt.Fprintln(tw, strings.Join(rules, "\t"))
	return tw
}

func optionalAmount(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return cli.FormatAmount(*d)
}

func amountRange(lo, hi *decimal.Decimal) string {
	switch {
	case lo == nil && hi == nil:
		return "any"
	case lo == nil:
		return "≤ " + cli.FormatAmount(*hi)
	case hi == nil:
		return "≥ " + cli.FormatAmount(*lo)
	}
	return cli.FormatAmount(*lo) + " – " + cli.FormatAmount(*hi)
}
