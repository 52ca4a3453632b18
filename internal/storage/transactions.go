package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/koperasi/internal/common"
	"github.com/Veraticus/koperasi/internal/model"
	"github.com/Veraticus/koperasi/internal/service"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

const transactionColumns = `id, transaction_date, amount, description, type, payment_method_id, category_id`

// queryable is satisfied by both *sql.DB and *sql.Tx.
type queryable interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func optionalID(id int64) sql.NullInt64 {
	if id == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: id, Valid: true}
}

func scanTransaction(row rowScanner) (model.Transaction, error) {
	var (
		txn                model.Transaction
		date, amount       string
		methodID, category sql.NullInt64
	)
	if err := row.Scan(&txn.ID, &date, &amount, &txn.Description, &txn.Type, &methodID, &category); err != nil {
		return model.Transaction{}, err
	}

	d, err := time.ParseInLocation(dateLayout, date, time.Local)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("transaction %s: invalid stored date %q: %w", txn.ID, date, err)
	}
	txn.Date = d

	if txn.Amount, err = decimal.NewFromString(amount); err != nil {
		return model.Transaction{}, fmt.Errorf("transaction %s: invalid stored amount %q: %w", txn.ID, amount, err)
	}
	txn.PaymentMethodID = methodID.Int64
	txn.CategoryID = category.Int64
	return txn, nil
}

// SaveTransaction inserts or replaces a recorded transaction. A draft with
// no id gets a new uuid.
func (s *SQLiteStorage) SaveTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}

	id := txn.ID
	if id == "" {
		id = uuid.NewString()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (`+transactionColumns+`, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			transaction_date = excluded.transaction_date,
			amount = excluded.amount,
			description = excluded.description,
			type = excluded.type,
			payment_method_id = excluded.payment_method_id,
			category_id = excluded.category_id`,
		id, txn.Date.Format(dateLayout), txn.Amount.String(), txn.Description, txn.Type,
		optionalID(txn.PaymentMethodID), optionalID(txn.CategoryID), s.now())
	if isConstraint(err, sqlite3.ErrConstraintForeignKey) {
		return fmt.Errorf("%w: unknown category or payment method", ErrInvalidTransaction)
	}
	if err != nil {
		return fmt.Errorf("failed to save transaction: %w", err)
	}

	txn.ID = id
	slog.Debug("saved transaction", "id", id, "category_id", txn.CategoryID, "amount", txn.Amount.String())
	return nil
}

// ImportTransactions inserts transactions in one database transaction,
// skipping ids that are already stored.
func (s *SQLiteStorage) ImportTransactions(ctx context.Context, txns []model.Transaction) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	for i := range txns {
		if err := validateTransaction(&txns[i]); err != nil {
			return 0, fmt.Errorf("transaction at index %d: %w", i, err)
		}
		if txns[i].ID == "" {
			return 0, fmt.Errorf("transaction at index %d: %w: missing id", i, ErrInvalidTransaction)
		}
	}

	inserted := 0
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR IGNORE INTO transactions (`+transactionColumns+`, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		now := s.now()
		for _, txn := range txns {
			result, err := stmt.ExecContext(ctx, txn.ID, txn.Date.Format(dateLayout), txn.Amount.String(),
				txn.Description, txn.Type, optionalID(txn.PaymentMethodID), optionalID(txn.CategoryID), now)
			if err != nil {
				return fmt.Errorf("failed to insert transaction %s: %w", txn.ID, err)
			}
			if n, err := result.RowsAffected(); err == nil {
				inserted += int(n)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.Info("imported transactions", "total", len(txns), "inserted", inserted)
	return inserted, nil
}

// GetTransaction returns the recorded transaction with id.
func (s *SQLiteStorage) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction: %w", err)
	}
	return &txn, nil
}

// GetTransactions lists recorded transactions by date, oldest first.
func (s *SQLiteStorage) GetTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if !filter.StartDate.IsZero() && !filter.EndDate.IsZero() && filter.EndDate.Before(filter.StartDate) {
		return nil, fmt.Errorf("%w: end date %v is before start date %v", ErrInvalidDateRange, filter.EndDate, filter.StartDate)
	}

	var (
		where []string
		args  []any
	)
	if !filter.StartDate.IsZero() {
		where = append(where, "transaction_date >= ?")
		args = append(args, filter.StartDate.Format(dateLayout))
	}
	if !filter.EndDate.IsZero() {
		where = append(where, "transaction_date <= ?")
		args = append(args, filter.EndDate.Format(dateLayout))
	}
	if filter.CategoryID != 0 {
		where = append(where, "category_id = ?")
		args = append(args, filter.CategoryID)
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY transaction_date, id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	return queryTransactions(ctx, s.db, query, args...)
}

func queryTransactions(ctx context.Context, q queryable, query string, args ...any) ([]model.Transaction, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var txns []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return txns, nil
}

// SumByCategoryDay totals the recorded transactions of a category on the
// calendar day of day, leaving out excludeID.
func (s *SQLiteStorage) SumByCategoryDay(ctx context.Context, categoryID int64, day time.Time, excludeID string) (decimal.Decimal, error) {
	return s.sumAmounts(ctx, `category_id = ? AND transaction_date = ? AND id != ?`,
		categoryID, day.Format(dateLayout), excludeID)
}

// SumByCategoryMonth totals the recorded transactions of a category in the
// calendar month of month, leaving out excludeID.
func (s *SQLiteStorage) SumByCategoryMonth(ctx context.Context, categoryID int64, month time.Time, excludeID string) (decimal.Decimal, error) {
	return s.sumAmounts(ctx, `category_id = ? AND substr(transaction_date, 1, 7) = ? AND id != ?`,
		categoryID, month.Format("2006-01"), excludeID)
}

// sumAmounts adds TEXT amounts in Go so no precision is lost to REAL.
func (s *SQLiteStorage) sumAmounts(ctx context.Context, where string, args ...any) (decimal.Decimal, error) {
	if err := validateContext(ctx); err != nil {
		return decimal.Zero, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT amount FROM transactions WHERE `+where, args...)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query amounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	total := decimal.Zero
	for rows.Next() {
		var amount string
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan amount: %w", err)
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid stored amount %q: %w", amount, err)
		}
		total = total.Add(d)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("error iterating amounts: %w", err)
	}
	return total, nil
}
