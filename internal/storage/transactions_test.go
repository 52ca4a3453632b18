package storage

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/koperasi/internal/common"
	"github.com/Veraticus/koperasi/internal/model"
	"github.com/Veraticus/koperasi/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expense(id, description, amount string, date time.Time, categoryID int64) model.Transaction {
	return model.Transaction{
		ID:          id,
		Date:        date,
		Amount:      *dec(amount),
		Description: description,
		Type:        model.TransactionTypeExpense,
		CategoryID:  categoryID,
	}
}

func TestSaveTransaction_AssignsIDAndUpserts(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	cat := createTestCategory(t, store, "Listrik", model.CategoryTypeExpense)
	bank := createTestPaymentMethod(t, store, "Transfer BRI", model.PaymentMethodBankTransfer)

	txn := expense("", "Bayar PLN Juni", "750000.25", time.Date(2026, 6, 3, 0, 0, 0, 0, time.Local), cat.ID)
	txn.PaymentMethodID = bank.ID
	require.NoError(t, store.SaveTransaction(ctx, &txn))
	require.NotEmpty(t, txn.ID)

	got, err := store.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bayar PLN Juni", got.Description)
	assert.True(t, got.Amount.Equal(*dec("750000.25")))
	assert.Equal(t, bank.ID, got.PaymentMethodID)
	assert.Equal(t, cat.ID, got.CategoryID)
	assert.Equal(t, "2026-06-03", got.Date.Format(dateLayout))

	txn.Description = "Bayar PLN Juni (revisi)"
	require.NoError(t, store.SaveTransaction(ctx, &txn))

	all, err := store.GetTransactions(ctx, service.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Bayar PLN Juni (revisi)", all[0].Description)
}

func TestSaveTransaction_Invalid(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	noDate := expense("", "x", "1", time.Time{}, 0)
	assert.ErrorIs(t, store.SaveTransaction(ctx, &noDate), ErrInvalidTransaction)

	unknownCategory := expense("", "x", "1", time.Now(), 404)
	assert.ErrorIs(t, store.SaveTransaction(ctx, &unknownCategory), ErrInvalidTransaction)

	_, err := store.GetTransaction(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestImportTransactions_SkipsKnownIDs(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	day := time.Date(2026, 5, 1, 0, 0, 0, 0, time.Local)
	batch := []model.Transaction{
		expense("ofx-1", "ATM withdrawal", "100000", day, 0),
		expense("ofx-2", "Transfer gaji", "5000000", day.AddDate(0, 0, 1), 0),
	}

	n, err := store.ImportTransactions(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	batch = append(batch, expense("ofx-3", "Biaya admin", "6500", day.AddDate(0, 0, 2), 0))
	n, err = store.ImportTransactions(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = store.ImportTransactions(ctx, []model.Transaction{expense("", "x", "1", day, 0)})
	assert.ErrorIs(t, err, ErrInvalidTransaction)
}

func TestGetTransactions_Filter(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	cat := createTestCategory(t, store, "ATK", model.CategoryTypeExpense)
	day := time.Date(2026, 5, 10, 0, 0, 0, 0, time.Local)
	for i, d := range []int{0, 1, 2, 3} {
		txn := expense("", "Kertas", "10000", day.AddDate(0, 0, d), 0)
		if i%2 == 0 {
			txn.CategoryID = cat.ID
		}
		require.NoError(t, store.SaveTransaction(ctx, &txn))
	}

	inRange, err := store.GetTransactions(ctx, service.TransactionFilter{
		StartDate: day.AddDate(0, 0, 1),
		EndDate:   day.AddDate(0, 0, 2),
	})
	require.NoError(t, err)
	assert.Len(t, inRange, 2)

	byCategory, err := store.GetTransactions(ctx, service.TransactionFilter{CategoryID: cat.ID, Limit: 1})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "2026-05-10", byCategory[0].Date.Format(dateLayout))

	_, err = store.GetTransactions(ctx, service.TransactionFilter{StartDate: day, EndDate: day.AddDate(0, 0, -1)})
	assert.ErrorIs(t, err, ErrInvalidDateRange)
}

func TestSumByCategory(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	cat := createTestCategory(t, store, "Konsumsi", model.CategoryTypeExpense)
	other := createTestCategory(t, store, "Sewa", model.CategoryTypeExpense)

	june3 := time.Date(2026, 6, 3, 0, 0, 0, 0, time.Local)
	for _, txn := range []model.Transaction{
		expense("a", "Snack rapat", "150000.10", june3, cat.ID),
		expense("b", "Makan siang", "200000", june3, cat.ID),
		expense("c", "Air minum", "50000", june3.AddDate(0, 0, 5), cat.ID),
		expense("d", "Sewa gedung", "900000", june3, other.ID),
		expense("e", "Konsumsi Mei", "75000", june3.AddDate(0, 0, -10), cat.ID),
	} {
		txn := txn
		require.NoError(t, store.SaveTransaction(ctx, &txn))
	}

	// any time of day counts toward its calendar day
	afternoon := june3.Add(15 * time.Hour)

	daily, err := store.SumByCategoryDay(ctx, cat.ID, afternoon, "")
	require.NoError(t, err)
	assert.True(t, daily.Equal(*dec("350000.10")), daily.String())

	excluding, err := store.SumByCategoryDay(ctx, cat.ID, afternoon, "b")
	require.NoError(t, err)
	assert.True(t, excluding.Equal(*dec("150000.10")), excluding.String())

	monthly, err := store.SumByCategoryMonth(ctx, cat.ID, afternoon, "")
	require.NoError(t, err)
	assert.True(t, monthly.Equal(*dec("400000.10")), monthly.String())

	empty, err := store.SumByCategoryDay(ctx, cat.ID, june3.AddDate(0, 0, 1), "")
	require.NoError(t, err)
	assert.True(t, empty.IsZero())
}
