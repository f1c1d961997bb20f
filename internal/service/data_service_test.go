package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bucketwise/internal/model"
	"bucketwise/internal/store"
)

func TestDeleteAll(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	seedBuckets(t, env, "u1")
	seedTransactions(t, env.store, "u1", februaryTransactions())
	require.NoError(t, env.store.PutMerchantMemory(ctx, "u1", model.MerchantMemory{
		MerchantKey: "grocery mart",
		Bucket:      "Groceries",
	}))
	require.NoError(t, env.store.PutMonthSummary(ctx, "u1", model.MonthSummary{MonthKey: "2026-01", Locked: true}))
	require.NoError(t, env.store.PutPaystub(ctx, "u1", model.Paystub{ID: "p1", MonthKey: "2026-02"}))
	require.NoError(t, env.store.PutRecurringBill(ctx, "u1", model.RecurringBill{ID: "b1", Name: "Rent"}))
	require.NoError(t, env.blobs.Put(ctx, "uploads/raw/u1/up1/feb.csv", []byte("csv"), "text/csv"))
	require.NoError(t, env.blobs.Put(ctx, "uploads/paystubs/u1/p1/stub.pdf", []byte("pdf"), "application/pdf"))

	res, err := env.data().DeleteAll(ctx, "u1", "DELETE")
	require.NoError(t, err)
	assert.Equal(t, 4, res.Deleted.Transactions)
	assert.Equal(t, 1, res.Deleted.Merchants)
	assert.Equal(t, 8, res.Deleted.Buckets)
	assert.Equal(t, 1, res.Deleted.MonthSummaries)
	assert.Equal(t, 1, res.Deleted.Paystubs)
	assert.Equal(t, 1, res.Deleted.RecurringBills)

	txns, err := env.store.ListTransactionsByMonth(ctx, "u1", "2026-02")
	require.NoError(t, err)
	assert.Empty(t, txns)
	buckets, err := env.store.ListBuckets(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, buckets)
	// A locked month does not survive a full wipe.
	_, err = env.store.GetMonthSummary(ctx, "u1", "2026-01")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = env.blobs.Get(ctx, "uploads/raw/u1/up1/feb.csv")
	assert.Error(t, err)
	_, err = env.blobs.Get(ctx, "uploads/paystubs/u1/p1/stub.pdf")
	assert.Error(t, err)
}

func TestDeleteAllRequiresConfirmation(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	seedTransactions(t, env.store, "u1", februaryTransactions())

	_, err := env.data().DeleteAll(ctx, "u1", "delete")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	// Nothing was touched.
	txns, err := env.store.ListTransactionsByMonth(ctx, "u1", "2026-02")
	require.NoError(t, err)
	assert.Len(t, txns, 4)
}

func TestDeleteAllEmptyAccount(t *testing.T) {
	env := newTestEnv(nil)

	res, err := env.data().DeleteAll(context.Background(), "u1", "DELETE")
	require.NoError(t, err)
	assert.Equal(t, store.PurgeCounts{}, res.Deleted)
}
