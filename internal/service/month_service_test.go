package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bucketwise/internal/model"
	"bucketwise/internal/store"
)

// failingStore wraps a real store and fails PutTransactions a set number of
// times, exercising cleanup paths behind transient store errors.
type failingStore struct {
	store.Store
	putFailures int
}

func (f *failingStore) PutTransactions(ctx context.Context, userID string, txns []model.Transaction) error {
	if f.putFailures > 0 {
		f.putFailures--
		return errors.New("transient store failure")
	}
	return f.Store.PutTransactions(ctx, userID, txns)
}

func seedBuckets(t *testing.T, env *testEnv, userID string) {
	t.Helper()
	_, err := env.buckets().Seed(context.Background(), userID)
	require.NoError(t, err)
}

func februaryTransactions() []model.Transaction {
	return []model.Transaction{
		{ID: "t1", MonthKey: "2026-02", Date: "2026-02-01", Description: "RENT", Amount: -1800,
			Bucket: "Home & Utilities", Confidence: 1, CategorizationSource: model.CategorizedByUser},
		{ID: "t2", MonthKey: "2026-02", Date: "2026-02-03", Description: "GROCERY MART", Amount: -120.50,
			Bucket: "Groceries", Confidence: 0.9, CategorizationSource: model.CategorizedByAI},
		{ID: "t3", MonthKey: "2026-02", Date: "2026-02-05", Description: "GROCERY MART", Amount: -79.50,
			Bucket: "Groceries", Confidence: 0.9, CategorizationSource: model.CategorizedByAI},
		{ID: "t4", MonthKey: "2026-02", Date: "2026-02-06", Description: "PAYROLL", Amount: 2450},
	}
}

func TestSummaryLiveAggregation(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	seedBuckets(t, env, "u1")
	seedTransactions(t, env.store, "u1", februaryTransactions())

	summary, err := env.months().Summary(ctx, "u1", "2026-02")
	require.NoError(t, err)

	assert.False(t, summary.Locked)
	assert.Equal(t, 4, summary.TransactionCount)
	assert.InDelta(t, 2000.00, summary.TotalSpent, 0.001)
	assert.InDelta(t, 2450.00, summary.TotalIncome, 0.001)
	assert.Equal(t, 1, summary.NeedsReview)
	require.Len(t, summary.Buckets, 8)

	byName := make(map[string]model.BucketSummary)
	for _, b := range summary.Buckets {
		byName[b.Name] = b
	}
	groceries := byName["Groceries"]
	assert.InDelta(t, 200.00, groceries.Spent, 0.001)
	assert.Equal(t, 2, groceries.Count)
	// No target set: always stable regardless of spend.
	assert.Equal(t, model.StatusStable, groceries.Status)
	assert.InDelta(t, 0, byName["Transport"].Spent, 0.001)
}

func TestSummaryEmptyMonth(t *testing.T) {
	env := newTestEnv(nil)

	summary, err := env.months().Summary(context.Background(), "u1", "2026-02")
	require.NoError(t, err)
	assert.Equal(t, 0, summary.TransactionCount)
	assert.NotNil(t, summary.Buckets)
}

func TestBucketStatus(t *testing.T) {
	tests := []struct {
		name   string
		spent  float64
		target float64
		want   model.BucketStatus
	}{
		{"no target", 500, 0, model.StatusStable},
		{"well under", 100, 500, model.StatusStable},
		{"exactly 80 percent", 400, 500, model.StatusStable},
		{"between 80 and target", 450, 500, model.StatusDripping},
		{"exactly at target", 500, 500, model.StatusDripping},
		{"over target", 501, 500, model.StatusOverflowing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, bucketStatus(tt.spent, tt.target))
		})
	}
}

func TestLockMonth(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	seedBuckets(t, env, "u1")
	txns := februaryTransactions()
	txns[3].Bucket = "One-Off & Big Hits"
	txns[3].Confidence = 1
	txns[3].CategorizationSource = model.CategorizedByUser
	seedTransactions(t, env.store, "u1", txns)
	svc := env.months()

	locked, err := svc.Lock(ctx, "u1", "2026-02")
	require.NoError(t, err)
	assert.True(t, locked.Locked)
	assert.Equal(t, "u1", locked.LockedBy)
	assert.False(t, locked.LockedAt.IsZero())
	assert.InDelta(t, 2000.00, locked.TotalSpent, 0.001)

	stored, err := env.store.ListTransactionsByMonth(ctx, "u1", "2026-02")
	require.NoError(t, err)
	for _, txn := range stored {
		assert.True(t, txn.Locked)
	}

	// Locking again is a conflict.
	_, err = svc.Lock(ctx, "u1", "2026-02")
	var cerr *ConflictError
	require.ErrorAs(t, err, &cerr)

	// The frozen summary wins over later inserts.
	seedTransactions(t, env.store, "u1", []model.Transaction{
		{ID: "late", MonthKey: "2026-02", Date: "2026-02-28", Description: "LATE", Amount: -999,
			Bucket: "Groceries", Confidence: 1},
	})
	summary, err := svc.Summary(ctx, "u1", "2026-02")
	require.NoError(t, err)
	assert.True(t, summary.Locked)
	assert.InDelta(t, 2000.00, summary.TotalSpent, 0.001)
	assert.Equal(t, 4, summary.TransactionCount)
}

func TestLockPreconditions(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	svc := env.months()

	_, err := svc.Lock(ctx, "u1", "2026-02")
	assert.ErrorIs(t, err, store.ErrNotFound)

	seedTransactions(t, env.store, "u1", []model.Transaction{
		{ID: "t1", MonthKey: "2026-02", Date: "2026-02-01", Description: "MYSTERY", Amount: -10},
	})
	_, err = svc.Lock(ctx, "u1", "2026-02")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "uncategorized")

	// A failed attempt must not leave a lock marker behind.
	_, err = env.store.GetMonthSummary(ctx, "u1", "2026-02")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestLockReleasesMarkerOnStoreFailure(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	seedBuckets(t, env, "u1")
	txns := februaryTransactions()
	txns[3].Bucket = "One-Off & Big Hits"
	txns[3].Confidence = 1
	txns[3].CategorizationSource = model.CategorizedByUser
	seedTransactions(t, env.store, "u1", txns)

	flaky := &failingStore{Store: env.store, putFailures: 1}
	svc := NewMonthService(flaky, env.blobs, zerolog.Nop())

	_, err := svc.Lock(ctx, "u1", "2026-02")
	require.Error(t, err)

	// The marker must not survive a failed attempt.
	_, err = env.store.GetMonthSummary(ctx, "u1", "2026-02")
	assert.ErrorIs(t, err, store.ErrNotFound)

	summary, err := svc.Summary(ctx, "u1", "2026-02")
	require.NoError(t, err)
	assert.False(t, summary.Locked)
	assert.InDelta(t, 2000.00, summary.TotalSpent, 0.001)

	// With the store healthy again the lock goes through.
	locked, err := svc.Lock(ctx, "u1", "2026-02")
	require.NoError(t, err)
	assert.True(t, locked.Locked)
}

func TestLockReplacesUnlockedCachedSummary(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	seedBuckets(t, env, "u1")
	seedTransactions(t, env.store, "u1", []model.Transaction{
		{ID: "t1", MonthKey: "2026-02", Date: "2026-02-01", Description: "RENT", Amount: -1800,
			Bucket: "Home & Utilities", Confidence: 1},
	})
	require.NoError(t, env.store.PutMonthSummary(ctx, "u1", model.MonthSummary{MonthKey: "2026-02"}))

	locked, err := env.months().Lock(ctx, "u1", "2026-02")
	require.NoError(t, err)
	assert.True(t, locked.Locked)
}

func TestDeleteExpenses(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	txns := februaryTransactions()
	for i := range txns {
		txns[i].UploadID = "up1"
	}
	seedTransactions(t, env.store, "u1", txns)
	require.NoError(t, env.blobs.Put(ctx, "uploads/raw/u1/up1/feb.csv", []byte("csv"), "text/csv"))
	svc := env.months()

	_, err := svc.DeleteExpenses(ctx, "u1", "2026-02", "delete")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	res, err := svc.DeleteExpenses(ctx, "u1", "2026-02", "DELETE")
	require.NoError(t, err)
	assert.Equal(t, 4, res.DeletedCount)

	remaining, err := env.store.ListTransactionsByMonth(ctx, "u1", "2026-02")
	require.NoError(t, err)
	assert.Empty(t, remaining)

	// Upload artifacts are removed with the month's transactions.
	_, err = env.blobs.Get(ctx, "uploads/raw/u1/up1/feb.csv")
	assert.Error(t, err)

	_, err = svc.DeleteExpenses(ctx, "u1", "2026-02", "DELETE")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteExpensesLockedMonth(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	seedTransactions(t, env.store, "u1", februaryTransactions())
	require.NoError(t, env.store.PutMonthSummary(ctx, "u1", model.MonthSummary{MonthKey: "2026-02", Locked: true}))

	_, err := env.months().DeleteExpenses(ctx, "u1", "2026-02", "DELETE")
	var cerr *ConflictError
	require.ErrorAs(t, err, &cerr)
}

func TestDeleteIncome(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	require.NoError(t, env.blobs.Put(ctx, "uploads/paystubs/u1/p1/stub.pdf", []byte("pdf"), "application/pdf"))
	require.NoError(t, env.store.PutPaystub(ctx, "u1", model.Paystub{
		ID: "p1", MonthKey: "2026-02", PayDate: "2026-02-15", GrossPay: 4100,
		RawFileKey: "uploads/paystubs/u1/p1/stub.pdf",
	}))
	svc := env.months()

	res, err := svc.DeleteIncome(ctx, "u1", "2026-02", "DELETE")
	require.NoError(t, err)
	assert.Equal(t, 1, res.DeletedCount)

	stubs, err := env.store.ListPaystubsByMonth(ctx, "u1", "2026-02")
	require.NoError(t, err)
	assert.Empty(t, stubs)

	_, err = svc.DeleteIncome(ctx, "u1", "2026-02", "DELETE")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
