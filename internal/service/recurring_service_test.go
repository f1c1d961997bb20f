package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bucketwise/internal/model"
)

func TestAddRecurringBill(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	svc := env.bills()

	bill, err := svc.Add(ctx, "u1", BillInput{Name: "  Netflix  ", Amount: 15.99, Bucket: "Subscriptions"})
	require.NoError(t, err)
	assert.Equal(t, "Netflix", bill.Name)
	assert.Equal(t, 15.99, bill.Amount)
	assert.NotEmpty(t, bill.ID)

	bills, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, bills, 1)
}

func TestAddRecurringBillValidation(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	svc := env.bills()

	tests := []struct {
		name  string
		input BillInput
	}{
		{"blank name", BillInput{Name: "   ", Amount: 10, Bucket: "Subscriptions"}},
		{"zero amount", BillInput{Name: "Rent", Bucket: "Home & Utilities"}},
		{"negative amount", BillInput{Name: "Rent", Amount: -10, Bucket: "Home & Utilities"}},
		{"unknown bucket", BillInput{Name: "Rent", Amount: 10, Bucket: "Nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Add(ctx, "u1", tt.input)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
		})
	}
}

func TestUpdateRecurringBill(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	svc := env.bills()

	bill, err := svc.Add(ctx, "u1", BillInput{Name: "Gym", Amount: 40, Bucket: "Health"})
	require.NoError(t, err)

	amount := 45.0
	updated, err := svc.Update(ctx, "u1", bill.ID, BillUpdate{Amount: &amount})
	require.NoError(t, err)
	assert.Equal(t, 45.0, updated.Amount)
	assert.Equal(t, "Gym", updated.Name)

	_, err = svc.Update(ctx, "u1", bill.ID, BillUpdate{})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	bad := "Not A Bucket"
	_, err = svc.Update(ctx, "u1", bill.ID, BillUpdate{Bucket: &bad})
	require.ErrorAs(t, err, &verr)
}

func TestApplyToMonth(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	svc := env.bills()

	_, err := svc.Add(ctx, "u1", BillInput{Name: "Rent", Amount: 1800, Bucket: "Home & Utilities"})
	require.NoError(t, err)
	_, err = svc.Add(ctx, "u1", BillInput{Name: "Netflix", Amount: 15.99, Bucket: "Subscriptions"})
	require.NoError(t, err)

	res, err := svc.ApplyToMonth(ctx, "u1", "2026-02")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Applied)
	assert.Equal(t, 0, res.Skipped)
	assert.Equal(t, 2, res.Total)

	txns, err := env.store.ListTransactionsByMonth(ctx, "u1", "2026-02")
	require.NoError(t, err)
	require.Len(t, txns, 2)
	for _, txn := range txns {
		assert.Equal(t, "2026-02-01", txn.Date)
		assert.Equal(t, model.SourceRecurring, txn.Source)
		assert.Negative(t, txn.Amount)
		assert.Equal(t, 1.0, txn.Confidence)
		assert.NotEmpty(t, txn.RecurringBillID)
	}

	// Applying again skips everything already placed.
	res, err = svc.ApplyToMonth(ctx, "u1", "2026-02")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Applied)
	assert.Equal(t, 2, res.Skipped)

	// A new bill is picked up on the next apply; existing ones stay skipped.
	_, err = svc.Add(ctx, "u1", BillInput{Name: "Internet", Amount: 60, Bucket: "Home & Utilities"})
	require.NoError(t, err)
	res, err = svc.ApplyToMonth(ctx, "u1", "2026-02")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Applied)
	assert.Equal(t, 2, res.Skipped)
}

func TestApplyToMonthErrors(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	svc := env.bills()

	_, err := svc.ApplyToMonth(ctx, "u1", "")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	// No bills defined is a soft no-op.
	res, err := svc.ApplyToMonth(ctx, "u1", "2026-02")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Applied)
	assert.Equal(t, "No recurring bills defined.", res.Message)

	_, err = svc.Add(ctx, "u1", BillInput{Name: "Rent", Amount: 1800, Bucket: "Home & Utilities"})
	require.NoError(t, err)
	require.NoError(t, env.store.PutMonthSummary(ctx, "u1", model.MonthSummary{MonthKey: "2026-01", Locked: true}))

	_, err = svc.ApplyToMonth(ctx, "u1", "2026-01")
	var cerr *ConflictError
	require.ErrorAs(t, err, &cerr)
}
