package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bucketwise/internal/categorize"
	"bucketwise/internal/model"
)

const testCSV = "Date,Description,Amount\n" +
	"2026-02-03,COFFEE SHOP,-4.50\n" +
	"2026-02-04,GROCERY MART,-82.10\n" +
	"garbage,JUNK ROW,notanumber\n"

func TestProcessCSVUpload(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()

	require.NoError(t, env.store.PutMerchantMemory(ctx, "u1", model.MerchantMemory{
		MerchantKey: "coffee shop",
		Bucket:      "Dining & Coffee",
	}))

	res, err := env.uploads().Process(ctx, "u1", UploadRequest{
		FileName:   "feb.csv",
		Source:     model.SourceBank,
		CSVContent: testCSV,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, res.TransactionsProcessed)
	assert.Equal(t, 1, res.SkippedRows)
	assert.Equal(t, "2026-02", res.MonthKey)
	assert.Equal(t, 1, res.NeedsReview)
	assert.InDelta(t, -86.60, res.TotalAmount, 0.001)
	assert.NotEmpty(t, res.UploadID)

	// The raw file and the normalized snapshot are both persisted.
	raw, err := env.blobs.Get(ctx, res.RawFileKey)
	require.NoError(t, err)
	assert.Equal(t, testCSV, string(raw))
	_, err = env.blobs.Get(ctx, fmt.Sprintf("uploads/normalized/u1/%s/transactions.json", res.UploadID))
	require.NoError(t, err)

	txns, err := env.store.ListTransactionsByMonth(ctx, "u1", "2026-02")
	require.NoError(t, err)
	require.Len(t, txns, 2)

	coffee := txns[0]
	assert.Equal(t, "COFFEE SHOP", coffee.Description)
	assert.Equal(t, "Dining & Coffee", coffee.Bucket)
	assert.Equal(t, model.CategorizedByMemory, coffee.CategorizationSource)
	assert.Equal(t, 1.0, coffee.Confidence)
	assert.False(t, coffee.NeedsReview())

	grocery := txns[1]
	assert.Empty(t, grocery.Bucket)
	assert.Equal(t, model.CategorizedByAIUnavailable, grocery.CategorizationSource)
	assert.True(t, grocery.NeedsReview())

	for _, txn := range txns {
		assert.Equal(t, "u1", txn.UserID)
		assert.Equal(t, res.UploadID, txn.UploadID)
		assert.Equal(t, "2026-02", txn.MonthKey)
		assert.Len(t, txn.ID, 16)
	}
}

func TestProcessRejectsBadInput(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	svc := env.uploads()

	tests := []struct {
		name string
		req  UploadRequest
	}{
		{
			name: "unknown source",
			req:  UploadRequest{FileName: "feb.csv", Source: "venmo", CSVContent: testCSV},
		},
		{
			name: "csv without content",
			req:  UploadRequest{FileName: "feb.csv", Source: model.SourceBank},
		},
		{
			name: "pdf without content",
			req:  UploadRequest{FileName: "feb.pdf", Source: model.SourceBank},
		},
		{
			name: "csv with no valid rows",
			req: UploadRequest{FileName: "feb.csv", Source: model.SourceBank,
				CSVContent: "Date,Description,Amount\ngarbage,JUNK,nope\n"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Process(ctx, "u1", tt.req)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
		})
	}
}

func TestProcessImageStatement(t *testing.T) {
	gen := &stubGenerator{response: `[
		{"date": "2026-03-01", "description": "RENT PAYMENT", "amount": -1800},
		{"date": "2026-03-02", "description": "PAYROLL DEPOSIT", "amount": 2450.00}
	]`}
	env := newTestEnv(gen)
	// Categorization stays offline so the canned extraction response is only
	// consumed by the extractor.
	resolver := categorize.New(env.store, nil, zerolog.Nop())
	svc := NewUploadService(env.store, env.blobs, resolver, env.extractor(), zerolog.Nop())

	res, err := svc.Process(context.Background(), "u1", UploadRequest{
		FileName:    "statement.png",
		Source:      model.SourceCreditCard,
		FileContent: []byte{0x89, 0x50, 0x4e, 0x47},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.TransactionsProcessed)
	assert.Equal(t, "2026-03", res.MonthKey)
	assert.InDelta(t, 650.00, res.TotalAmount, 0.001)
	assert.Equal(t, 1, gen.calls)
}

func TestTransactionIDDeterministic(t *testing.T) {
	txn := model.Transaction{Date: "2026-02-03", Description: "COFFEE SHOP", Amount: -4.5}

	a := transactionID(txn, "upload-1")
	b := transactionID(txn, "upload-1")
	c := transactionID(txn, "upload-2")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 16)
}
