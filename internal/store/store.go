// Package store defines the persistence interface and its Firestore and
// in-memory implementations. All data is scoped per user.
package store

import (
	"context"
	"errors"

	"bucketwise/internal/model"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store defines every database operation the services use.
type Store interface {
	// Transaction operations. PutTransactions upserts a batch; list results
	// are ordered by date then ID.
	PutTransactions(ctx context.Context, userID string, txns []model.Transaction) error
	GetTransaction(ctx context.Context, userID, txnID string) (*model.Transaction, error)
	UpdateTransaction(ctx context.Context, userID string, txn model.Transaction) error
	ListTransactionsByMonth(ctx context.Context, userID, monthKey string) ([]model.Transaction, error)
	DeleteTransactions(ctx context.Context, userID string, txnIDs []string) error

	// Merchant memory operations. Get returns (nil, nil) on a miss so the
	// resolver can distinguish "unknown merchant" from a store failure.
	GetMerchantMemory(ctx context.Context, userID, merchantKey string) (*model.MerchantMemory, error)
	PutMerchantMemory(ctx context.Context, userID string, memory model.MerchantMemory) error

	// Bucket operations.
	ListBuckets(ctx context.Context, userID string) ([]model.Bucket, error)
	GetBucket(ctx context.Context, userID, bucketID string) (*model.Bucket, error)
	PutBucket(ctx context.Context, userID string, bucket model.Bucket) error

	// Month summary operations. CreateMonthSummary is a conditional create
	// used as the lock acquisition primitive: it fails with ErrAlreadyExists
	// if a summary document already exists for the month.
	GetMonthSummary(ctx context.Context, userID, monthKey string) (*model.MonthSummary, error)
	CreateMonthSummary(ctx context.Context, userID string, summary model.MonthSummary) error
	PutMonthSummary(ctx context.Context, userID string, summary model.MonthSummary) error
	DeleteMonthSummary(ctx context.Context, userID, monthKey string) error

	// Paystub operations.
	PutPaystub(ctx context.Context, userID string, paystub model.Paystub) error
	GetPaystub(ctx context.Context, userID, paystubID string) (*model.Paystub, error)
	ListPaystubsByMonth(ctx context.Context, userID, monthKey string) ([]model.Paystub, error)
	DeletePaystub(ctx context.Context, userID, paystubID string) error

	// Recurring bill operations.
	PutRecurringBill(ctx context.Context, userID string, bill model.RecurringBill) error
	GetRecurringBill(ctx context.Context, userID, billID string) (*model.RecurringBill, error)
	ListRecurringBills(ctx context.Context, userID string) ([]model.RecurringBill, error)
	DeleteRecurringBill(ctx context.Context, userID, billID string) error

	// PurgeUser hard-deletes everything the user owns across all
	// collections, locked months included.
	PurgeUser(ctx context.Context, userID string) (PurgeCounts, error)
}

// PurgeCounts reports how many records a purge removed per collection.
type PurgeCounts struct {
	Transactions   int `json:"transactions"`
	Merchants      int `json:"merchants"`
	Buckets        int `json:"buckets"`
	MonthSummaries int `json:"monthSummaries"`
	Paystubs       int `json:"paystubs"`
	RecurringBills int `json:"recurringBills"`
}
