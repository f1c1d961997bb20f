package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"bucketwise/internal/categorize"
	"bucketwise/internal/model"
	"bucketwise/internal/store"
)

// TransactionService covers listing, bucket overrides and manual entry.
type TransactionService struct {
	store    store.Store
	resolver *categorize.Resolver
	log      zerolog.Logger
}

func NewTransactionService(s store.Store, r *categorize.Resolver, log zerolog.Logger) *TransactionService {
	return &TransactionService{store: s, resolver: r, log: log}
}

// TransactionList splits a month's transactions into those still needing
// review and those considered settled.
type TransactionList struct {
	MonthKey    string              `json:"monthKey"`
	Total       int                 `json:"total"`
	NeedsReview []model.Transaction `json:"needsReview"`
	Categorized []model.Transaction `json:"categorized"`
}

func (s *TransactionService) List(ctx context.Context, userID, monthKey string) (*TransactionList, error) {
	txns, err := s.store.ListTransactionsByMonth(ctx, userID, monthKey)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	out := &TransactionList{
		MonthKey:    monthKey,
		Total:       len(txns),
		NeedsReview: []model.Transaction{},
		Categorized: []model.Transaction{},
	}
	for _, txn := range txns {
		if txn.NeedsReview() {
			out.NeedsReview = append(out.NeedsReview, txn)
		} else {
			out.Categorized = append(out.Categorized, txn)
		}
	}
	return out, nil
}

// SetBucket overrides a transaction's bucket. With remember set, the merchant
// mapping is persisted so the same description resolves from memory forever.
func (s *TransactionService) SetBucket(ctx context.Context, userID, txnID, bucket string, remember bool) (*model.Transaction, error) {
	if !categorize.IsValidBucket(bucket) {
		return nil, validationf("unknown bucket %q", bucket)
	}

	txn, err := s.store.GetTransaction(ctx, userID, txnID)
	if err != nil {
		return nil, err
	}
	if txn.Locked {
		return nil, conflictf("cannot modify a locked transaction")
	}

	txn.Bucket = bucket
	txn.Confidence = 1.0
	txn.CategorizationSource = model.CategorizedByUser
	txn.CategorizationReasoning = fmt.Sprintf("Manually set to %q by user", bucket)

	if err := s.store.UpdateTransaction(ctx, userID, *txn); err != nil {
		return nil, fmt.Errorf("update transaction: %w", err)
	}

	if remember {
		if err := s.resolver.RememberMerchant(ctx, userID, txn.Description, bucket); err != nil {
			s.log.Warn().Err(err).Str("description", txn.Description).Msg("failed to remember merchant")
		}
	}
	return txn, nil
}

// ManualEntry is a single hand-recorded transaction. Amount follows the
// canonical sign convention: negative is spend, positive is income.
type ManualEntry struct {
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Bucket      string  `json:"bucket"`
}

// RecordManual creates one transaction outside the upload pipeline. When no
// bucket is given the resolver categorizes the description.
func (s *TransactionService) RecordManual(ctx context.Context, userID string, entry ManualEntry) (*model.Transaction, error) {
	if entry.Description == "" {
		return nil, validationf("description is required")
	}
	if entry.Amount == 0 {
		return nil, validationf("amount must be non-zero")
	}
	if entry.Bucket != "" && !categorize.IsValidBucket(entry.Bucket) {
		return nil, validationf("unknown bucket %q", entry.Bucket)
	}

	date := entry.Date
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}
	monthKey := monthKeyFromDate(date)
	if monthKey == "" {
		return nil, validationf("date must be in YYYY-MM-DD format")
	}

	// A locked month's summary is frozen; nothing may be added to it.
	if summary, err := s.store.GetMonthSummary(ctx, userID, monthKey); err == nil && summary.Locked {
		return nil, conflictf("%s is locked", monthKey)
	}

	txn := model.Transaction{
		ID:                  uuid.NewString(),
		UserID:              userID,
		MonthKey:            monthKey,
		Date:                date,
		Description:         entry.Description,
		OriginalDescription: entry.Description,
		Amount:              entry.Amount,
		Source:              model.SourceManual,
		CreatedAt:           time.Now().UTC(),
	}

	if entry.Bucket != "" {
		txn.Bucket = entry.Bucket
		txn.Confidence = 1.0
		txn.CategorizationSource = model.CategorizedByUser
		txn.CategorizationReasoning = fmt.Sprintf("Manually set to %q by user", entry.Bucket)
	} else {
		c := s.resolver.Categorize(ctx, userID, entry.Description)
		txn.Bucket = c.Bucket
		txn.Confidence = c.Confidence
		txn.CategorizationSource = c.Source
		txn.CategorizationReasoning = c.Reasoning
	}

	if err := s.store.PutTransactions(ctx, userID, []model.Transaction{txn}); err != nil {
		return nil, fmt.Errorf("persist transaction: %w", err)
	}
	return &txn, nil
}

// TransactionUpdate carries field edits for a single transaction. Nil means
// leave the field alone. Bucket changes go through SetBucket instead.
type TransactionUpdate struct {
	Date        *string  `json:"date"`
	Description *string  `json:"description"`
	Amount      *float64 `json:"amount"`
	Note        *string  `json:"note"`
}

// Update edits a transaction's own fields. A date change moves the
// transaction to the new date's month, which must not be locked.
func (s *TransactionService) Update(ctx context.Context, userID, txnID string, update TransactionUpdate) (*model.Transaction, error) {
	if update.Date == nil && update.Description == nil && update.Amount == nil && update.Note == nil {
		return nil, validationf("nothing to update")
	}

	txn, err := s.store.GetTransaction(ctx, userID, txnID)
	if err != nil {
		return nil, err
	}
	if txn.Locked {
		return nil, conflictf("cannot modify a locked transaction")
	}

	if update.Amount != nil {
		if *update.Amount == 0 {
			return nil, validationf("amount must be non-zero")
		}
		txn.Amount = *update.Amount
	}
	if update.Description != nil {
		if *update.Description == "" {
			return nil, validationf("description cannot be empty")
		}
		txn.Description = *update.Description
	}
	if update.Note != nil {
		txn.Note = *update.Note
	}
	if update.Date != nil {
		monthKey := monthKeyFromDate(*update.Date)
		if monthKey == "" {
			return nil, validationf("date must be in YYYY-MM-DD format")
		}
		if monthKey != txn.MonthKey {
			if summary, err := s.store.GetMonthSummary(ctx, userID, monthKey); err == nil && summary.Locked {
				return nil, conflictf("%s is locked", monthKey)
			}
		}
		txn.Date = *update.Date
		txn.MonthKey = monthKey
	}

	if err := s.store.UpdateTransaction(ctx, userID, *txn); err != nil {
		return nil, fmt.Errorf("update transaction: %w", err)
	}
	return txn, nil
}

// Delete removes a single transaction. Locked transactions stay put.
func (s *TransactionService) Delete(ctx context.Context, userID, txnID string) error {
	txn, err := s.store.GetTransaction(ctx, userID, txnID)
	if err != nil {
		return err
	}
	if txn.Locked {
		return conflictf("cannot delete a locked transaction")
	}
	if err := s.store.DeleteTransactions(ctx, userID, []string{txn.ID}); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}
