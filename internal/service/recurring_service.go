package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"bucketwise/internal/categorize"
	"bucketwise/internal/model"
	"bucketwise/internal/store"
)

// RecurringBillService manages fixed monthly bills and applies them to months
// as transactions.
type RecurringBillService struct {
	store store.Store
	log   zerolog.Logger
}

func NewRecurringBillService(s store.Store, log zerolog.Logger) *RecurringBillService {
	return &RecurringBillService{store: s, log: log}
}

// BillInput is the user-supplied definition of a bill. Amount is the positive
// monthly cost.
type BillInput struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Bucket string  `json:"bucket"`
}

func (s *RecurringBillService) Add(ctx context.Context, userID string, input BillInput) (*model.RecurringBill, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, validationf("name is required")
	}
	if input.Amount <= 0 {
		return nil, validationf("amount must be positive")
	}
	if !categorize.IsValidBucket(input.Bucket) {
		return nil, validationf("unknown bucket %q", input.Bucket)
	}

	bill := model.RecurringBill{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		Amount:    input.Amount,
		Bucket:    input.Bucket,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.PutRecurringBill(ctx, userID, bill); err != nil {
		return nil, fmt.Errorf("persist recurring bill: %w", err)
	}
	return &bill, nil
}

func (s *RecurringBillService) List(ctx context.Context, userID string) ([]model.RecurringBill, error) {
	bills, err := s.store.ListRecurringBills(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list recurring bills: %w", err)
	}
	if bills == nil {
		bills = []model.RecurringBill{}
	}
	return bills, nil
}

// BillUpdate carries optional field updates; nil means unchanged.
type BillUpdate struct {
	Name   *string  `json:"name"`
	Amount *float64 `json:"amount"`
	Bucket *string  `json:"bucket"`
}

func (s *RecurringBillService) Update(ctx context.Context, userID, billID string, update BillUpdate) (*model.RecurringBill, error) {
	if update.Name == nil && update.Amount == nil && update.Bucket == nil {
		return nil, validationf("no fields to update")
	}

	bill, err := s.store.GetRecurringBill(ctx, userID, billID)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, validationf("name must not be empty")
		}
		bill.Name = name
	}
	if update.Amount != nil {
		if *update.Amount <= 0 {
			return nil, validationf("amount must be positive")
		}
		bill.Amount = *update.Amount
	}
	if update.Bucket != nil {
		if !categorize.IsValidBucket(*update.Bucket) {
			return nil, validationf("unknown bucket %q", *update.Bucket)
		}
		bill.Bucket = *update.Bucket
	}

	if err := s.store.PutRecurringBill(ctx, userID, *bill); err != nil {
		return nil, fmt.Errorf("update recurring bill: %w", err)
	}
	return bill, nil
}

func (s *RecurringBillService) Delete(ctx context.Context, userID, billID string) error {
	return s.store.DeleteRecurringBill(ctx, userID, billID)
}

// ApplyResult reports an ApplyToMonth run.
type ApplyResult struct {
	Applied int    `json:"applied"`
	Skipped int    `json:"skipped"`
	Total   int    `json:"total"`
	Message string `json:"message"`
}

// ApplyToMonth creates one transaction per bill not yet applied to the month.
// Transactions are dated the 1st and carry the bill's bucket. Bills already
// applied (matched by bill ID) are skipped so the operation is idempotent.
func (s *RecurringBillService) ApplyToMonth(ctx context.Context, userID, monthKey string) (*ApplyResult, error) {
	if len(monthKey) != 7 {
		return nil, validationf("monthKey is required (e.g., 2026-02)")
	}

	if summary, err := s.store.GetMonthSummary(ctx, userID, monthKey); err == nil && summary.Locked {
		return nil, conflictf("%s is locked", monthKey)
	} else if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("get month summary: %w", err)
	}

	bills, err := s.store.ListRecurringBills(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list recurring bills: %w", err)
	}
	if len(bills) == 0 {
		return &ApplyResult{Message: "No recurring bills defined."}, nil
	}

	existing, err := s.store.ListTransactionsByMonth(ctx, userID, monthKey)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	applied := make(map[string]struct{})
	for _, txn := range existing {
		if txn.Source == model.SourceRecurring && txn.RecurringBillID != "" {
			applied[txn.RecurringBillID] = struct{}{}
		}
	}

	date := monthKey + "-01"
	now := time.Now().UTC()
	var toCreate []model.Transaction
	skipped := 0

	for _, bill := range bills {
		if _, ok := applied[bill.ID]; ok {
			skipped++
			continue
		}
		toCreate = append(toCreate, model.Transaction{
			ID:                      uuid.NewString(),
			UserID:                  userID,
			MonthKey:                monthKey,
			Date:                    date,
			Description:             bill.Name,
			OriginalDescription:     bill.Name,
			Amount:                  -math.Abs(bill.Amount),
			Source:                  model.SourceRecurring,
			Bucket:                  bill.Bucket,
			Confidence:              1.0,
			CategorizationSource:    model.CategorizedByUser,
			CategorizationReasoning: fmt.Sprintf("Recurring bill %q", bill.Name),
			RecurringBillID:         bill.ID,
			CreatedAt:               now,
		})
	}

	if len(toCreate) > 0 {
		if err := s.store.PutTransactions(ctx, userID, toCreate); err != nil {
			return nil, fmt.Errorf("persist recurring transactions: %w", err)
		}
	}

	msg := fmt.Sprintf("Applied %d recurring bill(s) to %s.", len(toCreate), monthKey)
	if skipped > 0 {
		msg += fmt.Sprintf(" %d already applied.", skipped)
	}
	s.log.Info().Str("monthKey", monthKey).Int("applied", len(toCreate)).Int("skipped", skipped).Msg("recurring bills applied")

	return &ApplyResult{Applied: len(toCreate), Skipped: skipped, Total: len(bills), Message: msg}, nil
}
