package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"bucketwise/internal/blob"
	"bucketwise/internal/model"
	"bucketwise/internal/store"
)

// deleteConfirmation must be sent verbatim with bulk deletes.
const deleteConfirmation = "DELETE"

// MonthService aggregates months and owns the locking lifecycle.
type MonthService struct {
	store store.Store
	blobs blob.Store
	log   zerolog.Logger
}

func NewMonthService(s store.Store, b blob.Store, log zerolog.Logger) *MonthService {
	return &MonthService{store: s, blobs: b, log: log}
}

// Summary returns the month's aggregate. A locked summary is returned exactly
// as persisted; otherwise the summary is recomputed from live transactions.
func (s *MonthService) Summary(ctx context.Context, userID, monthKey string) (*model.MonthSummary, error) {
	existing, err := s.store.GetMonthSummary(ctx, userID, monthKey)
	if err == nil && existing.Locked {
		return existing, nil
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("get month summary: %w", err)
	}
	return s.liveSummary(ctx, userID, monthKey)
}

func (s *MonthService) liveSummary(ctx context.Context, userID, monthKey string) (*model.MonthSummary, error) {
	txns, err := s.store.ListTransactionsByMonth(ctx, userID, monthKey)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	buckets, err := s.store.ListBuckets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list buckets: %w", err)
	}
	return buildSummary(monthKey, txns, buckets), nil
}

// buildSummary aggregates transactions into the monthly view. Spend is the
// absolute sum of negative amounts; income the sum of positive ones.
func buildSummary(monthKey string, txns []model.Transaction, buckets []model.Bucket) *model.MonthSummary {
	summary := &model.MonthSummary{
		MonthKey: monthKey,
		Buckets:  []model.BucketSummary{},
	}
	if len(txns) == 0 {
		return summary
	}

	type tally struct {
		spent float64
		count int
	}
	perBucket := make(map[string]*tally)

	for _, txn := range txns {
		if txn.Amount < 0 {
			summary.TotalSpent += -txn.Amount
		} else {
			summary.TotalIncome += txn.Amount
		}
		if txn.NeedsReview() {
			summary.NeedsReview++
		}
		if txn.Bucket != "" {
			t := perBucket[txn.Bucket]
			if t == nil {
				t = &tally{}
				perBucket[txn.Bucket] = t
			}
			if txn.Amount < 0 {
				t.spent += -txn.Amount
			}
			t.count++
		}
	}

	summary.TransactionCount = len(txns)
	summary.TotalSpent = round2(summary.TotalSpent)
	summary.TotalIncome = round2(summary.TotalIncome)

	for _, b := range buckets {
		t := perBucket[b.Name]
		if t == nil {
			t = &tally{}
		}
		summary.Buckets = append(summary.Buckets, model.BucketSummary{
			BucketID: b.ID,
			Name:     b.Name,
			Emoji:    b.Emoji,
			Spent:    round2(t.spent),
			Target:   b.MonthlyTarget,
			Count:    t.count,
			Status:   bucketStatus(t.spent, b.MonthlyTarget),
		})
	}
	return summary
}

// bucketStatus is the traffic light: stable at or below 80% of target,
// dripping between 80% and target, overflowing above target. No target means
// stable.
func bucketStatus(spent, target float64) model.BucketStatus {
	switch {
	case target <= 0:
		return model.StatusStable
	case spent <= target*0.8:
		return model.StatusStable
	case spent <= target:
		return model.StatusDripping
	default:
		return model.StatusOverflowing
	}
}

// Lock freezes a month. The summary document doubles as the lock: a
// conditional create acquires it, and preconditions are re-checked after
// acquisition since transactions may have changed in between.
func (s *MonthService) Lock(ctx context.Context, userID, monthKey string) (*model.MonthSummary, error) {
	txns, err := s.store.ListTransactionsByMonth(ctx, userID, monthKey)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	if err := checkLockable(monthKey, txns); err != nil {
		return nil, err
	}

	if existing, err := s.store.GetMonthSummary(ctx, userID, monthKey); err == nil && existing.Locked {
		return nil, conflictf("%s is already locked", monthKey)
	}

	// Acquire: the created marker makes concurrent lockers fail.
	marker := model.MonthSummary{MonthKey: monthKey, Locked: true, LockedBy: userID, LockedAt: time.Now().UTC()}
	if err := s.store.CreateMonthSummary(ctx, userID, marker); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			// An unlocked cached summary may exist; replace it only if the
			// existing document is not a lock.
			existing, getErr := s.store.GetMonthSummary(ctx, userID, monthKey)
			if getErr == nil && existing.Locked {
				return nil, conflictf("%s is already locked", monthKey)
			}
			if putErr := s.store.PutMonthSummary(ctx, userID, marker); putErr != nil {
				return nil, fmt.Errorf("acquire lock: %w", putErr)
			}
		} else {
			return nil, fmt.Errorf("acquire lock: %w", err)
		}
	}

	// Any failure after acquisition releases the marker; otherwise a
	// transient store error would leave the month frozen behind a summary
	// with no totals.
	final, err := s.completeLock(ctx, userID, monthKey)
	if err != nil {
		s.releaseLock(ctx, userID, monthKey)
		return nil, err
	}

	s.log.Info().Str("monthKey", monthKey).Int("transactions", final.TransactionCount).Msg("month locked")
	return final, nil
}

// completeLock runs the post-acquisition sequence: re-validate (transactions
// may have changed between the check and the create), mark every transaction
// locked, and persist the final summary over the marker.
func (s *MonthService) completeLock(ctx context.Context, userID, monthKey string) (*model.MonthSummary, error) {
	txns, err := s.store.ListTransactionsByMonth(ctx, userID, monthKey)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	if err := checkLockable(monthKey, txns); err != nil {
		return nil, err
	}

	for i := range txns {
		txns[i].Locked = true
	}
	if err := s.store.PutTransactions(ctx, userID, txns); err != nil {
		return nil, fmt.Errorf("lock transactions: %w", err)
	}

	buckets, err := s.store.ListBuckets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list buckets: %w", err)
	}
	final := buildSummary(monthKey, txns, buckets)
	final.Locked = true
	final.LockedBy = userID
	final.LockedAt = time.Now().UTC()

	if err := s.store.PutMonthSummary(ctx, userID, *final); err != nil {
		return nil, fmt.Errorf("persist locked summary: %w", err)
	}
	return final, nil
}

func (s *MonthService) releaseLock(ctx context.Context, userID, monthKey string) {
	if err := s.store.DeleteMonthSummary(ctx, userID, monthKey); err != nil {
		s.log.Error().Err(err).Str("monthKey", monthKey).Msg("failed to release lock marker")
	}
}

func checkLockable(monthKey string, txns []model.Transaction) error {
	if len(txns) == 0 {
		return fmt.Errorf("no transactions found for %s: %w", monthKey, store.ErrNotFound)
	}
	var uncategorized int
	for _, txn := range txns {
		if txn.Bucket == "" {
			uncategorized++
		}
	}
	if uncategorized > 0 {
		return validationf("cannot lock %s: %d transaction(s) still uncategorized, review them first", monthKey, uncategorized)
	}
	return nil
}

// DeleteResult reports a bulk deletion.
type DeleteResult struct {
	MonthKey     string `json:"monthKey"`
	DeletedCount int    `json:"deletedCount"`
}

// DeleteExpenses removes every transaction in the month. The caller must send
// the literal confirmation string; a locked month is a conflict.
func (s *MonthService) DeleteExpenses(ctx context.Context, userID, monthKey, confirmation string) (*DeleteResult, error) {
	if confirmation != deleteConfirmation {
		return nil, validationf("safety check: set confirmation to %q to proceed", deleteConfirmation)
	}

	existing, err := s.store.GetMonthSummary(ctx, userID, monthKey)
	hadSummary := err == nil
	if hadSummary && existing.Locked {
		return nil, conflictf("%s is locked, unlock it first to delete data", monthKey)
	}

	txns, err := s.store.ListTransactionsByMonth(ctx, userID, monthKey)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	if len(txns) == 0 {
		return nil, fmt.Errorf("no transactions found for %s: %w", monthKey, store.ErrNotFound)
	}

	ids := make([]string, len(txns))
	uploadIDs := make(map[string]struct{})
	for i, txn := range txns {
		ids[i] = txn.ID
		if txn.UploadID != "" {
			uploadIDs[txn.UploadID] = struct{}{}
		}
	}
	if err := s.store.DeleteTransactions(ctx, userID, ids); err != nil {
		return nil, fmt.Errorf("delete transactions: %w", err)
	}

	// Stored upload artifacts (raw files, normalized snapshots) go with the
	// transactions they produced.
	for uploadID := range uploadIDs {
		for _, prefix := range []string{
			fmt.Sprintf("uploads/raw/%s/%s/", userID, uploadID),
			fmt.Sprintf("uploads/normalized/%s/%s/", userID, uploadID),
		} {
			if err := s.blobs.DeletePrefix(ctx, prefix); err != nil {
				s.log.Warn().Err(err).Str("prefix", prefix).Msg("failed to delete upload artifacts")
			}
		}
	}

	if hadSummary {
		if err := s.store.DeleteMonthSummary(ctx, userID, monthKey); err != nil {
			s.log.Warn().Err(err).Str("monthKey", monthKey).Msg("failed to delete cached summary")
		}
	}

	s.log.Info().Str("monthKey", monthKey).Int("deleted", len(ids)).Msg("month expenses deleted")
	return &DeleteResult{MonthKey: monthKey, DeletedCount: len(ids)}, nil
}

// DeleteIncome removes every paystub in the month along with its raw file.
func (s *MonthService) DeleteIncome(ctx context.Context, userID, monthKey, confirmation string) (*DeleteResult, error) {
	if confirmation != deleteConfirmation {
		return nil, validationf("safety check: set confirmation to %q to proceed", deleteConfirmation)
	}

	stubs, err := s.store.ListPaystubsByMonth(ctx, userID, monthKey)
	if err != nil {
		return nil, fmt.Errorf("list paystubs: %w", err)
	}
	if len(stubs) == 0 {
		return nil, fmt.Errorf("no paystubs found for %s: %w", monthKey, store.ErrNotFound)
	}

	deleted := 0
	for _, stub := range stubs {
		if stub.RawFileKey != "" {
			if err := s.blobs.Delete(ctx, stub.RawFileKey); err != nil && !errors.Is(err, blob.ErrNotFound) {
				s.log.Warn().Err(err).Str("key", stub.RawFileKey).Msg("failed to delete paystub file")
			}
		}
		if err := s.store.DeletePaystub(ctx, userID, stub.ID); err != nil {
			return nil, fmt.Errorf("delete paystub %s: %w", stub.ID, err)
		}
		deleted++
	}

	s.log.Info().Str("monthKey", monthKey).Int("deleted", deleted).Msg("month income deleted")
	return &DeleteResult{MonthKey: monthKey, DeletedCount: deleted}, nil
}
