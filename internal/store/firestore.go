package store

import (
	"context"
	"encoding/base64"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"bucketwise/internal/model"
)

// Firestore collection names under users/{userID}/.
const (
	colTransactions = "transactions"
	colMerchants    = "merchants"
	colBuckets      = "buckets"
	colMonths       = "months"
	colPaystubs     = "paystubs"
	colBills        = "recurringBills"
)

// FirestoreStore implements Store on Firestore. Documents live under
// users/{userID}/<collection>/<id> so all queries are naturally user-scoped.
type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func (s *FirestoreStore) col(userID, name string) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(userID).Collection(name)
}

// merchantDocID encodes a normalized merchant key into a Firestore-safe
// document ID. Raw descriptions can contain "/" which is illegal in IDs.
func merchantDocID(key string) string {
	return base64.URLEncoding.EncodeToString([]byte(key))
}

func mapErr(err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return ErrNotFound
	case codes.AlreadyExists:
		return ErrAlreadyExists
	}
	return err
}

// flushJobs ends a bulk writer and surfaces the first failed write. The
// BulkWriter reports per-write errors only through each job's Results.
func flushJobs(bw *firestore.BulkWriter, jobs []*firestore.BulkWriterJob) error {
	bw.End()
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return mapErr(err)
		}
	}
	return nil
}

func (s *FirestoreStore) PutTransactions(ctx context.Context, userID string, txns []model.Transaction) error {
	bw := s.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(txns))
	for _, txn := range txns {
		job, err := bw.Set(s.col(userID, colTransactions).Doc(txn.ID), txn)
		if err != nil {
			return fmt.Errorf("queue transaction write: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := flushJobs(bw, jobs); err != nil {
		return fmt.Errorf("write transactions: %w", err)
	}
	return nil
}

func (s *FirestoreStore) GetTransaction(ctx context.Context, userID, txnID string) (*model.Transaction, error) {
	doc, err := s.col(userID, colTransactions).Doc(txnID).Get(ctx)
	if err != nil {
		return nil, mapErr(err)
	}
	var txn model.Transaction
	if err := doc.DataTo(&txn); err != nil {
		return nil, fmt.Errorf("parse transaction: %w", err)
	}
	return &txn, nil
}

func (s *FirestoreStore) UpdateTransaction(ctx context.Context, userID string, txn model.Transaction) error {
	ref := s.col(userID, colTransactions).Doc(txn.ID)
	if _, err := ref.Get(ctx); err != nil {
		return mapErr(err)
	}
	_, err := ref.Set(ctx, txn)
	return err
}

func (s *FirestoreStore) ListTransactionsByMonth(ctx context.Context, userID, monthKey string) ([]model.Transaction, error) {
	query := s.col(userID, colTransactions).
		Where("monthKey", "==", monthKey).
		OrderBy("date", firestore.Asc).
		OrderBy(firestore.DocumentID, firestore.Asc)

	var out []model.Transaction
	it := query.Documents(ctx)
	defer it.Stop()
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list transactions: %w", err)
		}
		var txn model.Transaction
		if err := doc.DataTo(&txn); err != nil {
			return nil, fmt.Errorf("parse transaction: %w", err)
		}
		out = append(out, txn)
	}
	return out, nil
}

func (s *FirestoreStore) DeleteTransactions(ctx context.Context, userID string, txnIDs []string) error {
	bw := s.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(txnIDs))
	for _, id := range txnIDs {
		job, err := bw.Delete(s.col(userID, colTransactions).Doc(id))
		if err != nil {
			return fmt.Errorf("queue transaction delete: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := flushJobs(bw, jobs); err != nil {
		return fmt.Errorf("delete transactions: %w", err)
	}
	return nil
}

func (s *FirestoreStore) GetMerchantMemory(ctx context.Context, userID, merchantKey string) (*model.MerchantMemory, error) {
	doc, err := s.col(userID, colMerchants).Doc(merchantDocID(merchantKey)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, err
	}
	var memory model.MerchantMemory
	if err := doc.DataTo(&memory); err != nil {
		return nil, fmt.Errorf("parse merchant memory: %w", err)
	}
	return &memory, nil
}

func (s *FirestoreStore) PutMerchantMemory(ctx context.Context, userID string, memory model.MerchantMemory) error {
	_, err := s.col(userID, colMerchants).Doc(merchantDocID(memory.MerchantKey)).Set(ctx, memory)
	return err
}

func (s *FirestoreStore) ListBuckets(ctx context.Context, userID string) ([]model.Bucket, error) {
	query := s.col(userID, colBuckets).OrderBy("displayOrder", firestore.Asc)

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("list buckets: %w", err)
	}
	out := make([]model.Bucket, 0, len(docs))
	for _, doc := range docs {
		var b model.Bucket
		if err := doc.DataTo(&b); err != nil {
			return nil, fmt.Errorf("parse bucket: %w", err)
		}
		out = append(out, b)
	}
	return out, nil
}

func (s *FirestoreStore) GetBucket(ctx context.Context, userID, bucketID string) (*model.Bucket, error) {
	doc, err := s.col(userID, colBuckets).Doc(bucketID).Get(ctx)
	if err != nil {
		return nil, mapErr(err)
	}
	var b model.Bucket
	if err := doc.DataTo(&b); err != nil {
		return nil, fmt.Errorf("parse bucket: %w", err)
	}
	return &b, nil
}

func (s *FirestoreStore) PutBucket(ctx context.Context, userID string, bucket model.Bucket) error {
	_, err := s.col(userID, colBuckets).Doc(bucket.ID).Set(ctx, bucket)
	return err
}

func (s *FirestoreStore) GetMonthSummary(ctx context.Context, userID, monthKey string) (*model.MonthSummary, error) {
	doc, err := s.col(userID, colMonths).Doc(monthKey).Get(ctx)
	if err != nil {
		return nil, mapErr(err)
	}
	var summary model.MonthSummary
	if err := doc.DataTo(&summary); err != nil {
		return nil, fmt.Errorf("parse month summary: %w", err)
	}
	return &summary, nil
}

// CreateMonthSummary is the lock acquisition primitive: Firestore's
// conditional create fails atomically if the document already exists.
func (s *FirestoreStore) CreateMonthSummary(ctx context.Context, userID string, summary model.MonthSummary) error {
	_, err := s.col(userID, colMonths).Doc(summary.MonthKey).Create(ctx, summary)
	return mapErr(err)
}

func (s *FirestoreStore) PutMonthSummary(ctx context.Context, userID string, summary model.MonthSummary) error {
	_, err := s.col(userID, colMonths).Doc(summary.MonthKey).Set(ctx, summary)
	return err
}

func (s *FirestoreStore) DeleteMonthSummary(ctx context.Context, userID, monthKey string) error {
	_, err := s.col(userID, colMonths).Doc(monthKey).Delete(ctx)
	return err
}

func (s *FirestoreStore) PutPaystub(ctx context.Context, userID string, paystub model.Paystub) error {
	_, err := s.col(userID, colPaystubs).Doc(paystub.ID).Set(ctx, paystub)
	return err
}

func (s *FirestoreStore) GetPaystub(ctx context.Context, userID, paystubID string) (*model.Paystub, error) {
	doc, err := s.col(userID, colPaystubs).Doc(paystubID).Get(ctx)
	if err != nil {
		return nil, mapErr(err)
	}
	var stub model.Paystub
	if err := doc.DataTo(&stub); err != nil {
		return nil, fmt.Errorf("parse paystub: %w", err)
	}
	return &stub, nil
}

func (s *FirestoreStore) ListPaystubsByMonth(ctx context.Context, userID, monthKey string) ([]model.Paystub, error) {
	query := s.col(userID, colPaystubs).
		Where("monthKey", "==", monthKey).
		OrderBy("payDate", firestore.Asc).
		OrderBy(firestore.DocumentID, firestore.Asc)

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("list paystubs: %w", err)
	}
	out := make([]model.Paystub, 0, len(docs))
	for _, doc := range docs {
		var stub model.Paystub
		if err := doc.DataTo(&stub); err != nil {
			return nil, fmt.Errorf("parse paystub: %w", err)
		}
		out = append(out, stub)
	}
	return out, nil
}

func (s *FirestoreStore) DeletePaystub(ctx context.Context, userID, paystubID string) error {
	ref := s.col(userID, colPaystubs).Doc(paystubID)
	if _, err := ref.Get(ctx); err != nil {
		return mapErr(err)
	}
	_, err := ref.Delete(ctx)
	return err
}

func (s *FirestoreStore) PutRecurringBill(ctx context.Context, userID string, bill model.RecurringBill) error {
	_, err := s.col(userID, colBills).Doc(bill.ID).Set(ctx, bill)
	return err
}

func (s *FirestoreStore) GetRecurringBill(ctx context.Context, userID, billID string) (*model.RecurringBill, error) {
	doc, err := s.col(userID, colBills).Doc(billID).Get(ctx)
	if err != nil {
		return nil, mapErr(err)
	}
	var bill model.RecurringBill
	if err := doc.DataTo(&bill); err != nil {
		return nil, fmt.Errorf("parse recurring bill: %w", err)
	}
	return &bill, nil
}

func (s *FirestoreStore) ListRecurringBills(ctx context.Context, userID string) ([]model.RecurringBill, error) {
	query := s.col(userID, colBills).OrderBy("name", firestore.Asc)

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("list recurring bills: %w", err)
	}
	out := make([]model.RecurringBill, 0, len(docs))
	for _, doc := range docs {
		var bill model.RecurringBill
		if err := doc.DataTo(&bill); err != nil {
			return nil, fmt.Errorf("parse recurring bill: %w", err)
		}
		out = append(out, bill)
	}
	return out, nil
}

func (s *FirestoreStore) DeleteRecurringBill(ctx context.Context, userID, billID string) error {
	ref := s.col(userID, colBills).Doc(billID)
	if _, err := ref.Get(ctx); err != nil {
		return mapErr(err)
	}
	_, err := ref.Delete(ctx)
	return err
}

// PurgeUser hard-deletes every document the user owns, collection by
// collection, and reports how many each held.
func (s *FirestoreStore) PurgeUser(ctx context.Context, userID string) (PurgeCounts, error) {
	var counts PurgeCounts
	for _, c := range []struct {
		name  string
		count *int
	}{
		{colTransactions, &counts.Transactions},
		{colMerchants, &counts.Merchants},
		{colBuckets, &counts.Buckets},
		{colMonths, &counts.MonthSummaries},
		{colPaystubs, &counts.Paystubs},
		{colBills, &counts.RecurringBills},
	} {
		n, err := s.purgeCollection(ctx, s.col(userID, c.name))
		if err != nil {
			return counts, fmt.Errorf("purge %s: %w", c.name, err)
		}
		*c.count = n
	}
	return counts, nil
}

func (s *FirestoreStore) purgeCollection(ctx context.Context, col *firestore.CollectionRef) (int, error) {
	refs, err := col.DocumentRefs(ctx).GetAll()
	if err != nil {
		return 0, err
	}
	bw := s.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(refs))
	for _, ref := range refs {
		job, err := bw.Delete(ref)
		if err != nil {
			return 0, err
		}
		jobs = append(jobs, job)
	}
	if err := flushJobs(bw, jobs); err != nil {
		return 0, err
	}
	return len(refs), nil
}
