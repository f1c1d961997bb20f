package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"bucketwise/internal/model"
)

// MemoryStore implements Store with in-memory maps. Used for local
// development and tests.
type MemoryStore struct {
	mu sync.RWMutex

	transactions map[string]map[string]model.Transaction    // userID -> txnID -> txn
	merchants    map[string]map[string]model.MerchantMemory // userID -> merchantKey -> memory
	buckets      map[string]map[string]model.Bucket         // userID -> bucketID -> bucket
	summaries    map[string]map[string]model.MonthSummary   // userID -> monthKey -> summary
	paystubs     map[string]map[string]model.Paystub        // userID -> paystubID -> paystub
	bills        map[string]map[string]model.RecurringBill  // userID -> billID -> bill
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		transactions: make(map[string]map[string]model.Transaction),
		merchants:    make(map[string]map[string]model.MerchantMemory),
		buckets:      make(map[string]map[string]model.Bucket),
		summaries:    make(map[string]map[string]model.MonthSummary),
		paystubs:     make(map[string]map[string]model.Paystub),
		bills:        make(map[string]map[string]model.RecurringBill),
	}
}

func (s *MemoryStore) PutTransactions(_ context.Context, userID string, txns []model.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.transactions[userID] == nil {
		s.transactions[userID] = make(map[string]model.Transaction)
	}
	for _, txn := range txns {
		s.transactions[userID][txn.ID] = txn
	}
	return nil
}

func (s *MemoryStore) GetTransaction(_ context.Context, userID, txnID string) (*model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	txn, ok := s.transactions[userID][txnID]
	if !ok {
		return nil, ErrNotFound
	}
	return &txn, nil
}

func (s *MemoryStore) UpdateTransaction(_ context.Context, userID string, txn model.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[userID][txn.ID]; !ok {
		return ErrNotFound
	}
	s.transactions[userID][txn.ID] = txn
	return nil
}

func (s *MemoryStore) ListTransactionsByMonth(_ context.Context, userID, monthKey string) ([]model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Transaction
	for _, txn := range s.transactions[userID] {
		if txn.MonthKey == monthKey {
			out = append(out, txn)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return strings.Compare(out[i].ID, out[j].ID) < 0
	})
	return out, nil
}

func (s *MemoryStore) DeleteTransactions(_ context.Context, userID string, txnIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range txnIDs {
		delete(s.transactions[userID], id)
	}
	return nil
}

func (s *MemoryStore) GetMerchantMemory(_ context.Context, userID, merchantKey string) (*model.MerchantMemory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	memory, ok := s.merchants[userID][merchantKey]
	if !ok {
		return nil, nil
	}
	return &memory, nil
}

func (s *MemoryStore) PutMerchantMemory(_ context.Context, userID string, memory model.MerchantMemory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.merchants[userID] == nil {
		s.merchants[userID] = make(map[string]model.MerchantMemory)
	}
	s.merchants[userID][memory.MerchantKey] = memory
	return nil
}

func (s *MemoryStore) ListBuckets(_ context.Context, userID string) ([]model.Bucket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Bucket
	for _, b := range s.buckets[userID] {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, nil
}

func (s *MemoryStore) GetBucket(_ context.Context, userID, bucketID string) (*model.Bucket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.buckets[userID][bucketID]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (s *MemoryStore) PutBucket(_ context.Context, userID string, bucket model.Bucket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buckets[userID] == nil {
		s.buckets[userID] = make(map[string]model.Bucket)
	}
	s.buckets[userID][bucket.ID] = bucket
	return nil
}

func (s *MemoryStore) GetMonthSummary(_ context.Context, userID, monthKey string) (*model.MonthSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	summary, ok := s.summaries[userID][monthKey]
	if !ok {
		return nil, ErrNotFound
	}
	return &summary, nil
}

func (s *MemoryStore) CreateMonthSummary(_ context.Context, userID string, summary model.MonthSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.summaries[userID][summary.MonthKey]; ok {
		return ErrAlreadyExists
	}
	if s.summaries[userID] == nil {
		s.summaries[userID] = make(map[string]model.MonthSummary)
	}
	s.summaries[userID][summary.MonthKey] = summary
	return nil
}

func (s *MemoryStore) PutMonthSummary(_ context.Context, userID string, summary model.MonthSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.summaries[userID] == nil {
		s.summaries[userID] = make(map[string]model.MonthSummary)
	}
	s.summaries[userID][summary.MonthKey] = summary
	return nil
}

func (s *MemoryStore) DeleteMonthSummary(_ context.Context, userID, monthKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.summaries[userID], monthKey)
	return nil
}

func (s *MemoryStore) PutPaystub(_ context.Context, userID string, paystub model.Paystub) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paystubs[userID] == nil {
		s.paystubs[userID] = make(map[string]model.Paystub)
	}
	s.paystubs[userID][paystub.ID] = paystub
	return nil
}

func (s *MemoryStore) GetPaystub(_ context.Context, userID, paystubID string) (*model.Paystub, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stub, ok := s.paystubs[userID][paystubID]
	if !ok {
		return nil, ErrNotFound
	}
	return &stub, nil
}

func (s *MemoryStore) ListPaystubsByMonth(_ context.Context, userID, monthKey string) ([]model.Paystub, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Paystub
	for _, stub := range s.paystubs[userID] {
		if stub.MonthKey == monthKey {
			out = append(out, stub)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PayDate != out[j].PayDate {
			return out[i].PayDate < out[j].PayDate
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) DeletePaystub(_ context.Context, userID, paystubID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.paystubs[userID][paystubID]; !ok {
		return ErrNotFound
	}
	delete(s.paystubs[userID], paystubID)
	return nil
}

func (s *MemoryStore) PutRecurringBill(_ context.Context, userID string, bill model.RecurringBill) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bills[userID] == nil {
		s.bills[userID] = make(map[string]model.RecurringBill)
	}
	s.bills[userID][bill.ID] = bill
	return nil
}

func (s *MemoryStore) GetRecurringBill(_ context.Context, userID, billID string) (*model.RecurringBill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bill, ok := s.bills[userID][billID]
	if !ok {
		return nil, ErrNotFound
	}
	return &bill, nil
}

func (s *MemoryStore) ListRecurringBills(_ context.Context, userID string) ([]model.RecurringBill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.RecurringBill
	for _, bill := range s.bills[userID] {
		out = append(out, bill)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) DeleteRecurringBill(_ context.Context, userID, billID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bills[userID][billID]; !ok {
		return ErrNotFound
	}
	delete(s.bills[userID], billID)
	return nil
}

func (s *MemoryStore) PurgeUser(_ context.Context, userID string) (PurgeCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := PurgeCounts{
		Transactions:   len(s.transactions[userID]),
		Merchants:      len(s.merchants[userID]),
		Buckets:        len(s.buckets[userID]),
		MonthSummaries: len(s.summaries[userID]),
		Paystubs:       len(s.paystubs[userID]),
		RecurringBills: len(s.bills[userID]),
	}
	delete(s.transactions, userID)
	delete(s.merchants, userID)
	delete(s.buckets, userID)
	delete(s.summaries, userID)
	delete(s.paystubs, userID)
	delete(s.bills, userID)
	return counts, nil
}
