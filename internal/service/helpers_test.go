package service

import (
	"context"

	"github.com/rs/zerolog"

	"bucketwise/internal/blob"
	"bucketwise/internal/categorize"
	"bucketwise/internal/extraction"
	"bucketwise/internal/llm"
	"bucketwise/internal/store"
)

// stubGenerator returns one canned response for every model call.
type stubGenerator struct {
	response string
	err      error
	calls    int
}

func (g *stubGenerator) Generate(_ context.Context, _ llm.Request) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return g.response, nil
}

// testEnv wires the services against in-memory backends.
type testEnv struct {
	store *store.MemoryStore
	blobs *blob.MemoryStore
	gen   llm.Generator
}

func newTestEnv(gen llm.Generator) *testEnv {
	return &testEnv{
		store: store.NewMemoryStore(),
		blobs: blob.NewMemoryStore(),
		gen:   gen,
	}
}

func (e *testEnv) resolver() *categorize.Resolver {
	return categorize.New(e.store, e.gen, zerolog.Nop())
}

func (e *testEnv) extractor() *extraction.Extractor {
	return extraction.New(e.gen, zerolog.Nop())
}

func (e *testEnv) uploads() *UploadService {
	return NewUploadService(e.store, e.blobs, e.resolver(), e.extractor(), zerolog.Nop())
}

func (e *testEnv) transactions() *TransactionService {
	return NewTransactionService(e.store, e.resolver(), zerolog.Nop())
}

func (e *testEnv) months() *MonthService {
	return NewMonthService(e.store, e.blobs, zerolog.Nop())
}

func (e *testEnv) buckets() *BucketService {
	return NewBucketService(e.store, zerolog.Nop())
}

func (e *testEnv) paystubs() *PaystubService {
	return NewPaystubService(e.store, e.blobs, e.extractor(), zerolog.Nop())
}

func (e *testEnv) bills() *RecurringBillService {
	return NewRecurringBillService(e.store, zerolog.Nop())
}

func (e *testEnv) data() *DataService {
	return NewDataService(e.store, e.blobs, zerolog.Nop())
}
