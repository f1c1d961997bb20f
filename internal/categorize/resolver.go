package categorize

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"bucketwise/internal/llm"
	"bucketwise/internal/model"
)

const (
	batchMaxTokens  int32 = 4096
	singleMaxTokens int32 = 150

	// Concurrent chunk calls during batch categorization.
	maxParallelChunks = 4
)

// MemoryStore is the slice of the persistence layer the resolver needs.
type MemoryStore interface {
	GetMerchantMemory(ctx context.Context, userID, merchantKey string) (*model.MerchantMemory, error)
	PutMerchantMemory(ctx context.Context, userID string, memory model.MerchantMemory) error
}

// Resolver categorizes merchant descriptions. Memory always wins; the model
// is only consulted for unknown merchants, and model failures degrade to
// uncategorized results instead of failing the caller.
type Resolver struct {
	memory MemoryStore
	gen    llm.Generator
	log    zerolog.Logger
}

func New(memory MemoryStore, gen llm.Generator, log zerolog.Logger) *Resolver {
	return &Resolver{memory: memory, gen: gen, log: log}
}

// Categorize resolves a single description.
func (r *Resolver) Categorize(ctx context.Context, userID, description string) model.Categorization {
	if c, ok := r.fromMemory(ctx, userID, description); ok {
		return c
	}
	if r.gen == nil {
		return unavailableResult()
	}
	return r.categorizeSingle(ctx, description)
}

// CategorizeAll resolves a batch of descriptions, returning one result per
// input position. Memory hits resolve immediately; the remaining unique
// descriptions are sent to the model in chunks, and results fan back out to
// every position sharing a description.
func (r *Resolver) CategorizeAll(ctx context.Context, userID string, descriptions []string) []model.Categorization {
	results := make([]model.Categorization, len(descriptions))

	// Partition into memory hits and misses.
	var missIdx []int
	for i, desc := range descriptions {
		if c, ok := r.fromMemory(ctx, userID, desc); ok {
			results[i] = c
		} else {
			missIdx = append(missIdx, i)
		}
	}
	if len(missIdx) == 0 {
		return results
	}

	// Deduplicate misses on the normalized merchant key, matching memory
	// lookup semantics, preserving first-seen order. The first raw
	// description seen for a key is the one sent to the model.
	var unique []string
	seen := make(map[string]int)
	for _, i := range missIdx {
		key := NormalizeMerchant(descriptions[i])
		if _, ok := seen[key]; !ok {
			seen[key] = len(unique)
			unique = append(unique, descriptions[i])
		}
	}

	r.log.Info().
		Int("transactions", len(missIdx)).
		Int("unique", len(unique)).
		Msg("categorizing merchants via model")

	resolved := r.resolveUnique(ctx, unique)

	for _, i := range missIdx {
		results[i] = resolved[seen[NormalizeMerchant(descriptions[i])]]
	}
	return results
}

// RememberMerchant persists a merchant-to-bucket mapping. This is the only
// path that writes memory; model results are never auto-persisted.
func (r *Resolver) RememberMerchant(ctx context.Context, userID, description, bucket string) error {
	if !IsValidBucket(bucket) {
		return fmt.Errorf("categorize: unknown bucket %q", bucket)
	}
	return r.memory.PutMerchantMemory(ctx, userID, model.MerchantMemory{
		MerchantKey:         NormalizeMerchant(description),
		Bucket:              bucket,
		OriginalDescription: description,
		UpdatedBy:           userID,
		UpdatedAt:           time.Now().UTC(),
	})
}

func (r *Resolver) fromMemory(ctx context.Context, userID, description string) (model.Categorization, bool) {
	stored, err := r.memory.GetMerchantMemory(ctx, userID, NormalizeMerchant(description))
	if err != nil || stored == nil || stored.Bucket == "" {
		return model.Categorization{}, false
	}
	return model.Categorization{
		Bucket:     stored.Bucket,
		Confidence: 1.0,
		Source:     model.CategorizedByMemory,
		Reasoning:  fmt.Sprintf("Merchant %q previously categorized by user.", description),
	}, true
}

// resolveUnique categorizes unique descriptions via the model, chunked and
// run in parallel. Result order matches the input.
func (r *Resolver) resolveUnique(ctx context.Context, unique []string) []model.Categorization {
	results := make([]model.Categorization, len(unique))

	if r.gen == nil {
		for i := range results {
			results[i] = unavailableResult()
		}
		return results
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelChunks)

	for start := 0; start < len(unique); start += ChunkSize {
		end := start + ChunkSize
		if end > len(unique) {
			end = len(unique)
		}
		chunk := unique[start:end]
		out := results[start:end]

		g.Go(func() error {
			r.categorizeChunk(gctx, chunk, out)
			return nil
		})
	}
	// Chunk failures become ai_error results, never errors.
	_ = g.Wait()

	return results
}

type modelResult struct {
	Bucket     string  `json:"bucket"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// categorizeChunk fills out with one result per chunk entry. A non-array
// response or a length mismatch downgrades the whole chunk to per-item calls.
func (r *Resolver) categorizeChunk(ctx context.Context, chunk []string, out []model.Categorization) {
	raw, err := r.gen.Generate(ctx, llm.Request{
		Prompt:          chunkPrompt(chunk),
		MaxOutputTokens: batchMaxTokens,
	})
	if err != nil {
		r.log.Error().Err(err).Int("chunk", len(chunk)).Msg("chunk categorization failed, falling back to singles")
		r.categorizeSingles(ctx, chunk, out)
		return
	}

	var parsed []modelResult
	if err := json.Unmarshal([]byte(stripFences(raw)), &parsed); err != nil || len(parsed) != len(chunk) {
		r.log.Warn().
			Int("got", len(parsed)).
			Int("want", len(chunk)).
			Msg("chunk response invalid, falling back to singles")
		r.categorizeSingles(ctx, chunk, out)
		return
	}

	for i, item := range parsed {
		out[i] = validateModelResult(item)
	}
}

func (r *Resolver) categorizeSingles(ctx context.Context, chunk []string, out []model.Categorization) {
	for i, desc := range chunk {
		out[i] = r.categorizeSingle(ctx, desc)
	}
}

func (r *Resolver) categorizeSingle(ctx context.Context, description string) model.Categorization {
	raw, err := r.gen.Generate(ctx, llm.Request{
		Prompt:          singlePrompt(description),
		MaxOutputTokens: singleMaxTokens,
	})
	if err != nil {
		r.log.Error().Err(err).Str("description", description).Msg("single categorization failed")
		return errorResult(err)
	}

	var parsed modelResult
	if err := json.Unmarshal([]byte(stripFences(raw)), &parsed); err != nil {
		return errorResult(err)
	}
	return validateModelResult(parsed)
}

// validateModelResult coerces out-of-set bucket suggestions to uncategorized
// instead of letting unknown buckets leak into storage.
func validateModelResult(item modelResult) model.Categorization {
	if !IsValidBucket(item.Bucket) {
		return model.Categorization{
			Bucket:     "",
			Confidence: 0.0,
			Source:     model.CategorizedByAI,
			Reasoning:  fmt.Sprintf("Model suggested unknown bucket %q.", item.Bucket),
		}
	}
	return model.Categorization{
		Bucket:     item.Bucket,
		Confidence: item.Confidence,
		Source:     model.CategorizedByAI,
		Reasoning:  item.Reasoning,
	}
}

func unavailableResult() model.Categorization {
	return model.Categorization{
		Bucket:     "",
		Confidence: 0.0,
		Source:     model.CategorizedByAIUnavailable,
		Reasoning:  "Model API key not configured.",
	}
}

func errorResult(err error) model.Categorization {
	return model.Categorization{
		Bucket:     "",
		Confidence: 0.0,
		Source:     model.CategorizedByAIError,
		Reasoning:  fmt.Sprintf("Model categorization failed: %v", err),
	}
}

func chunkPrompt(descriptions []string) string {
	var list strings.Builder
	for i, desc := range descriptions {
		fmt.Fprintf(&list, "%d. %q\n", i+1, desc)
	}
	names, _ := json.Marshal(Buckets)

	return fmt.Sprintf(`You are a personal finance categorizer. Categorize each of the following %d transactions into exactly ONE of these buckets:

%s

You MUST return EXACTLY %d results, one for each transaction, in the same order.

Respond with ONLY a valid JSON array:

[
    {"bucket": "<bucket name>", "confidence": <0.0 to 1.0>, "reasoning": "<one sentence>"}
]

Transactions:
%s`, len(descriptions), names, len(descriptions), list.String())
}

func singlePrompt(description string) string {
	names, _ := json.Marshal(Buckets)
	return fmt.Sprintf(`You are a personal finance categorizer. Given a transaction description,
categorize it into exactly ONE of these buckets:

%s

Respond with valid JSON only:
{"bucket": "<bucket name>", "confidence": <0.0 to 1.0>, "reasoning": "<one sentence>"}

Transaction: %q`, names, description)
}

// stripFences removes markdown code fences the model sometimes wraps around
// JSON despite instructions.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.Index(s, "\n"); idx != -1 {
		s = s[idx+1:]
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
