package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"bucketwise/internal/blob"
	"bucketwise/internal/categorize"
	"bucketwise/internal/extraction"
	"bucketwise/internal/ingest"
	"bucketwise/internal/model"
	"bucketwise/internal/store"
)

var contentTypes = map[string]string{
	"csv":  "text/csv",
	"pdf":  "application/pdf",
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
}

func contentTypeFor(fileName string) string {
	if ct, ok := contentTypes[fileExt(fileName)]; ok {
		return ct
	}
	return "application/octet-stream"
}

func fileExt(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 || idx == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[idx+1:])
}

func monthKeyFromDate(date string) string {
	if len(date) >= 7 {
		return date[:7]
	}
	return ""
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// UploadService runs the full ingestion pipeline: raw file to blob store,
// normalize or extract, categorize, persist.
type UploadService struct {
	store     store.Store
	blobs     blob.Store
	resolver  *categorize.Resolver
	extractor *extraction.Extractor
	log       zerolog.Logger
}

func NewUploadService(s store.Store, b blob.Store, r *categorize.Resolver, e *extraction.Extractor, log zerolog.Logger) *UploadService {
	return &UploadService{store: s, blobs: b, resolver: r, extractor: e, log: log}
}

// UploadRequest carries one statement upload. Exactly one of CSVContent or
// FileContent is set; handlers decode base64 before calling.
type UploadRequest struct {
	FileName    string
	Source      model.Source
	CSVContent  string
	FileContent []byte
}

// UploadResult summarizes what an upload produced.
type UploadResult struct {
	UploadID              string  `json:"uploadId"`
	MonthKey              string  `json:"monthKey"`
	TransactionsProcessed int     `json:"transactionsProcessed"`
	SkippedRows           int     `json:"skippedRows"`
	NeedsReview           int     `json:"needsReview"`
	TotalAmount           float64 `json:"totalAmount"`
	RawFileKey            string  `json:"rawFileKey"`
}

// Process ingests one uploaded statement for a user.
func (s *UploadService) Process(ctx context.Context, userID string, req UploadRequest) (*UploadResult, error) {
	if req.Source != model.SourceBank && req.Source != model.SourceCreditCard {
		return nil, validationf("source must be %q or %q", model.SourceBank, model.SourceCreditCard)
	}

	ext := fileExt(req.FileName)
	isCSV := ext == "csv" || (req.CSVContent != "" && len(req.FileContent) == 0)
	if isCSV && req.CSVContent == "" {
		return nil, validationf("csvContent is required for CSV uploads")
	}
	if !isCSV && len(req.FileContent) == 0 {
		return nil, validationf("fileContent (base64) is required for PDF/image uploads")
	}

	uploadID := uuid.NewString()
	now := time.Now().UTC()

	// Keep the raw file so uploads are auditable and re-processable.
	rawKey := fmt.Sprintf("uploads/raw/%s/%s/%s", userID, uploadID, req.FileName)
	rawBytes := req.FileContent
	if isCSV {
		rawBytes = []byte(req.CSVContent)
	}
	if err := s.blobs.Put(ctx, rawKey, rawBytes, contentTypeFor(req.FileName)); err != nil {
		return nil, fmt.Errorf("store raw upload: %w", err)
	}

	var (
		txns    []model.Transaction
		skipped int
		err     error
	)
	if isCSV {
		txns, skipped = ingest.NormalizeCSV(req.CSVContent, req.Source)
		if len(txns) == 0 {
			return nil, validationf("No valid transactions found in CSV. Check the file format.")
		}
	} else {
		txns, err = s.extractor.ExtractStatement(ctx, req.FileContent, req.FileName, req.Source)
		if err != nil {
			return nil, err
		}
	}

	// Snapshot the normalized form next to the raw file.
	if snapshot, err := json.Marshal(txns); err == nil {
		normalizedKey := fmt.Sprintf("uploads/normalized/%s/%s/transactions.json", userID, uploadID)
		if err := s.blobs.Put(ctx, normalizedKey, snapshot, "application/json"); err != nil {
			s.log.Warn().Err(err).Str("key", normalizedKey).Msg("failed to store normalized snapshot")
		}
	}

	descriptions := make([]string, len(txns))
	for i, txn := range txns {
		descriptions[i] = txn.Description
	}
	categorizations := s.resolver.CategorizeAll(ctx, userID, descriptions)

	var (
		totalAmount float64
		needsReview int
	)
	for i := range txns {
		c := categorizations[i]
		txns[i].ID = transactionID(txns[i], uploadID)
		txns[i].UserID = userID
		txns[i].MonthKey = monthKeyFromDate(txns[i].Date)
		txns[i].Bucket = c.Bucket
		txns[i].Confidence = c.Confidence
		txns[i].CategorizationSource = c.Source
		txns[i].CategorizationReasoning = c.Reasoning
		txns[i].UploadID = uploadID
		txns[i].CreatedAt = now

		totalAmount += txns[i].Amount
		if txns[i].NeedsReview() {
			needsReview++
		}
	}

	if err := s.store.PutTransactions(ctx, userID, txns); err != nil {
		return nil, fmt.Errorf("persist transactions: %w", err)
	}

	s.log.Info().
		Str("uploadId", uploadID).
		Int("processed", len(txns)).
		Int("skipped", skipped).
		Int("needsReview", needsReview).
		Msg("upload processed")

	return &UploadResult{
		UploadID:              uploadID,
		MonthKey:              monthKeyFromDate(txns[0].Date),
		TransactionsProcessed: len(txns),
		SkippedRows:           skipped,
		NeedsReview:           needsReview,
		TotalAmount:           round2(totalAmount),
		RawFileKey:            rawKey,
	}, nil
}

// transactionID derives a stable ID from the transaction's content plus the
// upload, so re-uploading the same file creates distinct records while rows
// within one upload stay deterministic.
func transactionID(txn model.Transaction, uploadID string) string {
	h := sha256.Sum256([]byte(txn.Date + txn.Description +
		strconv.FormatFloat(txn.Amount, 'f', -1, 64) + uploadID))
	return hex.EncodeToString(h[:])[:16]
}
