// Package extraction turns uploaded documents (PDF or image statements and
// paystubs) into structured records via a generative model. PDFs go through
// local text extraction first; images are sent to the model directly.
package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"bucketwise/internal/llm"
	"bucketwise/internal/model"
)

// imageMIMEs maps supported image extensions to their MIME types.
var imageMIMEs = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
}

var (
	trailingLocationRe = regexp.MustCompile(`\s+[A-Z]{2}\s+\d{5}(-\d{4})?$`)
	trailingCardRe     = regexp.MustCompile(`(?i)\s+x{1,4}\d{4}$`)
	whitespaceRe       = regexp.MustCompile(`\s+`)
)

const (
	statementMaxTokens int32 = 4096
	paystubMaxTokens   int32 = 1500
)

// Extractor drives document extraction through a model generator. A nil
// generator means the model credential is not configured; every extraction
// then fails fast with ErrModelUnavailable.
type Extractor struct {
	gen llm.Generator
	log zerolog.Logger
}

func New(gen llm.Generator, log zerolog.Logger) *Extractor {
	return &Extractor{gen: gen, log: log}
}

// Available reports whether a generator is configured.
func (e *Extractor) Available() bool { return e.gen != nil }

// ExtractStatement parses a PDF or image statement into canonical
// transactions. fileName is only used for extension-based format detection.
func (e *Extractor) ExtractStatement(ctx context.Context, data []byte, fileName string, source model.Source) ([]model.Transaction, error) {
	if e.gen == nil {
		return nil, newError(ErrModelUnavailable, "model API key not configured")
	}

	ext := fileExt(fileName)
	prompt := statementPrompt(source)

	var req llm.Request
	switch {
	case ext == "pdf":
		text, err := extractPDFText(data, maxStatementPages)
		if err != nil {
			return nil, err
		}
		e.log.Debug().Int("chars", len(text)).Msg("extracted statement text from PDF")
		req = llm.Request{
			Prompt:          prompt + "\n\nExtract all transactions from this statement:\n\n" + text,
			MaxOutputTokens: statementMaxTokens,
		}
	case imageMIMEs[ext] != "":
		req = llm.Request{
			Prompt:          prompt + "\n\nExtract all transactions from this statement image:",
			Parts:           []llm.Part{{MIMEType: imageMIMEs[ext], Data: data}},
			MaxOutputTokens: statementMaxTokens,
		}
	default:
		return nil, newError(ErrUnsupportedFormat,
			fmt.Sprintf("Unsupported file format: .%s. Use CSV, PDF, or image (PNG/JPG).", ext))
	}

	raw, err := e.gen.Generate(ctx, req)
	if err != nil {
		return nil, wrapError(ErrModelUnavailable, "statement extraction call failed", err)
	}
	return parseStatementResponse(raw, source)
}

func statementPrompt(source model.Source) string {
	label := "bank statement"
	signRule := "For bank statements: withdrawals/checks/payments are NEGATIVE, deposits/transfers-in are POSITIVE"
	if source == model.SourceCreditCard {
		label = "credit card statement"
		signRule = "For credit cards: charges are NEGATIVE, payments/credits are POSITIVE"
	}

	return fmt.Sprintf(`You are a %[1]s parser. Extract ALL transactions from this statement.

Return ONLY valid JSON, an array of transaction objects:

[
    {
        "date": "2026-01-15",
        "description": "STARBUCKS #1234",
        "amount": -4.85
    }
]

Rules:
- "date" must be in YYYY-MM-DD format
- "description" is the merchant/payee name, cleaned up (remove trailing city/state/ID if possible)
- For a %[1]s:
  - Purchases/charges/debits = NEGATIVE amounts
  - Refunds/credits/deposits = POSITIVE amounts
  - %[2]s
- Include ALL transactions, do not skip any
- Do NOT include balance entries, fee summaries, or interest unless they are actual line-item transactions
- Do NOT include headers, footers, or account information
- Return ONLY the JSON array, no markdown fences or extra text`, label, signRule)
}

type rawStatementTxn struct {
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

// parseStatementResponse validates the model output. Items missing a date or
// description are dropped; zero surviving items is a hard failure so the
// caller never stores a silently-empty extraction.
func parseStatementResponse(raw string, source model.Source) ([]model.Transaction, error) {
	cleaned := extractJSON(raw)

	var items []rawStatementTxn
	if err := json.Unmarshal([]byte(cleaned), &items); err != nil {
		return nil, wrapError(ErrModelResponse, "model did not return a valid transaction list", err)
	}

	var txns []model.Transaction
	for i, item := range items {
		if item.Date == "" || item.Description == "" {
			continue
		}
		txns = append(txns, model.Transaction{
			Date:                item.Date,
			Description:         CleanDescription(item.Description),
			OriginalDescription: item.Description,
			Amount:              math.Round(item.Amount*100) / 100,
			Source:              source,
			RawLine:             i,
		})
	}

	if len(txns) == 0 {
		return nil, newError(ErrNoTransactionsFound, "No transactions could be extracted from this statement")
	}
	return txns, nil
}

// CleanDescription strips trailing "STATE 12345" location suffixes and masked
// card digits like "xxxx1234", then collapses whitespace.
func CleanDescription(desc string) string {
	desc = trailingLocationRe.ReplaceAllString(desc, "")
	desc = trailingCardRe.ReplaceAllString(desc, "")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(desc, " "))
}

func fileExt(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 || idx == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[idx+1:])
}
