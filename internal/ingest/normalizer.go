package ingest

import (
	"encoding/csv"
	"regexp"
	"strconv"
	"strings"
	"time"

	"bucketwise/internal/model"
)

// Date layouts tried in order; the first successful parse wins.
var dateLayouts = []string{
	"01/02/2006",
	"01/02/06",
	"2006-01-02",
	"01-02-2006",
	"02/01/2006",
	"2006/01/02",
}

var (
	amountJunkRe = regexp.MustCompile("[$ , ]")
	digitRunRe   = regexp.MustCompile(`#?\b\d{4,}\b`)
	multiSpaceRe = regexp.MustCompile(`\s{2,}`)
)

// NormalizeCSV parses raw CSV content into canonical transactions. Rows
// missing a parseable date, a non-empty description, or a usable amount are
// dropped; the second return value is the number of dropped rows. Only an
// empty result is treated as an error by callers, individual bad rows are
// not.
func NormalizeCSV(raw string, source model.Source) ([]model.Transaction, int) {
	reader := csv.NewReader(strings.NewReader(raw))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		return nil, 0
	}
	cols := DetectColumns(headers)

	var (
		txns    []model.Transaction
		skipped int
	)
	line := 1 // header is line 1
	for {
		record, err := reader.Read()
		if err != nil {
			break
		}
		line++
		txn, ok := normalizeRow(record, cols, source, line)
		if !ok {
			skipped++
			continue
		}
		txns = append(txns, txn)
	}
	return txns, skipped
}

func normalizeRow(record []string, cols ColumnMap, source model.Source, line int) (model.Transaction, bool) {
	date, ok := parseDate(field(record, cols.Date))
	if !ok {
		return model.Transaction{}, false
	}

	rawDesc := field(record, cols.Description)
	if rawDesc == "" {
		return model.Transaction{}, false
	}

	amount, ok := parseAmount(record, cols)
	if !ok {
		return model.Transaction{}, false
	}

	return model.Transaction{
		Date:                date,
		Description:         stripAccountInfo(rawDesc),
		OriginalDescription: rawDesc,
		Amount:              amount,
		Source:              source,
		RawLine:             line,
	}, true
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func parseDate(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

// parseAmount prefers a single signed amount column. Debit/credit splits get
// their sign from column identity, not from the parsed number.
func parseAmount(record []string, cols ColumnMap) (float64, bool) {
	if cols.Amount >= 0 {
		return parseMoney(field(record, cols.Amount))
	}

	if debit := field(record, cols.Debit); debit != "" {
		v, ok := parseMoney(debit)
		if !ok {
			return 0, false
		}
		return -abs(v), true
	}
	if credit := field(record, cols.Credit); credit != "" {
		v, ok := parseMoney(credit)
		if !ok {
			return 0, false
		}
		return abs(v), true
	}
	return 0, false
}

// parseMoney strips currency symbols, thousands separators, and non-breaking
// spaces, and honors accounting-style parentheses: (123.45) means -123.45.
func parseMoney(raw string) (float64, bool) {
	if raw == "" {
		return 0, false
	}
	cleaned := amountJunkRe.ReplaceAllString(raw, "")
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		cleaned = "-" + cleaned[1:len(cleaned)-1]
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// stripAccountInfo removes runs of 4+ digits, with any store-number "#"
// prefix, so account and card fragments never survive into descriptions,
// then collapses leftover whitespace.
func stripAccountInfo(desc string) string {
	cleaned := digitRunRe.ReplaceAllString(desc, "")
	cleaned = multiSpaceRe.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
