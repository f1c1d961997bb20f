// Package ingest turns raw delimited statement exports into canonical
// transactions. Banks disagree on everything — header names, date formats,
// sign conventions — so column roles are detected heuristically.
package ingest

import (
	"regexp"
	"strings"
)

// Header keyword patterns, checked case-insensitively. A header matching the
// account-number pattern is excluded from every role so account identifiers
// never leak into descriptions.
var (
	accountRe = regexp.MustCompile(`(?i)account|acct|card.?number|card.?no|last.?four`)
	dateRe    = regexp.MustCompile(`(?i)date|posted|trans.?date|settlement`)
	descRe    = regexp.MustCompile(`(?i)desc|narr|memo|merchant|payee|detail|name`)
	amountRe  = regexp.MustCompile(`(?i)amount|sum|value|total`)
	debitRe   = regexp.MustCompile(`(?i)debit|withdrawal|charge`)
	creditRe  = regexp.MustCompile(`(?i)credit|deposit|payment`)
)

// ColumnMap assigns CSV columns (by index) to semantic roles. -1 means the
// role was not found.
type ColumnMap struct {
	Date        int
	Description int
	Amount      int
	Debit       int
	Credit      int
}

// HasAmount reports whether any usable amount representation was detected,
// either a single signed column or a debit/credit split.
func (m ColumnMap) HasAmount() bool {
	return m.Amount >= 0 || m.Debit >= 0 || m.Credit >= 0
}

// DetectColumns heuristically maps CSV headers to roles.
//
// Precedence rules, in order:
//  1. account-number-like headers are skipped entirely;
//  2. each role is claimed by the first (leftmost) matching header;
//  3. a header is assigned at most one role, tested in the order
//     date, description, amount, debit, credit.
//
// The explicit-amount-over-split preference is applied at amount-parse time:
// when both an amount column and a debit/credit split are present, the
// amount column wins.
func DetectColumns(headers []string) ColumnMap {
	m := ColumnMap{Date: -1, Description: -1, Amount: -1, Debit: -1, Credit: -1}

	for i, raw := range headers {
		h := strings.TrimSpace(raw)
		switch {
		case accountRe.MatchString(h):
			continue
		case m.Date < 0 && dateRe.MatchString(h):
			m.Date = i
		case m.Description < 0 && descRe.MatchString(h):
			m.Description = i
		case m.Amount < 0 && amountRe.MatchString(h):
			m.Amount = i
		case m.Debit < 0 && debitRe.MatchString(h):
			m.Debit = i
		case m.Credit < 0 && creditRe.MatchString(h):
			m.Credit = i
		}
	}

	return m
}
