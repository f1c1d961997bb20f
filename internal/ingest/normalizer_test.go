package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bucketwise/internal/model"
)

func TestNormalizeCSV(t *testing.T) {
	raw := `Date,Description,Amount
01/15/2026,STARBUCKS #4521 SEATTLE WA,-4.85
01/16/2026,"ACME PAYROLL 00012345 DEPOSIT","$2,450.00"
not-a-date,MYSTERY SHOP,-10.00
01/17/2026,,-3.00
01/18/2026,PARKING GARAGE,(12.50)
`

	txns, skipped := NormalizeCSV(raw, model.SourceBank)
	require.Len(t, txns, 3)
	assert.Equal(t, 2, skipped)

	assert.Equal(t, "2026-01-15", txns[0].Date)
	assert.Equal(t, "STARBUCKS SEATTLE WA", txns[0].Description)
	assert.Equal(t, "STARBUCKS #4521 SEATTLE WA", txns[0].OriginalDescription)
	assert.Equal(t, -4.85, txns[0].Amount)
	assert.Equal(t, model.SourceBank, txns[0].Source)
	assert.Equal(t, 2, txns[0].RawLine)

	assert.Equal(t, "ACME PAYROLL DEPOSIT", txns[1].Description)
	assert.Equal(t, 2450.00, txns[1].Amount)

	assert.Equal(t, -12.50, txns[2].Amount)
}

func TestNormalizeCSVDebitCreditSplit(t *testing.T) {
	raw := `Posted Date,Payee,Debit,Credit
2026-01-10,GROCERY MART,52.30,
2026-01-11,REFUND CENTER,,-25.00
`

	txns, skipped := NormalizeCSV(raw, model.SourceCreditCard)
	require.Len(t, txns, 2)
	assert.Zero(t, skipped)

	// Sign comes from column identity, not the parsed number.
	assert.Equal(t, -52.30, txns[0].Amount)
	assert.Equal(t, 25.00, txns[1].Amount)
	assert.Equal(t, model.SourceCreditCard, txns[0].Source)
}

func TestNormalizeCSVDateFormats(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"US slash", "01/15/2026", "2026-01-15"},
		{"US two digit year", "01/15/26", "2026-01-15"},
		{"ISO", "2026-01-15", "2026-01-15"},
		{"US dash", "01-15-2026", "2026-01-15"},
		{"day first", "25/01/2026", "2026-01-25"},
		{"year first slash", "2026/01/15", "2026-01-15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseDate(tt.raw)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := parseDate("January 15, 2026")
	assert.False(t, ok)
}

func TestParseMoney(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want float64
		ok   bool
	}{
		{"plain", "12.34", 12.34, true},
		{"negative", "-12.34", -12.34, true},
		{"currency and thousands", "$2,450.00", 2450.00, true},
		{"parentheses are negative", "(123.45)", -123.45, true},
		{"non breaking space", "1 234.56", 1234.56, true},
		{"empty", "", 0, false},
		{"garbage", "N/A", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseMoney(tt.raw)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 0.0001)
			}
		})
	}
}

func TestStripAccountInfo(t *testing.T) {
	assert.Equal(t, "ACH TRANSFER TO", stripAccountInfo("ACH TRANSFER 4400123399 TO"))
	assert.Equal(t, "CHECKCARD COFFEE", stripAccountInfo("CHECKCARD  0115  COFFEE"))
	assert.Equal(t, "SHORT 123 KEPT", stripAccountInfo("SHORT 123 KEPT"))
}

func TestNormalizeCSVEmptyAndHeaderless(t *testing.T) {
	txns, skipped := NormalizeCSV("", model.SourceBank)
	assert.Empty(t, txns)
	assert.Zero(t, skipped)

	// Headers only, no data rows.
	txns, skipped = NormalizeCSV("Date,Description,Amount\n", model.SourceBank)
	assert.Empty(t, txns)
	assert.Zero(t, skipped)
}
