// Package model defines the canonical domain types shared across the
// ingestion, categorization and aggregation layers.
package model

import "time"

// Source identifies where a transaction came from.
type Source string

const (
	SourceBank       Source = "bank"
	SourceCreditCard Source = "credit_card"
	SourceManual     Source = "manual"
	SourceRecurring  Source = "recurring"
)

// CategorizationSource records how a transaction's bucket was decided.
type CategorizationSource string

const (
	CategorizedByMemory        CategorizationSource = "merchant_memory"
	CategorizedByAI            CategorizationSource = "ai"
	CategorizedByAIError       CategorizationSource = "ai_error"
	CategorizedByAIUnavailable CategorizationSource = "ai_unavailable"
	CategorizedByUser          CategorizationSource = "user_override"
)

// ReviewThreshold is the confidence below which a transaction needs review.
// Aggregation, listing and locking all rely on this exact value.
const ReviewThreshold = 0.7

// Transaction is the canonical record every ingestion path converges to.
// Bucket and the categorization fields are an optional augmentation set by
// the resolver; an empty Bucket means "none".
type Transaction struct {
	ID                  string  `json:"transactionId" firestore:"transactionId"`
	UserID              string  `json:"userId" firestore:"userId"`
	MonthKey            string  `json:"monthKey" firestore:"monthKey"`
	Date                string  `json:"date" firestore:"date"`
	Description         string  `json:"description" firestore:"description"`
	OriginalDescription string  `json:"originalDescription" firestore:"originalDescription"`
	Amount              float64 `json:"amount" firestore:"amount"`
	Source              Source  `json:"source" firestore:"source"`
	RawLine             int     `json:"rawLine" firestore:"rawLine"`

	Bucket                  string               `json:"bucket,omitempty" firestore:"bucket"`
	Confidence              float64              `json:"confidence" firestore:"confidence"`
	CategorizationSource    CategorizationSource `json:"categorizationSource,omitempty" firestore:"categorizationSource"`
	CategorizationReasoning string               `json:"categorizationReasoning,omitempty" firestore:"categorizationReasoning"`

	Note            string    `json:"note,omitempty" firestore:"note"`
	UploadID        string    `json:"uploadId,omitempty" firestore:"uploadId"`
	RecurringBillID string    `json:"recurringBillId,omitempty" firestore:"recurringBillId"`
	Locked          bool      `json:"locked" firestore:"locked"`
	CreatedAt       time.Time `json:"createdAt" firestore:"createdAt"`
}

// NeedsReview reports whether the transaction still requires user attention:
// no bucket assigned, or the categorization confidence is below threshold.
func (t *Transaction) NeedsReview() bool {
	return t.Bucket == "" || t.Confidence < ReviewThreshold
}

// Categorization is the result tuple produced by the resolver for a single
// merchant description.
type Categorization struct {
	Bucket     string               `json:"bucket"`
	Confidence float64              `json:"confidence"`
	Source     CategorizationSource `json:"source"`
	Reasoning  string               `json:"reasoning"`
}

// MerchantMemory is a durable, user-authored mapping from a normalized
// merchant description to a bucket. Once set it always overrides inference
// for that exact key; overwrites are last-write-wins.
type MerchantMemory struct {
	MerchantKey         string    `json:"merchantKey" firestore:"merchantKey"`
	Bucket              string    `json:"bucket" firestore:"bucket"`
	OriginalDescription string    `json:"originalDescription" firestore:"originalDescription"`
	UpdatedBy           string    `json:"updatedBy" firestore:"updatedBy"`
	UpdatedAt           time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// Bucket is one of the eight fixed spending buckets with a user-configurable
// monthly target. Status is derived, never stored.
type Bucket struct {
	ID            string  `json:"bucketId" firestore:"bucketId"`
	Name          string  `json:"name" firestore:"name"`
	Emoji         string  `json:"emoji" firestore:"emoji"`
	MonthlyTarget float64 `json:"monthlyTarget" firestore:"monthlyTarget"`
	DisplayOrder  int     `json:"displayOrder" firestore:"displayOrder"`
}

// BucketStatus is the traffic-light state of a bucket within a month.
type BucketStatus string

const (
	StatusStable      BucketStatus = "stable"      // at or below 80% of target
	StatusDripping    BucketStatus = "dripping"    // above 80%, at or below target
	StatusOverflowing BucketStatus = "overflowing" // above target
)

// BucketSummary is the per-bucket slice of a monthly summary.
type BucketSummary struct {
	BucketID string       `json:"bucketId" firestore:"bucketId"`
	Name     string       `json:"name" firestore:"name"`
	Emoji    string       `json:"emoji" firestore:"emoji"`
	Spent    float64      `json:"spent" firestore:"spent"`
	Target   float64      `json:"target" firestore:"target"`
	Count    int          `json:"count" firestore:"count"`
	Status   BucketStatus `json:"status" firestore:"status"`
}

// MonthSummary aggregates a month's transactions. Once locked it is
// persisted and becomes immutable truth overriding live recomputation.
type MonthSummary struct {
	MonthKey         string          `json:"monthKey" firestore:"monthKey"`
	Locked           bool            `json:"locked" firestore:"locked"`
	LockedBy         string          `json:"lockedBy,omitempty" firestore:"lockedBy"`
	LockedAt         time.Time       `json:"lockedAt,omitempty" firestore:"lockedAt"`
	TotalSpent       float64         `json:"totalSpent" firestore:"totalSpent"`
	TotalIncome      float64         `json:"totalIncome" firestore:"totalIncome"`
	TransactionCount int             `json:"transactionCount" firestore:"transactionCount"`
	NeedsReview      int             `json:"needsReview" firestore:"needsReview"`
	Buckets          []BucketSummary `json:"buckets" firestore:"buckets"`
}

// PaystubLineItem is one raw deduction line extracted from a pay document.
type PaystubLineItem struct {
	Name     string  `json:"name" firestore:"name"`
	Amount   float64 `json:"amount" firestore:"amount"`
	Category string  `json:"category" firestore:"category"`
}

// Paystub is one record per uploaded pay document, keyed by the month
// derived from its pay date.
type Paystub struct {
	ID              string            `json:"paystubId" firestore:"paystubId"`
	UserID          string            `json:"userId" firestore:"userId"`
	MonthKey        string            `json:"monthKey" firestore:"monthKey"`
	PayDate         string            `json:"payDate" firestore:"payDate"`
	SourceName      string            `json:"source" firestore:"source"`
	Employer        string            `json:"employer" firestore:"employer"`
	GrossPay        float64           `json:"grossPay" firestore:"grossPay"`
	NetPay          float64           `json:"netPay" firestore:"netPay"`
	FederalTax      float64           `json:"federalTax" firestore:"federalTax"`
	StateTax        float64           `json:"stateTax" firestore:"stateTax"`
	FicaMedicare    float64           `json:"ficaMedicare" firestore:"ficaMedicare"`
	Retirement      float64           `json:"retirement" firestore:"retirement"`
	HsaFsa          float64           `json:"hsaFsa" firestore:"hsaFsa"`
	DebtPayments    float64           `json:"debtPayments" firestore:"debtPayments"`
	OtherDeductions float64           `json:"otherDeductions" firestore:"otherDeductions"`
	LineItems       []PaystubLineItem `json:"lineItems,omitempty" firestore:"lineItems"`
	RawFileKey      string            `json:"rawFileKey,omitempty" firestore:"rawFileKey"`
	UploadedAt      time.Time         `json:"uploadedAt" firestore:"uploadedAt"`
}

// RecurringBill is a fixed monthly bill that can be applied to a month as a
// recurring transaction.
type RecurringBill struct {
	ID        string    `json:"billId" firestore:"billId"`
	UserID    string    `json:"userId" firestore:"userId"`
	Name      string    `json:"name" firestore:"name"`
	Amount    float64   `json:"amount" firestore:"amount"`
	Bucket    string    `json:"bucket" firestore:"bucket"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
}
