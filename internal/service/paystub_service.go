package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"bucketwise/internal/blob"
	"bucketwise/internal/extraction"
	"bucketwise/internal/model"
	"bucketwise/internal/store"
)

// PaystubService handles pay-document upload, correction and totals.
type PaystubService struct {
	store     store.Store
	blobs     blob.Store
	extractor *extraction.Extractor
	log       zerolog.Logger
}

func NewPaystubService(s store.Store, b blob.Store, e *extraction.Extractor, log zerolog.Logger) *PaystubService {
	return &PaystubService{store: s, blobs: b, extractor: e, log: log}
}

// Upload extracts a pay document and persists the result. The month key
// derives from the pay date, falling back to the current month when the model
// could not find one.
func (s *PaystubService) Upload(ctx context.Context, userID, fileName, sourceName string, data []byte) (*model.Paystub, error) {
	if len(data) == 0 {
		return nil, validationf("fileContent (base64-encoded PDF or image) is required")
	}
	if sourceName == "" {
		sourceName = "Primary Job"
	}

	paystubID := uuid.NewString()
	rawKey := fmt.Sprintf("uploads/paystubs/%s/%s/%s", userID, paystubID, fileName)
	if err := s.blobs.Put(ctx, rawKey, data, contentTypeFor(fileName)); err != nil {
		return nil, fmt.Errorf("store paystub file: %w", err)
	}

	stub, err := s.extractor.ExtractPaystub(ctx, data, fileName)
	if err != nil {
		return nil, err
	}

	monthKey := monthKeyFromDate(stub.PayDate)
	if monthKey == "" {
		monthKey = time.Now().UTC().Format("2006-01")
	}

	stub.ID = paystubID
	stub.UserID = userID
	stub.MonthKey = monthKey
	stub.SourceName = sourceName
	stub.RawFileKey = rawKey
	stub.UploadedAt = time.Now().UTC()

	if err := s.store.PutPaystub(ctx, userID, *stub); err != nil {
		return nil, fmt.Errorf("persist paystub: %w", err)
	}

	s.log.Info().Str("paystubId", paystubID).Str("monthKey", monthKey).Msg("paystub processed")
	return stub, nil
}

// PaystubTotals sums each money field across a list of paystubs.
type PaystubTotals struct {
	GrossPay        float64 `json:"grossPay"`
	NetPay          float64 `json:"netPay"`
	FederalTax      float64 `json:"federalTax"`
	StateTax        float64 `json:"stateTax"`
	FicaMedicare    float64 `json:"ficaMedicare"`
	Retirement      float64 `json:"retirement"`
	HsaFsa          float64 `json:"hsaFsa"`
	DebtPayments    float64 `json:"debtPayments"`
	OtherDeductions float64 `json:"otherDeductions"`
}

// PaystubList is a month's paystubs with aggregate totals.
type PaystubList struct {
	MonthKey string          `json:"monthKey"`
	Paystubs []model.Paystub `json:"paystubs"`
	Totals   PaystubTotals   `json:"totals"`
	Count    int             `json:"count"`
}

func (s *PaystubService) List(ctx context.Context, userID, monthKey string) (*PaystubList, error) {
	stubs, err := s.store.ListPaystubsByMonth(ctx, userID, monthKey)
	if err != nil {
		return nil, fmt.Errorf("list paystubs: %w", err)
	}

	var totals PaystubTotals
	for _, stub := range stubs {
		totals.GrossPay += stub.GrossPay
		totals.NetPay += stub.NetPay
		totals.FederalTax += stub.FederalTax
		totals.StateTax += stub.StateTax
		totals.FicaMedicare += stub.FicaMedicare
		totals.Retirement += stub.Retirement
		totals.HsaFsa += stub.HsaFsa
		totals.DebtPayments += stub.DebtPayments
		totals.OtherDeductions += stub.OtherDeductions
	}
	totals.GrossPay = round2(totals.GrossPay)
	totals.NetPay = round2(totals.NetPay)
	totals.FederalTax = round2(totals.FederalTax)
	totals.StateTax = round2(totals.StateTax)
	totals.FicaMedicare = round2(totals.FicaMedicare)
	totals.Retirement = round2(totals.Retirement)
	totals.HsaFsa = round2(totals.HsaFsa)
	totals.DebtPayments = round2(totals.DebtPayments)
	totals.OtherDeductions = round2(totals.OtherDeductions)

	if stubs == nil {
		stubs = []model.Paystub{}
	}
	return &PaystubList{MonthKey: monthKey, Paystubs: stubs, Totals: totals, Count: len(stubs)}, nil
}

// PaystubUpdate carries user corrections to parsed amounts; nil means
// unchanged.
type PaystubUpdate struct {
	GrossPay        *float64 `json:"grossPay"`
	NetPay          *float64 `json:"netPay"`
	FederalTax      *float64 `json:"federalTax"`
	StateTax        *float64 `json:"stateTax"`
	FicaMedicare    *float64 `json:"ficaMedicare"`
	Retirement      *float64 `json:"retirement"`
	HsaFsa          *float64 `json:"hsaFsa"`
	DebtPayments    *float64 `json:"debtPayments"`
	OtherDeductions *float64 `json:"otherDeductions"`
	SourceName      *string  `json:"source"`
	Employer        *string  `json:"employer"`
	PayDate         *string  `json:"payDate"`
}

func (u PaystubUpdate) empty() bool {
	return u.GrossPay == nil && u.NetPay == nil && u.FederalTax == nil &&
		u.StateTax == nil && u.FicaMedicare == nil && u.Retirement == nil &&
		u.HsaFsa == nil && u.DebtPayments == nil && u.OtherDeductions == nil &&
		u.SourceName == nil && u.Employer == nil && u.PayDate == nil
}

// Update applies user corrections. A changed pay date re-derives the month
// key so the paystub moves to the right month.
func (s *PaystubService) Update(ctx context.Context, userID, paystubID string, update PaystubUpdate) (*model.Paystub, error) {
	if update.empty() {
		return nil, validationf("nothing to update")
	}

	stub, err := s.store.GetPaystub(ctx, userID, paystubID)
	if err != nil {
		return nil, err
	}

	if update.GrossPay != nil {
		stub.GrossPay = *update.GrossPay
	}
	if update.NetPay != nil {
		stub.NetPay = *update.NetPay
	}
	if update.FederalTax != nil {
		stub.FederalTax = *update.FederalTax
	}
	if update.StateTax != nil {
		stub.StateTax = *update.StateTax
	}
	if update.FicaMedicare != nil {
		stub.FicaMedicare = *update.FicaMedicare
	}
	if update.Retirement != nil {
		stub.Retirement = *update.Retirement
	}
	if update.HsaFsa != nil {
		stub.HsaFsa = *update.HsaFsa
	}
	if update.DebtPayments != nil {
		stub.DebtPayments = *update.DebtPayments
	}
	if update.OtherDeductions != nil {
		stub.OtherDeductions = *update.OtherDeductions
	}
	if update.SourceName != nil {
		stub.SourceName = *update.SourceName
	}
	if update.Employer != nil {
		stub.Employer = *update.Employer
	}
	if update.PayDate != nil {
		stub.PayDate = *update.PayDate
		if mk := monthKeyFromDate(*update.PayDate); mk != "" {
			stub.MonthKey = mk
		}
	}

	if err := s.store.PutPaystub(ctx, userID, *stub); err != nil {
		return nil, fmt.Errorf("update paystub: %w", err)
	}
	return stub, nil
}

// Delete removes a paystub and its stored raw file.
func (s *PaystubService) Delete(ctx context.Context, userID, paystubID string) error {
	stub, err := s.store.GetPaystub(ctx, userID, paystubID)
	if err != nil {
		return err
	}
	if stub.RawFileKey != "" {
		if err := s.blobs.Delete(ctx, stub.RawFileKey); err != nil && !errors.Is(err, blob.ErrNotFound) {
			s.log.Warn().Err(err).Str("key", stub.RawFileKey).Msg("failed to delete paystub file")
		}
	}
	return s.store.DeletePaystub(ctx, userID, paystubID)
}
