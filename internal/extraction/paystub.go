package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"bucketwise/internal/llm"
	"bucketwise/internal/model"
)

const paystubPrompt = `You are a paystub parser. Extract the following information from this paystub.

Return ONLY valid JSON with these exact fields (use 0.00 for any field not found):

{
    "grossPay": <total gross pay for this pay period as a number>,
    "netPay": <net/take-home pay as a number>,
    "payDate": "<pay date in YYYY-MM-DD format>",
    "employer": "<employer/company name>",
    "federalTax": <federal income tax withheld as a number>,
    "stateTax": <state income tax withheld as a number>,
    "ficaMedicare": <Social Security + Medicare combined as a number>,
    "retirement": <401k + Roth 401k + IRA contributions combined as a number>,
    "hsaFsa": <HSA + FSA contributions combined as a number>,
    "debtPayments": <401k loan repayments + other debt deductions as a number>,
    "otherDeductions": <any other deductions not in the above categories as a number>,
    "lineItems": [
        {"name": "<deduction name>", "amount": <amount>, "category": "<which of the above categories>"}
    ]
}

Important:
- All amounts should be for the CURRENT pay period only (not YTD)
- Use the "Current" column, NOT the "YTD" column
- federalTax = Federal Income Tax / FIT / Fed Withholding
- stateTax = State Income Tax / SIT / State Withholding
- ficaMedicare = Social Security (OASDI) + Medicare combined
- retirement = 401k + Roth 401k + 403b + IRA (employee contributions only)
- hsaFsa = Health Savings Account + Flexible Spending Account
- debtPayments = 401k Loan + any loan repayments deducted from pay
- otherDeductions = dental, vision, life insurance, disability, union dues, etc.
- Return ONLY the JSON, no markdown fences or extra text`

// ExtractPaystub parses a PDF or image pay document into a fixed-schema
// income record. Every deduction category is guaranteed present, defaulting
// to zero when the model omits it.
func (e *Extractor) ExtractPaystub(ctx context.Context, data []byte, fileName string) (*model.Paystub, error) {
	if e.gen == nil {
		return nil, newError(ErrModelUnavailable, "model API key not configured")
	}

	ext := fileExt(fileName)

	var req llm.Request
	switch {
	case ext == "pdf":
		text, err := extractPDFText(data, maxPaystubPages)
		if err != nil {
			return nil, err
		}
		e.log.Debug().Int("chars", len(text)).Msg("extracted paystub text from PDF")
		req = llm.Request{
			Prompt:          paystubPrompt + "\n\nPaystub content:\n\n" + text,
			MaxOutputTokens: paystubMaxTokens,
		}
	case imageMIMEs[ext] != "":
		req = llm.Request{
			Prompt:          paystubPrompt,
			Parts:           []llm.Part{{MIMEType: imageMIMEs[ext], Data: data}},
			MaxOutputTokens: paystubMaxTokens,
		}
	default:
		return nil, newError(ErrUnsupportedFormat,
			fmt.Sprintf("Unsupported file format: .%s. Use PDF or image (PNG/JPG).", ext))
	}

	raw, err := e.gen.Generate(ctx, req)
	if err != nil {
		return nil, wrapError(ErrModelUnavailable, "paystub extraction call failed", err)
	}
	return parsePaystubResponse(raw)
}

// flexMoney tolerates the model quoting numeric fields ("4100.25") and null
// or missing values, all of which coerce to a float with zero default.
type flexMoney float64

func (m *flexMoney) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*m = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*m = 0
		return nil
	}
	*m = flexMoney(v)
	return nil
}

type rawPaystub struct {
	GrossPay        flexMoney               `json:"grossPay"`
	NetPay          flexMoney               `json:"netPay"`
	PayDate         string                  `json:"payDate"`
	Employer        string                  `json:"employer"`
	FederalTax      flexMoney               `json:"federalTax"`
	StateTax        flexMoney               `json:"stateTax"`
	FicaMedicare    flexMoney               `json:"ficaMedicare"`
	Retirement      flexMoney               `json:"retirement"`
	HsaFsa          flexMoney               `json:"hsaFsa"`
	DebtPayments    flexMoney               `json:"debtPayments"`
	OtherDeductions flexMoney               `json:"otherDeductions"`
	LineItems       []model.PaystubLineItem `json:"lineItems"`
}

func parsePaystubResponse(raw string) (*model.Paystub, error) {
	cleaned := extractJSON(raw)

	var parsed rawPaystub
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, wrapError(ErrModelResponse, "model did not return a valid paystub object", err)
	}

	employer := parsed.Employer
	if employer == "" {
		employer = "Unknown"
	}

	return &model.Paystub{
		PayDate:         parsed.PayDate,
		Employer:        employer,
		GrossPay:        float64(parsed.GrossPay),
		NetPay:          float64(parsed.NetPay),
		FederalTax:      float64(parsed.FederalTax),
		StateTax:        float64(parsed.StateTax),
		FicaMedicare:    float64(parsed.FicaMedicare),
		Retirement:      float64(parsed.Retirement),
		HsaFsa:          float64(parsed.HsaFsa),
		DebtPayments:    float64(parsed.DebtPayments),
		OtherDeductions: float64(parsed.OtherDeductions),
		LineItems:       parsed.LineItems,
	}, nil
}
