package solver

import (
	"regexp"

	"github.com/ledgerworks/taxpilot/pkg/classify"
)

// Headline corporate income tax rates by jurisdiction code. The engine
// treats these as indicative figures for quick calculations, not filing
// advice.
var corporateRates = map[string]float64{
	"US": 0.21,
	"UK": 0.25,
	"CA": 0.15,
	"AU": 0.30,
	"DE": 0.30,
	"FR": 0.25,
	"SG": 0.17,
	"IN": 0.25,
	"EU": 0.25,
}

const defaultCorporateJurisdiction = "US"

// CorporateTaxResult is the output of the corporate tax solver.
type CorporateTaxResult struct {
	Jurisdiction  string  `json:"jurisdiction"`
	Rate          float64 `json:"rate"`
	TaxableIncome float64 `json:"taxableIncome"`
	Tax           float64 `json:"tax"`
	AfterTax      float64 `json:"afterTax"`
}

var (
	corporateTaxTriggerRe = regexp.MustCompile(`corporate (?:income )?tax|corporation tax`)
	incomeAmountRe        = regexp.MustCompile(`(?:income|profits?|earnings|revenue)\s*(?:of|:)?\s*(\$?\d[\d,]*(?:\.\d+)?\s*(?:million|thousand|[km])?)`)
	amountIncomeRe        = regexp.MustCompile(`(\$?\d[\d,]*(?:\.\d+)?\s*(?:million|thousand|[km])?)\s*(?:of\s+)?(?:taxable income|income|profits?)`)
)

// CorporateTax applies the headline rate for a jurisdiction to taxable
// income. Unknown jurisdictions use the default.
func CorporateTax(income float64, jurisdiction string) CorporateTaxResult {
	if jurisdiction == "" {
		jurisdiction = defaultCorporateJurisdiction
	}
	rate, ok := corporateRates[jurisdiction]
	if !ok {
		jurisdiction = defaultCorporateJurisdiction
		rate = corporateRates[jurisdiction]
	}
	tax := round2(income * rate)
	return CorporateTaxResult{
		Jurisdiction:  jurisdiction,
		Rate:          rate,
		TaxableIncome: income,
		Tax:           tax,
		AfterTax:      round2(income - tax),
	}
}

// extractCorporateTax fires when the query names corporate tax and states
// an income figure.
func extractCorporateTax(text string) (any, bool) {
	if !corporateTaxTriggerRe.MatchString(text) {
		return nil, false
	}

	income, ok := amountAfter(incomeAmountRe, text)
	if !ok {
		income, ok = amountAfter(amountIncomeRe, text)
	}
	if !ok {
		return nil, false
	}

	jurisdiction := ""
	if codes := classify.DetectJurisdictions(text); len(codes) > 0 {
		jurisdiction = codes[0]
	}

	return CorporateTax(income, jurisdiction), true
}
