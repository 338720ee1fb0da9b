package solver

import (
	"math"
	"regexp"
)

// AmortizationResult is the output of the loan amortization solver.
type AmortizationResult struct {
	Principal      float64 `json:"principal"`
	AnnualRate     float64 `json:"annualRate"`
	TermYears      int     `json:"termYears"`
	MonthlyPayment float64 `json:"monthlyPayment"`
	TotalPaid      float64 `json:"totalPaid"`
	TotalInterest  float64 `json:"totalInterest"`
}

var (
	amortTriggerRe = regexp.MustCompile(`amortiz|mortgage|\bloan\b`)
	principalRe    = regexp.MustCompile(`(?:loan|mortgage|principal|borrow(?:ing)?)\s*(?:of|:|amount of)?\s*(\$?\d[\d,]*(?:\.\d+)?\s*(?:million|thousand|[km])?)`)
	amountLoanRe   = regexp.MustCompile(`(\$?\d[\d,]*(?:\.\d+)?\s*(?:million|thousand|[km])?)\s*(?:loan|mortgage)`)
)

// Amortize computes the level monthly payment for a fully amortizing
// loan. A zero rate degrades to straight division instead of dividing by
// zero.
func Amortize(principal, annualRate float64, termYears int) AmortizationResult {
	result := AmortizationResult{
		Principal:  principal,
		AnnualRate: annualRate,
		TermYears:  termYears,
	}
	months := termYears * 12
	if months <= 0 || principal <= 0 {
		return result
	}

	var payment float64
	if annualRate == 0 {
		payment = principal / float64(months)
	} else {
		r := annualRate / 12
		payment = principal * r / (1 - math.Pow(1+r, -float64(months)))
	}

	result.MonthlyPayment = round2(payment)
	result.TotalPaid = round2(result.MonthlyPayment * float64(months))
	result.TotalInterest = round2(result.TotalPaid - principal)
	return result
}

// extractAmortization fires on loan vocabulary plus a principal, a rate,
// and a term.
func extractAmortization(text string) (any, bool) {
	if !amortTriggerRe.MatchString(text) {
		return nil, false
	}

	principal, ok := amountAfter(principalRe, text)
	if !ok {
		principal, ok = amountAfter(amountLoanRe, text)
	}
	if !ok {
		return nil, false
	}

	rate, ok := percentAfter(text)
	if !ok {
		return nil, false
	}

	term, ok := yearsIn(text)
	if !ok {
		return nil, false
	}

	return Amortize(principal, rate, term), true
}
