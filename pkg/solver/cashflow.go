package solver

import (
	"math"
	"regexp"
)

// NPVResult is the output of the net present value solver.
type NPVResult struct {
	Rate      float64   `json:"rate"`
	CashFlows []float64 `json:"cashFlows"`
	Value     float64   `json:"value"`
}

// IRRResult is the output of the internal rate of return solver. Rate is
// meaningful only when Converged is true.
type IRRResult struct {
	CashFlows []float64 `json:"cashFlows"`
	Rate      float64   `json:"rate"`
	Converged bool      `json:"converged"`
}

var (
	npvTriggerRe  = regexp.MustCompile(`\bnpv\b|net present value`)
	irrTriggerRe  = regexp.MustCompile(`\birr\b|internal rate of return`)
	flowListRe    = regexp.MustCompile(`cash ?flows?\s*(?:of|:)?\s*((?:\$?\d[\d,]*(?:\.\d+)?\s*(?:million|thousand|[km])?(?:\s*,\s*|\s+and\s+|\s+)?)+)`)
	initialRe     = regexp.MustCompile(`initial (?:investment|outlay|cost)\s*(?:of|:)?\s*(\$?\d[\d,]*(?:\.\d+)?\s*(?:million|thousand|[km])?)`)
	discountRateR = regexp.MustCompile(`(?:discount |interest |hurdle )?rate\s*(?:of|:)?\s*(\d+(?:\.\d+)?)\s*%`)
)

// NPV discounts flows at rate. Flows are indexed from period zero, so an
// initial outlay belongs at flows[0] as a negative number.
func NPV(rate float64, flows []float64) NPVResult {
	value := 0.0
	for i, f := range flows {
		value += f / math.Pow(1+rate, float64(i))
	}
	return NPVResult{
		Rate:      rate,
		CashFlows: flows,
		Value:     round2(value),
	}
}

// IRR finds the rate where NPV crosses zero, by bisection. When the flows
// never change sign no root exists and Converged is false.
func IRR(flows []float64) IRRResult {
	result := IRRResult{CashFlows: flows}
	if len(flows) < 2 {
		return result
	}

	npvAt := func(rate float64) float64 {
		v := 0.0
		for i, f := range flows {
			v += f / math.Pow(1+rate, float64(i))
		}
		return v
	}

	lo, hi := -0.9999, 10.0
	fLo, fHi := npvAt(lo), npvAt(hi)
	if fLo*fHi > 0 {
		// Scan for a bracketing interval before giving up.
		found := false
		prev, prevV := lo, fLo
		for r := -0.9; r <= 10.0; r += 0.1 {
			v := npvAt(r)
			if prevV*v <= 0 {
				lo, hi, fLo = prev, r, prevV
				found = true
				break
			}
			prev, prevV = r, v
		}
		if !found {
			return result
		}
	}

	for i := 0; i < 200; i++ {
		mid := (lo + hi) / 2
		v := npvAt(mid)
		if math.Abs(v) < 1e-7 || hi-lo < 1e-9 {
			result.Rate = mid
			result.Converged = true
			return result
		}
		if fLo*v <= 0 {
			hi = mid
		} else {
			lo, fLo = mid, v
		}
	}

	result.Rate = (lo + hi) / 2
	result.Converged = true
	return result
}

// extractNPV needs a discount rate and a flow list; an initial investment
// becomes a negative period-zero flow.
func extractNPV(text string) (any, bool) {
	if !npvTriggerRe.MatchString(text) {
		return nil, false
	}

	rate, ok := rateIn(text)
	if !ok {
		return nil, false
	}
	flows, ok := flowsIn(text)
	if !ok {
		return nil, false
	}
	return NPV(rate, flows), true
}

// extractIRR needs an initial investment and at least one inflow so the
// sign change exists.
func extractIRR(text string) (any, bool) {
	if !irrTriggerRe.MatchString(text) {
		return nil, false
	}

	initial, ok := amountAfter(initialRe, text)
	if !ok {
		return nil, false
	}
	list := flowListRe.FindStringSubmatch(maskMatch(initialRe, text))
	if list == nil {
		return nil, false
	}
	inflows := amountList(list[1])
	if len(inflows) == 0 {
		return nil, false
	}

	flows := append([]float64{-initial}, inflows...)
	return IRR(flows), true
}

func rateIn(text string) (float64, bool) {
	if m := discountRateR.FindStringSubmatch(text); m != nil {
		if v, ok := parseAmount(m[1]); ok {
			return v / 100, true
		}
	}
	return percentAfter(text)
}

func flowsIn(text string) ([]float64, bool) {
	masked := maskMatch(discountRateR, text)

	var flows []float64
	if m := initialRe.FindStringSubmatch(masked); m != nil {
		if v, ok := parseAmount(m[1]); ok {
			flows = append(flows, -v)
		}
		masked = maskMatch(initialRe, masked)
	}

	list := flowListRe.FindStringSubmatch(masked)
	if list == nil {
		return nil, false
	}
	inflows := amountList(list[1])
	if len(inflows) == 0 {
		return nil, false
	}
	return append(flows, inflows...), true
}
