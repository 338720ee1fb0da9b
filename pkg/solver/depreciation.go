package solver

import "regexp"

// Depreciation methods.
const (
	MethodStraightLine    = "straight_line"
	MethodDoubleDeclining = "double_declining"
)

// DepreciationYear is one row of a depreciation schedule.
type DepreciationYear struct {
	Year        int     `json:"year"`
	Expense     float64 `json:"expense"`
	Accumulated float64 `json:"accumulated"`
	BookValue   float64 `json:"bookValue"`
}

// DepreciationResult is the output of the depreciation solver.
type DepreciationResult struct {
	Method        string             `json:"method"`
	Cost          float64            `json:"cost"`
	Salvage       float64            `json:"salvage"`
	LifeYears     int                `json:"lifeYears"`
	AnnualExpense float64            `json:"annualExpense"`
	Schedule      []DepreciationYear `json:"schedule"`
}

var (
	depreciationTriggerRe = regexp.MustCompile(`depreciat`)
	salvageRe             = regexp.MustCompile(`salvage (?:value )?(?:of |:)?\s*(\$?\d[\d,]*(?:\.\d+)?\s*(?:million|thousand|[km])?)`)
	decliningRe           = regexp.MustCompile(`double[- ]declining|declining[- ]balance|\bddb\b`)

	// Cost detection prefers amounts tied to asset vocabulary, then any
	// dollar-marked figure, so unrelated numbers elsewhere in the query
	// are not mistaken for the cost.
	costBeforeNounRe = regexp.MustCompile(`(\$?\d[\d,]*(?:\.\d+)?\s*(?:million|thousand|[km])?)\s*(?:asset|equipment|machine|machinery|property|vehicle|building|computer)`)
	nounBeforeCostRe = regexp.MustCompile(`(?:asset|equipment|machine|machinery|property|vehicle|building|computer|cost(?:ing)?|purchased?|bought)\s*(?:of|:|for|worth|at|valued at)?\s*(\$?\d[\d,]*(?:\.\d+)?\s*(?:million|thousand|[km])?)`)
	dollarAmountRe   = regexp.MustCompile(`\$\d[\d,]*(?:\.\d+)?\s*(?:million|thousand|[km])?\b`)
)

// Depreciate builds a year-by-year schedule. Inputs outside the sensible
// range are clamped rather than rejected: salvage is bounded by cost and a
// non-positive life yields an empty schedule.
func Depreciate(cost, salvage float64, lifeYears int, method string) DepreciationResult {
	if salvage < 0 {
		salvage = 0
	}
	if salvage > cost {
		salvage = cost
	}
	result := DepreciationResult{
		Method:    method,
		Cost:      cost,
		Salvage:   salvage,
		LifeYears: lifeYears,
	}
	if lifeYears <= 0 {
		return result
	}

	switch method {
	case MethodDoubleDeclining:
		rate := 2.0 / float64(lifeYears)
		book := cost
		accumulated := 0.0
		for year := 1; year <= lifeYears; year++ {
			expense := book * rate
			if book-expense < salvage {
				expense = book - salvage
			}
			if expense < 0 {
				expense = 0
			}
			expense = round2(expense)
			accumulated = round2(accumulated + expense)
			book = round2(book - expense)
			result.Schedule = append(result.Schedule, DepreciationYear{
				Year: year, Expense: expense, Accumulated: accumulated, BookValue: book,
			})
		}
	default:
		result.Method = MethodStraightLine
		annual := round2((cost - salvage) / float64(lifeYears))
		result.AnnualExpense = annual
		accumulated := 0.0
		book := cost
		for year := 1; year <= lifeYears; year++ {
			expense := annual
			if year == lifeYears {
				// Final year absorbs rounding drift so book lands on salvage.
				expense = round2(book - salvage)
			}
			accumulated = round2(accumulated + expense)
			book = round2(book - expense)
			result.Schedule = append(result.Schedule, DepreciationYear{
				Year: year, Expense: expense, Accumulated: accumulated, BookValue: book,
			})
		}
	}
	return result
}

// extractDepreciation fires on depreciation vocabulary plus a cost and a
// useful life. The life span is masked before the cost scan so "over 10
// years" is never mistaken for the asset cost.
func extractDepreciation(text string) (any, bool) {
	if !depreciationTriggerRe.MatchString(text) {
		return nil, false
	}

	life, ok := yearsIn(text)
	if !ok {
		return nil, false
	}

	salvage := 0.0
	if v, okSalvage := amountAfter(salvageRe, text); okSalvage {
		salvage = v
	}

	masked := maskMatch(yearsRe, maskMatch(salvageRe, text))
	cost, ok := costIn(masked)
	if !ok {
		return nil, false
	}

	method := MethodStraightLine
	if decliningRe.MatchString(text) {
		method = MethodDoubleDeclining
	}

	return Depreciate(cost, salvage, life, method), true
}

func costIn(text string) (float64, bool) {
	if v, ok := amountAfter(costBeforeNounRe, text); ok {
		return v, true
	}
	if v, ok := amountAfter(nounBeforeCostRe, text); ok {
		return v, true
	}
	if m := dollarAmountRe.FindString(text); m != "" {
		if v, ok := parseAmount(m); ok {
			return v, true
		}
	}
	return firstAmount(text)
}
