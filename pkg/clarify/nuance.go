package clarify

import "regexp"

// nuanceRule surfaces expert knowledge the user likely has not considered.
// Nuances are informational only and never gate the clarify decision.
type nuanceRule struct {
	re   *regexp.Regexp
	note string
}

var nuanceRules = []nuanceRule{
	{
		re:   regexp.MustCompile(`\bhome office\b`),
		note: "The home-office deduction has two methods (simplified and regular); eligibility requires regular and exclusive business use of the space.",
	},
	{
		re:   regexp.MustCompile(`\bdepreciat`),
		note: "Multiple depreciation approaches may be available (straight-line, declining balance, Section 179 expensing, bonus depreciation); the best choice depends on current and expected income.",
	},
	{
		re:   regexp.MustCompile(`\b(?:sell|sold|selling|loss)\b.*\b(?:stock|stocks|shares|securities)\b|\b(?:stock|stocks|shares|securities)\b.*\b(?:sell|sold|selling|loss)\b`),
		note: "Selling securities at a loss and repurchasing within 30 days triggers the wash-sale rule, which defers the loss.",
	},
	{
		re:   regexp.MustCompile(`\bforeign (?:account|accounts|bank)\b`),
		note: "Foreign financial accounts can trigger FBAR filing above $10,000 aggregate and FATCA reporting at higher thresholds, separately from income tax.",
	},
	{
		re:   regexp.MustCompile(`\b1031\b|\blike-kind\b`),
		note: "A 1031 exchange has strict timing: 45 days to identify replacement property and 180 days to close.",
	},
	{
		re:   regexp.MustCompile(`\bestimated tax(?:es)?\b`),
		note: "Safe-harbor rules can avoid underpayment penalties: pay at least 90% of the current year's tax or 100% (110% for higher incomes) of the prior year's.",
	},
}

// detectNuances returns the notes whose triggers appear in the lowercased
// query, in rule order.
func detectNuances(loweredQuery string) []string {
	var notes []string
	for _, rule := range nuanceRules {
		if rule.re.MatchString(loweredQuery) {
			notes = append(notes, rule.note)
		}
	}
	return notes
}
