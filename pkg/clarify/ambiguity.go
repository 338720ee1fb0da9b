package clarify

import "regexp"

// Ambiguity flags a vague phrase whose precise meaning changes the answer.
// Detection is independent of the missing-context rules.
type Ambiguity struct {
	Term        string `json:"term"`
	Description string `json:"description"`
}

type ambiguityRule struct {
	term        string
	re          *regexp.Regexp
	description string
	question    string
}

var ambiguityRules = []ambiguityRule{
	{
		term:        "recently",
		re:          regexp.MustCompile(`\brecently\b|\ba while ago\b|\bsome time ago\b`),
		description: "the time frame is vague; exact dates can change the answer",
		question:    "When exactly did this happen (month and year)?",
	},
	{
		term:        "significant",
		re:          regexp.MustCompile(`\bsignificant\b|\bsubstantial\b|\ba lot of\b|\blarge amount\b`),
		description: "the amount is vague; thresholds depend on the actual figure",
		question:    "Roughly what dollar amount is involved?",
	},
	{
		term:        "income",
		re:          nil, // handled by bare-income check below
		description: "the kind of income is unspecified; different income types are taxed differently",
		question:    "What type of income is this (wages, self-employment, investment, rental, or other)?",
	},
	{
		term:        "expenses",
		re:          regexp.MustCompile(`\bsome expenses\b|\bvarious expenses\b|\bmiscellaneous expenses\b`),
		description: "the expense categories are unspecified; deductibility is category-specific",
		question:    "Which expense categories are these (travel, meals, equipment, supplies, other)?",
	},
	{
		term:        "soon",
		re:          regexp.MustCompile(`\bsoon\b|\bshortly\b|\bin the near future\b`),
		description: "the planned timing is vague; deadlines may apply",
		question:    "What date are you planning this for?",
	},
}

var (
	// A bare "income" is ambiguous; a qualified one or the unrelated
	// senses ("income tax", "income statement") are not.
	incomeQualifiedRe = regexp.MustCompile(`\b(?:gross|net|taxable|ordinary|passive|rental|self-employment|investment|interest|dividend|foreign|business|earned|wage) income\b|\bincome (?:tax|taxes|taxed|taxation|statement|statements)\b`)
	incomeBareRe      = regexp.MustCompile(`\bincome\b`)
)

// detectAmbiguities scans the lowercased query for vague phrasing.
func detectAmbiguities(loweredQuery string) []Ambiguity {
	var found []Ambiguity
	for _, rule := range ambiguityRules {
		switch {
		case rule.re != nil && rule.re.MatchString(loweredQuery):
			found = append(found, Ambiguity{Term: rule.term, Description: rule.description})
		case rule.re == nil && hasBareIncome(loweredQuery):
			found = append(found, Ambiguity{Term: rule.term, Description: rule.description})
		}
	}
	return found
}

func hasBareIncome(loweredQuery string) bool {
	cleaned := incomeQualifiedRe.ReplaceAllString(loweredQuery, " ")
	return incomeBareRe.MatchString(cleaned)
}

// questionFor maps an ambiguity back to its fixed clarifying question.
func questionFor(a Ambiguity) string {
	for _, rule := range ambiguityRules {
		if rule.term == a.Term {
			return rule.question
		}
	}
	return ""
}
