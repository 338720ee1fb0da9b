package classify

import "strings"

// domainTerm scores one keyword or phrase toward a domain. Multi-word
// phrases carry more weight than bare keywords.
type domainTerm struct {
	term   string
	weight int
}

var domainTerms = map[Domain][]domainTerm{
	DomainTax: {
		{"tax", 2}, {"taxes", 2}, {"taxation", 2}, {"taxable income", 4},
		{"tax return", 4}, {"tax rate", 4}, {"corporate tax", 4}, {"income tax", 4},
		{"sales tax", 4}, {"tax credit", 4}, {"tax year", 3}, {"estimated tax", 4},
		{"deduction", 3}, {"deductible", 3}, {"write-off", 3}, {"withholding", 3},
		{"capital gains", 4}, {"filing status", 3}, {"irs", 3}, {"vat", 3},
		{"1099", 3}, {"w-2", 3}, {"self-employment", 3},
	},
	DomainAudit: {
		{"audit", 3}, {"auditor", 3}, {"audit trail", 4}, {"internal controls", 4},
		{"materiality", 4}, {"engagement letter", 4}, {"assurance", 3},
		{"misstatement", 4}, {"working papers", 4}, {"sampling risk", 4},
		{"sox", 3}, {"attestation", 3},
	},
	DomainReporting: {
		{"financial statement", 4}, {"financial statements", 4}, {"balance sheet", 4},
		{"income statement", 4}, {"cash flow statement", 4}, {"bookkeeping", 3},
		{"journal entry", 4}, {"general ledger", 4}, {"trial balance", 4},
		{"reconciliation", 3}, {"gaap", 3}, {"ifrs", 3}, {"accrual", 3},
		{"depreciation", 3}, {"amortization", 3}, {"chart of accounts", 4},
		{"closing entries", 4},
	},
	DomainCompliance: {
		{"compliance", 3}, {"regulation", 3}, {"regulatory", 3}, {"aml", 3},
		{"kyc", 3}, {"fbar", 4}, {"fatca", 4}, {"disclosure", 3},
		{"reporting requirement", 4}, {"reporting requirements", 4},
		{"statute of limitations", 4},
		{"penalty", 2}, {"licensing", 2}, {"beneficial ownership", 4},
	},
}

// subDomainGroups refine a domain when secondary terms give a clear signal.
var subDomainGroups = map[Domain][]struct {
	sub   string
	terms []string
}{
	DomainTax: {
		{"personal_tax", []string{
			"personal income", "my taxes", "my return", "my income", "individual",
			"filing status", "standard deduction", "itemized", "w-2", "single filer",
			"married filing",
		}},
		{"business_tax", []string{
			"corporate", "business tax", "llc", "s-corp", "c-corp", "s corporation",
			"c corporation", "partnership", "payroll tax", "corporation", "business expenses",
		}},
		{"international_tax", []string{
			"foreign", "treaty", "cross-border", "expat", "overseas", "fbar", "fatca",
			"transfer pricing",
		}},
	},
	DomainReporting: {
		{"financial_statements", []string{
			"balance sheet", "income statement", "cash flow statement",
			"financial statement", "financial statements",
		}},
		{"bookkeeping", []string{
			"journal entry", "general ledger", "trial balance", "reconciliation",
			"chart of accounts", "bookkeeping",
		}},
	},
}

// jurisdictionTerms maps textual cues to jurisdiction codes. Matching is
// word-boundary based; first appearance wins the ordering.
var jurisdictionTerms = []struct {
	term string
	code string
}{
	{"united states", "US"}, {"u.s.", "US"}, {"usa", "US"}, {"the us", "US"}, {"irs", "US"},
	{"internal revenue", "US"}, {"california", "US"}, {"new york", "US"},
	{"texas", "US"}, {"delaware", "US"}, {"401(k)", "US"}, {"w-2", "US"}, {"1099", "US"},
	{"united kingdom", "UK"}, {"uk", "UK"}, {"hmrc", "UK"}, {"britain", "UK"},
	{"england", "UK"},
	{"canada", "CA"}, {"canadian", "CA"}, {"cra", "CA"}, {"rrsp", "CA"},
	{"australia", "AU"}, {"australian", "AU"}, {"ato", "AU"}, {"superannuation", "AU"},
	{"germany", "DE"}, {"german", "DE"},
	{"france", "FR"}, {"french", "FR"},
	{"singapore", "SG"},
	{"india", "IN"},
	{"european union", "EU"}, {"eu directive", "EU"},
}

// expertTerms immediately grade a query expert.
var expertTerms = []string{
	"transfer pricing", "thin capitalization", "controlled foreign corporation",
	"subpart f", "gilti", "tax treaty", "consolidated return", "section 1031",
	"like-kind exchange", "wash sale", "carried interest", "pfic",
	"earnings stripping", "permanent establishment",
}

// advancedTerms raise complexity past intermediate.
var advancedTerms = []string{
	"multi-state", "nexus", "foreign income", "stock options", "r&d credit",
	"net operating loss", "alternative minimum tax", "depreciation recapture",
	"partnership allocation", "basis adjustment", "deferred tax", "goodwill impairment",
	"revenue recognition", "consolidation",
}

// Requirement-flag trigger sets.
var (
	documentTerms = []string{
		"attached", "this document", "the document", "uploaded", "this file",
		"this pdf", "this spreadsheet", "review the report", "enclosed",
	}
	researchTerms = []string{
		"latest", "recent changes", "current law", "new rules", "recent guidance",
		"up to date", "current rules", "recently enacted", "this year's changes",
	}
	realTimeTerms = []string{
		"current rate", "today", "exchange rate", "current price", "market price",
		"live rate", "as of today", "right now",
	}
	deepReasoningTerms = []string{
		"analyze", "analyse", "compare", "optimize", "optimise", "strategy",
		"restructure", "scenario", "trade-off", "pros and cons", "evaluate",
		"should i", "which is better",
	}
)

// matchTerm checks for term inside text at word boundaries, the same way
// routing triggers are matched.
func matchTerm(text, term string) bool {
	idx := strings.Index(text, term)
	for idx != -1 {
		boundedLeft := idx == 0 || !isWordChar(text[idx-1])
		end := idx + len(term)
		boundedRight := end >= len(text) || !isWordChar(text[end])
		if boundedLeft && boundedRight {
			return true
		}
		next := strings.Index(text[idx+1:], term)
		if next == -1 {
			return false
		}
		idx = idx + 1 + next
	}
	return false
}

// matchIndex returns the byte offset of the first word-bounded occurrence
// of term, or -1.
func matchIndex(text, term string) int {
	idx := strings.Index(text, term)
	for idx != -1 {
		boundedLeft := idx == 0 || !isWordChar(text[idx-1])
		end := idx + len(term)
		boundedRight := end >= len(text) || !isWordChar(text[end])
		if boundedLeft && boundedRight {
			return idx
		}
		next := strings.Index(text[idx+1:], term)
		if next == -1 {
			return -1
		}
		idx = idx + 1 + next
	}
	return -1
}

func matchAny(text string, terms []string) bool {
	for _, t := range terms {
		if matchTerm(text, t) {
			return true
		}
	}
	return false
}

func countMatches(text string, terms []string) int {
	n := 0
	for _, t := range terms {
		if matchTerm(text, t) {
			n++
		}
	}
	return n
}

func isWordChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_'
}
