package clarify

import (
	"regexp"

	"github.com/ledgerworks/taxpilot/pkg/classify"
)

// Importance grades how badly a missing fact hurts the answer.
type Importance string

const (
	ImportanceCritical Importance = "critical"
	ImportanceHigh     Importance = "high"
	ImportanceMedium   Importance = "medium"
	ImportanceLow      Importance = "low"
)

// MissingItem is one fact the conversation never established.
type MissingItem struct {
	Category          string     `json:"category"`
	Importance        Importance `json:"importance"`
	Reason            string     `json:"reason"`
	SuggestedQuestion string     `json:"suggestedQuestion"`
}

// missingInput is what the rule predicates see.
type missingInput struct {
	cls   classify.Classification
	ctx   Context
	query string // lowercased
}

// missingRule pairs a predicate with the item it reports. Rules are
// evaluated in order; the first rule to claim a category wins it.
type missingRule struct {
	applies func(in missingInput) bool
	item    MissingItem
}

var (
	deductionRe = regexp.MustCompile(`\bdeduct(?:ion|ions|ible)?\b`)
	ownBizRe    = regexp.MustCompile(`\b(?:my|our) (?:business|company|firm|startup|practice|shop|store)\b|\bi (?:own|run|operate)\b|\bwe (?:own|run|operate)\b`)
)

var missingRules = []missingRule{
	{
		applies: func(in missingInput) bool {
			return in.cls.Domain == classify.DomainTax && in.ctx.Jurisdiction == ""
		},
		item: MissingItem{
			Category:          "jurisdiction",
			Importance:        ImportanceCritical,
			Reason:            "tax rules and rates differ by country and state",
			SuggestedQuestion: "Which tax jurisdiction does this concern (country, plus state or province if applicable)?",
		},
	},
	{
		applies: func(in missingInput) bool {
			return deductionRe.MatchString(in.query) && in.ctx.Jurisdiction == ""
		},
		item: MissingItem{
			Category:          "jurisdiction",
			Importance:        ImportanceCritical,
			Reason:            "deductibility depends on the taxing jurisdiction",
			SuggestedQuestion: "Which jurisdiction's rules should the deduction be checked against?",
		},
	},
	{
		applies: func(in missingInput) bool {
			return in.cls.Domain == classify.DomainCompliance && in.ctx.Jurisdiction == ""
		},
		item: MissingItem{
			Category:          "jurisdiction",
			Importance:        ImportanceCritical,
			Reason:            "compliance obligations are set by the regulator of a specific jurisdiction",
			SuggestedQuestion: "Which jurisdiction's regulator applies here?",
		},
	},
	{
		applies: func(in missingInput) bool {
			return ownBizRe.MatchString(in.query) && in.ctx.EntityType == ""
		},
		item: MissingItem{
			Category:          "entity_type",
			Importance:        ImportanceCritical,
			Reason:            "tax and reporting treatment changes with the legal form of the business",
			SuggestedQuestion: "What type of legal entity is your business (LLC, S corporation, C corporation, partnership, or sole proprietorship)?",
		},
	},
	{
		applies: func(in missingInput) bool {
			return in.cls.Domain == classify.DomainTax && in.ctx.TaxYear == ""
		},
		item: MissingItem{
			Category:          "tax_year",
			Importance:        ImportanceHigh,
			Reason:            "thresholds, brackets, and rules change between tax years",
			SuggestedQuestion: "Which tax year does this apply to?",
		},
	},
	{
		applies: func(in missingInput) bool {
			return in.cls.Domain == classify.DomainTax && in.cls.SubDomain == "personal_tax" && in.ctx.FilingStatus == ""
		},
		item: MissingItem{
			Category:          "filing_status",
			Importance:        ImportanceHigh,
			Reason:            "brackets and standard deductions depend on filing status",
			SuggestedQuestion: "What is your filing status (single, married filing jointly, married filing separately, or head of household)?",
		},
	},
	{
		applies: func(in missingInput) bool {
			return in.cls.Domain == classify.DomainReporting && in.ctx.AccountingMethod == ""
		},
		item: MissingItem{
			Category:          "accounting_method",
			Importance:        ImportanceHigh,
			Reason:            "cash and accrual books recognize the same transaction in different periods",
			SuggestedQuestion: "Do you keep your books on a cash or accrual basis?",
		},
	},
	{
		applies: func(in missingInput) bool {
			return in.cls.Domain == classify.DomainReporting && in.ctx.EntityType == ""
		},
		item: MissingItem{
			Category:          "entity_type",
			Importance:        ImportanceMedium,
			Reason:            "presentation and disclosure requirements vary with the entity form",
			SuggestedQuestion: "What kind of entity are the statements prepared for?",
		},
	},
}

// detectMissingContext walks the rule table and reports each category at
// most once, keeping the first (most important) hit.
func detectMissingContext(cls classify.Classification, ctx Context, loweredQuery string) []MissingItem {
	in := missingInput{cls: cls, ctx: ctx, query: loweredQuery}

	var items []MissingItem
	claimed := make(map[string]bool)
	for _, rule := range missingRules {
		if claimed[rule.item.Category] || !rule.applies(in) {
			continue
		}
		claimed[rule.item.Category] = true
		items = append(items, rule.item)
	}
	return items
}
