package clarify

import (
	"regexp"
	"strings"

	"github.com/ledgerworks/taxpilot/pkg/adapter"
	"github.com/ledgerworks/taxpilot/pkg/classify"
)

// Context holds the case-specific facts accumulated from the conversation.
// Every field is optional; empty means the fact was never stated.
type Context struct {
	Jurisdiction     string `json:"jurisdiction,omitempty"`
	TaxYear          string `json:"taxYear,omitempty"`
	BusinessType     string `json:"businessType,omitempty"`
	FilingStatus     string `json:"filingStatus,omitempty"`
	EntityType       string `json:"entityType,omitempty"`
	AccountingMethod string `json:"accountingMethod,omitempty"`
}

// contextRule extracts one field value from a text fragment. A non-zero
// group takes the captured submatch; otherwise fixed is stored.
type contextRule struct {
	re    *regexp.Regexp
	group int
	fixed string
	apply func(c *Context, v string)
}

// Within one text every matching rule applies in table order, so weaker
// patterns sit before the more explicit phrasings that should override
// them.
var contextRules = []contextRule{
	// Tax year: bare "for 2023" yields to explicit tax-year phrasing.
	{re: regexp.MustCompile(`\bfor (20\d{2})\b`), group: 1,
		apply: func(c *Context, v string) { c.TaxYear = v }},
	{re: regexp.MustCompile(`(20\d{2})\s+tax(?:es| year| return| filing)?\b`), group: 1,
		apply: func(c *Context, v string) { c.TaxYear = v }},
	{re: regexp.MustCompile(`tax year\s*(?:of|:)?\s*(20\d{2})`), group: 1,
		apply: func(c *Context, v string) { c.TaxYear = v }},

	// Filing status: "single" yields to any explicit married phrasing.
	{re: regexp.MustCompile(`\b(?:file|filing|filed) (?:as )?single\b|\bsingle filer\b|\bi(?:'m| am) single\b`), fixed: "single",
		apply: func(c *Context, v string) { c.FilingStatus = v }},
	{re: regexp.MustCompile(`qualifying widow`), fixed: "qualifying_widow",
		apply: func(c *Context, v string) { c.FilingStatus = v }},
	{re: regexp.MustCompile(`head of household`), fixed: "head_of_household",
		apply: func(c *Context, v string) { c.FilingStatus = v }},
	{re: regexp.MustCompile(`married filing separately|filing separately|\bmfs\b`), fixed: "married_filing_separately",
		apply: func(c *Context, v string) { c.FilingStatus = v }},
	{re: regexp.MustCompile(`married filing jointly|filing jointly|\bmfj\b`), fixed: "married_filing_jointly",
		apply: func(c *Context, v string) { c.FilingStatus = v }},

	// Legal entity form.
	{re: regexp.MustCompile(`\bllc\b|limited liability company`), fixed: "llc",
		apply: func(c *Context, v string) { c.EntityType = v }},
	{re: regexp.MustCompile(`\bs[- ]corp\b|\bs corporation\b`), fixed: "s_corp",
		apply: func(c *Context, v string) { c.EntityType = v }},
	{re: regexp.MustCompile(`\bc[- ]corp\b|\bc corporation\b`), fixed: "c_corp",
		apply: func(c *Context, v string) { c.EntityType = v }},
	{re: regexp.MustCompile(`\bpartnership\b`), fixed: "partnership",
		apply: func(c *Context, v string) { c.EntityType = v }},
	{re: regexp.MustCompile(`sole proprietor(?:ship)?`), fixed: "sole_proprietorship",
		apply: func(c *Context, v string) { c.EntityType = v }},
	{re: regexp.MustCompile(`non[- ]?profit|501\(c\)`), fixed: "nonprofit",
		apply: func(c *Context, v string) { c.EntityType = v }},
	{re: regexp.MustCompile(`\b(?:a|the|family|revocable|irrevocable) trust\b`), fixed: "trust",
		apply: func(c *Context, v string) { c.EntityType = v }},

	// Industry the business operates in.
	{re: regexp.MustCompile(`\b(restaurant|retail|consulting|construction|real estate|e-commerce|ecommerce|saas|software|freelance|manufacturing|trucking|healthcare|landscaping)\b`), group: 1,
		apply: func(c *Context, v string) { c.BusinessType = strings.ReplaceAll(v, "ecommerce", "e-commerce") }},

	// Accounting method.
	{re: regexp.MustCompile(`cash[- ](?:basis|method|accounting)`), fixed: "cash",
		apply: func(c *Context, v string) { c.AccountingMethod = v }},
	{re: regexp.MustCompile(`\baccrual\b`), fixed: "accrual",
		apply: func(c *Context, v string) { c.AccountingMethod = v }},
}

// ExtractContext scans the conversation history followed by the current
// query. Later statements override earlier ones, so a correction in the
// latest message wins.
func ExtractContext(history []adapter.Message, query string) Context {
	var ctx Context
	for _, msg := range history {
		scanInto(&ctx, msg.Content)
	}
	scanInto(&ctx, query)
	return ctx
}

func scanInto(ctx *Context, text string) {
	lowered := strings.ToLower(text)

	if codes := classify.DetectJurisdictions(lowered); len(codes) > 0 {
		ctx.Jurisdiction = codes[0]
	}

	for _, rule := range contextRules {
		m := rule.re.FindStringSubmatch(lowered)
		if m == nil {
			continue
		}
		if rule.group > 0 {
			rule.apply(ctx, m[rule.group])
		} else {
			rule.apply(ctx, rule.fixed)
		}
	}
}
