package clarify

import (
	"strings"
	"testing"

	"github.com/ledgerworks/taxpilot/pkg/adapter"
	"github.com/ledgerworks/taxpilot/pkg/classify"
)

func taxClassification(subDomain string) classify.Classification {
	return classify.Classification{
		Domain:     classify.DomainTax,
		SubDomain:  subDomain,
		Complexity: classify.ComplexityBasic,
		Confidence: 0.9,
	}
}

func TestCorporateTaxRateWithoutJurisdiction(t *testing.T) {
	e := NewEngine()
	c := classify.New()

	query := "What is the corporate tax rate?"
	cls := c.Classify(query, classify.DocumentHint{})
	if cls.Domain != classify.DomainTax {
		t.Fatalf("classification domain = %q, want tax", cls.Domain)
	}

	analysis := e.Analyze(query, nil, cls)

	if analysis.RecommendedApproach != ApproachClarify {
		t.Fatalf("approach = %q, want clarify", analysis.RecommendedApproach)
	}
	if !analysis.NeedsClarification {
		t.Error("NeedsClarification should be true")
	}

	foundCritical := false
	for _, m := range analysis.MissingContext {
		if m.Category == "jurisdiction" && m.Importance == ImportanceCritical {
			foundCritical = true
		}
	}
	if !foundCritical {
		t.Errorf("expected a critical jurisdiction item, got %+v", analysis.MissingContext)
	}

	if len(analysis.Questions) == 0 || !strings.Contains(strings.ToLower(analysis.Questions[0]), "jurisdiction") {
		t.Errorf("first question should mention jurisdiction, got %v", analysis.Questions)
	}
}

func TestEstablishedContextSuppressesMissingItems(t *testing.T) {
	e := NewEngine()
	history := []adapter.Message{
		{Role: adapter.RoleUser, Content: "I'm in the United States and asking about tax year 2024."},
		{Role: adapter.RoleAssistant, Content: "Understood, US federal rules for 2024."},
	}

	analysis := e.Analyze("What is the corporate tax rate?", history, taxClassification("business_tax"))

	for _, m := range analysis.MissingContext {
		if m.Category == "jurisdiction" || m.Category == "tax_year" {
			t.Errorf("context from history should suppress %q, got %+v", m.Category, analysis.MissingContext)
		}
	}
	if analysis.RecommendedApproach != ApproachAnswer {
		t.Errorf("approach = %q, want answer", analysis.RecommendedApproach)
	}
	if analysis.ConversationContext.Jurisdiction != "US" || analysis.ConversationContext.TaxYear != "2024" {
		t.Errorf("context = %+v", analysis.ConversationContext)
	}
}

func TestDetermineApproachTable(t *testing.T) {
	critical := MissingItem{Category: "jurisdiction", Importance: ImportanceCritical}
	high := func(cat string) MissingItem {
		return MissingItem{Category: cat, Importance: ImportanceHigh}
	}
	medium := MissingItem{Category: "entity_type", Importance: ImportanceMedium}
	amb := Ambiguity{Term: "recently"}
	amb2 := Ambiguity{Term: "significant"}

	cases := []struct {
		name        string
		missing     []MissingItem
		ambiguities []Ambiguity
		query       string
		want        Approach
	}{
		{"critical always clarifies", []MissingItem{critical}, nil, "what is a w-2", ApproachClarify},
		{"two high clarifies", []MissingItem{high("a"), high("b")}, nil, "my taxes", ApproachClarify},
		{"two ambiguities clarify", nil, []Ambiguity{amb, amb2}, "my taxes", ApproachClarify},
		{"one high partial", []MissingItem{high("a")}, nil, "my taxes", ApproachPartialAnswer},
		{"one ambiguity partial", nil, []Ambiguity{amb}, "my taxes", ApproachPartialAnswer},
		{"one high one ambiguity partial", []MissingItem{high("a")}, []Ambiguity{amb}, "my taxes", ApproachPartialAnswer},
		{"general info answers", nil, nil, "what is depreciation?", ApproachAnswer},
		{"default answers", nil, nil, "help me with my books", ApproachAnswer},
		{"medium never gates", []MissingItem{medium}, nil, "help me with my books", ApproachAnswer},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := determineApproach(tc.missing, tc.ambiguities, tc.query)
			if got != tc.want {
				t.Errorf("determineApproach = %q, want %q", got, tc.want)
			}
			again := determineApproach(tc.missing, tc.ambiguities, tc.query)
			if again != got {
				t.Errorf("determineApproach not deterministic: %q then %q", got, again)
			}
		})
	}
}

func TestGenerateQuestionsCapAndOrder(t *testing.T) {
	missing := []MissingItem{
		{Category: "tax_year", Importance: ImportanceHigh, SuggestedQuestion: "Which tax year?"},
		{Category: "jurisdiction", Importance: ImportanceCritical, SuggestedQuestion: "Which jurisdiction?"},
		{Category: "filing_status", Importance: ImportanceHigh, SuggestedQuestion: "What filing status?"},
	}
	ambiguities := []Ambiguity{{Term: "recently"}, {Term: "significant"}}

	questions := generateQuestions(missing, ambiguities)

	if len(questions) != 3 {
		t.Fatalf("got %d questions, want cap of 3: %v", len(questions), questions)
	}
	if questions[0] != "Which jurisdiction?" {
		t.Errorf("critical question should come first, got %v", questions)
	}
}

func TestQuestionsPresentWheneverClarifying(t *testing.T) {
	e := NewEngine()

	queries := []string{
		"What is the corporate tax rate?",
		"Can I deduct my recent significant equipment purchases?",
	}
	for _, q := range queries {
		cls := classify.New().Classify(q, classify.DocumentHint{})
		analysis := e.Analyze(q, nil, cls)
		if analysis.RecommendedApproach == ApproachAnswer {
			continue
		}
		if len(analysis.Questions) == 0 {
			t.Errorf("%q: approach %q but no questions", q, analysis.RecommendedApproach)
		}
		if len(analysis.Questions) > 3 {
			t.Errorf("%q: %d questions exceeds cap", q, len(analysis.Questions))
		}
	}
}

func TestAmbiguityDetection(t *testing.T) {
	cases := []struct {
		query string
		terms []string
	}{
		{"i recently sold some stock", []string{"recently"}},
		{"we had significant expenses recently", []string{"recently", "significant"}},
		{"how is income taxed", nil},
		{"how is my income treated", []string{"income"}},
		{"my rental income and wage income", nil},
		{"i plan to sell soon", []string{"soon"}},
	}

	for _, tc := range cases {
		got := detectAmbiguities(strings.ToLower(tc.query))
		var terms []string
		for _, a := range got {
			terms = append(terms, a.Term)
		}
		if len(terms) != len(tc.terms) {
			t.Errorf("detectAmbiguities(%q) terms = %v, want %v", tc.query, terms, tc.terms)
			continue
		}
		for i := range terms {
			if terms[i] != tc.terms[i] {
				t.Errorf("detectAmbiguities(%q) terms = %v, want %v", tc.query, terms, tc.terms)
			}
		}
	}
}

func TestNuancesNeverGateTheDecision(t *testing.T) {
	e := NewEngine()

	analysis := e.Analyze(
		"What is a 1031 like-kind exchange?",
		nil,
		classify.Classification{Domain: classify.DomainGeneral, Complexity: classify.ComplexityBasic},
	)

	if len(analysis.DetectedNuances) == 0 {
		t.Fatal("expected a 1031 nuance")
	}
	if analysis.RecommendedApproach != ApproachAnswer {
		t.Errorf("nuances must not gate; approach = %q", analysis.RecommendedApproach)
	}
	if !strings.Contains(analysis.DetectedNuances[0], "45 days") {
		t.Errorf("nuance text = %q", analysis.DetectedNuances[0])
	}
}

func TestExtractContextFields(t *testing.T) {
	cases := []struct {
		name  string
		query string
		check func(t *testing.T, ctx Context)
	}{
		{"tax year", "planning for tax year 2023", func(t *testing.T, ctx Context) {
			if ctx.TaxYear != "2023" {
				t.Errorf("TaxYear = %q", ctx.TaxYear)
			}
		}},
		{"filing status", "we're married filing jointly in Canada", func(t *testing.T, ctx Context) {
			if ctx.FilingStatus != "married_filing_jointly" {
				t.Errorf("FilingStatus = %q", ctx.FilingStatus)
			}
			if ctx.Jurisdiction != "CA" {
				t.Errorf("Jurisdiction = %q", ctx.Jurisdiction)
			}
		}},
		{"entity", "my LLC uses accrual accounting", func(t *testing.T, ctx Context) {
			if ctx.EntityType != "llc" {
				t.Errorf("EntityType = %q", ctx.EntityType)
			}
			if ctx.AccountingMethod != "accrual" {
				t.Errorf("AccountingMethod = %q", ctx.AccountingMethod)
			}
		}},
		{"industry", "I run a consulting firm", func(t *testing.T, ctx Context) {
			if ctx.BusinessType != "consulting" {
				t.Errorf("BusinessType = %q", ctx.BusinessType)
			}
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.check(t, ExtractContext(nil, tc.query))
		})
	}
}

func TestLaterStatementsOverrideEarlier(t *testing.T) {
	history := []adapter.Message{
		{Role: adapter.RoleUser, Content: "This is about tax year 2022 in the United Kingdom."},
		{Role: adapter.RoleUser, Content: "Actually, make that tax year 2024."},
	}

	ctx := ExtractContext(history, "And my question concerns the United States.")

	if ctx.TaxYear != "2024" {
		t.Errorf("TaxYear = %q, want 2024", ctx.TaxYear)
	}
	if ctx.Jurisdiction != "US" {
		t.Errorf("Jurisdiction = %q, want US", ctx.Jurisdiction)
	}
}

func TestBusinessEntityRule(t *testing.T) {
	e := NewEngine()

	analysis := e.Analyze("How should my business handle payroll taxes in the US for 2024?",
		nil, taxClassification("business_tax"))

	found := false
	for _, m := range analysis.MissingContext {
		if m.Category == "entity_type" && m.Importance == ImportanceCritical {
			found = true
		}
	}
	if !found {
		t.Errorf("expected critical entity_type item, got %+v", analysis.MissingContext)
	}
	if analysis.RecommendedApproach != ApproachClarify {
		t.Errorf("approach = %q, want clarify", analysis.RecommendedApproach)
	}
}
