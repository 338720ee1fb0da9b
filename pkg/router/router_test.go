package router

import (
	"reflect"
	"testing"

	"github.com/ledgerworks/taxpilot/pkg/classify"
	"github.com/ledgerworks/taxpilot/pkg/config"
)

func classification(domain classify.Domain, complexity classify.Complexity) classify.Classification {
	return classify.Classification{Domain: domain, Complexity: complexity, Confidence: 0.9}
}

func TestRouteUsesPolicyCell(t *testing.T) {
	r := New(nil)

	got := r.Route(classification(classify.DomainTax, classify.ComplexityExpert), config.TierEnterprise)

	if got.PrimaryModel != "claude-opus-4-20250514" {
		t.Errorf("model = %q, want claude-opus-4-20250514", got.PrimaryModel)
	}
	if got.PreferredProvider != "anthropic" {
		t.Errorf("provider = %q, want anthropic", got.PreferredProvider)
	}
	if !reflect.DeepEqual(got.SolversNeeded, []string{"corporate_tax", "depreciation"}) {
		t.Errorf("solvers = %v", got.SolversNeeded)
	}
	if got.Reasoning == "" {
		t.Error("reasoning should not be empty")
	}
}

func TestTierCapsModelClass(t *testing.T) {
	r := New(nil)
	policy := config.DefaultPolicyConfig()

	domains := []classify.Domain{
		classify.DomainTax, classify.DomainAudit, classify.DomainReporting,
		classify.DomainCompliance, classify.DomainGeneral,
	}
	complexities := []classify.Complexity{
		classify.ComplexityBasic, classify.ComplexityIntermediate,
		classify.ComplexityAdvanced, classify.ComplexityExpert,
	}
	tiers := []string{config.TierFree, config.TierProfessional, config.TierEnterprise}

	for _, tier := range tiers {
		maxClass := policy.MaxClassFor(tier)
		for _, d := range domains {
			for _, c := range complexities {
				got := r.Route(classification(d, c), tier)
				class := policy.Catalog.ClassFor(got.PrimaryModel)
				if !config.ClassAllowed(class, maxClass) {
					t.Errorf("%s/%s on %s tier routed to %s (class %s), cap is %s",
						d, c, tier, got.PrimaryModel, class, maxClass)
				}
			}
		}
	}
}

func TestFreeTierDowngradeStaysOnProvider(t *testing.T) {
	r := New(nil)

	got := r.Route(classification(classify.DomainTax, classify.ComplexityExpert), config.TierFree)

	if got.PreferredProvider != "anthropic" {
		t.Errorf("provider = %q, want anthropic", got.PreferredProvider)
	}
	if got.PrimaryModel != "claude-3-5-haiku-20241022" {
		t.Errorf("model = %q, want the light anthropic model", got.PrimaryModel)
	}
	if got.Confidence >= 0.9 {
		t.Errorf("confidence = %f, want dampened below classification confidence", got.Confidence)
	}
}

func TestFallbacksExcludePreferredAndNeverRepeat(t *testing.T) {
	r := New(nil)

	for _, d := range []classify.Domain{classify.DomainTax, classify.DomainReporting, classify.DomainGeneral} {
		got := r.Route(classification(d, classify.ComplexityIntermediate), config.TierProfessional)

		seen := map[string]bool{}
		for _, p := range got.FallbackProviders {
			if p == got.PreferredProvider {
				t.Errorf("%s: fallbacks contain preferred provider %q", d, p)
			}
			if seen[p] {
				t.Errorf("%s: fallback %q repeats", d, p)
			}
			seen[p] = true
		}
		if len(got.FallbackProviders) != 3 {
			t.Errorf("%s: expected 3 fallbacks, got %v", d, got.FallbackProviders)
		}
	}
}

func TestRouteIsPureAndRepeatable(t *testing.T) {
	r := New(nil)
	cls := classification(classify.DomainReporting, classify.ComplexityAdvanced)

	first := r.Route(cls, config.TierEnterprise)
	first.SolversNeeded[0] = "mutated"
	first.FallbackProviders[0] = "mutated"

	second := r.Route(cls, config.TierEnterprise)
	if second.SolversNeeded[0] == "mutated" || second.FallbackProviders[0] == "mutated" {
		t.Error("decisions share slices with the policy table")
	}

	third := r.Route(cls, config.TierEnterprise)
	if !reflect.DeepEqual(second, third) {
		t.Errorf("repeated routing diverged:\n second=%+v\n third=%+v", second, third)
	}
}

func TestUnknownDomainUsesDefaultTarget(t *testing.T) {
	r := New(nil)

	got := r.Route(classify.Classification{Domain: "folklore", Complexity: "mystic", Confidence: 0.5}, config.TierEnterprise)

	if got.PrimaryModel != "claude-sonnet-4-20250514" || got.PreferredProvider != "anthropic" {
		t.Errorf("default route mismatch: %+v", got)
	}
}

func TestUnknownTierTreatedAsFree(t *testing.T) {
	r := New(nil)
	policy := config.DefaultPolicyConfig()

	got := r.Route(classification(classify.DomainAudit, classify.ComplexityExpert), "vip")

	class := policy.Catalog.ClassFor(got.PrimaryModel)
	if !config.ClassAllowed(class, config.ClassLight) {
		t.Errorf("unknown tier routed to %s (class %s), want light cap", got.PrimaryModel, class)
	}
}

func TestRoutesListsEveryPolicyCell(t *testing.T) {
	r := New(nil)

	routes := r.Routes()
	if len(routes) != 20 {
		t.Fatalf("expected 20 policy cells, got %d", len(routes))
	}
	for _, info := range routes {
		if info.Provider == "" || info.Model == "" {
			t.Errorf("incomplete route info: %+v", info)
		}
	}
}
