// Package router maps a query classification and subscription tier onto a
// primary model, preferred provider, and ordered fallback list using the
// static policy table. Routing is a pure lookup with no I/O and no
// mutation, so every policy cell can be tested in isolation.
package router

import (
	"fmt"
	"sort"

	"github.com/ledgerworks/taxpilot/pkg/classify"
	"github.com/ledgerworks/taxpilot/pkg/config"
)

// downgradePenalty dampens decision confidence when the tier cap forces a
// weaker model than the policy cell selected.
const downgradePenalty = 0.15

// Router resolves classifications against one policy table.
type Router struct {
	policy *config.PolicyConfig
}

// New builds a Router. A nil policy uses the compiled-in table.
func New(policy *config.PolicyConfig) *Router {
	if policy == nil {
		policy = config.DefaultPolicyConfig()
	}
	return &Router{policy: policy}
}

// Route derives the decision for one classification under a subscription
// tier.
func (r *Router) Route(cls classify.Classification, tier string) Decision {
	target := r.policy.Route(string(cls.Domain), string(cls.Complexity))

	provider := target.Provider
	model := target.Model
	maxClass := r.policy.MaxClassFor(tier)
	downgraded := false

	if !config.ClassAllowed(r.policy.Catalog.ClassFor(model), maxClass) {
		capped := r.policy.Catalog.CapModelFor(provider, maxClass)
		if capped == "" {
			for _, p := range r.policy.Providers.Preference {
				if m := r.policy.Catalog.CapModelFor(p, maxClass); m != "" {
					provider, capped = p, m
					break
				}
			}
		}
		if capped != "" {
			model = capped
			downgraded = true
		}
	}

	confidence := cls.Confidence
	if downgraded {
		confidence -= downgradePenalty
	}
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}

	reasoning := fmt.Sprintf("%s/%s policy selects %s on %s",
		cls.Domain, cls.Complexity, model, provider)
	if downgraded {
		reasoning += fmt.Sprintf("; %s tier caps capability at %s", tier, maxClass)
	}

	return Decision{
		PrimaryModel:      model,
		PreferredProvider: provider,
		FallbackProviders: r.fallbacksFor(provider),
		SolversNeeded:     append([]string(nil), target.Solvers...),
		Reasoning:         reasoning,
		Confidence:        confidence,
	}
}

// fallbacksFor lists every other provider in fixed preference order. The
// preferred provider never appears and nothing repeats.
func (r *Router) fallbacksFor(preferred string) []string {
	fallbacks := make([]string, 0, len(r.policy.Providers.Preference))
	seen := map[string]bool{preferred: true}
	for _, p := range r.policy.Providers.Preference {
		if seen[p] {
			continue
		}
		seen[p] = true
		fallbacks = append(fallbacks, p)
	}
	return fallbacks
}

// Baselines returns the always-appended baseline providers.
func (r *Router) Baselines() []string {
	return append([]string(nil), r.policy.Providers.Baselines...)
}

// Routes lists every policy cell, ordered by domain then complexity, for
// inspection tooling.
func (r *Router) Routes() []RouteInfo {
	domains := make([]string, 0, len(r.policy.Domains))
	for d := range r.policy.Domains {
		domains = append(domains, d)
	}
	sort.Strings(domains)

	order := []string{
		string(classify.ComplexityBasic),
		string(classify.ComplexityIntermediate),
		string(classify.ComplexityAdvanced),
		string(classify.ComplexityExpert),
	}

	var routes []RouteInfo
	for _, d := range domains {
		for _, c := range order {
			target, ok := r.policy.Domains[d].Routes[c]
			if !ok {
				continue
			}
			routes = append(routes, RouteInfo{
				Domain:     d,
				Complexity: c,
				Provider:   target.Provider,
				Model:      target.Model,
				Solvers:    append([]string(nil), target.Solvers...),
			})
		}
	}
	return routes
}
