package engine

import (
	"sort"

	"github.com/ledgerworks/taxpilot/pkg/router"
)

// buildChain produces the initial candidate list: preferred provider,
// then routing fallbacks, then the baseline providers, deduplicated and
// restricted to providers that actually have an adapter registered.
func (e *Engine) buildChain(decision router.Decision) []string {
	ordered := make([]string, 0, len(decision.FallbackProviders)+3)
	ordered = append(ordered, decision.PreferredProvider)
	ordered = append(ordered, decision.FallbackProviders...)
	ordered = append(ordered, e.policy.Providers.Baselines...)

	chain := make([]string, 0, len(ordered))
	seen := make(map[string]bool, len(ordered))
	for _, p := range ordered {
		if seen[p] {
			continue
		}
		seen[p] = true
		if _, ok := e.adapters[p]; !ok {
			continue
		}
		chain = append(chain, p)
	}
	return chain
}

// orderChain drops providers in cooldown and sorts the rest by health
// score, best first, stable on ties. If the cooldown filter empties the
// chain entirely, the unfiltered chain is used instead: attempting a
// rate-limited provider beats refusing to answer.
func (e *Engine) orderChain(chain []string) []string {
	filtered := make([]string, 0, len(chain))
	for _, p := range chain {
		if e.monitor.InCooldown(p) {
			continue
		}
		filtered = append(filtered, p)
	}
	if len(filtered) == 0 {
		filtered = append(filtered, chain...)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return e.monitor.HealthScore(filtered[i]) > e.monitor.HealthScore(filtered[j])
	})
	return filtered
}

// modelFor resolves the model a candidate provider should serve. The
// preferred provider uses the routed primary model; fallbacks get their
// own strongest model under the tier cap.
func (e *Engine) modelFor(provider, tier string, decision router.Decision) string {
	if provider == decision.PreferredProvider {
		return decision.PrimaryModel
	}
	return e.policy.Catalog.CapModelFor(provider, e.policy.MaxClassFor(tier))
}
