package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Model capability classes, ordered weakest to strongest.
const (
	ClassLight    = "light"
	ClassStandard = "standard"
	ClassFrontier = "frontier"
)

// Subscription tiers.
const (
	TierFree         = "free"
	TierProfessional = "professional"
	TierEnterprise   = "enterprise"
)

// PolicyConfig is the static routing policy: which model and provider serve
// a classified query, how subscription tiers cap model capability, and the
// fixed provider preference order used to build fallback chains.
type PolicyConfig struct {
	Domains   map[string]DomainPolicy `yaml:"domains"`
	Default   RouteTarget             `yaml:"default"`
	Tiers     map[string]TierPolicy   `yaml:"tiers"`
	Providers ProviderOrder           `yaml:"providers"`
	Catalog   ModelCatalog            `yaml:"catalog"`
}

// DomainPolicy maps complexity levels to route targets within one domain.
type DomainPolicy struct {
	Routes map[string]RouteTarget `yaml:"routes"`
}

// RouteTarget selects a model, provider, and expected solver set for one
// policy cell.
type RouteTarget struct {
	Provider string   `yaml:"provider"`
	Model    string   `yaml:"model"`
	Solvers  []string `yaml:"solvers,omitempty"`
}

// TierPolicy caps the model capability class a subscription tier may use.
type TierPolicy struct {
	MaxClass string `yaml:"max_class"`
}

// ProviderOrder holds the fixed preference list used to order fallback
// providers and the baseline providers appended to every candidate chain.
type ProviderOrder struct {
	Preference []string `yaml:"preference"`
	Baselines  []string `yaml:"baselines"`
}

// ModelCatalog maps canonical model ids to provider and capability class.
type ModelCatalog map[string]ModelInfo

// ModelInfo describes one catalog entry.
type ModelInfo struct {
	Provider string `yaml:"provider"`
	Class    string `yaml:"class"`
}

// classRank orders capability classes for tier gating.
func classRank(class string) int {
	switch class {
	case ClassLight:
		return 0
	case ClassStandard:
		return 1
	case ClassFrontier:
		return 2
	default:
		return -1
	}
}

// ClassAllowed reports whether class fits under maxClass.
func ClassAllowed(class, maxClass string) bool {
	return classRank(class) >= 0 && classRank(class) <= classRank(maxClass)
}

// ProviderFor returns the provider serving a catalog model, or "".
func (c ModelCatalog) ProviderFor(model string) string {
	return c[model].Provider
}

// ClassFor returns the capability class of a catalog model, or "".
func (c ModelCatalog) ClassFor(model string) string {
	return c[model].Class
}

// CapModelFor returns the strongest model of the given provider whose class
// fits under maxClass. Ties break on model name for determinism. Returns ""
// when the provider has no model under the cap.
func (c ModelCatalog) CapModelFor(provider, maxClass string) string {
	best := ""
	bestRank := -1
	for model, info := range c {
		if info.Provider != provider {
			continue
		}
		rank := classRank(info.Class)
		if rank < 0 || rank > classRank(maxClass) {
			continue
		}
		if rank > bestRank || (rank == bestRank && model < best) {
			best = model
			bestRank = rank
		}
	}
	return best
}

// ProviderModels returns the sorted catalog models of one provider.
func (c ModelCatalog) ProviderModels(provider string) []string {
	var models []string
	for model, info := range c {
		if info.Provider == provider {
			models = append(models, model)
		}
	}
	sort.Strings(models)
	return models
}

// Route returns the policy cell for (domain, complexity), falling back to
// the default target when the cell is absent.
func (p *PolicyConfig) Route(domain, complexity string) RouteTarget {
	if dp, ok := p.Domains[domain]; ok {
		if target, ok := dp.Routes[complexity]; ok {
			return target
		}
	}
	return p.Default
}

// MaxClassFor returns the capability ceiling for a tier. Unknown tiers get
// the free ceiling.
func (p *PolicyConfig) MaxClassFor(tier string) string {
	if tp, ok := p.Tiers[tier]; ok && classRank(tp.MaxClass) >= 0 {
		return tp.MaxClass
	}
	return ClassLight
}

// Validate checks internal consistency: every route target names a known
// provider and a cataloged model, tiers use known classes, and at least two
// baselines exist.
func (p *PolicyConfig) Validate() error {
	known := make(map[string]bool, len(p.Providers.Preference))
	for _, name := range p.Providers.Preference {
		known[name] = true
	}

	check := func(where string, target RouteTarget) error {
		if !known[target.Provider] {
			return fmt.Errorf("%s: provider %q not in preference list", where, target.Provider)
		}
		info, ok := p.Catalog[target.Model]
		if !ok {
			return fmt.Errorf("%s: model %q not in catalog", where, target.Model)
		}
		if info.Provider != target.Provider {
			return fmt.Errorf("%s: model %q belongs to %q, not %q", where, target.Model, info.Provider, target.Provider)
		}
		return nil
	}

	for domain, dp := range p.Domains {
		for complexity, target := range dp.Routes {
			if err := check(domain+"/"+complexity, target); err != nil {
				return err
			}
		}
	}
	if err := check("default", p.Default); err != nil {
		return err
	}

	for tier, tp := range p.Tiers {
		if classRank(tp.MaxClass) < 0 {
			return fmt.Errorf("tier %q: unknown class %q", tier, tp.MaxClass)
		}
	}

	for model, info := range p.Catalog {
		if classRank(info.Class) < 0 {
			return fmt.Errorf("catalog model %q: unknown class %q", model, info.Class)
		}
		if !known[info.Provider] {
			return fmt.Errorf("catalog model %q: provider %q not in preference list", model, info.Provider)
		}
	}

	if len(p.Providers.Baselines) < 2 {
		return fmt.Errorf("at least two baseline providers are required, have %d", len(p.Providers.Baselines))
	}
	for _, name := range p.Providers.Baselines {
		if !known[name] {
			return fmt.Errorf("baseline provider %q not in preference list", name)
		}
	}

	return nil
}

// LoadPolicyConfig reads a policy file, layering it over the defaults so a
// partial file only overrides what it names.
func LoadPolicyConfig(path string) (*PolicyConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy config: %w", err)
	}

	cfg := DefaultPolicyConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse policy config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid policy config: %w", err)
	}

	return cfg, nil
}

// DefaultPolicyConfig returns the compiled-in policy table.
func DefaultPolicyConfig() *PolicyConfig {
	return &PolicyConfig{
		Domains: map[string]DomainPolicy{
			"tax": {Routes: map[string]RouteTarget{
				"basic":        {Provider: "anthropic", Model: "claude-3-5-haiku-20241022", Solvers: []string{"corporate_tax"}},
				"intermediate": {Provider: "anthropic", Model: "claude-sonnet-4-20250514", Solvers: []string{"corporate_tax"}},
				"advanced":     {Provider: "anthropic", Model: "claude-sonnet-4-20250514", Solvers: []string{"corporate_tax", "depreciation"}},
				"expert":       {Provider: "anthropic", Model: "claude-opus-4-20250514", Solvers: []string{"corporate_tax", "depreciation"}},
			}},
			"audit": {Routes: map[string]RouteTarget{
				"basic":        {Provider: "google", Model: "gemini-2.0-flash"},
				"intermediate": {Provider: "google", Model: "gemini-2.0-pro"},
				"advanced":     {Provider: "anthropic", Model: "claude-sonnet-4-20250514"},
				"expert":       {Provider: "anthropic", Model: "claude-opus-4-20250514"},
			}},
			"reporting": {Routes: map[string]RouteTarget{
				"basic":        {Provider: "openai", Model: "gpt-5.2-instant", Solvers: []string{"depreciation", "amortization"}},
				"intermediate": {Provider: "openai", Model: "gpt-5.2-thinking", Solvers: []string{"depreciation", "amortization"}},
				"advanced":     {Provider: "openai", Model: "gpt-5.2-thinking", Solvers: []string{"depreciation", "amortization", "npv"}},
				"expert":       {Provider: "openai", Model: "gpt-5.2-pro", Solvers: []string{"depreciation", "amortization", "npv", "irr"}},
			}},
			"compliance": {Routes: map[string]RouteTarget{
				"basic":        {Provider: "anthropic", Model: "claude-3-5-haiku-20241022"},
				"intermediate": {Provider: "anthropic", Model: "claude-sonnet-4-20250514"},
				"advanced":     {Provider: "anthropic", Model: "claude-sonnet-4-20250514"},
				"expert":       {Provider: "anthropic", Model: "claude-opus-4-20250514"},
			}},
			"general": {Routes: map[string]RouteTarget{
				"basic":        {Provider: "deepseek", Model: "deepseek-chat", Solvers: []string{"npv", "irr", "amortization"}},
				"intermediate": {Provider: "google", Model: "gemini-2.0-flash", Solvers: []string{"npv", "irr", "amortization"}},
				"advanced":     {Provider: "google", Model: "gemini-2.0-pro", Solvers: []string{"npv", "irr", "amortization"}},
				"expert":       {Provider: "anthropic", Model: "claude-sonnet-4-20250514", Solvers: []string{"npv", "irr", "amortization"}},
			}},
		},
		Default: RouteTarget{Provider: "anthropic", Model: "claude-sonnet-4-20250514"},
		Tiers: map[string]TierPolicy{
			TierFree:         {MaxClass: ClassLight},
			TierProfessional: {MaxClass: ClassStandard},
			TierEnterprise:   {MaxClass: ClassFrontier},
		},
		Providers: ProviderOrder{
			Preference: []string{"anthropic", "openai", "google", "deepseek"},
			Baselines:  []string{"anthropic", "openai"},
		},
		Catalog: ModelCatalog{
			"claude-3-5-haiku-20241022": {Provider: "anthropic", Class: ClassLight},
			"claude-sonnet-4-20250514":  {Provider: "anthropic", Class: ClassStandard},
			"claude-opus-4-20250514":    {Provider: "anthropic", Class: ClassFrontier},
			"gpt-5.2-instant":           {Provider: "openai", Class: ClassLight},
			"gpt-5.2-thinking":          {Provider: "openai", Class: ClassStandard},
			"gpt-5.2-pro":               {Provider: "openai", Class: ClassFrontier},
			"gemini-2.0-flash":          {Provider: "google", Class: ClassLight},
			"gemini-2.0-pro":            {Provider: "google", Class: ClassStandard},
			"deepseek-chat":             {Provider: "deepseek", Class: ClassLight},
			"deepseek-reasoner":         {Provider: "deepseek", Class: ClassStandard},
		},
	}
}
