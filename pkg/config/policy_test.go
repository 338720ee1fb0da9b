package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDefaultPolicyConfigIsValid(t *testing.T) {
	cfg := DefaultPolicyConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default policy invalid: %v", err)
	}
}

func TestEveryDomainCoversEveryComplexity(t *testing.T) {
	cfg := DefaultPolicyConfig()
	complexities := []string{"basic", "intermediate", "advanced", "expert"}

	for domain, dp := range cfg.Domains {
		for _, c := range complexities {
			if _, ok := dp.Routes[c]; !ok {
				t.Errorf("domain %s missing complexity %s", domain, c)
			}
		}
	}
}

func TestRouteFallsBackToDefault(t *testing.T) {
	cfg := DefaultPolicyConfig()

	target := cfg.Route("unknown-domain", "basic")
	if !reflect.DeepEqual(target, cfg.Default) {
		t.Fatalf("expected default target, got %+v", target)
	}

	target = cfg.Route("tax", "unknown-complexity")
	if !reflect.DeepEqual(target, cfg.Default) {
		t.Fatalf("expected default target, got %+v", target)
	}
}

func TestCapModelForEveryProvider(t *testing.T) {
	cfg := DefaultPolicyConfig()

	for _, provider := range cfg.Providers.Preference {
		model := cfg.Catalog.CapModelFor(provider, ClassLight)
		if model == "" {
			t.Errorf("provider %s has no light-class model for the free tier", provider)
			continue
		}
		if got := cfg.Catalog.ClassFor(model); got != ClassLight {
			t.Errorf("provider %s cap model %s has class %s, want light", provider, model, got)
		}
	}
}

func TestCapModelPrefersStrongestUnderCap(t *testing.T) {
	cfg := DefaultPolicyConfig()

	model := cfg.Catalog.CapModelFor("anthropic", ClassStandard)
	if model != "claude-sonnet-4-20250514" {
		t.Fatalf("expected sonnet under standard cap, got %s", model)
	}

	model = cfg.Catalog.CapModelFor("anthropic", ClassFrontier)
	if model != "claude-opus-4-20250514" {
		t.Fatalf("expected opus under frontier cap, got %s", model)
	}
}

func TestClassAllowed(t *testing.T) {
	cases := []struct {
		class, max string
		want       bool
	}{
		{ClassLight, ClassLight, true},
		{ClassStandard, ClassLight, false},
		{ClassStandard, ClassFrontier, true},
		{ClassFrontier, ClassStandard, false},
		{"bogus", ClassFrontier, false},
	}

	for _, tc := range cases {
		if got := ClassAllowed(tc.class, tc.max); got != tc.want {
			t.Errorf("ClassAllowed(%s, %s) = %v, want %v", tc.class, tc.max, got, tc.want)
		}
	}
}

func TestLoadPolicyConfigOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	content := `
default:
  provider: google
  model: gemini-2.0-pro
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write policy file: %v", err)
	}

	cfg, err := LoadPolicyConfig(path)
	if err != nil {
		t.Fatalf("failed to load policy: %v", err)
	}

	if cfg.Default.Provider != "google" || cfg.Default.Model != "gemini-2.0-pro" {
		t.Fatalf("default not overridden: %+v", cfg.Default)
	}
	// Untouched sections keep their defaults.
	if len(cfg.Providers.Baselines) < 2 {
		t.Fatalf("baselines lost in overlay: %+v", cfg.Providers.Baselines)
	}
	if _, ok := cfg.Domains["tax"]; !ok {
		t.Fatalf("domain table lost in overlay")
	}
}

func TestLoadPolicyConfigRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	content := `
default:
  provider: nobody
  model: claude-sonnet-4-20250514
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write policy file: %v", err)
	}

	if _, err := LoadPolicyConfig(path); err == nil {
		t.Fatalf("expected validation error")
	}
}
