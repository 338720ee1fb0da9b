// Package solver extracts numeric parameters from query text and runs
// deterministic financial calculations alongside the language model. Each
// solver pairs a regex extractor with a pure calculation; extraction that
// finds nothing is a non-event, never an error.
package solver

import "strings"

// Results maps solver name to its structured output.
type Results map[string]any

// registry fixes the trigger set and its dispatch order.
var registry = []struct {
	name string
	run  func(text string) (any, bool)
}{
	{"corporate_tax", extractCorporateTax},
	{"npv", extractNPV},
	{"irr", extractIRR},
	{"depreciation", extractDepreciation},
	{"amortization", extractAmortization},
}

// Dispatch runs every registered solver against the enriched query text.
// Multiple solvers may fire; a nil map means nothing extracted.
func Dispatch(text string) Results {
	lowered := strings.ToLower(text)

	var results Results
	for _, s := range registry {
		out, ok := s.run(lowered)
		if !ok {
			continue
		}
		if results == nil {
			results = make(Results, len(registry))
		}
		results[s.name] = out
	}
	return results
}

// Run invokes a single solver by name.
func Run(name, text string) (any, bool) {
	lowered := strings.ToLower(text)
	for _, s := range registry {
		if s.name == name {
			return s.run(lowered)
		}
	}
	return nil, false
}

// Names lists the registered solvers in dispatch order.
func Names() []string {
	names := make([]string, len(registry))
	for i, s := range registry {
		names[i] = s.name
	}
	return names
}
