package engine

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ledgerworks/taxpilot/pkg/classify"
	"github.com/ledgerworks/taxpilot/pkg/solver"
)

const basePrompt = "You are a professional tax and accounting assistant. Be precise, cite the relevant rules when you rely on them, and say clearly when something depends on facts you were not given. Never invent figures."

// domainPrompts sharpen the assistant's focus per practice area.
var domainPrompts = map[classify.Domain]string{
	classify.DomainTax:        "The question concerns taxation. Distinguish federal from state or local treatment where it matters.",
	classify.DomainAudit:      "The question concerns audit and assurance. Frame answers around applicable standards and documentation expectations.",
	classify.DomainReporting:  "The question concerns bookkeeping and financial reporting. Be explicit about which accounting basis your answer assumes.",
	classify.DomainCompliance: "The question concerns regulatory compliance. Name the obligation, who it applies to, and the deadline or threshold involved.",
}

// chatModePrompts adjust delivery style per conversation mode. Unknown
// modes fall back to the default voice.
var chatModePrompts = map[string]string{
	"research": "Research mode: survey the relevant authorities before concluding, and present competing interpretations when they exist.",
	"draft":    "Drafting mode: produce polished, client-ready text that could be sent with minimal edits.",
	"concise":  "Concise mode: answer in as few words as accuracy allows.",
}

// buildSystemPrompt composes the system prompt from the base voice, the
// classified domain, the chat mode, and any solver results the model
// should reference instead of recomputing.
func buildSystemPrompt(chatMode string, cls classify.Classification, calcs solver.Results) string {
	parts := []string{basePrompt}

	if p, ok := domainPrompts[cls.Domain]; ok {
		parts = append(parts, p)
	}
	if len(cls.Jurisdictions) > 0 {
		parts = append(parts, fmt.Sprintf("Jurisdiction context: %s.", strings.Join(cls.Jurisdictions, ", ")))
	}
	if p, ok := chatModePrompts[chatMode]; ok {
		parts = append(parts, p)
	}

	if len(calcs) > 0 {
		if encoded, err := json.Marshal(calcs); err == nil {
			parts = append(parts,
				"Deterministic calculations already performed for this query (JSON): "+
					string(encoded)+
					" Use these verified figures in your answer rather than recomputing them.")
		}
	}

	return strings.Join(parts, "\n\n")
}
