package engine

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ledgerworks/taxpilot/pkg/adapter"
	"github.com/ledgerworks/taxpilot/pkg/classify"
	"github.com/ledgerworks/taxpilot/pkg/clarify"
	"github.com/ledgerworks/taxpilot/pkg/solver"
)

// maxNuancesShown caps how many expert notes ride along with an answer.
const maxNuancesShown = 2

// Degraded-service messages, one per failure class. These are the only
// texts a user sees when every provider fails; they never carry provider
// detail or credentials.
var degradedMessages = map[adapter.ErrorCode]string{
	adapter.CodeRateLimit: "Our language providers are experiencing high demand right now. Please try again in a few moments.",
	adapter.CodeAuth:      "The service is temporarily unable to reach its language providers. Please contact support if this persists.",
	adapter.CodeTimeout:   "The request took too long to process. Try simplifying the question or splitting it into smaller parts.",
	adapter.CodeGeneric:   "Something went wrong while generating a response. Please try again.",
}

func degradedMessage(code adapter.ErrorCode) string {
	if msg, ok := degradedMessages[code]; ok {
		return msg
	}
	return degradedMessages[adapter.CodeGeneric]
}

// responseTypeRules classify the UI surface from the original query, in
// precedence order: the first hit wins.
var responseTypeRules = []struct {
	rtype ResponseType
	re    *regexp.Regexp
}{
	{ResponseDocument, regexp.MustCompile(`\b(?:draft|write|prepare|compose|generate)\b.*\b(?:letter|memo|report|document|email|engagement letter|template)\b|\b(?:letter|memo|template)\b.*\b(?:draft|write|prepare)\b`)},
	{ResponseVisualization, regexp.MustCompile(`\bchart\b|\bgraph\b|\bplot\b|visualiz|\bdashboard\b`)},
	{ResponseExport, regexp.MustCompile(`\bexport\b|\bdownload\b|\bcsv\b|\bexcel\b|\bspreadsheet\b`)},
	{ResponseCalculation, regexp.MustCompile(`\bcalculate\b|\bcompute\b|\bhow much\b|\bwhat would .* cost\b`)},
	{ResponseResearch, regexp.MustCompile(`\blatest\b|\brecent (?:changes|guidance|rules)\b|\bcurrent law\b|\bup[- ]to[- ]date\b`)},
	{ResponseAnalysis, regexp.MustCompile(`\banalyz|\banalys|\bcompare\b|\bevaluate\b|\bassess\b|\breview\b|\bshould i\b`)},
}

// classifyResponseType inspects the original query text plus the
// classification flags and solver outcomes.
func classifyResponseType(query string, cls classify.Classification, calcs solver.Results) ResponseType {
	lowered := strings.ToLower(query)
	for _, rule := range responseTypeRules {
		if rule.re.MatchString(lowered) {
			return rule.rtype
		}
	}
	switch {
	case len(calcs) > 0:
		return ResponseCalculation
	case cls.RequiresResearch:
		return ResponseResearch
	case cls.RequiresDeepReasoning:
		return ResponseAnalysis
	default:
		return ResponseGeneral
	}
}

// showInPane marks response types that render in the dedicated output
// pane rather than inline chat.
func showInPane(rtype ResponseType) bool {
	switch rtype {
	case ResponseDocument, ResponseVisualization, ResponseExport:
		return true
	default:
		return false
	}
}

// clarificationBody renders the ask-first response: the questions, plus
// at most two expert notes worth flagging while we wait.
func clarificationBody(analysis clarify.Analysis) string {
	var b strings.Builder
	b.WriteString("Before I can answer accurately, I need a few details:\n")
	for i, q := range analysis.Questions {
		fmt.Fprintf(&b, "\n%d. %s", i+1, q)
	}
	writeNuances(&b, analysis.DetectedNuances)
	return b.String()
}

// followUpBlock renders the fixed-format block appended after a partial
// answer.
func followUpBlock(analysis clarify.Analysis) string {
	var b strings.Builder
	b.WriteString("\n\n---\n\nTo tailor this further, could you confirm:\n")
	for i, q := range analysis.Questions {
		fmt.Fprintf(&b, "\n%d. %s", i+1, q)
	}
	writeNuances(&b, analysis.DetectedNuances)
	return b.String()
}

func writeNuances(b *strings.Builder, nuances []string) {
	if len(nuances) == 0 {
		return
	}
	if len(nuances) > maxNuancesShown {
		nuances = nuances[:maxNuancesShown]
	}
	b.WriteString("\n\nAlso worth noting:\n")
	for _, n := range nuances {
		fmt.Fprintf(b, "\n- %s", n)
	}
}
