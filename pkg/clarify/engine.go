// Package clarify decides whether a query carries enough case-specific
// context to answer responsibly. It extracts facts from the conversation,
// checks them against domain rules, flags vague phrasing, and recommends
// one of three approaches: ask first, answer, or answer and then ask.
package clarify

import (
	"strings"

	"go.uber.org/zap"

	"github.com/ledgerworks/taxpilot/pkg/adapter"
	"github.com/ledgerworks/taxpilot/pkg/classify"
)

// Approach is the recommended way to respond.
type Approach string

const (
	ApproachClarify       Approach = "clarify"
	ApproachAnswer        Approach = "answer"
	ApproachPartialAnswer Approach = "partial_answer_then_clarify"
)

// Confidence grades how sure the engine is about its recommendation.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// maxQuestions bounds how many clarifying questions one analysis asks.
const maxQuestions = 3

// Analysis is the full clarification verdict for one query.
type Analysis struct {
	NeedsClarification  bool          `json:"needsClarification"`
	Confidence          Confidence    `json:"confidence"`
	MissingContext      []MissingItem `json:"missingContext,omitempty"`
	Ambiguities         []Ambiguity   `json:"ambiguities,omitempty"`
	DetectedNuances     []string      `json:"detectedNuances,omitempty"`
	ConversationContext Context       `json:"conversationContext"`
	RecommendedApproach Approach      `json:"recommendedApproach"`
	Questions           []string      `json:"clarifyingQuestions,omitempty"`
}

// Engine runs the clarification analysis. Stateless; safe for concurrent
// use.
type Engine struct {
	logger *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger attaches a logger for per-query decision traces.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine builds an Engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Analyze runs the full pipeline: context extraction, missing-context
// rules, ambiguity detection, nuance detection, then the approach
// decision. Pure with respect to its inputs.
func (e *Engine) Analyze(query string, history []adapter.Message, cls classify.Classification) Analysis {
	lowered := strings.ToLower(query)

	ctx := ExtractContext(history, query)
	missing := detectMissingContext(cls, ctx, lowered)
	ambiguities := detectAmbiguities(lowered)
	nuances := detectNuances(lowered)

	approach := determineApproach(missing, ambiguities, lowered)

	analysis := Analysis{
		NeedsClarification:  approach == ApproachClarify,
		Confidence:          confidenceFor(approach, lowered),
		MissingContext:      missing,
		Ambiguities:         ambiguities,
		DetectedNuances:     nuances,
		ConversationContext: ctx,
		RecommendedApproach: approach,
		Questions:           generateQuestions(missing, ambiguities),
	}

	e.logger.Debug("clarification analysis",
		zap.String("approach", string(approach)),
		zap.Int("missing", len(missing)),
		zap.Int("ambiguities", len(ambiguities)),
		zap.Int("nuances", len(nuances)))

	return analysis
}

// determineApproach applies the decision table. The thresholds are
// product policy; change them only deliberately.
func determineApproach(missing []MissingItem, ambiguities []Ambiguity, loweredQuery string) Approach {
	critical, high := 0, 0
	for _, m := range missing {
		switch m.Importance {
		case ImportanceCritical:
			critical++
		case ImportanceHigh:
			high++
		}
	}

	switch {
	case critical > 0:
		return ApproachClarify
	case high >= 2 || len(ambiguities) >= 2:
		return ApproachClarify
	case high == 1 || len(ambiguities) == 1:
		return ApproachPartialAnswer
	case isGeneralInformation(loweredQuery):
		return ApproachAnswer
	default:
		return ApproachAnswer
	}
}

// generalInfoPrefixes mark definitional questions that need no personal
// context.
var generalInfoPrefixes = []string{
	"what is", "what are", "what's", "explain", "define", "describe",
	"tell me about", "how does", "how do",
}

func isGeneralInformation(loweredQuery string) bool {
	trimmed := strings.TrimSpace(loweredQuery)
	for _, prefix := range generalInfoPrefixes {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return false
}

// confidenceFor grades the recommendation. A clarify verdict rests on a
// concrete rule hit; a default answer is the weakest case.
func confidenceFor(approach Approach, loweredQuery string) Confidence {
	switch approach {
	case ApproachClarify:
		return ConfidenceHigh
	case ApproachPartialAnswer:
		return ConfidenceMedium
	default:
		if isGeneralInformation(loweredQuery) {
			return ConfidenceHigh
		}
		return ConfidenceMedium
	}
}

// generateQuestions collects questions from critical items first, then
// high-importance items, then ambiguities, capped at maxQuestions.
func generateQuestions(missing []MissingItem, ambiguities []Ambiguity) []string {
	var questions []string
	for _, importance := range []Importance{ImportanceCritical, ImportanceHigh} {
		for _, m := range missing {
			if m.Importance == importance && m.SuggestedQuestion != "" {
				questions = append(questions, m.SuggestedQuestion)
			}
		}
	}
	for _, a := range ambiguities {
		if q := questionFor(a); q != "" {
			questions = append(questions, q)
		}
	}
	if len(questions) > maxQuestions {
		questions = questions[:maxQuestions]
	}
	return questions
}
