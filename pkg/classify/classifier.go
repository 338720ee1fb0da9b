// Package classify derives a structured classification from raw query
// text: practice domain, jurisdictions, complexity grade, and the
// requirement flags downstream routing keys on. Classification is pure
// string analysis and always succeeds; an unrecognized query falls back
// to the general domain at low confidence.
package classify

import (
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// Domain identifies the professional practice area of a query.
type Domain string

const (
	DomainTax        Domain = "tax"
	DomainAudit      Domain = "audit"
	DomainReporting  Domain = "reporting"
	DomainCompliance Domain = "compliance"
	DomainGeneral    Domain = "general"
)

// Complexity grades how much reasoning a query demands.
type Complexity string

const (
	ComplexityBasic        Complexity = "basic"
	ComplexityIntermediate Complexity = "intermediate"
	ComplexityAdvanced     Complexity = "advanced"
	ComplexityExpert       Complexity = "expert"
)

// fallbackConfidence is reported when no domain term matches at all.
const fallbackConfidence = 0.2

// DocumentHint tells the classifier about an attachment accompanying the
// query, since attachment bytes never reach this package.
type DocumentHint struct {
	HasDocument  bool
	DocumentType string
}

// Classification is the structured summary of one query.
type Classification struct {
	Domain                   Domain     `json:"domain"`
	SubDomain                string     `json:"subDomain,omitempty"`
	Jurisdictions            []string   `json:"jurisdictions,omitempty"`
	Complexity               Complexity `json:"complexity"`
	RequiresDocumentAnalysis bool       `json:"requiresDocumentAnalysis"`
	RequiresResearch         bool       `json:"requiresResearch"`
	RequiresRealTimeData     bool       `json:"requiresRealTimeData"`
	RequiresDeepReasoning    bool       `json:"requiresDeepReasoning"`
	Confidence               float64    `json:"confidence"`
}

// Classifier scores query text against the term tables. Safe for
// concurrent use; the optional cache is the only shared state.
type Classifier struct {
	cache  *lru.Cache[string, Classification]
	logger *zap.Logger
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithCache bounds repeated classification work with an LRU of the given
// size. Sizes < 1 disable caching.
func WithCache(size int) Option {
	return func(c *Classifier) {
		if cache, err := lru.New[string, Classification](size); err == nil {
			c.cache = cache
		}
	}
}

// WithLogger attaches a logger for per-query score traces.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Classifier) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New builds a Classifier.
func New(opts ...Option) *Classifier {
	c := &Classifier{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify analyzes one query. It never fails: text that matches nothing
// comes back as general/basic at low confidence.
func (c *Classifier) Classify(query string, hint DocumentHint) Classification {
	key := cacheKey(query, hint)
	if c.cache != nil {
		if cached, ok := c.cache.Get(key); ok {
			return cloneClassification(cached)
		}
	}

	text := strings.ToLower(query)

	domain, top, second := scoreDomains(text)
	complexity := gradeComplexity(text, top)

	result := Classification{
		Domain:        domain,
		SubDomain:     subDomainOf(domain, text),
		Jurisdictions: DetectJurisdictions(text),
		Complexity:    complexity,
		Confidence:    confidenceFrom(top, second),

		RequiresDocumentAnalysis: hint.HasDocument || matchAny(text, documentTerms),
		RequiresResearch:         matchAny(text, researchTerms),
		RequiresRealTimeData:     matchAny(text, realTimeTerms),
		RequiresDeepReasoning: complexity == ComplexityAdvanced ||
			complexity == ComplexityExpert || matchAny(text, deepReasoningTerms),
	}

	c.logger.Debug("classified query",
		zap.String("domain", string(result.Domain)),
		zap.String("complexity", string(result.Complexity)),
		zap.Int("top_score", top),
		zap.Int("second_score", second),
		zap.Float64("confidence", result.Confidence))

	if c.cache != nil {
		c.cache.Add(key, cloneClassification(result))
	}
	return result
}

// scoreDomains sums term weights per domain and returns the winner with
// the top two scores. A zero top score means general.
func scoreDomains(text string) (Domain, int, int) {
	order := []Domain{DomainTax, DomainAudit, DomainReporting, DomainCompliance}
	scores := make(map[Domain]int, len(order))
	for _, d := range order {
		for _, t := range domainTerms[d] {
			if matchTerm(text, t.term) {
				scores[d] += t.weight
			}
		}
	}

	best, top, second := DomainGeneral, 0, 0
	for _, d := range order {
		s := scores[d]
		if s > top {
			second = top
			top = s
			best = d
		} else if s > second {
			second = s
		}
	}
	if top == 0 {
		return DomainGeneral, 0, 0
	}
	return best, top, second
}

// gradeComplexity combines specialist vocabulary with query shape. Longer
// multi-sentence questions and dense domain vocabulary read as harder.
func gradeComplexity(text string, domainScore int) Complexity {
	words := len(strings.Fields(text))
	sentences := countSentences(text)

	switch {
	case matchAny(text, expertTerms) || countMatches(text, advancedTerms) >= 2:
		return ComplexityExpert
	case countMatches(text, advancedTerms) >= 1 || words > 80 || (words > 50 && sentences >= 3):
		return ComplexityAdvanced
	case words > 25 || sentences >= 3 || domainScore >= 8:
		return ComplexityIntermediate
	default:
		return ComplexityBasic
	}
}

// confidenceFrom blends the winning margin over the runner-up with the
// absolute strength of the winning score, then boosts unambiguous wins.
func confidenceFrom(top, second int) float64 {
	if top == 0 {
		return fallbackConfidence
	}
	margin := float64(top-second) / float64(top)
	strength := float64(top)
	if strength > 10 {
		strength = 10
	}
	confidence := 0.75*margin + 0.25*(strength/10)
	if top >= 4 && second == 0 && confidence < 0.9 {
		confidence = 0.9
	}
	if top >= 8 {
		confidence += 0.1
	}
	if confidence > 1 {
		confidence = 1
	}
	return confidence
}

// subDomainOf picks the best-matching refinement group, or "" when no
// group term appears.
func subDomainOf(domain Domain, text string) string {
	groups, ok := subDomainGroups[domain]
	if !ok {
		return ""
	}
	best, bestCount := "", 0
	for _, g := range groups {
		if n := countMatches(text, g.terms); n > bestCount {
			best, bestCount = g.sub, n
		}
	}
	return best
}

// DetectJurisdictions returns the jurisdiction codes mentioned in text,
// ordered by first appearance and deduplicated. Case-insensitive.
func DetectJurisdictions(text string) []string {
	text = strings.ToLower(text)
	type hit struct {
		code string
		pos  int
	}
	var hits []hit
	seen := make(map[string]int)
	for _, jt := range jurisdictionTerms {
		pos := matchIndex(text, jt.term)
		if pos == -1 {
			continue
		}
		if prev, ok := seen[jt.code]; ok {
			if pos < prev {
				seen[jt.code] = pos
				for i := range hits {
					if hits[i].code == jt.code {
						hits[i].pos = pos
					}
				}
			}
			continue
		}
		seen[jt.code] = pos
		hits = append(hits, hit{code: jt.code, pos: pos})
	}
	if len(hits) == 0 {
		return nil
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })
	codes := make([]string, len(hits))
	for i, h := range hits {
		codes[i] = h.code
	}
	return codes
}

func countSentences(text string) int {
	n := 0
	for _, part := range strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '?' || r == '!'
	}) {
		if strings.TrimSpace(part) != "" {
			n++
		}
	}
	return n
}

func cacheKey(query string, hint DocumentHint) string {
	key := query
	if hint.HasDocument {
		key += "\x00doc:" + hint.DocumentType
	}
	return key
}

func cloneClassification(c Classification) Classification {
	if c.Jurisdictions != nil {
		c.Jurisdictions = append([]string(nil), c.Jurisdictions...)
	}
	return c
}
