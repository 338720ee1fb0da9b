// Package engine orchestrates one query end to end: classify, route,
// decide whether to clarify before answering, run deterministic solvers,
// then walk a health-ordered provider chain until a response lands. Raw
// provider failures never escape; the worst outcome is a fixed degraded
// message.
package engine

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ledgerworks/taxpilot/pkg/adapter"
	"github.com/ledgerworks/taxpilot/pkg/classify"
	"github.com/ledgerworks/taxpilot/pkg/clarify"
	"github.com/ledgerworks/taxpilot/pkg/config"
	"github.com/ledgerworks/taxpilot/pkg/health"
	"github.com/ledgerworks/taxpilot/pkg/router"
	"github.com/ledgerworks/taxpilot/pkg/solver"
)

// Engine wires the pipeline together. Build one per process with New and
// share it across requests; all per-request state stays on the stack.
type Engine struct {
	adapters  map[string]adapter.Adapter
	policy    *config.PolicyConfig
	monitor   *health.Monitor
	extractor DocumentExtractor
	logger    *zap.Logger

	classifier *classify.Classifier
	router     *router.Router
	clarifier  *clarify.Engine

	timeout     time.Duration
	temperature float64
	maxTokens   int
	cacheSize   int
}

// Option configures an Engine.
type Option func(*Engine)

// WithPolicy substitutes the routing policy table.
func WithPolicy(policy *config.PolicyConfig) Option {
	return func(e *Engine) {
		if policy != nil {
			e.policy = policy
		}
	}
}

// WithMonitor substitutes the health monitor. Tests use this to isolate
// health state per test.
func WithMonitor(m *health.Monitor) Option {
	return func(e *Engine) {
		if m != nil {
			e.monitor = m
		}
	}
}

// WithLogger attaches a logger to the engine and its stages.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithExtractor substitutes the document extraction service.
func WithExtractor(x DocumentExtractor) Option {
	return func(e *Engine) {
		if x != nil {
			e.extractor = x
		}
	}
}

// WithTimeout bounds each individual provider call.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithTemperature sets the sampling temperature passed to providers.
func WithTemperature(t float64) Option {
	return func(e *Engine) { e.temperature = t }
}

// WithMaxTokens caps provider completion length.
func WithMaxTokens(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxTokens = n
		}
	}
}

// WithClassifierCache sizes the classification LRU.
func WithClassifierCache(size int) Option {
	return func(e *Engine) { e.cacheSize = size }
}

// New builds an Engine over the given provider adapters, keyed by
// provider name matching the policy table.
func New(adapters map[string]adapter.Adapter, opts ...Option) *Engine {
	e := &Engine{
		adapters:    adapters,
		policy:      config.DefaultPolicyConfig(),
		monitor:     health.NewMonitor(),
		extractor:   PlainTextExtractor{},
		logger:      zap.NewNop(),
		timeout:     60 * time.Second,
		temperature: 0.2,
		maxTokens:   4096,
		cacheSize:   256,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.classifier = classify.New(
		classify.WithCache(e.cacheSize),
		classify.WithLogger(e.logger),
	)
	e.router = router.New(e.policy)
	e.clarifier = clarify.NewEngine(clarify.WithLogger(e.logger))

	for name := range adapters {
		e.monitor.Register(name)
	}
	return e
}

// Monitor exposes the health table for inspection tooling.
func (e *Engine) Monitor() *health.Monitor { return e.monitor }

// Router exposes the routing engine for inspection tooling.
func (e *Engine) Router() *router.Router { return e.router }

// Process runs one query through the full pipeline. The returned error is
// non-nil only when ctx is cancelled; every provider failure is absorbed
// into the result.
func (e *Engine) Process(ctx context.Context, q Query) (*Result, error) {
	start := time.Now()
	requestID := uuid.NewString()
	log := e.logger.With(zap.String("request_id", requestID))

	enriched := e.enrich(q, log)

	hint := classify.DocumentHint{}
	if q.Attachment != nil {
		hint.HasDocument = true
		hint.DocumentType = q.Attachment.DocumentType
	}

	cls := e.classifier.Classify(enriched, hint)
	decision := e.router.Route(cls, q.Tier)
	analysis := e.clarifier.Analyze(q.Text, q.History, cls)

	log.Info("query analyzed",
		zap.String("domain", string(cls.Domain)),
		zap.String("complexity", string(cls.Complexity)),
		zap.String("model", decision.PrimaryModel),
		zap.String("approach", string(analysis.RecommendedApproach)))

	if analysis.RecommendedApproach == clarify.ApproachClarify {
		rtype := classifyResponseType(q.Text, cls, nil)
		return &Result{
			Response:              clarificationBody(analysis),
			RoutingDecision:       decision,
			Classification:        cls,
			ClarificationAnalysis: analysis,
			NeedsClarification:    true,
			ResponseType:          rtype,
			ShowInPane:            showInPane(rtype),
			Metadata:              e.metadata(requestID, q, "", 0, false),
			ProcessingTimeMs:      time.Since(start).Milliseconds(),
		}, nil
	}

	calcs := solver.Dispatch(enriched)

	messages := make([]adapter.Message, 0, len(q.History)+1)
	messages = append(messages, q.History...)
	messages = append(messages, adapter.Message{Role: adapter.RoleUser, Content: enriched})

	req := &adapter.Request{
		System:      buildSystemPrompt(q.ChatMode, cls, calcs),
		Messages:    messages,
		Temperature: e.temperature,
		MaxTokens:   e.maxTokens,
		Attachment:  q.Attachment,
	}

	resp, provider, attempts, lastCode, err := e.invoke(ctx, q.Tier, decision, req, log)
	if err != nil {
		return nil, err
	}

	rtype := classifyResponseType(q.Text, cls, calcs)
	result := &Result{
		RoutingDecision:       decision,
		Classification:        cls,
		CalculationResults:    calcs,
		ClarificationAnalysis: analysis,
		ResponseType:          rtype,
		ShowInPane:            showInPane(rtype),
		ProcessingTimeMs:      time.Since(start).Milliseconds(),
	}

	if resp == nil {
		result.Response = degradedMessage(lastCode)
		result.Metadata = e.metadata(requestID, q, "", attempts, true)
		log.Warn("provider chain exhausted",
			zap.Int("attempts", attempts),
			zap.String("last_error_code", string(lastCode)))
		return result, nil
	}

	result.Response = resp.Content
	if analysis.RecommendedApproach == clarify.ApproachPartialAnswer && len(analysis.Questions) > 0 {
		result.Response += followUpBlock(analysis)
	}
	result.ModelUsed = resp.Model
	result.Provider = provider
	result.TokensUsed = resp.Usage.TotalTokens
	result.Metadata = e.metadata(requestID, q, provider, attempts, false)

	log.Info("query answered",
		zap.String("provider", provider),
		zap.String("model", resp.Model),
		zap.Int("attempts", attempts),
		zap.Int("tokens", result.TokensUsed))

	return result, nil
}

// invoke walks the candidate chain sequentially. A nil response with a
// nil error means the chain is exhausted; lastCode then selects the
// degraded message.
func (e *Engine) invoke(ctx context.Context, tier string, decision router.Decision, req *adapter.Request, log *zap.Logger) (*adapter.Response, string, int, adapter.ErrorCode, error) {
	chain := e.orderChain(e.buildChain(decision))
	if len(chain) == 0 {
		return nil, "", 0, adapter.CodeAuth, nil
	}

	lastCode := adapter.CodeGeneric
	attempts := 0
	for _, provider := range chain {
		model := e.modelFor(provider, tier, decision)
		if model == "" {
			continue
		}

		request := *req
		request.Model = model

		callCtx, cancel := context.WithTimeout(ctx, e.timeout)
		resp, err := e.adapters[provider].Complete(callCtx, &request)
		cancel()

		if ctx.Err() != nil {
			// The caller is gone: discard the outcome, record nothing.
			return nil, "", attempts, lastCode, ctx.Err()
		}
		attempts++

		if err == nil {
			e.monitor.RecordSuccess(provider)
			return resp, provider, attempts, "", nil
		}

		e.monitor.RecordFailure(provider, err)
		perr := adapter.Classify(provider, err)
		lastCode = perr.Code
		log.Warn("provider call failed",
			zap.String("provider", provider),
			zap.String("model", model),
			zap.String("code", string(perr.Code)))
	}

	return nil, "", attempts, lastCode, nil
}

// enrich appends extracted attachment text to the query so classification
// and solving see the document contents. Extraction failures degrade to
// the bare query.
func (e *Engine) enrich(q Query, log *zap.Logger) string {
	if q.Attachment == nil || len(q.Attachment.Data) == 0 {
		return q.Text
	}
	text, err := e.extractor.Extract(q.Attachment.Data, q.Attachment.Filename, q.Attachment.MimeType)
	if err != nil {
		log.Warn("document extraction failed",
			zap.String("filename", q.Attachment.Filename),
			zap.String("mime_type", q.Attachment.MimeType),
			zap.Error(err))
		return q.Text
	}
	return q.Text + "\n\nAttached document (" + q.Attachment.Filename + "):\n" + text
}

func (e *Engine) metadata(requestID string, q Query, provider string, attempts int, degraded bool) map[string]string {
	tier := q.Tier
	if tier == "" {
		tier = config.TierFree
	}
	md := map[string]string{
		"requestId": requestID,
		"tier":      tier,
		"attempts":  strconv.Itoa(attempts),
		"degraded":  strconv.FormatBool(degraded),
	}
	if provider != "" {
		md["provider"] = provider
	}
	if q.ChatMode != "" {
		md["chatMode"] = q.ChatMode
	}
	return md
}
