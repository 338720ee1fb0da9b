// Package health tracks per-provider reliability across every in-flight
// request. Each provider has its own entry guarded by its own mutex;
// there is deliberately no monitor-wide lock, so hammering one provider's
// stats never stalls requests touching another.
package health

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ledgerworks/taxpilot/pkg/adapter"
)

const (
	maxScore     = 100
	minScore     = 0
	successBonus = 15

	// healthyThreshold is the score a provider must exceed to count as
	// healthy.
	healthyThreshold = 40

	// Rate-limit cooldowns double per consecutive hit, bounded by
	// maxCooldown.
	baseCooldown = 30 * time.Second
	maxCooldown  = 10 * time.Minute
)

// failurePenalties maps an error class to its score cost. Auth failures
// cost the most, timeouts the least.
var failurePenalties = map[adapter.ErrorCode]int{
	adapter.CodeAuth:      30,
	adapter.CodeRateLimit: 25,
	adapter.CodeGeneric:   20,
	adapter.CodeTimeout:   15,
}

// Metrics is a point-in-time copy of one provider's reliability state.
// Zero times mean the event never happened.
type Metrics struct {
	Provider            string    `json:"provider"`
	HealthScore         int       `json:"healthScore"`
	ConsecutiveFailures int       `json:"consecutiveFailures"`
	LastSuccessAt       time.Time `json:"lastSuccessAt"`
	LastFailureAt       time.Time `json:"lastFailureAt"`
	RateLimitUntil      time.Time `json:"rateLimitUntil"`
}

type entry struct {
	mu              sync.Mutex
	metrics         Metrics
	rateLimitStreak int
}

// Monitor is the process-wide reliability table. Construct one per
// process (or per test) and share it; the zero value is not usable.
type Monitor struct {
	entries sync.Map // provider name -> *entry
	now     func() time.Time
	logger  *zap.Logger
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithClock substitutes the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		if now != nil {
			m.now = now
		}
	}
}

// WithLogger attaches a logger for health transitions.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Monitor) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewMonitor builds a Monitor.
func NewMonitor(opts ...Option) *Monitor {
	m := &Monitor{now: time.Now, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register creates entries for the named providers at full health.
// Unregistered providers are created on first use, so calling this is
// optional but keeps startup snapshots complete.
func (m *Monitor) Register(providers ...string) {
	for _, p := range providers {
		m.get(p)
	}
}

func (m *Monitor) get(provider string) *entry {
	if e, ok := m.entries.Load(provider); ok {
		return e.(*entry)
	}
	fresh := &entry{metrics: Metrics{Provider: provider, HealthScore: maxScore}}
	e, _ := m.entries.LoadOrStore(provider, fresh)
	return e.(*entry)
}

// RecordSuccess restores health after a successful call: failures reset,
// the score climbs toward the ceiling, and any cooldown clears.
func (m *Monitor) RecordSuccess(provider string) {
	e := m.get(provider)
	e.mu.Lock()
	defer e.mu.Unlock()

	e.metrics.ConsecutiveFailures = 0
	e.metrics.LastSuccessAt = m.now()
	e.metrics.RateLimitUntil = time.Time{}
	e.rateLimitStreak = 0
	e.metrics.HealthScore += successBonus
	if e.metrics.HealthScore > maxScore {
		e.metrics.HealthScore = maxScore
	}
}

// RecordFailure classifies err, applies the class penalty, and for
// rate-limit failures starts (or escalates) the provider's cooldown.
func (m *Monitor) RecordFailure(provider string, err error) {
	code := adapter.CodeGeneric
	if perr := adapter.Classify(provider, err); perr != nil {
		code = perr.Code
	}

	e := m.get(provider)
	e.mu.Lock()
	defer e.mu.Unlock()

	e.metrics.ConsecutiveFailures++
	e.metrics.LastFailureAt = m.now()

	penalty, ok := failurePenalties[code]
	if !ok {
		penalty = failurePenalties[adapter.CodeGeneric]
	}
	e.metrics.HealthScore -= penalty
	if e.metrics.HealthScore < minScore {
		e.metrics.HealthScore = minScore
	}

	if code == adapter.CodeRateLimit {
		// Shifts past the cap cannot change the result; clamping also
		// keeps a long streak from overflowing the duration.
		shift := e.rateLimitStreak
		if shift > 5 {
			shift = 5
		}
		cooldown := baseCooldown << shift
		if cooldown > maxCooldown {
			cooldown = maxCooldown
		}
		e.rateLimitStreak++
		e.metrics.RateLimitUntil = m.now().Add(cooldown)
	}

	m.logger.Debug("provider failure recorded",
		zap.String("provider", provider),
		zap.String("code", string(code)),
		zap.Int("health_score", e.metrics.HealthScore),
		zap.Int("consecutive_failures", e.metrics.ConsecutiveFailures))
}

// HealthScore returns the provider's current score. Unknown providers
// start at full health.
func (m *Monitor) HealthScore(provider string) int {
	e := m.get(provider)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.metrics.HealthScore
}

// InCooldown reports whether the provider is inside a rate-limit window.
func (m *Monitor) InCooldown(provider string) bool {
	e := m.get(provider)
	e.mu.Lock()
	defer e.mu.Unlock()
	return m.inCooldownLocked(e)
}

func (m *Monitor) inCooldownLocked(e *entry) bool {
	return !e.metrics.RateLimitUntil.IsZero() && m.now().Before(e.metrics.RateLimitUntil)
}

// IsHealthy reports whether the score clears the threshold and no
// cooldown is active.
func (m *Monitor) IsHealthy(provider string) bool {
	e := m.get(provider)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.metrics.HealthScore > healthyThreshold && !m.inCooldownLocked(e)
}

// Metrics returns a copy of one provider's state.
func (m *Monitor) Metrics(provider string) (Metrics, bool) {
	e, ok := m.entries.Load(provider)
	if !ok {
		return Metrics{}, false
	}
	ent := e.(*entry)
	ent.mu.Lock()
	defer ent.mu.Unlock()
	return ent.metrics, true
}

// Snapshot copies every provider's state, sorted by provider name.
func (m *Monitor) Snapshot() []Metrics {
	var all []Metrics
	m.entries.Range(func(_, v any) bool {
		e := v.(*entry)
		e.mu.Lock()
		all = append(all, e.metrics)
		e.mu.Unlock()
		return true
	})
	sort.Slice(all, func(i, j int) bool { return all[i].Provider < all[j].Provider })
	return all
}
