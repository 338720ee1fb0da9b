package health

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ledgerworks/taxpilot/pkg/adapter"
)

func rateLimitErr(provider string) error {
	return &adapter.ProviderError{Provider: provider, Code: adapter.CodeRateLimit, Message: "429"}
}

func fixedClock(t *time.Time) func() time.Time {
	return func() time.Time { return *t }
}

func TestFailuresNeverRaiseTheScore(t *testing.T) {
	m := NewMonitor()

	prev := m.HealthScore("anthropic")
	if prev != maxScore {
		t.Fatalf("fresh provider score = %d, want %d", prev, maxScore)
	}

	for i := 0; i < 12; i++ {
		m.RecordFailure("anthropic", errors.New("boom"))
		score := m.HealthScore("anthropic")
		if score > prev {
			t.Fatalf("failure %d raised score %d -> %d", i, prev, score)
		}
		prev = score
	}
	if prev != minScore {
		t.Errorf("score should floor at %d, got %d", minScore, prev)
	}
}

func TestSuccessNeverLowersTheScore(t *testing.T) {
	m := NewMonitor()
	m.RecordFailure("openai", errors.New("boom"))

	prev := m.HealthScore("openai")
	for i := 0; i < 10; i++ {
		m.RecordSuccess("openai")
		score := m.HealthScore("openai")
		if score < prev {
			t.Fatalf("success lowered score %d -> %d", prev, score)
		}
		prev = score
	}
	if prev != maxScore {
		t.Errorf("score should cap at %d, got %d", maxScore, prev)
	}
}

func TestPenaltiesVaryByErrorClass(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"auth", &adapter.ProviderError{Provider: "p", Code: adapter.CodeAuth}, maxScore - 30},
		{"rate limit", &adapter.ProviderError{Provider: "p", Code: adapter.CodeRateLimit}, maxScore - 25},
		{"generic", errors.New("boom"), maxScore - 20},
		{"timeout", &adapter.ProviderError{Provider: "p", Code: adapter.CodeTimeout}, maxScore - 15},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := NewMonitor()
			m.RecordFailure("p", tc.err)
			if got := m.HealthScore("p"); got != tc.want {
				t.Errorf("score after %s failure = %d, want %d", tc.name, got, tc.want)
			}
		})
	}
}

func TestRateLimitCooldownEscalates(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m := NewMonitor(WithClock(fixedClock(&now)))

	m.RecordFailure("google", rateLimitErr("google"))
	first, _ := m.Metrics("google")
	if want := now.Add(30 * time.Second); !first.RateLimitUntil.Equal(want) {
		t.Errorf("first cooldown until %v, want %v", first.RateLimitUntil, want)
	}

	m.RecordFailure("google", rateLimitErr("google"))
	second, _ := m.Metrics("google")
	if want := now.Add(60 * time.Second); !second.RateLimitUntil.Equal(want) {
		t.Errorf("second cooldown until %v, want %v", second.RateLimitUntil, want)
	}

	for i := 0; i < 10; i++ {
		m.RecordFailure("google", rateLimitErr("google"))
	}
	capped, _ := m.Metrics("google")
	if until := capped.RateLimitUntil; until.After(now.Add(10 * time.Minute)) {
		t.Errorf("cooldown exceeded cap: %v", until)
	}

	if !m.InCooldown("google") {
		t.Error("provider should be in cooldown")
	}
	now = now.Add(11 * time.Minute)
	if m.InCooldown("google") {
		t.Error("cooldown should have expired")
	}
}

func TestSuccessClearsCooldownAndStreak(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m := NewMonitor(WithClock(fixedClock(&now)))

	m.RecordFailure("deepseek", rateLimitErr("deepseek"))
	m.RecordFailure("deepseek", rateLimitErr("deepseek"))
	if !m.InCooldown("deepseek") {
		t.Fatal("expected cooldown")
	}

	m.RecordSuccess("deepseek")
	if m.InCooldown("deepseek") {
		t.Error("success should clear the cooldown")
	}

	// The streak reset means the next rate limit starts from the base
	// cooldown again.
	m.RecordFailure("deepseek", rateLimitErr("deepseek"))
	metrics, _ := m.Metrics("deepseek")
	if want := now.Add(30 * time.Second); !metrics.RateLimitUntil.Equal(want) {
		t.Errorf("cooldown after reset = %v, want %v", metrics.RateLimitUntil, want)
	}
}

func TestIsHealthyThreshold(t *testing.T) {
	m := NewMonitor()

	if !m.IsHealthy("fresh") {
		t.Error("fresh provider should be healthy")
	}

	m.RecordFailure("fading", errors.New("boom"))
	m.RecordFailure("fading", errors.New("boom"))
	if !m.IsHealthy("fading") { // 60 > threshold
		t.Error("score 60 should still be healthy")
	}
	m.RecordFailure("fading", errors.New("boom"))
	if m.IsHealthy("fading") { // 40 is not above the threshold
		t.Error("score 40 should not be healthy")
	}
}

func TestCooldownMakesUnhealthyRegardlessOfScore(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m := NewMonitor(WithClock(fixedClock(&now)))

	m.RecordFailure("burst", rateLimitErr("burst")) // score 75, in cooldown
	if m.IsHealthy("burst") {
		t.Error("provider in cooldown must not be healthy")
	}
	if got := m.HealthScore("burst"); got <= healthyThreshold {
		t.Fatalf("test assumes score above threshold, got %d", got)
	}
}

func TestProvidersAreIsolated(t *testing.T) {
	m := NewMonitor()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			m.RecordFailure("flaky", errors.New("boom"))
		}()
		go func() {
			defer wg.Done()
			m.RecordSuccess("steady")
		}()
	}
	wg.Wait()

	if got := m.HealthScore("flaky"); got != minScore {
		t.Errorf("flaky score = %d, want %d", got, minScore)
	}
	if got := m.HealthScore("steady"); got != maxScore {
		t.Errorf("steady score = %d, want %d", got, maxScore)
	}
	flaky, _ := m.Metrics("flaky")
	if flaky.ConsecutiveFailures != 50 {
		t.Errorf("consecutive failures = %d, want 50", flaky.ConsecutiveFailures)
	}
}

func TestSnapshotIsSortedAndComplete(t *testing.T) {
	m := NewMonitor()
	m.Register("openai", "anthropic", "google")

	snap := m.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("snapshot length = %d, want 3", len(snap))
	}
	for i, want := range []string{"anthropic", "google", "openai"} {
		if snap[i].Provider != want {
			t.Errorf("snapshot[%d] = %q, want %q", i, snap[i].Provider, want)
		}
		if snap[i].HealthScore != maxScore {
			t.Errorf("%s should start at full health", want)
		}
	}

	if _, ok := m.Metrics("nope"); ok {
		t.Error("Metrics for unknown provider should report false")
	}
}
