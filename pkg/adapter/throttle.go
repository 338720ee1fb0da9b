package adapter

import (
	"context"

	"golang.org/x/time/rate"
)

// ThrottledAdapter wraps an adapter with a client-side request limiter.
// The check is non-blocking: when the limiter is saturated the call fails
// immediately with a rate-limit error instead of sleeping, so a fallback
// chain can move on to the next provider.
type ThrottledAdapter struct {
	inner   Adapter
	limiter *rate.Limiter
}

// NewThrottledAdapter wraps inner with a limiter allowing rps requests per
// second with the given burst.
func NewThrottledAdapter(inner Adapter, rps rate.Limit, burst int) *ThrottledAdapter {
	return &ThrottledAdapter{
		inner:   inner,
		limiter: rate.NewLimiter(rps, burst),
	}
}

// Name returns the wrapped adapter's identifier.
func (a *ThrottledAdapter) Name() string {
	return a.inner.Name()
}

// Models returns the wrapped adapter's models.
func (a *ThrottledAdapter) Models() []string {
	return a.inner.Models()
}

// Complete forwards to the wrapped adapter when the limiter permits.
func (a *ThrottledAdapter) Complete(ctx context.Context, req *Request) (*Response, error) {
	if !a.limiter.Allow() {
		return nil, &ProviderError{
			Provider: a.Name(),
			Code:     CodeRateLimit,
			Message:  "client-side request limit reached",
		}
	}
	return a.inner.Complete(ctx, req)
}
