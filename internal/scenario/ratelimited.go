package scenario

import (
	"context"
	"fmt"

	"github.com/protoloop/loopcore/internal/ratelimit"
)

// RateLimited wraps a generator with a per-agent token bucket so one
// agent cannot monopolize the generation backend. Wrap it in FailSoft
// to serve the fallback when the limit trips.
type RateLimited struct {
	inner   Generator
	limiter *ratelimit.Limiter
}

// NewRateLimited wraps gen. A nil limiter gets the stock generation
// limits.
func NewRateLimited(gen Generator, limiter *ratelimit.Limiter) *RateLimited {
	if limiter == nil {
		limiter = ratelimit.DefaultGenerationLimiter()
	}
	return &RateLimited{inner: gen, limiter: limiter}
}

// Generate forwards to the inner generator unless the agent is over its
// generation budget.
func (r *RateLimited) Generate(ctx context.Context, req Request) (*Scenario, error) {
	if !r.limiter.Allow(req.AgentID) {
		return nil, fmt.Errorf("generation rate limit exceeded for agent %q", req.AgentID)
	}
	return r.inner.Generate(ctx, req)
}
