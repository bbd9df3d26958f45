package scenario

import (
	"context"
	"log/slog"
)

// FailSoft wraps a generator so callers always get a scenario: any
// generation error is logged and answered with the fallback. A nil
// inner generator serves the fallback directly.
type FailSoft struct {
	inner Generator
}

// NewFailSoft wraps gen. gen may be nil.
func NewFailSoft(gen Generator) *FailSoft {
	return &FailSoft{inner: gen}
}

// Generate never returns an error.
func (f *FailSoft) Generate(ctx context.Context, req Request) (*Scenario, error) {
	if f.inner == nil {
		return Fallback(), nil
	}

	s, err := f.inner.Generate(ctx, req)
	if err != nil {
		slog.Warn("scenario generation failed, serving fallback",
			"agent", req.AgentID, "difficulty", req.Difficulty, "error", err)
		return Fallback(), nil
	}
	if s == nil {
		slog.Warn("scenario generator returned nothing, serving fallback", "agent", req.AgentID)
		return Fallback(), nil
	}
	return s, nil
}
