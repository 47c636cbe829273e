package strategy

import (
	"context"
	"time"

	"github.com/agentchaos/chaosproxy/internal/flowmodel"
)

func init() {
	Register("latency", func() Strategy { return &LatencyStrategy{} })
}

// LatencyStrategy suspends the flow for params.delay seconds. Which side
// it suspends on is configured via params.side ("request" or "response");
// defaults to "request".
type LatencyStrategy struct{}

func (s *LatencyStrategy) Tag() string { return "latency" }

func (s *LatencyStrategy) InterceptRequest(ctx context.Context, f *flowmodel.Flow, params map[string]interface{}) error {
	if paramString(params, "side", "request") != "request" {
		return nil
	}
	return s.suspend(ctx, f, params)
}

func (s *LatencyStrategy) InterceptResponse(ctx context.Context, f *flowmodel.Flow, params map[string]interface{}) error {
	if paramString(params, "side", "request") != "response" {
		return nil
	}
	return s.suspend(ctx, f, params)
}

// suspend blocks for the configured delay, honoring ctx cancellation so a
// framework-initiated abort returns promptly with the flow tagged
// cancelled rather than completing the sleep.
func (s *LatencyStrategy) suspend(ctx context.Context, f *flowmodel.Flow, params map[string]interface{}) error {
	delay := paramFloat(params, "delay", 0)
	if delay <= 0 {
		f.Metadata.AddStrategy(s.Tag())
		return nil
	}

	timer := time.NewTimer(time.Duration(delay * float64(time.Second)))
	defer timer.Stop()

	select {
	case <-timer.C:
		f.Metadata.AddStrategy(s.Tag())
		return nil
	case <-ctx.Done():
		f.Metadata.Cancelled = true
		f.Metadata.AddStrategy(s.Tag())
		return nil
	}
}
