package strategy

import (
	"context"

	"github.com/agentchaos/chaosproxy/internal/flowmodel"
)

func init() {
	Register("error", func() Strategy { return &ErrorInjectionStrategy{} })
}

// ErrorInjectionStrategy short-circuits a flow before upstream, never
// attempting the real call.
type ErrorInjectionStrategy struct {
	noOpResponse
}

func (s *ErrorInjectionStrategy) Tag() string { return "error" }

func (s *ErrorInjectionStrategy) InterceptRequest(_ context.Context, f *flowmodel.Flow, params map[string]interface{}) error {
	status := paramInt(params, "status", 500)
	body := paramString(params, "body", "")

	headers := map[string][]string{"Content-Type": {"text/plain"}}
	if hdrs := paramMap(params, "headers"); hdrs != nil {
		for k, v := range hdrs {
			if s, ok := v.(string); ok {
				headers[k] = []string{s}
			}
		}
	}

	f.ShortCircuit(&flowmodel.Response{
		Status:    status,
		Headers:   headers,
		BodyBytes: []byte(body),
	})
	f.Metadata.AddStrategy(s.Tag())
	return nil
}
