package strategy

import (
	"context"

	"github.com/agentchaos/chaosproxy/internal/flowmodel"
)

func init() {
	Register("group_failure", func() Strategy { return &GroupFailureStrategy{} })
}

// GroupFailureStrategy short-circuits every flow whose classified
// AgentRole matches params.target_role, simulating one role across a
// multi-agent swarm going down simultaneously. params:
//
//	target_role  string, required
//	status       int, default 503
//	body         string, default ""
type GroupFailureStrategy struct {
	noOpResponse
}

func (s *GroupFailureStrategy) Tag() string { return "group_failure" }

func (s *GroupFailureStrategy) InterceptRequest(_ context.Context, f *flowmodel.Flow, params map[string]interface{}) error {
	targetRole := paramString(params, "target_role", "")
	if targetRole == "" || f.Metadata.AgentRole != targetRole {
		return nil
	}

	f.ShortCircuit(&flowmodel.Response{
		Status:    paramInt(params, "status", 503),
		Headers:   map[string][]string{"Content-Type": {"text/plain"}},
		BodyBytes: []byte(paramString(params, "body", "")),
	})
	f.Metadata.AddStrategy(s.Tag())
	return nil
}
