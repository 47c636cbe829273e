// Package match resolves which strategies from the active plan apply to a
// given, already-classified flow.
package match

import (
	"math/rand/v2"

	"github.com/agentchaos/chaosproxy/internal/flowmodel"
	"github.com/agentchaos/chaosproxy/internal/plan"
)

// Matched is one scenario selected to run against this flow, paired with
// its resolved target for strategies that need target metadata (e.g. the
// target's pattern for custom-type matches).
type Matched struct {
	Scenario *plan.Scenario
	Target   *plan.Target
}

// Match walks p.Scenarios in plan order and returns the ordered subset
// that applies to f: enabled, target resolved, target test passed,
// optional target_subtype match, and a probability draw against the
// flow's deterministic RNG.
func Match(f *flowmodel.Flow, p *plan.ChaosPlan, rng *rand.Rand) []Matched {
	var selected []Matched

	for i := range p.Scenarios {
		s := &p.Scenarios[i]
		if !s.Enabled {
			continue
		}

		target := s.ResolvedTarget()
		if target == nil {
			continue // unresolved target_ref; plan validation should have already rejected this
		}

		if !targetTest(f, target) {
			continue
		}

		if s.TargetSubtype != "" && s.TargetSubtype != string(f.Metadata.TrafficSubtype) {
			continue
		}

		u := rng.Float64()
		if u >= s.Probability {
			continue
		}

		selected = append(selected, Matched{Scenario: s, Target: target})
	}

	return selected
}

// targetTest applies the per-target-type test: URL for http_endpoint,
// traffic type for tool_call/llm_input, agent_role for agent_role
// targets, and the target's own pattern against the URL for
// custom targets (the spec names "custom pattern" without further
// specifying the subject; URL is the most general choice and keeps
// custom targets usable the same way http_endpoint ones are, just under
// a different catalog label).
func targetTest(f *flowmodel.Flow, t *plan.Target) bool {
	re := t.Compiled()
	if re == nil {
		return false
	}

	switch t.Type {
	case plan.TargetHTTPEndpoint:
		return re.MatchString(f.Request.URL)
	case plan.TargetToolCall, plan.TargetLLMInput:
		return re.MatchString(string(f.Metadata.TrafficType))
	case plan.TargetAgentRole:
		return re.MatchString(f.Metadata.AgentRole)
	case plan.TargetCustom:
		return re.MatchString(f.Request.URL)
	default:
		return false
	}
}
