package strategy

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/agentchaos/chaosproxy/internal/flowmodel"
	"github.com/agentchaos/chaosproxy/internal/jsonpath"
	"github.com/agentchaos/chaosproxy/internal/jsruntime"
	"github.com/tidwall/gjson"
)

func init() {
	Register("swarm_disruption", func() Strategy { return &SwarmDisruptionStrategy{} })
}

var (
	swarmScriptPoolOnce sync.Once
	swarmScriptPool     *jsruntime.Pool
)

// scriptPool lazily builds the shared goja pool backing message_mutation's
// optional params.script, so plans that never use scripted mutation never
// pay for a single goja.New().
func scriptPool() *jsruntime.Pool {
	swarmScriptPoolOnce.Do(func() {
		pool, err := jsruntime.NewPool(4)
		if err != nil {
			panic(err) // size is a compile-time constant, never invalid
		}
		swarmScriptPool = pool
	})
	return swarmScriptPool
}

// SwarmDisruptionStrategy only fires on AGENT_TO_AGENT traffic, and only
// when params.target_subtype (if set) matches the flow's classified
// subtype. params:
//
//	attack_type        string, required — message_mutation | consensus_delay | agent_isolation
//	target_subtype     string, optional — restricts to one TrafficSubtype
//	mutation_rules     []map, optional  — [{path, type: flip_bool|jitter_numeric, pct}]
//	script             string, optional — JS mutate(input) run in a sandboxed VM
//	consensus_delay    float, default 1 — seconds, consensus_vote subtype only
//	isolated_agents    []string, optional
type SwarmDisruptionStrategy struct {
	noOpResponse
}

func (s *SwarmDisruptionStrategy) Tag() string { return "swarm_disruption" }

func (s *SwarmDisruptionStrategy) InterceptRequest(ctx context.Context, f *flowmodel.Flow, params map[string]interface{}) error {
	if f.Metadata.TrafficType != flowmodel.TrafficAgentToAgent {
		return nil
	}
	if wantSubtype := paramString(params, "target_subtype", ""); wantSubtype != "" {
		if string(f.Metadata.TrafficSubtype) != wantSubtype {
			return nil
		}
	}

	switch paramString(params, "attack_type", "") {
	case "message_mutation":
		return s.messageMutation(ctx, f, params)
	case "consensus_delay":
		return s.consensusDelay(ctx, f, params)
	case "agent_isolation":
		return s.agentIsolation(f, params)
	default:
		return nil
	}
}

func (s *SwarmDisruptionStrategy) messageMutation(ctx context.Context, f *flowmodel.Flow, params map[string]interface{}) error {
	if f.Request == nil || len(f.Request.BodyBytes) == 0 {
		return nil
	}

	if script := paramString(params, "script", ""); script != "" {
		return s.scriptedMutation(ctx, f, script)
	}

	if rules := params["mutation_rules"]; rules != nil {
		return s.ruleBasedMutation(f, rules)
	}

	return s.defaultMutation(f)
}

func (s *SwarmDisruptionStrategy) scriptedMutation(ctx context.Context, f *flowmodel.Flow, script string) error {
	var input map[string]interface{}
	if err := json.Unmarshal(f.Request.BodyBytes, &input); err != nil {
		return recordErrorCode(f, "SWARM_MUTATION_DECODE_FAILED", err)
	}

	result := jsruntime.ExecutePooled(ctx, scriptPool(), script, jsruntime.ExecutionOptions{Input: input})
	if !result.Ok {
		return recordErrorCode(f, "SWARM_MUTATION_SCRIPT_FAILED", scriptError(result))
	}

	out, err := json.Marshal(result.Value)
	if err != nil {
		return recordErrorCode(f, "SWARM_MUTATION_ENCODE_FAILED", err)
	}
	f.Request.BodyBytes = out
	f.Metadata.AddStrategy(s.Tag())
	return nil
}

func (s *SwarmDisruptionStrategy) ruleBasedMutation(f *flowmodel.Flow, rawRules interface{}) error {
	rules, ok := rawRules.([]interface{})
	if !ok {
		return s.defaultMutation(f)
	}

	body := string(f.Request.BodyBytes)
	for _, raw := range rules {
		rule, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		path := paramString(rule, "path", "")
		ruleType := paramString(rule, "type", "")
		pct := paramFloat(rule, "pct", 0.2)
		if path == "" {
			continue
		}

		mutated, ok := applyRuleToPath(body, path, ruleType, pct)
		if ok {
			body = mutated
		}
	}

	f.Request.BodyBytes = []byte(body)
	f.Metadata.AddStrategy(s.Tag())
	return nil
}

func (s *SwarmDisruptionStrategy) defaultMutation(f *flowmodel.Flow) error {
	mutated, ok := mutateJSONLeaves(f.Request.BodyBytes, func(leaf interface{}) interface{} {
		switch v := leaf.(type) {
		case bool:
			return !v
		case float64:
			if v > -5 && v < 5 {
				if rand.IntN(2) == 0 {
					return v + 1
				}
				return v - 1
			}
			factor := 0.8 + rand.Float64()*0.4
			return v * factor
		default:
			return v
		}
	})
	if !ok {
		return nil
	}
	f.Request.BodyBytes = mutated
	f.Metadata.AddStrategy(s.Tag())
	return nil
}

func (s *SwarmDisruptionStrategy) consensusDelay(ctx context.Context, f *flowmodel.Flow, params map[string]interface{}) error {
	if f.Metadata.TrafficSubtype != flowmodel.SubtypeConsensusVote {
		return nil
	}
	delay := paramFloat(params, "consensus_delay", 1)
	if delay <= 0 {
		f.Metadata.AddStrategy(s.Tag())
		return nil
	}

	timer := time.NewTimer(time.Duration(delay * float64(time.Second)))
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
		f.Metadata.Cancelled = true
	}
	f.Metadata.AddStrategy(s.Tag())
	return nil
}

func (s *SwarmDisruptionStrategy) agentIsolation(f *flowmodel.Flow, params map[string]interface{}) error {
	isolated := paramStringSlice(params, "isolated_agents")
	if len(isolated) == 0 {
		return nil
	}
	sender := bodyStringField(f.Request.BodyBytes, "sender_agent", "sender", "agent_id")
	if sender == "" {
		return nil
	}
	for _, id := range isolated {
		if id == sender {
			f.ShortCircuit(&flowmodel.Response{
				Status:    503,
				Headers:   map[string][]string{"Content-Type": {"text/plain"}},
				BodyBytes: []byte("agent isolated"),
			})
			f.Metadata.AddStrategy(s.Tag())
			return nil
		}
	}
	return nil
}

// applyRuleToPath rewrites every leaf matched by path according to a
// single mutation_rules entry; ok is false if path was unsupported or the
// rule type unrecognized, leaving the caller free to skip it.
func applyRuleToPath(body, path, ruleType string, pct float64) (string, bool) {
	out, err := jsonpath.Transform(body, path, func(leaf gjson.Result) (interface{}, bool) {
		switch ruleType {
		case "flip_bool":
			if leaf.Type == gjson.True || leaf.Type == gjson.False {
				return !leaf.Bool(), true
			}
			return nil, false
		case "jitter_numeric":
			if leaf.Type == gjson.Number {
				factor := 1 + pct*(rand.Float64()*2-1)
				return leaf.Float() * factor, true
			}
			return nil, false
		default:
			return nil, false
		}
	})
	if err != nil {
		return "", false
	}
	return out, true
}

func scriptError(r *jsruntime.Result) error {
	if r.Error != nil {
		return r.Error
	}
	return errBodyNotJSON
}
