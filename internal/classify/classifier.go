// Package classify tags each flow with a TrafficType and TrafficSubtype
// using a priority cascade: header signal, then rule-pack URL match, then
// JSON body structure, falling back to UNKNOWN. It is stateless given a
// compiled rule set, mirroring the allocation-light classifier shape the
// rest of the pack uses for per-request tagging.
package classify

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/agentchaos/chaosproxy/internal/flowmodel"
	"github.com/agentchaos/chaosproxy/internal/plan"
	"github.com/agentchaos/chaosproxy/internal/stringutil"
)

// Classifier holds the compiled rule packs from the active plan. It has no
// other state and is safe for concurrent use across flows.
type Classifier struct {
	rulePacks []plan.RulePack
}

// New builds a Classifier from a plan's classifier_rule_packs (and the
// singular classifier_rules override, appended last so it still
// participates in longest-match-wins but never displaces a rule pack
// already present).
func New(p *plan.ChaosPlan) *Classifier {
	c := &Classifier{}
	c.rulePacks = append(c.rulePacks, p.ClassifierRulePacks...)
	if p.ClassifierRules != nil {
		c.rulePacks = append(c.rulePacks, *p.ClassifierRules)
	}
	return c
}

// Classify assigns TrafficType, TrafficSubtype, and AgentRole on the
// flow's metadata. It never returns an error: a classification failure
// (bad JSON body, no match) degrades to UNKNOWN, counted by the caller as
// a non-fatal ClassifierError.
func (c *Classifier) Classify(f *flowmodel.Flow) {
	f.Metadata.AgentRole = extractAgentRole(f)

	if t, sub, ok := c.classifyByHeader(f); ok {
		f.Metadata.TrafficType = t
		f.Metadata.TrafficSubtype = sub
		return
	}

	if t, ok := c.classifyByURLPattern(f); ok {
		f.Metadata.TrafficType = t
		f.Metadata.TrafficSubtype = c.subtypeFor(f, t)
		return
	}

	if t, ok := classifyByBody(f); ok {
		f.Metadata.TrafficType = t
		f.Metadata.TrafficSubtype = c.subtypeFor(f, t)
		return
	}

	f.Metadata.TrafficType = flowmodel.TrafficUnknown
	f.Metadata.TrafficSubtype = flowmodel.SubtypeNone
}

// classifyByHeader gives explicit header signals top priority: they win
// regardless of URL or body shape.
func (c *Classifier) classifyByHeader(f *flowmodel.Flow) (flowmodel.TrafficType, flowmodel.TrafficSubtype, bool) {
	agentToAgent := flowmodel.HeaderValue(f.Request.Headers, "X-Agent-To-Agent")
	swarmMessage := flowmodel.HeaderValue(f.Request.Headers, "X-Swarm-Message")
	if strings.EqualFold(agentToAgent, "true") || strings.EqualFold(swarmMessage, "true") {
		sub := flowmodel.SubtypeWorkerComm
		if raw := flowmodel.HeaderValue(f.Request.Headers, "X-Agent-Subtype"); raw != "" {
			sub = flowmodel.TrafficSubtype(raw)
		}
		return flowmodel.TrafficAgentToAgent, sub, true
	}
	return "", "", false
}

type ruleMatch struct {
	trafficType flowmodel.TrafficType
	length      int
	packIndex   int
}

// classifyByURLPattern implements stage 2: try agent_patterns, then
// llm_patterns, then tool_patterns across all rule packs in plan order;
// first category with any match wins, longest pattern breaks ties within
// that category, and remaining ties break on plan order (lowest pack
// index, encountered first).
func (c *Classifier) classifyByURLPattern(f *flowmodel.Flow) (flowmodel.TrafficType, bool) {
	url := f.Request.URL

	categories := []struct {
		trafficType flowmodel.TrafficType
		extract     func(plan.RulePack) []patternEntry
	}{
		{flowmodel.TrafficAgentToAgent, func(rp plan.RulePack) []patternEntry { return toEntries(rp.AgentPatterns, rp.CompiledAgent()) }},
		{flowmodel.TrafficLLMAPI, func(rp plan.RulePack) []patternEntry { return toEntries(rp.LLMPatterns, rp.CompiledLLM()) }},
		{flowmodel.TrafficToolCall, func(rp plan.RulePack) []patternEntry { return toEntries(rp.ToolPatterns, rp.CompiledTool()) }},
	}

	for _, cat := range categories {
		var best *ruleMatch
		var bestPattern string
		for packIdx, rp := range c.rulePacks {
			for _, entry := range cat.extract(rp) {
				if !entry.regex.MatchString(url) {
					continue
				}
				if best == nil || len(entry.raw) > best.length {
					best = &ruleMatch{trafficType: cat.trafficType, length: len(entry.raw), packIndex: packIdx}
					bestPattern = entry.raw
				}
			}
		}
		if best != nil {
			_ = bestPattern
			return best.trafficType, true
		}
	}
	return "", false
}

type patternEntry struct {
	raw   string
	regex *regexp.Regexp
}

func toEntries(raw []string, compiled []*regexp.Regexp) []patternEntry {
	entries := make([]patternEntry, 0, len(raw))
	for i, r := range raw {
		if i >= len(compiled) {
			break
		}
		entries = append(entries, patternEntry{raw: r, regex: compiled[i]})
	}
	return entries
}

// classifyByBody implements stage 3: structural heuristics over a JSON
// body. A parse failure or non-JSON body is treated as "no match", not an
// error — the cascade falls through to UNKNOWN.
func classifyByBody(f *flowmodel.Flow) (flowmodel.TrafficType, bool) {
	if len(f.Request.BodyBytes) == 0 {
		return "", false
	}
	var body map[string]interface{}
	if err := json.Unmarshal(f.Request.BodyBytes, &body); err != nil {
		return "", false
	}

	_, hasSender := body["sender_agent"]
	_, hasRecipient := body["recipient_agent"]
	if hasSender && hasRecipient {
		return flowmodel.TrafficAgentToAgent, true
	}

	if messages, ok := body["messages"].([]interface{}); ok {
		if isAutogenSwarmShape(messages, body) {
			return flowmodel.TrafficAgentToAgent, true
		}
		if _, hasModel := body["model"]; hasModel {
			return flowmodel.TrafficLLMAPI, true
		}
	}

	return flowmodel.TrafficToolCall, true
}

func isAutogenSwarmShape(messages []interface{}, body map[string]interface{}) bool {
	if _, hasAgentID := body["agent_id"]; !hasAgentID {
		return false
	}
	for _, raw := range messages {
		m, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		role, _ := m["role"].(string)
		if role == "assistant" || role == "tool" {
			return true
		}
	}
	return false
}

// subtypeFor refines an AGENT_TO_AGENT classification; all other traffic
// types carry SubtypeNone.
func (c *Classifier) subtypeFor(f *flowmodel.Flow, t flowmodel.TrafficType) flowmodel.TrafficSubtype {
	if t != flowmodel.TrafficAgentToAgent {
		return flowmodel.SubtypeNone
	}

	role := flowmodel.HeaderValue(f.Request.Headers, "X-Agent-Role")
	if role == "" {
		role = bodyStringField(f.Request.BodyBytes, "agent_role", "role")
	}
	if stringutil.ContainsIgnoreCase(role, "supervisor") {
		return flowmodel.SubtypeSupervisorToWorker
	}

	if strings.Contains(f.Request.URL, "/vote") || bodyHasField(f.Request.BodyBytes, "vote") {
		return flowmodel.SubtypeConsensusVote
	}

	if marker := flowmodel.HeaderValue(f.Request.Headers, "X-Agent-Framework"); marker != "" {
		switch strings.ToLower(marker) {
		case "autogen":
			return flowmodel.SubtypeAutogenMessage
		case "swarm":
			return flowmodel.SubtypeSwarmMessage
		}
	}
	if bodyHasField(f.Request.BodyBytes, "agent_id") {
		return flowmodel.SubtypeSwarmMessage
	}

	return flowmodel.SubtypeWorkerComm
}

// extractAgentRole checks header X-Agent-Role first, then body
// agent_role/role fields, else returns empty.
func extractAgentRole(f *flowmodel.Flow) string {
	if role := flowmodel.HeaderValue(f.Request.Headers, "X-Agent-Role"); role != "" {
		return role
	}
	return bodyStringField(f.Request.BodyBytes, "agent_role", "role")
}

func bodyStringField(body []byte, keys ...string) string {
	if len(body) == 0 {
		return ""
	}
	var m map[string]interface{}
	if err := json.Unmarshal(body, &m); err != nil {
		return ""
	}
	for _, k := range keys {
		if v, ok := m[k].(string); ok {
			return v
		}
	}
	return ""
}

func bodyHasField(body []byte, key string) bool {
	if len(body) == 0 {
		return false
	}
	var m map[string]interface{}
	if err := json.Unmarshal(body, &m); err != nil {
		return false
	}
	_, ok := m[key]
	return ok
}
