// Package events implements the bounded, per-flow event pipeline: a
// fixed-capacity queue fed by one producer per flow, drained by a log
// sink, a dashboard fan-out, and a scorecard aggregator running
// concurrently off the same stream.
package events

import (
	"github.com/agentchaos/chaosproxy/internal/flowmodel"
)

// Phase marks which point in a flow's lifecycle an Event describes.
type Phase string

const (
	PhaseRequest  Phase = "request"
	PhaseResponse Phase = "response"
	PhaseChaos    Phase = "chaos"
	PhaseError    Phase = "error"
)

// Event is the structured record emitted once per flow-lifecycle point.
type Event struct {
	Time              int64    `json:"t"`
	Sequence          uint64   `json:"seq"`
	Phase             Phase    `json:"phase"`
	TrafficType       string   `json:"traffic_type"`
	TrafficSubtype    string   `json:"traffic_subtype,omitempty"`
	AgentRole         string   `json:"agent_role,omitempty"`
	URLRedacted       string   `json:"url_redacted"`
	Method            string   `json:"method"`
	Status            int      `json:"status,omitempty"`
	AppliedStrategies []string `json:"applied_strategies,omitempty"`
	ChaosApplied      bool     `json:"chaos_applied"`
	LatencyMS         int64    `json:"latency_ms"`
	ErrorCode         string   `json:"error_code,omitempty"`
}

// FromFlow builds an Event from a flow's current metadata. now is the
// emit-time Unix timestamp (seconds) and latency is the observed
// request-to-response duration.
func FromFlow(f *flowmodel.Flow, phase Phase, now int64, latencyMS int64) Event {
	e := Event{
		Time:              now,
		Sequence:          f.Metadata.Sequence,
		Phase:             phase,
		TrafficType:       string(f.Metadata.TrafficType),
		TrafficSubtype:    string(f.Metadata.TrafficSubtype),
		AgentRole:         f.Metadata.AgentRole,
		Method:            f.Request.Method,
		URLRedacted:       f.Request.URL,
		AppliedStrategies: append([]string(nil), f.Metadata.AppliedStrategies...),
		ChaosApplied:      f.Metadata.ChaosApplied,
		LatencyMS:         latencyMS,
		ErrorCode:         f.Metadata.ErrorCode,
	}
	if f.Response != nil {
		e.Status = f.Response.Status
	}
	if f.Metadata.ErrorCode != "" {
		e.Phase = PhaseError
	}
	return e
}
