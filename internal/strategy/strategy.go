// Package strategy implements the chaos mutators: latency, error
// injection, data corruption, MCP schema-aware fuzzing, cognitive
// hallucination/context-overflow, RAG phantom document, swarm disruption,
// and group failure. Every strategy implements the same narrow
// capability set and is registered into a tag-string constructor map
// built once at plan load, never looked up by runtime reflection.
package strategy

import (
	"context"

	"github.com/agentchaos/chaosproxy/internal/flowmodel"
)

// Strategy is the uniform capability set every mutator implements.
// Either method may be a no-op; strategies must be safe under concurrent
// invocation on distinct flows and never block longer than their
// declared delay.
type Strategy interface {
	// Tag identifies this strategy type for applied_strategies metadata
	// and the constructor registry (e.g. "latency", "swarm_disruption").
	Tag() string
	InterceptRequest(ctx context.Context, f *flowmodel.Flow, params map[string]interface{}) error
	InterceptResponse(ctx context.Context, f *flowmodel.Flow, params map[string]interface{}) error
}

// Constructor builds a Strategy instance. Strategies are stateless
// besides fixed configuration read from params at construction time (RNG
// pools, compiled schemas); no strategy may retain per-flow state across
// calls.
type Constructor func() Strategy

// registry maps a plan scenario's `type` field to a Constructor. Built
// once at package init so Resolve is just a map read, never a per-flow
// runtime class lookup.
var registry = map[string]Constructor{}

// Register adds a constructor under tag. Called from each strategy file's
// init(), a pluggable, tag-keyed extension point.
func Register(tag string, ctor Constructor) {
	registry[tag] = ctor
}

// New builds a fresh Strategy instance for tag, or (nil, false) if no
// constructor was registered — a plan referencing an unknown scenario
// type fails validation before ever reaching here, but callers should
// still check ok defensively.
func New(tag string) (Strategy, bool) {
	ctor, ok := registry[tag]
	if !ok {
		return nil, false
	}
	return ctor(), true
}

// noOpRequest and noOpResponse let strategies that only act on one side
// of the flow embed a default for the other without repeating empty
// methods.
type noOpRequest struct{}

func (noOpRequest) InterceptRequest(context.Context, *flowmodel.Flow, map[string]interface{}) error {
	return nil
}

type noOpResponse struct{}

func (noOpResponse) InterceptResponse(context.Context, *flowmodel.Flow, map[string]interface{}) error {
	return nil
}
