// Package core wires the per-flow pipeline together: classify, fingerprint,
// match, run strategies in plan order, forward to upstream or serve from
// tape, record if applicable, and emit an Event for every phase.
package core

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/agentchaos/chaosproxy/internal/classify"
	"github.com/agentchaos/chaosproxy/internal/events"
	"github.com/agentchaos/chaosproxy/internal/fingerprint"
	"github.com/agentchaos/chaosproxy/internal/flowmodel"
	"github.com/agentchaos/chaosproxy/internal/match"
	"github.com/agentchaos/chaosproxy/internal/plan"
	"github.com/agentchaos/chaosproxy/internal/runmode"
	"github.com/agentchaos/chaosproxy/internal/seq"
	"github.com/agentchaos/chaosproxy/internal/strategy"
	"github.com/agentchaos/chaosproxy/internal/tape"
)

// Upstream forwards a flow's request to the real destination. It is
// supplied by the caller (the HTTP interception framework's glue code)
// since dialing upstream is outside this package's responsibility.
type Upstream interface {
	RoundTrip(ctx context.Context, req *flowmodel.Request) (*flowmodel.Response, error)
}

// UpstreamFunc adapts a plain function to Upstream.
type UpstreamFunc func(ctx context.Context, req *flowmodel.Request) (*flowmodel.Response, error)

func (f UpstreamFunc) RoundTrip(ctx context.Context, req *flowmodel.Request) (*flowmodel.Response, error) {
	return f(ctx, req)
}

// Pipeline is the flow orchestrator. One Pipeline serves the whole
// process; individual flows are independent and may run concurrently.
type Pipeline struct {
	planStore *plan.Store
	upstream  Upstream
	events    *events.Pipeline
	tracer    *events.FlowTracer

	stateMu  sync.RWMutex
	mode     runmode.Mode
	recorder *tape.Recorder
	player   *tape.Player
}

// New builds a Pipeline starting in ModeLive.
func New(planStore *plan.Store, upstream Upstream, evPipeline *events.Pipeline, tracer *events.FlowTracer) *Pipeline {
	return &Pipeline{
		planStore: planStore,
		upstream:  upstream,
		events:    evPipeline,
		tracer:    tracer,
		mode:      runmode.ModeLive,
	}
}

// CurrentMode implements runmode.ModeController.
func (p *Pipeline) CurrentMode() runmode.Mode {
	p.stateMu.RLock()
	defer p.stateMu.RUnlock()
	return p.mode
}

// SwitchMode implements runmode.ModeController. Switching away from
// RECORD flushes the in-progress recorder to disk first; switching into
// PLAYBACK loads and indexes tapePath.
func (p *Pipeline) SwitchMode(ctx context.Context, target runmode.Mode, tapePath string) error {
	if !target.Valid() {
		return fmt.Errorf("core: invalid mode %q", target)
	}

	p.stateMu.Lock()
	defer p.stateMu.Unlock()

	if p.mode == runmode.ModeRecord && p.recorder != nil {
		if err := p.recorder.Flush(); err != nil {
			return fmt.Errorf("core: flush recorder on mode switch: %w", err)
		}
		p.recorder = nil
	}
	p.player = nil

	switch target {
	case runmode.ModeRecord:
		if tapePath == "" {
			return fmt.Errorf("core: record mode requires a tape path")
		}
		p.recorder = tape.NewRecorder(tapePath)
	case runmode.ModePlayback:
		if tapePath == "" {
			return fmt.Errorf("core: playback mode requires a tape path")
		}
		player, err := tape.LoadPlayer(tapePath)
		if err != nil {
			return fmt.Errorf("core: load tape for playback: %w", err)
		}
		p.player = player
	case runmode.ModeLive:
		// nothing further to set up
	}

	p.mode = target
	return nil
}

// Shutdown flushes any in-progress recording. Safe to call even if no
// recorder is active.
func (p *Pipeline) Shutdown() error {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	if p.recorder != nil {
		return p.recorder.Flush()
	}
	return nil
}

// Handle runs one request through the full pipeline and returns the
// flow carrying its final response.
func (p *Pipeline) Handle(ctx context.Context, req *flowmodel.Request) (*flowmodel.Flow, error) {
	start := time.Now()
	flow := flowmodel.NewFlow(req)
	flow.Metadata.Sequence = seq.Next()
	snapshot := p.planStore.Current()

	ctx, span := p.tracer.StartFlowSpan(ctx, req.Method, req.URL)
	defer span.End()

	classify.New(snapshot).Classify(flow)

	fp := fingerprint.Compute(req.Method, req.URL, req.Headers, req.BodyBytes, fingerprint.Options{
		IgnoreParams: snapshot.ReplayConfig.IgnoreParams,
		MaskedBody:   fingerprint.MaskPaths(req.BodyBytes, snapshot.ReplayConfig.IgnorePaths),
	})
	flow.Metadata.Fingerprint = fp.Key()

	mode := p.CurrentMode()
	p.emit(flow, events.PhaseRequest, start)

	if mode == runmode.ModePlayback {
		p.servePlayback(flow, fp)
		p.emit(flow, events.PhaseResponse, start)
		return flow, nil
	}

	matched := match.Match(flow, snapshot, match.FlowRNG(snapshot.Metadata.ExperimentID, fp.Key()))

	p.runRequestStrategies(ctx, flow, matched)
	p.emit(flow, events.PhaseChaos, start)

	if !flow.IsShortCircuited() {
		resp, err := p.upstream.RoundTrip(ctx, req)
		if err != nil {
			flow.Metadata.ErrorCode = "UPSTREAM_ERROR"
			p.emit(flow, events.PhaseError, start)
			return flow, err
		}
		flow.Response = resp
	}

	p.runResponseStrategies(ctx, flow, matched)

	if mode == runmode.ModeRecord {
		p.recordFlow(fp, flow)
	}

	p.emit(flow, events.PhaseResponse, start)
	return flow, nil
}

// runRequestStrategies runs each matched scenario's strategy in plan
// order. Strategies record their own tag onto flow.Metadata when they
// actually act, and record their own error_code and return nil on
// internal failure rather than propagating: a strategy never aborts
// the flow, so this loop never does either. A non-nil return from a
// strategy is defense in depth for a bug that leaves error_code unset;
// it is logged onto the flow and the loop moves on to the next
// scenario rather than raising out of Handle.
func (p *Pipeline) runRequestStrategies(ctx context.Context, flow *flowmodel.Flow, matched []match.Matched) {
	for _, m := range matched {
		if flow.IsShortCircuited() {
			return
		}
		s, ok := strategy.New(m.Scenario.Type)
		if !ok {
			continue
		}
		if err := s.InterceptRequest(ctx, flow, m.Scenario.Params); err != nil && flow.Metadata.ErrorCode == "" {
			flow.Metadata.ErrorCode = "STRATEGY_REQUEST_FAILED"
		}
	}
}

func (p *Pipeline) runResponseStrategies(ctx context.Context, flow *flowmodel.Flow, matched []match.Matched) {
	if flow.Response == nil {
		return
	}
	for _, m := range matched {
		s, ok := strategy.New(m.Scenario.Type)
		if !ok {
			continue
		}
		if err := s.InterceptResponse(ctx, flow, m.Scenario.Params); err != nil && flow.Metadata.ErrorCode == "" {
			flow.Metadata.ErrorCode = "STRATEGY_RESPONSE_FAILED"
		}
	}
}

func (p *Pipeline) servePlayback(flow *flowmodel.Flow, fp fingerprint.Fingerprint) {
	p.stateMu.RLock()
	player := p.player
	p.stateMu.RUnlock()

	if player == nil {
		flow.Metadata.ErrorCode = "PLAYBACK_NOT_LOADED"
		return
	}

	result := player.Serve(fp)
	body, _ := hex.DecodeString(result.Response.BodyBytesHex)
	flow.Response = &flowmodel.Response{
		Status:    result.Response.Status,
		Reason:    result.Response.Reason,
		Headers:   result.Response.Headers,
		BodyBytes: body,
	}
	flow.Metadata.AppliedStrategies = append([]string(nil), result.ChaosContext.AppliedStrategies...)
	flow.Metadata.ChaosApplied = result.ChaosContext.ChaosApplied
	flow.Metadata.TrafficType = result.ChaosContext.TrafficType
	flow.Metadata.TrafficSubtype = result.ChaosContext.TrafficSubtype
	flow.Metadata.AgentRole = result.ChaosContext.AgentRole
}

func (p *Pipeline) recordFlow(fp fingerprint.Fingerprint, flow *flowmodel.Flow) {
	p.stateMu.RLock()
	recorder := p.recorder
	p.stateMu.RUnlock()
	if recorder != nil {
		recorder.Append(fp.Key(), flow)
	}
}

func (p *Pipeline) emit(flow *flowmodel.Flow, phase events.Phase, start time.Time) {
	if p.events == nil {
		return
	}
	latencyMS := time.Since(start).Milliseconds()
	p.events.Emit(events.FromFlow(flow, phase, time.Now().UnixMilli(), latencyMS))
}
