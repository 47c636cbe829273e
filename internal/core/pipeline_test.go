package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentchaos/chaosproxy/internal/events"
	"github.com/agentchaos/chaosproxy/internal/flowmodel"
	"github.com/agentchaos/chaosproxy/internal/plan"
	"github.com/agentchaos/chaosproxy/internal/runmode"
)

const testPlanYAML = `
version: 1
revision: 1
metadata:
  name: demo
  experiment_id: exp-1
targets:
  - name: pay-endpoint
    type: http_endpoint
    pattern: ".*/pay"
scenarios:
  - name: pay-down
    type: error
    target_ref: pay-endpoint
    enabled: true
    probability: 1.0
    params:
      status: 503
      body: "service unavailable"
`

const passthroughPlanYAML = `
version: 1
revision: 1
metadata:
  name: passthrough
  experiment_id: exp-2
targets:
  - name: never
    type: http_endpoint
    pattern: "^$"
scenarios: []
`

func newTestPlanStore(t *testing.T, yamlDoc string) *plan.Store {
	t.Helper()
	p, err := plan.ValidatePlan([]byte(yamlDoc), plan.StrictMode{})
	require.NoError(t, err)
	return plan.NewStore(p)
}

func TestPipeline_ShortCircuitStrategySkipsUpstream(t *testing.T) {
	store := newTestPlanStore(t, testPlanYAML)
	upstreamCalled := false
	upstream := UpstreamFunc(func(ctx context.Context, req *flowmodel.Request) (*flowmodel.Response, error) {
		upstreamCalled = true
		return &flowmodel.Response{Status: 200}, nil
	})

	p := New(store, upstream, nil, nil)

	flow, err := p.Handle(context.Background(), &flowmodel.Request{
		Method: "POST",
		URL:    "https://api.example.com/v1/pay",
	})
	require.NoError(t, err)
	require.False(t, upstreamCalled, "error strategy should short-circuit before upstream")
	require.Equal(t, 503, flow.Response.Status)
	require.Equal(t, []byte("service unavailable"), flow.Response.BodyBytes)
	require.Contains(t, flow.Metadata.AppliedStrategies, "error")
	require.True(t, flow.Metadata.ChaosApplied)
}

func TestPipeline_NoMatchForwardsToUpstream(t *testing.T) {
	store := newTestPlanStore(t, passthroughPlanYAML)
	upstream := UpstreamFunc(func(ctx context.Context, req *flowmodel.Request) (*flowmodel.Response, error) {
		return &flowmodel.Response{Status: 200, BodyBytes: []byte("ok")}, nil
	})

	p := New(store, upstream, nil, nil)

	flow, err := p.Handle(context.Background(), &flowmodel.Request{
		Method: "GET",
		URL:    "https://api.example.com/v1/anything",
	})
	require.NoError(t, err)
	require.Equal(t, 200, flow.Response.Status)
	require.Empty(t, flow.Metadata.AppliedStrategies)
	require.False(t, flow.Metadata.ChaosApplied)
}

func TestPipeline_RecordModeAppendsToRecorder(t *testing.T) {
	store := newTestPlanStore(t, passthroughPlanYAML)
	upstream := UpstreamFunc(func(ctx context.Context, req *flowmodel.Request) (*flowmodel.Response, error) {
		return &flowmodel.Response{Status: 200, BodyBytes: []byte("ok")}, nil
	})
	p := New(store, upstream, nil, nil)

	tapePath := t.TempDir() + "/run.tape"
	require.NoError(t, p.SwitchMode(context.Background(), runmode.ModeRecord, tapePath))
	require.Equal(t, runmode.ModeRecord, p.CurrentMode())

	_, err := p.Handle(context.Background(), &flowmodel.Request{Method: "GET", URL: "https://api.example.com/v1/ping"})
	require.NoError(t, err)
	require.Equal(t, 1, p.recorder.Len())
}

func TestPipeline_PlaybackServesFromTapeWithoutUpstream(t *testing.T) {
	recordStore := newTestPlanStore(t, testPlanYAML)
	p := New(recordStore, UpstreamFunc(func(ctx context.Context, req *flowmodel.Request) (*flowmodel.Response, error) {
		return &flowmodel.Response{Status: 200, BodyBytes: []byte("upstream body")}, nil
	}), nil, nil)

	tapePath := t.TempDir() + "/run.tape"
	require.NoError(t, p.SwitchMode(context.Background(), runmode.ModeRecord, tapePath))

	req := &flowmodel.Request{Method: "GET", URL: "https://api.example.com/v1/ping"}
	recorded, err := p.Handle(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, 200, recorded.Response.Status)

	require.NoError(t, p.SwitchMode(context.Background(), runmode.ModePlayback, tapePath))
	require.Equal(t, runmode.ModePlayback, p.CurrentMode())

	upstreamCalledAgain := false
	p.upstream = UpstreamFunc(func(ctx context.Context, req *flowmodel.Request) (*flowmodel.Response, error) {
		upstreamCalledAgain = true
		return &flowmodel.Response{Status: 500}, nil
	})

	replayed, err := p.Handle(context.Background(), req)
	require.NoError(t, err)
	require.False(t, upstreamCalledAgain, "playback must never reach upstream")
	require.Equal(t, 200, replayed.Response.Status)
	require.Equal(t, []byte("upstream body"), replayed.Response.BodyBytes)
}

func TestPipeline_SwitchModeRejectsMissingTapePath(t *testing.T) {
	store := newTestPlanStore(t, passthroughPlanYAML)
	p := New(store, UpstreamFunc(func(ctx context.Context, req *flowmodel.Request) (*flowmodel.Response, error) {
		return &flowmodel.Response{Status: 200}, nil
	}), nil, nil)

	err := p.SwitchMode(context.Background(), runmode.ModeRecord, "")
	require.Error(t, err)

	err = p.SwitchMode(context.Background(), runmode.ModePlayback, "")
	require.Error(t, err)
}

func TestPipeline_SwitchModeRejectsUnknownMode(t *testing.T) {
	store := newTestPlanStore(t, passthroughPlanYAML)
	p := New(store, UpstreamFunc(func(ctx context.Context, req *flowmodel.Request) (*flowmodel.Response, error) {
		return &flowmodel.Response{Status: 200}, nil
	}), nil, nil)

	err := p.SwitchMode(context.Background(), runmode.Mode("bogus"), "x")
	require.Error(t, err)
}

func TestPipeline_EmitsEventsThroughPipeline(t *testing.T) {
	store := newTestPlanStore(t, passthroughPlanYAML)
	upstream := UpstreamFunc(func(ctx context.Context, req *flowmodel.Request) (*flowmodel.Response, error) {
		return &flowmodel.Response{Status: 200}, nil
	})

	var captured []events.Event
	rec := recordingConsumer{out: &captured}
	evPipeline := events.NewPipeline(0, rec)
	go evPipeline.Run()
	defer evPipeline.Stop()

	p := New(store, upstream, evPipeline, nil)
	_, err := p.Handle(context.Background(), &flowmodel.Request{Method: "GET", URL: "https://api.example.com/v1/ping"})
	require.NoError(t, err)

	evPipeline.Stop()
	require.NotEmpty(t, captured)
	require.Equal(t, events.PhaseRequest, captured[0].Phase)
}

type recordingConsumer struct {
	out *[]events.Event
}

func (r recordingConsumer) Consume(e events.Event) {
	*r.out = append(*r.out, e)
}

func TestPipeline_ShutdownFlushesActiveRecorder(t *testing.T) {
	store := newTestPlanStore(t, passthroughPlanYAML)
	p := New(store, UpstreamFunc(func(ctx context.Context, req *flowmodel.Request) (*flowmodel.Response, error) {
		return &flowmodel.Response{Status: 200}, nil
	}), nil, nil)

	tapePath := t.TempDir() + "/run.tape"
	require.NoError(t, p.SwitchMode(context.Background(), runmode.ModeRecord, tapePath))
	_, err := p.Handle(context.Background(), &flowmodel.Request{Method: "GET", URL: "https://api.example.com/v1/ping"})
	require.NoError(t, err)

	require.NoError(t, p.Shutdown())
}
