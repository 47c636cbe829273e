// Package flowmodel defines the per-request state object the chaos core
// operates on. In production this object is owned by the surrounding HTTP
// interception framework (out of scope here, per the proxy's own design);
// the core only ever sees a mutable reference to one Flow for the duration
// of one request/response cycle.
package flowmodel

import "sync"

// TrafficType classifies what kind of outbound call a flow represents.
type TrafficType string

const (
	TrafficToolCall      TrafficType = "TOOL_CALL"
	TrafficLLMAPI        TrafficType = "LLM_API"
	TrafficAgentToAgent  TrafficType = "AGENT_TO_AGENT"
	TrafficUnknown       TrafficType = "UNKNOWN"
)

// TrafficSubtype refines TrafficAgentToAgent flows (others use TrafficSubtypeNone).
type TrafficSubtype string

const (
	SubtypeSupervisorToWorker TrafficSubtype = "supervisor_to_worker"
	SubtypeConsensusVote      TrafficSubtype = "consensus_vote"
	SubtypeWorkerComm         TrafficSubtype = "worker_communication"
	SubtypeAutogenMessage     TrafficSubtype = "autogen_message"
	SubtypeSwarmMessage       TrafficSubtype = "swarm_message"
	SubtypeNone               TrafficSubtype = "none"
)

// Request is the mutable outbound half of a Flow.
type Request struct {
	Method    string
	URL       string
	Headers   map[string][]string
	BodyBytes []byte
}

// Response is the mutable inbound half of a Flow, nil until upstream
// responds (or a strategy short-circuits it).
type Response struct {
	Status    int
	Reason    string
	Headers   map[string][]string
	BodyBytes []byte
}

// Metadata carries everything the core attaches to a flow as it moves
// through the pipeline.
type Metadata struct {
	TrafficType      TrafficType
	TrafficSubtype   TrafficSubtype
	AgentRole        string
	AppliedStrategies []string
	ChaosApplied     bool
	Fingerprint      string
	Sequence         uint64
	ErrorCode        string
	Cancelled        bool
}

// AddStrategy records a strategy tag as having mutated this flow.
func (m *Metadata) AddStrategy(tag string) {
	m.AppliedStrategies = append(m.AppliedStrategies, tag)
	m.ChaosApplied = true
}

// Flow is the unit of work passed through classify -> match -> strategies
// -> record/playback -> event emit. One Flow is pinned to one worker for
// its lifetime; the core never shares a Flow pointer across goroutines
// concurrently, so no internal locking is needed on Request/Response/
// Metadata themselves. ResponseSet guards the one case where a strategy
// and the upstream call path could race to assign Response (short-circuit
// vs. normal forward), by making "already short-circuited" a readable fact.
type Flow struct {
	Request  *Request
	Response *Response
	Metadata Metadata

	mu             sync.Mutex
	shortCircuited bool
}

// NewFlow wraps a freshly ingressed request as a Flow ready for classification.
func NewFlow(req *Request) *Flow {
	return &Flow{
		Request: req,
		Metadata: Metadata{
			TrafficType:    TrafficUnknown,
			TrafficSubtype: SubtypeNone,
		},
	}
}

// ShortCircuit installs a synthesized response and marks the flow as not
// needing an upstream call. Returns false if the flow was already
// short-circuited by an earlier strategy (first writer wins).
func (f *Flow) ShortCircuit(resp *Response) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.shortCircuited {
		return false
	}
	f.shortCircuited = true
	f.Response = resp
	return true
}

// IsShortCircuited reports whether a strategy already synthesized a response.
func (f *Flow) IsShortCircuited() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.shortCircuited
}

// HeaderValue returns the first value of a header, case-insensitively
// matched the way net/http.Header would, without pulling in net/http for
// a type this package otherwise doesn't need.
func HeaderValue(headers map[string][]string, key string) string {
	for k, v := range headers {
		if len(v) > 0 && equalFold(k, key) {
			return v[0]
		}
	}
	return ""
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
