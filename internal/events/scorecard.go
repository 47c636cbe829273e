package events

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Scorecard aggregates the running counters a chaos run is scored on.
// Each counter is a plain atomic field updated as Events are consumed;
// a snapshot is safe to read concurrently with updates.
type Scorecard struct {
	totalRequests           atomic.Uint64
	chaosInjections         atomic.Uint64
	agentToAgentDisruptions atomic.Uint64
	consensusDelays         atomic.Uint64
	messageMutations        atomic.Uint64
	agentIsolations         atomic.Uint64
	piiLeakageIncidents     atomic.Uint64
	protocolAttacks         atomic.Uint64
	raceConditionCandidates atomic.Uint64

	hallucinationHits atomic.Uint64

	mu                      sync.Mutex
	swarmCommunicationError map[string]uint64

	registry *prometheus.Registry
	metrics  *scorecardMetrics
}

// NewScorecard builds an empty Scorecard, optionally registering
// Prometheus gauges/counters with reg (pass nil to skip Prometheus
// export entirely — MetricsHandler then serves an empty 404).
func NewScorecard(reg *prometheus.Registry) *Scorecard {
	s := &Scorecard{swarmCommunicationError: make(map[string]uint64)}
	if reg != nil {
		s.registry = reg
		s.metrics = newScorecardMetrics(reg)
	}
	return s
}

// MetricsHandler returns the Prometheus exposition handler for this
// scorecard's registry, or a handler that answers 404 if no registry
// was supplied at construction time.
func (s *Scorecard) MetricsHandler() http.Handler {
	if s.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

// Consume implements Consumer, folding e into the running counters.
func (s *Scorecard) Consume(e Event) {
	s.totalRequests.Add(1)
	if s.metrics != nil {
		s.metrics.totalRequests.Inc()
	}

	if e.ChaosApplied {
		s.chaosInjections.Add(1)
		if s.metrics != nil {
			s.metrics.chaosInjections.Inc()
		}
	}

	if e.TrafficType == "AGENT_TO_AGENT" && e.ChaosApplied {
		s.agentToAgentDisruptions.Add(1)
	}

	for _, tag := range e.AppliedStrategies {
		switch tag {
		case "swarm_disruption":
			s.recordSwarmOutcome(e)
		case "hallucination":
			s.hallucinationHits.Add(1)
		case "mcp_fuzz":
			s.protocolAttacks.Add(1)
		}
	}

	if e.Phase == PhaseError {
		s.recordSwarmError(e.ErrorCode)
	}
}

func (s *Scorecard) recordSwarmOutcome(e Event) {
	switch e.TrafficSubtype {
	case "consensus_vote":
		s.consensusDelays.Add(1)
	default:
		s.messageMutations.Add(1)
	}
	if e.Status == 503 {
		s.agentIsolations.Add(1)
	}
}

func (s *Scorecard) recordSwarmError(code string) {
	if code == "" {
		return
	}
	s.mu.Lock()
	s.swarmCommunicationError[code]++
	s.mu.Unlock()
}

// RecordPIILeak increments the PII leakage counter. Called by the
// control plane / redactor integration when a redaction pass actually
// matches something, not on every string it inspects.
func (s *Scorecard) RecordPIILeak() {
	s.piiLeakageIncidents.Add(1)
}

// RecordRaceCandidate increments the race-condition-candidate counter,
// driven by RaceChecker.
func (s *Scorecard) RecordRaceCandidate() {
	s.raceConditionCandidates.Add(1)
}

// Snapshot is the JSON-serializable view GET /scorecard returns.
type Snapshot struct {
	TotalRequests           uint64            `json:"total_requests"`
	ChaosInjections         uint64            `json:"chaos_injections"`
	SwarmCommunicationError map[string]uint64 `json:"swarm_communication_errors"`
	AgentToAgentDisruptions uint64            `json:"agent_to_agent_disruptions"`
	ConsensusDelays         uint64            `json:"consensus_delays"`
	MessageMutations        uint64            `json:"message_mutations"`
	AgentIsolations         uint64            `json:"agent_isolations"`
	HallucinationRate       float64           `json:"hallucination_rate"`
	PIILeakageIncidents     uint64            `json:"pii_leakage_incidents"`
	ProtocolAttacks         uint64            `json:"protocol_attacks"`
	RaceConditionCandidates uint64            `json:"race_condition_candidates"`
}

// Snapshot returns a point-in-time copy of every counter.
func (s *Scorecard) Snapshot() Snapshot {
	s.mu.Lock()
	errs := make(map[string]uint64, len(s.swarmCommunicationError))
	for k, v := range s.swarmCommunicationError {
		errs[k] = v
	}
	s.mu.Unlock()

	var rate float64
	if total := s.totalRequests.Load(); total > 0 {
		rate = float64(s.hallucinationHits.Load()) / float64(total)
	}

	return Snapshot{
		TotalRequests:           s.totalRequests.Load(),
		ChaosInjections:         s.chaosInjections.Load(),
		SwarmCommunicationError: errs,
		AgentToAgentDisruptions: s.agentToAgentDisruptions.Load(),
		ConsensusDelays:         s.consensusDelays.Load(),
		MessageMutations:        s.messageMutations.Load(),
		AgentIsolations:         s.agentIsolations.Load(),
		HallucinationRate:       rate,
		PIILeakageIncidents:     s.piiLeakageIncidents.Load(),
		ProtocolAttacks:         s.protocolAttacks.Load(),
		RaceConditionCandidates: s.raceConditionCandidates.Load(),
	}
}

// scorecardMetrics mirrors the scorecard's counters as Prometheus
// instruments, one field per instrument, built once and registered
// at construction time.
type scorecardMetrics struct {
	totalRequests   prometheus.Counter
	chaosInjections prometheus.Counter
}

func newScorecardMetrics(reg prometheus.Registerer) *scorecardMetrics {
	m := &scorecardMetrics{
		totalRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chaosproxy_total_requests",
			Help: "Total number of flows observed by the proxy",
		}),
		chaosInjections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chaosproxy_chaos_injections_total",
			Help: "Total number of flows a chaos strategy mutated",
		}),
	}
	reg.MustRegister(m.totalRequests, m.chaosInjections)
	return m
}
