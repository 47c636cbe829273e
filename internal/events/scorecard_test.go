package events

import "testing"

func TestScorecard_CountsTotalRequestsAndInjections(t *testing.T) {
	s := NewScorecard(nil)
	s.Consume(Event{ChaosApplied: false})
	s.Consume(Event{ChaosApplied: true, AppliedStrategies: []string{"latency"}})

	snap := s.Snapshot()
	if snap.TotalRequests != 2 {
		t.Fatalf("expected 2 total requests, got %d", snap.TotalRequests)
	}
	if snap.ChaosInjections != 1 {
		t.Fatalf("expected 1 chaos injection, got %d", snap.ChaosInjections)
	}
}

func TestScorecard_SwarmDisruptionSplitsConsensusVsMutation(t *testing.T) {
	s := NewScorecard(nil)
	s.Consume(Event{ChaosApplied: true, AppliedStrategies: []string{"swarm_disruption"}, TrafficSubtype: "consensus_vote"})
	s.Consume(Event{ChaosApplied: true, AppliedStrategies: []string{"swarm_disruption"}, TrafficSubtype: "swarm_message"})

	snap := s.Snapshot()
	if snap.ConsensusDelays != 1 {
		t.Fatalf("expected 1 consensus delay, got %d", snap.ConsensusDelays)
	}
	if snap.MessageMutations != 1 {
		t.Fatalf("expected 1 message mutation, got %d", snap.MessageMutations)
	}
}

func TestScorecard_AgentIsolationCountsOnStatus503(t *testing.T) {
	s := NewScorecard(nil)
	s.Consume(Event{ChaosApplied: true, AppliedStrategies: []string{"swarm_disruption"}, Status: 503})

	if s.Snapshot().AgentIsolations != 1 {
		t.Fatalf("expected 1 agent isolation")
	}
}

func TestScorecard_SwarmCommunicationErrorsKeyedByCode(t *testing.T) {
	s := NewScorecard(nil)
	s.Consume(Event{Phase: PhaseError, ErrorCode: "SWARM_MUTATION_SCRIPT_FAILED"})
	s.Consume(Event{Phase: PhaseError, ErrorCode: "SWARM_MUTATION_SCRIPT_FAILED"})
	s.Consume(Event{Phase: PhaseError, ErrorCode: "RAG_JSONPATH_UNSUPPORTED"})

	snap := s.Snapshot()
	if snap.SwarmCommunicationError["SWARM_MUTATION_SCRIPT_FAILED"] != 2 {
		t.Fatalf("expected 2 script failures, got %+v", snap.SwarmCommunicationError)
	}
	if snap.SwarmCommunicationError["RAG_JSONPATH_UNSUPPORTED"] != 1 {
		t.Fatalf("expected 1 rag error, got %+v", snap.SwarmCommunicationError)
	}
}

func TestScorecard_HallucinationRateIsHitsOverTotal(t *testing.T) {
	s := NewScorecard(nil)
	s.Consume(Event{})
	s.Consume(Event{})
	s.Consume(Event{AppliedStrategies: []string{"hallucination"}})

	rate := s.Snapshot().HallucinationRate
	if rate < 0.33 || rate > 0.34 {
		t.Fatalf("expected hallucination rate ~0.333, got %f", rate)
	}
}
