// Package tape implements the deterministic record/playback store: the
// Recorder appends every completed flow to an in-memory tape and flushes
// it once at shutdown; the Player loads a tape and serves responses from
// it with no upstream traffic, honoring the fingerprint/partial-match/404
// fallback chain.
package tape

import (
	"time"

	"github.com/agentchaos/chaosproxy/internal/flowmodel"
)

// ResponseSnapshot is the recorded shape of a flow's response.
type ResponseSnapshot struct {
	Status          int                 `json:"status"`
	Reason          string              `json:"reason,omitempty"`
	Headers         map[string][]string `json:"headers,omitempty"`
	BodyBytesHex    string              `json:"body_bytes"`
	ContentEncoding string              `json:"content_encoding,omitempty"`
}

// ChaosContext is the recorded chaos-relevant metadata for a flow, enough
// to restore Metadata on playback without re-running classification or
// matching.
type ChaosContext struct {
	AppliedStrategies []string                 `json:"applied_strategies"`
	ChaosApplied      bool                     `json:"chaos_applied"`
	TrafficType       flowmodel.TrafficType    `json:"traffic_type"`
	TrafficSubtype    flowmodel.TrafficSubtype `json:"traffic_subtype"`
	AgentRole         string                   `json:"agent_role,omitempty"`
}

// Entry is one recorded request/response pair.
type Entry struct {
	Fingerprint  string           `json:"fingerprint"`
	Response     ResponseSnapshot `json:"response_snapshot"`
	ChaosContext ChaosContext     `json:"chaos_context"`
	Timestamp    time.Time        `json:"timestamp"`
	Sequence     uint64           `json:"sequence"`
}

// Metadata describes a tape file as a whole.
type Metadata struct {
	CreatedAt      time.Time `json:"created_at"`
	RecorderVersion string   `json:"recorder_version"`
}

// Tape is the full on-disk document: one JSON object per file, entries in
// recorded order.
type Tape struct {
	Version  int      `json:"version"`
	Metadata Metadata `json:"metadata"`
	Entries  []Entry  `json:"entries"`
}

const recorderVersion = "1"
