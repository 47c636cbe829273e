package tape

import (
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/agentchaos/chaosproxy/internal/flowmodel"
	"github.com/agentchaos/chaosproxy/internal/seq"
)

// Recorder is the single writer for one RECORD-mode run. Concurrent
// Append calls are serialized on mu; the tape is only read back after
// Flush, so no reader lock is needed.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
	path    string
}

// NewRecorder opens a Recorder that will flush to path on Flush.
func NewRecorder(path string) *Recorder {
	return &Recorder{path: path}
}

// Append records a completed flow's fingerprint, response, and chaos
// metadata. Flows without a Response (canceled before forwarding) are
// skipped — there is nothing useful to replay.
func (r *Recorder) Append(fingerprintKey string, f *flowmodel.Flow) {
	if f.Response == nil {
		return
	}

	entry := Entry{
		Fingerprint: fingerprintKey,
		Response: ResponseSnapshot{
			Status:       f.Response.Status,
			Reason:       f.Response.Reason,
			Headers:      f.Response.Headers,
			BodyBytesHex: hex.EncodeToString(f.Response.BodyBytes),
		},
		ChaosContext: ChaosContext{
			AppliedStrategies: append([]string(nil), f.Metadata.AppliedStrategies...),
			ChaosApplied:      f.Metadata.ChaosApplied,
			TrafficType:       f.Metadata.TrafficType,
			TrafficSubtype:    f.Metadata.TrafficSubtype,
			AgentRole:         f.Metadata.AgentRole,
		},
		Timestamp: time.Now(),
		Sequence:  seq.Next(),
	}

	r.mu.Lock()
	r.entries = append(r.entries, entry)
	r.mu.Unlock()
}

// Len returns the number of entries recorded so far.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Flush writes the accumulated entries to disk. This happens once, at
// graceful shutdown; mid-run crashes lose unflushed entries by design
// (a failed append is buffered, not fatal —
// the buffering is simply holding entries in r.entries until Flush).
func (r *Recorder) Flush() error {
	r.mu.Lock()
	entries := append([]Entry(nil), r.entries...)
	r.mu.Unlock()

	t := &Tape{
		Version: 1,
		Metadata: Metadata{
			CreatedAt:       time.Now(),
			RecorderVersion: recorderVersion,
		},
		Entries: entries,
	}

	if err := SaveToFile(t, r.path); err != nil {
		return fmt.Errorf("tape: flush: %w", err)
	}
	return nil
}
