package events

import (
	"encoding/json"
	"sync"

	"github.com/agentchaos/chaosproxy/internal/redact"
	"go.uber.org/zap/zapcore"
)

// LogSink writes one redacted JSON object per line to a WriteSyncer —
// typically a lumberjack.Logger for rotation, the same rotation stack
// the process logger uses, but writing Event's own JSON encoding rather
// than zap's log-statement encoding, since an Event is a domain object
// and not a log line.
type LogSink struct {
	mu       sync.Mutex
	out      zapcore.WriteSyncer
	redactor *redact.Redactor
}

// NewLogSink builds a LogSink writing to out.
func NewLogSink(out zapcore.WriteSyncer, redactor *redact.Redactor) *LogSink {
	if redactor == nil {
		redactor = redact.New(true)
	}
	return &LogSink{out: out, redactor: redactor}
}

// Consume implements Consumer.
func (s *LogSink) Consume(e Event) {
	e.URLRedacted = s.redactor.String(e.URLRedacted)
	e.ErrorCode = s.redactor.String(e.ErrorCode)

	payload, err := json.Marshal(e)
	if err != nil {
		return
	}
	payload = append(payload, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = s.out.Write(payload)
}
