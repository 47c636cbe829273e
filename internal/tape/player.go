package tape

import (
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/agentchaos/chaosproxy/internal/fingerprint"
)

// ServeResult is what Player.Serve hands back to the flow pipeline: the
// response to send and the chaos metadata to restore on the flow.
type ServeResult struct {
	Response     ResponseSnapshot
	ChaosContext ChaosContext
	Hit          bool
	PartialMatch bool
}

// Player serves a loaded tape's entries back in playback mode with no
// upstream traffic. It is read-only after Load; per-fingerprint FIFO
// consumption is guarded by a short lock since flows may be served
// concurrently.
type Player struct {
	mu       sync.Mutex
	exact    map[string][]Entry // fingerprint.Key() -> FIFO queue
	partial  map[string][]Entry // fingerprint.PartialKey() -> FIFO queue
	tape     *Tape
}

// LoadPlayer reads path and indexes every entry for exact and partial
// (method, normalized_url) lookup.
func LoadPlayer(path string) (*Player, error) {
	t, err := LoadFromFile(path)
	if err != nil {
		return nil, err
	}

	p := &Player{
		exact:   make(map[string][]Entry),
		partial: make(map[string][]Entry),
		tape:    t,
	}
	for _, e := range t.Entries {
		p.exact[e.Fingerprint] = append(p.exact[e.Fingerprint], e)
		if partialKey, ok := partialKeyOf(e.Fingerprint); ok {
			p.partial[partialKey] = append(p.partial[partialKey], e)
		}
	}
	return p, nil
}

// Entries returns a copy of every entry the tape holds, in recorded
// order, for CI regression tooling that wants to summarize a tape
// without driving it through a live pipeline.
func (p *Player) Entries() []Entry {
	out := make([]Entry, len(p.tape.Entries))
	copy(out, p.tape.Entries)
	return out
}

// partialKeyOf derives a fingerprint.PartialKey()-compatible string
// (method\x00normalized_url) from a full fingerprint.Key() string, since
// TapeEntry only stores the full key.
func partialKeyOf(fullKey string) (string, bool) {
	parts := strings.SplitN(fullKey, "\x00", 3)
	if len(parts) < 2 {
		return "", false
	}
	return parts[0] + "\x00" + parts[1], true
}

// Serve implements the exact -> partial -> synthesized-404 fallback
// chain.
func (p *Player) Serve(fp fingerprint.Fingerprint) ServeResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	if queue := p.exact[fp.Key()]; len(queue) > 0 {
		entry := queue[0]
		p.exact[fp.Key()] = queue[1:]
		return ServeResult{Response: entry.Response, ChaosContext: entry.ChaosContext, Hit: true}
	}

	if queue := p.partial[fp.PartialKey()]; len(queue) > 0 {
		entry := queue[0]
		p.partial[fp.PartialKey()] = queue[1:]
		return ServeResult{Response: entry.Response, ChaosContext: entry.ChaosContext, Hit: true, PartialMatch: true}
	}

	return ServeResult{Response: missResponse(fp), Hit: false}
}

func missResponse(fp fingerprint.Fingerprint) ResponseSnapshot {
	body := fmt.Sprintf("tape miss: no recorded entry for fingerprint %s", fp.Key())
	return ResponseSnapshot{
		Status:       404,
		Reason:       "Tape Miss",
		Headers:      map[string][]string{"Content-Type": {"text/plain"}},
		BodyBytesHex: hex.EncodeToString([]byte(body)),
	}
}
