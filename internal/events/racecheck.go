package events

import (
	"strings"
	"sync"
)

var readPrefixes = []string{"search_", "query_", "prepare_"}
var writePrefixes = []string{"book_", "commit_", "finalize_"}

type openCall struct {
	seq      uint64
	endpoint string
}

// RaceChecker flags a specific heuristic shape of cross-agent race: a
// write-like call (book_*/commit_*/finalize_*) issued by an agent role
// while an earlier read-like call (search_*/query_*/prepare_*) from the
// same role is still outstanding. It never blocks a flow — it only
// counts candidates on the Scorecard for later inspection.
type RaceChecker struct {
	mu      sync.Mutex
	pending map[string][]openCall // agent_role -> FIFO of outstanding read-like calls

	scorecard *Scorecard
}

// NewRaceChecker builds a checker that reports candidates to scorecard.
func NewRaceChecker(scorecard *Scorecard) *RaceChecker {
	return &RaceChecker{pending: make(map[string][]openCall), scorecard: scorecard}
}

// Consume implements Consumer.
func (r *RaceChecker) Consume(e Event) {
	if e.AgentRole == "" {
		return
	}
	endpoint := endpointOf(e.URLRedacted)

	switch {
	case e.Phase == PhaseRequest && hasPrefix(endpoint, readPrefixes):
		r.openRead(e.AgentRole, e.Sequence, endpoint)
	case e.Phase == PhaseResponse && hasPrefix(endpoint, readPrefixes):
		r.closeRead(e.AgentRole, endpoint)
	case e.Phase == PhaseRequest && hasPrefix(endpoint, writePrefixes):
		r.checkWrite(e.AgentRole, e.Sequence)
	}
}

func (r *RaceChecker) openRead(role string, seq uint64, endpoint string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[role] = append(r.pending[role], openCall{seq: seq, endpoint: endpoint})
}

func (r *RaceChecker) closeRead(role, endpoint string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	calls := r.pending[role]
	for i, c := range calls {
		if c.endpoint == endpoint {
			r.pending[role] = append(calls[:i], calls[i+1:]...)
			return
		}
	}
}

func (r *RaceChecker) checkWrite(role string, seq uint64) {
	r.mu.Lock()
	outstanding := false
	for _, c := range r.pending[role] {
		if c.seq < seq {
			outstanding = true
			break
		}
	}
	r.mu.Unlock()

	if outstanding && r.scorecard != nil {
		r.scorecard.RecordRaceCandidate()
	}
}

func hasPrefix(endpoint string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(endpoint, p) {
			return true
		}
	}
	return false
}

// endpointOf extracts the last path segment of a URL, lower-cased and
// stripped of any query string, for prefix matching against tool/action
// names like search_documents or commit_transaction.
func endpointOf(url string) string {
	if idx := strings.IndexByte(url, '?'); idx >= 0 {
		url = url[:idx]
	}
	url = strings.TrimSuffix(url, "/")
	if idx := strings.LastIndexByte(url, '/'); idx >= 0 {
		url = url[idx+1:]
	}
	return strings.ToLower(url)
}
