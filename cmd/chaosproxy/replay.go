package main

import (
	"fmt"
	"sort"

	"github.com/agentchaos/chaosproxy/internal/tape"
)

// runReplay loads a tape and summarizes it with no proxy listener and no
// upstream traffic, for CI regression checks of a previously recorded
// chaos session: did the recording survive intact, and which strategies
// actually fired.
func runReplay(tapePath string) error {
	player, err := tape.LoadPlayer(tapePath)
	if err != nil {
		return &tapeIOError{err: err}
	}

	entries := player.Entries()
	strategyCounts := map[string]int{}
	statusCounts := map[int]int{}
	chaosApplied := 0

	for _, e := range entries {
		statusCounts[e.Response.Status]++
		if e.ChaosContext.ChaosApplied {
			chaosApplied++
		}
		for _, s := range e.ChaosContext.AppliedStrategies {
			strategyCounts[s]++
		}
	}

	fmt.Printf("tape %q: %d entries, %d with chaos applied\n", tapePath, len(entries), chaosApplied)

	statuses := make([]int, 0, len(statusCounts))
	for status := range statusCounts {
		statuses = append(statuses, status)
	}
	sort.Ints(statuses)
	for _, status := range statuses {
		fmt.Printf("  status %d: %d\n", status, statusCounts[status])
	}

	strategies := make([]string, 0, len(strategyCounts))
	for s := range strategyCounts {
		strategies = append(strategies, s)
	}
	sort.Strings(strategies)
	for _, s := range strategies {
		fmt.Printf("  strategy %q: %d\n", s, strategyCounts[s])
	}

	return nil
}
