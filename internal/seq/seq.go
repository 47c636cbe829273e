// Package seq provides the single global sequence counter shared by
// TapeEntry.Sequence and Event.Sequence — cross-flow ordering has no
// other defined meaning, so one atomic counter shared by
// the tape Recorder and the event emitter is sufficient.
package seq

import "sync/atomic"

var counter atomic.Uint64

// Next returns a strictly increasing sequence number, starting at 1.
func Next() uint64 {
	return counter.Add(1)
}
