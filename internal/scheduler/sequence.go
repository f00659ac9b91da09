package scheduler

import (
	"sync/atomic"

	"github.com/MrSnakeDoc/tally/internal/snapshot"
)

// Sequencer hands out monotonic request numbers per snapshot slice. A
// response is applied only if its number is newer than the last applied
// one for the same slice.
type Sequencer struct {
	counters map[snapshot.Slice]*atomic.Uint64
}

func NewSequencer() *Sequencer {
	s := &Sequencer{counters: make(map[snapshot.Slice]*atomic.Uint64, len(snapshot.Slices))}
	for _, sl := range snapshot.Slices {
		s.counters[sl] = new(atomic.Uint64)
	}
	return s
}

// Next returns the number of a request about to be issued for slice.
func (s *Sequencer) Next(slice snapshot.Slice) uint64 {
	return s.counters[slice].Add(1)
}

// Current returns the last number handed out for slice.
func (s *Sequencer) Current(slice snapshot.Slice) uint64 {
	return s.counters[slice].Load()
}
