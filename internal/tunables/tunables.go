// Package tunables holds the live-mutable timing triple and repeat count
// shared between C5 (writer, on API calls) and C4 (reader, at operation
// boundaries), per spec §5 Shared Resources and §9 Design Notes.
//
// The triple is packed into one atomic.Uint64 word
// (press_ms<<32 | release_ms<<16 | wait_ms) rather than three separate
// atomics, the alternative spec §9 offers — chosen so "re-snapshot all
// three at once" is a single atomic load instead of a merely-tolerated
// per-field skew. Repeats get their own atomic.Int32 since they aren't
// part of the same timing-coherency concern.
package tunables

import "sync/atomic"

type Triple struct {
	PressMs   int
	ReleaseMs int
	WaitMs    int
}

type Tunables struct {
	packed  atomic.Uint64
	repeats atomic.Int32
}

func New(t Triple, repeats int) *Tunables {
	tn := &Tunables{}
	tn.Store(t)
	tn.repeats.Store(int32(repeats))
	return tn
}

func (tn *Tunables) Store(t Triple) {
	word := uint64(uint32(t.PressMs))<<32 | uint64(uint16(t.ReleaseMs))<<16 | uint64(uint16(t.WaitMs))
	tn.packed.Store(word)
}

func (tn *Tunables) Load() Triple {
	word := tn.packed.Load()
	return Triple{
		PressMs:   int(uint32(word >> 32)),
		ReleaseMs: int(uint16(word >> 16)),
		WaitMs:    int(uint16(word)),
	}
}

func (tn *Tunables) StoreRepeats(n int) { tn.repeats.Store(int32(n)) }
func (tn *Tunables) LoadRepeats() int   { return int(tn.repeats.Load()) }
