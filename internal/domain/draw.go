package domain

import (
	"errors"
	"math/rand"
)

// ErrNoNumbersRemaining is returned once every number in the pool has been called.
var ErrNoNumbersRemaining = errors.New("all numbers have been called")

// DrawSequencer produces the without-replacement sequence of called numbers
// for a session.
type DrawSequencer struct {
	called    []int
	remaining []int
	rng       *rand.Rand
}

// NewDrawSequencer constructs a sequencer over the full number pool.
func NewDrawSequencer(rng *rand.Rand) *DrawSequencer {
	return &DrawSequencer{
		remaining: NewNumberPool(),
		rng:       rng,
	}
}

// DrawNext picks uniformly at random among the numbers not yet called,
// appends it to the call sequence and returns it. Once the pool is exhausted
// it keeps failing with ErrNoNumbersRemaining; numbers are never re-drawn.
func (d *DrawSequencer) DrawNext() (int, error) {
	if len(d.remaining) == 0 {
		return 0, ErrNoNumbersRemaining
	}
	i := d.rng.Intn(len(d.remaining))
	n := d.remaining[i]
	d.remaining[i] = d.remaining[len(d.remaining)-1]
	d.remaining = d.remaining[:len(d.remaining)-1]
	d.called = append(d.called, n)
	return n, nil
}

// Called returns a copy of the call sequence in call order.
func (d *DrawSequencer) Called() []int {
	return append([]int(nil), d.called...)
}

// RemainingCount returns how many numbers have not been called yet.
func (d *DrawSequencer) RemainingCount() int {
	return len(d.remaining)
}

// Reset clears the sequence back to the full pool. Used only when a session ends.
func (d *DrawSequencer) Reset() {
	d.called = nil
	d.remaining = NewNumberPool()
}
