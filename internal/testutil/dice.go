package testutil

import "sync"

// SequenceDie returns its draws in order and repeats the last one when exhausted.
type SequenceDie struct {
	mu    sync.Mutex
	draws []int
	next  int
}

// NewSequenceDie creates a die that yields draws in order.
func NewSequenceDie(draws ...int) *SequenceDie {
	if len(draws) == 0 {
		panic("testutil: SequenceDie needs at least one draw")
	}
	return &SequenceDie{draws: draws}
}

// Roll ignores sides and returns the next scripted draw.
func (d *SequenceDie) Roll(int) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	v := d.draws[d.next]
	if d.next < len(d.draws)-1 {
		d.next++
	}
	return v
}
