package testutil

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Epoch is the first instant a DeterministicClock reports.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// DeterministicClock hands out reproducible timestamps and UUIDs for
// fixture rows: the n-th call to Next returns Epoch plus n days.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu  sync.Mutex
	seq int64
}

// NewDeterministicClock creates a new deterministic clock starting at 0.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

// Next advances the clock and returns the new instant.
func (c *DeterministicClock) Next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return Epoch.AddDate(0, 0, int(c.seq))
}

// NextUUID advances the clock and returns a name-based UUID for the new
// sequence number. Equal sequence numbers give equal UUIDs across runs.
func (c *DeterministicClock) NextUUID() uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return SeqUUID(c.seq)
}

// Current returns the current sequence number without advancing.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Reset rewinds the clock to 0.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}

var fixtureNamespace = uuid.MustParse("6f1c2a4e-8a53-4f0e-9d7b-3c5e1f2a9b10")

// SeqUUID returns the fixture UUID for sequence number n.
func SeqUUID(n int64) uuid.UUID {
	return uuid.NewSHA1(fixtureNamespace, []byte{
		byte(n >> 56), byte(n >> 48), byte(n >> 40), byte(n >> 32),
		byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n),
	})
}
