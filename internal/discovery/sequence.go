package discovery

import "sync/atomic"

// Ticket identifies one issued lookup in a Sequencer.
type Ticket uint64

// Sequencer lets a caller drop late answers from overlapping lookups, e.g. a
// search-as-you-type box where only the most recent query should win.
// The Client never consults it. The zero value is ready to use.
type Sequencer struct {
	last atomic.Uint64
}

// Issue returns a ticket newer than every ticket issued before.
func (s *Sequencer) Issue() Ticket {
	return Ticket(s.last.Add(1))
}

// Latest reports whether t is still the most recently issued ticket.
func (s *Sequencer) Latest(t Ticket) bool {
	return uint64(t) == s.last.Load()
}
