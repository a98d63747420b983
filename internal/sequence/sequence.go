// Package sequence hands out request tickets so that only the response to the
// most recently issued request is applied.
package sequence

import "sync/atomic"

// Ticket identifies one issued request.
type Ticket uint64

// Sequencer issues monotonically increasing tickets. The zero value is ready
// to use.
type Sequencer struct {
	latest atomic.Uint64
}

// Next issues a ticket that supersedes every earlier one.
func (s *Sequencer) Next() Ticket {
	return Ticket(s.latest.Add(1))
}

// Current reports whether t is still the latest issued ticket.
func (s *Sequencer) Current(t Ticket) bool {
	return s.latest.Load() == uint64(t)
}
