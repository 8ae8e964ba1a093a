// Package queue implements the ResponseSlotQueue of spec.md §4.1: a fixed-capacity
// array of N single-shot rendezvous slots. Workers put in any order; the consumer gets
// in ascending index order, each get blocking only on its own slot.
package queue

import (
	"errors"
	"sync"

	"github.com/severinsimmler/mure/pkg/muretypes"
)

// ErrDoublePut is returned when put is called twice on the same index — a caller bug,
// never triggered by normal dispatcher operation.
var ErrDoublePut = errors.New("queue: put called twice for the same index")

// ErrSlotDrained is returned when get is called on a slot that has already been
// delivered to a previous get call.
var ErrSlotDrained = errors.New("queue: slot already drained")

type slot struct {
	ready    chan struct{}
	response *muretypes.ResponseRecord

	mu      sync.Mutex
	put     bool
	drained bool
}

// ResponseSlotQueue holds exactly one ResponseRecord per index in [0, n), each with its
// own readiness signal, so get(k) only ever waits on slot k.
type ResponseSlotQueue struct {
	slots []*slot
}

// New builds a ResponseSlotQueue with n slots.
func New(n int) *ResponseSlotQueue {
	slots := make([]*slot, n)
	for i := range slots {
		slots[i] = &slot{ready: make(chan struct{})}
	}
	return &ResponseSlotQueue{slots: slots}
}

// Put stores response at index, exactly once. A second Put at the same index is a bug
// and returns ErrDoublePut without modifying the slot.
func (q *ResponseSlotQueue) Put(index int, response *muretypes.ResponseRecord) error {
	s := q.slots[index]
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.put {
		return ErrDoublePut
	}
	s.put = true
	s.response = response
	close(s.ready)
	return nil
}

// Get blocks until Put(index, ...) has occurred, then returns the stored response.
// A second Get on the same index returns ErrSlotDrained instead of blocking again.
func (q *ResponseSlotQueue) Get(index int) (*muretypes.ResponseRecord, error) {
	s := q.slots[index]
	<-s.ready

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drained {
		return nil, ErrSlotDrained
	}
	s.drained = true
	return s.response, nil
}

// Cancel puts a fresh response from newResponse into every slot that has no Put yet,
// without error on slots that already do. It guarantees Get(k) returns for every k even
// when whatever was supposed to produce that slot's real response gave up (e.g. the
// driving context was cancelled) — a consumer draining via Get always makes forward
// progress instead of blocking forever on an index nothing will ever deliver to.
// newResponse is called once per cancelled slot so each gets an independent
// *ResponseRecord, never a shared one a caller could mutate across "different" responses.
func (q *ResponseSlotQueue) Cancel(newResponse func() *muretypes.ResponseRecord) {
	for _, s := range q.slots {
		s.mu.Lock()
		if !s.put {
			s.put = true
			s.response = newResponse()
			close(s.ready)
		}
		s.mu.Unlock()
	}
}

// Empty reports whether every slot is either not yet put, or put-and-already-drained —
// i.e. there is no response currently waiting to be collected.
func (q *ResponseSlotQueue) Empty() bool {
	for _, s := range q.slots {
		s.mu.Lock()
		pending := s.put && !s.drained
		s.mu.Unlock()
		if pending {
			return false
		}
	}
	return true
}
