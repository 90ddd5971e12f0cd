// Package mailbox implements the per-service message queue (spec.md §4.C):
// a growable ring buffer guarded by one mutex, linked intrusively into the
// global run queue via an embedded next pointer (spec.md §9 "Intrusive
// linkage"). Grounded on the teacher's kernel/threads/foundation/
// message_queue.go ring-buffer shape, generalized from a fixed-capacity
// SharedArrayBuffer ring to a doubling Go-slice ring per spec.md's growth
// policy, and on the original skynet_mq.c for the exact doubling/overload
// algorithm.
package mailbox

import (
	"sync"

	"github.com/nmxmxh/actorkernel/internal/handle"
)

const (
	initialCapacity  = 64
	overloadBaseline = 1024
)

// Mailbox is one service's inbox: a power-of-two ring buffer plus the
// bookkeeping the scheduler and global run queue need to dispatch it
// exactly once at a time.
type Mailbox struct {
	mu sync.Mutex

	owner handle.Handle
	ring  []*Message
	head  uint32
	tail  uint32
	cap   uint32

	inGlobal bool
	released bool

	overloadThreshold uint32
	overload          uint32

	next *Mailbox // intrusive link into the global run queue
}

// New creates an empty mailbox owned by owner.
func New(owner handle.Handle) *Mailbox {
	return &Mailbox{
		owner:             owner,
		ring:              make([]*Message, initialCapacity),
		cap:               initialCapacity,
		overloadThreshold: overloadBaseline,
	}
}

// Owner returns the handle this mailbox belongs to.
func (m *Mailbox) Owner() handle.Handle { return m.owner }

// Next returns the intrusive global-queue link. Only the global run queue
// package reads this field.
func (m *Mailbox) Next() *Mailbox { return m.next }

// SetNext sets the intrusive global-queue link.
func (m *Mailbox) SetNext(n *Mailbox) { m.next = n }

// Push appends msg to the tail of the ring, growing the ring (doubling)
// if it is full. It returns true exactly when the mailbox transitioned
// from not-queued to queued, i.e. the caller must push it onto the global
// run queue (spec.md §4.C: "If in_global was false, set it true and push
// this mailbox onto the global queue").
func (m *Mailbox) Push(msg *Message) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ring[m.tail] = msg
	m.tail = (m.tail + 1) % m.cap
	if m.tail == m.head {
		m.grow()
	}

	if !m.inGlobal {
		m.inGlobal = true
		return true
	}
	return false
}

// grow doubles the ring's capacity, preserving message order. Only called
// from Push at the instant the ring is full (tail has wrapped to head), so
// the full ring — exactly m.cap live messages, not m.cap-1 — must be
// copied; a loop bounded by "until i reaches tail" would see head==tail
// immediately and copy zero messages. Caller must hold m.mu.
func (m *Mailbox) grow() {
	oldCap := m.cap
	newCap := oldCap * 2
	newRing := make([]*Message, newCap)
	for n := uint32(0); n < oldCap; n++ {
		newRing[n] = m.ring[(m.head+n)%oldCap]
	}
	m.ring = newRing
	m.cap = newCap
	m.head = 0
	m.tail = oldCap
}

// PopOne removes and returns the oldest pending message. If the mailbox is
// empty it clears in_global (spec.md §4.C: "if empty, clear in_global and
// return none") and reports ok=false. Otherwise it reports an overload
// observation when the post-pop length still exceeds overloadThreshold,
// doubling the threshold, and resets the threshold to its baseline once
// the mailbox drains to empty (original skynet_mq.c behavior).
func (m *Mailbox) PopOne() (msg *Message, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.head == m.tail {
		m.inGlobal = false
		return nil, false
	}

	msg = m.ring[m.head]
	m.ring[m.head] = nil
	m.head = (m.head + 1) % m.cap

	if m.head == m.tail {
		m.overloadThreshold = overloadBaseline
	} else if length := m.lenLocked(); length > m.overloadThreshold {
		m.overload = length
		m.overloadThreshold *= 2
	}

	return msg, true
}

// Len returns the number of pending messages.
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int(m.lenLocked())
}

func (m *Mailbox) lenLocked() uint32 {
	return (m.tail - m.head + m.cap) % m.cap
}

// TakeOverload returns the most recent overload observation and clears it,
// mirroring skynet_mq_overload: ok is false if no observation is pending.
func (m *Mailbox) TakeOverload() (value uint32, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.overload == 0 {
		return 0, false
	}
	value, m.overload = m.overload, 0
	return value, true
}

// MarkRelease flags the mailbox for teardown. It returns true when the
// caller must push the mailbox onto the global run queue so the scheduler
// observes the flag and tears it down (spec.md §4.C).
func (m *Mailbox) MarkRelease() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.released {
		panic("mailbox: MarkRelease called twice")
	}
	m.released = true

	if !m.inGlobal {
		m.inGlobal = true
		return true
	}
	return false
}

// IsRelease reports whether MarkRelease has been called.
func (m *Mailbox) IsRelease() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.released
}

// Release drains every pending message through drop and marks the mailbox
// unusable. Called by the scheduler when it pops a mailbox whose release
// flag is set (spec.md §4.C).
func (m *Mailbox) Release(drop DropFunc) {
	if drop == nil {
		drop = DefaultDrop
	}
	for {
		msg, ok := m.PopOne()
		if !ok {
			return
		}
		drop(msg)
	}
}
