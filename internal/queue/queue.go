// Package queue implements the global run queue (spec.md §4.D): a strict
// FIFO of mailboxes that currently hold work, threaded intrusively through
// each mailbox's own next pointer so enqueueing never allocates. Grounded
// on the original skynet_mq.c's global_queue and on spec.md §9's note
// that intrusive linkage avoids a second allocation per enqueue.
package queue

import (
	"sync"

	"github.com/nmxmxh/actorkernel/internal/mailbox"
)

// Queue is the scheduler's single global run queue. The queue does not own
// the mailboxes it threads; it merely links them by their own next field.
type Queue struct {
	mu   sync.Mutex
	head *mailbox.Mailbox
	tail *mailbox.Mailbox
}

// New creates an empty global run queue.
func New() *Queue {
	return &Queue{}
}

// Push appends mb to the tail of the queue. mb.Next() must currently be
// nil (spec.md §4.D: "assert mailbox.next == null").
func (q *Queue) Push(mb *mailbox.Mailbox) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if mb.Next() != nil {
		panic("queue: Push called on a mailbox already linked")
	}

	if q.tail == nil {
		q.head = mb
		q.tail = mb
		return
	}
	q.tail.SetNext(mb)
	q.tail = mb
}

// Pop removes and returns the mailbox at the head of the queue, detaching
// it and clearing its next pointer. It returns nil when the queue is
// empty.
func (q *Queue) Pop() *mailbox.Mailbox {
	q.mu.Lock()
	defer q.mu.Unlock()

	mb := q.head
	if mb == nil {
		return nil
	}
	q.head = mb.Next()
	if q.head == nil {
		q.tail = nil
	}
	mb.SetNext(nil)
	return mb
}
