package queue

import (
	"testing"

	"github.com/nmxmxh/actorkernel/internal/handle"
	"github.com/nmxmxh/actorkernel/internal/mailbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_PopEmptyReturnsNil(t *testing.T) {
	q := New()
	assert.Nil(t, q.Pop())
}

func TestQueue_FIFOOrder(t *testing.T) {
	q := New()
	a := mailbox.New(handle.New(0, 1))
	b := mailbox.New(handle.New(0, 2))
	c := mailbox.New(handle.New(0, 3))

	q.Push(a)
	q.Push(b)
	q.Push(c)

	assert.Same(t, a, q.Pop())
	assert.Same(t, b, q.Pop())
	assert.Same(t, c, q.Pop())
	assert.Nil(t, q.Pop())
}

func TestQueue_PopDetachesNext(t *testing.T) {
	q := New()
	a := mailbox.New(handle.New(0, 1))
	b := mailbox.New(handle.New(0, 2))
	q.Push(a)
	q.Push(b)

	popped := q.Pop()
	require.Same(t, a, popped)
	assert.Nil(t, popped.Next())
}

func TestQueue_PushAlreadyLinkedPanics(t *testing.T) {
	q := New()
	a := mailbox.New(handle.New(0, 1))
	b := mailbox.New(handle.New(0, 2))
	a.SetNext(b)

	assert.Panics(t, func() { q.Push(a) })
}

func TestQueue_ReusingMailboxAfterPopWorks(t *testing.T) {
	q := New()
	a := mailbox.New(handle.New(0, 1))
	q.Push(a)
	q.Pop()

	assert.NotPanics(t, func() { q.Push(a) })
	assert.Same(t, a, q.Pop())
}
