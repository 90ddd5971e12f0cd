package mailbox

import (
	"testing"

	"github.com/nmxmxh/actorkernel/internal/handle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailbox_PushReturnsTrueOnlyOnFirstTransition(t *testing.T) {
	m := New(handle.New(0, 1))

	assert.True(t, m.Push(&Message{Session: 1}))
	assert.False(t, m.Push(&Message{Session: 2}))
	assert.False(t, m.Push(&Message{Session: 3}))
	assert.Equal(t, 3, m.Len())
}

func TestMailbox_PopOneFIFOOrder(t *testing.T) {
	m := New(handle.New(0, 1))
	m.Push(&Message{Session: 1})
	m.Push(&Message{Session: 2})
	m.Push(&Message{Session: 3})

	for _, want := range []int32{1, 2, 3} {
		msg, ok := m.PopOne()
		require.True(t, ok)
		assert.Equal(t, want, msg.Session)
	}

	_, ok := m.PopOne()
	assert.False(t, ok)
}

func TestMailbox_PopOneClearsInGlobalWhenEmpty(t *testing.T) {
	m := New(handle.New(0, 1))
	assert.True(t, m.Push(&Message{}))
	m.PopOne()

	// Mailbox emptied and dropped out of global rotation; the next push
	// must report a fresh transition.
	assert.True(t, m.Push(&Message{}))
}

func TestMailbox_GrowPreservesOrderPastInitialCapacity(t *testing.T) {
	m := New(handle.New(0, 1))
	for i := 0; i < initialCapacity*3; i++ {
		m.Push(&Message{Session: int32(i)})
	}
	assert.Equal(t, initialCapacity*3, m.Len())

	for i := 0; i < initialCapacity*3; i++ {
		msg, ok := m.PopOne()
		require.True(t, ok)
		assert.Equal(t, int32(i), msg.Session)
	}
}

func TestMailbox_TakeOverloadFiresPastThresholdAndResetsOnDrain(t *testing.T) {
	m := New(handle.New(0, 1))
	for i := 0; i < overloadBaseline+8; i++ {
		m.Push(&Message{})
	}

	var sawOverload bool
	for {
		_, ok := m.PopOne()
		if !ok {
			break
		}
		if v, ok := m.TakeOverload(); ok {
			sawOverload = true
			assert.Greater(t, v, uint32(overloadBaseline))
		}
	}
	assert.True(t, sawOverload)

	_, ok := m.TakeOverload()
	assert.False(t, ok)
}

func TestMailbox_MarkReleaseTwicePanics(t *testing.T) {
	m := New(handle.New(0, 1))
	m.MarkRelease()
	assert.Panics(t, func() { m.MarkRelease() })
}

func TestMailbox_MarkReleaseReturnsTrueOnlyWhenNotAlreadyQueued(t *testing.T) {
	m := New(handle.New(0, 1))
	assert.True(t, m.MarkRelease())

	m2 := New(handle.New(0, 2))
	m2.Push(&Message{})
	assert.False(t, m2.MarkRelease())
}

func TestMailbox_ReleaseDrainsThroughDropFunc(t *testing.T) {
	m := New(handle.New(0, 1))
	m.Push(&Message{Session: 1})
	m.Push(&Message{Session: 2})

	var dropped []int32
	m.Release(func(msg *Message) { dropped = append(dropped, msg.Session) })

	assert.Equal(t, []int32{1, 2}, dropped)
	assert.Equal(t, 0, m.Len())
}

func TestMailbox_ReleaseWithNilDropUsesDefault(t *testing.T) {
	m := New(handle.New(0, 1))
	m.Push(&Message{})
	assert.NotPanics(t, func() { m.Release(nil) })
}
