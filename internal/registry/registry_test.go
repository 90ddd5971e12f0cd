package registry

import (
	"testing"

	"github.com/nmxmxh/actorkernel/internal/handle"
	"github.com/nmxmxh/actorkernel/internal/logging"
	"github.com/nmxmxh/actorkernel/internal/mailbox"
	"github.com/nmxmxh/actorkernel/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopBehavior struct{ service.NopBehavior }

func (nopBehavior) Init(ctx *service.Context, args string, sender service.Sender) error { return nil }
func (nopBehavior) Handle(ctx *service.Context, msg *mailbox.Message)                   {}

func newContext(h handle.Handle) *service.Context {
	return service.New(h, &nopBehavior{}, logging.Default("test"))
}

func TestRegistry_RegisterAssignsIncreasingHandles(t *testing.T) {
	r := New(0x01)

	h1 := r.Register(newContext)
	h2 := r.Register(newContext)

	assert.Equal(t, uint8(0x01), h1.Harbor())
	assert.Equal(t, uint8(0x01), h2.Harbor())
	assert.NotEqual(t, h1.Local(), h2.Local())
}

func TestRegistry_GrabReturnsLiveContext(t *testing.T) {
	r := New(0x00)
	h := r.Register(newContext)

	ctx, ok := r.Grab(h)
	require.True(t, ok)
	assert.Equal(t, h, ctx.Handle())
	ctx.Release()
}

func TestRegistry_GrabMissingFails(t *testing.T) {
	r := New(0x00)
	_, ok := r.Grab(handle.New(0x00, 999))
	assert.False(t, ok)
}

func TestRegistry_RetireRemovesSlot(t *testing.T) {
	r := New(0x00)
	h := r.Register(newContext)

	assert.True(t, r.Retire(h))
	_, ok := r.Grab(h)
	assert.False(t, ok)
}

func TestRegistry_RetireUnknownHandleFails(t *testing.T) {
	r := New(0x00)
	assert.False(t, r.Retire(handle.New(0x00, 42)))
}

func TestRegistry_RetireTwiceSucceedsOnlyOnce(t *testing.T) {
	r := New(0x00)
	h := r.Register(newContext)

	assert.True(t, r.Retire(h))
	assert.False(t, r.Retire(h))
}

func TestRegistry_GrowsPastInitialSlotSize(t *testing.T) {
	r := New(0x00)
	var hs []handle.Handle
	for i := 0; i < defaultSlotSize*8; i++ {
		hs = append(hs, r.Register(newContext))
	}
	assert.Equal(t, defaultSlotSize*8, len(hs))

	for _, h := range hs {
		ctx, ok := r.Grab(h)
		require.True(t, ok)
		ctx.Release()
	}
	assert.Equal(t, defaultSlotSize*8, r.Count())
}

func TestRegistry_NameHandleBindsAndFindsName(t *testing.T) {
	r := New(0x00)
	h := r.Register(newContext)

	canonical, ok := r.NameHandle(h, "logger")
	require.True(t, ok)
	assert.Equal(t, "logger", canonical)

	found, ok := r.FindName("logger")
	require.True(t, ok)
	assert.Equal(t, h, found)
}

func TestRegistry_NameHandleRejectsDuplicateName(t *testing.T) {
	r := New(0x00)
	h1 := r.Register(newContext)
	h2 := r.Register(newContext)

	_, ok := r.NameHandle(h1, "dup")
	require.True(t, ok)

	_, ok = r.NameHandle(h2, "dup")
	assert.False(t, ok)
}

func TestRegistry_RetireCompactsNames(t *testing.T) {
	r := New(0x00)
	h := r.Register(newContext)
	r.NameHandle(h, "svc")

	r.Retire(h)

	_, ok := r.FindName("svc")
	assert.False(t, ok)
}

func TestRegistry_CountReflectsLiveContexts(t *testing.T) {
	r := New(0x00)
	assert.Equal(t, 0, r.Count())

	h1 := r.Register(newContext)
	r.Register(newContext)
	assert.Equal(t, 2, r.Count())

	r.Retire(h1)
	assert.Equal(t, 1, r.Count())
}

func TestRegistry_RetireAllDrainsEverything(t *testing.T) {
	r := New(0x00)
	for i := 0; i < 10; i++ {
		r.Register(newContext)
	}
	require.Equal(t, 10, r.Count())

	r.RetireAll()
	assert.Equal(t, 0, r.Count())
}

func TestRegistry_SetReleasePusherInvokedOnRetire(t *testing.T) {
	r := New(0x00)
	h := r.Register(newContext)

	var pushed *mailbox.Mailbox
	r.SetReleasePusher(func(mb *mailbox.Mailbox) { pushed = mb })

	r.Retire(h)
	require.NotNil(t, pushed)
	assert.Equal(t, h, pushed.Owner())
}
