package control

import (
	"errors"
	"testing"

	"github.com/nmxmxh/actorkernel/internal/handle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKernel struct {
	byName    map[string]handle.Handle
	lengths   map[handle.Handle]int
	launched  []string
	killed    []handle.Handle
	launchErr error
}

func newFakeKernel() *fakeKernel {
	return &fakeKernel{
		byName:  map[string]handle.Handle{},
		lengths: map[handle.Handle]int{},
	}
}

func (f *fakeKernel) QueryService(name string) (handle.Handle, bool) {
	h, ok := f.byName[name]
	return h, ok
}

func (f *fakeKernel) NewService(moduleName, args string) (handle.Handle, error) {
	if f.launchErr != nil {
		return handle.None, f.launchErr
	}
	f.launched = append(f.launched, moduleName)
	return handle.New(0, uint32(len(f.launched))), nil
}

func (f *fakeKernel) MailboxLength(h handle.Handle) (int, bool) {
	n, ok := f.lengths[h]
	return n, ok
}

func (f *fakeKernel) Retire(h handle.Handle) bool {
	f.killed = append(f.killed, h)
	return true
}

func TestController_MQLenReportsLength(t *testing.T) {
	fk := newFakeKernel()
	h := handle.New(0, 1)
	fk.lengths[h] = 5
	c := New(fk)

	n, err := c.MQLen(h)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestController_MQLenUnknownHandleFails(t *testing.T) {
	c := New(newFakeKernel())
	_, err := c.MQLen(handle.New(0, 99))
	assert.Error(t, err)
}

func TestController_LaunchDelegatesToKernel(t *testing.T) {
	fk := newFakeKernel()
	c := New(fk)

	h, err := c.Launch("echo", "args")
	require.NoError(t, err)
	assert.NotEqual(t, handle.None, h)
	assert.Equal(t, []string{"echo"}, fk.launched)
}

func TestController_LaunchPropagatesError(t *testing.T) {
	fk := newFakeKernel()
	fk.launchErr = errors.New("no such module")
	c := New(fk)

	_, err := c.Launch("missing", "")
	assert.Error(t, err)
}

func TestController_KillDelegatesToKernel(t *testing.T) {
	fk := newFakeKernel()
	c := New(fk)
	h := handle.New(0, 3)

	assert.True(t, c.Kill(h))
	assert.Equal(t, []handle.Handle{h}, fk.killed)
}

func TestController_QueryServiceDelegatesToKernel(t *testing.T) {
	fk := newFakeKernel()
	h := handle.New(0, 4)
	fk.byName["logger"] = h
	c := New(fk)

	got, ok := c.QueryService("logger")
	require.True(t, ok)
	assert.Equal(t, h, got)
}
