package watchdog

import (
	"testing"
	"time"

	"github.com/nmxmxh/actorkernel/internal/handle"
	"github.com/nmxmxh/actorkernel/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChecker struct {
	marked []handle.Handle
}

func (f *fakeChecker) MarkEndless(dest handle.Handle) {
	f.marked = append(f.marked, dest)
}

func TestWatchdog_SlotReturnsSameInstance(t *testing.T) {
	w := New(4, nil, logging.Default("test"), func() int { return 0 })
	assert.Same(t, w.Slot(2), w.Slot(2))
}

func TestWatchdog_SampleOnceMarksStalledSlot(t *testing.T) {
	checker := &fakeChecker{}
	w := New(1, checker, logging.Default("test"), func() int { return 1 })

	dest := handle.New(0, 7)
	w.Slot(0).Trigger(handle.New(0, 1), dest)

	// First sample just records the current version as the baseline.
	w.sampleOnce()
	assert.Empty(t, checker.marked)

	// No Trigger happened since; version is unchanged across this sample.
	w.sampleOnce()
	require.Len(t, checker.marked, 1)
	assert.Equal(t, dest, checker.marked[0])
}

func TestWatchdog_SampleOnceIgnoresIdleSlot(t *testing.T) {
	checker := &fakeChecker{}
	w := New(1, checker, logging.Default("test"), func() int { return 1 })

	w.sampleOnce()
	w.sampleOnce()
	assert.Empty(t, checker.marked)
}

func TestWatchdog_SampleOnceToleratesAdvancingSlot(t *testing.T) {
	checker := &fakeChecker{}
	w := New(1, checker, logging.Default("test"), func() int { return 1 })

	dest := handle.New(0, 9)
	w.Slot(0).Trigger(handle.New(0, 1), dest)
	w.sampleOnce()

	w.Slot(0).Trigger(handle.New(0, 1), dest)
	w.sampleOnce()

	assert.Empty(t, checker.marked)
}

func TestWatchdog_RunExitsWhenStopClosed(t *testing.T) {
	w := New(1, nil, logging.Default("test"), func() int { return 1 })
	stop := make(chan struct{})

	done := make(chan struct{})
	go func() {
		w.Run(stop)
		close(done)
	}()

	close(stop)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not exit promptly after stop was closed")
	}
}
