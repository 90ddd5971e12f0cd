package timer

import (
	"time"

	"github.com/nmxmxh/actorkernel/internal/handle"
	"github.com/nmxmxh/actorkernel/internal/logging"
)

// tickInterval is the timer thread's cadence (spec.md §4.F "Timer-thread
// cadence": "sleep ≈2.5 ms between iterations (≈400 Hz)").
const tickInterval = 2500 * time.Microsecond

// Timer combines the timing wheel with the wall-clock model spec.md §4.F
// describes: a wall time and monotonic baseline captured at construction,
// advanced by however many centiseconds have actually elapsed each
// iteration (never negative-ticked on clock skew).
type Timer struct {
	wheel *Wheel

	startWall  int64 // seconds since epoch, captured at New
	startMono  time.Time
	lastMonoCS int64 // centiseconds since startMono, as of the last iteration

	logger *logging.Logger
}

// New creates a Timer with its wheel wired to deliver via deliver.
func New(deliver Deliver, logger *logging.Logger) *Timer {
	return &Timer{
		wheel:     NewWheel(deliver),
		startWall: time.Now().Unix(),
		startMono: time.Now(),
		logger:    logger,
	}
}

// Timeout implements spec.md §4.F's scheduling API: a delay of zero or
// less fires immediately (synchronously, before returning); otherwise the
// entry is enqueued into the wheel to fire on a future Tick.
func (t *Timer) Timeout(dest handle.Handle, session int32, delayCS int64) {
	if delayCS <= 0 {
		t.wheel.deliver(dest, session)
		return
	}
	t.wheel.Insert(dest, session, uint32(delayCS))
}

// StartTime returns the wall-clock seconds captured at construction
// (spec.md §4.F "starttime() returns start_wall").
func (t *Timer) StartTime() int64 { return t.startWall }

// Now returns cumulative centiseconds since construction (spec.md §4.F
// "now() returns cumulative centiseconds since start").
func (t *Timer) Now() uint32 { return t.wheel.Now() }

// Run is the timer thread's main loop (spec.md §4.H "Timer thread"): each
// iteration computes elapsed monotonic centiseconds and ticks the wheel
// that many times, checks sighup, and wakes the scheduler's workers. wake
// mirrors scheduler.Pool.Wake(worker_count-1) pre-bound by the caller;
// sighupPending/onSighup mirror the daemonize SIGHUP flag. All three are
// injected as callbacks to avoid an import cycle between timer and
// scheduler/daemonize.
func (t *Timer) Run(stop <-chan struct{}, wake func(), sighupPending func() bool, onSighup func()) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			t.advance()
			if sighupPending() {
				onSighup()
			}
			wake()
		}
	}
}

// advance computes how many centiseconds have elapsed since the last
// iteration and ticks the wheel that many times. A backward clock jump is
// logged and snapped to the current reading without ticking, matching
// spec.md §4.F ("if it moved backward, log and snap (do not tick)").
func (t *Timer) advance() {
	elapsedCS := time.Since(t.startMono).Milliseconds() / 10
	if elapsedCS < t.lastMonoCS {
		if t.logger != nil {
			t.logger.Warn("timer: monotonic clock moved backward, snapping without ticking")
		}
		t.lastMonoCS = elapsedCS
		return
	}
	for ; t.lastMonoCS < elapsedCS; t.lastMonoCS++ {
		t.wheel.Tick()
	}
}
