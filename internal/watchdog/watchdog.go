// Package watchdog implements the liveness monitor (spec.md §4.G): one
// slot per worker recording the (source, destination, version) of the
// message it is currently dispatching, sampled every 5 seconds to detect
// handlers stuck in an endless loop. Grounded on the teacher's atomic
// counter idioms (kernel/threads/foundation/epoch.go) and on the original
// skynet_monitor.c for the exact sampling algorithm and log wording.
package watchdog

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/nmxmxh/actorkernel/internal/handle"
	"github.com/nmxmxh/actorkernel/internal/logging"
)

// sampleInterval is the watchdog's fixed sampling cadence (spec.md §4.G
// "every 5 seconds").
const sampleInterval = 5 * time.Second

// Slot is one worker's monitor record. A worker writes Source/Destination
// and bumps Version immediately before invoking a message handler, and
// resets both to handle.None (bumping Version again) once the handler
// returns; it never reads its own slot. The watchdog thread is the only
// reader.
type Slot struct {
	version      atomic.Int64
	checkVersion atomic.Int64
	source       atomic.Uint32
	destination  atomic.Uint32
}

// Trigger records that a handler is about to run for (source, dest) and
// bumps the version. Called by the scheduler immediately before invoking a
// service's behavior (spec.md §4.E step 1, "trigger the monitor").
func (s *Slot) Trigger(source, dest handle.Handle) {
	s.source.Store(uint32(source))
	s.destination.Store(uint32(dest))
	s.version.Add(1)
}

// EndlessChecker is notified when a slot's destination appears stuck; it
// exists so the watchdog need not import the registry/service packages
// directly, avoiding an import cycle with the kernel hub that owns both.
type EndlessChecker interface {
	MarkEndless(dest handle.Handle)
}

// Watchdog samples a fixed set of worker slots on a timer and marks any
// context that hasn't advanced its slot's version across a full sampling
// interval as endless.
type Watchdog struct {
	slots   []*Slot
	checker EndlessChecker
	logger  *logging.Logger

	totalLive func() int // live context count; loop exits when it hits zero
}

// New creates a watchdog over numWorkers slots. totalLive reports the
// current count of live service contexts, used for the shutdown check
// (spec.md §4.H "every iteration check context_total()==0 to exit").
func New(numWorkers int, checker EndlessChecker, logger *logging.Logger, totalLive func() int) *Watchdog {
	slots := make([]*Slot, numWorkers)
	for i := range slots {
		slots[i] = &Slot{}
	}
	return &Watchdog{
		slots:     slots,
		checker:   checker,
		logger:    logger,
		totalLive: totalLive,
	}
}

// Slot returns the monitor slot for workerID, handed to the scheduler at
// start-up so each worker can call Trigger on its own slot.
func (w *Watchdog) Slot(workerID int) *Slot {
	return w.slots[workerID]
}

// Run samples every slot once per sampleInterval until stop is closed or
// the live-context count reaches zero. It is meant to run as one aux
// thread under the daemonize thread group.
func (w *Watchdog) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(sampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if w.totalLive() == 0 {
				return
			}
			w.sampleOnce()
		}
	}
}

// sampleOnce checks every slot exactly once: a slot whose version hasn't
// moved since the last check, and whose destination is non-zero, has been
// running one handler for the whole interval (spec.md §4.G).
func (w *Watchdog) sampleOnce() {
	for _, s := range w.slots {
		version := s.version.Load()
		dest := handle.Handle(s.destination.Load())
		if version == s.checkVersion.Load() && dest != handle.None {
			src := handle.Handle(s.source.Load())
			w.logger.Warn(fmt.Sprintf(
				"A message from [%s] to [%s] maybe in an endless loop (version = %d)",
				src, dest, version))
			if w.checker != nil {
				w.checker.MarkEndless(dest)
			}
		}
		s.checkVersion.Store(version)
	}
}
