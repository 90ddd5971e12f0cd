// Package scheduler implements the worker pool (spec.md §4.E): N worker
// goroutines that pop mailboxes off the global run queue, dispatch a
// weighted batch of messages per visit, and park on a shared condition
// variable when there is no work. Grounded on the original skynet_start.c
// thread_worker loop and thread_monitor's mutex+condvar shape; the
// teacher's channel-based concurrency (kernel/threads/supervisor/
// channels.go) has no direct equivalent for the "signal exactly one
// waiter" park/wake contract spec.md §4.E specifies, so this package uses
// sync.Cond instead.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/nmxmxh/actorkernel/internal/handle"
	"github.com/nmxmxh/actorkernel/internal/logging"
	"github.com/nmxmxh/actorkernel/internal/mailbox"
	"github.com/nmxmxh/actorkernel/internal/queue"
	"github.com/nmxmxh/actorkernel/internal/registry"
	"github.com/nmxmxh/actorkernel/internal/service"
	"github.com/nmxmxh/actorkernel/internal/watchdog"
)

// Recorder receives read-only scheduling observations for instrumentation.
// It never influences scheduling decisions (spec.md §4.C "they do not
// throttle").
type Recorder interface {
	Overload(value uint32)
	DispatchDuration(d time.Duration)
	WorkerPark()
	WorkerWake()
}

type nopRecorder struct{}

func (nopRecorder) Overload(uint32)                {}
func (nopRecorder) DispatchDuration(time.Duration) {}
func (nopRecorder) WorkerPark()                    {}
func (nopRecorder) WorkerWake()                    {}

// Pool is the scheduler's shared state: the sleep/wake protocol of spec.md
// §4.E lives here, guarded by one mutex and condition variable.
type Pool struct {
	global *queue.Queue
	reg    *registry.Registry
	wd     *watchdog.Watchdog
	logger *logging.Logger
	rec    Recorder

	profile     bool
	drop        mailbox.DropFunc
	workerCount int

	mu    sync.Mutex
	cond  *sync.Cond
	sleep int
	quit  bool
}

// Config bundles the inputs a Pool needs beyond the shared registry,
// global queue, and watchdog, all of which a kernel wires together.
type Config struct {
	WorkerCount int
	Profile     bool
	Drop        mailbox.DropFunc
	Recorder    Recorder
}

// New builds a scheduler pool. Callers must call Run(ctx, workerID) once
// per worker in separate goroutines (e.g. under a daemonize.ThreadGroup).
func New(global *queue.Queue, reg *registry.Registry, wd *watchdog.Watchdog, logger *logging.Logger, cfg Config) *Pool {
	rec := cfg.Recorder
	if rec == nil {
		rec = nopRecorder{}
	}
	drop := cfg.Drop
	if drop == nil {
		drop = mailbox.DefaultDrop
	}
	p := &Pool{
		global:      global,
		reg:         reg,
		wd:          wd,
		logger:      logger,
		rec:         rec,
		profile:     cfg.Profile,
		drop:        drop,
		workerCount: cfg.WorkerCount,
	}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Run is one worker's main loop (spec.md §4.E "Worker loop"). workerID
// selects both this worker's watchdog slot and its batching weight from
// the fixed 32-entry table. Run returns when Shutdown is called or ctx is
// cancelled.
func (p *Pool) Run(ctx context.Context, workerID int) error {
	slot := p.wd.Slot(workerID)
	weight := WeightFor(workerID)

	var q *mailbox.Mailbox
	for {
		if p.quitting() || ctx.Err() != nil {
			return nil
		}

		next := p.dispatch(slot, q, weight)
		if next == nil {
			if p.quitting() || ctx.Err() != nil {
				return nil
			}
			p.park()
			q = nil
			continue
		}
		q = next
	}
}

// dispatch implements spec.md §4.E step 1 verbatim: acquire a mailbox if
// none is held, retire a dead context's mailbox, trigger the monitor, pop
// and invoke one weighted batch of messages, and decide whether to
// re-queue the mailbox or hand control back to the worker loop.
func (p *Pool) dispatch(slot *watchdog.Slot, q *mailbox.Mailbox, weight int) *mailbox.Mailbox {
	if q == nil {
		q = p.global.Pop()
		if q == nil {
			return nil
		}
	}

	ctx, ok := p.reg.Grab(q.Owner())
	if !ok {
		q.Release(p.drop)
		return nil
	}
	defer ctx.Release()

	if q.IsRelease() {
		q.Release(p.drop)
		return nil
	}

	budget := batchSize(weight, q.Len())
	if budget < 1 {
		budget = 1
	}
	for i := 0; i < budget; i++ {
		msg, ok := q.PopOne()
		if !ok {
			// PopOne found the mailbox empty and cleared in_global, so the
			// next Push re-queues it.
			return nil
		}

		slot.Trigger(msg.Source, q.Owner())

		var start time.Time
		if p.profile {
			start = time.Now()
		}
		dispatchOne(ctx, msg)
		slot.Trigger(handle.None, handle.None)
		if p.profile {
			d := time.Since(start)
			ctx.AddProfile(d)
			p.rec.DispatchDuration(d)
		}

		if value, overloaded := q.TakeOverload(); overloaded {
			p.rec.Overload(value)
		}

		if q.IsRelease() {
			q.Release(p.drop)
			return nil
		}
	}

	p.global.Push(q)
	return nil
}

// dispatchOne invokes a context's behavior on one message, isolated into
// its own function so profiling timestamps bracket exactly the handler
// call and nothing else.
func dispatchOne(ctx *service.Context, msg *mailbox.Message) {
	ctx.Behavior().Handle(ctx, msg)
}

// batchSize implements the weighted-batching rule of spec.md §4.E: weight
// < 0 drains one message, weight == 0 drains everything currently queued,
// weight > 0 drains ceil(length >> weight) messages (at least one).
func batchSize(weight int, length int) int {
	if length == 0 {
		return 0
	}
	if weight < 0 {
		return 1
	}
	if weight == 0 {
		return length
	}
	n := length >> uint(weight)
	if length&((1<<uint(weight))-1) != 0 {
		n++
	}
	if n < 1 {
		n = 1
	}
	return n
}

// park implements the sleep/wake protocol of spec.md §4.E: increment
// sleep, wait on the condition variable, decrement sleep.
func (p *Pool) park() {
	p.mu.Lock()
	p.sleep++
	p.rec.WorkerPark()
	if !p.quit {
		p.cond.Wait()
	}
	p.sleep--
	p.mu.Unlock()
}

// Wake signals the condition variable if at least (workerCount - busy)
// workers are currently parked (spec.md §4.E "wake(busy)"): exactly one
// waiter is released. Timer calls Wake(workerCount-1) each tick; the
// socket bridge calls Wake(0) whenever it returns events.
func (p *Pool) Wake(busy int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sleep >= p.workerCount-busy {
		p.cond.Signal()
		p.rec.WorkerWake()
	}
}

// Shutdown sets the quit flag and wakes every parked worker (spec.md §4.H
// "the timer thread sets the quit flag, broadcasts").
func (p *Pool) Shutdown() {
	p.mu.Lock()
	p.quit = true
	p.cond.Broadcast()
	p.mu.Unlock()
}

func (p *Pool) quitting() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.quit
}

// MailboxOwner resolves a mailbox to the handle whose inbox it is, used by
// callers that need to log or report on a mailbox without reaching into
// its internals.
func MailboxOwner(mb *mailbox.Mailbox) handle.Handle {
	return mb.Owner()
}
