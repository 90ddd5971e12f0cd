// Package service implements the service context (spec.md §4.B): the
// shared, reference-counted object binding one actor's handle, its mailbox,
// and its behavior. Grounded on the teacher's BaseSupervisor interface
// shape (kernel/threads/supervisor/base.go), generalized from
// job-processing verbs to the create/init/signal/release verbs spec.md §6
// names.
package service

import (
	"sync/atomic"
	"time"

	"github.com/nmxmxh/actorkernel/internal/handle"
	"github.com/nmxmxh/actorkernel/internal/logging"
	"github.com/nmxmxh/actorkernel/internal/mailbox"
)

// Sender lets a Behavior address other services without the service
// package depending on the registry/queue/kernel packages that implement
// delivery. The kernel satisfies this interface structurally.
type Sender interface {
	Push(dest handle.Handle, msg *mailbox.Message) bool
}

// Behavior is a loaded module's per-service logic: the Go translation of
// the four symbols spec.md §6 names (<name>_create/_init/_release/_signal)
// plus the per-message callback a real service registers with itself
// during init (skynet's skynet_callback). Only Init is required; modules
// that don't care about Signal or teardown work may embed NopBehavior.
type Behavior interface {
	// Init runs once, synchronously, when the service is created. A
	// non-nil error aborts creation (spec.md §4.B, §7 "Module load
	// failure").
	Init(ctx *Context, args string, sender Sender) error
	// Handle is invoked once per delivered message, with exactly one
	// worker inside it at a time (spec.md §5).
	Handle(ctx *Context, msg *mailbox.Message)
	// Signal delivers an out-of-band control signal (module reload,
	// SIGHUP-derived system notices land here too when a service opts in).
	Signal(ctx *Context, sig int)
	// Release runs once, when the context's reference count reaches zero.
	Release(ctx *Context)
}

// NopBehavior is embeddable by services that don't need Signal/Release.
type NopBehavior struct{}

func (NopBehavior) Signal(*Context, int) {}
func (NopBehavior) Release(*Context)     {}

// Context is the shared, reference-counted object the registry, mailbox,
// and in-flight messages all reference (spec.md §3 "Service context").
type Context struct {
	h        handle.Handle
	behavior Behavior
	mbox     *mailbox.Mailbox
	logger   *logging.Logger

	refcount atomic.Int32
	endless  atomic.Bool
	profile  atomic.Int64 // accumulated handler wall-clock time, nanoseconds
	initDone atomic.Bool
}

// New creates a context for handle h wrapping behavior, with its own fresh
// mailbox. The caller (the registry's Register path) owns the one initial
// strong reference.
func New(h handle.Handle, behavior Behavior, logger *logging.Logger) *Context {
	c := &Context{
		h:        h,
		behavior: behavior,
		mbox:     mailbox.New(h),
		logger:   logger,
	}
	c.refcount.Store(1)
	return c
}

// Handle returns the service's address.
func (c *Context) Handle() handle.Handle { return c.h }

// Mailbox returns the service's inbox.
func (c *Context) Mailbox() *mailbox.Mailbox { return c.mbox }

// Behavior returns the loaded module behavior.
func (c *Context) Behavior() Behavior { return c.behavior }

// Logger returns this context's scoped logger.
func (c *Context) Logger() *logging.Logger { return c.logger }

// MarkInitialized records that Init succeeded.
func (c *Context) MarkInitialized() { c.initDone.Store(true) }

// Initialized reports whether Init has completed successfully.
func (c *Context) Initialized() bool { return c.initDone.Load() }

// Retain increments the reference count. Called by the registry's Grab;
// queued messages do not hold a reference.
func (c *Context) Retain() { c.refcount.Add(1) }

// Release decrements the reference count. When it reaches zero it invokes
// the module's Release hook and marks the mailbox for teardown, returning
// true iff the caller must push the mailbox onto the global run queue so
// the scheduler observes and completes the teardown (spec.md §4.B).
//
// Release must be called with no runtime lock held (spec.md §5 "release(context)
// is always called with no runtime lock held") since Behavior.Release may
// itself send messages that re-enter the registry.
func (c *Context) Release() (needsGlobalPush bool) {
	if c.refcount.Add(-1) > 0 {
		return false
	}
	c.behavior.Release(c)
	return c.mbox.MarkRelease()
}

// SetEndless is called only by the watchdog, to label a context whose
// handler has been running in a single message for too long (spec.md
// §4.G). Idempotent.
func (c *Context) SetEndless() { c.endless.Store(true) }

// Endless reports the sticky flag the watchdog sets.
func (c *Context) Endless() bool { return c.endless.Load() }

// AddProfile accumulates time spent inside this context's behavior
// (spec.md §5 "Profiling"). The scheduler passes wall-clock durations
// measured around each handler call, not thread CPU time.
func (c *Context) AddProfile(d time.Duration) { c.profile.Add(int64(d)) }

// Profile returns the accumulated handler wall-clock time since creation.
func (c *Context) Profile() time.Duration { return time.Duration(c.profile.Load()) }
