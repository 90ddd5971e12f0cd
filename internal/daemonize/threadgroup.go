// Package daemonize supplies the boundary glue spec.md §6/§4.H/§4.I
// describes as external collaborators: pidfile locking, SIGHUP/SIGPIPE
// handling, and the worker-pool/aux-thread lifecycle supervision that
// starts and joins them all. Grounded on the teacher's
// kernel/utils/graceful.go (LIFO shutdown) and the go.mod's
// golang.org/x/sync/errgroup dependency (resolved transitively through
// go-libp2p, promoted to direct here).
package daemonize

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/nmxmxh/actorkernel/internal/logging"
)

// ThreadGroup supervises the worker pool and every auxiliary thread
// (timer, socket, watchdog — spec.md §4.H) under one cancellable context:
// the first member to return a non-nil error cancels every other member,
// and Wait blocks until they have all returned (spec.md §4.I "Main joins
// all threads").
type ThreadGroup struct {
	group  *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc
	logger *logging.Logger
}

// New creates a ThreadGroup derived from parent.
func New(parent context.Context, logger *logging.Logger) *ThreadGroup {
	ctx, cancel := context.WithCancel(parent)
	group, gctx := errgroup.WithContext(ctx)
	return &ThreadGroup{group: group, ctx: gctx, cancel: cancel, logger: logger}
}

// Go launches fn as one named thread. A non-nil return value cancels the
// group's shared context, which every other member observes via Done().
func (tg *ThreadGroup) Go(name string, fn func(ctx context.Context) error) {
	tg.group.Go(func() error {
		err := fn(tg.ctx)
		if err != nil && tg.logger != nil {
			tg.logger.Error("thread exited with error", logging.String("thread", name), logging.Err(err))
		}
		return err
	})
}

// Context returns the group's shared, cancellable context.
func (tg *ThreadGroup) Context() context.Context { return tg.ctx }

// Stop cancels the shared context, signalling every member to exit (spec.md
// §4.H "the timer thread sets the scheduler quit flag" is one instance of
// this broader contract; Stop is the general mechanism every aux thread's
// stop channel derives from).
func (tg *ThreadGroup) Stop() { tg.cancel() }

// Wait blocks until every launched thread has returned, propagating the
// first non-nil error (spec.md §4.I "Main joins all threads").
func (tg *ThreadGroup) Wait() error {
	return tg.group.Wait()
}
