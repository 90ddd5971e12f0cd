// Package control implements a subset of the admin verbs the original
// exposes through its text-protocol control port (skynet_command): mqlen,
// launch, kill, queryservice. The original's stat, mem and reload verbs
// are not provided. spec.md §3 scopes the control port itself out
// ("configuration loading ... the logging service ... are external
// collaborators, interfaces only"); this package supplies the verbs as
// plain Go methods, exercised directly by callers or tests, with no
// network listener of its own (see SPEC_FULL.md §3).
package control

import (
	"fmt"

	"github.com/nmxmxh/actorkernel/internal/handle"
)

// Kernel is the narrow slice of *kernel.Kernel this package needs,
// expressed as an interface so control never imports the kernel package
// directly and the kernel package never needs to know control exists.
type Kernel interface {
	QueryService(name string) (handle.Handle, bool)
	NewService(moduleName, args string) (handle.Handle, error)
	MailboxLength(h handle.Handle) (int, bool)
	Retire(h handle.Handle) bool
}

// Controller exposes the admin verbs over a Kernel.
type Controller struct {
	k Kernel
}

// New creates a Controller over k.
func New(k Kernel) *Controller {
	return &Controller{k: k}
}

// MQLen reports the pending length of h's mailbox, mirroring the original's
// `mqlen` verb.
func (c *Controller) MQLen(h handle.Handle) (int, error) {
	n, ok := c.k.MailboxLength(h)
	if !ok {
		return 0, fmt.Errorf("control: mqlen: %s not found", h)
	}
	return n, nil
}

// Launch starts a new instance of moduleName with args, mirroring the
// original's `launch` verb.
func (c *Controller) Launch(moduleName, args string) (handle.Handle, error) {
	return c.k.NewService(moduleName, args)
}

// Kill retires h, mirroring the original's `kill` verb.
func (c *Controller) Kill(h handle.Handle) bool {
	return c.k.Retire(h)
}

// QueryService resolves name to a handle, mirroring the original's
// `queryservice` verb (spec.md's Features Supplemented §3).
func (c *Controller) QueryService(name string) (handle.Handle, bool) {
	return c.k.QueryService(name)
}
