// Package bootstrap implements the well-known first service (spec.md
// §4.I: "the bootstrap string is split on first whitespace into module and
// args; starting it synchronously yields handle H_boot"). Its own
// internals are intentionally thin: the original's snlua-bootstrap loads a
// scripting layer that is explicitly a Non-goal here (spec.md §1 "any
// embedded scripting layer"), so this native bootstrap only announces
// start-up and then ignores every message it receives (it does not retire
// itself), giving the boundary-glue sequence a real H_boot to hand back.
package bootstrap

import (
	"github.com/nmxmxh/actorkernel/internal/logging"
	"github.com/nmxmxh/actorkernel/internal/mailbox"
	"github.com/nmxmxh/actorkernel/internal/service"
)

// Service is bootstrap's behavior.
type Service struct {
	service.NopBehavior
}

// Factory is registered with the kernel's native module table under the
// name "bootstrap" (spec.md §6 `bootstrap` default "snlua bootstrap").
func Factory() service.Behavior { return &Service{} }

func (s *Service) Init(ctx *service.Context, args string, sender service.Sender) error {
	ctx.Logger().Info("bootstrap: starting", logging.String("args", args))
	return nil
}

func (s *Service) Handle(ctx *service.Context, msg *mailbox.Message) {
	ctx.Logger().Debug("bootstrap: received message after start-up, ignoring")
}
