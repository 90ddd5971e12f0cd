// Package logger implements the well-known "logger" service (spec.md §6
// "Well-known name": `"logger"` must resolve to the logger service after
// start-up). spec.md treats its internals as out of scope ("the logging
// service (just a named well-known service)"); this is a minimal native
// implementation so the runtime has something real to dispatch to and
// force-flush during shutdown. Grounded on the teacher's
// kernel/utils/logger.go field-formatting and file-output conventions.
package logger

import (
	"fmt"
	"os"
	"sync"

	"github.com/nmxmxh/actorkernel/internal/logging"
	"github.com/nmxmxh/actorkernel/internal/mailbox"
	"github.com/nmxmxh/actorkernel/internal/service"
)

// Service is the logger's behavior: it appends every text-type message's
// payload to its output (stdout, or a file if Init was given a path), and
// reopens that file on a system-type "reopen" message (spec.md §6 "SIGHUP
// ... asking the logger to reopen its files").
type Service struct {
	service.NopBehavior

	mu   sync.Mutex
	path string
	out  *os.File
}

// Factory is registered with the kernel's native module table under the
// name "logger" (spec.md §6 `logservice` default).
func Factory() service.Behavior { return &Service{} }

func (s *Service) Init(ctx *service.Context, args string, sender service.Sender) error {
	s.path = args
	return s.open()
}

func (s *Service) open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.out != nil && s.out != os.Stdout {
		s.out.Close()
	}
	if s.path == "" {
		s.out = os.Stdout
		return nil
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("logger: opening %s: %w", s.path, err)
	}
	s.out = f
	return nil
}

func (s *Service) Handle(ctx *service.Context, msg *mailbox.Message) {
	switch msg.Type {
	case mailbox.TypeSystem:
		if string(msg.Payload) == "reopen" {
			if err := s.open(); err != nil {
				ctx.Logger().Error("logger: reopen failed", logging.Err(err))
			}
			return
		}
	default:
		s.mu.Lock()
		fmt.Fprintf(s.out, "[%s] %s\n", msg.Source, msg.Payload)
		s.mu.Unlock()
	}
}

func (s *Service) Release(ctx *service.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.out != nil && s.out != os.Stdout {
		s.out.Close()
	}
}
