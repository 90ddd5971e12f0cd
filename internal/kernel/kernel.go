// Package kernel is the boundary glue (spec.md §4.I): the hub that wires
// the handle registry, global run queue, worker pool, timing wheel,
// watchdog, module loader, socket bridge, node identity, config, and
// daemonize/metrics/logging packages together, and implements the
// start-up and shutdown sequences spec.md §4.I names. Grounded on the
// teacher's kernel/main.go Kernel struct (construction/lifecycle shape),
// generalized from a single WASM mesh kernel to the service-runtime hub
// this spec describes.
package kernel

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nmxmxh/actorkernel/internal/config"
	"github.com/nmxmxh/actorkernel/internal/daemonize"
	"github.com/nmxmxh/actorkernel/internal/handle"
	"github.com/nmxmxh/actorkernel/internal/logging"
	"github.com/nmxmxh/actorkernel/internal/mailbox"
	"github.com/nmxmxh/actorkernel/internal/metrics"
	"github.com/nmxmxh/actorkernel/internal/module"
	"github.com/nmxmxh/actorkernel/internal/node"
	"github.com/nmxmxh/actorkernel/internal/queue"
	"github.com/nmxmxh/actorkernel/internal/registry"
	"github.com/nmxmxh/actorkernel/internal/scheduler"
	"github.com/nmxmxh/actorkernel/internal/service"
	"github.com/nmxmxh/actorkernel/internal/socket"
	"github.com/nmxmxh/actorkernel/internal/timer"
	"github.com/nmxmxh/actorkernel/internal/watchdog"
)

// loggerName is the well-known name the logger service is registered
// under (spec.md §6 "Well-known name").
const loggerName = "logger"

// Kernel is the process-wide runtime hub. Exactly one exists per process
// (spec.md §9 "avoid hidden singletons in the public surface": callers
// construct and own it explicitly, nothing here is a package-level
// global).
type Kernel struct {
	cfg    *config.Config
	logger *logging.Logger

	registry *registry.Registry
	global   *queue.Queue
	modules  *module.Registry
	native   *module.Native
	wheel    *timer.Timer
	watchdog *watchdog.Watchdog
	pool     *scheduler.Pool
	metrics  *metrics.Metrics
	engine   socket.Engine
	signals  *daemonize.SignalFlag

	identity *node.Identity

	loggerHandle handle.Handle
	bootHandle   handle.Handle

	threads *daemonize.ThreadGroup
}

// identityPathKey/listenAddrKey are config-environment keys beyond §6's
// table, read only to drive the optional libp2p socket enrichment (§2.2,
// §2.3 of the expanded spec); their absence never changes any §6-named
// behavior.
const (
	identityPathKey = "identity_path"
	listenAddrKey   = "listen_addr"
	socketNameKey   = "socket"
)

// New constructs every subsystem but registers no module factories and
// starts no thread: callers register factories with RegisterNative, and
// spec.md §4.I's start-up sequence happens in Run, since module
// registration must complete before any service can be created.
func New(cfg *config.Config, logger *logging.Logger) *Kernel {
	identityPath := "./node_identity.json"
	if v, ok := cfg.Environment().Get(identityPathKey); ok {
		identityPath = v
	}
	identity, err := node.LoadOrCreate(identityPath)
	if err != nil {
		logger.Warn("kernel: node identity unavailable, harbor falls back to config only", logging.Err(err))
	}

	harborByte := uint8(cfg.Harbor)
	if cfg.Harbor == 0 && identity != nil {
		harborByte = identity.DeriveHarbor()
	}

	reg := registry.New(harborByte)
	global := queue.New()
	reg.SetReleasePusher(global.Push)
	met := metrics.New()

	native := module.NewNative()
	modules := module.NewRegistry(logger.With("module"))
	modules.Add(native)
	if cfg.ModulePath != "" {
		modules.Add(module.NewWasmLoader(cfg.ModulePath, logger.With("wasmloader")))
	}

	k := &Kernel{
		cfg:      cfg,
		logger:   logger,
		registry: reg,
		global:   global,
		modules:  modules,
		native:   native,
		metrics:  met,
		signals:  daemonize.Watch(),
		identity: identity,
	}

	k.watchdog = watchdog.New(cfg.Thread, k, logger.With("watchdog"), k.liveCount)
	k.wheel = timer.New(k.deliverTimeout, logger.With("timer"))
	k.pool = scheduler.New(global, reg, k.watchdog, logger.With("scheduler"), scheduler.Config{
		WorkerCount: cfg.Thread,
		Profile:     cfg.Profile,
		Drop:        dropUndeliverable(logger),
		Recorder:    met,
	})

	return k
}

// RegisterNative exposes the native module table so callers (services/
// logger, services/bootstrap, and any embedding application) can register
// their own Go-native service factories before Run starts bootstrap.
func (k *Kernel) RegisterNative(name string, factory module.Factory) {
	k.native.Register(name, factory)
}

// Push implements service.Sender: append msg to dest's mailbox and push
// the mailbox onto the global run queue if it just transitioned to queued
// (spec.md §4.A/§4.C "data flow"). It returns false if dest does not
// resolve to a live context (spec.md §7 "Send to dead handle").
func (k *Kernel) Push(dest handle.Handle, msg *mailbox.Message) bool {
	ctx, ok := k.registry.Grab(dest)
	if !ok {
		return false
	}
	defer ctx.Release()

	if ctx.Mailbox().Push(msg) {
		k.global.Push(ctx.Mailbox())
		k.pool.Wake(0)
	}
	return true
}

// NewService starts a fresh instance of moduleName with args, always
// creating a new context even if one with the same name already exists
// (spec.md §3 "Features Supplemented": "start a new instance").
func (k *Kernel) NewService(moduleName, args string) (handle.Handle, error) {
	behavior, err := k.modules.Create(moduleName)
	if err != nil {
		return handle.None, fmt.Errorf("kernel: module load failure: %w", err)
	}

	h := k.registry.Register(func(h handle.Handle) *service.Context {
		return service.New(h, behavior, k.logger.With(moduleName))
	})

	ctx, ok := k.registry.Grab(h)
	if !ok {
		return handle.None, fmt.Errorf("kernel: service %q vanished immediately after registration", moduleName)
	}
	defer ctx.Release()

	if err := behavior.Init(ctx, args, k); err != nil {
		k.registry.Retire(h)
		return handle.None, fmt.Errorf("kernel: %s: init failed: %w", moduleName, err)
	}
	ctx.MarkInitialized()
	return h, nil
}

// UniqueService returns the existing handle named name if one is already
// registered, otherwise starts a new instance of moduleName and binds name
// to it (spec.md §3 "Features Supplemented": "start if absent, else return
// existing").
func (k *Kernel) UniqueService(name, moduleName, args string) (handle.Handle, error) {
	if h, ok := k.registry.FindName(name); ok {
		return h, nil
	}
	h, err := k.NewService(moduleName, args)
	if err != nil {
		return handle.None, err
	}
	if _, ok := k.registry.NameHandle(h, name); !ok {
		return handle.None, fmt.Errorf("kernel: uniqueservice: name %q was bound concurrently", name)
	}
	return h, nil
}

// QueryService looks up name, failing if absent (spec.md §3 "Features
// Supplemented": "look up by name, fail if absent").
func (k *Kernel) QueryService(name string) (handle.Handle, bool) {
	return k.registry.FindName(name)
}

// MailboxLength reports h's pending mailbox length, for internal/control's
// `mqlen` verb.
func (k *Kernel) MailboxLength(h handle.Handle) (int, bool) {
	ctx, ok := k.registry.Grab(h)
	if !ok {
		return 0, false
	}
	defer ctx.Release()
	return ctx.Mailbox().Len(), true
}

// Retire tears down h, for internal/control's `kill` verb.
func (k *Kernel) Retire(h handle.Handle) bool {
	return k.registry.Retire(h)
}

// MarkEndless implements watchdog.EndlessChecker.
func (k *Kernel) MarkEndless(dest handle.Handle) {
	ctx, ok := k.registry.Grab(dest)
	if !ok {
		return
	}
	defer ctx.Release()
	ctx.SetEndless()
	k.metrics.EndlessMarked()
}

// liveCount is the totalLive callback both the watchdog and the aux
// threads' shutdown checks use (spec.md §4.H "context_total()==0").
func (k *Kernel) liveCount() int {
	return k.registry.Count()
}

// deliverTimeout is the timer wheel's Deliver callback (spec.md §4.F
// "Dispatch"): build a response-type message addressed to dest and push
// it via the normal push path.
func (k *Kernel) deliverTimeout(dest handle.Handle, session int32) {
	k.Push(dest, &mailbox.Message{
		Source:  handle.None,
		Session: session,
		Type:    mailbox.TypeResponse,
	})
}

// Timeout schedules a response to arrive at dest after delayCS
// centiseconds (spec.md §4.F "Scheduling API").
func (k *Kernel) Timeout(dest handle.Handle, session int32, delayCS int64) {
	k.wheel.Timeout(dest, session, delayCS)
}

// dropUndeliverable logs payloads discarded on mailbox teardown.
func dropUndeliverable(logger *logging.Logger) mailbox.DropFunc {
	return func(msg *mailbox.Message) {
		logger.Debug("dropping undelivered message", logging.String("reason", "mailbox released"))
	}
}

// Run executes the start-up sequence of spec.md §4.I in order, starts
// every worker and auxiliary thread under a ThreadGroup, launches the
// logger and bootstrap services, and blocks until every thread exits
// (spec.md §4.I/§4.H "Main joins all threads").
func (k *Kernel) Run(ctx context.Context) error {
	k.threads = daemonize.New(ctx, k.logger)
	k.engine = socket.NewNoop()

	loggerHandle, err := k.NewService(k.cfg.LogService, k.cfg.Logger)
	if err != nil {
		return fmt.Errorf("kernel: logger service launch failed (required): %w", err)
	}
	if _, ok := k.registry.NameHandle(loggerHandle, loggerName); !ok {
		return fmt.Errorf("kernel: could not bind well-known name %q", loggerName)
	}
	k.loggerHandle = loggerHandle

	for i := 0; i < k.cfg.Thread; i++ {
		workerID := i
		k.threads.Go(fmt.Sprintf("worker-%d", workerID), func(tctx context.Context) error {
			return k.pool.Run(tctx, workerID)
		})
	}

	k.threads.Go("timer", func(tctx context.Context) error {
		stop := make(chan struct{})
		go func() {
			<-tctx.Done()
			close(stop)
		}()
		k.wheel.Run(stop, func() { k.pool.Wake(k.cfg.Thread - 1) }, k.signals.Pending, k.onSighup)
		return nil
	})

	k.threads.Go("watchdog", func(tctx context.Context) error {
		stop := make(chan struct{})
		go func() {
			<-tctx.Done()
			close(stop)
		}()
		k.watchdog.Run(stop)
		return nil
	})

	bootModule, bootArgs, _ := strings.Cut(k.cfg.Bootstrap, " ")
	bootHandle, err := k.NewService(bootModule, bootArgs)
	if err != nil {
		k.flushLogger()
		k.Shutdown()
		k.threads.Wait()
		return fmt.Errorf("kernel: bootstrap failed: %w", err)
	}
	k.bootHandle = bootHandle

	k.wireSocketBridge()

	k.threads.Go("socket", func(tctx context.Context) error {
		for {
			ev, more, ok, err := k.engine.Poll(tctx)
			if err != nil {
				return nil
			}
			if !ok {
				return nil
			}
			k.Push(ev.Target, &mailbox.Message{Type: mailbox.TypeSocket, Payload: ev.Payload})
			if !more {
				k.pool.Wake(0)
			}
		}
	})

	return k.threads.Wait()
}

// wireSocketBridge replaces the no-op socket engine with a libp2p bridge
// when a listen address and a well-known "socket" service are both
// configured (spec.md §6 treats the socket engine as an external
// collaborator; no listener is required, so absence of either leaves the
// Noop engine in place).
func (k *Kernel) wireSocketBridge() {
	listenAddr, hasListen := k.cfg.Environment().Get(listenAddrKey)
	if !hasListen || k.identity == nil {
		return
	}
	target, ok := k.QueryService(socketNameKey)
	if !ok {
		k.logger.Warn("kernel: listen_addr configured but no \"socket\" service registered, staying on noop engine")
		return
	}
	bridge, err := socket.NewLibP2PBridge(k.threads.Context(), k.identity, strings.Split(listenAddr, ","), target, k.logger.With("socket"))
	if err != nil {
		k.logger.Error("kernel: failed to start libp2p socket bridge, staying on noop engine", logging.Err(err))
		return
	}
	k.engine = bridge
}

// onSighup converts a pending SIGHUP into a system message to the logger
// handle (spec.md §6, §4.H "SIGHUP").
func (k *Kernel) onSighup() {
	k.Push(k.loggerHandle, &mailbox.Message{Type: mailbox.TypeSystem, Payload: []byte("reopen")})
	k.signals.Clear()
}

// flushLogger force-dispatches the logger's mailbox synchronously (spec.md
// §4.B "dispatch_all(context)... used during shutdown to flush the
// logger").
func (k *Kernel) flushLogger() {
	ctx, ok := k.registry.Grab(k.loggerHandle)
	if !ok {
		return
	}
	defer ctx.Release()
	ctx.Mailbox().Release(func(msg *mailbox.Message) {
		ctx.Behavior().Handle(ctx, msg)
	})
}

// Shutdown stops the scheduler and every auxiliary thread (spec.md §4.H
// "Stop condition").
func (k *Kernel) Shutdown() {
	k.pool.Shutdown()
	if k.threads != nil {
		k.threads.Stop()
	}
}

// WaitFor blocks up to timeout for every live context to retire, used by
// tests and graceful-shutdown callers that want to observe drain-to-zero
// before forcing a stop.
func (k *Kernel) WaitFor(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if k.liveCount() == 0 {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return k.liveCount() == 0
}

// Registry exposes the handle registry for internal/control.
func (k *Kernel) Registry() *registry.Registry { return k.registry }

// BootHandle returns the bootstrap service's handle, H_boot (spec.md §4.I).
func (k *Kernel) BootHandle() handle.Handle { return k.bootHandle }
