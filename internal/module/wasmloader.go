package module

import (
	"fmt"
	"os"
	"strings"

	"github.com/wasmerio/wasmer-go/wasmer"

	"github.com/nmxmxh/actorkernel/internal/logging"
	"github.com/nmxmxh/actorkernel/internal/mailbox"
	"github.com/nmxmxh/actorkernel/internal/service"
)

// WasmLoader is the WebAssembly-backed Loader: it resolves a module name
// against a skynet-style search path (spec.md §6 `module_path`/`cpath`:
// "`?` is the module-name placeholder; `;` separates alternatives"),
// compiles the first file it finds with wasmer-go, and adapts the
// module's exported <base>_init/_release/_signal functions (plus a
// <base>_dispatch export for messages) to a service.Behavior; a
// <base>_create export is neither looked up nor called. Grounded on the teacher's wasm/executor.go for the
// wasmer-go engine/store/module/instance call shape.
type WasmLoader struct {
	searchPath string
	logger     *logging.Logger
}

// NewWasmLoader creates a loader that searches searchPath, a `;`-separated
// list of patterns each containing exactly one `?` placeholder.
func NewWasmLoader(searchPath string, logger *logging.Logger) *WasmLoader {
	return &WasmLoader{searchPath: searchPath, logger: logger}
}

// Create resolves name to a file on the search path, compiles it, and
// wraps its exports in a wasmBehavior. Only `_init` is required to exist
// (spec.md §6); `_release`, `_signal` and `_dispatch` are called only if
// present, and `_create` is not called even when exported.
func (l *WasmLoader) Create(name string) (service.Behavior, error) {
	base := SymbolBase(name)
	path, err := l.resolve(base)
	if err != nil {
		return nil, err
	}

	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("wasmloader: reading %s: %w", path, err)
	}

	engine := wasmer.NewEngine()
	store := wasmer.NewStore(engine)
	mod, err := wasmer.NewModule(store, bytes)
	if err != nil {
		return nil, fmt.Errorf("wasmloader: compiling %s: %w", path, err)
	}
	instance, err := wasmer.NewInstance(mod, wasmer.NewImportObject())
	if err != nil {
		return nil, fmt.Errorf("wasmloader: instantiating %s: %w", path, err)
	}

	b := &wasmBehavior{instance: instance, base: base, logger: l.logger}
	b.initFn, _ = instance.Exports.GetFunction(base + "_init")
	b.releaseFn, _ = instance.Exports.GetFunction(base + "_release")
	b.signalFn, _ = instance.Exports.GetFunction(base + "_signal")
	b.dispatchFn, _ = instance.Exports.GetFunction(base + "_dispatch")
	if b.initFn == nil {
		return nil, fmt.Errorf("wasmloader: %s exports no %s_init", path, base)
	}
	return b, nil
}

// resolve substitutes base into each `?` pattern on the search path in
// order, returning the first path that exists on disk (spec.md §6's
// search-path semantics, collapsed from "first dlopen that succeeds" to
// "first file that exists" since wasm modules are read, not dlopen'd).
func (l *WasmLoader) resolve(base string) (string, error) {
	for _, pattern := range strings.Split(l.searchPath, ";") {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		candidate := strings.ReplaceAll(pattern, "?", base)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("wasmloader: %q not found on search path %q", base, l.searchPath)
}

// wasmBehavior adapts a wasmer Instance's exported symbols to
// service.Behavior. Handle calls the module's <base>_dispatch export with
// the message payload; Init/Release/Signal call the matching symbol if
// present, the way the original's optional symbols work.
type wasmBehavior struct {
	instance *wasmer.Instance
	base     string
	logger   *logging.Logger

	initFn     wasmer.NativeFunction
	releaseFn  wasmer.NativeFunction
	signalFn   wasmer.NativeFunction
	dispatchFn wasmer.NativeFunction
}

func (b *wasmBehavior) Init(ctx *service.Context, args string, sender service.Sender) error {
	_, err := b.initFn([]byte(args))
	if err != nil {
		return fmt.Errorf("wasmloader: %s_init: %w", b.base, err)
	}
	return nil
}

func (b *wasmBehavior) Handle(ctx *service.Context, msg *mailbox.Message) {
	if b.dispatchFn == nil {
		return
	}
	if _, err := b.dispatchFn(msg.Payload); err != nil && b.logger != nil {
		b.logger.Error(fmt.Sprintf("%s_dispatch failed", b.base), logging.Err(err))
	}
}

func (b *wasmBehavior) Signal(ctx *service.Context, sig int) {
	if b.signalFn == nil {
		return
	}
	_, _ = b.signalFn(int32(sig))
}

func (b *wasmBehavior) Release(ctx *service.Context) {
	if b.releaseFn == nil {
		return
	}
	_, _ = b.releaseFn()
}
