// Package module implements module loading (spec.md §4.I, §6): resolving
// a module name to a service.Behavior, out of scope for the runtime's
// invariants but needed to actually start any service. Two backends share
// one Loader interface — an in-process registry for built-in/native
// services and a wasmer-go-backed loader for WebAssembly modules found on
// a skynet-style `?`/`;` search path. Grounded on the teacher's
// wasm/executor.go for the wasmer-go call shape and on the original
// skynet_module.c for the search-path and symbol-resolution rules.
package module

import (
	"fmt"
	"strings"

	"github.com/nmxmxh/actorkernel/internal/logging"
	"github.com/nmxmxh/actorkernel/internal/service"
)

// Loader resolves a module name to a fresh service.Behavior instance.
// Create must return a distinct Behavior on every call, mirroring
// <name>_create being invoked once per service instance, not once per
// module (spec.md §6 "Only _init is required").
type Loader interface {
	Create(name string) (service.Behavior, error)
}

// Registry dispatches Create across every backend it knows about, trying
// each in the order it was added (first match wins), mirroring the
// original's "search cpath for the first loadable object" semantics
// collapsed across multiple kinds of loader.
type Registry struct {
	backends []Loader
	logger   *logging.Logger
}

// NewRegistry creates an empty module registry. Add backends with Add.
func NewRegistry(logger *logging.Logger) *Registry {
	return &Registry{logger: logger}
}

// Add appends a backend to the search order.
func (r *Registry) Add(l Loader) {
	r.backends = append(r.backends, l)
}

// Create tries every backend in order, returning the first success. It
// returns an error naming every backend's failure if none can produce the
// module, matching spec.md §7 "Module load failure".
func (r *Registry) Create(name string) (service.Behavior, error) {
	var errs []string
	for _, b := range r.backends {
		behavior, err := b.Create(name)
		if err == nil {
			return behavior, nil
		}
		errs = append(errs, err.Error())
	}
	return nil, fmt.Errorf("module %q: no backend could load it: %s", name, strings.Join(errs, "; "))
}

// SymbolBase returns the substring of a module name after its last dot
// (spec.md §6: "A module name may contain dots; symbol base is the
// substring after the last dot"), used to derive the four
// create/init/release/signal symbol names a native or wasm module exposes.
func SymbolBase(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}
