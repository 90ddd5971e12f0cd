package module

import (
	"fmt"
	"sync"

	"github.com/nmxmxh/actorkernel/internal/service"
)

// Factory constructs a fresh Behavior, standing in for a native module's
// <name>_create symbol.
type Factory func() service.Behavior

// Native is an in-process Loader backend: a table of Go-native service
// factories registered at start-up (the logger and bootstrap well-known
// services, and any embedding application's own services). This is the
// backend spec.md §6 implies by "a module is a dynamically loaded object
// exposing four symbols" when the "dynamic load" is really just a Go
// package registering itself, the way the teacher's
// kernel/threads/registry/loader.go registers unit constructors by name.
type Native struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewNative creates an empty native module table.
func NewNative() *Native {
	return &Native{factories: make(map[string]Factory)}
}

// Register binds name to factory. Re-registering the same name overwrites
// the previous binding, matching the teacher's loader.Register.
func (n *Native) Register(name string, factory Factory) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.factories[name] = factory
}

// Create looks up name (via its symbol base, so "foo.bar" and "bar" both
// resolve to a factory registered as "bar") and invokes it.
func (n *Native) Create(name string) (service.Behavior, error) {
	base := SymbolBase(name)
	n.mu.RLock()
	factory, ok := n.factories[base]
	n.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("native: no module registered for %q", name)
	}
	return factory(), nil
}
