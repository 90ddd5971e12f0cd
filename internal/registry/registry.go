// Package registry implements the handle registry (spec.md §4.A): a
// bidirectional name/id map over an open-addressed table of service
// contexts, guarded by one reader-writer lock. Grounded on the teacher's
// RWMutex-guarded slice/map shape (kernel/threads/supervisor/channels.go's
// JobQueue/ResultCache) and on the original skynet_handle.c for the exact
// probing/rehash/name-array algorithm.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/nmxmxh/actorkernel/internal/handle"
	"github.com/nmxmxh/actorkernel/internal/mailbox"
	"github.com/nmxmxh/actorkernel/internal/service"
)

const (
	defaultSlotSize = 4
	maxSlotSize     = 0x40000000
)

type nameEntry struct {
	name string
	h    handle.Handle
}

// Registry is the process-wide handle table. Exactly one is created per
// kernel (spec.md §9 "avoid hidden singletons in the public surface").
type Registry struct {
	mu sync.RWMutex

	harbor      uint8
	handleIndex uint32
	slotSize    uint32
	slots       []*service.Context

	names []nameEntry // sorted by name

	pushReleased func(*mailbox.Mailbox)
}

// New creates an empty registry for the given harbor (node) byte.
// handleIndex starts at 1, not 0: handle 0 is reserved (spec.md §3,
// original's skynet_handle.c "0 is reserved"), and a registry whose first
// allocation starts at local id 0 would hand out handle.None as a real
// service's address the moment harbor is also 0.
func New(harbor uint8) *Registry {
	return &Registry{
		harbor:      harbor,
		handleIndex: 1,
		slotSize:    defaultSlotSize,
		slots:       make([]*service.Context, defaultSlotSize),
	}
}

// SetReleasePusher wires the callback Retire uses to hand a just-marked-
// for-release mailbox to the scheduler's global run queue, when that
// mailbox was not already queued (spec.md §4.C: a release still in
// transit must be observed by a worker so its remaining messages drain
// through the configured drop function). The registry package itself
// never imports queue, to keep handle→mailbox→queue a one-way dependency;
// the kernel wires this once, after constructing both.
func (r *Registry) SetReleasePusher(fn func(*mailbox.Mailbox)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pushReleased = fn
}

// Register allocates the next free handle, constructs the context via
// newContext once that handle is known, and slots it into the table. It
// doubles the table and rehashes every live context when a full pass finds
// no free slot. It panics if the table would have to grow past
// maxSlotSize — the registry never soft-fails (spec.md §9 Open Question:
// kept as-is).
//
// The handle must be known before the context exists (service.Context has
// no setter for its own handle), so registration is a two-step handshake:
// reserve a slot, then construct. This mirrors skynet_handle.c, where the
// context's `handle` field is written only after a free slot is found.
func (r *Registry) Register(newContext func(h handle.Handle) *service.Context) handle.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	for {
		local := r.handleIndex
		for i := uint32(0); i < r.slotSize; i, local = i+1, local+1 {
			if local > handle.LocalMask {
				// 0 is reserved; skip past it instead of masking into it.
				local = 1
			}
			idx := local & (r.slotSize - 1)
			if r.slots[idx] != nil {
				continue
			}
			h := handle.New(r.harbor, local)
			ctx := newContext(h)
			r.slots[idx] = ctx
			r.handleIndex = local + 1
			return h
		}
		r.grow()
	}
}

// grow doubles the slot table and rehashes every live context at its new
// position (handle & (new_size-1)). Caller must hold the write lock.
func (r *Registry) grow() {
	newSize := r.slotSize * 2
	if newSize > maxSlotSize {
		panic(fmt.Sprintf("registry: slot table would exceed hard cap of %d entries", maxSlotSize))
	}
	newSlots := make([]*service.Context, newSize)
	for _, ctx := range r.slots {
		if ctx == nil {
			continue
		}
		idx := uint32(ctx.Handle()) & (newSize - 1)
		for newSlots[idx] != nil {
			idx = (idx + 1) & (newSize - 1)
		}
		newSlots[idx] = ctx
	}
	r.slots = newSlots
	r.slotSize = newSize
}

// Grab returns a reference to the context stored at h, retaining it, or
// ok=false if no live context matches h.
func (r *Registry) Grab(h handle.Handle) (ctx *service.Context, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx := uint32(h) & (r.slotSize - 1)
	c := r.slots[idx]
	if c == nil || c.Handle() != h {
		return nil, false
	}
	c.Retain()
	return c, true
}

// Retire removes h's slot (if its stored context still matches h),
// compacts the name table, and releases the runtime's strong reference to
// the context — outside the write lock, since Release may re-enter the
// registry (spec.md §4.A, §5 "release(context) is always called with no
// runtime lock held").
func (r *Registry) Retire(h handle.Handle) bool {
	r.mu.Lock()

	idx := uint32(h) & (r.slotSize - 1)
	c := r.slots[idx]
	if c == nil || c.Handle() != h {
		r.mu.Unlock()
		return false
	}
	r.slots[idx] = nil
	r.compactNamesLocked(h)
	pusher := r.pushReleased
	r.mu.Unlock()

	if needsGlobalPush := c.Release(); needsGlobalPush && pusher != nil {
		pusher(c.Mailbox())
	}
	return true
}

// compactNamesLocked removes every name entry pointing at h. Caller must
// hold the write lock.
func (r *Registry) compactNamesLocked(h handle.Handle) {
	kept := r.names[:0]
	for _, e := range r.names {
		if e.h != h {
			kept = append(kept, e)
		}
	}
	r.names = kept
}

// FindName resolves name to a handle via binary search.
func (r *Registry) FindName(name string) (handle.Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := sort.Search(len(r.names), func(i int) bool { return r.names[i].name >= name })
	if i < len(r.names) && r.names[i].name == name {
		return r.names[i].h, true
	}
	return handle.None, false
}

// NameHandle binds name to h in the sorted name array. It fails (returns
// ok=false) if the name already exists; the stored string is owned by the
// registry.
func (r *Registry) NameHandle(h handle.Handle, name string) (canonical string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := sort.Search(len(r.names), func(i int) bool { return r.names[i].name >= name })
	if i < len(r.names) && r.names[i].name == name {
		return "", false
	}
	r.names = append(r.names, nameEntry{})
	copy(r.names[i+1:], r.names[i:])
	r.names[i] = nameEntry{name: name, h: h}
	return name, true
}

// RetireAll retires every occupied slot, repeating until a full pass finds
// nothing left (spec.md §4.A) — used during shutdown.
func (r *Registry) RetireAll() {
	for {
		r.mu.RLock()
		handles := make([]handle.Handle, 0, r.slotSize)
		for _, ctx := range r.slots {
			if ctx != nil {
				handles = append(handles, ctx.Handle())
			}
		}
		r.mu.RUnlock()

		if len(handles) == 0 {
			return
		}
		for _, h := range handles {
			r.Retire(h)
		}
	}
}

// Count returns the number of live contexts, used by the aux threads'
// "context_total() == 0" shutdown check (spec.md §4.H).
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, ctx := range r.slots {
		if ctx != nil {
			n++
		}
	}
	return n
}
