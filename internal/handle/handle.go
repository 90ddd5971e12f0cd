// Package handle defines the 32-bit service handle: the address every
// message, mailbox, and registry slot in actorkernel is keyed by.
package handle

import "fmt"

// Handle is a 32-bit service address. The high 8 bits carry the harbor
// (node identity, fixed at process start); the low 24 bits are the local
// id assigned by the registry.
type Handle uint32

// None is the reserved handle value; no service may register as it, and
// no name may resolve to it.
const None Handle = 0

const (
	// LocalMask is the 24-bit local-id mask. Exported so the registry can
	// detect local-id overflow itself (skynet_handle.c's `handle >
	// HANDLE_MASK`) instead of silently wrapping through New.
	LocalMask   = 0x00FFFFFF
	harborShift = 24
)

// Local returns the low 24 bits (the id portion, ignoring harbor).
func (h Handle) Local() uint32 {
	return uint32(h) & LocalMask
}

// Harbor returns the high 8 bits (the node identity).
func (h Handle) Harbor() uint8 {
	return uint8(uint32(h) >> harborShift)
}

// WithHarbor returns h with its harbor byte replaced by harbor, local bits
// unchanged.
func (h Handle) WithHarbor(harbor uint8) Handle {
	return Handle(uint32(harbor)<<harborShift | h.Local())
}

// New composes a handle from a harbor byte and a local id. The local id
// must already be in range [1, LocalMask] and non-zero (the registry
// guarantees this, skipping 0 on overflow rather than wrapping to it); New
// still masks defensively so an out-of-range local id can never compose a
// handle outside its 24 bits.
func New(harbor uint8, local uint32) Handle {
	return Handle(uint32(harbor)<<harborShift | (local & LocalMask))
}

// String renders a handle the way the runtime's logs and the watchdog's
// endless-loop message do: 8 hex digits with a leading colon, e.g. ":0000002a".
func (h Handle) String() string {
	return fmt.Sprintf(":%08x", uint32(h))
}
