package mailbox

import "github.com/nmxmxh/actorkernel/internal/handle"

// Type is the message-type tag carried in the top byte of a message's size
// word (spec.md §3, §6). Values are wire-stable: external services rely on
// them.
type Type uint8

const (
	TypeText      Type = 0
	TypeResponse  Type = 1
	TypeMulticast Type = 2
	TypeClient    Type = 3
	TypeSystem    Type = 4
	TypeHarbor    Type = 5
	TypeSocket    Type = 6
	TypeError     Type = 7
	TypeReserved  Type = 8
	TypeQuery     Type = 9
	TypeDebug     Type = 10
	TypeLua       Type = 11
)

// Message is the envelope exchanged between services: a source handle, an
// optional session correlating a reply to a request, and an owned payload.
type Message struct {
	Source  handle.Handle
	Session int32
	Type    Type
	Payload []byte
}

// DropFunc is invoked on a message when it is discarded undelivered by
// mailbox teardown; a send to a dead handle does not call it (the sender
// keeps the message). It exists so callers
// can plug in payload-specific cleanup; for []byte payloads in this
// implementation it is normally a no-op, since Go's GC reclaims them, but
// the hook point mirrors the original's heap-free-on-drop contract
// (spec.md §3) for payload types that do own external resources.
type DropFunc func(*Message)

// DefaultDrop is a no-op DropFunc suitable when payloads need no explicit
// release.
func DefaultDrop(*Message) {}
