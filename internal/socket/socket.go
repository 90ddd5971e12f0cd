// Package socket implements the out-of-scope-but-specified I/O engine
// contract (spec.md §4.H "Socket thread"): Poll returns the next event or
// signals exit. spec.md treats the engine itself as an external
// collaborator; this package supplies the interface plus a no-op
// implementation and one concrete libp2p-backed bridge so the contract is
// actually exercised end to end. Grounded on the teacher's
// internal/network/mesh.go stream handler and cmd/inos-node/main.go's
// protobuf framing.
package socket

import (
	"context"
	"fmt"
	"io"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/nmxmxh/actorkernel/internal/handle"
)

// Event is one inbound socket occurrence, wrapped by the socket thread
// into a socket-type message and pushed to its target handle (spec.md
// §4.H, §6 message type 6).
type Event struct {
	Target  handle.Handle
	Payload []byte
}

// Engine is the poll/wake contract spec.md §4.H specifies: Poll blocks
// until an event is ready, the engine decides to stop (ok=false, err=nil,
// matching "return code 0 → exit"), or ctx is cancelled.
type Engine interface {
	Poll(ctx context.Context) (ev Event, more bool, ok bool, err error)
}

// Noop is an Engine with no transport: Poll blocks until ctx is cancelled
// or Close is called, then reports exit (spec.md §4.H "Return code 0 →
// exit"). Used when no listener is configured.
type Noop struct {
	closed chan struct{}
}

// NewNoop creates a Noop engine.
func NewNoop() *Noop {
	return &Noop{closed: make(chan struct{})}
}

// Close makes every blocked and future Poll call return the exit signal.
func (n *Noop) Close() {
	select {
	case <-n.closed:
	default:
		close(n.closed)
	}
}

func (n *Noop) Poll(ctx context.Context) (Event, bool, bool, error) {
	select {
	case <-n.closed:
		return Event{}, false, false, nil
	case <-ctx.Done():
		return Event{}, false, false, ctx.Err()
	}
}

// encodeFrame wraps payload in a wrapperspb.BytesValue and marshals it,
// giving the wire an explicit length-delimited envelope instead of raw
// bytes (spec.md §3 "message" payloads cross the bridge opaquely; this is
// purely a framing choice, not a protocol this package interprets).
func encodeFrame(payload []byte) ([]byte, error) {
	return proto.Marshal(wrapperspb.Bytes(payload))
}

// decodeFrame reverses encodeFrame.
func decodeFrame(data []byte) ([]byte, error) {
	var wrapper wrapperspb.BytesValue
	if err := proto.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("socket: decoding frame: %w", err)
	}
	return wrapper.GetValue(), nil
}

// readFrame reads one length-delimited protobuf frame from r: a
// varint-free approach using io.ReadAll per stream, matching the teacher's
// mesh.go handler which reads a whole stream's bytes as one message rather
// than multiplexing several frames per stream.
func readFrame(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("socket: reading stream: %w", err)
	}
	return decodeFrame(data)
}
