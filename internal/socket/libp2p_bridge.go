package socket

import (
	"context"
	"fmt"
	"sync"

	libp2p "github.com/libp2p/go-libp2p"
	libp2pnetwork "github.com/libp2p/go-libp2p/core/network"

	"github.com/nmxmxh/actorkernel/internal/handle"
	"github.com/nmxmxh/actorkernel/internal/logging"
	"github.com/nmxmxh/actorkernel/internal/node"
)

// streamProtocol is this bridge's libp2p protocol ID, reusing the
// teacher's "/packet/1.0.0" convention.
const streamProtocol = "/actorkernel/socket/1.0.0"

// LibP2PBridge opens a libp2p host bound to a node.Identity and turns each
// inbound stream into a socket Event targeted at a fixed handle (the
// well-known service that owns the socket, resolved by the kernel at
// wiring time — spec.md's socket thread has no routing of its own).
// Grounded on the teacher's internal/network/mesh.go
// StartNodeWithStreams/host.SetStreamHandler shape.
type LibP2PBridge struct {
	events chan Event

	mu     sync.Mutex
	closed bool
	logger *logging.Logger
}

// NewLibP2PBridge starts a libp2p host using id's keypair, listening on
// listenAddrs, and routes every inbound stream on streamProtocol to
// target, wrapping its framed payload into an Event.
func NewLibP2PBridge(ctx context.Context, id *node.Identity, listenAddrs []string, target handle.Handle, logger *logging.Logger) (*LibP2PBridge, error) {
	opts := []libp2p.Option{libp2p.Identity(id.Priv)}
	if len(listenAddrs) > 0 {
		opts = append(opts, libp2p.ListenAddrStrings(listenAddrs...))
	}
	host, err := libp2p.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("socket: starting libp2p host: %w", err)
	}

	b := &LibP2PBridge{
		events: make(chan Event, 64),
		logger: logger,
	}

	host.SetStreamHandler(streamProtocol, func(s libp2pnetwork.Stream) {
		defer s.Close()
		payload, err := readFrame(s)
		if err != nil {
			if b.logger != nil {
				b.logger.Warn("socket: dropping malformed stream", logging.Err(err))
			}
			return
		}
		b.mu.Lock()
		closed := b.closed
		b.mu.Unlock()
		if closed {
			return
		}
		select {
		case b.events <- Event{Target: target, Payload: payload}:
		case <-ctx.Done():
		}
	})

	if logger != nil {
		logger.Info("socket: libp2p host started", logging.String("peer_id", host.ID().String()))
	}

	go func() {
		<-ctx.Done()
		b.Close()
		host.Close()
	}()

	return b, nil
}

// Poll implements Engine: it blocks until an event has been framed from an
// inbound stream, the bridge is closed (exit, spec.md §4.H "return code
// 0"), or ctx is cancelled.
func (b *LibP2PBridge) Poll(ctx context.Context) (Event, bool, bool, error) {
	select {
	case ev, ok := <-b.events:
		if !ok {
			return Event{}, false, false, nil
		}
		return ev, len(b.events) > 0, true, nil
	case <-ctx.Done():
		return Event{}, false, false, ctx.Err()
	}
}

// Close stops accepting further events; safe to call more than once.
func (b *LibP2PBridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.events)
}
