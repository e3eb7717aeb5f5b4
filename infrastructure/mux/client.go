package mux

import (
	"context"
	"io"
	"sync/atomic"

	"socksmux/application"
	"socksmux/domain/protocol"
	"socksmux/infrastructure/transport"
)

type clientMsgKind int

const (
	clientMsgOpen clientMsgKind = iota
	clientMsgData
	clientMsgClose
)

type clientMessage[Req any, Resp any] struct {
	kind    clientMsgKind
	id      uint64
	payload Req
	inbox   *mailbox[Resp] // only populated for clientMsgOpen
}

// ClientTransport is the shape the client dispatcher needs from the typed
// transport: send Requests, receive Responses.
type ClientTransport[Req any, Resp any] interface {
	Send(protocol.Request[Req]) error
	Recv() (protocol.Response[Resp], error)
}

// Client allocates logical channels (Connect) multiplexed over one
// transport. The next id is allocated monotonically starting at 1 and is
// never reused, per SPEC_FULL.md §3 invariant 4.
type Client[Req any, Resp any] struct {
	commands *mailbox[clientMessage[Req, Resp]]
	done     <-chan struct{}
	nextID   uint64 // next id to hand out; advanced atomically by Connect
}

// Done closes once the dispatcher has exited, whatever the cause (transport
// EOF, transport error, or the command inbox draining to empty after
// Close). Presentation-layer code should close the underlying connection
// when Done fires, so that a blocked Recv unblocks rather than leaking the
// reader goroutine.
func (c *Client[Req, Resp]) Done() <-chan struct{} { return c.done }

// NewClient wraps rw in a typed transport and spawns the dispatcher
// goroutine. Closing the returned Client tears the dispatcher down; see
// Close.
func NewClient[Req any, Resp any](
	rw io.ReadWriter,
	key []byte,
	maxFrame uint32,
	reqCodec protocol.PayloadCodec[Req],
	respCodec protocol.PayloadCodec[Resp],
	logger application.Logger,
) (*Client[Req, Resp], error) {
	tr, err := transport.New[protocol.Request[Req], protocol.Response[Resp]](
		rw, key, maxFrame,
		func(r protocol.Request[Req]) ([]byte, error) { return protocol.EncodeRequest(r, reqCodec) },
		func(b []byte) (protocol.Response[Resp], error) { return protocol.DecodeResponse(b, respCodec) },
	)
	if err != nil {
		return nil, err
	}

	done := make(chan struct{})
	c := &Client[Req, Resp]{
		commands: newMailbox[clientMessage[Req, Resp]](),
		done:     done,
		nextID:   1,
	}

	d := &clientDispatcher[Req, Resp]{
		transport: tr,
		commands:  c.commands,
		routing:   make(map[uint64]*mailbox[Resp]),
		logger:    logger,
		done:      done,
	}
	go d.run()

	return c, nil
}

// Connect atomically allocates the next channel id and asks the dispatcher
// to open it. It returns ErrTransportClosed if the dispatcher is gone.
func (c *Client[Req, Resp]) Connect() (*ClientChannel[Req, Resp], error) {
	id := atomic.AddUint64(&c.nextID, 1) - 1

	inbox := newMailbox[Resp]()
	if !c.commands.Send(clientMessage[Req, Resp]{kind: clientMsgOpen, id: id, inbox: inbox}) {
		return nil, ErrTransportClosed
	}

	return &ClientChannel[Req, Resp]{id: id, commands: c.commands, inbox: inbox}, nil
}

// Close closes the command inbox: Connect, channel Send and channel Close
// calls made afterwards do not reach the dispatcher. Commands already queued
// are still handled. The dispatcher then exits at once if no channel is
// open, and otherwise when the transport's read side ends.
func (c *Client[Req, Resp]) Close() error {
	c.commands.Close()
	return nil
}

// ClientChannel is a bidirectional byte-level handle bound to one logical
// channel id. Callers must call Close when done; in the absence of Go
// destructors this replaces the source design's "drop enqueues Close".
type ClientChannel[Req any, Resp any] struct {
	id       uint64
	commands *mailbox[clientMessage[Req, Resp]]
	inbox    *mailbox[Resp]
	closed   bool
}

// ID returns the channel's allocated id.
func (ch *ClientChannel[Req, Resp]) ID() uint64 { return ch.id }

// Send enqueues an outbound payload. The sink always reports readiness:
// queuing is unbounded here: see SPEC_FULL.md §9.
func (ch *ClientChannel[Req, Resp]) Send(payload Req) error {
	if !ch.commands.Send(clientMessage[Req, Resp]{kind: clientMsgData, id: ch.id, payload: payload}) {
		return ErrTransportClosed
	}
	return nil
}

// Recv blocks for the next inbound payload. ok is false on end-of-stream:
// peer Cancel, dispatcher shutdown, or a prior Close of this handle.
func (ch *ClientChannel[Req, Resp]) Recv(ctx context.Context) (Resp, bool) {
	return ch.inbox.Wait(ctx)
}

// Close emits a best-effort Close command to the dispatcher. Errors from
// that emission are silently discarded, matching SPEC_FULL.md §4.5/§7.
func (ch *ClientChannel[Req, Resp]) Close() error {
	if ch.closed {
		return nil
	}
	ch.closed = true
	ch.commands.Send(clientMessage[Req, Resp]{kind: clientMsgClose, id: ch.id})
	return nil
}

// clientDispatcher is the long-lived actor owning the transport and routing
// table for one client-side connection.
type clientDispatcher[Req any, Resp any] struct {
	transport ClientTransport[Req, Resp]
	commands  *mailbox[clientMessage[Req, Resp]]
	routing   map[uint64]*mailbox[Resp]
	logger    application.Logger
	done      chan struct{}
}

func (d *clientDispatcher[Req, Resp]) run() {
	defer d.shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	recv := make(chan protocol.Response[Resp])
	recvErr := make(chan error, 1)

	go func() {
		for {
			resp, err := d.transport.Recv()
			if err != nil {
				recvErr <- err
				return
			}
			select {
			case recv <- resp:
			case <-ctx.Done():
				return
			}
		}
	}()

	commandsReady := d.commands.Ready()
	commandsDone := false

	for {
		select {
		case resp := <-recv:
			if inbox, found := d.routing[resp.ID]; found {
				inbox.Send(resp.Payload)
			}

		case err := <-recvErr:
			if err != nil && d.logger != nil {
				d.logger.Printf("mux: client transport closed: %v", err)
			}
			return

		case <-commandsReady:
			msg, ok := d.commands.Pop()
			if !ok {
				if d.commands.Closed() && d.commands.Empty() {
					commandsDone = true
					commandsReady = nil
					if len(d.routing) == 0 {
						return
					}
				}
				continue
			}
			if err := d.handle(msg); err != nil {
				return
			}
			if commandsDone && len(d.routing) == 0 {
				return
			}
		}
	}
}

func (d *clientDispatcher[Req, Resp]) handle(msg clientMessage[Req, Resp]) error {
	switch msg.kind {
	case clientMsgOpen:
		d.routing[msg.id] = msg.inbox
		return d.transport.Send(protocol.Open[Req](msg.id))

	case clientMsgData:
		return d.transport.Send(protocol.Data(msg.id, msg.payload))

	case clientMsgClose:
		if inbox, found := d.routing[msg.id]; found {
			delete(d.routing, msg.id)
			inbox.Close()
		}
		return d.transport.Send(protocol.Cancel[Req](msg.id))
	}
	return nil
}

// shutdown drops every remaining routing entry, closing its inbox so the
// owning channel observes end-of-stream, and stops the command inbox from
// accepting further work.
func (d *clientDispatcher[Req, Resp]) shutdown() {
	for id, inbox := range d.routing {
		delete(d.routing, id)
		inbox.Close()
	}
	d.commands.Close()
	close(d.done)
}
