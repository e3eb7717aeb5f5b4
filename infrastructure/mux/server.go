package mux

import (
	"context"
	"io"

	"socksmux/application"
	"socksmux/domain/protocol"
	"socksmux/infrastructure/transport"
)

type serverMsgKind int

const (
	serverMsgData serverMsgKind = iota
	serverMsgClose
)

type serverMessage[Resp any] struct {
	kind    serverMsgKind
	id      uint64
	payload Resp
}

// ServerTransport is the shape the server dispatcher needs from the typed
// transport: receive Requests, send Responses.
type ServerTransport[Req any, Resp any] interface {
	Recv() (protocol.Request[Req], error)
	Send(protocol.Response[Resp]) error
}

// Server accepts logical channels opened by a peer Client multiplexed over
// one transport. Unlike Client, ids are assigned by the peer; Server never
// allocates one itself.
type Server[Req any, Resp any] struct {
	commands *mailbox[serverMessage[Resp]]
	accepted *mailbox[*ServerChannel[Req, Resp]]
	done     <-chan struct{}
}

// Done closes once the dispatcher has exited, whatever the cause. See
// Client.Done for the conn-cleanup pattern this is meant to drive.
func (s *Server[Req, Resp]) Done() <-chan struct{} { return s.done }

// NewServer wraps rw in a typed transport and spawns the dispatcher
// goroutine. Closing the returned Server tears the dispatcher down; see
// Close.
// acceptQueueWarnDepth of 0 disables the backlog warning.
func NewServer[Req any, Resp any](
	rw io.ReadWriter,
	key []byte,
	maxFrame uint32,
	acceptQueueWarnDepth int,
	reqCodec protocol.PayloadCodec[Req],
	respCodec protocol.PayloadCodec[Resp],
	logger application.Logger,
) (*Server[Req, Resp], error) {
	tr, err := transport.New[protocol.Response[Resp], protocol.Request[Req]](
		rw, key, maxFrame,
		func(r protocol.Response[Resp]) ([]byte, error) { return protocol.EncodeResponse(r, respCodec) },
		func(b []byte) (protocol.Request[Req], error) { return protocol.DecodeRequest(b, reqCodec) },
	)
	if err != nil {
		return nil, err
	}

	done := make(chan struct{})
	s := &Server[Req, Resp]{
		commands: newMailbox[serverMessage[Resp]](),
		accepted: newMailbox[*ServerChannel[Req, Resp]](),
		done:     done,
	}

	d := &serverDispatcher[Req, Resp]{
		transport:        tr,
		commands:         s.commands,
		accepted:         s.accepted,
		routing:          make(map[uint64]*mailbox[Req]),
		acceptQueueDepth: acceptQueueWarnDepth,
		logger:           logger,
		done:             done,
	}
	go d.run()

	return s, nil
}

// Accept blocks until the peer opens a channel, or the dispatcher is gone.
func (s *Server[Req, Resp]) Accept() (*ServerChannel[Req, Resp], error) {
	ch, ok := s.accepted.Wait(context.Background())
	if !ok {
		return nil, ErrTransportClosed
	}
	return ch, nil
}

// Close closes the command inbox: channel Send and channel Close calls made
// afterwards do not reach the dispatcher. Commands already queued are still
// handled. The dispatcher then exits at once if no channel is open, and
// otherwise when the transport's read side ends.
func (s *Server[Req, Resp]) Close() error {
	s.commands.Close()
	return nil
}

// ServerChannel is a bidirectional byte-level handle bound to one logical
// channel id the peer opened. Callers must call Close when done.
type ServerChannel[Req any, Resp any] struct {
	id       uint64
	commands *mailbox[serverMessage[Resp]]
	inbox    *mailbox[Req]
	closed   bool
}

// ID returns the channel's peer-assigned id.
func (ch *ServerChannel[Req, Resp]) ID() uint64 { return ch.id }

// Send enqueues an outbound payload.
func (ch *ServerChannel[Req, Resp]) Send(payload Resp) error {
	if !ch.commands.Send(serverMessage[Resp]{kind: serverMsgData, id: ch.id, payload: payload}) {
		return ErrTransportClosed
	}
	return nil
}

// Recv blocks for the next inbound payload. ok is false on end-of-stream:
// peer Cancel, dispatcher shutdown, or a prior Close of this handle.
func (ch *ServerChannel[Req, Resp]) Recv(ctx context.Context) (Req, bool) {
	return ch.inbox.Wait(ctx)
}

// Close emits a best-effort local-close command. Unlike the client side,
// closing a ServerChannel emits no wire record: the server never originates
// a Cancel, it only reacts to one. See SPEC_FULL.md §4.4 step 5.
func (ch *ServerChannel[Req, Resp]) Close() error {
	if ch.closed {
		return nil
	}
	ch.closed = true
	ch.commands.Send(serverMessage[Resp]{kind: serverMsgClose, id: ch.id})
	return nil
}

// serverDispatcher is the long-lived actor owning the transport and routing
// table for one server-side connection.
type serverDispatcher[Req any, Resp any] struct {
	transport ServerTransport[Req, Resp]
	commands  *mailbox[serverMessage[Resp]]
	accepted  *mailbox[*ServerChannel[Req, Resp]]
	routing   map[uint64]*mailbox[Req]

	// acceptQueueDepth is a soft limit: 0 disables the warning entirely.
	acceptQueueDepth int

	logger application.Logger
	done   chan struct{}
}

func (d *serverDispatcher[Req, Resp]) run() {
	defer d.shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	recv := make(chan protocol.Request[Req])
	recvErr := make(chan error, 1)

	go func() {
		for {
			req, err := d.transport.Recv()
			if err != nil {
				recvErr <- err
				return
			}
			select {
			case recv <- req:
			case <-ctx.Done():
				return
			}
		}
	}()

	commandsReady := d.commands.Ready()
	commandsDone := false

	for {
		select {
		case req := <-recv:
			d.handleRequest(req)

		case err := <-recvErr:
			if err != nil && d.logger != nil {
				d.logger.Printf("mux: server transport closed: %v", err)
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
			if err := d.handleCommand(msg); err != nil {
				return
			}
			if commandsDone && len(d.routing) == 0 {
				return
			}
		}
	}
}

// handleRequest applies an Open/Data/Cancel record the peer sent us.
func (d *serverDispatcher[Req, Resp]) handleRequest(req protocol.Request[Req]) {
	switch req.Kind {
	case protocol.KindOpen:
		if _, exists := d.routing[req.ID]; exists {
			if d.logger != nil {
				d.logger.Printf("mux: duplicate Open for id %d, dropping", req.ID)
			}
			return
		}
		inbox := newMailbox[Req]()
		d.routing[req.ID] = inbox
		ch := &ServerChannel[Req, Resp]{id: req.ID, commands: d.commands, inbox: inbox}
		if !d.accepted.Send(ch) {
			delete(d.routing, req.ID)
			inbox.Close()
			return
		}
		if d.acceptQueueDepth > 0 && d.logger != nil {
			if depth := d.accepted.Len(); depth > d.acceptQueueDepth {
				d.logger.Printf("mux: accept queue depth %d exceeds configured %d, Accept callers are falling behind", depth, d.acceptQueueDepth)
			}
		}

	case protocol.KindData:
		if inbox, found := d.routing[req.ID]; found {
			inbox.Send(req.Payload)
		}

	case protocol.KindCancel:
		if inbox, found := d.routing[req.ID]; found {
			delete(d.routing, req.ID)
			inbox.Close()
		}
	}
}

// handleCommand applies a locally-originated Data/Close command.
func (d *serverDispatcher[Req, Resp]) handleCommand(msg serverMessage[Resp]) error {
	switch msg.kind {
	case serverMsgData:
		return d.transport.Send(protocol.Response[Resp]{ID: msg.id, Payload: msg.payload})

	case serverMsgClose:
		if inbox, found := d.routing[msg.id]; found {
			delete(d.routing, msg.id)
			inbox.Close()
		}
	}
	return nil
}

// shutdown drops every remaining routing entry, stops the accept queue, and
// stops the command inbox from accepting further work.
func (d *serverDispatcher[Req, Resp]) shutdown() {
	for id, inbox := range d.routing {
		delete(d.routing, id)
		inbox.Close()
	}
	d.accepted.Close()
	d.commands.Close()
	close(d.done)
}
