package wamp

import "context"

// Transport is the wire boundary a Session uses to exchange Messages
// with a remote peer (spec §6.4). internal/wamp never imports net/http
// or a websocket library directly; transport_ws.go supplies the concrete
// nhooyr.io/websocket-backed implementation.
type Transport interface {
	Send(msg Message) error
	Receive(ctx context.Context) (Message, error)
	Close() error
}
