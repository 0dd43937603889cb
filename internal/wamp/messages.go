// Package wamp implements a WAMP-style RPC and Pub/Sub runtime: realms,
// sessions, subscriptions, registrations, and call routing with
// configurable invocation policies and cancellation modes (spec §5/§6).
// It is transport-agnostic; internal/wamp's Transport interface is
// satisfied by a websocket transport (internal/wamp/transport_ws.go) so
// the router itself never imports net/http.
package wamp

// MessageType discriminates the small set of envelope kinds this runtime
// exchanges over a Transport (spec §6.4's RPC/Pub-Sub surface, reduced to
// the operations the Battle Service actually needs rather than the full
// WAMP Advanced Profile).
type MessageType string

const (
	MsgHello        MessageType = "HELLO"
	MsgWelcome      MessageType = "WELCOME"
	MsgGoodbye      MessageType = "GOODBYE"
	MsgSubscribe    MessageType = "SUBSCRIBE"
	MsgSubscribed   MessageType = "SUBSCRIBED"
	MsgUnsubscribe  MessageType = "UNSUBSCRIBE"
	MsgUnsubscribed MessageType = "UNSUBSCRIBED"
	MsgPublish      MessageType = "PUBLISH"
	MsgEvent        MessageType = "EVENT"
	MsgRegister     MessageType = "REGISTER"
	MsgRegistered   MessageType = "REGISTERED"
	MsgUnregister   MessageType = "UNREGISTER"
	MsgUnregistered MessageType = "UNREGISTERED"
	MsgCall         MessageType = "CALL"
	MsgCancel       MessageType = "CANCEL"
	MsgInvocation   MessageType = "INVOCATION"
	MsgYield        MessageType = "YIELD"
	MsgResult       MessageType = "RESULT"
	MsgInterrupt    MessageType = "INTERRUPT"
	MsgError        MessageType = "ERROR"
)

// Message is the single envelope shape every frame this runtime sends or
// receives takes, serialized by the websocket transport as one JSON
// document per websocket text frame.
type Message struct {
	Type    MessageType    `json:"type"`
	ID      uint64         `json:"id,omitempty"`
	Realm   string         `json:"realm,omitempty"`
	URI     string         `json:"uri,omitempty"`
	Args    []any          `json:"args,omitempty"`
	Kwargs  map[string]any `json:"kwargs,omitempty"`
	Options map[string]any `json:"options,omitempty"`

	// Error fields, populated only on MsgError.
	ErrorKind string `json:"error_kind,omitempty"`
	Reason    string `json:"reason,omitempty"`

	// Progress marks a RESULT/YIELD as a progressive (non-final) chunk
	// (spec §6.4 "progressive results").
	Progress bool `json:"progress,omitempty"`
}
