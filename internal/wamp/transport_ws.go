package wamp

import (
	"context"
	"encoding/json"

	"nhooyr.io/websocket"
)

// wsTransport adapts a nhooyr.io/websocket connection to Transport, one
// JSON-encoded Message per websocket text frame (spec §6.4's wire
// surface; borrowed from the opd-ai-desktop-companion example's use of
// nhooyr.io/websocket for a framed JSON protocol rather than writing a
// raw net.Conn codec).
type wsTransport struct {
	conn *websocket.Conn
}

// NewWebSocketTransport wraps an already-accepted websocket connection.
func NewWebSocketTransport(conn *websocket.Conn) Transport {
	return &wsTransport{conn: conn}
}

func (t *wsTransport) Send(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return t.conn.Write(context.Background(), websocket.MessageText, data)
}

func (t *wsTransport) Receive(ctx context.Context) (Message, error) {
	_, data, err := t.conn.Read(ctx)
	if err != nil {
		return Message{}, err
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}

func (t *wsTransport) Close() error {
	return t.conn.Close(websocket.StatusNormalClosure, "goodbye")
}
