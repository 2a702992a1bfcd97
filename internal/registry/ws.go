package registry

import (
	"context"

	"github.com/coder/websocket"
)

// wsTransport adapts a websocket connection to the Transport interface.
type wsTransport struct {
	conn *websocket.Conn
}

// NewWebSocketSession wraps an accepted websocket connection in a Session.
func NewWebSocketSession(conn *websocket.Conn) *Session {
	return NewSession(&wsTransport{conn: conn})
}

func (t *wsTransport) WriteText(ctx context.Context, data []byte) error {
	return t.conn.Write(ctx, websocket.MessageText, data)
}
