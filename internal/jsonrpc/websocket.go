package jsonrpc

import (
	"encoding/json"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

// WebSocketTransport carries one JSON-RPC message per websocket text frame.
// The base-protocol Content-Length framing does not apply; the websocket
// layer already delimits messages.
type WebSocketTransport struct {
	conn *websocket.Conn
}

// NewWebSocketTransport wraps an established websocket connection.
func NewWebSocketTransport(conn *websocket.Conn) *WebSocketTransport {
	return &WebSocketTransport{conn: conn}
}

// Loop implements Transport.
func (t *WebSocketTransport) Loop(handler Handler) error {
	for {
		messageType, body, err := t.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Info("websocket closed")
				return nil
			}
			return errors.Wrap(err, "failed to read websocket message")
		}
		if messageType != websocket.TextMessage {
			return errors.Errorf("unexpected websocket message type: %d", messageType)
		}
		proceed, err := deliver(body, handler)
		if err != nil {
			return err
		}
		if !proceed {
			return nil
		}
	}
}

// Notify implements Transport.
func (t *WebSocketTransport) Notify(method string, params any) error {
	raw, err := MarshalParams(params)
	if err != nil {
		return err
	}
	return t.write(message{JSONRPC: Version, Method: method, Params: raw})
}

// Call implements Transport.
func (t *WebSocketTransport) Call(id ID, method string, params any) error {
	raw, err := MarshalParams(params)
	if err != nil {
		return err
	}
	return t.write(message{JSONRPC: Version, ID: &id, Method: method, Params: raw})
}

// Reply implements Transport.
func (t *WebSocketTransport) Reply(id ID, result any, rpcErr *Error) error {
	if rpcErr != nil {
		return t.write(message{JSONRPC: Version, ID: &id, Error: rpcErr})
	}
	return t.write(resultMessage{JSONRPC: Version, ID: id, Result: result})
}

// Close implements Transport.
func (t *WebSocketTransport) Close() error {
	return t.conn.Close()
}

func (t *WebSocketTransport) write(msg any) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "failed to encode message")
	}
	if err := t.conn.WriteMessage(websocket.TextMessage, body); err != nil {
		return errors.Wrap(err, "failed to write websocket message")
	}
	return nil
}
