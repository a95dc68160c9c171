package jsonrpc

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("lsp-endpoint.transport")

// Handler receives decoded envelopes from a transport loop. Each method
// returns false to stop the loop cleanly.
type Handler interface {
	// HandleNotification delivers a notification (no reply expected).
	HandleNotification(method string, params json.RawMessage) bool

	// HandleCall delivers a call; the handler must eventually cause exactly
	// one reply for the given ID.
	HandleCall(id ID, method string, params json.RawMessage) bool

	// HandleReply delivers a reply to a server-originated call. Exactly one
	// of result and rpcErr is meaningful.
	HandleReply(id ID, result json.RawMessage, rpcErr *Error) bool
}

// Transport is a bidirectional stream of JSON-RPC envelopes. Writes are not
// internally synchronized; the endpoint serializes them under its writer
// lock. Any read, decode, or write failure is fatal to the session.
type Transport interface {
	// Loop blocks reading frames, dispatching each to handler. It returns
	// nil on clean end of stream or handler-requested stop, otherwise the
	// fatal transport error.
	Loop(handler Handler) error

	// Notify writes one notification frame.
	Notify(method string, params any) error

	// Call writes one call frame.
	Call(id ID, method string, params any) error

	// Reply writes one reply frame carrying result or rpcErr.
	Reply(id ID, result any, rpcErr *Error) error

	Close() error
}

// StreamTransport frames messages over any byte stream: stdio or a TCP
// connection.
type StreamTransport struct {
	reader *bufio.Reader
	writer io.Writer
	closer io.Closer
}

// NewStreamTransport wraps a read/write stream. closer may be nil (stdio).
func NewStreamTransport(reader io.Reader, writer io.Writer, closer io.Closer) *StreamTransport {
	return &StreamTransport{
		reader: bufio.NewReader(reader),
		writer: writer,
		closer: closer,
	}
}

// NewConnTransport wraps a connection that is both stream and closer.
func NewConnTransport(conn io.ReadWriteCloser) *StreamTransport {
	return NewStreamTransport(conn, conn, conn)
}

// Loop implements Transport.
func (t *StreamTransport) Loop(handler Handler) error {
	for {
		body, err := readFrame(t.reader)
		if err != nil {
			if err == io.EOF {
				log.Info("end of stream")
				return nil
			}
			return err
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
func (t *StreamTransport) Notify(method string, params any) error {
	raw, err := MarshalParams(params)
	if err != nil {
		return err
	}
	return t.write(message{JSONRPC: Version, Method: method, Params: raw})
}

// Call implements Transport.
func (t *StreamTransport) Call(id ID, method string, params any) error {
	raw, err := MarshalParams(params)
	if err != nil {
		return err
	}
	return t.write(message{JSONRPC: Version, ID: &id, Method: method, Params: raw})
}

// Reply implements Transport.
func (t *StreamTransport) Reply(id ID, result any, rpcErr *Error) error {
	if rpcErr != nil {
		return t.write(message{JSONRPC: Version, ID: &id, Error: rpcErr})
	}
	return t.write(resultMessage{JSONRPC: Version, ID: id, Result: result})
}

// Close implements Transport.
func (t *StreamTransport) Close() error {
	if t.closer == nil {
		return nil
	}
	return t.closer.Close()
}

func (t *StreamTransport) write(msg any) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "failed to encode message")
	}
	return writeFrame(t.writer, body)
}

// deliver decodes one message body and routes it to the handler.
func deliver(body []byte, handler Handler) (bool, error) {
	var msg message
	if err := json.Unmarshal(body, &msg); err != nil {
		return false, errors.Wrap(err, "failed to decode message")
	}
	switch {
	case msg.Method != "" && msg.ID != nil:
		return handler.HandleCall(*msg.ID, msg.Method, msg.Params), nil
	case msg.Method != "":
		return handler.HandleNotification(msg.Method, msg.Params), nil
	case msg.ID != nil:
		return handler.HandleReply(*msg.ID, msg.Result, msg.Error), nil
	default:
		return false, errors.Errorf("message is neither call, notification nor reply: %s", string(body))
	}
}

// MarshalParams renders a params value for the wire. Raw messages pass
// through untouched; nil stays absent.
func MarshalParams(params any) (json.RawMessage, error) {
	switch value := params.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return value, nil
	default:
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, errors.Wrap(err, "failed to encode params")
		}
		return raw, nil
	}
}
