// Package jsonrpc implements the JSON-RPC 2.0 envelope model and the LSP
// base-protocol transports the endpoint speaks over.
package jsonrpc

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

// Version is the protocol version carried in every message.
const Version = "2.0"

// ID identifies a call on the wire. Per JSON-RPC it is either an integer or
// a string; both forms are preserved bit-identically so replies correlate.
// The zero value is the absent ID (a notification).
type ID struct {
	value  int64
	name   string
	isInt  bool
	isName bool
}

// NewIntID returns an integer request ID.
func NewIntID(value int64) ID {
	return ID{value: value, isInt: true}
}

// NewStringID returns a string request ID.
func NewStringID(name string) ID {
	return ID{name: name, isName: true}
}

// IsValid reports whether the ID is present at all.
func (id ID) IsValid() bool {
	return id.isInt || id.isName
}

// Int returns the integer form, if the ID is an integer.
func (id ID) Int() (int64, bool) {
	return id.value, id.isInt
}

// String renders the ID the way it appears in JSON. String IDs keep their
// quotes so that the integer 5 and the string "5" map to distinct keys.
func (id ID) String() string {
	switch {
	case id.isInt:
		return strconv.FormatInt(id.value, 10)
	case id.isName:
		return strconv.Quote(id.name)
	default:
		return "<none>"
	}
}

// MarshalJSON implements json.Marshaler.
func (id ID) MarshalJSON() ([]byte, error) {
	switch {
	case id.isInt:
		return json.Marshal(id.value)
	case id.isName:
		return json.Marshal(id.name)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	*id = ID{}
	if string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*id = NewStringID(name)
		return nil
	}
	var value int64
	if err := json.Unmarshal(data, &value); err != nil {
		return errors.Wrap(err, "request ID must be an integer or a string")
	}
	*id = NewIntID(value)
	return nil
}

// JSON-RPC and LSP error codes.
const (
	CodeParseError           int64 = -32700
	CodeInvalidRequest       int64 = -32600
	CodeMethodNotFound       int64 = -32601
	CodeInvalidParams        int64 = -32602
	CodeInternalError        int64 = -32603
	CodeServerNotInitialized int64 = -32002
	CodeRequestFailed        int64 = -32803
	CodeRequestCancelled     int64 = -32800
	CodeContentModified      int64 = -32801
)

// Error is a protocol-visible error carried in a reply's "error" member.
type Error struct {
	Code    int64           `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// NewError returns a protocol error with the given code and message.
func NewError(code int64, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Errorf returns a protocol error with a formatted message.
func Errorf(code int64, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// AsError converts a handler error into its wire form. Errors that are
// already *Error pass through; everything else becomes an InternalError so
// internal detail does not leak structure, only text.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	return NewError(CodeInternalError, err.Error())
}

// message is the wire form shared by all three envelope kinds.
type message struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *ID             `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// resultMessage exists so that replies carrying a null result still emit a
// "result" member; a reply must contain exactly one of result and error.
type resultMessage struct {
	JSONRPC string `json:"jsonrpc"`
	ID      ID     `json:"id"`
	Result  any    `json:"result"`
}
