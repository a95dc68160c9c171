// Package endpoint implements the message-dispatch and request-lifecycle
// core of an LSP endpoint: handler routing, the reply-once contract,
// client-driven cancellation and server-originated calls.
package endpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/sasha-s/go-deadlock"
	"github.com/tliron/commonlog"

	"github.com/CWBudde/go-lsp-endpoint/internal/jsonrpc"
)

// Methods the dispatcher itself recognizes.
const (
	MethodInitialize    = "initialize"
	MethodExit          = "exit"
	MethodCancelRequest = "$/cancelRequest"
)

// DefaultMaxOutboundCalls bounds the number of server-to-client calls held
// awaiting replies. Clients that never reply would otherwise leak an entry
// per call.
const DefaultMaxOutboundCalls = 100

// NotificationHandler consumes a notification's raw params. Errors are the
// handler's to log; nothing propagates to the client.
type NotificationHandler func(ctx context.Context, params json.RawMessage)

// CallHandler consumes a call's raw params and its reply handle. The handler
// must cause exactly one reply, inline or after detaching the handle.
type CallHandler func(ctx context.Context, params json.RawMessage, reply *ReplyOnce)

// Options configures an Endpoint.
type Options struct {
	// MaxOutboundCalls caps in-flight server-to-client calls.
	// DefaultMaxOutboundCalls when zero.
	MaxOutboundCalls int

	// OffsetEncoding is the encoding before (or absent) negotiation.
	// UTF-16 when empty.
	OffsetEncoding OffsetEncoding

	// Log overrides the endpoint's logger.
	Log commonlog.Logger
}

// Endpoint owns one client session: the handler table, the writer lock and
// the cancellation and outbound registries. Handlers are registered at
// construction time, before Serve; registration is not synchronized.
type Endpoint struct {
	transp jsonrpc.Transport

	// writer serializes all outbound frame writes. It is always the last
	// lock taken and is never held together with a registry lock.
	writer deadlock.Mutex

	notifications map[string]NotificationHandler
	calls         map[string]CallHandler

	outbound *outboundRegistry
	cancels  *cancelRegistry

	initialized atomic.Bool
	destroyed   atomic.Bool

	encoding atomic.Value // OffsetEncoding

	log commonlog.Logger
}

// New creates an endpoint over the given transport.
func New(transp jsonrpc.Transport, options Options) *Endpoint {
	if options.MaxOutboundCalls <= 0 {
		options.MaxOutboundCalls = DefaultMaxOutboundCalls
	}
	if options.OffsetEncoding == "" {
		options.OffsetEncoding = OffsetEncodingUTF16
	}
	log := options.Log
	if log == nil {
		log = commonlog.GetLogger("lsp-endpoint.dispatch")
	}
	ep := &Endpoint{
		transp:        transp,
		notifications: make(map[string]NotificationHandler),
		calls:         make(map[string]CallHandler),
		outbound:      newOutboundRegistry(options.MaxOutboundCalls),
		cancels:       newCancelRegistry(),
		log:           log,
	}
	ep.encoding.Store(options.OffsetEncoding)
	return ep
}

// RegisterNotification installs the handler for a notification method.
// Registering a method twice is a programming error and panics.
func (ep *Endpoint) RegisterNotification(method string, handler NotificationHandler) {
	if _, exists := ep.notifications[method]; exists {
		panic(fmt.Sprintf("notification handler already registered for %s", method))
	}
	ep.notifications[method] = handler
}

// RegisterCall installs the handler for a call method. Registering a method
// twice is a programming error and panics.
func (ep *Endpoint) RegisterCall(method string, handler CallHandler) {
	if _, exists := ep.calls[method]; exists {
		panic(fmt.Sprintf("call handler already registered for %s", method))
	}
	ep.calls[method] = handler
}

// SetInitialized opens the initialization gate. The initialize handler calls
// this on the dispatch goroutine before its reply is sent, so no later call
// can race past it.
func (ep *Endpoint) SetInitialized() {
	ep.initialized.Store(true)
}

// IsInitialized reports whether the gate is open.
func (ep *Endpoint) IsInitialized() bool {
	return ep.initialized.Load()
}

// SetOffsetEncoding records the negotiated offset encoding for subsequent
// handler contexts.
func (ep *Endpoint) SetOffsetEncoding(encoding OffsetEncoding) {
	ep.encoding.Store(encoding)
}

// OffsetEncoding returns the encoding handler contexts carry.
func (ep *Endpoint) OffsetEncoding() OffsetEncoding {
	return ep.encoding.Load().(OffsetEncoding)
}

// Serve runs the transport loop until end of stream, an exit notification or
// a fatal transport error, then marks the endpoint as being torn down so
// that abandoned reply handles stay silent.
func (ep *Endpoint) Serve() error {
	err := ep.transp.Loop(ep)
	ep.destroyed.Store(true)
	return err
}

// Notify sends a server-originated notification.
func (ep *Endpoint) Notify(method string, params any) error {
	ep.log.Debugf("--> %s", method)
	ep.writer.Lock()
	defer ep.writer.Unlock()
	return ep.transp.Notify(method, params)
}

// Call sends a server-originated call. The handler is invoked exactly once:
// with the client's reply, or with an error if the registry evicted the call
// before any reply arrived. Eviction happens when more than the configured
// maximum of calls are outstanding; the oldest is assumed abandoned.
func (ep *Endpoint) Call(method string, params any, handle ReplyHandler) error {
	id, evicted := ep.outbound.register(handle)
	if evicted != nil {
		ep.log.Errorf("more than %d outstanding LSP calls, forgetting about %d", ep.outbound.max, evicted.id)
		evicted.handle(nil, errors.Errorf("failed to receive a client reply for request (%d)", evicted.id))
	}
	ep.log.Debugf("--> %s(%d)", method, id)
	ep.writer.Lock()
	defer ep.writer.Unlock()
	return ep.transp.Call(jsonrpc.NewIntID(id), method, params)
}

// PendingOutboundCalls reports how many server-to-client calls are awaiting
// replies.
func (ep *Endpoint) PendingOutboundCalls() int {
	return ep.outbound.size()
}

// writeReply writes one reply frame under the writer lock. Write failures
// are fatal to the session but may surface on a worker goroutine; they are
// logged here and the transport loop fails on its own side.
func (ep *Endpoint) writeReply(id jsonrpc.ID, result any, rpcErr *jsonrpc.Error) {
	ep.writer.Lock()
	defer ep.writer.Unlock()
	if err := ep.transp.Reply(id, result, rpcErr); err != nil {
		ep.log.Errorf("failed to write reply for %s: %s", id, err)
	}
}

// handlerContext builds the ambient context every handler runs under.
func (ep *Endpoint) handlerContext() context.Context {
	return WithOffsetEncoding(context.Background(), ep.OffsetEncoding())
}
