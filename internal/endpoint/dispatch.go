package endpoint

import (
	"encoding/json"

	"github.com/CWBudde/go-lsp-endpoint/internal/jsonrpc"
	"github.com/CWBudde/go-lsp-endpoint/internal/trace"
)

// The Endpoint is the transport's message handler: the transport loop is the
// single dispatch goroutine, and these three methods route every inbound
// envelope. Handlers run on this goroutine and either reply inline or
// detach their reply handle to a worker.

// HandleNotification implements jsonrpc.Handler.
func (ep *Endpoint) HandleNotification(method string, params json.RawMessage) bool {
	ctx := ep.handlerContext()
	ep.log.Debugf("<-- %s", method)
	if method == MethodExit {
		return false
	}
	if !ep.initialized.Load() {
		ep.log.Errorf("notification %s before initialization", method)
		return true
	}
	if method == MethodCancelRequest {
		ep.onCancel(params)
		return true
	}
	if handler, ok := ep.notifications[method]; ok {
		handler(ctx, params)
	} else {
		ep.log.Infof("unhandled notification %s", method)
	}
	return true
}

// HandleCall implements jsonrpc.Handler.
func (ep *Endpoint) HandleCall(id jsonrpc.ID, method string, params json.RawMessage) bool {
	// Calls can be canceled by the client; the context carries the signal.
	ctx := ep.handlerContext()
	ctx, cleanup := ep.cancels.Register(ctx, id)
	ctx, span := trace.Begin(ctx, method)
	span.Attach("params", params)

	reply := newReplyOnce(ep, id, method, span, cleanup)
	ep.log.Debugf("<-- %s(%s)", method, id)

	if !ep.initialized.Load() && method != MethodInitialize {
		ep.log.Errorf("call %s before initialization", method)
		reply.Reply(nil, jsonrpc.NewError(jsonrpc.CodeServerNotInitialized, "server not initialized"))
	} else if handler, ok := ep.calls[method]; ok {
		handler(ctx, params, reply)
	} else {
		reply.Reply(nil, jsonrpc.NewError(jsonrpc.CodeMethodNotFound, "method not found"))
	}

	reply.finishDispatch()
	return true
}

// HandleReply implements jsonrpc.Handler. Only integer IDs are ever issued
// outbound, so anything else cannot match.
func (ep *Endpoint) HandleReply(id jsonrpc.ID, result json.RawMessage, rpcErr *jsonrpc.Error) bool {
	var handle ReplyHandler
	if intID, ok := id.Int(); ok {
		handle, _ = ep.outbound.claim(intID)
	}
	if handle == nil {
		ep.log.Errorf("received a reply with ID %s, but there was no such call", id)
		return true
	}
	if rpcErr != nil {
		ep.log.Debugf("<-- reply(%s) error: %s", id, rpcErr)
		handle(nil, rpcErr)
	} else {
		ep.log.Debugf("<-- reply(%s)", id)
		handle(result, nil)
	}
	return true
}

// onCancel services $/cancelRequest.
func (ep *Endpoint) onCancel(params json.RawMessage) {
	var cancelParams struct {
		ID jsonrpc.ID `json:"id"`
	}
	if err := json.Unmarshal(params, &cancelParams); err != nil || !cancelParams.ID.IsValid() {
		ep.log.Errorf("bad cancellation request: %s", string(params))
		return
	}
	ep.cancels.Cancel(cancelParams.ID)
}
