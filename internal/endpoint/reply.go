package endpoint

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/CWBudde/go-lsp-endpoint/internal/jsonrpc"
	"github.com/CWBudde/go-lsp-endpoint/internal/trace"
)

// ReplyOnce is the capability to send the one reply for an inbound call.
// Each handle must cause exactly one reply:
//   - a second Reply is logged and ignored;
//   - a handle released without a reply sends a synthetic InternalError,
//     unless the endpoint is being torn down.
//
// A handle is always passed by pointer and its identity is fixed at
// construction. A handler that returns without replying must call Detach
// first and hand the handle to whatever will reply later (a worker, or a
// client-reply continuation); the new owner releases it, usually deferred.
type ReplyOnce struct {
	replied  atomic.Bool
	detached atomic.Bool
	start    time.Time
	id       jsonrpc.ID
	method   string
	ep       *Endpoint
	span     *trace.Span

	// cleanup erases the cancel-registry entry (cookie checked). It runs
	// once, when the request ends.
	cleanup     func()
	cleanupOnce sync.Once
}

func newReplyOnce(ep *Endpoint, id jsonrpc.ID, method string, span *trace.Span, cleanup func()) *ReplyOnce {
	return &ReplyOnce{
		start:   time.Now(),
		id:      id,
		method:  method,
		ep:      ep,
		span:    span,
		cleanup: cleanup,
	}
}

// ID returns the inbound call's request ID.
func (r *ReplyOnce) ID() jsonrpc.ID {
	return r.id
}

// Method returns the inbound call's method.
func (r *ReplyOnce) Method() string {
	return r.method
}

// Reply sends the call's reply: result on success, the error otherwise.
// Errors that are not *jsonrpc.Error surface to the client as InternalError.
func (r *ReplyOnce) Reply(result any, err error) {
	if !r.replied.CompareAndSwap(false, true) {
		r.ep.log.Errorf("replied twice to message %s(%s)", r.method, r.id)
		return
	}
	duration := time.Since(r.start)
	if err == nil {
		r.ep.log.Debugf("--> reply:%s(%s) %s", r.method, r.id, duration)
		r.span.Attach("reply", result)
		r.ep.writeReply(r.id, result, nil)
	} else {
		rpcErr := jsonrpc.AsError(err)
		r.ep.log.Debugf("--> reply:%s(%s) %s, error: %s", r.method, r.id, duration, rpcErr)
		r.span.Attach("error", rpcErr.Error())
		r.ep.writeReply(r.id, nil, rpcErr)
	}
}

// Detach transfers ownership of the handle out of the dispatch goroutine.
// After Detach, the dispatcher no longer releases the handle when the
// handler returns; the new owner must call Release when the request ends.
func (r *ReplyOnce) Detach() *ReplyOnce {
	r.detached.Store(true)
	return r
}

// Release ends the request: the cancel-registry entry is erased (cookie
// permitting) and the trace span closes. If no reply was sent and the
// endpoint is not being torn down, that is a handler bug: it is logged and
// an InternalError reply is synthesized so the client is not wedged.
//
// During teardown an unreplied handle is abandoned silently; this is the
// legitimate case of a handle parked in a client-reply continuation that the
// client never serviced.
func (r *ReplyOnce) Release() {
	r.cleanupOnce.Do(func() {
		if r.cleanup != nil {
			r.cleanup()
		}
		if !r.replied.Load() && !r.ep.destroyed.Load() {
			r.ep.log.Errorf("no reply to message %s(%s)", r.method, r.id)
			r.Reply(nil, jsonrpc.NewError(jsonrpc.CodeInternalError, "server failed to reply"))
		}
		r.span.End()
	})
}

// finishDispatch runs on the dispatch goroutine after the handler returned.
// Detached handles belong to their new owner now.
func (r *ReplyOnce) finishDispatch() {
	if r.detached.Load() {
		return
	}
	r.Release()
}
