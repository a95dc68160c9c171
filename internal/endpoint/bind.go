package endpoint

import (
	"context"
	"encoding/json"

	"github.com/CWBudde/go-lsp-endpoint/internal/jsonrpc"
)

// Typed binders are the codec gateway: they decode raw params into the
// method's parameter schema before the handler sees them. Decode failures on
// calls reply InvalidRequest; on notifications the message is dropped after
// a log entry.

// BindCall registers a synchronous typed call handler. The handler's result
// or error becomes the reply.
func BindCall[P any, R any](ep *Endpoint, method string, handler func(ctx context.Context, params *P) (R, error)) {
	ep.RegisterCall(method, func(ctx context.Context, raw json.RawMessage, reply *ReplyOnce) {
		params := new(P)
		if err := unmarshalParams(raw, params); err != nil {
			ep.log.Errorf("failed to decode %s request: %s", method, err)
			reply.Reply(nil, jsonrpc.NewError(jsonrpc.CodeInvalidRequest, "failed to decode request"))
			return
		}
		result, err := handler(ctx, params)
		reply.Reply(result, err)
	})
}

// BindAsyncCall registers a typed call handler that owns its reply handle.
// The handle arrives already detached; the handler must arrange for Release
// (deferred in whatever goroutine replies).
func BindAsyncCall[P any](ep *Endpoint, method string, handler func(ctx context.Context, params *P, reply *ReplyOnce)) {
	ep.RegisterCall(method, func(ctx context.Context, raw json.RawMessage, reply *ReplyOnce) {
		params := new(P)
		if err := unmarshalParams(raw, params); err != nil {
			ep.log.Errorf("failed to decode %s request: %s", method, err)
			reply.Reply(nil, jsonrpc.NewError(jsonrpc.CodeInvalidRequest, "failed to decode request"))
			return
		}
		handler(ctx, params, reply.Detach())
	})
}

// BindNotification registers a typed notification handler. Handler errors
// are logged, never sent to the client.
func BindNotification[P any](ep *Endpoint, method string, handler func(ctx context.Context, params *P) error) {
	ep.RegisterNotification(method, func(ctx context.Context, raw json.RawMessage) {
		params := new(P)
		if err := unmarshalParams(raw, params); err != nil {
			ep.log.Errorf("failed to decode %s notification: %s", method, err)
			return
		}
		if err := handler(ctx, params); err != nil {
			ep.log.Errorf("%s handler: %s", method, err)
		}
	})
}

// unmarshalParams decodes raw params; absent or null params leave the target
// at its zero value.
func unmarshalParams(raw json.RawMessage, target any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, target)
}

// CheckCancelled returns the RequestCancelled reply error when the handler's
// context has been canceled, nil otherwise. Cancellation is cooperative:
// handlers call this at their own suspension points.
func CheckCancelled(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return jsonrpc.NewError(jsonrpc.CodeRequestCancelled, "request canceled")
	default:
		return nil
	}
}
