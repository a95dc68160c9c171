// Package lsp implements LSP protocol handlers.
package lsp

import (
	"github.com/tliron/commonlog"

	"github.com/CWBudde/go-lsp-endpoint/internal/endpoint"
	"github.com/CWBudde/go-lsp-endpoint/internal/server"
)

var log = commonlog.GetLogger("lsp-endpoint")

// Handlers binds the protocol methods to server state. One instance per
// endpoint; there is no package-level state.
type Handlers struct {
	ep  *endpoint.Endpoint
	srv *server.Server
}

// Register installs all handlers on the endpoint:
//   - initialize / initialized
//   - shutdown and $/setTrace (exit and $/cancelRequest belong to the dispatcher)
//   - textDocument/didOpen, didChange, didClose
//
// Registration happens once, before the endpoint serves.
func Register(ep *endpoint.Endpoint, srv *server.Server) *Handlers {
	handlers := &Handlers{ep: ep, srv: srv}

	ep.RegisterCall(endpoint.MethodInitialize, handlers.initialize)
	endpoint.BindCall(ep, "shutdown", handlers.shutdown)
	endpoint.BindNotification(ep, "initialized", handlers.initialized)
	endpoint.BindNotification(ep, "$/setTrace", handlers.setTrace)

	endpoint.BindNotification(ep, "textDocument/didOpen", handlers.didOpen)
	endpoint.BindNotification(ep, "textDocument/didChange", handlers.didChange)
	endpoint.BindNotification(ep, "textDocument/didClose", handlers.didClose)

	return handlers
}
