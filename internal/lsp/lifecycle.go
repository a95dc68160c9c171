package lsp

import (
	"context"
	"encoding/json"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-lsp-endpoint/internal/endpoint"
	"github.com/CWBudde/go-lsp-endpoint/internal/jsonrpc"
)

const (
	serverName    = "go-lsp-endpoint"
	serverVersion = "0.1.0"
)

// initializeResult is protocol.InitializeResult plus the offsetEncoding
// extension member echoing the negotiated encoding back to the client.
type initializeResult struct {
	protocol.InitializeResult
	OffsetEncoding string `json:"offsetEncoding,omitempty"`
}

// initialize handles the LSP initialize request.
// It is registered raw rather than through a typed binder because the
// offsetEncoding capability is an extension that protocol.ClientCapabilities
// does not model.
func (h *Handlers) initialize(ctx context.Context, raw json.RawMessage, reply *endpoint.ReplyOnce) {
	var params protocol.InitializeParams
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &params); err != nil {
			log.Errorf("failed to decode initialize request: %s", err)
			reply.Reply(nil, jsonrpc.NewError(jsonrpc.CodeInvalidRequest, "failed to decode request"))
			return
		}
	}

	// Clients may offer offset encodings in preference order; workspace
	// folders ride along in the same raw pass.
	var extension struct {
		Capabilities struct {
			OffsetEncoding []string `json:"offsetEncoding"`
		} `json:"capabilities"`
		WorkspaceFolders []struct {
			URI string `json:"uri"`
		} `json:"workspaceFolders"`
	}
	_ = json.Unmarshal(raw, &extension)
	negotiated := negotiateOffsetEncoding(extension.Capabilities.OffsetEncoding, h.srv.Config().OffsetEncoding)
	h.ep.SetOffsetEncoding(negotiated)

	var folders []string
	for _, folder := range extension.WorkspaceFolders {
		folders = append(folders, folder.URI)
	}
	if len(folders) == 0 && params.RootURI != nil {
		folders = append(folders, string(*params.RootURI))
	}

	h.srv.SetClientCapabilities(&params.Capabilities)
	h.srv.SetWorkspaceFolders(folders)

	changeKind := protocol.TextDocumentSyncKindIncremental
	trueValue := true
	falseValue := false

	capabilities := protocol.ServerCapabilities{
		TextDocumentSync: protocol.TextDocumentSyncOptions{
			OpenClose: &trueValue,
			Change:    &changeKind,
			WillSave:  &falseValue,
			Save: &protocol.SaveOptions{
				IncludeText: &falseValue,
			},
		},
	}

	version := serverVersion
	result := initializeResult{
		InitializeResult: protocol.InitializeResult{
			Capabilities: capabilities,
			ServerInfo: &protocol.InitializeResultServerInfo{
				Name:    serverName,
				Version: &version,
			},
		},
		OffsetEncoding: string(negotiated),
	}

	// The gate opens on the dispatch goroutine, before the reply leaves, so
	// no later call can be dispatched against an uninitialized server.
	h.ep.SetInitialized()
	reply.Reply(result, nil)
}

// negotiateOffsetEncoding picks the first encoding the client offered that
// the server supports, falling back to the configured default.
func negotiateOffsetEncoding(offered []string, fallback endpoint.OffsetEncoding) endpoint.OffsetEncoding {
	for _, candidate := range offered {
		switch endpoint.OffsetEncoding(candidate) {
		case endpoint.OffsetEncodingUTF8, endpoint.OffsetEncodingUTF16, endpoint.OffsetEncodingUTF32:
			return endpoint.OffsetEncoding(candidate)
		}
	}
	if fallback == "" {
		return endpoint.OffsetEncodingUTF16
	}
	return fallback
}

// initialized handles the initialized notification from the client.
// This is sent after the initialize response, signaling that the client is ready.
func (h *Handlers) initialized(ctx context.Context, params *protocol.InitializedParams) error {
	log.Info("client initialized")
	return nil
}

// shutdown handles the shutdown request. The client asks the server to shut
// down gracefully; the actual exit comes as a separate notification.
func (h *Handlers) shutdown(ctx context.Context, params *struct{}) (any, error) {
	h.srv.SetShuttingDown()
	log.Noticef("shutdown requested, drain deadline %s", h.srv.DrainDeadline().Format("15:04:05"))
	return nil, nil
}

// setTrace handles the $/setTrace notification.
func (h *Handlers) setTrace(ctx context.Context, params *protocol.SetTraceParams) error {
	h.srv.SetTraceValue(string(params.Value))
	return nil
}
