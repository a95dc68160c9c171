package lsp

import (
	"context"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-lsp-endpoint/internal/document"
	"github.com/CWBudde/go-lsp-endpoint/internal/endpoint"
	"github.com/CWBudde/go-lsp-endpoint/internal/server"
)

// didOpen handles the textDocument/didOpen notification.
// This is sent when a document is opened in the editor.
func (h *Handlers) didOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := string(params.TextDocument.URI)

	doc := &server.Document{
		URI:        uri,
		Text:       params.TextDocument.Text,
		Version:    int(params.TextDocument.Version),
		LanguageID: params.TextDocument.LanguageID,
	}
	h.srv.Documents().Set(uri, doc)

	log.Debugf("document opened: %s (version %d, language %s, %d bytes)",
		uri, doc.Version, doc.LanguageID, len(doc.Text))

	h.analyzeLater(ctx, doc)
	return nil
}

// didChange handles the textDocument/didChange notification.
// It supports both full and incremental sync modes.
func (h *Handlers) didChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	version := int(params.TextDocument.Version)

	doc, exists := h.srv.Documents().Get(uri)
	if !exists {
		log.Errorf("document not found for didChange: %s", uri)
		return nil
	}

	encoding := endpoint.OffsetEncodingFromContext(ctx)
	newText := doc.Text

	for index, changeEvent := range params.ContentChanges {
		switch change := changeEvent.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			newText = change.Text
		case protocol.TextDocumentContentChangeEvent:
			if change.Range == nil {
				newText = change.Text
				continue
			}
			updatedText, err := document.ApplyContentChange(newText, *change.Range, change.Text, encoding)
			if err != nil {
				// Skip the broken change rather than corrupt the document.
				log.Errorf("failed to apply change %d to %s: %s", index, uri, err)
				continue
			}
			newText = updatedText
		default:
			log.Errorf("invalid content change type at index %d for %s", index, uri)
		}
	}

	updatedDoc := &server.Document{
		URI:        uri,
		Text:       newText,
		Version:    version,
		LanguageID: doc.LanguageID,
	}
	h.srv.Documents().Set(uri, updatedDoc)

	log.Debugf("document changed: %s (version %d, %d changes)", uri, version, len(params.ContentChanges))

	h.analyzeLater(ctx, updatedDoc)
	return nil
}

// didClose handles the textDocument/didClose notification.
// This is sent when a document is closed in the editor.
func (h *Handlers) didClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	h.srv.Documents().Delete(uri)

	log.Debugf("document closed: %s", uri)

	// Send empty diagnostics to clear error markers in the editor
	h.PublishDiagnostics(uri, []protocol.Diagnostic{})
	return nil
}

// analyzeLater runs the engine over the document on a worker and publishes
// the resulting diagnostics. The dispatch goroutine does not run the engine
// itself; it blocks only while the worker pool's task queue is full.
func (h *Handlers) analyzeLater(ctx context.Context, doc *server.Document) {
	submitted := h.srv.Workers().Submit(func() {
		diagnostics := h.srv.Engine().Analyze(ctx, doc)
		h.PublishDiagnostics(doc.URI, diagnostics)
	})
	if !submitted {
		log.Errorf("worker pool closed, skipping analysis of %s", doc.URI)
	}
}
