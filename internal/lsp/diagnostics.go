package lsp

import (
	"sort"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// PublishDiagnostics sends diagnostic information to the client for a
// specific document. This notifies the editor about syntax errors, semantic
// errors, warnings, and hints. Passing an empty slice clears the document's
// markers.
func (h *Handlers) PublishDiagnostics(uri string, diagnostics []protocol.Diagnostic) {
	// Sort diagnostics by position (line, then column) for consistent ordering
	sortDiagnostics(diagnostics)

	params := &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	}

	log.Debugf("publishing %d diagnostic(s) for %s", len(diagnostics), uri)

	if err := h.ep.Notify(protocol.ServerTextDocumentPublishDiagnostics, params); err != nil {
		log.Errorf("failed to publish diagnostics for %s: %s", uri, err)
	}
}

// sortDiagnostics sorts diagnostics by position (line first, then column).
func sortDiagnostics(diagnostics []protocol.Diagnostic) {
	sort.Slice(diagnostics, func(i, j int) bool {
		if diagnostics[i].Range.Start.Line != diagnostics[j].Range.Start.Line {
			return diagnostics[i].Range.Start.Line < diagnostics[j].Range.Start.Line
		}
		return diagnostics[i].Range.Start.Character < diagnostics[j].Range.Start.Character
	})
}
